package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/member-auth/internal/auth"
	"github.com/spec-kit/member-auth/internal/domain"
	"github.com/spec-kit/member-auth/internal/events"
	"github.com/spec-kit/member-auth/internal/ratelimit"
	"github.com/spec-kit/member-auth/internal/repository"
)

type memoryMembers struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*domain.Member
	err    error

	// createErr fails only Create, as a lost unique-constraint race would.
	createErr error
}

func newMemoryMembers() *memoryMembers {
	return &memoryMembers{byID: map[int64]*domain.Member{}}
}

func (m *memoryMembers) Create(_ context.Context, member *domain.Member) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.createErr != nil {
		return m.createErr
	}
	m.nextID++
	member.ID = m.nextID
	member.CreatedAt = time.Now()
	member.UpdatedAt = member.CreatedAt
	stored := *member
	m.byID[member.ID] = &stored
	return nil
}

func (m *memoryMembers) GetByID(_ context.Context, id int64) (*domain.Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	member, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrMemberNotFound
	}
	out := *member
	return &out, nil
}

func (m *memoryMembers) GetByEmail(_ context.Context, email string) (*domain.Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, member := range m.byID {
		if member.Email == email {
			out := *member
			return &out, nil
		}
	}
	return nil, domain.ErrMemberNotFound
}

func (m *memoryMembers) GetByIdentifier(ctx context.Context, id string) (domain.Principal, error) {
	memberID, err := repository.ParseMemberID(id)
	if err != nil {
		return domain.Principal{}, domain.ErrPrincipalNotFound
	}
	member, err := m.GetByID(ctx, memberID)
	if errors.Is(err, domain.ErrMemberNotFound) {
		return domain.Principal{}, domain.ErrPrincipalNotFound
	}
	if err != nil {
		return domain.Principal{}, err
	}
	return member.Principal(), nil
}

func (m *memoryMembers) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := m.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrMemberNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (m *memoryMembers) ExistsByNickname(_ context.Context, nickname string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	for _, member := range m.byID {
		if member.Nickname == nickname {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryMembers) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.byID[id]; !ok {
		return domain.ErrMemberNotFound
	}
	delete(m.byID, id)
	return nil
}

// seed stores a member directly with the given roles and returns its id.
func (m *memoryMembers) seed(t *testing.T, hasher auth.PasswordHasher, email, password, nickname string, roles ...domain.Role) string {
	t.Helper()
	hash, err := hasher.Hash(password)
	require.NoError(t, err)
	member := &domain.Member{
		Email:        email,
		PasswordHash: hash,
		Username:     nickname,
		Nickname:     nickname,
		Roles:        domain.NewRoleSet(roles...),
	}
	require.NoError(t, m.Create(context.Background(), member))
	return member.Identifier()
}

type countingLimiter struct {
	mu       sync.Mutex
	limit    int64
	failures map[string]int64
}

func newCountingLimiter(limit int64) *countingLimiter {
	return &countingLimiter{limit: limit, failures: map[string]int64{}}
}

func (l *countingLimiter) Check(_ context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failures[id] >= l.limit {
		return ratelimit.ErrRateLimited
	}
	return nil
}

func (l *countingLimiter) Fail(_ context.Context, id string) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failures[id]++
	return l.failures[id]
}

func (l *countingLimiter) Reset(_ context.Context, id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.failures, id)
}

func (l *countingLimiter) count(id string) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.failures[id]
}

type eventRecorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *eventRecorder) handle(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *eventRecorder) all() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.Event(nil), r.events...)
}

func newRecordingDispatcher() (events.Dispatcher, *eventRecorder) {
	dispatcher := events.NewInMemoryDispatcher(nil)
	recorder := &eventRecorder{}
	dispatcher.Subscribe(events.EventMemberSignedUp, recorder.handle)
	dispatcher.Subscribe(events.EventMemberDeleted, recorder.handle)
	return dispatcher, recorder
}

func newTestTokens(t *testing.T) *auth.TokenService {
	t.Helper()
	tokens, err := auth.NewTokenService(
		auth.AccessTokenConfig{Key: "service-access-key", TTL: time.Minute},
		auth.RefreshTokenConfig{Key: "service-refresh-key", TTL: time.Hour},
	)
	require.NoError(t, err)
	return tokens
}
