package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/member-auth/internal/auth"
	"github.com/spec-kit/member-auth/internal/domain"
	"github.com/spec-kit/member-auth/internal/events"
	"github.com/spec-kit/member-auth/internal/repository"
	apperrors "github.com/spec-kit/member-auth/pkg/util/errorutil"
)

// MemberService exposes member reads and guarded deletion.
type MemberService struct {
	members    repository.MemberRepository
	guard      auth.Guard
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewMemberService builds the service.
func NewMemberService(members repository.MemberRepository, guard auth.Guard, dispatcher events.Dispatcher, logger *zap.Logger) *MemberService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemberService{members: members, guard: guard, dispatcher: dispatcher, logger: logger}
}

// Read returns the member with the given id. Reads are public.
func (s *MemberService) Read(ctx context.Context, id string) (*domain.Member, error) {
	memberID, err := repository.ParseMemberID(id)
	if err != nil {
		return nil, apperrors.NewNotFound("member", map[string]any{"member_id": id})
	}
	member, err := s.members.GetByID(ctx, memberID)
	if err != nil {
		return nil, mapError(err)
	}
	return member, nil
}

// Delete removes a member. The caller must hold an access token for that
// member or for an administrator; the guard runs before any lookup.
func (s *MemberService) Delete(ctx context.Context, authCtx auth.AuthenticationContext, id string) error {
	if err := s.guard.Authorize(authCtx, id); err != nil {
		return mapError(err)
	}

	memberID, err := repository.ParseMemberID(id)
	if err != nil {
		return apperrors.NewNotFound("member", map[string]any{"member_id": id})
	}
	if err := s.members.Delete(ctx, memberID); err != nil {
		return mapError(err)
	}

	principal, _ := authCtx.Principal()
	event := events.NewEvent(events.EventMemberDeleted, id, events.MemberDeletedPayload{
		DeletedBySelf: principal.ID == id,
	})
	event.ActorID = principal.ID
	if s.dispatcher != nil {
		if err := s.dispatcher.Publish(ctx, event); err != nil {
			s.logger.Warn("publish event failed", zap.String("event_type", string(event.Type)), zap.Error(err))
		}
	}
	return nil
}
