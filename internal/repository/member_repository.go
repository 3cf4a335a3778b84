package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/member-auth/internal/domain"
)

// MemberRepository defines persistence access for members and their roles.
type MemberRepository interface {
	Create(ctx context.Context, member *domain.Member) error
	GetByID(ctx context.Context, id int64) (*domain.Member, error)
	GetByEmail(ctx context.Context, email string) (*domain.Member, error)
	GetByIdentifier(ctx context.Context, id string) (domain.Principal, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByNickname(ctx context.Context, nickname string) (bool, error)
	Delete(ctx context.Context, id int64) error
}

// ErrDatabaseUnavailable is returned when the repository has no connection pool.
var ErrDatabaseUnavailable = errors.New("database unavailable")

const (
	uniqueViolation        = "23505"
	membersEmailConstraint = "members_email_key"
	membersNickConstraint  = "members_nickname_key"
)

type memberRepository struct {
	pool *pgxpool.Pool
}

// NewMemberRepository returns a Postgres-backed implementation.
func NewMemberRepository(pool *pgxpool.Pool) MemberRepository {
	return &memberRepository{pool: pool}
}

const selectMember = `
        SELECT m.id, m.email, m.password_hash, m.username, m.nickname, m.created_at, m.updated_at,
               COALESCE(array_agg(r.role_type) FILTER (WHERE r.role_type IS NOT NULL), '{}')
        FROM members m
        LEFT JOIN member_roles mr ON mr.member_id = m.id
        LEFT JOIN roles r ON r.id = mr.role_id`

func (r *memberRepository) Create(ctx context.Context, member *domain.Member) error {
	if r.pool == nil {
		return ErrDatabaseUnavailable
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const insertMember = `
        INSERT INTO members (email, password_hash, username, nickname)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at, updated_at`

	if err := tx.QueryRow(ctx, insertMember,
		member.Email,
		member.PasswordHash,
		member.Username,
		member.Nickname,
	).Scan(&member.ID, &member.CreatedAt, &member.UpdatedAt); err != nil {
		return translateUniqueViolation(err)
	}

	if member.Roles.Len() > 0 {
		const insertRoles = `
        INSERT INTO member_roles (member_id, role_id)
        SELECT $1, id FROM roles WHERE role_type = ANY($2)`

		if _, err := tx.Exec(ctx, insertRoles, member.ID, member.Roles.Strings()); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *memberRepository) GetByID(ctx context.Context, id int64) (*domain.Member, error) {
	return r.getOne(ctx, selectMember+` WHERE m.id=$1 GROUP BY m.id`, id)
}

func (r *memberRepository) GetByEmail(ctx context.Context, email string) (*domain.Member, error) {
	return r.getOne(ctx, selectMember+` WHERE m.email=$1 GROUP BY m.id`, email)
}

// GetByIdentifier resolves a token subject to a principal. Subjects that are
// not member ids resolve to domain.ErrPrincipalNotFound like unknown ids do.
func (r *memberRepository) GetByIdentifier(ctx context.Context, id string) (domain.Principal, error) {
	memberID, err := ParseMemberID(id)
	if err != nil {
		return domain.Principal{}, domain.ErrPrincipalNotFound
	}

	member, err := r.GetByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, domain.ErrMemberNotFound) {
			return domain.Principal{}, domain.ErrPrincipalNotFound
		}
		return domain.Principal{}, err
	}
	return member.Principal(), nil
}

func (r *memberRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if r.pool == nil {
		return false, ErrDatabaseUnavailable
	}
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM members WHERE email=$1)`, email).Scan(&exists)
	return exists, err
}

func (r *memberRepository) ExistsByNickname(ctx context.Context, nickname string) (bool, error) {
	if r.pool == nil {
		return false, ErrDatabaseUnavailable
	}
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM members WHERE nickname=$1)`, nickname).Scan(&exists)
	return exists, err
}

func (r *memberRepository) Delete(ctx context.Context, id int64) error {
	if r.pool == nil {
		return ErrDatabaseUnavailable
	}
	cmd, err := r.pool.Exec(ctx, `DELETE FROM members WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrMemberNotFound
	}
	return nil
}

func (r *memberRepository) getOne(ctx context.Context, query string, arg any) (*domain.Member, error) {
	if r.pool == nil {
		return nil, ErrDatabaseUnavailable
	}
	var (
		member    domain.Member
		roleNames []string
	)
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&member.ID,
		&member.Email,
		&member.PasswordHash,
		&member.Username,
		&member.Nickname,
		&member.CreatedAt,
		&member.UpdatedAt,
		&roleNames,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMemberNotFound
		}
		return nil, err
	}

	roles, err := RolesFromNames(roleNames)
	if err != nil {
		return nil, fmt.Errorf("member %d: %w", member.ID, err)
	}
	member.Roles = roles
	return &member, nil
}

// translateUniqueViolation maps a lost race on the unique email or nickname
// constraint to the same errors the existence checks produce.
func translateUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return err
	}
	switch pgErr.ConstraintName {
	case membersEmailConstraint:
		return fmt.Errorf("%w: %s", domain.ErrEmailExists, pgErr.Detail)
	case membersNickConstraint:
		return fmt.Errorf("%w: %s", domain.ErrNicknameExists, pgErr.Detail)
	}
	return err
}

// ParseMemberID converts a token subject or path segment into a member id.
func ParseMemberID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid member id %q: %w", raw, err)
	}
	if id <= 0 {
		return 0, fmt.Errorf("invalid member id %q", raw)
	}
	return id, nil
}

// RolesFromNames maps stored role names onto the closed role set.
func RolesFromNames(names []string) (domain.RoleSet, error) {
	roles := make([]domain.Role, 0, len(names))
	for _, name := range names {
		role, err := domain.ParseRole(name)
		if err != nil {
			return domain.RoleSet{}, err
		}
		roles = append(roles, role)
	}
	return domain.NewRoleSet(roles...), nil
}
