package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/member-auth/internal/auth"
	"github.com/spec-kit/member-auth/internal/domain"
	"github.com/spec-kit/member-auth/internal/events"
	"github.com/spec-kit/member-auth/internal/ratelimit"
	"github.com/spec-kit/member-auth/internal/repository"
	apperrors "github.com/spec-kit/member-auth/pkg/util/errorutil"
)

type signFixture struct {
	svc      *SignService
	members  *memoryMembers
	tokens   *auth.TokenService
	hasher   auth.PasswordHasher
	limiter  *countingLimiter
	recorder *eventRecorder
}

func newSignFixture(t *testing.T) signFixture {
	t.Helper()
	members := newMemoryMembers()
	tokens := newTestTokens(t)
	hasher := auth.NewPasswordHasher(bcrypt.MinCost)
	limiter := newCountingLimiter(3)
	dispatcher, recorder := newRecordingDispatcher()

	svc := NewSignService(SignDependencies{
		Members:    members,
		Tokens:     tokens,
		Hasher:     hasher,
		Limiter:    limiter,
		Dispatcher: dispatcher,
	})
	return signFixture{svc: svc, members: members, tokens: tokens, hasher: hasher, limiter: limiter, recorder: recorder}
}

func validSignUp() SignUpInput {
	return SignUpInput{
		Email:    "member@mail.com",
		Password: "passw0rd!",
		Username: "member",
		Nickname: "member01",
	}
}

func statusOf(err error) int {
	return apperrors.ToDomainError(err).HTTPStatus
}

func TestSignUpCreatesNormalMember(t *testing.T) {
	f := newSignFixture(t)

	member, err := f.svc.SignUp(context.Background(), validSignUp())
	require.NoError(t, err)

	assert.NotZero(t, member.ID)
	assert.Equal(t, 1, member.Roles.Len())
	assert.True(t, member.Roles.Has(domain.RoleNormal))
	assert.NotEqual(t, "passw0rd!", member.PasswordHash)
	assert.True(t, f.hasher.Matches(member.PasswordHash, "passw0rd!"))

	recorded := f.recorder.all()
	require.Len(t, recorded, 1)
	assert.Equal(t, events.EventMemberSignedUp, recorded[0].Type)
	assert.Equal(t, member.Identifier(), recorded[0].MemberID)
}

func TestSignUpRejectsDuplicates(t *testing.T) {
	f := newSignFixture(t)
	_, err := f.svc.SignUp(context.Background(), validSignUp())
	require.NoError(t, err)

	sameEmail := validSignUp()
	sameEmail.Nickname = "other01"
	_, err = f.svc.SignUp(context.Background(), sameEmail)
	assert.ErrorIs(t, err, domain.ErrEmailExists)
	assert.Equal(t, http.StatusConflict, statusOf(err))

	sameNickname := validSignUp()
	sameNickname.Email = "other@mail.com"
	_, err = f.svc.SignUp(context.Background(), sameNickname)
	assert.ErrorIs(t, err, domain.ErrNicknameExists)
	assert.Equal(t, http.StatusConflict, statusOf(err))
}

func TestSignUpValidation(t *testing.T) {
	cases := map[string]func(*SignUpInput){
		"bad email":             func(in *SignUpInput) { in.Email = "not-an-email" },
		"email with name":       func(in *SignUpInput) { in.Email = "Member <member@mail.com>" },
		"long email":            func(in *SignUpInput) { in.Email = "a-very-long-local-part@example-mail.com" },
		"short password":        func(in *SignUpInput) { in.Password = "p4ss!" },
		"password no symbol":    func(in *SignUpInput) { in.Password = "password1" },
		"password no digit":     func(in *SignUpInput) { in.Password = "password!" },
		"password no letter":    func(in *SignUpInput) { in.Password = "12345678!" },
		"short username":        func(in *SignUpInput) { in.Username = "a" },
		"nickname with symbols": func(in *SignUpInput) { in.Nickname = "nick_name" },
		"long nickname":         func(in *SignUpInput) { in.Nickname = "abcdefghijklmnopqrstu" },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			f := newSignFixture(t)
			in := validSignUp()
			mutate(&in)

			_, err := f.svc.SignUp(context.Background(), in)
			require.Error(t, err)
			assert.Equal(t, http.StatusBadRequest, statusOf(err))
			assert.Empty(t, f.recorder.all())
		})
	}
}

func TestSignInIssuesPairForMemberID(t *testing.T) {
	f := newSignFixture(t)
	id := f.members.seed(t, f.hasher, "member@mail.com", "passw0rd!", "member01", domain.RoleNormal)

	pair, err := f.svc.SignIn(context.Background(), "member@mail.com", "passw0rd!")
	require.NoError(t, err)

	subject, err := f.tokens.ExtractAccessTokenSubject(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, id, subject)

	subject, err = f.tokens.ExtractRefreshTokenSubject(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, id, subject)
}

func TestSignInFailuresAreIndistinguishable(t *testing.T) {
	f := newSignFixture(t)
	f.members.seed(t, f.hasher, "member@mail.com", "passw0rd!", "member01", domain.RoleNormal)

	_, wrongPassword := f.svc.SignIn(context.Background(), "member@mail.com", "wrong-pass1!")
	_, unknownEmail := f.svc.SignIn(context.Background(), "nobody@mail.com", "passw0rd!")

	for _, err := range []error{wrongPassword, unknownEmail} {
		assert.ErrorIs(t, err, domain.ErrLoginFailure)
		assert.Equal(t, http.StatusUnauthorized, statusOf(err))
		assert.Equal(t, "LOGIN_FAILURE", apperrors.ToDomainError(err).Code)
	}
}

func TestSignInAttemptLimit(t *testing.T) {
	f := newSignFixture(t)
	f.members.seed(t, f.hasher, "member@mail.com", "passw0rd!", "member01", domain.RoleNormal)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.svc.SignIn(ctx, "member@mail.com", "wrong-pass1!")
		require.ErrorIs(t, err, domain.ErrLoginFailure)
	}

	_, err := f.svc.SignIn(ctx, "member@mail.com", "passw0rd!")
	assert.ErrorIs(t, err, ratelimit.ErrRateLimited)
	assert.Equal(t, http.StatusTooManyRequests, statusOf(err))
}

func TestSignInSuccessResetsLimiter(t *testing.T) {
	f := newSignFixture(t)
	f.members.seed(t, f.hasher, "member@mail.com", "passw0rd!", "member01", domain.RoleNormal)
	ctx := context.Background()

	_, _ = f.svc.SignIn(ctx, "member@mail.com", "wrong-pass1!")
	require.Equal(t, int64(1), f.limiter.count("member@mail.com"))

	_, err := f.svc.SignIn(ctx, "member@mail.com", "passw0rd!")
	require.NoError(t, err)
	assert.Equal(t, int64(0), f.limiter.count("member@mail.com"))
}

func TestSignInRepositoryFailureIsInternal(t *testing.T) {
	f := newSignFixture(t)
	f.members.err = errors.New("connection reset")

	_, err := f.svc.SignIn(context.Background(), "member@mail.com", "passw0rd!")
	assert.Equal(t, http.StatusInternalServerError, statusOf(err))
	assert.Equal(t, int64(0), f.limiter.count("member@mail.com"))
}

func TestRefreshTokenIssuesAccessTokenOnly(t *testing.T) {
	f := newSignFixture(t)
	pair, err := f.svc.IssueTokenPair("42")
	require.NoError(t, err)

	access, err := f.svc.RefreshToken(pair.RefreshToken)
	require.NoError(t, err)
	subject, err := f.tokens.ExtractAccessTokenSubject(access)
	require.NoError(t, err)
	assert.Equal(t, "42", subject)

	assert.True(t, f.tokens.ValidateRefreshToken(pair.RefreshToken))

	_, err = f.svc.RefreshToken(pair.AccessToken)
	assert.ErrorIs(t, err, auth.ErrAuthenticationRequired)
	assert.Equal(t, http.StatusUnauthorized, statusOf(err))

	_, err = f.svc.RefreshToken("")
	assert.Equal(t, http.StatusUnauthorized, statusOf(err))
}

func TestSignUpLostUniqueRaceIsConflict(t *testing.T) {
	cases := map[error]error{
		fmt.Errorf("%w: email", domain.ErrEmailExists):       domain.ErrEmailExists,
		fmt.Errorf("%w: nickname", domain.ErrNicknameExists): domain.ErrNicknameExists,
	}

	for createErr, want := range cases {
		f := newSignFixture(t)
		f.members.createErr = createErr

		_, err := f.svc.SignUp(context.Background(), validSignUp())
		assert.ErrorIs(t, err, want)
		assert.Equal(t, http.StatusConflict, statusOf(err))
		assert.Empty(t, f.recorder.all())
	}
}

func TestSignUpWithoutDatabase(t *testing.T) {
	f := newSignFixture(t)
	f.members.err = repository.ErrDatabaseUnavailable

	_, err := f.svc.SignUp(context.Background(), validSignUp())
	assert.Equal(t, http.StatusServiceUnavailable, statusOf(err))
}
