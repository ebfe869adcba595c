package service

import (
	"testing"
	"time"

	"github.com/smallbiznis/taskflow/internal/auth/domain"
	"github.com/smallbiznis/taskflow/internal/auth/password"
	"github.com/smallbiznis/taskflow/internal/auth/repository"
	"github.com/smallbiznis/taskflow/internal/config"
	"github.com/smallbiznis/taskflow/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCosts = password.Params{Memory: 8 * 1024, Iterations: 1, Parallelism: 1}

func newTestService(f *testutil.Fixture) domain.Service {
	return newTestServiceWithCosts(f, testCosts)
}

func newTestServiceWithCosts(f *testutil.Fixture, costs password.Params) domain.Service {
	repo, sessionRepo := repository.New(f.DB)
	return New(Params{
		Log:         f.Log,
		Cfg:         config.Config{SessionTTLHours: 24},
		Repo:        repo,
		SessionRepo: sessionRepo,
		GenID:       f.Node,
		Clock:       f.Clock,
		Hasher:      password.NewHasherWithParams(costs),
	})
}

func TestRegisterValidation(t *testing.T) {
	f := testutil.New(t)
	svc := newTestService(f)

	user, err := svc.Register(f.Ctx(), domain.RegisterRequest{
		Username: " alice ",
		Email:    "Alice@Example.com",
		Password: "correct-horse",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "alice@example.com", user.Email)
	require.NotNil(t, user.PasswordHash)
	assert.NotEqual(t, "correct-horse", *user.PasswordHash)

	cases := []struct {
		name string
		req  domain.RegisterRequest
		want error
	}{
		{"duplicate", domain.RegisterRequest{Username: "alice", Password: "correct-horse"}, domain.ErrUserExists},
		{"blank username", domain.RegisterRequest{Username: " ", Password: "correct-horse"}, domain.ErrInvalidUsername},
		{"spaced username", domain.RegisterRequest{Username: "a b", Password: "correct-horse"}, domain.ErrInvalidUsername},
		{"email", domain.RegisterRequest{Username: "bob", Email: "not-an-email", Password: "correct-horse"}, domain.ErrInvalidEmail},
		{"short password", domain.RegisterRequest{Username: "bob", Password: "short"}, domain.ErrWeakPassword},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(f.Ctx(), tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestLoginWrongPassword(t *testing.T) {
	f := testutil.New(t)
	svc := newTestService(f)
	_, err := svc.Register(f.Ctx(), domain.RegisterRequest{Username: "alice", Password: "correct-horse"})
	require.NoError(t, err)

	_, err = svc.Login(f.Ctx(), domain.LoginRequest{Username: "alice", Password: "wrong-horse"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = svc.Login(f.Ctx(), domain.LoginRequest{Username: "nobody", Password: "correct-horse"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLoginUpgradesWeakHash(t *testing.T) {
	f := testutil.New(t)
	user, err := newTestService(f).Register(f.Ctx(), domain.RegisterRequest{Username: "alice", Password: "correct-horse"})
	require.NoError(t, err)
	require.Contains(t, *user.PasswordHash, "m=8192,t=1,p=1")

	stronger := newTestServiceWithCosts(f, password.Params{Memory: 16 * 1024, Iterations: 2, Parallelism: 1})
	_, err = stronger.Login(f.Ctx(), domain.LoginRequest{Username: "alice", Password: "correct-horse"})
	require.NoError(t, err)

	var stored domain.User
	require.NoError(t, f.DB.First(&stored, "id = ?", user.ID).Error)
	require.NotNil(t, stored.PasswordHash)
	assert.Contains(t, *stored.PasswordHash, "m=16384,t=2,p=1")

	_, err = stronger.Login(f.Ctx(), domain.LoginRequest{Username: "alice", Password: "correct-horse"})
	require.NoError(t, err)

	var again domain.User
	require.NoError(t, f.DB.First(&again, "id = ?", user.ID).Error)
	assert.Equal(t, *stored.PasswordHash, *again.PasswordHash)

	_, err = stronger.Login(f.Ctx(), domain.LoginRequest{Username: "alice", Password: "wrong-horse"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestSessionLifecycle(t *testing.T) {
	f := testutil.New(t)
	svc := newTestService(f)
	user, err := svc.Register(f.Ctx(), domain.RegisterRequest{Username: "alice", Password: "correct-horse"})
	require.NoError(t, err)

	result, err := svc.Login(f.Ctx(), domain.LoginRequest{Username: "alice", Password: "correct-horse", UserAgent: "test"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.RawToken)
	assert.Equal(t, user.ID.String(), result.User.ID)
	assert.True(t, testutil.Now.Add(24*time.Hour).Equal(result.ExpiresAt))

	f.Clock.Advance(time.Hour)
	session, err := svc.Authenticate(f.Ctx(), result.RawToken)
	require.NoError(t, err)
	assert.Equal(t, result.SessionID, session.ID)
	assert.Equal(t, user.ID, session.UserID)

	_, err = svc.Authenticate(f.Ctx(), "bogus")
	assert.ErrorIs(t, err, domain.ErrInvalidSession)

	require.NoError(t, svc.Logout(f.Ctx(), result.RawToken))
	_, err = svc.Authenticate(f.Ctx(), result.RawToken)
	assert.ErrorIs(t, err, domain.ErrSessionRevoked)
}

func TestSessionExpires(t *testing.T) {
	f := testutil.New(t)
	svc := newTestService(f)
	_, err := svc.Register(f.Ctx(), domain.RegisterRequest{Username: "alice", Password: "correct-horse"})
	require.NoError(t, err)
	result, err := svc.Login(f.Ctx(), domain.LoginRequest{Username: "alice", Password: "correct-horse"})
	require.NoError(t, err)

	f.Clock.Advance(25 * time.Hour)
	_, err = svc.Authenticate(f.Ctx(), result.RawToken)
	assert.ErrorIs(t, err, domain.ErrSessionExpired)
}

func TestHashTokenIsStable(t *testing.T) {
	assert.Equal(t, HashToken("abc"), HashToken("abc"))
	assert.NotEqual(t, HashToken("abc"), HashToken("abd"))
	assert.Len(t, HashToken("abc"), 64)
}
