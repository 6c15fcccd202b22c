package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasktally/core/internal/adapters/repository"
	"github.com/tasktally/core/internal/domain/entities"
	"github.com/tasktally/core/internal/ports"
)

func newAuthService(t *testing.T) *AuthService {
	t.Helper()
	db := newTestDB(t)
	return NewAuthService(repository.NewUserRepository(db.Users), testSessionConfig(), testLogger())
}

func TestAuthServiceRegister(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, ports.RegisterRequest{Username: "alice", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.NotEqual(t, "password1", user.PasswordHash, "password must be stored hashed")
}

func TestAuthServiceRegisterTrimsUsername(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, ports.RegisterRequest{Username: "  alice  ", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
}

func TestAuthServiceRegisterDuplicate(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, ports.RegisterRequest{Username: "alice", Password: "password1"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, ports.RegisterRequest{Username: "alice", Password: "different1"})
	assert.ErrorIs(t, err, entities.ErrUsernameTaken)
}

func TestAuthServiceLogin(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, ports.RegisterRequest{Username: "alice", Password: "password1"})
	require.NoError(t, err)

	user, err := svc.Login(ctx, ports.LoginRequest{Username: "alice", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
}

func TestAuthServiceLoginInvalidCredentials(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, ports.RegisterRequest{Username: "alice", Password: "password1"})
	require.NoError(t, err)

	// Wrong password and unknown username look identical to the caller.
	_, err = svc.Login(ctx, ports.LoginRequest{Username: "alice", Password: "wrong-password"})
	assert.ErrorIs(t, err, entities.ErrInvalidCredentials)

	_, err = svc.Login(ctx, ports.LoginRequest{Username: "nobody", Password: "password1"})
	assert.ErrorIs(t, err, entities.ErrInvalidCredentials)
}

func TestAuthServiceSessionRoundtrip(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, ports.RegisterRequest{Username: "alice", Password: "password1"})
	require.NoError(t, err)

	token, err := svc.IssueSession(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	uid, err := svc.ValidateSession(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, uid)
}

func TestAuthServiceValidateSessionRejectsGarbage(t *testing.T) {
	svc := newAuthService(t)

	_, err := svc.ValidateSession("not-a-token")
	assert.Error(t, err)

	_, err = svc.ValidateSession("")
	assert.Error(t, err)
}

func TestAuthServiceGetUser(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, ports.RegisterRequest{Username: "alice", Password: "password1"})
	require.NoError(t, err)

	got, err := svc.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	_, err = svc.GetUser(ctx, uuid.New())
	assert.ErrorIs(t, err, entities.ErrUserNotFound)
}
