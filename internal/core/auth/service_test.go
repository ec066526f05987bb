package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Inkwell/internal/core/apperr"
	"Inkwell/internal/core/users"
	"Inkwell/internal/testutil/memstore"
)

type authFixture struct {
	store   *memstore.Store
	tokens  *TokenService
	service *Service
}

func setupAuth(t *testing.T) *authFixture {
	t.Helper()
	store := memstore.New()
	hasher := NewBcryptHasher(4)
	tokens := newTestTokens(t)
	userService := users.NewUserService(store.Users(), hasher, nil)
	return &authFixture{
		store:   store,
		tokens:  tokens,
		service: NewService(userService, store.Users(), tokens, hasher, nil),
	}
}

func registration() users.CreateUserRequest {
	return users.CreateUserRequest{
		Email:    "Writer@Example.com",
		Username: "writer",
		Password: "password123",
	}
}

func (f *authFixture) user(t *testing.T, email string) *users.User {
	t.Helper()
	u, err := f.store.Users().GetByEmail(context.Background(), email)
	require.NoError(t, err)
	return u
}

func TestRegister_OpensSession(t *testing.T) {
	f := setupAuth(t)

	pair, err := f.service.Register(context.Background(), registration())
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	u := f.user(t, "writer@example.com")
	assert.True(t, u.IsActive)
	require.NotNil(t, u.RefreshTokenHash)
	assert.Equal(t, hashToken(pair.RefreshToken), *u.RefreshTokenHash)
	assert.NotEqual(t, pair.RefreshToken, *u.RefreshTokenHash)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := setupAuth(t)
	_, err := f.service.Register(context.Background(), registration())
	require.NoError(t, err)

	req := registration()
	req.Username = "someone-else"
	_, err = f.service.Register(context.Background(), req)
	assert.True(t, apperr.IsConflict(err))
}

func TestLogin(t *testing.T) {
	f := setupAuth(t)
	_, err := f.service.Register(context.Background(), registration())
	require.NoError(t, err)

	pair, err := f.service.Login(context.Background(), LoginRequest{Email: "WRITER@example.com", Password: "password123"})
	require.NoError(t, err)
	claims, err := f.tokens.ParseAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, f.user(t, "writer@example.com").ID, claims.Subject)

	_, err = f.service.Login(context.Background(), LoginRequest{Email: "writer@example.com", Password: "nope"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.service.Login(context.Background(), LoginRequest{Email: "ghost@example.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogout(t *testing.T) {
	f := setupAuth(t)
	_, err := f.service.Register(context.Background(), registration())
	require.NoError(t, err)
	u := f.user(t, "writer@example.com")

	require.NoError(t, f.service.Logout(context.Background(), u.ID))
	u = f.user(t, "writer@example.com")
	assert.False(t, u.IsActive)
	assert.Nil(t, u.RefreshTokenHash)

	assert.ErrorIs(t, f.service.Logout(context.Background(), u.ID), ErrNotLoggedIn)
}

func TestRefresh(t *testing.T) {
	f := setupAuth(t)
	pair, err := f.service.Register(context.Background(), registration())
	require.NoError(t, err)

	access, err := f.service.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	_, err = f.tokens.ParseAccess(access.AccessToken)
	assert.NoError(t, err)
}

func TestRefresh_AfterLogoutIsRevoked(t *testing.T) {
	f := setupAuth(t)
	pair, err := f.service.Register(context.Background(), registration())
	require.NoError(t, err)
	require.NoError(t, f.service.Logout(context.Background(), f.user(t, "writer@example.com").ID))

	_, err = f.service.Refresh(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)
	assert.True(t, IsUnauthorized(err))
}

func TestRefresh_ExpiredEndsSession(t *testing.T) {
	f := setupAuth(t)
	pair, err := f.service.Register(context.Background(), registration())
	require.NoError(t, err)

	f.tokens.now = func() time.Time { return time.Now().Add(48 * time.Hour) }

	_, err = f.service.Refresh(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenExpired)

	u := f.user(t, "writer@example.com")
	assert.False(t, u.IsActive)
	assert.Nil(t, u.RefreshTokenHash)
}

func TestRefresh_Garbage(t *testing.T) {
	f := setupAuth(t)
	_, err := f.service.Refresh(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
