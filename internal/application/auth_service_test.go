package application

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/bnema/px-cli/internal/domain"
	"github.com/bnema/px-cli/internal/ports/mocks"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var authNow = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func storedSession(t *testing.T, session domain.LoginSession) string {
	t.Helper()

	payload, err := json.Marshal(session)
	require.NoError(t, err)
	return string(payload)
}

func newTestAuthService(t *testing.T) (*AuthService, *mocks.MockAuthBackend, *mocks.MockSecretStore) {
	t.Helper()

	backend := mocks.NewMockAuthBackend(t)
	store := mocks.NewMockSecretStore(t)
	clock := mocks.NewMockClock(t)
	clock.EXPECT().Now().Return(authNow).Maybe()

	return NewAuthService(backend, store, clock, nil), backend, store
}

func TestAuthServiceLoginStoresSession(t *testing.T) {
	service, backend, store := newTestAuthService(t)

	token := signedToken(t, jwt.MapClaims{"sub": "ada@example.com", "exp": authNow.Add(time.Hour).Unix()})
	session := domain.LoginSession{
		AccessToken: token,
		TokenType:   "bearer",
		Email:       "ada@example.com",
		ObtainedAt:  authNow,
	}
	backend.EXPECT().Login(mockAnyContext(), domain.Credentials{Email: "ada@example.com", Password: "pw"}).Return(session, nil)
	store.EXPECT().Put(mockAnyContext(), domain.SessionTokenKey, mock.MatchedBy(func(value string) bool {
		var stored domain.LoginSession
		return json.Unmarshal([]byte(value), &stored) == nil && stored.AccessToken == token
	})).Return(nil)

	status, err := service.Login(context.Background(), "ada@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, domain.LoginStatus{
		LoggedIn:  true,
		Email:     "ada@example.com",
		Subject:   "ada@example.com",
		ExpiresAt: authNow.Add(time.Hour),
	}, status)
}

func TestAuthServiceLoginDoesNotStoreOnBackendFailure(t *testing.T) {
	service, backend, _ := newTestAuthService(t)

	backend.EXPECT().Login(mockAnyContext(), mock.Anything).Return(domain.LoginSession{}, errors.New("invalid credentials"))

	_, err := service.Login(context.Background(), "ada@example.com", "bad")
	assert.ErrorContains(t, err, "login: invalid credentials")
}

func TestAuthServiceLoginWithTokenReadsEmailClaim(t *testing.T) {
	service, _, store := newTestAuthService(t)

	token := signedToken(t, jwt.MapClaims{"sub": "42", "email": "ada@example.com"})
	store.EXPECT().Put(mockAnyContext(), domain.SessionTokenKey, storedSession(t, domain.LoginSession{
		AccessToken: token,
		TokenType:   "bearer",
		Email:       "ada@example.com",
		ObtainedAt:  authNow,
	})).Return(nil)

	status, err := service.LoginWithToken(context.Background(), " "+token+" ")
	require.NoError(t, err)
	assert.True(t, status.LoggedIn)
	assert.Equal(t, "42", status.Subject)
	assert.True(t, status.ExpiresAt.IsZero())
}

func TestAuthServiceLoginWithTokenRejectsEmpty(t *testing.T) {
	service, _, _ := newTestAuthService(t)

	_, err := service.LoginWithToken(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrEmptyToken)
}

func TestAuthServiceTokenRequiresLogin(t *testing.T) {
	service, _, store := newTestAuthService(t)

	store.EXPECT().Get(mockAnyContext(), domain.SessionTokenKey).Return("", domain.ErrSecretNotFound)

	_, err := service.Token(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotLoggedIn)
}

func TestAuthServiceTokenRejectsExpiredSession(t *testing.T) {
	service, _, store := newTestAuthService(t)

	token := signedToken(t, jwt.MapClaims{"sub": "42", "exp": authNow.Add(-time.Minute).Unix()})
	store.EXPECT().Get(mockAnyContext(), domain.SessionTokenKey).Return(storedSession(t, domain.LoginSession{AccessToken: token}), nil)

	_, err := service.Token(context.Background())
	assert.ErrorIs(t, err, domain.ErrSessionExpired)
}

func TestAuthServiceTokenAcceptsOpaqueToken(t *testing.T) {
	service, _, store := newTestAuthService(t)

	store.EXPECT().Get(mockAnyContext(), domain.SessionTokenKey).Return(storedSession(t, domain.LoginSession{AccessToken: "opaque-token"}), nil)

	token, err := service.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "opaque-token", token)
}

func TestAuthServiceStatusWhenLoggedOut(t *testing.T) {
	service, _, store := newTestAuthService(t)

	store.EXPECT().Get(mockAnyContext(), domain.SessionTokenKey).Return("", domain.ErrSecretNotFound)

	status, err := service.Status(context.Background())
	require.NoError(t, err)
	assert.False(t, status.LoggedIn)
}

func TestAuthServiceStatusReportsExpiry(t *testing.T) {
	service, _, store := newTestAuthService(t)

	expiresAt := authNow.Add(-time.Hour)
	token := signedToken(t, jwt.MapClaims{"sub": "42", "exp": expiresAt.Unix()})
	store.EXPECT().Get(mockAnyContext(), domain.SessionTokenKey).Return(storedSession(t, domain.LoginSession{
		AccessToken: token,
		Email:       "ada@example.com",
	}), nil)

	status, err := service.Status(context.Background())
	require.NoError(t, err)
	assert.True(t, status.LoggedIn)
	assert.True(t, status.Expired)
	assert.Equal(t, expiresAt, status.ExpiresAt)
	assert.Equal(t, "ada@example.com", status.Email)
}

func TestAuthServiceStatusSurfacesCorruptSession(t *testing.T) {
	service, _, store := newTestAuthService(t)

	store.EXPECT().Get(mockAnyContext(), domain.SessionTokenKey).Return("{not json", nil)

	_, err := service.Status(context.Background())
	assert.ErrorContains(t, err, "decode session token")
}

func TestAuthServiceLogoutIsIdempotent(t *testing.T) {
	service, _, store := newTestAuthService(t)

	store.EXPECT().Delete(mockAnyContext(), domain.SessionTokenKey).Return(nil).Once()
	store.EXPECT().Delete(mockAnyContext(), domain.SessionTokenKey).Return(domain.ErrSecretNotFound).Once()

	require.NoError(t, service.Logout(context.Background()))
	require.NoError(t, service.Logout(context.Background()))
}

func TestAuthServiceLogoutPropagatesStoreFailure(t *testing.T) {
	service, _, store := newTestAuthService(t)

	store.EXPECT().Delete(mockAnyContext(), domain.SessionTokenKey).Return(errors.New("pass locked"))

	err := service.Logout(context.Background())
	assert.ErrorContains(t, err, "delete session token: pass locked")
}

func TestAuthServiceRegister(t *testing.T) {
	service, backend, _ := newTestAuthService(t)

	backend.EXPECT().Register(mockAnyContext(), domain.Credentials{Email: "ada@example.com", Password: "pw"}).
		Return(domain.RegisteredUser{ID: 7, Email: "ada@example.com"}, nil)

	user, err := service.Register(context.Background(), "ada@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, int64(7), user.ID)
}

func mockAnyContext() interface{} {
	return mock.Anything
}
