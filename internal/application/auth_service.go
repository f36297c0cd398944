package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bnema/px-cli/internal/domain"
	"github.com/bnema/px-cli/internal/ports"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

var ErrEmptyToken = errors.New("token is required")

// AuthService keeps the login session in the secret store and hands the
// bearer token to the stream consumer.
type AuthService struct {
	backend ports.AuthBackend
	store   ports.SecretStore
	clock   ports.Clock
	logger  *zap.Logger
}

var _ ports.TokenProvider = (*AuthService)(nil)

func NewAuthService(backend ports.AuthBackend, store ports.SecretStore, clock ports.Clock, logger *zap.Logger) *AuthService {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &AuthService{
		backend: backend,
		store:   store,
		clock:   clock,
		logger:  logger.Named("auth"),
	}
}

func (s *AuthService) Login(ctx context.Context, email, password string) (domain.LoginStatus, error) {
	session, err := s.backend.Login(ctx, domain.Credentials{Email: email, Password: password})
	if err != nil {
		return domain.LoginStatus{}, fmt.Errorf("login: %w", err)
	}

	if err := s.save(ctx, session); err != nil {
		return domain.LoginStatus{}, err
	}

	s.logger.Info("logged in", zap.String("email", session.Email))
	return s.statusFor(session), nil
}

// LoginWithToken stores a token issued out of band.
func (s *AuthService) LoginWithToken(ctx context.Context, token string) (domain.LoginStatus, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.LoginStatus{}, ErrEmptyToken
	}

	session := domain.LoginSession{
		AccessToken: token,
		TokenType:   "bearer",
		ObtainedAt:  s.clock.Now().UTC(),
	}
	if claims, ok := s.claims(token); ok {
		if email, ok := claims["email"].(string); ok {
			session.Email = email
		}
	}

	if err := s.save(ctx, session); err != nil {
		return domain.LoginStatus{}, err
	}

	s.logger.Info("stored session token")
	return s.statusFor(session), nil
}

// Logout forgets the stored session. Logging out twice is not an error.
func (s *AuthService) Logout(ctx context.Context) error {
	if err := s.store.Delete(ctx, domain.SessionTokenKey); err != nil && !errors.Is(err, domain.ErrSecretNotFound) {
		return fmt.Errorf("delete session token: %w", err)
	}

	s.logger.Info("logged out")
	return nil
}

func (s *AuthService) Status(ctx context.Context) (domain.LoginStatus, error) {
	session, err := s.load(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNotLoggedIn) {
			return domain.LoginStatus{}, nil
		}
		return domain.LoginStatus{}, err
	}

	return s.statusFor(session), nil
}

func (s *AuthService) Token(ctx context.Context) (string, error) {
	session, err := s.load(ctx)
	if err != nil {
		return "", err
	}

	if status := s.statusFor(session); status.Expired {
		return "", fmt.Errorf("%w: expired at %s", domain.ErrSessionExpired, status.ExpiresAt.Format(time.RFC3339))
	}

	return session.AccessToken, nil
}

func (s *AuthService) Register(ctx context.Context, email, password string) (domain.RegisteredUser, error) {
	user, err := s.backend.Register(ctx, domain.Credentials{Email: email, Password: password})
	if err != nil {
		return domain.RegisteredUser{}, fmt.Errorf("register: %w", err)
	}

	s.logger.Info("registered", zap.Int64("user_id", user.ID))
	return user, nil
}

func (s *AuthService) save(ctx context.Context, session domain.LoginSession) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	if err := s.store.Put(ctx, domain.SessionTokenKey, string(payload)); err != nil {
		return fmt.Errorf("store session token: %w", err)
	}

	return nil
}

func (s *AuthService) load(ctx context.Context) (domain.LoginSession, error) {
	raw, err := s.store.Get(ctx, domain.SessionTokenKey)
	if err != nil {
		if errors.Is(err, domain.ErrSecretNotFound) {
			return domain.LoginSession{}, domain.ErrNotLoggedIn
		}
		return domain.LoginSession{}, fmt.Errorf("read session token: %w", err)
	}

	var session domain.LoginSession
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return domain.LoginSession{}, fmt.Errorf("decode session token: %w", err)
	}
	if strings.TrimSpace(session.AccessToken) == "" {
		return domain.LoginSession{}, domain.ErrNotLoggedIn
	}

	return session, nil
}

func (s *AuthService) statusFor(session domain.LoginSession) domain.LoginStatus {
	status := domain.LoginStatus{
		LoggedIn: true,
		Email:    session.Email,
	}

	claims, ok := s.claims(session.AccessToken)
	if !ok {
		return status
	}

	if subject, err := claims.GetSubject(); err == nil {
		status.Subject = subject
	}
	if expiresAt, err := claims.GetExpirationTime(); err == nil && expiresAt != nil {
		status.ExpiresAt = expiresAt.UTC()
		status.Expired = !s.clock.Now().Before(expiresAt.Time)
	}

	return status
}

// claims reads a JWT payload without verifying it; the client never holds
// the signing key. Opaque tokens report ok=false.
func (s *AuthService) claims(token string) (jwt.MapClaims, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		s.logger.Debug("session token is not a jwt", zap.Error(err))
		return nil, false
	}

	return claims, true
}
