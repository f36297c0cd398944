package chain

import (
	"context"
	"errors"
	"fmt"

	filestore "github.com/bnema/px-cli/internal/adapters/secrets/file"
	passstore "github.com/bnema/px-cli/internal/adapters/secrets/pass"
	"github.com/bnema/px-cli/internal/domain"
	"github.com/bnema/px-cli/internal/ports"
	"go.uber.org/zap"
)

// Store tries the primary backend first and falls back on failure. Deletes
// go to both backends so a logout never leaves a copy behind.
type Store struct {
	primary  ports.SecretStore
	fallback ports.SecretStore
	logger   *zap.Logger
}

var _ ports.SecretStore = (*Store)(nil)

var (
	errNilPrimaryStore  = errors.New("primary secret store is nil")
	errNilFallbackStore = errors.New("fallback secret store is nil")
)

func NewStore(primary ports.SecretStore, fallback ports.SecretStore, logger *zap.Logger) (*Store, error) {
	if primary == nil {
		return nil, errNilPrimaryStore
	}
	if fallback == nil {
		return nil, errNilFallbackStore
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Store{primary: primary, fallback: fallback, logger: logger.Named("secrets")}, nil
}

func NewPassFirstWithFileFallback(fileRoot string, logger *zap.Logger) (*Store, error) {
	return NewStore(passstore.NewStore(), filestore.NewStore(fileRoot), logger)
}

func (s *Store) Put(ctx context.Context, key string, value string) error {
	err := s.primary.Put(ctx, key, value)
	if err == nil {
		return nil
	}
	if shouldSkipFallback(err) {
		return err
	}

	s.logger.Warn("primary secret backend put failed, using fallback", zap.String("key", key), zap.Error(err))

	fallbackErr := s.fallback.Put(ctx, key, value)
	if fallbackErr == nil {
		return nil
	}

	return fmt.Errorf("primary backend put failed: %w; fallback backend put failed: %w", err, fallbackErr)
}

// Get falls back both on primary failure and on a primary miss, since the
// secret may have been written while the primary was unavailable.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	value, err := s.primary.Get(ctx, key)
	if err == nil {
		return value, nil
	}
	if shouldSkipFallback(err) {
		return "", err
	}
	if !errors.Is(err, domain.ErrSecretNotFound) {
		s.logger.Warn("primary secret backend get failed, using fallback", zap.String("key", key), zap.Error(err))
	}

	fallbackValue, fallbackErr := s.fallback.Get(ctx, key)
	if fallbackErr == nil {
		return fallbackValue, nil
	}

	if errors.Is(err, domain.ErrSecretNotFound) && errors.Is(fallbackErr, domain.ErrSecretNotFound) {
		return "", fmt.Errorf("secret %q: %w", key, domain.ErrSecretNotFound)
	}

	return "", fmt.Errorf("primary backend get failed: %w; fallback backend get failed: %w", err, fallbackErr)
}

func (s *Store) Delete(ctx context.Context, key string) error {
	err := s.primary.Delete(ctx, key)
	if err != nil && shouldSkipFallback(err) {
		return err
	}
	if err != nil {
		s.logger.Warn("primary secret backend delete failed", zap.String("key", key), zap.Error(err))
	}

	fallbackErr := s.fallback.Delete(ctx, key)
	switch {
	case err == nil && fallbackErr == nil:
		return nil
	case err == nil:
		return fmt.Errorf("fallback backend delete failed: %w", fallbackErr)
	case fallbackErr == nil:
		// The fallback copy is gone; a primary that could not be reached
		// holds nothing we can clean up.
		return nil
	default:
		return fmt.Errorf("primary backend delete failed: %w; fallback backend delete failed: %w", err, fallbackErr)
	}
}

func shouldSkipFallback(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
