package ports

import (
	"context"

	"github.com/bnema/px-cli/internal/domain"
)

type AuthBackend interface {
	Login(ctx context.Context, creds domain.Credentials) (domain.LoginSession, error)
	Register(ctx context.Context, creds domain.Credentials) (domain.RegisteredUser, error)
}
