package ports

import (
	"context"
	"io"

	"github.com/bnema/px-cli/internal/domain"
)

type StreamRequest struct {
	RequestID string
	Question  string
	Mode      domain.Mode
	Token     string
}

// StreamSource opens the event-stream body answering one question. The
// returned body must stop producing bytes once ctx is cancelled.
type StreamSource interface {
	Open(ctx context.Context, req StreamRequest) (io.ReadCloser, error)
}

type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}
