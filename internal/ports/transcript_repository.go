package ports

import (
	"context"

	"github.com/bnema/px-cli/internal/domain"
)

type TranscriptRepository interface {
	GetByID(ctx context.Context, id domain.TranscriptID) (domain.Transcript, error)
	// List returns transcripts newest first.
	List(ctx context.Context) ([]domain.Transcript, error)
	Save(ctx context.Context, transcript domain.Transcript) error
	Clear(ctx context.Context) error
}
