package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bnema/px-cli/internal/domain"
	"github.com/bnema/px-cli/internal/ports"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type HistoryService struct {
	repo   ports.TranscriptRepository
	clock  ports.Clock
	logger *zap.Logger
	newID  func() string
}

func NewHistoryService(repo ports.TranscriptRepository, clock ports.Clock, logger *zap.Logger) *HistoryService {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &HistoryService{
		repo:   repo,
		clock:  clock,
		logger: logger.Named("history"),
		newID:  uuid.NewString,
	}
}

func (s *HistoryService) Record(ctx context.Context, state domain.SessionState, outcome domain.Outcome) (domain.Transcript, error) {
	transcript := domain.TranscriptFromState(domain.TranscriptID(s.newID()), state, outcome, s.clock.Now().UTC())

	if err := s.repo.Save(ctx, transcript); err != nil {
		return domain.Transcript{}, fmt.Errorf("save transcript: %w", err)
	}

	s.logger.Debug("recorded transcript",
		zap.String("transcript_id", string(transcript.ID)),
		zap.String("request_id", state.RequestID),
		zap.String("outcome", string(transcript.Outcome)),
	)
	return transcript, nil
}

// RecordAsk records the result of Session.Ask. Superseded asks and asks
// that never reached the backend are skipped and report ok=false.
func (s *HistoryService) RecordAsk(ctx context.Context, state domain.SessionState, askErr error) (domain.Transcript, bool, error) {
	outcome, ok := outcomeFor(state, askErr)
	if !ok {
		return domain.Transcript{}, false, nil
	}

	transcript, err := s.Record(ctx, state, outcome)
	if err != nil {
		return domain.Transcript{}, false, err
	}

	return transcript, true, nil
}

func (s *HistoryService) List(ctx context.Context) ([]domain.Transcript, error) {
	transcripts, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transcripts: %w", err)
	}

	return transcripts, nil
}

// Get resolves id exactly, or as a unique prefix of a stored id.
func (s *HistoryService) Get(ctx context.Context, id string) (domain.Transcript, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Transcript{}, fmt.Errorf("%w: empty id", domain.ErrTranscriptNotFound)
	}

	transcript, err := s.repo.GetByID(ctx, domain.TranscriptID(id))
	if err == nil {
		return transcript, nil
	}
	if !errors.Is(err, domain.ErrTranscriptNotFound) {
		return domain.Transcript{}, fmt.Errorf("get transcript: %w", err)
	}

	transcripts, err := s.List(ctx)
	if err != nil {
		return domain.Transcript{}, err
	}

	var matches []domain.Transcript
	for _, candidate := range transcripts {
		if strings.HasPrefix(string(candidate.ID), id) {
			matches = append(matches, candidate)
		}
	}

	switch len(matches) {
	case 0:
		return domain.Transcript{}, fmt.Errorf("%w: %s", domain.ErrTranscriptNotFound, id)
	case 1:
		return matches[0], nil
	default:
		return domain.Transcript{}, fmt.Errorf("transcript id prefix %q is ambiguous (%d matches)", id, len(matches))
	}
}

func (s *HistoryService) Clear(ctx context.Context) error {
	if err := s.repo.Clear(ctx); err != nil {
		return fmt.Errorf("clear transcripts: %w", err)
	}

	s.logger.Info("history cleared")
	return nil
}

func outcomeFor(state domain.SessionState, askErr error) (domain.Outcome, bool) {
	if state.RequestID == "" {
		return "", false
	}

	switch {
	case askErr == nil:
		return domain.OutcomeComplete, true
	case errors.Is(askErr, domain.ErrSuperseded):
		return "", false
	case errors.Is(askErr, context.Canceled), errors.Is(askErr, context.DeadlineExceeded):
		return domain.OutcomeCancelled, true
	case errors.Is(askErr, domain.ErrServerReported), errors.Is(askErr, domain.ErrTransport):
		return domain.OutcomeError, true
	default:
		return "", false
	}
}
