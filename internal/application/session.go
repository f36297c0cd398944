package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/bnema/px-cli/internal/domain"
	"github.com/bnema/px-cli/internal/ports"
	"github.com/bnema/px-cli/internal/sse"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Session owns the state of the current question and the single stream
// feeding it. Starting a new Ask supersedes whatever was in flight.
type Session struct {
	source ports.StreamSource
	tokens ports.TokenProvider
	logger *zap.Logger
	newID  func() string

	mu          sync.Mutex
	state       domain.SessionState
	generation  uint64
	cancel      context.CancelCauseFunc
	done        chan struct{}
	subscribers []func(domain.SessionState)

	// notifyMu keeps deliveries ordered and drops snapshots from
	// generations that were superseded before delivery.
	notifyMu sync.Mutex
}

func NewSession(source ports.StreamSource, tokens ports.TokenProvider, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Session{
		source: source,
		tokens: tokens,
		logger: logger.Named("session"),
		newID:  uuid.NewString,
	}
}

// Subscribe registers fn to receive a snapshot after every state change.
// fn runs on the goroutine consuming the stream and must not call Ask.
func (s *Session) Subscribe(fn func(domain.SessionState)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.subscribers = append(s.subscribers, fn)
}

func (s *Session) Snapshot() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state.Clone()
}

// Cancel aborts the current request, if any. The running Ask returns
// context.Canceled and leaves the partial answer in place.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel(context.Canceled)
	}
}

// Ask streams the answer to question and blocks until the stream ends. It
// returns the final snapshot of the request it started.
func (s *Session) Ask(ctx context.Context, question string, mode domain.Mode) (domain.SessionState, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return s.Snapshot(), domain.ErrEmptyQuestion
	}
	if !mode.Valid() {
		return s.Snapshot(), fmt.Errorf("%w: %q", domain.ErrUnknownMode, mode)
	}

	token, err := s.tokens.Token(ctx)
	if err != nil {
		return s.Snapshot(), fmt.Errorf("resolve session token: %w", err)
	}

	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	gen, requestID, previous, done := s.begin(question, mode, cancel)
	defer close(done)

	logger := s.logger.With(zap.String("request_id", requestID), zap.String("mode", string(mode)))
	logger.Debug("ask started")

	if previous != nil {
		select {
		case <-previous:
		case <-runCtx.Done():
			return s.interrupted(gen, runCtx, logger)
		}
	}

	body, err := s.source.Open(runCtx, ports.StreamRequest{
		RequestID: requestID,
		Question:  question,
		Mode:      mode,
		Token:     token,
	})
	if err != nil {
		return s.fail(gen, runCtx, err, logger)
	}
	defer func() { _ = body.Close() }()
	stop := context.AfterFunc(runCtx, func() { _ = body.Close() })
	defer stop()

	decoder := sse.NewDecoder(body)
	for {
		payload, err := decoder.Next()
		if err != nil {
			if errors.Is(err, io.EOF) && runCtx.Err() == nil {
				logger.Debug("stream ended without done frame")
				return s.finish(gen, logger)
			}
			return s.fail(gen, runCtx, err, logger)
		}

		frame, err := domain.ParseFrame(payload)
		if err != nil {
			logger.Warn("skipping frame", zap.Error(err))
			continue
		}

		state, terminal, current := s.apply(gen, frame)
		if !current {
			return state, domain.ErrSuperseded
		}
		if !terminal {
			continue
		}

		if errFrame, ok := frame.(domain.ErrorFrame); ok {
			logger.Info("server reported error", zap.String("content", errFrame.Content))
			return state, fmt.Errorf("%w: %s", domain.ErrServerReported, errFrame.Content)
		}

		logger.Debug("ask completed", zap.Int("answer_bytes", len(state.Answer)))
		return state, nil
	}
}

// begin supersedes the running request and resets state for a new one.
func (s *Session) begin(question string, mode domain.Mode, cancel context.CancelCauseFunc) (uint64, string, chan struct{}, chan struct{}) {
	requestID := s.newID()
	done := make(chan struct{})

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel(domain.ErrSuperseded)
	}
	previous := s.done
	s.generation++
	gen := s.generation
	s.cancel = cancel
	s.done = done
	s.state.Reset(requestID, question, mode)
	snapshot := s.state.Clone()
	s.mu.Unlock()

	s.notify(gen, snapshot)

	return gen, requestID, previous, done
}

// mutate runs fn against the state only while gen is still current. The
// returned snapshot is always the live state.
func (s *Session) mutate(gen uint64, fn func(*domain.SessionState)) (domain.SessionState, bool) {
	s.mu.Lock()
	if gen != s.generation {
		snapshot := s.state.Clone()
		s.mu.Unlock()
		return snapshot, false
	}
	fn(&s.state)
	snapshot := s.state.Clone()
	s.mu.Unlock()

	s.notify(gen, snapshot)
	return snapshot, true
}

func (s *Session) apply(gen uint64, frame domain.Frame) (domain.SessionState, bool, bool) {
	var terminal bool
	state, current := s.mutate(gen, func(state *domain.SessionState) {
		terminal = state.Apply(frame)
		if terminal {
			state.InFlight = false
		}
	})
	return state, terminal, current
}

func (s *Session) finish(gen uint64, logger *zap.Logger) (domain.SessionState, error) {
	state, current := s.mutate(gen, func(state *domain.SessionState) {
		state.InFlight = false
	})
	if !current {
		return state, domain.ErrSuperseded
	}

	logger.Debug("ask completed", zap.Int("answer_bytes", len(state.Answer)))
	return state, nil
}

func (s *Session) fail(gen uint64, runCtx context.Context, err error, logger *zap.Logger) (domain.SessionState, error) {
	if runCtx.Err() != nil {
		return s.interrupted(gen, runCtx, logger)
	}

	logger.Warn("stream failed", zap.Error(err))

	state, current := s.mutate(gen, func(state *domain.SessionState) {
		state.Answer = domain.FallbackErrorAnswer
		state.Status = ""
		state.InFlight = false
	})
	if !current {
		return state, domain.ErrSuperseded
	}

	return state, fmt.Errorf("%w: %w", domain.ErrTransport, err)
}

// interrupted handles a cancelled run: superseded runs leave state alone,
// explicit or caller cancellation only clears InFlight.
func (s *Session) interrupted(gen uint64, runCtx context.Context, logger *zap.Logger) (domain.SessionState, error) {
	if errors.Is(context.Cause(runCtx), domain.ErrSuperseded) {
		logger.Debug("ask superseded")
		return s.Snapshot(), domain.ErrSuperseded
	}

	logger.Debug("ask cancelled")
	state, current := s.mutate(gen, func(state *domain.SessionState) {
		if state.InFlight {
			state.InFlight = false
		}
	})
	if !current {
		return state, domain.ErrSuperseded
	}

	return state, context.Canceled
}

func (s *Session) notify(gen uint64, snapshot domain.SessionState) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	current := gen == s.generation
	subscribers := append([]func(domain.SessionState){}, s.subscribers...)
	s.mu.Unlock()

	if !current {
		return
	}
	for _, fn := range subscribers {
		fn(snapshot.Clone())
	}
}
