package application

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bnema/px-cli/internal/domain"
	"github.com/bnema/px-cli/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var historyNow = time.Date(2026, 10, 17, 15, 4, 5, 0, time.UTC)

func newTestHistoryService(t *testing.T) (*HistoryService, *mocks.MockTranscriptRepository) {
	t.Helper()

	repo := mocks.NewMockTranscriptRepository(t)
	clock := mocks.NewMockClock(t)
	clock.EXPECT().Now().Return(historyNow).Maybe()

	service := NewHistoryService(repo, clock, nil)
	service.newID = func() string { return "tr-1" }
	return service, repo
}

func finishedState() domain.SessionState {
	return domain.SessionState{
		RequestID: "req-1",
		Question:  "What is Go?",
		Mode:      domain.ModeFast,
		Answer:    "A language.",
		Sources:   []string{"https://go.dev"},
		FollowUps: []string{"Who made it?"},
	}
}

func TestHistoryServiceRecordSavesTranscript(t *testing.T) {
	service, repo := newTestHistoryService(t)

	expected := domain.Transcript{
		ID:        "tr-1",
		Question:  "What is Go?",
		Mode:      domain.ModeFast,
		Answer:    "A language.",
		Sources:   []string{"https://go.dev"},
		FollowUps: []string{"Who made it?"},
		Outcome:   domain.OutcomeComplete,
		AskedAt:   historyNow,
	}
	repo.EXPECT().Save(mockAnyContext(), expected).Return(nil)

	got, err := service.Record(context.Background(), finishedState(), domain.OutcomeComplete)
	require.NoError(t, err)
	assert.Equal(t, expected, got)
}

func TestHistoryServiceRecordAskMapsOutcomes(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		outcome domain.Outcome
	}{
		{name: "complete", err: nil, outcome: domain.OutcomeComplete},
		{name: "server error", err: fmt.Errorf("%w: overloaded", domain.ErrServerReported), outcome: domain.OutcomeError},
		{name: "transport", err: fmt.Errorf("%w: reset", domain.ErrTransport), outcome: domain.OutcomeError},
		{name: "cancelled", err: context.Canceled, outcome: domain.OutcomeCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, repo := newTestHistoryService(t)
			repo.EXPECT().Save(mockAnyContext(), mockAnyContext()).Return(nil)

			transcript, recorded, err := service.RecordAsk(context.Background(), finishedState(), tt.err)
			require.NoError(t, err)
			assert.True(t, recorded)
			assert.Equal(t, tt.outcome, transcript.Outcome)
		})
	}
}

func TestHistoryServiceRecordAskSkipsUnrecordable(t *testing.T) {
	tests := []struct {
		name  string
		state domain.SessionState
		err   error
	}{
		{name: "superseded", state: finishedState(), err: domain.ErrSuperseded},
		{name: "not logged in", state: domain.SessionState{}, err: domain.ErrNotLoggedIn},
		{name: "empty question", state: domain.SessionState{}, err: domain.ErrEmptyQuestion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, _ := newTestHistoryService(t)

			_, recorded, err := service.RecordAsk(context.Background(), tt.state, tt.err)
			require.NoError(t, err)
			assert.False(t, recorded)
		})
	}
}

func TestHistoryServiceGetResolvesUniquePrefix(t *testing.T) {
	service, repo := newTestHistoryService(t)

	repo.EXPECT().GetByID(mockAnyContext(), domain.TranscriptID("ab")).Return(domain.Transcript{}, domain.ErrTranscriptNotFound)
	repo.EXPECT().List(mockAnyContext()).Return([]domain.Transcript{
		{ID: "abc-1", Question: "one"},
		{ID: "xyz-2", Question: "two"},
	}, nil)

	got, err := service.Get(context.Background(), "ab")
	require.NoError(t, err)
	assert.Equal(t, "one", got.Question)
}

func TestHistoryServiceGetRejectsAmbiguousPrefix(t *testing.T) {
	service, repo := newTestHistoryService(t)

	repo.EXPECT().GetByID(mockAnyContext(), domain.TranscriptID("a")).Return(domain.Transcript{}, domain.ErrTranscriptNotFound)
	repo.EXPECT().List(mockAnyContext()).Return([]domain.Transcript{{ID: "abc-1"}, {ID: "abd-2"}}, nil)

	_, err := service.Get(context.Background(), "a")
	assert.ErrorContains(t, err, "ambiguous")
}

func TestHistoryServiceGetNotFound(t *testing.T) {
	service, repo := newTestHistoryService(t)

	repo.EXPECT().GetByID(mockAnyContext(), domain.TranscriptID("nope")).Return(domain.Transcript{}, domain.ErrTranscriptNotFound)
	repo.EXPECT().List(mockAnyContext()).Return(nil, nil)

	_, err := service.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrTranscriptNotFound)
}

func TestHistoryServiceClearWrapsErrors(t *testing.T) {
	service, repo := newTestHistoryService(t)

	repo.EXPECT().Clear(mockAnyContext()).Return(errors.New("disk full"))

	err := service.Clear(context.Background())
	assert.ErrorContains(t, err, "clear transcripts: disk full")
}
