package domain

import "time"

type TranscriptID string

type Outcome string

const (
	OutcomeComplete  Outcome = "complete"
	OutcomeError     Outcome = "error"
	OutcomeCancelled Outcome = "cancelled"
)

// Transcript is a finished exchange kept in the local history.
type Transcript struct {
	ID        TranscriptID
	Question  string
	Mode      Mode
	Answer    string
	Sources   []string
	FollowUps []string
	Outcome   Outcome
	AskedAt   time.Time
}

func TranscriptFromState(id TranscriptID, state SessionState, outcome Outcome, askedAt time.Time) Transcript {
	state = state.Clone()

	return Transcript{
		ID:        id,
		Question:  state.Question,
		Mode:      state.Mode,
		Answer:    state.Answer,
		Sources:   state.Sources,
		FollowUps: state.FollowUps,
		Outcome:   outcome,
		AskedAt:   askedAt,
	}
}
