package domain

// SessionState is the view state of one question/answer exchange. Every field
// is reset when a new request starts.
type SessionState struct {
	RequestID string
	Question  string
	Mode      Mode
	Answer    string
	Sources   []string
	FollowUps []string
	Status    string
	InFlight  bool
}

// Reset clears the transient fields and marks a new request as in flight.
func (s *SessionState) Reset(requestID, question string, mode Mode) {
	*s = SessionState{
		RequestID: requestID,
		Question:  question,
		Mode:      mode,
		InFlight:  true,
	}
}

// Apply mutates the state for one frame and reports whether the frame ends
// the request. InFlight is left to the caller, which owns the single
// true -> false transition.
func (s *SessionState) Apply(frame Frame) bool {
	applier := stateApplier{state: s}
	frame.Accept(&applier)
	return applier.terminal
}

// Clone returns a deep copy safe to hand to another goroutine.
func (s SessionState) Clone() SessionState {
	s.Sources = cloneStrings(s.Sources)
	s.FollowUps = cloneStrings(s.FollowUps)
	return s
}

type stateApplier struct {
	state    *SessionState
	terminal bool
}

var _ FrameVisitor = (*stateApplier)(nil)

func (a *stateApplier) VisitMode(f ModeFrame) {
	a.state.Mode = f.Mode
}

func (a *stateApplier) VisitStatus(f StatusFrame) {
	a.state.Status = f.Message
}

func (a *stateApplier) VisitURLs(f URLsFrame) {
	a.state.Sources = cloneStrings(f.URLs)
}

func (a *stateApplier) VisitAnswer(f AnswerFrame) {
	a.state.Answer += f.Content
	a.state.Status = ""
}

func (a *stateApplier) VisitFollowUps(f FollowUpsFrame) {
	a.state.FollowUps = cloneStrings(f.Questions)
}

func (a *stateApplier) VisitError(f ErrorFrame) {
	a.state.Answer = f.Content
	a.terminal = true
}

func (a *stateApplier) VisitDone(DoneFrame) {
	a.terminal = true
}

func cloneStrings(values []string) []string {
	if values == nil {
		return nil
	}

	out := make([]string, len(values))
	copy(out, values)
	return out
}
