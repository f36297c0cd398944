package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bnema/px-cli/internal/domain"
	"github.com/bnema/px-cli/internal/ports"
	"github.com/bnema/px-cli/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const waitFor = 2 * time.Second

func newTestSession(t *testing.T, source ports.StreamSource) *Session {
	t.Helper()

	tokens := mocks.NewMockTokenProvider(t)
	tokens.EXPECT().Token(mockAnyContext()).Return("tok", nil).Maybe()

	session := NewSession(source, tokens, zap.NewNop())
	var n int
	var mu sync.Mutex
	session.newID = func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("req-%d", n)
	}
	return session
}

func sseBody(lines ...string) io.ReadCloser {
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteString("\n")
	}
	return io.NopCloser(strings.NewReader(b.String()))
}

type openedStream struct {
	req ports.StreamRequest
	w   *io.PipeWriter
}

// pipeSource hands each opened stream's writer to the test.
type pipeSource struct {
	opened      chan openedStream
	ignoreClose bool
}

func newPipeSource() *pipeSource {
	return &pipeSource{opened: make(chan openedStream, 4)}
}

func (p *pipeSource) Open(_ context.Context, req ports.StreamRequest) (io.ReadCloser, error) {
	r, w := io.Pipe()
	p.opened <- openedStream{req: req, w: w}
	if p.ignoreClose {
		return io.NopCloser(r), nil
	}
	return r, nil
}

func (p *pipeSource) next(t *testing.T) openedStream {
	t.Helper()

	select {
	case stream := <-p.opened:
		return stream
	case <-time.After(waitFor):
		t.Fatal("stream was not opened")
		return openedStream{}
	}
}

type askResult struct {
	state domain.SessionState
	err   error
}

func askAsync(ctx context.Context, session *Session, question string) <-chan askResult {
	out := make(chan askResult, 1)
	go func() {
		state, err := session.Ask(ctx, question, domain.ModeFast)
		out <- askResult{state: state, err: err}
	}()
	return out
}

func awaitResult(t *testing.T, results <-chan askResult) askResult {
	t.Helper()

	select {
	case result := <-results:
		return result
	case <-time.After(waitFor):
		t.Fatal("ask did not return")
		return askResult{}
	}
}

func writeLine(t *testing.T, w *io.PipeWriter, line string) {
	t.Helper()
	_, err := io.WriteString(w, line+"\n")
	require.NoError(t, err)
}

func TestSessionAskConcatenatesAnswerFragments(t *testing.T) {
	source := mocks.NewMockStreamSource(t)
	session := newTestSession(t, source)

	source.EXPECT().Open(mockAnyContext(), ports.StreamRequest{
		RequestID: "req-1",
		Question:  "What is Go?",
		Mode:      domain.ModeFast,
		Token:     "tok",
	}).Return(sseBody(
		`data: {"type":"answer","content":"Hel"}`,
		`data: {"type":"answer","content":"lo"}`,
		`data: [DONE]`,
	), nil)

	state, err := session.Ask(context.Background(), "  What is Go?  ", domain.ModeFast)
	require.NoError(t, err)
	assert.Equal(t, "Hello", state.Answer)
	assert.False(t, state.InFlight)
	assert.Equal(t, "What is Go?", state.Question)
	assert.Equal(t, state, session.Snapshot())
}

func TestSessionAskReplacesSourcesAndFollowUps(t *testing.T) {
	source := mocks.NewMockStreamSource(t)
	session := newTestSession(t, source)

	source.EXPECT().Open(mockAnyContext(), mock.Anything).Return(sseBody(
		`data: {"type":"urls","urls":["a"]}`,
		`data: {"type":"status","message":"Reading sources"}`,
		`data: {"type":"urls","urls":["b","c"]}`,
		`data: {"type":"answer","content":"text"}`,
		`data: {"type":"follow_up_questions","questions":["q1"]}`,
		`data: {"type":"follow_up_questions","questions":["q2","q3"]}`,
		`data: [DONE]`,
	), nil)

	state, err := session.Ask(context.Background(), "question", domain.ModeWebSearch)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, state.Sources)
	assert.Equal(t, []string{"q2", "q3"}, state.FollowUps)
	assert.Empty(t, state.Status)
	assert.Equal(t, domain.ModeWebSearch, state.Mode)
}

func TestSessionAskClearsInFlightExactlyOnce(t *testing.T) {
	source := mocks.NewMockStreamSource(t)
	session := newTestSession(t, source)

	var (
		mu        sync.Mutex
		inFlight  []bool
		lastState domain.SessionState
	)
	session.Subscribe(func(state domain.SessionState) {
		mu.Lock()
		defer mu.Unlock()
		inFlight = append(inFlight, state.InFlight)
		lastState = state
	})

	source.EXPECT().Open(mockAnyContext(), mock.Anything).Return(sseBody(
		`data: {"type":"status","message":"Thinking"}`,
		`data: {"type":"answer","content":"x"}`,
		`data: [DONE]`,
		`data: {"type":"answer","content":"after done"}`,
	), nil)

	_, err := session.Ask(context.Background(), "q", domain.ModeFast)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()

	transitions := 0
	for i := 1; i < len(inFlight); i++ {
		if inFlight[i-1] && !inFlight[i] {
			transitions++
		}
	}
	assert.Equal(t, 1, transitions)
	assert.True(t, inFlight[0])
	assert.Equal(t, "x", lastState.Answer)
}

func TestSessionAskEndsQuietlyWithoutDoneFrame(t *testing.T) {
	source := mocks.NewMockStreamSource(t)
	session := newTestSession(t, source)

	source.EXPECT().Open(mockAnyContext(), mock.Anything).Return(sseBody(
		`data: {"type":"answer","content":"partial"}`,
	), nil)

	state, err := session.Ask(context.Background(), "q", domain.ModeFast)
	require.NoError(t, err)
	assert.Equal(t, "partial", state.Answer)
	assert.False(t, state.InFlight)
}

func TestSessionAskSkipsMalformedAndUnknownFrames(t *testing.T) {
	source := mocks.NewMockStreamSource(t)
	session := newTestSession(t, source)

	source.EXPECT().Open(mockAnyContext(), mock.Anything).Return(sseBody(
		`event: message`,
		`data: {not json`,
		`data: {"type":"mystery","content":"?"}`,
		`data: {"content":"untagged"}`,
		`data: {"type":"answer","content":"ok"}`,
		`data: [DONE]`,
	), nil)

	state, err := session.Ask(context.Background(), "q", domain.ModeFast)
	require.NoError(t, err)
	assert.Equal(t, "ok", state.Answer)
}

func TestSessionAskErrorFrameReplacesAnswer(t *testing.T) {
	source := mocks.NewMockStreamSource(t)
	session := newTestSession(t, source)

	source.EXPECT().Open(mockAnyContext(), mock.Anything).Return(sseBody(
		`data: {"type":"answer","content":"so far"}`,
		`data: {"type":"error","content":"model overloaded"}`,
		`data: {"type":"answer","content":"ignored"}`,
	), nil)

	state, err := session.Ask(context.Background(), "q", domain.ModeDeep)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrServerReported)
	assert.Equal(t, "model overloaded", state.Answer)
	assert.False(t, state.InFlight)
}

func TestSessionAskOpenFailureSetsFallbackAnswer(t *testing.T) {
	source := mocks.NewMockStreamSource(t)
	session := newTestSession(t, source)

	openErr := fmt.Errorf("status 401: %w", domain.ErrUnauthorized)
	source.EXPECT().Open(mockAnyContext(), mock.Anything).Return(nil, openErr)

	state, err := session.Ask(context.Background(), "q", domain.ModeFast)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransport)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Equal(t, domain.FallbackErrorAnswer, state.Answer)
	assert.False(t, state.InFlight)
}

func TestSessionAskReadFailureSetsFallbackAnswer(t *testing.T) {
	source := newPipeSource()
	session := newTestSession(t, source)

	results := askAsync(context.Background(), session, "q")
	stream := source.next(t)
	writeLine(t, stream.w, `data: {"type":"answer","content":"partial"}`)
	require.NoError(t, stream.w.CloseWithError(errors.New("connection reset")))

	result := awaitResult(t, results)
	require.Error(t, result.err)
	assert.ErrorIs(t, result.err, domain.ErrTransport)
	assert.ErrorContains(t, result.err, "connection reset")
	assert.Equal(t, domain.FallbackErrorAnswer, result.state.Answer)
	assert.False(t, result.state.InFlight)
}

func TestSessionCancelStopsWithoutVisibleError(t *testing.T) {
	source := newPipeSource()
	session := newTestSession(t, source)

	results := askAsync(context.Background(), session, "q")
	stream := source.next(t)
	writeLine(t, stream.w, `data: {"type":"answer","content":"partial"}`)
	require.Eventually(t, func() bool {
		return session.Snapshot().Answer == "partial"
	}, waitFor, 5*time.Millisecond)

	session.Cancel()

	result := awaitResult(t, results)
	assert.ErrorIs(t, result.err, context.Canceled)
	assert.Equal(t, "partial", result.state.Answer)
	assert.False(t, result.state.InFlight)
}

func TestSessionAskHonoursCallerCancellation(t *testing.T) {
	source := newPipeSource()
	session := newTestSession(t, source)

	ctx, cancel := context.WithCancel(context.Background())
	results := askAsync(ctx, session, "q")
	source.next(t)
	cancel()

	result := awaitResult(t, results)
	assert.ErrorIs(t, result.err, context.Canceled)
	assert.False(t, result.state.InFlight)
	assert.NotEqual(t, domain.FallbackErrorAnswer, result.state.Answer)
}

func TestSessionNewAskSupersedesInFlightRequest(t *testing.T) {
	source := newPipeSource()
	session := newTestSession(t, source)

	first := askAsync(context.Background(), session, "first")
	firstStream := source.next(t)
	writeLine(t, firstStream.w, `data: {"type":"answer","content":"old"}`)
	require.Eventually(t, func() bool {
		return session.Snapshot().Answer == "old"
	}, waitFor, 5*time.Millisecond)

	second := askAsync(context.Background(), session, "second")

	firstResult := awaitResult(t, first)
	assert.ErrorIs(t, firstResult.err, domain.ErrSuperseded)

	secondStream := source.next(t)
	assert.Equal(t, "second", secondStream.req.Question)
	assert.Equal(t, "req-2", secondStream.req.RequestID)

	writeLine(t, secondStream.w, `data: {"type":"answer","content":"new"}`)
	writeLine(t, secondStream.w, `data: [DONE]`)

	secondResult := awaitResult(t, second)
	require.NoError(t, secondResult.err)
	assert.Equal(t, "new", secondResult.state.Answer)
	assert.Equal(t, "second", secondResult.state.Question)
}

func TestSessionLateFramesFromSupersededStreamNeverMutate(t *testing.T) {
	source := newPipeSource()
	source.ignoreClose = true
	session := newTestSession(t, source)

	first := askAsync(context.Background(), session, "first")
	firstStream := source.next(t)
	writeLine(t, firstStream.w, `data: {"type":"answer","content":"old"}`)
	require.Eventually(t, func() bool {
		return session.Snapshot().Answer == "old"
	}, waitFor, 5*time.Millisecond)

	second := askAsync(context.Background(), session, "second")
	require.Eventually(t, func() bool {
		return session.Snapshot().Question == "second"
	}, waitFor, 5*time.Millisecond)

	// The first body ignores Close, so its loop is still reading.
	writeLine(t, firstStream.w, `data: {"type":"answer","content":" stale"}`)

	firstResult := awaitResult(t, first)
	assert.ErrorIs(t, firstResult.err, domain.ErrSuperseded)

	snapshot := session.Snapshot()
	assert.Equal(t, "second", snapshot.Question)
	assert.Empty(t, snapshot.Answer)
	assert.True(t, snapshot.InFlight)

	secondStream := source.next(t)
	writeLine(t, secondStream.w, `data: {"type":"answer","content":"fresh"}`)
	writeLine(t, secondStream.w, `data: [DONE]`)

	secondResult := awaitResult(t, second)
	require.NoError(t, secondResult.err)
	assert.Equal(t, "fresh", secondResult.state.Answer)
	assert.False(t, secondResult.state.InFlight)
}

func TestSessionAskRequiresLogin(t *testing.T) {
	source := mocks.NewMockStreamSource(t)
	tokens := mocks.NewMockTokenProvider(t)
	tokens.EXPECT().Token(mockAnyContext()).Return("", domain.ErrNotLoggedIn)
	session := NewSession(source, tokens, nil)

	state, err := session.Ask(context.Background(), "q", domain.ModeFast)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotLoggedIn)
	assert.Equal(t, domain.SessionState{}, state)
}

func TestSessionAskValidatesInput(t *testing.T) {
	source := mocks.NewMockStreamSource(t)
	tokens := mocks.NewMockTokenProvider(t)
	session := NewSession(source, tokens, nil)

	_, err := session.Ask(context.Background(), "   ", domain.ModeFast)
	assert.ErrorIs(t, err, domain.ErrEmptyQuestion)

	_, err = session.Ask(context.Background(), "q", domain.Mode("turbo"))
	assert.ErrorIs(t, err, domain.ErrUnknownMode)
}
