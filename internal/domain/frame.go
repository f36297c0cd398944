package domain

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// DoneSentinel is the literal payload that terminates an answer stream.
const DoneSentinel = "[DONE]"

type FrameKind string

const (
	FrameKindMode      FrameKind = "mode"
	FrameKindStatus    FrameKind = "status"
	FrameKindURLs      FrameKind = "urls"
	FrameKindAnswer    FrameKind = "answer"
	FrameKindFollowUps FrameKind = "follow_up_questions"
	FrameKindError     FrameKind = "error"
	FrameKindDone      FrameKind = "done"
)

// AllFrameKinds enumerates every variant of Frame.
var AllFrameKinds = []FrameKind{
	FrameKindMode,
	FrameKindStatus,
	FrameKindURLs,
	FrameKindAnswer,
	FrameKindFollowUps,
	FrameKindError,
	FrameKindDone,
}

// Frame is one server-sent unit of an answer stream. The set of variants is
// closed: Accept dispatches to a FrameVisitor, and every visitor has to
// implement a method per variant, so a new variant breaks the build of every
// consumer that does not handle it.
type Frame interface {
	Kind() FrameKind
	Accept(v FrameVisitor)
}

type FrameVisitor interface {
	VisitMode(ModeFrame)
	VisitStatus(StatusFrame)
	VisitURLs(URLsFrame)
	VisitAnswer(AnswerFrame)
	VisitFollowUps(FollowUpsFrame)
	VisitError(ErrorFrame)
	VisitDone(DoneFrame)
}

type ModeFrame struct {
	Mode Mode `json:"mode"`
}

type StatusFrame struct {
	Message string `json:"message"`
}

type URLsFrame struct {
	URLs []string `json:"urls"`
}

// AnswerFrame carries an incremental fragment of the answer text.
type AnswerFrame struct {
	Content string `json:"content"`
}

type FollowUpsFrame struct {
	Questions []string `json:"questions"`
}

type ErrorFrame struct {
	Content string `json:"content"`
}

type DoneFrame struct{}

func (ModeFrame) Kind() FrameKind      { return FrameKindMode }
func (StatusFrame) Kind() FrameKind    { return FrameKindStatus }
func (URLsFrame) Kind() FrameKind      { return FrameKindURLs }
func (AnswerFrame) Kind() FrameKind    { return FrameKindAnswer }
func (FollowUpsFrame) Kind() FrameKind { return FrameKindFollowUps }
func (ErrorFrame) Kind() FrameKind     { return FrameKindError }
func (DoneFrame) Kind() FrameKind      { return FrameKindDone }

func (f ModeFrame) Accept(v FrameVisitor)      { v.VisitMode(f) }
func (f StatusFrame) Accept(v FrameVisitor)    { v.VisitStatus(f) }
func (f URLsFrame) Accept(v FrameVisitor)      { v.VisitURLs(f) }
func (f AnswerFrame) Accept(v FrameVisitor)    { v.VisitAnswer(f) }
func (f FollowUpsFrame) Accept(v FrameVisitor) { v.VisitFollowUps(f) }
func (f ErrorFrame) Accept(v FrameVisitor)     { v.VisitError(f) }
func (f DoneFrame) Accept(v FrameVisitor)      { v.VisitDone(f) }

// ParseFrame decodes the payload of one `data: ` line. The `type` tag is read
// first and selects the concrete variant.
func ParseFrame(payload []byte) (Frame, error) {
	trimmed := bytes.TrimSpace(payload)
	if string(trimmed) == DoneSentinel {
		return DoneFrame{}, nil
	}

	if !gjson.ValidBytes(trimmed) {
		return nil, fmt.Errorf("%w: invalid json %q", ErrMalformedFrame, preview(trimmed))
	}

	tag := gjson.GetBytes(trimmed, "type")
	if tag.Type != gjson.String {
		return nil, fmt.Errorf("%w: missing type tag", ErrMalformedFrame)
	}

	switch FrameKind(tag.String()) {
	case FrameKindMode:
		frame, err := decodeFrame[ModeFrame](trimmed)
		if err != nil {
			return nil, err
		}
		if !frame.Mode.Valid() {
			return nil, fmt.Errorf("%w: mode frame carries %q", ErrMalformedFrame, frame.Mode)
		}
		return frame, nil
	case FrameKindStatus:
		return decodeFrame[StatusFrame](trimmed)
	case FrameKindURLs:
		return decodeFrame[URLsFrame](trimmed)
	case FrameKindAnswer:
		return decodeFrame[AnswerFrame](trimmed)
	case FrameKindFollowUps:
		return decodeFrame[FollowUpsFrame](trimmed)
	case FrameKindError:
		return decodeFrame[ErrorFrame](trimmed)
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownFrame, tag.String())
	}
}

func decodeFrame[T Frame](payload []byte) (T, error) {
	var frame T
	if err := json.Unmarshal(payload, &frame); err != nil {
		var zero T
		return zero, fmt.Errorf("%w: decode %s: %v", ErrMalformedFrame, frame.Kind(), err)
	}

	return frame, nil
}

func preview(payload []byte) string {
	const limit = 64
	if len(payload) <= limit {
		return string(payload)
	}

	return string(payload[:limit]) + "..."
}
