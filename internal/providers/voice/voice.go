package voice

import (
	"context"
	"errors"

	"github.com/yoockh/mockmate/internal/models"
)

// TextShape names one of the payload shapes a live call may accept for
// injected user text. The set is closed.
type TextShape string

const (
	ShapeAddMessage  TextShape = "add-message"
	ShapeInputText   TextShape = "input_text"
	ShapeUserMessage TextShape = "user-message"
)

// TextShapes is the order in which injection shapes are attempted.
var TextShapes = []TextShape{ShapeAddMessage, ShapeInputText, ShapeUserMessage}

var (
	ErrShapeRejected    = errors.New("voice: text shape rejected")
	ErrUnsupportedShape = errors.New("voice: unsupported text shape")
	ErrNoControlURL     = errors.New("voice: call has no control url")
)

type StartRequest struct {
	AgentID   string
	Workflow  bool // AgentID is a workflow rather than an assistant
	Variables map[string]any
	Metadata  map[string]string
}

// Call is the handle of one live call.
type Call struct {
	ID         string `json:"id"`
	JoinURL    string `json:"join_url,omitempty"`
	ControlURL string `json:"-"`
}

// Agent is the hosted voice agent a session drives.
type Agent interface {
	Start(ctx context.Context, req StartRequest) (Call, error)
	Stop(ctx context.Context, call Call) error
	InjectText(ctx context.Context, call Call, shape TextShape, text string) error
	Say(ctx context.Context, call Call, text string) error
}

type EventKind string

const (
	EventCallStart   EventKind = "call-start"
	EventCallEnd     EventKind = "call-end"
	EventTranscript  EventKind = "transcript"
	EventSpeechStart EventKind = "speech-start"
	EventSpeechEnd   EventKind = "speech-end"
	EventMessage     EventKind = "message"
	EventError       EventKind = "error"
)

type TranscriptType string

const (
	TranscriptPartial TranscriptType = "partial"
	TranscriptFinal   TranscriptType = "final"
)

// Event is a normalized lifecycle, speech or transcript notification.
type Event struct {
	Kind           EventKind      `json:"kind"`
	Role           models.Role    `json:"role,omitempty"`
	TranscriptType TranscriptType `json:"transcript_type,omitempty"`
	Text           string         `json:"text,omitempty"`
	Error          string         `json:"error,omitempty"`
}

func (e Event) Final() bool { return e.TranscriptType == TranscriptFinal }
