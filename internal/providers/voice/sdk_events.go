package voice

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yoockh/mockmate/internal/models"
)

// ClientEvent is a web SDK event relayed by the browser:
//
//	{"event":"call-start"}
//	{"event":"message","message":{"type":"transcript","role":"user","transcriptType":"final","transcript":"hi"}}
type ClientEvent struct {
	Event   string          `json:"event"`
	Message json.RawMessage `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
}

type sdkMessage struct {
	Type           string  `json:"type"`
	Role           string  `json:"role"`
	TranscriptType string  `json:"transcriptType"`
	Transcript     string  `json:"transcript"`
	Content        *string `json:"content"`
	Message        *string `json:"message"`
	Text           *string `json:"text"`
}

// DecodeClientEvent maps a relayed SDK event onto an Event. ok is false for
// payloads that carry nothing the session uses.
func DecodeClientEvent(ce ClientEvent) (Event, bool, error) {
	switch EventKind(ce.Event) {
	case EventCallStart, EventCallEnd, EventSpeechStart, EventSpeechEnd:
		return Event{Kind: EventKind(ce.Event), Role: models.RoleAssistant}, true, nil
	case EventError:
		return Event{Kind: EventError, Error: ce.Error}, true, nil
	case EventMessage:
	default:
		return Event{}, false, fmt.Errorf("voice: unknown client event %q", ce.Event)
	}

	var m sdkMessage
	if err := json.Unmarshal(ce.Message, &m); err != nil {
		return Event{}, false, fmt.Errorf("voice: decode message: %w", err)
	}

	if m.Type == "transcript" {
		return Event{
			Kind:           EventTranscript,
			Role:           models.ParseRole(m.Role, models.RoleAssistant),
			TranscriptType: parseTranscriptType(m.TranscriptType),
			Text:           m.Transcript,
		}, true, nil
	}

	// Non-transcript payloads that still carry assistant text.
	for _, s := range []*string{m.Content, m.Message, m.Text} {
		if s != nil && strings.TrimSpace(*s) != "" {
			return Event{
				Kind: EventMessage,
				Role: models.ParseRole(m.Role, models.RoleAssistant),
				Text: *s,
			}, true, nil
		}
	}
	return Event{}, false, nil
}
