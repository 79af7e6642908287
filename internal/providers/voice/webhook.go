package voice

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/yoockh/mockmate/internal/models"
)

// ServerMessage is a decoded Vapi server (webhook) message.
type ServerMessage struct {
	Type      string
	CallID    string
	SessionID string
	Events    []Event
}

type vapiEnvelope struct {
	Message struct {
		Type           string `json:"type"`
		Status         string `json:"status"`
		Role           string `json:"role"`
		TranscriptType string `json:"transcriptType"`
		Transcript     string `json:"transcript"`
		EndedReason    string `json:"endedReason"`
		Call           struct {
			ID       string            `json:"id"`
			Metadata map[string]string `json:"metadata"`
		} `json:"call"`
	} `json:"message"`
}

// ParseServerMessage decodes a webhook body into zero or more events. Message
// types the session does not react to decode to an empty event list.
func ParseServerMessage(body []byte) (ServerMessage, error) {
	var env vapiEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return ServerMessage{}, err
	}
	m := env.Message
	if m.Type == "" {
		return ServerMessage{}, errors.New("voice: server message has no type")
	}

	out := ServerMessage{
		Type:      m.Type,
		CallID:    m.Call.ID,
		SessionID: m.Call.Metadata["session_id"],
	}

	switch {
	case m.Type == "status-update":
		switch m.Status {
		case "in-progress":
			out.Events = append(out.Events, Event{Kind: EventCallStart})
		case "ended":
			out.Events = append(out.Events, Event{Kind: EventCallEnd})
		}
	case m.Type == "end-of-call-report" || m.Type == "hang":
		out.Events = append(out.Events, Event{Kind: EventCallEnd})
	case strings.HasPrefix(m.Type, "transcript"):
		out.Events = append(out.Events, Event{
			Kind:           EventTranscript,
			Role:           models.ParseRole(m.Role, models.RoleAssistant),
			TranscriptType: parseTranscriptType(m.TranscriptType),
			Text:           m.Transcript,
		})
	case m.Type == "speech-update":
		// the controller only tracks assistant audio
		role := models.ParseRole(m.Role, models.RoleAssistant)
		if role != models.RoleAssistant {
			break
		}
		switch m.Status {
		case "started":
			out.Events = append(out.Events, Event{Kind: EventSpeechStart, Role: role})
		case "stopped":
			out.Events = append(out.Events, Event{Kind: EventSpeechEnd, Role: role})
		}
	}
	return out, nil
}

func parseTranscriptType(v string) TranscriptType {
	if strings.EqualFold(strings.TrimSpace(v), string(TranscriptFinal)) {
		return TranscriptFinal
	}
	return TranscriptPartial
}
