package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultVapiBaseURL = "https://api.vapi.ai"

type VapiConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Vapi implements Agent on top of the Vapi REST API and call control URLs.
type Vapi struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

func NewVapi(cfg VapiConfig) *Vapi {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultVapiBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Vapi{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
	}
}

type vapiOverrides struct {
	VariableValues map[string]any `json:"variableValues,omitempty"`
}

type vapiCreateCall struct {
	AssistantID        string            `json:"assistantId,omitempty"`
	AssistantOverrides *vapiOverrides    `json:"assistantOverrides,omitempty"`
	WorkflowID         string            `json:"workflowId,omitempty"`
	WorkflowOverrides  *vapiOverrides    `json:"workflowOverrides,omitempty"`
	Metadata           map[string]string `json:"metadata,omitempty"`
}

type vapiCallResponse struct {
	ID         string `json:"id"`
	WebCallURL string `json:"webCallUrl"`
	Monitor    struct {
		ListenURL  string `json:"listenUrl"`
		ControlURL string `json:"controlUrl"`
	} `json:"monitor"`
}

func (v *Vapi) Start(ctx context.Context, req StartRequest) (Call, error) {
	if req.AgentID == "" {
		return Call{}, errors.New("voice: agent id is required")
	}

	body := vapiCreateCall{Metadata: req.Metadata}
	overrides := &vapiOverrides{VariableValues: req.Variables}
	if req.Workflow {
		body.WorkflowID = req.AgentID
		body.WorkflowOverrides = overrides
	} else {
		body.AssistantID = req.AgentID
		body.AssistantOverrides = overrides
	}

	var out vapiCallResponse
	if err := v.post(ctx, v.baseURL+"/call/web", true, body, &out); err != nil {
		return Call{}, fmt.Errorf("voice: start call: %w", err)
	}
	if out.ID == "" {
		return Call{}, errors.New("voice: start call: response has no call id")
	}
	return Call{ID: out.ID, JoinURL: out.WebCallURL, ControlURL: out.Monitor.ControlURL}, nil
}

func (v *Vapi) Stop(ctx context.Context, call Call) error {
	return v.control(ctx, call, map[string]any{"type": "end-call"})
}

func (v *Vapi) InjectText(ctx context.Context, call Call, shape TextShape, text string) error {
	var payload map[string]any
	switch shape {
	case ShapeAddMessage:
		payload = map[string]any{
			"type":                   "add-message",
			"message":                map[string]string{"role": "user", "content": text},
			"triggerResponseEnabled": true,
		}
	case ShapeInputText:
		payload = map[string]any{"type": "input_text", "text": text}
	case ShapeUserMessage:
		payload = map[string]any{"type": "message", "role": "user", "content": text}
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedShape, shape)
	}

	err := v.control(ctx, call, payload)
	var se *statusError
	if errors.As(err, &se) {
		return fmt.Errorf("%w: %s", ErrShapeRejected, se)
	}
	return err
}

func (v *Vapi) Say(ctx context.Context, call Call, text string) error {
	return v.control(ctx, call, map[string]any{
		"type":               "say",
		"content":            text,
		"endCallAfterSpoken": false,
	})
}

func (v *Vapi) control(ctx context.Context, call Call, payload any) error {
	if call.ControlURL == "" {
		return ErrNoControlURL
	}
	return v.post(ctx, call.ControlURL, false, payload, nil)
}

type statusError struct {
	Status int
	Body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Status, e.Body)
}

func (v *Vapi) post(ctx context.Context, url string, auth bool, body any, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if auth && v.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+v.apiKey)
	}

	resp, err := v.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &statusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}
