package call

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ProvisionForm is what the client submits to create an interview in the
// generate flow. NumQuestions defaults to 5 when omitted.
type ProvisionForm struct {
	Role         string `json:"role"`
	Type         string `json:"type"`
	Level        string `json:"level"`
	TechStack    string `json:"techstack"`
	NumQuestions *int   `json:"num_questions,omitempty"`
}

type interviewForm struct {
	Role         string   `validate:"required"`
	Type         string   `validate:"omitempty,oneof=technical behavioral mixed"`
	Level        string   `validate:"max=64"`
	TechStack    []string `validate:"max=20,dive,max=64"`
	NumQuestions int      `validate:"min=1,max=20"`
}

// Normalize trims the form, applies defaults and validates it.
func (f ProvisionForm) Normalize() (InterviewDraft, error) {
	n := defaultQuestionCount
	if f.NumQuestions != nil {
		n = *f.NumQuestions
	}
	v := interviewForm{
		Role:         strings.TrimSpace(f.Role),
		Type:         strings.ToLower(strings.TrimSpace(f.Type)),
		Level:        strings.TrimSpace(f.Level),
		TechStack:    SplitTechStack(f.TechStack),
		NumQuestions: n,
	}
	if err := validate.Struct(v); err != nil {
		return InterviewDraft{}, fmt.Errorf("%w: %v", ErrInvalidForm, err)
	}
	if v.Type == "" {
		v.Type = "technical"
	}
	return InterviewDraft{
		Role:         v.Role,
		Type:         v.Type,
		Level:        v.Level,
		TechStack:    strings.Join(v.TechStack, ","),
		NumQuestions: v.NumQuestions,
	}, nil
}

// SplitTechStack splits a comma separated list, dropping blanks.
func SplitTechStack(csv string) []string {
	var out []string
	for _, s := range strings.Split(csv, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Provision validates the form, creates the interview and starts the call
// with the new id. On failure the form stays open and no call is started.
func (c *Controller) Provision(ctx context.Context, form ProvisionForm) (string, error) {
	if c.setup.Mode != ModeGenerate {
		return "", ErrNotGenerateMode
	}
	draft, err := form.Normalize()
	if err != nil {
		return "", err
	}
	draft.UserID = c.setup.UserID

	c.mu.Lock()
	if err := c.startableLocked(); err != nil {
		c.mu.Unlock()
		return "", err
	}
	if c.state.provisioning {
		c.mu.Unlock()
		return "", ErrProvisioningInFlight
	}
	c.state.provisioning = true
	c.mu.Unlock()

	log := c.log.WithField("role", draft.Role)
	log.Info("creating interview")

	id, err := c.deps.Interviews.Create(ctx, draft)
	if err == nil && id == "" {
		err = errors.New("empty interview id")
	}
	if err != nil {
		c.mu.Lock()
		c.state.provisioning = false
		c.state.ProvisioningOpen = true
		snap := c.bumpLocked()
		c.mu.Unlock()

		log.WithError(err).Error("interview creation failed")
		c.notes.deliver(snap.Version, func() {
			c.deps.Observer.ProvisioningFailed("Could not create the interview. Please try again.")
			c.deps.Observer.StateChanged(snap)
		})
		return "", fmt.Errorf("%w: %v", ErrProvisioningFailed, err)
	}

	c.mu.Lock()
	c.state.provisioning = false
	c.state.InterviewID = id
	c.state.ProvisioningOpen = false
	c.setup.Role = draft.Role
	c.setup.Type = draft.Type
	c.setup.Level = draft.Level
	c.setup.TechStack = SplitTechStack(draft.TechStack)
	c.setup.NumQuestions = draft.NumQuestions
	if err := c.startableLocked(); err != nil {
		c.mu.Unlock()
		return id, err
	}
	log.WithField("interview_id", id).Info("interview created")
	_, err = c.connectLocked(ctx, c.startRequestLocked())
	return id, err
}

// CancelProvisioning closes the form. A creation already in flight is not
// cancelled.
func (c *Controller) CancelProvisioning() {
	c.mu.Lock()
	if !c.state.ProvisioningOpen {
		c.mu.Unlock()
		return
	}
	c.state.ProvisioningOpen = false
	snap := c.bumpLocked()
	c.mu.Unlock()

	c.notes.deliver(snap.Version, func() { c.deps.Observer.StateChanged(snap) })
}
