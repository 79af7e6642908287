package call

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/yoockh/mockmate/internal/models"
	"github.com/yoockh/mockmate/internal/providers/voice"
)

const MaxTextChars = 500

// ValidateText trims text and enforces the typed-reply limits.
func ValidateText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyText
	}
	if utf8.RuneCountInString(text) > MaxTextChars {
		return "", ErrTextTooLong
	}
	return text, nil
}

// SendText records a typed reply as a user turn and forwards it to the live
// call in the background on the session context. If the agent has not
// started speaking by the time FallbackDelay elapses, a generated reply is
// appended and spoken instead.
func (c *Controller) SendText(_ context.Context, text string) error {
	text, err := ValidateText(text)
	if err != nil {
		return err
	}

	turn := models.Turn{Role: models.RoleUser, Content: text}
	c.mu.Lock()
	if c.state.discarded || c.state.Status != StatusActive {
		c.mu.Unlock()
		return ErrNotActive
	}
	handle := c.state.Call
	sentAt := c.clock.Now()
	seq := c.transcript.Append(turn)
	snap := c.bumpLocked()

	var t Timer
	t = c.clock.AfterFunc(c.opts.FallbackDelay, func() {
		c.forget(&t)
		c.fallback(handle, text, sentAt)
	})
	c.pending = append(c.pending, t)
	c.mu.Unlock()

	c.notes.deliver(snap.Version, func() {
		c.deps.Observer.TurnAppended(turn, seq, SourceText)
		c.deps.Observer.StateChanged(snap)
	})

	c.goAsync(func() {
		ictx, cancel := context.WithTimeout(c.ctx, fallbackTimeout)
		defer cancel()
		c.inject(ictx, handle, text)
	})
	return nil
}

// inject tries each text shape in order and stops at the first one the call
// accepts. Failures are logged and otherwise ignored.
func (c *Controller) inject(ctx context.Context, handle voice.Call, text string) {
	if handle.ID == "" {
		return
	}
	for _, shape := range voice.TextShapes {
		err := c.deps.Agent.InjectText(ctx, handle, shape, text)
		if err == nil {
			c.log.WithField("shape", shape).Debug("text injected")
			return
		}
		lvl := logrus.DebugLevel
		if !errors.Is(err, voice.ErrShapeRejected) && !errors.Is(err, voice.ErrUnsupportedShape) {
			lvl = logrus.WarnLevel
		}
		c.log.WithError(err).WithField("shape", shape).Log(lvl, "text shape not accepted")
	}
}

func (c *Controller) fallback(handle voice.Call, text string, sentAt time.Time) {
	c.mu.Lock()
	if c.state.discarded || c.state.Status != StatusActive || !c.state.LastSpeechStart.Before(sentAt) {
		c.mu.Unlock()
		c.log.Debug("fallback reply skipped")
		return
	}
	c.mu.Unlock()

	if c.deps.Replies == nil {
		return
	}

	ctx, cancel := context.WithTimeout(c.ctx, fallbackTimeout)
	defer cancel()

	req := ReplyRequest{
		UserText:         text,
		Role:             c.setup.Role,
		TechStack:        strings.Join(c.setup.TechStack, ", "),
		Type:             c.setup.Type,
		Level:            c.setup.Level,
		MaxQuestions:     c.maxQuestions(),
		ContextQuestions: FormatContext(c.transcript.All()),
	}
	reply, err := c.deps.Replies.Reply(ctx, req)
	reply = strings.TrimSpace(reply)
	if err != nil || reply == "" {
		c.log.WithError(err).Warn("fallback reply failed")
		return
	}

	turn := models.Turn{Role: models.RoleAssistant, Content: reply}
	c.mu.Lock()
	if c.state.discarded || c.state.Status != StatusActive {
		c.mu.Unlock()
		return
	}
	seq := c.transcript.Append(turn)
	snap := c.bumpLocked()
	c.mu.Unlock()

	c.notes.deliver(snap.Version, func() {
		c.deps.Observer.TurnAppended(turn, seq, SourceFallback)
		c.deps.Observer.StateChanged(snap)
	})

	if handle.ID != "" {
		if err := c.deps.Agent.Say(ctx, handle, reply); err != nil {
			c.log.WithError(err).Warn("voice agent say failed")
		}
	}
}

// forget drops a fired fallback timer. t is read under mu because the timer
// may fire before AfterFunc has returned to the goroutine that assigns it.
func (c *Controller) forget(t *Timer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, p := range c.pending {
		if p == *t {
			c.pending = append(c.pending[:i], c.pending[i+1:]...)
			return
		}
	}
}
