package call

import (
	"context"

	"github.com/yoockh/mockmate/internal/models"
)

const homePath = "/"

// FeedbackPath is where the client views feedback for an interview.
func FeedbackPath(interviewID string) string {
	return "/interview/" + interviewID + "/feedback"
}

// handoff runs once per session, on the first entry into FINISHED.
func (c *Controller) handoff(turns []models.Turn) {
	if c.setup.Mode == ModeGenerate {
		c.mu.Lock()
		id := c.state.InterviewID
		c.mu.Unlock()
		if id != "" {
			c.deps.Observer.InterviewReady(id)
		} else {
			c.deps.Observer.Navigate(homePath)
		}
		return
	}

	c.goAsync(func() {
		ctx, cancel := context.WithTimeout(context.Background(), handoffTimeout)
		defer cancel()
		c.deps.Observer.Navigate(c.requestFeedback(ctx, turns))
	})
}

// requestFeedback issues the single feedback request and returns the path
// the client should move to.
func (c *Controller) requestFeedback(ctx context.Context, turns []models.Turn) string {
	log := c.log.WithField("interview_id", c.setup.InterviewID)

	if c.deps.Guard != nil {
		ok, err := c.deps.Guard.Acquire(ctx, c.setup.SessionID)
		switch {
		case err != nil:
			log.WithError(err).Warn("handoff guard unavailable")
		case !ok:
			log.Info("feedback already requested for session")
			return homePath
		}
	}
	if c.deps.Feedback == nil {
		return homePath
	}

	res, err := c.deps.Feedback.Generate(ctx, FeedbackRequest{
		SessionID:   c.setup.SessionID,
		InterviewID: c.setup.InterviewID,
		UserID:      c.setup.UserID,
		Transcript:  turns,
		FeedbackID:  c.setup.FeedbackID,
	})
	if err != nil || !res.Success || res.FeedbackID == "" {
		log.WithError(err).Warn("feedback generation failed")
		return homePath
	}
	log.WithField("feedback_id", res.FeedbackID).Info("feedback generated")
	return FeedbackPath(c.setup.InterviewID)
}
