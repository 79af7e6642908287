package call

import (
	"fmt"
	"strings"

	"github.com/yoockh/mockmate/internal/providers/voice"
)

const defaultQuestionCount = 5

// FormatQuestions renders questions as a bulleted list, one per line.
func FormatQuestions(questions []string) string {
	lines := make([]string, 0, len(questions))
	for _, q := range questions {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		lines = append(lines, "- "+q)
	}
	return strings.Join(lines, "\n")
}

// AutoGenerateDirective asks the agent to produce n questions itself.
func AutoGenerateDirective(n int) string {
	return fmt.Sprintf("(Auto-generate %d questions based on topic/role, do not exceed)", n)
}

func (c *Controller) maxQuestions() int {
	if c.setup.Mode == ModeGenerate {
		return 0
	}
	if n := len(c.setup.Questions); n > 0 {
		return n
	}
	if c.setup.NumQuestions > 0 {
		return c.setup.NumQuestions
	}
	return defaultQuestionCount
}

func (c *Controller) startRequestLocked() voice.StartRequest {
	s := c.setup
	req := voice.StartRequest{
		Variables: map[string]any{},
		Metadata: map[string]string{
			"session_id": s.SessionID,
			"user_id":    s.UserID,
		},
	}

	if s.Mode == ModeGenerate {
		req.AgentID = c.opts.WorkflowID
		req.Workflow = true
		req.Variables["username"] = s.Username
		req.Variables["userid"] = s.UserID
		if c.state.InterviewID != "" {
			req.Metadata["interview_id"] = c.state.InterviewID
			req.Variables["interviewid"] = c.state.InterviewID
			req.Variables["role"] = s.Role
			req.Variables["techstack"] = strings.Join(s.TechStack, ", ")
			req.Variables["type"] = s.Type
			req.Variables["level"] = s.Level
			req.Variables["max_questions"] = 0
		}
		return req
	}

	req.AgentID = c.opts.InterviewerID
	max := c.maxQuestions()
	questions := FormatQuestions(s.Questions)
	if questions == "" {
		questions = AutoGenerateDirective(max)
	}
	if s.InterviewID != "" {
		req.Metadata["interview_id"] = s.InterviewID
	}
	req.Variables["username"] = s.Username
	req.Variables["userid"] = s.UserID
	req.Variables["questions"] = questions
	req.Variables["max_questions"] = max
	req.Variables["role"] = s.Role
	req.Variables["techstack"] = strings.Join(s.TechStack, ", ")
	req.Variables["type"] = "interview"
	req.Variables["level"] = s.Level
	return req
}
