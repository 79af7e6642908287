package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/yoockh/mockmate/internal/call"
	"github.com/yoockh/mockmate/internal/providers/llm"
	"github.com/yoockh/mockmate/internal/utils"
)

// ReplyService produces the short interviewer reply used when a typed
// answer gets no spoken response.
type ReplyService interface {
	Reply(ctx context.Context, req call.ReplyRequest) (string, error)
}

type replyService struct {
	llm llm.Provider
}

func NewReplyService(provider llm.Provider) ReplyService {
	return &replyService{llm: provider}
}

func (s *replyService) Reply(ctx context.Context, req call.ReplyRequest) (string, error) {
	const op = "ReplyService.Reply"

	if strings.TrimSpace(req.UserText) == "" {
		return "", utils.E(utils.CodeInvalidArgument, op, "Missing userText", nil)
	}

	text, err := llm.Complete(ctx, s.llm, replyPrompt(req))
	if err != nil {
		return "", utils.E(utils.CodeUnavailable, op, "Failed to reply", err)
	}
	if text == "" {
		return "", utils.E(utils.CodeUnavailable, op, "Failed to reply", llm.ErrEmptyResponse)
	}
	return text, nil
}

func replyPrompt(req call.ReplyRequest) string {
	return fmt.Sprintf(`You are an interview agent restricted to this topic.
Role: %s
Tech stack: %s
Focus type: %s
Seniority: %s
Max primary questions: %d
Structured flow (optional):
%s

Candidate says: %q

Respond concisely in one or two sentences, stay strictly on topic.
If they ask a question, answer briefly and proceed.
If max primary questions was reached already (cannot be verified here), politely conclude.
`, req.Role, req.TechStack, req.Type, req.Level, req.MaxQuestions, req.ContextQuestions, req.UserText)
}
