package services

import (
	"context"
	"errors"
	"time"

	"github.com/yoockh/mockmate/internal/models"
	mongorepo "github.com/yoockh/mockmate/internal/repositories/mongo"
	"github.com/yoockh/mockmate/internal/utils"

	"github.com/google/uuid"
)

type SessionService interface {
	Start(ctx context.Context, userID, mode, interviewID, feedbackID string) (*models.Session, error)
	Get(ctx context.Context, sessionID string) (*models.Session, error)
	GetOwned(ctx context.Context, userID, sessionID string) (*models.Session, error)
	ListByUser(ctx context.Context, userID string, limit int64) ([]models.Session, error)
	SetStatus(ctx context.Context, sessionID, status string) error
	AttachCall(ctx context.Context, sessionID, callID, interviewID string) error
	AttachFeedback(ctx context.Context, sessionID, feedbackID string) error
	End(ctx context.Context, sessionID string) (*models.Session, error)
}

type sessionService struct {
	sessions mongorepo.SessionRepository
}

func NewSessionService(sessions mongorepo.SessionRepository) SessionService {
	return &sessionService{sessions: sessions}
}

func (s *sessionService) Start(ctx context.Context, userID, mode, interviewID, feedbackID string) (*models.Session, error) {
	const op = "SessionService.Start"

	if userID == "" || mode == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id and mode are required", nil)
	}

	session := &models.Session{
		SessionID:   uuid.NewString(),
		UserID:      userID,
		InterviewID: interviewID,
		Mode:        mode,
		Status:      "INACTIVE",
		FeedbackID:  feedbackID,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to create session", err)
	}
	return session, nil
}

func (s *sessionService) Get(ctx context.Context, sessionID string) (*models.Session, error) {
	const op = "SessionService.Get"

	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}

	out, err := s.sessions.GetBySessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "session not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get session", err)
	}
	return out, nil
}

func (s *sessionService) GetOwned(ctx context.Context, userID, sessionID string) (*models.Session, error) {
	const op = "SessionService.GetOwned"

	out, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if out.UserID != userID {
		return nil, utils.E(utils.CodeNotFound, op, "session not found", nil)
	}
	return out, nil
}

func (s *sessionService) ListByUser(ctx context.Context, userID string, limit int64) ([]models.Session, error) {
	const op = "SessionService.ListByUser"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	out, err := s.sessions.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list sessions", err)
	}
	return out, nil
}

func (s *sessionService) SetStatus(ctx context.Context, sessionID, status string) error {
	const op = "SessionService.SetStatus"

	if sessionID == "" || status == "" {
		return utils.E(utils.CodeInvalidArgument, op, "session_id and status are required", nil)
	}
	if err := s.sessions.SetStatus(ctx, sessionID, status); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to set status", err)
	}
	return nil
}

func (s *sessionService) AttachCall(ctx context.Context, sessionID, callID, interviewID string) error {
	const op = "SessionService.AttachCall"

	if sessionID == "" || callID == "" {
		return utils.E(utils.CodeInvalidArgument, op, "session_id and call_id are required", nil)
	}
	if err := s.sessions.SetCall(ctx, sessionID, callID, interviewID); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to attach call", err)
	}
	return nil
}

func (s *sessionService) AttachFeedback(ctx context.Context, sessionID, feedbackID string) error {
	const op = "SessionService.AttachFeedback"

	if sessionID == "" || feedbackID == "" {
		return utils.E(utils.CodeInvalidArgument, op, "session_id and feedback_id are required", nil)
	}
	if err := s.sessions.SetFeedback(ctx, sessionID, feedbackID); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to attach feedback", err)
	}
	return nil
}

func (s *sessionService) End(ctx context.Context, sessionID string) (*models.Session, error) {
	const op = "SessionService.End"

	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}

	ss, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if ss.EndedAt != nil {
		return ss, nil
	}

	now := time.Now().UTC()
	dur := int64(now.Sub(ss.CreatedAt).Seconds())
	if dur < 0 {
		dur = 0
	}

	if err := s.sessions.End(ctx, sessionID, now, dur); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to end session", err)
	}

	ss.Status = "FINISHED"
	ss.EndedAt = &now
	ss.DurationSeconds = dur
	return ss, nil
}
