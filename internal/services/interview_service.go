package services

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/mockmate/internal/cache"
	"github.com/yoockh/mockmate/internal/call"
	"github.com/yoockh/mockmate/internal/models"
	pgrepo "github.com/yoockh/mockmate/internal/repositories/postgres"
	"github.com/yoockh/mockmate/internal/utils"
)

const interviewCacheTTL = 10 * time.Minute

var interviewCovers = []string{
	"/covers/adobe.png",
	"/covers/amazon.png",
	"/covers/facebook.png",
	"/covers/hostinger.png",
	"/covers/pinterest.png",
	"/covers/quora.png",
	"/covers/reddit.png",
	"/covers/skype.png",
	"/covers/spotify.png",
	"/covers/telegram.png",
	"/covers/tiktok.png",
	"/covers/yahoo.png",
}

type InterviewService interface {
	// Create implements call.InterviewCreator.
	Create(ctx context.Context, draft call.InterviewDraft) (string, error)
	Get(ctx context.Context, id string) (*models.Interview, error)
	ListMine(ctx context.Context, userID string, limit int) ([]models.Interview, error)
	ListLatest(ctx context.Context, userID string, limit int) ([]models.Interview, error)
	Delete(ctx context.Context, userID, id string) error
}

type interviewService struct {
	repo     pgrepo.InterviewRepository
	feedback FeedbackStore
	cache    cache.Cache
	log      *logrus.Entry
}

// FeedbackStore is the part of the feedback service interview deletion needs.
type FeedbackStore interface {
	DeleteForInterview(ctx context.Context, interviewID string) error
}

func NewInterviewService(repo pgrepo.InterviewRepository, feedback FeedbackStore, c cache.Cache, log *logrus.Entry) InterviewService {
	return &interviewService{repo: repo, feedback: feedback, cache: c, log: log}
}

func (s *interviewService) Create(ctx context.Context, d call.InterviewDraft) (string, error) {
	const op = "InterviewService.Create"

	if d.UserID == "" {
		return "", utils.E(utils.CodeUnauthorized, op, "unauthorized", nil)
	}
	role := strings.TrimSpace(d.Role)
	if role == "" {
		return "", utils.E(utils.CodeInvalidArgument, op, "role is required", nil)
	}
	if d.NumQuestions < 0 || d.NumQuestions > 20 {
		return "", utils.E(utils.CodeInvalidArgument, op, "numQuestions must be between 0 and 20", nil)
	}

	var questions []string
	for _, q := range d.Questions {
		if q = strings.TrimSpace(q); q != "" {
			questions = append(questions, q)
		}
	}

	iv := &models.Interview{
		ID:           uuid.NewString(),
		UserID:       d.UserID,
		Role:         role,
		Type:         strings.TrimSpace(d.Type),
		Level:        strings.TrimSpace(d.Level),
		TechStack:    pq.StringArray(call.SplitTechStack(d.TechStack)),
		Questions:    pq.StringArray(questions),
		NumQuestions: d.NumQuestions,
		Finalized:    true,
		CoverImage:   interviewCovers[rand.IntN(len(interviewCovers))],
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, iv); err != nil {
		return "", utils.E(utils.CodeInternal, op, "failed to create interview", err)
	}
	return iv.ID, nil
}

func (s *interviewService) Get(ctx context.Context, id string) (*models.Interview, error) {
	const op = "InterviewService.Get"

	if id == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "interview id is required", nil)
	}

	key := cache.InterviewKey(id)
	if s.cache != nil {
		var cached models.Interview
		hit, err := s.cache.GetJSON(ctx, key, &cached)
		if err != nil {
			s.log.WithError(err).Warn("interview cache read failed")
		} else if hit {
			return &cached, nil
		}
	}

	iv, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "interview not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get interview", err)
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, iv, interviewCacheTTL); err != nil {
			s.log.WithError(err).Warn("interview cache write failed")
		}
	}
	return iv, nil
}

func (s *interviewService) ListMine(ctx context.Context, userID string, limit int) ([]models.Interview, error) {
	const op = "InterviewService.ListMine"

	if userID == "" {
		return nil, utils.E(utils.CodeUnauthorized, op, "unauthorized", nil)
	}
	rows, err := s.repo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list interviews", err)
	}
	return rows, nil
}

func (s *interviewService) ListLatest(ctx context.Context, userID string, limit int) ([]models.Interview, error) {
	const op = "InterviewService.ListLatest"

	rows, err := s.repo.ListLatest(ctx, userID, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list interviews", err)
	}
	return rows, nil
}

// Delete removes an interview the caller owns, along with its feedback.
func (s *interviewService) Delete(ctx context.Context, userID, id string) error {
	const op = "InterviewService.Delete"

	if userID == "" {
		return utils.E(utils.CodeUnauthorized, op, "unauthorized", nil)
	}

	iv, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return utils.E(utils.CodeNotFound, op, "not found", err)
		}
		return utils.E(utils.CodeInternal, op, "failed to load interview", err)
	}
	if iv.UserID != userID {
		return utils.E(utils.CodeForbidden, op, "forbidden", nil)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return utils.E(utils.CodeNotFound, op, "not found", err)
		}
		return utils.E(utils.CodeInternal, op, "failed to delete", err)
	}

	if s.cache != nil {
		if err := s.cache.Del(ctx, cache.InterviewKey(id)); err != nil {
			s.log.WithError(err).Warn("interview cache evict failed")
		}
	}
	if s.feedback != nil {
		if err := s.feedback.DeleteForInterview(ctx, id); err != nil {
			s.log.WithError(err).WithField("interview_id", id).Warn("failed to delete interview feedback")
		}
	}
	return nil
}
