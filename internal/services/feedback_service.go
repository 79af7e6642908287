package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/yoockh/mockmate/internal/cache"
	"github.com/yoockh/mockmate/internal/call"
	"github.com/yoockh/mockmate/internal/models"
	"github.com/yoockh/mockmate/internal/providers/llm"
	mongorepo "github.com/yoockh/mockmate/internal/repositories/mongo"
	"github.com/yoockh/mockmate/internal/utils"
)

const feedbackCacheTTL = 30 * time.Minute

// FeedbackCategories are scored for every interview, in this order.
var FeedbackCategories = []string{
	"Communication Skills",
	"Technical Knowledge",
	"Problem Solving",
	"Cultural & Role Fit",
	"Confidence & Clarity",
}

type FeedbackService interface {
	// Generate implements call.FeedbackGenerator.
	Generate(ctx context.Context, req call.FeedbackRequest) (call.FeedbackResult, error)
	GetForInterview(ctx context.Context, userID, interviewID string) (*models.Feedback, error)
	DeleteForInterview(ctx context.Context, interviewID string) error
}

type feedbackService struct {
	repo     mongorepo.FeedbackRepository
	llm      llm.Provider
	sessions SessionService
	cache    cache.Cache
	validate *validator.Validate
	log      *logrus.Entry
}

func NewFeedbackService(repo mongorepo.FeedbackRepository, provider llm.Provider, sessions SessionService, c cache.Cache, log *logrus.Entry) FeedbackService {
	return &feedbackService{
		repo:     repo,
		llm:      provider,
		sessions: sessions,
		cache:    c,
		validate: validator.New(),
		log:      log,
	}
}

type feedbackOutput struct {
	TotalScore          int                    `json:"totalScore" validate:"min=0,max=100"`
	CategoryScores      []models.CategoryScore `json:"categoryScores" validate:"len=5,dive"`
	Strengths           []string               `json:"strengths"`
	AreasForImprovement []string               `json:"areasForImprovement"`
	FinalAssessment     string                 `json:"finalAssessment" validate:"required"`
}

var feedbackSchema = llm.Object(
	[]string{"totalScore", "categoryScores", "strengths", "areasForImprovement", "finalAssessment"},
	map[string]*llm.Schema{
		"totalScore": {Type: llm.TypeInteger, Description: "Overall score from 0 to 100"},
		"categoryScores": llm.ArrayOf(llm.Object(
			[]string{"name", "score", "comment"},
			map[string]*llm.Schema{
				"name":    llm.String("Category name, exactly as listed"),
				"score":   {Type: llm.TypeInteger, Description: "Score from 0 to 100"},
				"comment": llm.String("One or two sentences justifying the score"),
			},
		)),
		"strengths":           llm.ArrayOf(llm.String("")),
		"areasForImprovement": llm.ArrayOf(llm.String("")),
		"finalAssessment":     llm.String("Short overall assessment"),
	},
)

func (s *feedbackService) Generate(ctx context.Context, req call.FeedbackRequest) (call.FeedbackResult, error) {
	const op = "FeedbackService.Generate"

	if req.UserID == "" {
		return call.FeedbackResult{}, utils.E(utils.CodeUnauthorized, op, "unauthorized", nil)
	}
	if req.InterviewID == "" {
		return call.FeedbackResult{}, utils.E(utils.CodeInvalidArgument, op, "interviewId is required", nil)
	}
	transcript := call.FormatContext(req.Transcript)
	if strings.TrimSpace(transcript) == "" {
		return call.FeedbackResult{}, utils.E(utils.CodeInvalidArgument, op, "transcript is empty", nil)
	}

	doc := &models.Feedback{}
	if req.FeedbackID != "" {
		existing, err := s.repo.GetByID(ctx, req.FeedbackID)
		switch {
		case err == nil && existing.UserID != req.UserID:
			return call.FeedbackResult{}, utils.E(utils.CodeForbidden, op, "forbidden", nil)
		case err == nil:
			doc.ID = existing.ID
		case !errors.Is(err, utils.ErrNotFound):
			return call.FeedbackResult{}, utils.E(utils.CodeInternal, op, "failed to load feedback", err)
		default:
			if oid, perr := primitive.ObjectIDFromHex(req.FeedbackID); perr == nil {
				doc.ID = oid
			}
		}
	}

	raw, err := s.llm.GenerateJSON(ctx, feedbackPrompt(transcript), feedbackSchema)
	if err != nil {
		return call.FeedbackResult{}, utils.E(utils.CodeUnavailable, op, "feedback generation failed", err)
	}
	var out feedbackOutput
	if err := llm.DecodeJSON(raw, &out); err != nil {
		return call.FeedbackResult{}, utils.E(utils.CodeUnavailable, op, "model returned invalid feedback", err)
	}
	if err := s.validate.Struct(out); err != nil {
		return call.FeedbackResult{}, utils.E(utils.CodeUnavailable, op, "model returned incomplete feedback", err)
	}

	doc.InterviewID = req.InterviewID
	doc.UserID = req.UserID
	doc.SessionID = req.SessionID
	doc.TotalScore = out.TotalScore
	doc.CategoryScores = out.CategoryScores
	doc.Strengths = out.Strengths
	doc.AreasForImprovement = out.AreasForImprovement
	doc.FinalAssessment = out.FinalAssessment
	doc.Transcript = req.Transcript
	doc.CreatedAt = time.Now().UTC()

	if err := s.repo.Save(ctx, doc); err != nil {
		return call.FeedbackResult{}, utils.E(utils.CodeInternal, op, "failed to save feedback", err)
	}
	id := doc.ID.Hex()

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, cache.FeedbackKey(req.InterviewID, req.UserID), doc, feedbackCacheTTL); err != nil {
			s.log.WithError(err).Warn("feedback cache write failed")
		}
	}
	if s.sessions != nil && req.SessionID != "" {
		if err := s.sessions.AttachFeedback(ctx, req.SessionID, id); err != nil {
			s.log.WithError(err).WithField("session_id", req.SessionID).Warn("failed to attach feedback to session")
		}
	}

	s.log.WithFields(logrus.Fields{
		"interview_id": req.InterviewID,
		"feedback_id":  id,
		"total_score":  doc.TotalScore,
	}).Info("feedback saved")
	return call.FeedbackResult{Success: true, FeedbackID: id}, nil
}

func (s *feedbackService) GetForInterview(ctx context.Context, userID, interviewID string) (*models.Feedback, error) {
	const op = "FeedbackService.GetForInterview"

	if userID == "" || interviewID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id and interview_id are required", nil)
	}

	key := cache.FeedbackKey(interviewID, userID)
	if s.cache != nil {
		var cached models.Feedback
		if hit, err := s.cache.GetJSON(ctx, key, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	f, err := s.repo.GetByInterview(ctx, interviewID, userID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "feedback not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get feedback", err)
	}
	if s.cache != nil {
		_ = s.cache.SetJSON(ctx, key, f, feedbackCacheTTL)
	}
	return f, nil
}

func (s *feedbackService) DeleteForInterview(ctx context.Context, interviewID string) error {
	const op = "FeedbackService.DeleteForInterview"

	if err := s.repo.DeleteByInterview(ctx, interviewID); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to delete feedback", err)
	}
	return nil
}

func feedbackPrompt(transcript string) string {
	return fmt.Sprintf(`You are an AI interviewer analyzing a mock interview. Your task is to evaluate the candidate based on structured categories. Be thorough and detailed in your analysis. Don't be lenient with the candidate. If there are mistakes or areas for improvement, point them out.

Transcript:
%s

Score the candidate from 0 to 100 in exactly these areas, in this order, using these exact names:
- %s

Also list strengths, areas for improvement and a short final assessment.`, transcript, strings.Join(FeedbackCategories, "\n- "))
}
