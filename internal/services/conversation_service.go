package services

import (
	"context"
	"strings"
	"time"

	"github.com/yoockh/mockmate/internal/logger"
	"github.com/yoockh/mockmate/internal/models"
	"github.com/yoockh/mockmate/internal/providers/llm"
	pgrepo "github.com/yoockh/mockmate/internal/repositories/postgres"
	"github.com/yoockh/mockmate/internal/utils"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

const (
	defaultSearchLimit = 5
	maxSearchLimit     = 20
)

// TurnRecord is one transcript turn to persist.
type TurnRecord struct {
	UserID    string
	SessionID string
	Seq       int
	Role      string
	Content   string
	Source    string
	Embedding []float32
	Metadata  []byte
}

type ConversationService interface {
	Append(ctx context.Context, rec TurnRecord) (*models.ConversationLog, error)
	ListBySession(ctx context.Context, userID, sessionID string, limit int) ([]models.ConversationLog, error)
	Transcript(ctx context.Context, userID, sessionID string) ([]models.Turn, error)
	// Search returns the user's stored turns closest in meaning to query.
	Search(ctx context.Context, userID, query string, limit int) ([]models.ConversationLog, error)
}

type conversationService struct {
	convos pgrepo.ConversationRepo
	embed  llm.Embedder // optional
	log    *logrus.Entry
}

// NewConversationService stores turns. With an embedder, turns are embedded
// on append and Search is available.
func NewConversationService(convos pgrepo.ConversationRepo, embed llm.Embedder) ConversationService {
	return &conversationService{
		convos: convos,
		embed:  embed,
		log:    logger.Component(nil, "conversation"),
	}
}

func (s *conversationService) Append(ctx context.Context, rec TurnRecord) (*models.ConversationLog, error) {
	const op = "ConversationService.Append"

	if rec.UserID == "" || rec.SessionID == "" || rec.Role == "" || rec.Content == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id, session_id, role, and content are required", nil)
	}

	row := &models.ConversationLog{
		ID:        uuid.NewString(),
		UserID:    rec.UserID,
		SessionID: rec.SessionID,
		Seq:       rec.Seq,
		Role:      rec.Role,
		Content:   rec.Content,
		Source:    rec.Source,
		Timestamp: time.Now().UTC(),
	}
	if len(rec.Metadata) > 0 {
		row.Metadata = datatypes.JSON(rec.Metadata)
	}
	if len(rec.Embedding) == 0 && s.embed != nil {
		vec, err := s.embed.Embed(ctx, rec.Content)
		if err != nil {
			// the turn is stored without a vector and left out of search
			s.log.WithError(err).WithField("session_id", rec.SessionID).Warn("failed to embed turn")
		}
		rec.Embedding = vec
	}
	if len(rec.Embedding) > 0 {
		v := pgvector.NewVector(rec.Embedding)
		row.Embedding = &v
	}

	if err := s.convos.Insert(ctx, row); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to insert conversation log", err)
	}
	return row, nil
}

func (s *conversationService) ListBySession(ctx context.Context, userID, sessionID string, limit int) ([]models.ConversationLog, error) {
	const op = "ConversationService.ListBySession"

	if userID == "" || sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id and session_id are required", nil)
	}

	rows, err := s.convos.ListBySession(ctx, userID, sessionID, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list conversations", err)
	}
	return rows, nil
}

// Transcript rebuilds the ordered turns of a stored session.
func (s *conversationService) Transcript(ctx context.Context, userID, sessionID string) ([]models.Turn, error) {
	rows, err := s.ListBySession(ctx, userID, sessionID, 0)
	if err != nil {
		return nil, err
	}
	out := make([]models.Turn, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.Turn{Role: models.ParseRole(r.Role, models.RoleUser), Content: r.Content})
	}
	return out, nil
}

func (s *conversationService) Search(ctx context.Context, userID, query string, limit int) ([]models.ConversationLog, error) {
	const op = "ConversationService.Search"

	query = strings.TrimSpace(query)
	if userID == "" || query == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id and query are required", nil)
	}
	if s.embed == nil {
		return nil, utils.E(utils.CodeUnavailable, op, "search is not configured", nil)
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	vec, err := s.embed.Embed(ctx, query)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to embed query", err)
	}
	rows, err := s.convos.NearestTo(ctx, userID, pgvector.NewVector(vec), limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to search conversations", err)
	}
	return rows, nil
}
