package postgres

import (
	"context"

	"github.com/pgvector/pgvector-go"
	"github.com/yoockh/mockmate/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ConversationRepo interface {
	Insert(ctx context.Context, log *models.ConversationLog) error
	ListBySession(ctx context.Context, userID, sessionID string, limit int) ([]models.ConversationLog, error)
	NearestTo(ctx context.Context, userID string, embedding pgvector.Vector, n int) ([]models.ConversationLog, error)
}

type conversationRepo struct {
	db *gorm.DB
}

func NewConversationRepo(db *gorm.DB) ConversationRepo {
	return &conversationRepo{db: db}
}

func (r *conversationRepo) Insert(ctx context.Context, log *models.ConversationLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// ListBySession returns a session's turns in conversation order.
func (r *conversationRepo) ListBySession(ctx context.Context, userID, sessionID string, limit int) ([]models.ConversationLog, error) {
	if limit <= 0 {
		limit = 200
	}

	var rows []models.ConversationLog
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND session_id = ?", userID, sessionID).
		Order("seq ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// NearestTo orders the user's embedded turns by cosine distance.
func (r *conversationRepo) NearestTo(ctx context.Context, userID string, embedding pgvector.Vector, n int) ([]models.ConversationLog, error) {
	if n <= 0 {
		n = 5
	}
	var rows []models.ConversationLog
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND embedding IS NOT NULL", userID).
		Clauses(clause.OrderBy{Expression: clause.Expr{SQL: "embedding <=> ?", Vars: []interface{}{embedding}}}).
		Limit(n).
		Find(&rows).Error
	return rows, err
}
