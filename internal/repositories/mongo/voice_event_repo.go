package mongo

import (
	"context"
	"time"

	"github.com/yoockh/mockmate/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const voiceEventTTL = 72 * time.Hour

type VoiceEventRepository interface {
	Insert(ctx context.Context, e *models.VoiceEventLog) error
	ListBySession(ctx context.Context, sessionID string, limit int64) ([]models.VoiceEventLog, error)
}

type voiceEventRepo struct {
	col *mongo.Collection
}

func NewVoiceEventRepo(db *mongo.Database) VoiceEventRepository {
	return &voiceEventRepo{col: db.Collection("voice_events")}
}

func (r *voiceEventRepo) Insert(ctx context.Context, e *models.VoiceEventLog) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	if e.ExpiresAt.IsZero() {
		e.ExpiresAt = e.Timestamp.Add(voiceEventTTL)
	}
	_, err := r.col.InsertOne(ctx, e)
	return err
}

func (r *voiceEventRepo) ListBySession(ctx context.Context, sessionID string, limit int64) ([]models.VoiceEventLog, error) {
	if limit <= 0 {
		limit = 200
	}

	cur, err := r.col.Find(ctx,
		bson.M{"session_id": sessionID},
		options.Find().
			SetSort(bson.D{{Key: "timestamp", Value: 1}}).
			SetLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.VoiceEventLog
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
