package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/yoockh/mockmate/internal/models"
	"github.com/yoockh/mockmate/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type SessionRepository interface {
	Create(ctx context.Context, s *models.Session) error
	GetBySessionID(ctx context.Context, sessionID string) (*models.Session, error)
	ListByUser(ctx context.Context, userID string, limit int64) ([]models.Session, error)
	SetStatus(ctx context.Context, sessionID, status string) error
	SetCall(ctx context.Context, sessionID, callID, interviewID string) error
	SetFeedback(ctx context.Context, sessionID, feedbackID string) error
	End(ctx context.Context, sessionID string, endedAt time.Time, durationSeconds int64) error
}

type sessionRepo struct {
	col *mongo.Collection
}

func NewSessionRepo(db *mongo.Database) SessionRepository {
	return &sessionRepo{col: db.Collection("sessions")}
}

func (r *sessionRepo) Create(ctx context.Context, s *models.Session) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	_, err := r.col.InsertOne(ctx, s)
	return err
}

func (r *sessionRepo) GetBySessionID(ctx context.Context, sessionID string) (*models.Session, error) {
	var s models.Session
	err := r.col.FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	return &s, err
}

func (r *sessionRepo) ListByUser(ctx context.Context, userID string, limit int64) ([]models.Session, error) {
	if limit <= 0 {
		limit = 50
	}
	cur, err := r.col.Find(ctx,
		bson.M{"user_id": userID},
		options.Find().
			SetSort(bson.D{{Key: "created_at", Value: -1}}).
			SetLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Session
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sessionRepo) SetStatus(ctx context.Context, sessionID, status string) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"session_id": sessionID},
		bson.M{"$set": bson.M{"status": status}},
	)
	return err
}

func (r *sessionRepo) SetCall(ctx context.Context, sessionID, callID, interviewID string) error {
	set := bson.M{"call_id": callID}
	if interviewID != "" {
		set["interview_id"] = interviewID
	}
	_, err := r.col.UpdateOne(ctx, bson.M{"session_id": sessionID}, bson.M{"$set": set})
	return err
}

func (r *sessionRepo) SetFeedback(ctx context.Context, sessionID, feedbackID string) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"session_id": sessionID},
		bson.M{"$set": bson.M{"feedback_id": feedbackID}},
	)
	return err
}

func (r *sessionRepo) End(ctx context.Context, sessionID string, endedAt time.Time, durationSeconds int64) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"session_id": sessionID, "ended_at": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{
			"status":           "FINISHED",
			"ended_at":         endedAt.UTC(),
			"duration_seconds": durationSeconds,
		}},
	)
	return err
}
