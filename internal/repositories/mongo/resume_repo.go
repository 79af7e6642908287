package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/yoockh/mockmate/internal/models"
	"github.com/yoockh/mockmate/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ResumeRepository interface {
	Create(ctx context.Context, r *models.Resume) error
	GetByID(ctx context.Context, id string) (*models.Resume, error)
	ListByUser(ctx context.Context, userID string, limit int64) ([]models.Resume, error)
	SetStatus(ctx context.Context, id, status, errMsg string) error
	SaveAnalysis(ctx context.Context, id, extractedText string, analysis *models.ResumeAnalysis) error
}

type resumeRepo struct {
	col *mongo.Collection
}

func NewResumeRepo(db *mongo.Database) ResumeRepository {
	return &resumeRepo{col: db.Collection("resumes")}
}

func (r *resumeRepo) Create(ctx context.Context, res *models.Resume) error {
	now := time.Now().UTC()
	if res.CreatedAt.IsZero() {
		res.CreatedAt = now
	}
	res.UpdatedAt = now
	if res.ID.IsZero() {
		res.ID = primitive.NewObjectID()
	}
	_, err := r.col.InsertOne(ctx, res)
	return err
}

func (r *resumeRepo) GetByID(ctx context.Context, id string) (*models.Resume, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, utils.ErrNotFound
	}
	var res models.Resume
	err = r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&res)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *resumeRepo) ListByUser(ctx context.Context, userID string, limit int64) ([]models.Resume, error) {
	if limit <= 0 {
		limit = 20
	}
	cur, err := r.col.Find(ctx,
		bson.M{"user_id": userID},
		options.Find().
			SetSort(bson.D{{Key: "created_at", Value: -1}}).
			SetLimit(limit).
			SetProjection(bson.M{"extracted_text": 0}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Resume
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *resumeRepo) SetStatus(ctx context.Context, id, status, errMsg string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return utils.ErrNotFound
	}
	_, err = r.col.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{
			"status":     status,
			"error":      errMsg,
			"updated_at": time.Now().UTC(),
		}},
	)
	return err
}

func (r *resumeRepo) SaveAnalysis(ctx context.Context, id, extractedText string, analysis *models.ResumeAnalysis) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return utils.ErrNotFound
	}
	_, err = r.col.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{
			"status":         models.ResumeStatusDone,
			"error":          "",
			"extracted_text": extractedText,
			"ats_score":      analysis.ATSScore,
			"analysis":       analysis,
			"updated_at":     time.Now().UTC(),
		}},
	)
	return err
}
