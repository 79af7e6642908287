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

type FeedbackRepository interface {
	// Save inserts f, or replaces the document with f.ID when it is set.
	Save(ctx context.Context, f *models.Feedback) error
	GetByID(ctx context.Context, id string) (*models.Feedback, error)
	GetByInterview(ctx context.Context, interviewID, userID string) (*models.Feedback, error)
	DeleteByInterview(ctx context.Context, interviewID string) error
}

type feedbackRepo struct {
	col *mongo.Collection
}

func NewFeedbackRepo(db *mongo.Database) FeedbackRepository {
	return &feedbackRepo{col: db.Collection("feedback")}
}

func (r *feedbackRepo) Save(ctx context.Context, f *models.Feedback) error {
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
	if f.ID.IsZero() {
		f.ID = primitive.NewObjectID()
		_, err := r.col.InsertOne(ctx, f)
		return err
	}
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": f.ID}, f, options.Replace().SetUpsert(true))
	return err
}

func (r *feedbackRepo) GetByID(ctx context.Context, id string) (*models.Feedback, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, utils.ErrNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid}, nil)
}

// GetByInterview returns the most recent feedback the user received for an
// interview.
func (r *feedbackRepo) GetByInterview(ctx context.Context, interviewID, userID string) (*models.Feedback, error) {
	return r.findOne(ctx,
		bson.M{"interview_id": interviewID, "user_id": userID},
		options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	)
}

func (r *feedbackRepo) DeleteByInterview(ctx context.Context, interviewID string) error {
	_, err := r.col.DeleteMany(ctx, bson.M{"interview_id": interviewID})
	return err
}

func (r *feedbackRepo) findOne(ctx context.Context, filter bson.M, opts *options.FindOneOptions) (*models.Feedback, error) {
	var f models.Feedback
	var res *mongo.SingleResult
	if opts != nil {
		res = r.col.FindOne(ctx, filter, opts)
	} else {
		res = r.col.FindOne(ctx, filter)
	}
	err := res.Decode(&f)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}
