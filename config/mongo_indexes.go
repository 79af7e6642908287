package config

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func EnsureMongoIndexes() error {
	db, err := MongoDatabase()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexes := map[string][]mongo.IndexModel{
		"sessions": {
			{
				Keys:    bson.D{{Key: "session_id", Value: 1}},
				Options: options.Index().SetName("uniq_session_id").SetUnique(true),
			},
			{
				Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
				Options: options.Index().SetName("by_user_created"),
			},
		},
		"voice_events": {
			// expire at expires_at (must be a Date)
			{
				Keys:    bson.D{{Key: "expires_at", Value: 1}},
				Options: options.Index().SetName("ttl_expires_at").SetExpireAfterSeconds(0),
			},
			{
				Keys:    bson.D{{Key: "session_id", Value: 1}, {Key: "timestamp", Value: 1}},
				Options: options.Index().SetName("by_session_ts"),
			},
		},
		"feedback": {
			{
				Keys:    bson.D{{Key: "interview_id", Value: 1}, {Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
				Options: options.Index().SetName("by_interview_user"),
			},
		},
		"resumes": {
			{
				Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
				Options: options.Index().SetName("by_user_created"),
			},
		},
	}

	for coll, ims := range indexes {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, ims); err != nil {
			return err
		}
	}
	return nil
}
