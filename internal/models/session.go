package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Session struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SessionID   string             `bson:"session_id" json:"session_id"` // uuid v4
	UserID      string             `bson:"user_id" json:"user_id"`
	InterviewID string             `bson:"interview_id,omitempty" json:"interview_id,omitempty"`
	CallID      string             `bson:"call_id,omitempty" json:"call_id,omitempty"`

	Mode   string `bson:"mode" json:"mode"`     // generate|fixed
	Status string `bson:"status" json:"status"` // INACTIVE|CONNECTING|ACTIVE|FINISHED

	FeedbackID string `bson:"feedback_id,omitempty" json:"feedback_id,omitempty"`

	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	EndedAt   *time.Time `bson:"ended_at,omitempty" json:"ended_at,omitempty"`

	DurationSeconds int64 `bson:"duration_seconds" json:"duration_seconds"`
}
