package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CategoryScore struct {
	Name    string `bson:"name" json:"name" validate:"required"`
	Score   int    `bson:"score" json:"score" validate:"min=0,max=100"`
	Comment string `bson:"comment" json:"comment"`
}

type Feedback struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	InterviewID string             `bson:"interview_id" json:"interviewId"`
	UserID      string             `bson:"user_id" json:"userId"`
	SessionID   string             `bson:"session_id,omitempty" json:"sessionId,omitempty"`

	TotalScore          int             `bson:"total_score" json:"totalScore"`
	CategoryScores      []CategoryScore `bson:"category_scores" json:"categoryScores"`
	Strengths           []string        `bson:"strengths" json:"strengths"`
	AreasForImprovement []string        `bson:"areas_for_improvement" json:"areasForImprovement"`
	FinalAssessment     string          `bson:"final_assessment" json:"finalAssessment"`

	Transcript []Turn    `bson:"transcript" json:"transcript"`
	CreatedAt  time.Time `bson:"created_at" json:"createdAt"`
}
