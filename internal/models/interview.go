package models

import (
	"time"

	"github.com/lib/pq"
)

const (
	InterviewTypeTechnical  = "technical"
	InterviewTypeBehavioral = "behavioral"
	InterviewTypeMixed      = "mixed"
)

type Interview struct {
	ID           string         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID       string         `gorm:"column:user_id;type:uuid;index" json:"userId"`
	Role         string         `gorm:"column:role;type:text" json:"role"`
	Type         string         `gorm:"column:type;type:text" json:"type"`
	Level        string         `gorm:"column:level;type:text" json:"level"`
	TechStack    pq.StringArray `gorm:"column:techstack;type:text[]" json:"techstack"`
	Questions    pq.StringArray `gorm:"column:questions;type:text[]" json:"questions"`
	NumQuestions int            `gorm:"column:num_questions;type:integer" json:"numQuestions"`
	Finalized    bool           `gorm:"column:finalized" json:"finalized"`
	CoverImage   string         `gorm:"column:cover_image;type:text" json:"coverImage"`
	CreatedAt    time.Time      `gorm:"column:created_at;type:timestamptz;index" json:"createdAt"`
}

func (Interview) TableName() string { return "interviews" }
