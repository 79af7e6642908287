package models

import (
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

// ConversationLog is the durable copy of one transcript turn.
type ConversationLog struct {
	ID        string           `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID    string           `gorm:"column:user_id;type:uuid;index" json:"user_id"`
	SessionID string           `gorm:"column:session_id;type:uuid;index" json:"session_id"`
	Seq       int              `gorm:"column:seq;type:integer" json:"seq"`
	Role      string           `gorm:"column:role;type:text" json:"role"` // user|assistant|system
	Content   string           `gorm:"column:content;type:text" json:"content"`
	Source    string           `gorm:"column:source;type:text" json:"source"` // voice|text|fallback
	Embedding *pgvector.Vector `gorm:"column:embedding;type:vector(768)" json:"-"`
	Timestamp time.Time        `gorm:"column:timestamp;type:timestamptz;index" json:"timestamp"`
	Metadata  datatypes.JSON   `gorm:"column:metadata;type:jsonb" json:"metadata"`
}

func (ConversationLog) TableName() string { return "conversation_logs" }
