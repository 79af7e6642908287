package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VoiceEventLog is a raw voice-agent webhook payload kept for debugging.
// Documents expire through the TTL index on expires_at.
type VoiceEventLog struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SessionID string             `bson:"session_id" json:"session_id"`
	CallID    string             `bson:"call_id,omitempty" json:"call_id,omitempty"`
	Type      string             `bson:"type" json:"type"`
	Payload   string             `bson:"payload" json:"payload"`

	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
}
