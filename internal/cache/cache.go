package cache

import (
	"context"
	"strings"
	"time"
)

// Cache stores JSON values for read-mostly records. A miss is reported as
// hit=false with a nil error; callers treat cache errors as misses.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (hit bool, err error)
	SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// Key joins parts with ':' and drops empty ones.
func Key(parts ...string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ":")
}

func InterviewKey(id string) string { return Key("interview", id) }

func FeedbackKey(interviewID, userID string) string { return Key("feedback", interviewID, userID) }

func HandoffKey(sessionID string) string { return Key("session", sessionID, "handoff") }
