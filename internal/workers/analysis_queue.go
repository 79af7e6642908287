package workers

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultAnalysisStream = "resume:stream"
	DefaultAnalysisGroup  = "resume-analyzers"
)

// AnalysisQueue appends resume ids to a Redis stream read by
// AnalysisWorkerPool. It implements services.AnalysisQueue.
type AnalysisQueue struct {
	Redis  *redis.Client
	Stream string
}

func NewAnalysisQueue(rdb *redis.Client) *AnalysisQueue {
	return &AnalysisQueue{Redis: rdb, Stream: DefaultAnalysisStream}
}

func (q *AnalysisQueue) Enqueue(ctx context.Context, resumeID string) error {
	if q.Redis == nil {
		return errors.New("AnalysisQueue: redis client is nil")
	}
	if resumeID == "" {
		return errors.New("AnalysisQueue: resume id is empty")
	}
	return q.Redis.XAdd(ctx, &redis.XAddArgs{
		Stream: q.Stream,
		MaxLen: 10000,
		Approx: true,
		Values: map[string]any{"resume_id": resumeID},
	}).Err()
}
