package services

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const (
	LearningStream = "learning:jobs"
	LearningGroup  = "learning-workers"
)

// LearningJob asks the workers to mine one finished conversation.
type LearningJob struct {
	JobID     string
	CompanyID string
	SessionID string
}

type LearningQueue interface {
	Enqueue(ctx context.Context, job LearningJob) error
}

type redisLearningQueue struct {
	rdb    *redis.Client
	stream string
}

func NewRedisLearningQueue(rdb *redis.Client) LearningQueue {
	return &redisLearningQueue{rdb: rdb, stream: LearningStream}
}

func (q *redisLearningQueue) Enqueue(ctx context.Context, job LearningJob) error {
	return q.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: q.stream,
		MaxLen: 10000,
		Approx: true,
		Values: map[string]any{
			"job_id":     job.JobID,
			"company_id": job.CompanyID,
			"session_id": job.SessionID,
		},
	}).Err()
}
