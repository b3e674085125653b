package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/brushline/quotedesk/internal/models"
	"github.com/redis/go-redis/v9"
)

// SessionChannel is the pub/sub channel for one session's events.
func SessionChannel(sessionID string) string { return "session:" + sessionID + ":events" }

type EventPublisher interface {
	Publish(ctx context.Context, ev models.SessionEvent) error
}

type redisEventPublisher struct {
	rdb *redis.Client
}

func NewRedisEventPublisher(rdb *redis.Client) EventPublisher {
	return &redisEventPublisher{rdb: rdb}
}

func (p *redisEventPublisher) Publish(ctx context.Context, ev models.SessionEvent) error {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.rdb.Publish(ctx, SessionChannel(ev.SessionID), b).Err()
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, models.SessionEvent) error { return nil }
