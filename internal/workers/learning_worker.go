package workers

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/brushline/quotedesk/internal/services"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// LearningWorkerPool drains the learning stream with a consumer group.
// Failures are logged and the message is acked anyway; a lost signal only
// delays what the profile learns.
type LearningWorkerPool struct {
	Redis      *redis.Client
	Learning   services.LearningService
	NumWorkers int

	Logger *logrus.Logger

	Stream         string
	Group          string
	ConsumerPrefix string
	JobTimeout     time.Duration
}

func (p *LearningWorkerPool) Start(ctx context.Context) error {
	if p.Redis == nil || p.Learning == nil {
		return errors.New("LearningWorkerPool missing dependency: Redis/Learning must be set")
	}
	p.defaults()

	_ = p.Redis.XGroupCreateMkStream(ctx, p.Stream, p.Group, "0").Err() // ignore BUSYGROUP

	for i := 0; i < p.NumWorkers; i++ {
		consumer := p.ConsumerPrefix + "-" + strconv.Itoa(i+1)
		go p.runConsumer(ctx, consumer)
	}
	return nil
}

func (p *LearningWorkerPool) defaults() {
	if p.Stream == "" {
		p.Stream = services.LearningStream
	}
	if p.Group == "" {
		p.Group = services.LearningGroup
	}
	if p.ConsumerPrefix == "" {
		p.ConsumerPrefix = "c"
	}
	if p.NumWorkers <= 0 {
		p.NumWorkers = 2
	}
	if p.JobTimeout <= 0 {
		p.JobTimeout = 20 * time.Second
	}
	if p.Logger == nil {
		p.Logger = logrus.New()
	}
}

func (p *LearningWorkerPool) runConsumer(ctx context.Context, consumer string) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res, err := p.Redis.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    p.Group,
			Consumer: consumer,
			Streams:  []string{p.Stream, ">"},
			Count:    10,
			Block:    5 * time.Second,
		}).Result()

		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			p.Logger.WithError(err).WithField("consumer", consumer).Warn("learning stream read failed")
			time.Sleep(500 * time.Millisecond)
			continue
		}

		for _, stream := range res {
			for _, msg := range stream.Messages {
				p.handleMsg(ctx, msg)
				_ = p.Redis.XAck(ctx, p.Stream, p.Group, msg.ID).Err()
			}
		}
	}
}

func jobFromMessage(msg redis.XMessage) (services.LearningJob, bool) {
	getStr := func(k string) string {
		v, ok := msg.Values[k]
		if !ok || v == nil {
			return ""
		}
		s, _ := v.(string)
		return s
	}

	job := services.LearningJob{
		JobID:     getStr("job_id"),
		CompanyID: getStr("company_id"),
		SessionID: getStr("session_id"),
	}
	if job.CompanyID == "" || job.SessionID == "" {
		return job, false
	}
	if job.JobID == "" {
		job.JobID = msg.ID
	}
	return job, true
}

func (p *LearningWorkerPool) handleMsg(ctx context.Context, msg redis.XMessage) {
	log := p.Logger.WithField("redis_id", msg.ID)

	job, ok := jobFromMessage(msg)
	if !ok {
		log.Warn("dropping malformed learning job")
		return
	}
	log = log.WithFields(logrus.Fields{
		"job_id":     job.JobID,
		"company_id": job.CompanyID,
		"session_id": job.SessionID,
	})

	jctx, cancel := context.WithTimeout(ctx, p.JobTimeout)
	defer cancel()

	start := time.Now()
	data, err := p.Learning.Process(jctx, job)
	if err != nil {
		log.WithError(err).Error("learning job failed")
		return
	}
	log.WithFields(logrus.Fields{
		"brands":             len(data.Brands),
		"rates":              len(data.Rates),
		"processing_time_ms": time.Since(start).Milliseconds(),
	}).Info("learning profile updated")
}
