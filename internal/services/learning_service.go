package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/brushline/quotedesk/internal/cache"
	"github.com/brushline/quotedesk/internal/learning"
	"github.com/brushline/quotedesk/internal/models"
	mongorepo "github.com/brushline/quotedesk/internal/repositories/mongo"
	pgrepo "github.com/brushline/quotedesk/internal/repositories/postgres"
	"github.com/brushline/quotedesk/internal/utils"
)

type LearningService interface {
	Profile(ctx context.Context, companyID string) (*models.LearningProfile, error)
	Signals(ctx context.Context, companyID string, limit int64) ([]models.LearningSignal, error)
	// Process mines one conversation and folds the result into the company
	// profile. Callers log its error; nothing is retried.
	Process(ctx context.Context, job LearningJob) (models.LearningData, error)
}

type learningService struct {
	profiles pgrepo.LearningProfileRepository
	messages pgrepo.MessageRepository
	signals  mongorepo.SignalRepository
	cache    cache.Cache
	now      func() time.Time
}

func NewLearningService(profiles pgrepo.LearningProfileRepository, messages pgrepo.MessageRepository, signals mongorepo.SignalRepository, c cache.Cache) LearningService {
	return &learningService{profiles: profiles, messages: messages, signals: signals, cache: c, now: time.Now}
}

func (s *learningService) Profile(ctx context.Context, companyID string) (*models.LearningProfile, error) {
	const op = "LearningService.Profile"

	if companyID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "company_id is required", nil)
	}
	p, err := s.profiles.Get(ctx, companyID)
	if errors.Is(err, utils.ErrNotFound) {
		return models.NewLearningProfile(companyID), nil
	}
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to get learning profile", err)
	}
	return p, nil
}

func (s *learningService) Signals(ctx context.Context, companyID string, limit int64) ([]models.LearningSignal, error) {
	const op = "LearningService.Signals"

	if s.signals == nil {
		return []models.LearningSignal{}, nil
	}
	rows, err := s.signals.ListByCompany(ctx, companyID, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list learning signals", err)
	}
	return rows, nil
}

func (s *learningService) Process(ctx context.Context, job LearningJob) (models.LearningData, error) {
	const op = "LearningService.Process"

	if job.CompanyID == "" || job.SessionID == "" {
		return models.LearningData{}, utils.E(utils.CodeInvalidArgument, op, "company_id and session_id are required", nil)
	}
	start := s.now()
	s.logSignal(ctx, job, start)

	msgs, err := s.messages.ListBySession(ctx, job.CompanyID, job.SessionID)
	if err != nil {
		s.fail(ctx, job, err, start)
		return models.LearningData{}, utils.E(utils.CodeInternal, op, "failed to load transcript", err)
	}

	var b strings.Builder
	for _, m := range msgs {
		if m.Role == models.RoleUserMessage {
			b.WriteString(m.Content)
			b.WriteString("\n")
		}
	}
	data := learning.ExtractSignals(b.String())

	_, err = s.profiles.Modify(ctx, job.CompanyID, func(p *models.LearningProfile) *models.LearningProfile {
		return learning.Fold(p, data, s.now().UTC())
	})
	if err != nil {
		s.fail(ctx, job, err, start)
		return data, utils.E(utils.CodeInternal, op, "failed to save learning profile", err)
	}
	if s.cache != nil {
		_ = s.cache.Del(ctx, cache.ProfileKey(job.CompanyID))
	}
	if s.signals != nil {
		_ = s.signals.MarkDone(ctx, job.JobID, data, s.now().Sub(start).Milliseconds())
	}
	return data, nil
}

func (s *learningService) logSignal(ctx context.Context, job LearningJob, at time.Time) {
	if s.signals == nil {
		return
	}
	_ = s.signals.Insert(ctx, &models.LearningSignal{
		JobID:     job.JobID,
		CompanyID: job.CompanyID,
		SessionID: job.SessionID,
		Status:    "pending",
		Timestamp: at.UTC(),
	})
}

func (s *learningService) fail(ctx context.Context, job LearningJob, err error, start time.Time) {
	if s.signals == nil {
		return
	}
	_ = s.signals.MarkFailed(ctx, job.JobID, err.Error(), s.now().Sub(start).Milliseconds())
}
