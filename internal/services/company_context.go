package services

import (
	"context"
	"errors"
	"time"

	"github.com/brushline/quotedesk/internal/assistant"
	"github.com/brushline/quotedesk/internal/cache"
	"github.com/brushline/quotedesk/internal/models"
	pgrepo "github.com/brushline/quotedesk/internal/repositories/postgres"
	"github.com/brushline/quotedesk/internal/utils"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Defaults are the pricing fallbacks from configuration.
type Defaults struct {
	Coverage        float64
	OverheadPercent float64
	ValidityDays    int
	PaymentTerms    string
}

// CompanyContextLoader assembles the per-request company context the
// assistant stages need.
type CompanyContextLoader interface {
	Load(ctx context.Context, companyID string) (assistant.Company, error)
}

type companyContextLoader struct {
	companies pgrepo.CompanyRepository
	catalog   CatalogService
	profiles  pgrepo.LearningProfileRepository
	cache     cache.Cache
	ttl       time.Duration
	defaults  Defaults
	log       *logrus.Logger
}

func NewCompanyContextLoader(companies pgrepo.CompanyRepository, catalog CatalogService, profiles pgrepo.LearningProfileRepository, c cache.Cache, ttl time.Duration, d Defaults, log *logrus.Logger) CompanyContextLoader {
	if log == nil {
		log = logrus.New()
	}
	return &companyContextLoader{companies: companies, catalog: catalog, profiles: profiles, cache: c, ttl: ttl, defaults: d, log: log}
}

func (l *companyContextLoader) Load(ctx context.Context, companyID string) (assistant.Company, error) {
	const op = "CompanyContext.Load"

	out := assistant.Company{
		ID:                     companyID,
		DefaultCoverage:        l.defaults.Coverage,
		DefaultOverheadPercent: l.defaults.OverheadPercent,
		DefaultValidityDays:    l.defaults.ValidityDays,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		co, err := l.company(gctx, companyID)
		if err != nil {
			return err
		}
		out.Company = co
		out.Name = co.Name
		return nil
	})
	g.Go(func() error {
		rows, err := l.catalog.List(gctx, companyID)
		if err != nil {
			return err
		}
		out.Catalog = rows
		return nil
	})
	g.Go(func() error {
		// the profile only biases defaults; a missing or unreadable one is fine
		p, err := l.profile(gctx, companyID)
		if err != nil {
			l.log.WithError(err).WithField("company_id", companyID).Warn("learning profile unavailable")
			return nil
		}
		out.Profile = p
		return nil
	})

	if err := g.Wait(); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return assistant.Company{}, utils.E(utils.CodeNotFound, op, "company not found", err)
		}
		var ae *utils.AppError
		if errors.As(err, &ae) {
			return assistant.Company{}, err
		}
		return assistant.Company{}, utils.E(utils.CodeInternal, op, "failed to load company context", err)
	}
	return out, nil
}

func (l *companyContextLoader) company(ctx context.Context, id string) (*models.Company, error) {
	key := cache.CompanyKey(id)
	if l.cache != nil {
		var co models.Company
		if hit, _ := l.cache.GetJSON(ctx, key, &co); hit {
			return &co, nil
		}
	}
	co, err := l.companies.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if l.cache != nil {
		_ = l.cache.SetJSON(ctx, key, co, l.ttl)
	}
	return co, nil
}

func (l *companyContextLoader) profile(ctx context.Context, id string) (*models.LearningProfile, error) {
	key := cache.ProfileKey(id)
	if l.cache != nil {
		var p models.LearningProfile
		if hit, _ := l.cache.GetJSON(ctx, key, &p); hit {
			return &p, nil
		}
	}
	p, err := l.profiles.Get(ctx, id)
	if errors.Is(err, utils.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if l.cache != nil {
		_ = l.cache.SetJSON(ctx, key, p, l.ttl)
	}
	return p, nil
}
