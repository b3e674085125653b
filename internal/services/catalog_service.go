package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/brushline/quotedesk/internal/cache"
	"github.com/brushline/quotedesk/internal/models"
	pgrepo "github.com/brushline/quotedesk/internal/repositories/postgres"
	"github.com/brushline/quotedesk/internal/utils"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ProductInput is the writable part of a catalog row.
type ProductInput struct {
	Category      models.MaterialCategory `json:"category"`
	ProjectType   string                  `json:"project_type"`
	Supplier      string                  `json:"supplier"`
	Name          string                  `json:"name"`
	CostPerGallon float64                 `json:"cost_per_gallon"`
	Coverage      float64                 `json:"coverage"`
	CoverageUnit  string                  `json:"coverage_unit"`
}

func (in ProductInput) validate(op string) error {
	switch {
	case !in.Category.Valid():
		return utils.EField(op, "category", "must be one of primer, wall_paint, ceiling_paint, trim_paint, floor_sealer")
	case strings.TrimSpace(in.Name) == "":
		return utils.EField(op, "name", "is required")
	case in.CostPerGallon < 0:
		return utils.EField(op, "cost_per_gallon", "must not be negative")
	case in.Coverage <= 0:
		return utils.EField(op, "coverage", "must be greater than zero")
	}
	return nil
}

type CatalogService interface {
	List(ctx context.Context, companyID string) ([]models.Product, error)
	Create(ctx context.Context, companyID string, in ProductInput) (*models.Product, error)
	Update(ctx context.Context, companyID, id string, in ProductInput) (*models.Product, error)
	Delete(ctx context.Context, companyID, id string) error
}

type catalogService struct {
	products pgrepo.ProductRepository
	cache    cache.Cache
	ttl      time.Duration
	log      *logrus.Logger
}

func NewCatalogService(products pgrepo.ProductRepository, c cache.Cache, ttl time.Duration, log *logrus.Logger) CatalogService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if log == nil {
		log = logrus.New()
	}
	return &catalogService{products: products, cache: c, ttl: ttl, log: log}
}

func (s *catalogService) List(ctx context.Context, companyID string) ([]models.Product, error) {
	const op = "CatalogService.List"

	if companyID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "company_id is required", nil)
	}

	key := cache.ProductsKey(companyID)
	if s.cache != nil {
		var cached []models.Product
		if hit, err := s.cache.GetJSON(ctx, key, &cached); err == nil && hit {
			return cached, nil
		} else if err != nil {
			s.log.WithError(err).WithField("key", key).Warn("catalog cache read failed")
		}
	}

	rows, err := s.products.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list products", err)
	}
	if rows == nil {
		rows = []models.Product{}
	}
	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, rows, s.ttl); err != nil {
			s.log.WithError(err).WithField("key", key).Warn("catalog cache write failed")
		}
	}
	return rows, nil
}

func (s *catalogService) Create(ctx context.Context, companyID string, in ProductInput) (*models.Product, error) {
	const op = "CatalogService.Create"

	if companyID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "company_id is required", nil)
	}
	if err := in.validate(op); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	p := &models.Product{ID: uuid.NewString(), CompanyID: companyID, CreatedAt: now}
	fill(p, in, now)
	if err := s.products.Create(ctx, p); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to create product", err)
	}
	s.invalidate(ctx, companyID)
	return p, nil
}

func (s *catalogService) Update(ctx context.Context, companyID, id string, in ProductInput) (*models.Product, error) {
	const op = "CatalogService.Update"

	if companyID == "" || id == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "company_id and product_id are required", nil)
	}
	if err := in.validate(op); err != nil {
		return nil, err
	}

	p, err := s.products.Get(ctx, companyID, id)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "product not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get product", err)
	}
	fill(p, in, time.Now().UTC())
	if err := s.products.Update(ctx, p); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "product not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to update product", err)
	}
	s.invalidate(ctx, companyID)
	return p, nil
}

func (s *catalogService) Delete(ctx context.Context, companyID, id string) error {
	const op = "CatalogService.Delete"

	if err := s.products.Delete(ctx, companyID, id); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return utils.E(utils.CodeNotFound, op, "product not found", err)
		}
		return utils.E(utils.CodeInternal, op, "failed to delete product", err)
	}
	s.invalidate(ctx, companyID)
	return nil
}

func (s *catalogService) invalidate(ctx context.Context, companyID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, cache.ProductsKey(companyID)); err != nil {
		s.log.WithError(err).WithField("company_id", companyID).Warn("catalog cache invalidation failed")
	}
}

func fill(p *models.Product, in ProductInput, now time.Time) {
	p.Category = in.Category
	p.ProjectType = strings.TrimSpace(in.ProjectType)
	p.Supplier = strings.TrimSpace(in.Supplier)
	p.Name = strings.TrimSpace(in.Name)
	p.CostPerGallon = in.CostPerGallon
	p.Coverage = in.Coverage
	p.CoverageUnit = in.CoverageUnit
	if p.CoverageUnit == "" {
		p.CoverageUnit = "sqft_per_gallon"
	}
	p.UpdatedAt = now
}
