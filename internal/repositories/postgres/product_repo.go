package postgres

import (
	"context"
	"errors"

	"github.com/brushline/quotedesk/internal/models"
	"github.com/brushline/quotedesk/internal/utils"
	"gorm.io/gorm"
)

type ProductRepository interface {
	ListByCompany(ctx context.Context, companyID string) ([]models.Product, error)
	Get(ctx context.Context, companyID, id string) (*models.Product, error)
	Create(ctx context.Context, p *models.Product) error
	Update(ctx context.Context, p *models.Product) error
	Delete(ctx context.Context, companyID, id string) error
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db: db}
}

func (r *productRepo) ListByCompany(ctx context.Context, companyID string) ([]models.Product, error) {
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("category ASC, name ASC").
		Find(&rows).Error
	return rows, err
}

func (r *productRepo) Get(ctx context.Context, companyID, id string) (*models.Product, error) {
	var p models.Product
	err := r.db.WithContext(ctx).Where("company_id = ? AND id = ?", companyID, id).Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &p, err
}

func (r *productRepo) Create(ctx context.Context, p *models.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *productRepo) Update(ctx context.Context, p *models.Product) error {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("company_id = ? AND id = ?", p.CompanyID, p.ID).
		Updates(map[string]any{
			"category":        p.Category,
			"project_type":    p.ProjectType,
			"supplier":        p.Supplier,
			"name":            p.Name,
			"cost_per_gallon": p.CostPerGallon,
			"coverage":        p.Coverage,
			"coverage_unit":   p.CoverageUnit,
			"updated_at":      p.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (r *productRepo) Delete(ctx context.Context, companyID, id string) error {
	res := r.db.WithContext(ctx).Where("company_id = ? AND id = ?", companyID, id).Delete(&models.Product{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}
