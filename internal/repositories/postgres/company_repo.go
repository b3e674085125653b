package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/brushline/quotedesk/internal/models"
	"github.com/brushline/quotedesk/internal/utils"
	"gorm.io/gorm"
)

type CompanyRepository interface {
	GetByID(ctx context.Context, id string) (*models.Company, error)
	GetBySlug(ctx context.Context, slug string) (*models.Company, error)
	Create(ctx context.Context, c *models.Company) error

	ActiveAccessCodes(ctx context.Context, companyID string, now time.Time) ([]models.AccessCode, error)
	CreateAccessCode(ctx context.Context, a *models.AccessCode) error
	TouchAccessCode(ctx context.Context, id string, at time.Time) error
}

type companyRepo struct {
	db *gorm.DB
}

func NewCompanyRepo(db *gorm.DB) CompanyRepository {
	return &companyRepo{db: db}
}

func (r *companyRepo) GetByID(ctx context.Context, id string) (*models.Company, error) {
	return r.take(ctx, "id = ?", id)
}

func (r *companyRepo) GetBySlug(ctx context.Context, slug string) (*models.Company, error) {
	return r.take(ctx, "slug = ?", slug)
}

func (r *companyRepo) take(ctx context.Context, where string, arg any) (*models.Company, error) {
	var c models.Company
	err := r.db.WithContext(ctx).Where(where, arg).Take(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &c, err
}

func (r *companyRepo) Create(ctx context.Context, c *models.Company) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *companyRepo) ActiveAccessCodes(ctx context.Context, companyID string, now time.Time) ([]models.AccessCode, error) {
	var rows []models.AccessCode
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND active = ?", companyID, true).
		Where("expires_at IS NULL OR expires_at > ?", now).
		Find(&rows).Error
	return rows, err
}

func (r *companyRepo) CreateAccessCode(ctx context.Context, a *models.AccessCode) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *companyRepo) TouchAccessCode(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.AccessCode{}).
		Where("id = ?", id).
		Update("last_used_at", at).Error
}
