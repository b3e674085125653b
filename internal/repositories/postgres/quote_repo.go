package postgres

import (
	"context"
	"errors"

	"github.com/brushline/quotedesk/internal/models"
	"github.com/brushline/quotedesk/internal/utils"
	"gorm.io/gorm"
)

type QuoteRepository interface {
	Create(ctx context.Context, q *models.Quote) error
	Get(ctx context.Context, companyID, id string) (*models.Quote, error)
	// GetApproved looks a quote up by id alone, for the public link.
	GetApproved(ctx context.Context, id string) (*models.Quote, error)
	// Update writes q if the stored version still equals expectedVersion and
	// bumps q.Version.
	Update(ctx context.Context, q *models.Quote, expectedVersion int) error
	// SetPublicURL records where an approved snapshot was published. It does
	// not bump the version and only applies while version is unchanged.
	SetPublicURL(ctx context.Context, companyID, id string, version int, url string) error
	// CreateRevision supersedes parent and inserts child atomically.
	CreateRevision(ctx context.Context, parent *models.Quote, expectedVersion int, child *models.Quote) error
	ListByCompany(ctx context.Context, companyID string, status models.QuoteStatus, limit int) ([]models.Quote, error)
}

type quoteRepo struct {
	db *gorm.DB
}

func NewQuoteRepo(db *gorm.DB) QuoteRepository {
	return &quoteRepo{db: db}
}

func (r *quoteRepo) Create(ctx context.Context, q *models.Quote) error {
	return r.db.WithContext(ctx).Create(q).Error
}

func (r *quoteRepo) Get(ctx context.Context, companyID, id string) (*models.Quote, error) {
	var q models.Quote
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND id = ?", companyID, id).
		Take(&q).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &q, err
}

func (r *quoteRepo) GetApproved(ctx context.Context, id string) (*models.Quote, error) {
	var q models.Quote
	err := r.db.WithContext(ctx).
		Where("id = ? AND status IN ?", id, []models.QuoteStatus{models.QuoteApproved, models.QuoteSuperseded}).
		Where("client_view IS NOT NULL").
		Take(&q).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &q, err
}

func (r *quoteRepo) Update(ctx context.Context, q *models.Quote, expectedVersion int) error {
	return casUpdate(r.db.WithContext(ctx), q, expectedVersion)
}

func (r *quoteRepo) SetPublicURL(ctx context.Context, companyID, id string, version int, url string) error {
	res := r.db.WithContext(ctx).Model(&models.Quote{}).
		Where("id = ? AND company_id = ? AND version = ?", id, companyID, version).
		Update("public_url", url)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrStaleVersion
	}
	return nil
}

func (r *quoteRepo) CreateRevision(ctx context.Context, parent *models.Quote, expectedVersion int, child *models.Quote) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := casUpdate(tx, parent, expectedVersion); err != nil {
			return err
		}
		return tx.Create(child).Error
	})
}

func casUpdate(db *gorm.DB, q *models.Quote, expectedVersion int) error {
	res := db.Model(&models.Quote{}).
		Where("id = ? AND company_id = ? AND version = ?", q.ID, q.CompanyID, expectedVersion).
		Updates(map[string]any{
			"status":      q.Status,
			"record":      q.Record,
			"client_name": q.ClientName,
			"total_quote": q.TotalQuote,
			"client_view": q.ClientView,
			"public_url":  q.PublicURL,
			"approved_at": q.ApprovedAt,
			"updated_at":  q.UpdatedAt,
			"version":     expectedVersion + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var n int64
		if err := db.Model(&models.Quote{}).Where("id = ? AND company_id = ?", q.ID, q.CompanyID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return utils.ErrNotFound
		}
		return utils.ErrStaleVersion
	}
	q.Version = expectedVersion + 1
	return nil
}

func (r *quoteRepo) ListByCompany(ctx context.Context, companyID string, status models.QuoteStatus, limit int) ([]models.Quote, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	db := r.db.WithContext(ctx).
		Omit("record", "client_view").
		Where("company_id = ?", companyID)
	if status != "" {
		db = db.Where("status = ?", status)
	}
	var rows []models.Quote
	err := db.Order("created_at DESC").Limit(limit).Find(&rows).Error
	return rows, err
}
