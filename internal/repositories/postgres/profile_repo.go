package postgres

import (
	"context"
	"errors"

	"github.com/brushline/quotedesk/internal/models"
	"github.com/brushline/quotedesk/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LearningProfileRepository interface {
	Get(ctx context.Context, companyID string) (*models.LearningProfile, error)
	Upsert(ctx context.Context, p *models.LearningProfile) error
	// Modify reads the profile under a row lock (or a fresh one), applies fn
	// and stores the result.
	Modify(ctx context.Context, companyID string, fn func(*models.LearningProfile) *models.LearningProfile) (*models.LearningProfile, error)
}

type learningProfileRepo struct {
	db *gorm.DB
}

func NewLearningProfileRepo(db *gorm.DB) LearningProfileRepository {
	return &learningProfileRepo{db: db}
}

func (r *learningProfileRepo) Get(ctx context.Context, companyID string) (*models.LearningProfile, error) {
	var p models.LearningProfile
	err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &p, err
}

func (r *learningProfileRepo) Upsert(ctx context.Context, p *models.LearningProfile) error {
	return upsertProfile(r.db.WithContext(ctx), p)
}

func (r *learningProfileRepo) Modify(ctx context.Context, companyID string, fn func(*models.LearningProfile) *models.LearningProfile) (*models.LearningProfile, error) {
	var out *models.LearningProfile
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cur models.LearningProfile
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("company_id = ?", companyID).
			Take(&cur).Error
		in := &cur
		if errors.Is(err, gorm.ErrRecordNotFound) {
			in = models.NewLearningProfile(companyID)
		} else if err != nil {
			return err
		}
		out = fn(in)
		return upsertProfile(tx, out)
	})
	return out, err
}

func upsertProfile(db *gorm.DB, p *models.LearningProfile) error {
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "company_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"preferred_brands", "preferred_products", "average_rates", "common_project_types", "timelines",
			"preferred_markup", "markup_samples", "quotes_analyzed", "confidence_score", "updated_at",
		}),
	}).Create(p).Error
}
