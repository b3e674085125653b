package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

type ProductStat struct {
	Name        string  `json:"name"`
	Brand       string  `json:"brand,omitempty"`
	Frequency   int     `json:"frequency"`
	AverageCost float64 `json:"average_cost"`
	CostSamples int     `json:"cost_samples"`
}

// RateStat is a running average with its sample count.
type RateStat struct {
	Average float64 `json:"average"`
	Samples int     `json:"samples"`
}

// LearningProfile aggregates what a company's conversations reveal about its
// pricing habits.
type LearningProfile struct {
	CompanyID string `gorm:"column:company_id;type:uuid;primaryKey" json:"company_id"`

	PreferredBrands    pq.StringArray                          `gorm:"column:preferred_brands;type:text[]" json:"preferred_brands"`
	PreferredProducts  datatypes.JSONType[[]ProductStat]       `gorm:"column:preferred_products;type:jsonb" json:"preferred_products"`
	AverageRates       datatypes.JSONType[map[string]RateStat] `gorm:"column:average_rates;type:jsonb" json:"average_rates"`
	CommonProjectTypes pq.StringArray                          `gorm:"column:common_project_types;type:text[]" json:"common_project_types"`
	Timelines          datatypes.JSONType[map[string]int]      `gorm:"column:timelines;type:jsonb" json:"timelines"`

	PreferredMarkup float64 `gorm:"column:preferred_markup;type:numeric" json:"preferred_markup"`
	MarkupSamples   int     `gorm:"column:markup_samples;type:integer" json:"markup_samples"`

	QuotesAnalyzed  int     `gorm:"column:quotes_analyzed;type:integer" json:"quotes_analyzed"`
	ConfidenceScore float64 `gorm:"column:confidence_score;type:numeric" json:"confidence_score"`

	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamptz" json:"updated_at"`
}

func (LearningProfile) TableName() string { return "learning_profiles" }

// NewLearningProfile is the profile a company starts with.
func NewLearningProfile(companyID string) *LearningProfile {
	return &LearningProfile{
		CompanyID:          companyID,
		PreferredBrands:    pq.StringArray{},
		PreferredProducts:  datatypes.NewJSONType([]ProductStat{}),
		AverageRates:       datatypes.NewJSONType(map[string]RateStat{}),
		CommonProjectTypes: pq.StringArray{},
		Timelines:          datatypes.NewJSONType(map[string]int{}),
	}
}
