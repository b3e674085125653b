package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProductSignal struct {
	Name          string  `bson:"name" json:"name"`
	Brand         string  `bson:"brand,omitempty" json:"brand,omitempty"`
	CostPerGallon float64 `bson:"cost_per_gallon,omitempty" json:"cost_per_gallon,omitempty"`
}

// LearningData is what one conversation reveals. Rates are keyed by surface
// ("walls", "ceilings", "trim", "general") suffixed with the unit.
type LearningData struct {
	Brands           []string           `bson:"brands,omitempty" json:"brands,omitempty"`
	Products         []ProductSignal    `bson:"products,omitempty" json:"products,omitempty"`
	Rates            map[string]float64 `bson:"rates,omitempty" json:"rates,omitempty"`
	MarkupPercentage *float64           `bson:"markup_percentage,omitempty" json:"markup_percentage,omitempty"`
	ProjectTypes     []string           `bson:"project_types,omitempty" json:"project_types,omitempty"`
	Timelines        []string           `bson:"timelines,omitempty" json:"timelines,omitempty"`
}

// Empty reports whether nothing was found.
func (d LearningData) Empty() bool {
	return len(d.Brands) == 0 && len(d.Products) == 0 && len(d.Rates) == 0 &&
		d.MarkupPercentage == nil && len(d.ProjectTypes) == 0 && len(d.Timelines) == 0
}

// LearningSignal is the audit trail of one learning job; it expires via TTL.
type LearningSignal struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	JobID     string             `bson:"job_id" json:"job_id"`
	CompanyID string             `bson:"company_id" json:"company_id"`
	SessionID string             `bson:"session_id" json:"session_id"`

	Status string       `bson:"status" json:"status"` // pending|done|failed
	Data   LearningData `bson:"data" json:"data"`
	Error  string       `bson:"error,omitempty" json:"error,omitempty"`

	ProcessingTimeMS int64     `bson:"processing_time_ms,omitempty" json:"processing_time_ms,omitempty"`
	Timestamp        time.Time `bson:"timestamp" json:"timestamp"`

	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"` // for TTL index
}
