package models

import (
	"time"

	"gorm.io/datatypes"
)

type QuoteStatus string

const (
	QuoteInternalReview QuoteStatus = "internal_review"
	QuoteApproved       QuoteStatus = "approved"
	QuoteSuperseded     QuoteStatus = "superseded"
)

// Quote is one revision of a project record. Approved revisions are frozen;
// edits go to a new revision.
type Quote struct {
	ID        string  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	CompanyID string  `gorm:"column:company_id;type:uuid;index" json:"company_id"`
	SessionID string  `gorm:"column:session_id;type:uuid;index" json:"session_id"`
	ParentID  *string `gorm:"column:parent_id;type:uuid" json:"parent_id,omitempty"`
	Revision  int     `gorm:"column:revision;type:integer" json:"revision"`
	Version   int     `gorm:"column:version;type:integer" json:"version"`

	Status QuoteStatus                       `gorm:"column:status;type:text;index" json:"status"`
	Record datatypes.JSONType[ProjectRecord] `gorm:"column:record;type:jsonb" json:"record"`

	// Denormalized for listings.
	ClientName string  `gorm:"column:client_name;type:text" json:"client_name"`
	TotalQuote float64 `gorm:"column:total_quote;type:numeric" json:"total_quote"`

	ClientView datatypes.JSON `gorm:"column:client_view;type:jsonb" json:"client_view,omitempty"`
	PublicURL  string         `gorm:"column:public_url;type:text" json:"public_url,omitempty"`

	ApprovedAt *time.Time `gorm:"column:approved_at;type:timestamptz" json:"approved_at,omitempty"`
	CreatedAt  time.Time  `gorm:"column:created_at;type:timestamptz" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;type:timestamptz" json:"updated_at"`
}

func (Quote) TableName() string { return "quotes" }

// ClientQuote is the cost-opaque view shown to the customer. It has no
// fields for itemized costs, by construction.
type ClientQuote struct {
	QuoteID      string   `json:"quote_id"`
	CustomerName string   `json:"customer_name"`
	Address      string   `json:"address"`
	Scope        []string `json:"scope"`
	TotalQuote   float64  `json:"total_quote"`
	ValidUntil   string   `json:"valid_until"`
	PaymentTerms string   `json:"payment_terms"`
}
