package models

import "time"

type Company struct {
	ID   string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name string `gorm:"column:name;type:text" json:"name"`
	Slug string `gorm:"column:slug;type:text;uniqueIndex" json:"slug"`

	DefaultLaborRate     float64       `gorm:"column:default_labor_rate;type:numeric" json:"default_labor_rate"`
	DefaultLaborRateType LaborRateType `gorm:"column:default_labor_rate_type;type:text" json:"default_labor_rate_type"`
	DefaultMarkup        *float64      `gorm:"column:default_markup;type:numeric" json:"default_markup,omitempty"`
	PaymentTerms         string        `gorm:"column:payment_terms;type:text" json:"payment_terms,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz" json:"created_at"`
}

func (Company) TableName() string { return "companies" }

// AccessCode grants a role inside one company. Only the bcrypt hash is stored.
type AccessCode struct {
	ID        string   `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	CompanyID string   `gorm:"column:company_id;type:uuid;index" json:"company_id"`
	CodeHash  string   `gorm:"column:code_hash;type:text" json:"-"`
	Role      UserRole `gorm:"column:role;type:text" json:"role"`
	Label     string   `gorm:"column:label;type:text" json:"label"`
	Active    bool     `gorm:"column:active;type:boolean" json:"active"`

	ExpiresAt  *time.Time `gorm:"column:expires_at;type:timestamptz" json:"expires_at,omitempty"`
	LastUsedAt *time.Time `gorm:"column:last_used_at;type:timestamptz" json:"last_used_at,omitempty"`
	CreatedAt  time.Time  `gorm:"column:created_at;type:timestamptz" json:"created_at"`
}

func (AccessCode) TableName() string { return "access_codes" }
