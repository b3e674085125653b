package models

import "time"

// Product is a rate catalog row; it supplies calculator defaults.
type Product struct {
	ID            string           `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	CompanyID     string           `gorm:"column:company_id;type:uuid;index" json:"company_id"`
	Category      MaterialCategory `gorm:"column:category;type:text" json:"category"`
	ProjectType   string           `gorm:"column:project_type;type:text" json:"project_type"` // interior|exterior|...
	Supplier      string           `gorm:"column:supplier;type:text" json:"supplier"`
	Name          string           `gorm:"column:name;type:text" json:"name"`
	CostPerGallon float64          `gorm:"column:cost_per_gallon;type:numeric" json:"cost_per_gallon"`
	Coverage      float64          `gorm:"column:coverage;type:numeric" json:"coverage"`
	CoverageUnit  string           `gorm:"column:coverage_unit;type:text" json:"coverage_unit"` // sqft_per_gallon

	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamptz" json:"updated_at"`
}

func (Product) TableName() string { return "products" }
