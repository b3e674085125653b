// Package assistant runs the two language-backed stages of a quote: the
// intake conversation and the structured extraction of a project record.
package assistant

import (
	"strings"

	"github.com/brushline/quotedesk/internal/models"
	"github.com/brushline/quotedesk/internal/pricing"
)

// Company is everything the stages know about the contractor. It is passed
// explicitly on every call; nothing is cached between requests.
type Company struct {
	ID      string
	Name    string
	Company *models.Company
	Catalog []models.Product
	Profile *models.LearningProfile

	DefaultCoverage        float64
	DefaultOverheadPercent float64
	DefaultValidityDays    int
}

func (c Company) coverage() float64 {
	if c.DefaultCoverage > 0 {
		return c.DefaultCoverage
	}
	return pricing.DefaultCoverage
}

func (c Company) overheadPercent() float64 {
	if c.DefaultOverheadPercent > 0 {
		return c.DefaultOverheadPercent
	}
	return pricing.DefaultOverheadPercentage
}

func (c Company) validityDays() int {
	if c.DefaultValidityDays > 0 {
		return c.DefaultValidityDays
	}
	return models.DefaultValidityDays
}

// catalogProduct finds the best catalog row for a category, preferring one
// whose supplier or name matches the brand.
func (c Company) catalogProduct(cat models.MaterialCategory, brand string) (models.Product, bool) {
	var fallback *models.Product
	for i := range c.Catalog {
		p := c.Catalog[i]
		if p.Category != cat {
			continue
		}
		if brand != "" && (strings.EqualFold(p.Supplier, brand) || strings.Contains(strings.ToLower(p.Name), strings.ToLower(brand))) {
			return p, true
		}
		if fallback == nil {
			fallback = &c.Catalog[i]
		}
	}
	if fallback != nil && brand == "" {
		return *fallback, true
	}
	return models.Product{}, false
}
