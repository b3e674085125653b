package learning

import (
	"strings"

	"github.com/brushline/quotedesk/internal/models"
)

// MinSamples is how many observations a learned value needs before it is
// used as a default.
const MinSamples = 1

// Markup returns the learned markup percentage.
func Markup(p *models.LearningProfile) (float64, bool) {
	if p == nil || p.MarkupSamples < MinSamples {
		return 0, false
	}
	return p.PreferredMarkup, true
}

// CostForBrand returns the average per-gallon cost of the most frequent
// product of a brand. An empty brand matches the most frequent priced product.
func CostForBrand(p *models.LearningProfile, brand string) (models.ProductStat, bool) {
	if p == nil {
		return models.ProductStat{}, false
	}
	for _, st := range p.PreferredProducts.Data() {
		if st.CostSamples < MinSamples {
			continue
		}
		if brand == "" || strings.EqualFold(st.Brand, brand) {
			return st, true
		}
	}
	return models.ProductStat{}, false
}

// Rate returns a learned rate by key, ex: "walls_sqft" or "labor_hourly".
func Rate(p *models.LearningProfile, key string) (float64, bool) {
	if p == nil {
		return 0, false
	}
	st, ok := p.AverageRates.Data()[key]
	if !ok || st.Samples < MinSamples {
		return 0, false
	}
	return st.Average, true
}
