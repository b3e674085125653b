package pricing

import (
	"fmt"
	"math"

	"github.com/brushline/quotedesk/internal/utils"
)

// Issue is one invalid input, addressed by its project record field path.
type Issue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (i Issue) Err(op string) error { return utils.EField(op, i.Field, i.Message) }

// Check lists every input that would make the arithmetic meaningless.
func Check(base BaseQuantities, rates Rates) []Issue {
	var issues []Issue
	nonNeg := func(field string, v float64) {
		switch {
		case math.IsNaN(v) || math.IsInf(v, 0):
			issues = append(issues, Issue{Field: field, Message: "must be a finite number"})
		case v < 0:
			issues = append(issues, Issue{Field: field, Message: "must not be negative"})
		}
	}

	nonNeg("rooms.wall_sqft", base.WallSqft)
	nonNeg("rooms.ceiling_sqft", base.CeilingSqft)
	nonNeg("rooms.floor_sqft", base.FloorSqft)
	nonNeg("rooms.trim_linear_feet", base.TrimLinearFeet)
	nonNeg("rooms.doors_count", float64(base.Doors))
	nonNeg("rooms.windows_count", float64(base.Windows))
	nonNeg("labor.estimated_hours", base.EstimatedHours)

	for _, cat := range sortedCategories(rates.Materials) {
		r := rates.Materials[cat]
		prefix := fmt.Sprintf("materials.%s.", cat)
		if !cat.Valid() {
			issues = append(issues, Issue{Field: "materials." + string(cat), Message: "unknown material category"})
			continue
		}
		nonNeg(prefix+"cost_per_gallon", r.CostPerGallon)
		if math.IsNaN(r.CoveragePerGallon) || math.IsInf(r.CoveragePerGallon, 0) || r.CoveragePerGallon <= 0 {
			issues = append(issues, Issue{Field: prefix + "coverage_per_gallon", Message: "coverage per gallon must be greater than zero"})
		}
	}

	if !rates.LaborRateType.Valid() {
		issues = append(issues, Issue{Field: "labor.rate_type", Message: "rate type must be hourly or sqft"})
	}
	nonNeg("labor.rate_amount", rates.LaborRate)
	nonNeg("markup_percentage", rates.MarkupPercentage)
	for i, it := range rates.OverheadItems {
		nonNeg(fmt.Sprintf("overhead.items[%d].amount", i), it.Amount)
	}
	return issues
}
