// Package pricing holds the quote arithmetic. Everything here is a pure
// function of its inputs; derived money fields are never edited directly.
package pricing

import (
	"fmt"
	"math"
	"sort"

	"github.com/brushline/quotedesk/internal/models"
	"github.com/samber/lo"
)

const (
	// DefaultCoverage is square feet painted per gallon when nothing is stated.
	DefaultCoverage = 350.0
	// DefaultOverheadPercentage applies when the conversation never mentions overhead.
	DefaultOverheadPercentage = 10.0
	// TrimWidthFeet converts trim linear feet into paintable area.
	TrimWidthFeet = 0.5
)

// BaseQuantities are the measured surfaces of a job.
type BaseQuantities struct {
	WallSqft       float64
	CeilingSqft    float64
	FloorSqft      float64
	TrimLinearFeet float64
	Doors          int
	Windows        int
	EstimatedHours float64
}

type MaterialRate struct {
	Brand             string
	Product           string
	CostPerGallon     float64
	CoveragePerGallon float64
}

type Rates struct {
	Materials        map[models.MaterialCategory]MaterialRate
	LaborRateType    models.LaborRateType
	LaborRate        float64
	MarkupPercentage float64
	OverheadItems    []models.OverheadItem
}

type MaterialLine struct {
	Category          models.MaterialCategory
	Brand             string
	Product           string
	Sqft              float64
	Gallons           float64
	CostPerGallon     float64
	CoveragePerGallon float64
	TotalCost         float64
}

// CostBreakdown keeps full precision; round with RoundCents for display.
type CostBreakdown struct {
	Materials        []MaterialLine
	MaterialCost     float64
	LaborSqft        float64
	LaborCost        float64
	OverheadTotal    float64
	Subtotal         float64
	MarkupPercentage float64
	MarkupAmount     float64
	Total            float64
}

// SurfaceSqft is the area a material category covers.
func (b BaseQuantities) SurfaceSqft(c models.MaterialCategory) float64 {
	switch c {
	case models.MaterialPrimer:
		return b.WallSqft + b.CeilingSqft
	case models.MaterialWallPaint:
		return b.WallSqft
	case models.MaterialCeilingPaint:
		return b.CeilingSqft
	case models.MaterialTrimPaint:
		return b.TrimLinearFeet * TrimWidthFeet
	case models.MaterialFloorSealer:
		return b.FloorSqft
	}
	return 0
}

// LaborSqft is the painted area billed under a per-square-foot rate.
func (b BaseQuantities) LaborSqft() float64 {
	return b.WallSqft + b.CeilingSqft + b.FloorSqft
}

// Calculate derives every cost figure from base quantities and rates.
func Calculate(base BaseQuantities, rates Rates) (CostBreakdown, error) {
	if issues := Check(base, rates); len(issues) > 0 {
		return CostBreakdown{}, issues[0].Err("Pricing.Calculate")
	}

	var out CostBreakdown
	for _, cat := range sortedCategories(rates.Materials) {
		r := rates.Materials[cat]
		sqft := base.SurfaceSqft(cat)
		gallons := 0.0
		if sqft > 0 {
			gallons = math.Ceil(sqft / r.CoveragePerGallon)
		}
		line := MaterialLine{
			Category:          cat,
			Brand:             r.Brand,
			Product:           r.Product,
			Sqft:              sqft,
			Gallons:           gallons,
			CostPerGallon:     r.CostPerGallon,
			CoveragePerGallon: r.CoveragePerGallon,
			TotalCost:         gallons * r.CostPerGallon,
		}
		out.Materials = append(out.Materials, line)
		out.MaterialCost += line.TotalCost
	}

	out.LaborSqft = base.LaborSqft()
	switch rates.LaborRateType {
	case models.RateSqft:
		out.LaborCost = out.LaborSqft * rates.LaborRate
	default:
		out.LaborCost = base.EstimatedHours * rates.LaborRate
	}

	out.OverheadTotal = lo.SumBy(rates.OverheadItems, func(it models.OverheadItem) float64 { return it.Amount })

	out.Subtotal = out.MaterialCost + out.LaborCost + out.OverheadTotal
	out.MarkupPercentage = rates.MarkupPercentage
	out.MarkupAmount = RoundCents(out.Subtotal * rates.MarkupPercentage / 100)
	out.Total = out.Subtotal + out.MarkupAmount
	return out, nil
}

// PercentageOverhead prices pct of the record's current materials and labor
// as a fixed overhead item. Later edits to the record do not rescale it.
func PercentageOverhead(p models.ProjectRecord, pct float64) (models.OverheadItem, error) {
	if math.IsNaN(pct) || math.IsInf(pct, 0) || pct < 0 {
		return models.OverheadItem{}, Issue{Field: "overhead.percentage", Message: "must not be negative"}.Err("Pricing.PercentageOverhead")
	}
	base, rates := FromRecord(p)
	rates.OverheadItems = nil
	b, err := Calculate(base, rates)
	if err != nil {
		return models.OverheadItem{}, err
	}
	return models.OverheadItem{
		Description: fmt.Sprintf("Overhead (%g%%)", pct),
		Amount:      RoundCents((b.MaterialCost + b.LaborCost) * pct / 100),
	}, nil
}

// RoundCents rounds half away from zero to the nearest cent.
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

func sortedCategories(m map[models.MaterialCategory]MaterialRate) []models.MaterialCategory {
	order := make(map[models.MaterialCategory]int, len(models.MaterialCategories))
	for i, c := range models.MaterialCategories {
		order[c] = i
	}
	keys := lo.Keys(m)
	sort.Slice(keys, func(i, j int) bool { return order[keys[i]] < order[keys[j]] })
	return keys
}
