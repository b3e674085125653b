package pricing

import (
	"fmt"
	"sort"

	"github.com/brushline/quotedesk/internal/models"
	"github.com/samber/lo"
)

// FromRecord reads the base inputs back out of a project record.
func FromRecord(p models.ProjectRecord) (BaseQuantities, Rates) {
	base := BaseQuantities{
		WallSqft:       lo.SumBy(p.Rooms, func(r models.Room) float64 { return r.WallSqft }),
		CeilingSqft:    lo.SumBy(p.Rooms, func(r models.Room) float64 { return r.CeilingSqft }),
		FloorSqft:      lo.SumBy(p.Rooms, func(r models.Room) float64 { return r.FloorSqft }),
		TrimLinearFeet: lo.SumBy(p.Rooms, func(r models.Room) float64 { return r.TrimLinearFeet }),
		Doors:          lo.SumBy(p.Rooms, func(r models.Room) int { return r.DoorsCount }),
		Windows:        lo.SumBy(p.Rooms, func(r models.Room) int { return r.WindowsCount }),
		EstimatedHours: p.Labor.EstimatedHours,
	}

	rates := Rates{
		Materials:        make(map[models.MaterialCategory]MaterialRate, len(p.Materials)),
		LaborRateType:    p.Labor.RateType,
		LaborRate:        p.Labor.RateAmount,
		MarkupPercentage: p.MarkupPercentage,
		OverheadItems:    p.Overhead.Items,
	}
	for cat, m := range p.Materials {
		rates.Materials[cat] = MaterialRate{
			Brand:             m.Brand,
			Product:           m.Product,
			CostPerGallon:     m.CostPerGallon,
			CoveragePerGallon: m.CoveragePerGallon,
		}
	}
	return base, rates
}

// Apply writes a breakdown's derived fields onto a copy of the record.
func Apply(p models.ProjectRecord, b CostBreakdown) models.ProjectRecord {
	out := p.Clone()
	for _, line := range b.Materials {
		m := out.Materials[line.Category]
		m.Gallons = line.Gallons
		m.TotalCost = line.TotalCost
		out.Materials[line.Category] = m
	}
	out.Labor.TotalLaborCost = b.LaborCost
	out.Overhead.Total = b.OverheadTotal
	out.Subtotal = b.Subtotal
	out.MarkupAmount = b.MarkupAmount
	out.TotalQuote = b.Total
	return out
}

// Recalculate recomputes every derived field of the record from its base
// inputs. On invalid input the record is returned unchanged with the error.
func Recalculate(p models.ProjectRecord) (models.ProjectRecord, error) {
	if issues := Issues(p); len(issues) > 0 {
		return p, issues[0].Err("Pricing.Recalculate")
	}
	base, rates := FromRecord(p)
	b, err := Calculate(base, rates)
	if err != nil {
		return p, err
	}
	return Apply(p, b), nil
}

// Issues lists invalid inputs of a record without computing anything.
func Issues(p models.ProjectRecord) []Issue {
	var issues []Issue
	for i, r := range p.Rooms {
		for field, v := range map[string]float64{
			"wall_sqft":        r.WallSqft,
			"ceiling_sqft":     r.CeilingSqft,
			"floor_sqft":       r.FloorSqft,
			"trim_linear_feet": r.TrimLinearFeet,
			"doors_count":      float64(r.DoorsCount),
			"windows_count":    float64(r.WindowsCount),
		} {
			if v < 0 {
				issues = append(issues, Issue{Field: fmt.Sprintf("rooms[%d].%s", i, field), Message: "must not be negative"})
			}
		}
	}
	sort.SliceStable(issues, func(i, j int) bool { return issues[i].Field < issues[j].Field })

	base, rates := FromRecord(p)
	return append(issues, Check(base, rates)...)
}
