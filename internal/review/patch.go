package review

import (
	"fmt"

	"github.com/brushline/quotedesk/internal/models"
	"github.com/brushline/quotedesk/internal/pricing"
	"github.com/brushline/quotedesk/internal/utils"
)

// Patch carries base inputs only; derived fields have no slot here.
type Patch struct {
	ClientName       *string                                    `json:"client_name,omitempty"`
	Address          *string                                    `json:"address,omitempty"`
	Date             *string                                    `json:"date,omitempty"`
	Rooms            *[]models.Room                             `json:"rooms,omitempty"`
	Materials        map[models.MaterialCategory]*MaterialPatch `json:"materials,omitempty"` // null removes the line
	Labor            *LaborPatch                                `json:"labor,omitempty"`
	Overhead         *OverheadPatch                             `json:"overhead,omitempty"`
	MarkupPercentage *float64                                   `json:"markup_percentage,omitempty"`
	ScopeNotes       *string                                    `json:"scope_notes,omitempty"`
	ValidityDays     *int                                       `json:"validity_days,omitempty"`
}

type MaterialPatch struct {
	Brand             *string  `json:"brand,omitempty"`
	Product           *string  `json:"product,omitempty"`
	CostPerGallon     *float64 `json:"cost_per_gallon,omitempty"`
	CoveragePerGallon *float64 `json:"coverage_per_gallon,omitempty"`
}

type LaborPatch struct {
	EstimatedHours *float64              `json:"estimated_hours,omitempty"`
	RateType       *models.LaborRateType `json:"rate_type,omitempty"`
	RateAmount     *float64              `json:"rate_amount,omitempty"`
}

type OverheadPatch struct {
	Items *[]models.OverheadItem `json:"items,omitempty"`
}

func (p Patch) apply(in models.ProjectRecord) (models.ProjectRecord, error) {
	const op = "Review.ApplyEdit"
	rec := in.Clone()

	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&rec.ClientName, p.ClientName)
	set(&rec.Address, p.Address)
	set(&rec.Date, p.Date)
	set(&rec.ScopeNotes, p.ScopeNotes)

	if p.Rooms != nil {
		rec.Rooms = append([]models.Room{}, (*p.Rooms)...)
	}

	for cat, mp := range p.Materials {
		if !cat.Valid() {
			return in, utils.EField(op, "materials."+string(cat), "unknown material category")
		}
		if mp == nil {
			delete(rec.Materials, cat)
			continue
		}
		m, ok := rec.Materials[cat]
		if !ok {
			m.CoveragePerGallon = pricing.DefaultCoverage
		}
		set(&m.Brand, mp.Brand)
		set(&m.Product, mp.Product)
		if mp.CostPerGallon != nil {
			m.CostPerGallon = *mp.CostPerGallon
		}
		if mp.CoveragePerGallon != nil {
			m.CoveragePerGallon = *mp.CoveragePerGallon
		}
		rec.Materials[cat] = m
	}

	if l := p.Labor; l != nil {
		if l.EstimatedHours != nil {
			rec.Labor.EstimatedHours = *l.EstimatedHours
		}
		if l.RateType != nil {
			rec.Labor.RateType = *l.RateType
		}
		if l.RateAmount != nil {
			rec.Labor.RateAmount = *l.RateAmount
		}
	}

	if o := p.Overhead; o != nil {
		if o.Items != nil {
			rec.Overhead.Items = append([]models.OverheadItem{}, (*o.Items)...)
		}
	}

	if p.MarkupPercentage != nil {
		rec.MarkupPercentage = *p.MarkupPercentage
	}

	if p.ValidityDays != nil {
		switch d := *p.ValidityDays; {
		case d < 0:
			return in, utils.EField(op, "validity_days", fmt.Sprintf("must not be negative, got %d", d))
		case d == 0:
			rec.ValidityDays = models.DefaultValidityDays
		default:
			rec.ValidityDays = d
		}
	}
	return rec, nil
}
