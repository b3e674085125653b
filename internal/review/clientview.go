package review

import (
	"fmt"
	"strings"
	"time"

	"github.com/brushline/quotedesk/internal/models"
	"github.com/brushline/quotedesk/internal/pricing"
	"github.com/samber/lo"
)

const DefaultPaymentTerms = "50% deposit due on acceptance. Remaining balance due on completion."

type ViewOptions struct {
	QuoteID      string
	CreatedAt    time.Time
	PaymentTerms string
}

// ToClientView projects a project record onto what the customer may see.
func ToClientView(p models.ProjectRecord, opts ViewOptions) models.ClientQuote {
	terms := opts.PaymentTerms
	if strings.TrimSpace(terms) == "" {
		terms = DefaultPaymentTerms
	}
	days := p.ValidityDays
	if days <= 0 {
		days = models.DefaultValidityDays
	}

	return models.ClientQuote{
		QuoteID:      opts.QuoteID,
		CustomerName: strings.TrimSpace(p.ClientName),
		Address:      strings.TrimSpace(p.Address),
		Scope:        ScopeBullets(p),
		TotalQuote:   pricing.RoundCents(p.TotalQuote),
		ValidUntil:   opts.CreatedAt.UTC().AddDate(0, 0, days).Format("2006-01-02"),
		PaymentTerms: terms,
	}
}

var categoryLabels = map[models.MaterialCategory]string{
	models.MaterialPrimer:       "Primer",
	models.MaterialWallPaint:    "Wall paint",
	models.MaterialCeilingPaint: "Ceiling paint",
	models.MaterialTrimPaint:    "Trim paint",
	models.MaterialFloorSealer:  "Floor sealer",
}

// ScopeBullets describes the work from non-zero room and material fields.
func ScopeBullets(p models.ProjectRecord) []string {
	bullets := []string{}
	for i, r := range p.Rooms {
		var parts []string
		if r.WallSqft > 0 {
			parts = append(parts, fmt.Sprintf("walls (%s sq ft)", qty(r.WallSqft)))
		}
		if r.CeilingSqft > 0 {
			parts = append(parts, fmt.Sprintf("ceiling (%s sq ft)", qty(r.CeilingSqft)))
		}
		if r.FloorSqft > 0 {
			parts = append(parts, fmt.Sprintf("floor (%s sq ft)", qty(r.FloorSqft)))
		}
		if r.TrimLinearFeet > 0 {
			parts = append(parts, fmt.Sprintf("trim (%s linear ft)", qty(r.TrimLinearFeet)))
		}
		if r.DoorsCount > 0 {
			parts = append(parts, plural(r.DoorsCount, "door"))
		}
		if r.WindowsCount > 0 {
			parts = append(parts, plural(r.WindowsCount, "window"))
		}
		if len(parts) == 0 {
			continue
		}
		name := strings.TrimSpace(r.Name)
		if name == "" {
			name = fmt.Sprintf("Area %d", i+1)
		}
		bullets = append(bullets, name+": "+strings.Join(parts, ", "))
	}

	for _, cat := range models.MaterialCategories {
		m, ok := p.Materials[cat]
		if !ok || m.Gallons <= 0 {
			continue
		}
		product := strings.TrimSpace(strings.Join(lo.Compact([]string{m.Brand, m.Product}), " "))
		if product == "" {
			product = "contractor-selected product"
		}
		bullets = append(bullets, categoryLabels[cat]+": "+product)
	}
	return bullets
}

func qty(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.1f", v)
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
