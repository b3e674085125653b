package assistant

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/brushline/quotedesk/internal/learning"
	"github.com/brushline/quotedesk/internal/models"
	"github.com/brushline/quotedesk/internal/pricing"
	"github.com/brushline/quotedesk/internal/providers/llm"
	"github.com/brushline/quotedesk/internal/review"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

var errNoJSON = errors.New("no json object in backend output")

// Extraction is the drafted record plus what still needs a human.
type Extraction struct {
	Record   models.ProjectRecord `json:"record"`
	Issues   []pricing.Issue      `json:"issues,omitempty"`
	Partial  bool                 `json:"partial"`
	Attempts int                  `json:"attempts"`
}

type Extractor struct {
	llm     llm.Provider
	timeout time.Duration
	now     func() time.Time
	log     *logrus.Logger

	// MaxTokens caps the backend answer; 0 leaves the provider default.
	MaxTokens int
}

func NewExtractor(p llm.Provider, timeout time.Duration, log *logrus.Logger) *Extractor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = logrus.New()
	}
	return &Extractor{llm: p, timeout: timeout, now: time.Now, log: log}
}

// Extract turns a transcript into a priced project record. It never fails:
// when the backend output cannot be parsed after one stricter retry, a
// partial record is built from keyword heuristics. Missing fields are left
// empty and reported in Issues.
func (e *Extractor) Extract(ctx context.Context, transcript []models.ConversationMessage, co Company) Extraction {
	var (
		payload  extractedPayload
		attempts int
		err      error = errNoJSON
	)
	if e.llm != nil {
		prompt := extractionPrompt(transcript)
		for _, system := range []string{extractionSystem, extractionSystem + "\n" + strictRetry} {
			attempts++
			payload, err = e.attempt(ctx, system, prompt)
			if err == nil {
				break
			}
			e.log.WithFields(logrus.Fields{"provider": e.llm.Name(), "company_id": co.ID, "attempt": attempts}).
				WithError(err).Warn("extraction attempt failed")
		}
	}

	partial := err != nil
	if partial {
		payload = heuristicPayload(transcript)
	}

	rec := e.build(payload, co)
	if priced, err := pricing.Recalculate(rec); err == nil {
		rec = priced
	}
	return Extraction{Record: rec, Issues: review.Issues(rec), Partial: partial, Attempts: attempts}
}

func (e *Extractor) attempt(ctx context.Context, system, prompt string) (extractedPayload, error) {
	cctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	out, err := e.llm.Complete(cctx, llm.Request{System: system, Prompt: prompt, JSON: true, MaxTokens: e.MaxTokens})
	if err != nil {
		return extractedPayload{}, err
	}
	return parsePayload(out)
}

// build applies defaults to the extracted base inputs. Derived fields are
// left to the calculator.
func (e *Extractor) build(x extractedPayload, co Company) models.ProjectRecord {
	rec := models.NewProjectRecord()
	rec.ClientName = strings.TrimSpace(x.ClientName)
	rec.Address = strings.TrimSpace(x.Address)
	rec.Date = x.Date
	if _, err := time.Parse("2006-01-02", rec.Date); err != nil {
		rec.Date = e.now().UTC().Format("2006-01-02")
	}
	rec.ScopeNotes = strings.TrimSpace(x.ScopeNotes)

	for _, r := range x.Rooms {
		rec.Rooms = append(rec.Rooms, r.toRoom())
	}

	for key, m := range x.Materials {
		cat, ok := normalizeCategory(key)
		if !ok {
			continue
		}
		rec.Materials[cat] = materialWithDefaults(cat, m, co)
	}

	rec.Labor = laborWithDefaults(x.Labor, co)

	switch {
	case x.MarkupPercentage != nil:
		rec.MarkupPercentage = *x.MarkupPercentage
	case co.Company != nil && co.Company.DefaultMarkup != nil:
		rec.MarkupPercentage = *co.Company.DefaultMarkup
	default:
		if m, ok := learning.Markup(co.Profile); ok {
			rec.MarkupPercentage = m
		}
	}

	rec.ValidityDays = co.validityDays()
	if x.ValidityDays != nil && *x.ValidityDays > 0 {
		rec.ValidityDays = *x.ValidityDays
	}

	rec.Overhead.Items = append([]models.OverheadItem(nil), x.Overhead.Items...)
	if pct := draftOverheadPercent(x.Overhead, rec.Labor, co); pct > 0 {
		if item, err := pricing.PercentageOverhead(rec, pct); err == nil {
			rec.Overhead.Items = append(rec.Overhead.Items, item)
		}
	}
	return rec
}

// draftOverheadPercent is the percentage to price into a fixed overhead item. The
// company default only applies when nothing about overhead was said and
// labor is hourly; a per-square-foot rate is quoted all-in.
func draftOverheadPercent(x extractedOverhead, labor models.Labor, co Company) float64 {
	switch {
	case x.Percentage != nil:
		return *x.Percentage
	case len(x.Items) > 0 || labor.RateType == models.RateSqft:
		return 0
	}
	return co.overheadPercent()
}

func materialWithDefaults(cat models.MaterialCategory, m extractedMaterial, co Company) models.Material {
	out := models.Material{Brand: strings.TrimSpace(m.Brand), Product: strings.TrimSpace(m.Product)}
	row, hasRow := co.catalogProduct(cat, out.Brand)

	if m.CostPerGallon != nil {
		out.CostPerGallon = *m.CostPerGallon
	} else if st, ok := learning.CostForBrand(co.Profile, out.Brand); ok {
		out.CostPerGallon = st.AverageCost
		out.Brand = lo.CoalesceOrEmpty(out.Brand, st.Brand)
		out.Product = lo.CoalesceOrEmpty(out.Product, st.Name)
	} else if hasRow {
		out.CostPerGallon = row.CostPerGallon
		out.Brand = lo.CoalesceOrEmpty(out.Brand, row.Supplier)
		out.Product = lo.CoalesceOrEmpty(out.Product, row.Name)
	}

	if !hasRow {
		row, hasRow = co.catalogProduct(cat, "")
	}
	switch {
	case m.CoveragePerGallon != nil:
		out.CoveragePerGallon = *m.CoveragePerGallon
	case hasRow && row.Coverage > 0:
		out.CoveragePerGallon = row.Coverage
	default:
		out.CoveragePerGallon = co.coverage()
	}
	return out
}

func laborWithDefaults(x extractedLabor, co Company) models.Labor {
	l := models.Labor{EstimatedHours: x.EstimatedHours, RateType: models.LaborRateType(strings.ToLower(strings.TrimSpace(x.RateType)))}
	if !l.RateType.Valid() {
		switch {
		case co.Company != nil && co.Company.DefaultLaborRateType.Valid():
			l.RateType = co.Company.DefaultLaborRateType
		case x.EstimatedHours > 0:
			l.RateType = models.RateHourly
		default:
			l.RateType = models.RateSqft
		}
	}
	if x.RateAmount != nil {
		l.RateAmount = *x.RateAmount
		return l
	}
	key := "labor_hourly"
	if l.RateType == models.RateSqft {
		key = "walls_sqft"
	}
	if v, ok := learning.Rate(co.Profile, key); ok {
		l.RateAmount = v
	} else if co.Company != nil && co.Company.DefaultLaborRateType == l.RateType {
		l.RateAmount = co.Company.DefaultLaborRate
	}
	return l
}
