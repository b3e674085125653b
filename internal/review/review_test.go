package review

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/brushline/quotedesk/internal/models"
	"github.com/brushline/quotedesk/internal/pricing"
	"github.com/brushline/quotedesk/internal/utils"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

var created = time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)

func sampleRecord(t *testing.T) models.ProjectRecord {
	t.Helper()
	p := models.NewProjectRecord()
	p.ClientName = "Cici"
	p.Address = "9090 Hillside Drive"
	p.Rooms = []models.Room{
		{Name: "Living Room", WallSqft: 4500},
		{Name: "Hall closet"},
		{Name: "Bedroom", CeilingSqft: 120, DoorsCount: 1, WindowsCount: 2, TrimLinearFeet: 48.5},
	}
	p.Materials[models.MaterialWallPaint] = models.Material{Brand: "Sherwin Williams", Product: "Eggshell", CostPerGallon: 50, CoveragePerGallon: 350}
	p.Materials[models.MaterialCeilingPaint] = models.Material{Brand: "Behr", CostPerGallon: 30, CoveragePerGallon: 400}
	p.Materials[models.MaterialFloorSealer] = models.Material{Brand: "Rust-Oleum", CostPerGallon: 70, CoveragePerGallon: 300}
	p.Labor = models.Labor{RateType: models.RateSqft, RateAmount: 1.5}
	p.Overhead = models.Overhead{Items: []models.OverheadItem{{Description: "Masking", Amount: 40}, {Description: "Overhead (5%)", Amount: 487.5}}}
	p.MarkupPercentage = 20
	p.ScopeNotes = "Overhead lights to be removed by client"

	out, err := pricing.Recalculate(p)
	require.NoError(t, err)
	return out
}

func internalQuote(t *testing.T) models.Quote {
	rec := sampleRecord(t)
	return models.Quote{
		ID:        "6b1b6a4e-0c5e-4b8e-9d8e-2f7f6a1b2c3d",
		CompanyID: "c-1",
		SessionID: "s-1",
		Revision:  1,
		Version:   1,
		Status:    models.QuoteInternalReview,
		Record:    datatypes.NewJSONType(rec),
		CreatedAt: created,
	}
}

func TestToClientView_HidesInternalFields(t *testing.T) {
	view := ToClientView(sampleRecord(t), ViewOptions{QuoteID: "q-1", CreatedAt: created})
	raw, err := json.Marshal(view)
	require.NoError(t, err)

	lower := strings.ToLower(string(raw))
	for _, forbidden := range []string{"markup", "cost_per_gallon", "labor_cost", "overhead", "subtotal", "total_cost"} {
		assert.NotContains(t, lower, forbidden)
	}

	var keys map[string]any
	require.NoError(t, json.Unmarshal(raw, &keys))
	assert.ElementsMatch(t,
		[]string{"quote_id", "customer_name", "address", "scope", "total_quote", "valid_until", "payment_terms"},
		lo.Keys(keys))
}

func TestToClientView_Fields(t *testing.T) {
	rec := sampleRecord(t)
	view := ToClientView(rec, ViewOptions{QuoteID: "q-1", CreatedAt: created})

	assert.Equal(t, "q-1", view.QuoteID)
	assert.Equal(t, "Cici", view.CustomerName)
	assert.Equal(t, "9090 Hillside Drive", view.Address)
	assert.Equal(t, pricing.RoundCents(rec.TotalQuote), view.TotalQuote)
	assert.Equal(t, "2026-04-01", view.ValidUntil)
	assert.Equal(t, DefaultPaymentTerms, view.PaymentTerms)

	assert.Equal(t, []string{
		"Living Room: walls (4500 sq ft)",
		"Bedroom: ceiling (120 sq ft), trim (48.5 linear ft), 1 door, 2 windows",
		"Wall paint: Sherwin Williams Eggshell",
		"Ceiling paint: Behr",
	}, view.Scope)
}

func TestToClientView_Idempotent(t *testing.T) {
	rec := sampleRecord(t)
	opts := ViewOptions{QuoteID: "q-1", CreatedAt: created, PaymentTerms: "Net 15"}
	a := ToClientView(rec, opts)
	b := ToClientView(rec, opts)
	assert.Equal(t, a, b)
	assert.Equal(t, "Net 15", a.PaymentTerms)
}

func TestTransitions(t *testing.T) {
	assert.NoError(t, Transition(models.SessionCollecting, models.SessionReady))
	assert.NoError(t, Transition(models.SessionReady, models.SessionInternalReview))
	assert.NoError(t, Transition(models.SessionInternalReview, models.SessionApproved))
	assert.NoError(t, Transition(models.SessionApproved, models.SessionInternalReview))

	err := Transition(models.SessionCollecting, models.SessionApproved)
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeConflict))
	assert.False(t, CanTransition(models.SessionReady, models.SessionCollecting))
}

func TestApplyEdit_RecalculatesEverything(t *testing.T) {
	q := internalQuote(t)
	before := q.Record.Data()

	cost := 55.0
	markup := 25.0
	edited, err := ApplyEdit(q, Patch{
		Materials:        map[models.MaterialCategory]*MaterialPatch{models.MaterialWallPaint: {CostPerGallon: &cost}},
		MarkupPercentage: &markup,
	}, created.Add(time.Hour))
	require.NoError(t, err)

	rec := edited.Record.Data()
	assert.Equal(t, 13*55.0, rec.Materials[models.MaterialWallPaint].TotalCost)
	assert.Equal(t, pricing.RoundCents(rec.Subtotal*0.25), rec.MarkupAmount)
	assert.InDelta(t, rec.Subtotal+rec.MarkupAmount, rec.TotalQuote, 1e-9)
	assert.Equal(t, pricing.RoundCents(rec.TotalQuote), edited.TotalQuote)

	// the stored snapshot did not move
	assert.Equal(t, before, q.Record.Data())
}

func TestApplyEdit_AddAndRemoveMaterial(t *testing.T) {
	q := internalQuote(t)
	brand := "Zinsser"
	cost := 25.0
	edited, err := ApplyEdit(q, Patch{Materials: map[models.MaterialCategory]*MaterialPatch{
		models.MaterialPrimer:      {Brand: &brand, CostPerGallon: &cost},
		models.MaterialFloorSealer: nil,
	}}, created)
	require.NoError(t, err)

	rec := edited.Record.Data()
	require.Contains(t, rec.Materials, models.MaterialPrimer)
	assert.Equal(t, pricing.DefaultCoverage, rec.Materials[models.MaterialPrimer].CoveragePerGallon)
	assert.NotContains(t, rec.Materials, models.MaterialFloorSealer)
}

func TestApplyEdit_RejectsZeroCoverage(t *testing.T) {
	q := internalQuote(t)
	zero := 0.0
	_, err := ApplyEdit(q, Patch{Materials: map[models.MaterialCategory]*MaterialPatch{
		models.MaterialCeilingPaint: {CoveragePerGallon: &zero},
	}}, created)
	require.Error(t, err)
	assert.Equal(t, "materials.ceiling_paint.coverage_per_gallon", utils.FieldOf(err))
}

func TestApplyEdit_RejectsApprovedQuote(t *testing.T) {
	q := internalQuote(t)
	approved, _, err := Approve(q, "", created)
	require.NoError(t, err)

	name := "Someone else"
	_, err = ApplyEdit(approved, Patch{ClientName: &name}, created)
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeConflict))
}

func TestApprove_StoresClientView(t *testing.T) {
	q := internalQuote(t)
	now := created.Add(48 * time.Hour)

	approved, view, err := Approve(q, "Net 30", now)
	require.NoError(t, err)
	assert.Equal(t, models.QuoteApproved, approved.Status)
	require.NotNil(t, approved.ApprovedAt)
	assert.Equal(t, now, *approved.ApprovedAt)

	stored, err := ClientViewOf(approved)
	require.NoError(t, err)
	assert.Equal(t, view, stored)
	assert.Equal(t, "Net 30", stored.PaymentTerms)
}

func TestApprove_MissingClientName(t *testing.T) {
	q := internalQuote(t)
	rec := q.Record.Data()
	rec.ClientName = " "
	q.Record = datatypes.NewJSONType(rec)

	_, _, err := Approve(q, "", created)
	require.Error(t, err)
	assert.Equal(t, "client_name", utils.FieldOf(err))
}

func TestRevise_LeavesApprovedSnapshot(t *testing.T) {
	approved, _, err := Approve(internalQuote(t), "", created)
	require.NoError(t, err)

	rev, err := Revise(approved, "rev-2", created.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, rev.Revision)
	assert.Equal(t, models.QuoteInternalReview, rev.Status)
	require.NotNil(t, rev.ParentID)
	assert.Equal(t, approved.ID, *rev.ParentID)
	assert.Empty(t, rev.ClientView)

	name := "Cici Park"
	edited, err := ApplyEdit(rev, Patch{ClientName: &name}, created)
	require.NoError(t, err)
	assert.Equal(t, "Cici Park", edited.Record.Data().ClientName)
	assert.Equal(t, "Cici", approved.Record.Data().ClientName)

	_, err = Revise(rev, "rev-3", created)
	assert.True(t, utils.IsCode(err, utils.CodeConflict))
}

func TestClientViewOf_NotApproved(t *testing.T) {
	_, err := ClientViewOf(internalQuote(t))
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))
}
