package review

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/brushline/quotedesk/internal/models"
	"github.com/brushline/quotedesk/internal/pricing"
	"github.com/brushline/quotedesk/internal/utils"
	"gorm.io/datatypes"
)

// Issues lists everything a contractor must fix before approval: missing
// identity fields first, then invalid pricing inputs.
func Issues(p models.ProjectRecord) []pricing.Issue {
	var issues []pricing.Issue
	if strings.TrimSpace(p.ClientName) == "" {
		issues = append(issues, pricing.Issue{Field: "client_name", Message: "client name is required"})
	}
	if strings.TrimSpace(p.Address) == "" {
		issues = append(issues, pricing.Issue{Field: "address", Message: "address is required"})
	}
	if p.ValidityDays < 0 {
		issues = append(issues, pricing.Issue{Field: "validity_days", Message: "must not be negative"})
	}
	return append(issues, pricing.Issues(p)...)
}

// ApplyEdit patches the base inputs of an internal quote and recalculates
// every derived field.
func ApplyEdit(q models.Quote, patch Patch, now time.Time) (models.Quote, error) {
	const op = "Review.ApplyEdit"

	if q.Status != models.QuoteInternalReview {
		return q, utils.E(utils.CodeConflict, op, "only quotes in internal review can be edited; create a revision", nil)
	}

	rec, err := patch.apply(q.Record.Data())
	if err != nil {
		return q, err
	}
	rec, err = pricing.Recalculate(rec)
	if err != nil {
		return q, err
	}

	out := q
	out.Record = datatypes.NewJSONType(rec)
	out.ClientName = rec.ClientName
	out.TotalQuote = pricing.RoundCents(rec.TotalQuote)
	out.UpdatedAt = now
	return out, nil
}

// Approve freezes an internal quote and derives its client view.
func Approve(q models.Quote, paymentTerms string, now time.Time) (models.Quote, models.ClientQuote, error) {
	const op = "Review.Approve"

	if q.Status != models.QuoteInternalReview {
		return q, models.ClientQuote{}, utils.E(utils.CodeConflict, op, "quote is not awaiting review", nil)
	}

	rec := q.Record.Data()
	if issues := Issues(rec); len(issues) > 0 {
		return q, models.ClientQuote{}, issues[0].Err(op)
	}
	rec, err := pricing.Recalculate(rec)
	if err != nil {
		return q, models.ClientQuote{}, err
	}

	view := ToClientView(rec, ViewOptions{QuoteID: q.ID, CreatedAt: q.CreatedAt, PaymentTerms: paymentTerms})
	raw, err := json.Marshal(view)
	if err != nil {
		return q, models.ClientQuote{}, utils.E(utils.CodeInternal, op, "failed to encode client view", err)
	}

	out := q
	out.Record = datatypes.NewJSONType(rec)
	out.ClientName = rec.ClientName
	out.TotalQuote = view.TotalQuote
	out.ClientView = datatypes.JSON(raw)
	out.Status = models.QuoteApproved
	out.ApprovedAt = &now
	out.UpdatedAt = now
	return out, view, nil
}

// Revise opens a new internal revision of an approved quote. The approved
// snapshot itself is never modified here.
func Revise(parent models.Quote, newID string, now time.Time) (models.Quote, error) {
	const op = "Review.Revise"

	if parent.Status != models.QuoteApproved {
		return models.Quote{}, utils.E(utils.CodeConflict, op, "only approved quotes can be revised", nil)
	}

	rec := parent.Record.Data().Clone()
	parentID := parent.ID
	return models.Quote{
		ID:         newID,
		CompanyID:  parent.CompanyID,
		SessionID:  parent.SessionID,
		ParentID:   &parentID,
		Revision:   parent.Revision + 1,
		Version:    1,
		Status:     models.QuoteInternalReview,
		Record:     datatypes.NewJSONType(rec),
		ClientName: parent.ClientName,
		TotalQuote: parent.TotalQuote,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// ClientViewOf decodes the stored client view of an approved quote.
func ClientViewOf(q models.Quote) (models.ClientQuote, error) {
	const op = "Review.ClientViewOf"

	if q.Status != models.QuoteApproved && q.Status != models.QuoteSuperseded {
		return models.ClientQuote{}, utils.E(utils.CodeNotFound, op, "quote has not been approved", nil)
	}
	var view models.ClientQuote
	if err := json.Unmarshal(q.ClientView, &view); err != nil {
		return models.ClientQuote{}, utils.E(utils.CodeInternal, op, "stored client view is unreadable", err)
	}
	return view, nil
}
