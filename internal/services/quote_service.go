package services

import (
	"context"
	"errors"
	"time"

	"github.com/brushline/quotedesk/internal/models"
	"github.com/brushline/quotedesk/internal/pricing"
	mongorepo "github.com/brushline/quotedesk/internal/repositories/mongo"
	pgrepo "github.com/brushline/quotedesk/internal/repositories/postgres"
	"github.com/brushline/quotedesk/internal/review"
	"github.com/brushline/quotedesk/internal/utils"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ClientPublisher stores an approved client view outside the database and
// returns where it can be fetched.
type ClientPublisher interface {
	Publish(ctx context.Context, companyID string, revision int, view models.ClientQuote) (string, error)
}

// QuoteView is the internal view of a quote: everything, plus what still
// blocks approval.
type QuoteView struct {
	*models.Quote
	Issues []pricing.Issue `json:"issues"`
}

type QuoteService interface {
	Get(ctx context.Context, companyID, id string) (*QuoteView, error)
	List(ctx context.Context, companyID string, status models.QuoteStatus, limit int) ([]models.Quote, error)
	Edit(ctx context.Context, companyID, id string, version int, patch review.Patch) (*QuoteView, error)
	Approve(ctx context.Context, companyID, id string, version int) (*models.Quote, *models.ClientQuote, error)
	Revise(ctx context.Context, companyID, id string, version int) (*QuoteView, error)
	ClientView(ctx context.Context, companyID, id string) (*models.ClientQuote, error)
	PublicView(ctx context.Context, id string) (*models.ClientQuote, error)
	Calculate(rec models.ProjectRecord) (models.ProjectRecord, error)
}

type quoteService struct {
	quotes    pgrepo.QuoteRepository
	sessions  mongorepo.SessionRepository
	companies pgrepo.CompanyRepository
	publisher ClientPublisher
	events    EventPublisher
	terms     string
	log       *logrus.Logger
	now       func() time.Time
}

type QuoteDeps struct {
	Quotes       pgrepo.QuoteRepository
	Sessions     mongorepo.SessionRepository
	Companies    pgrepo.CompanyRepository
	Publisher    ClientPublisher // optional
	Events       EventPublisher
	PaymentTerms string
	Logger       *logrus.Logger
}

func NewQuoteService(d QuoteDeps) QuoteService {
	s := &quoteService{
		quotes:    d.Quotes,
		sessions:  d.Sessions,
		companies: d.Companies,
		publisher: d.Publisher,
		events:    d.Events,
		terms:     d.PaymentTerms,
		log:       d.Logger,
		now:       time.Now,
	}
	if s.events == nil {
		s.events = nopPublisher{}
	}
	if s.log == nil {
		s.log = logrus.New()
	}
	if s.terms == "" {
		s.terms = review.DefaultPaymentTerms
	}
	return s
}

func (s *quoteService) load(ctx context.Context, op, companyID, id string) (*models.Quote, error) {
	if companyID == "" || id == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "quote_id is required", nil)
	}
	q, err := s.quotes.Get(ctx, companyID, id)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "quote not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get quote", err)
	}
	return q, nil
}

func (s *quoteService) Get(ctx context.Context, companyID, id string) (*QuoteView, error) {
	q, err := s.load(ctx, "QuoteService.Get", companyID, id)
	if err != nil {
		return nil, err
	}
	return viewOf(q), nil
}

func (s *quoteService) List(ctx context.Context, companyID string, status models.QuoteStatus, limit int) ([]models.Quote, error) {
	const op = "QuoteService.List"

	switch status {
	case "", models.QuoteInternalReview, models.QuoteApproved, models.QuoteSuperseded:
	default:
		return nil, utils.EField(op, "status", "unknown quote status")
	}
	rows, err := s.quotes.ListByCompany(ctx, companyID, status, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list quotes", err)
	}
	return rows, nil
}

func (s *quoteService) Edit(ctx context.Context, companyID, id string, version int, patch review.Patch) (*QuoteView, error) {
	const op = "QuoteService.Edit"

	q, err := s.load(ctx, op, companyID, id)
	if err != nil {
		return nil, err
	}
	if err := checkVersion(op, q, version); err != nil {
		return nil, err
	}

	edited, err := review.ApplyEdit(*q, patch, s.now().UTC())
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, op, &edited, version); err != nil {
		return nil, err
	}

	s.publish(ctx, models.SessionEvent{Type: models.EventQuoteUpdated, SessionID: edited.SessionID, QuoteID: edited.ID, Revision: edited.Revision, Version: edited.Version})
	return viewOf(&edited), nil
}

func (s *quoteService) Approve(ctx context.Context, companyID, id string, version int) (*models.Quote, *models.ClientQuote, error) {
	const op = "QuoteService.Approve"

	q, err := s.load(ctx, op, companyID, id)
	if err != nil {
		return nil, nil, err
	}
	if err := checkVersion(op, q, version); err != nil {
		return nil, nil, err
	}

	approved, view, err := review.Approve(*q, s.paymentTerms(ctx, companyID), s.now().UTC())
	if err != nil {
		return nil, nil, err
	}

	if err := s.save(ctx, op, &approved, version); err != nil {
		return nil, nil, err
	}
	s.publishClientView(ctx, &approved, view)

	if err := s.sessions.Transition(ctx, approved.SessionID, models.SessionInternalReview, models.SessionApproved,
		mongorepo.SessionUpdate{QuoteID: approved.ID, Revision: approved.Revision}); err != nil {
		s.log.WithError(err).WithField("session_id", approved.SessionID).Warn("failed to mark session approved")
	}
	s.publish(ctx, models.SessionEvent{Type: models.EventQuoteApproved, SessionID: approved.SessionID, Status: models.SessionApproved, QuoteID: approved.ID, Revision: approved.Revision, Version: approved.Version})
	return &approved, &view, nil
}

// publishClientView copies an approved snapshot to object storage. The
// database row stays the source of truth, so failures are only logged.
func (s *quoteService) publishClientView(ctx context.Context, q *models.Quote, view models.ClientQuote) {
	if s.publisher == nil {
		return
	}
	log := s.log.WithField("quote_id", q.ID)
	url, err := s.publisher.Publish(ctx, q.CompanyID, q.Revision, view)
	if err != nil {
		log.WithError(err).Warn("failed to publish client quote")
		return
	}
	if err := s.quotes.SetPublicURL(ctx, q.CompanyID, q.ID, q.Version, url); err != nil {
		log.WithError(err).Warn("failed to record public url")
		return
	}
	q.PublicURL = url
}

func (s *quoteService) Revise(ctx context.Context, companyID, id string, version int) (*QuoteView, error) {
	const op = "QuoteService.Revise"

	parent, err := s.load(ctx, op, companyID, id)
	if err != nil {
		return nil, err
	}
	if err := checkVersion(op, parent, version); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	child, err := review.Revise(*parent, uuid.NewString(), now)
	if err != nil {
		return nil, err
	}
	superseded := *parent
	superseded.Status = models.QuoteSuperseded
	superseded.UpdatedAt = now

	if err := s.quotes.CreateRevision(ctx, &superseded, version, &child); err != nil {
		return nil, persistErr(op, err)
	}

	if err := s.sessions.Transition(ctx, child.SessionID, models.SessionApproved, models.SessionInternalReview,
		mongorepo.SessionUpdate{QuoteID: child.ID, Revision: child.Revision}); err != nil {
		s.log.WithError(err).WithField("session_id", child.SessionID).Warn("failed to reopen session for revision")
	}
	s.publish(ctx, models.SessionEvent{Type: models.EventQuoteRevised, SessionID: child.SessionID, Status: models.SessionInternalReview, QuoteID: child.ID, Revision: child.Revision, Version: child.Version})
	return viewOf(&child), nil
}

func (s *quoteService) ClientView(ctx context.Context, companyID, id string) (*models.ClientQuote, error) {
	q, err := s.load(ctx, "QuoteService.ClientView", companyID, id)
	if err != nil {
		return nil, err
	}
	view, err := review.ClientViewOf(*q)
	if err != nil {
		return nil, err
	}
	return &view, nil
}

func (s *quoteService) PublicView(ctx context.Context, id string) (*models.ClientQuote, error) {
	const op = "QuoteService.PublicView"

	if _, err := uuid.Parse(id); err != nil {
		return nil, utils.E(utils.CodeNotFound, op, "quote not found", nil)
	}
	q, err := s.quotes.GetApproved(ctx, id)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "quote not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get quote", err)
	}
	view, err := review.ClientViewOf(*q)
	if err != nil {
		return nil, err
	}
	return &view, nil
}

func (s *quoteService) Calculate(rec models.ProjectRecord) (models.ProjectRecord, error) {
	if rec.Materials == nil {
		rec.Materials = map[models.MaterialCategory]models.Material{}
	}
	if rec.Rooms == nil {
		rec.Rooms = []models.Room{}
	}
	return pricing.Recalculate(rec)
}

func (s *quoteService) save(ctx context.Context, op string, q *models.Quote, version int) error {
	if err := s.quotes.Update(ctx, q, version); err != nil {
		return persistErr(op, err)
	}
	return nil
}

func (s *quoteService) paymentTerms(ctx context.Context, companyID string) string {
	if s.companies == nil {
		return s.terms
	}
	co, err := s.companies.GetByID(ctx, companyID)
	if err != nil || co.PaymentTerms == "" {
		return s.terms
	}
	return co.PaymentTerms
}

func (s *quoteService) publish(ctx context.Context, ev models.SessionEvent) {
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.WithError(err).WithField("session_id", ev.SessionID).Warn("failed to publish session event")
	}
}

// checkVersion rejects writes based on a stale read before doing any work.
// version 0 means the caller did not send one.
func checkVersion(op string, q *models.Quote, version int) error {
	if version <= 0 {
		return utils.EField(op, "version", "is required")
	}
	if q.Version != version {
		return utils.E(utils.CodeConflict, op, "quote was changed by someone else; reload and retry", utils.ErrStaleVersion)
	}
	return nil
}

func persistErr(op string, err error) error {
	switch {
	case errors.Is(err, utils.ErrStaleVersion):
		return utils.E(utils.CodeConflict, op, "quote was changed by someone else; reload and retry", err)
	case errors.Is(err, utils.ErrNotFound):
		return utils.E(utils.CodeNotFound, op, "quote not found", err)
	default:
		return utils.E(utils.CodeInternal, op, "failed to save quote", err)
	}
}

func viewOf(q *models.Quote) *QuoteView {
	issues := review.Issues(q.Record.Data())
	if issues == nil {
		issues = []pricing.Issue{}
	}
	return &QuoteView{Quote: q, Issues: issues}
}
