package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/brushline/quotedesk/internal/assistant"
	"github.com/brushline/quotedesk/internal/models"
	mongorepo "github.com/brushline/quotedesk/internal/repositories/mongo"
	"github.com/brushline/quotedesk/internal/utils"
)

var errBoom = errors.New("boom")

type fakeSessionRepo struct {
	mu   sync.Mutex
	byID map[string]*models.QuoteSession
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{byID: map[string]*models.QuoteSession{}}
}

func (r *fakeSessionRepo) Create(_ context.Context, s *models.QuoteSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.byID[s.SessionID] = &cp
	return nil
}

func (r *fakeSessionRepo) Get(_ context.Context, companyID, sessionID string) (*models.QuoteSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[sessionID]
	if !ok || s.CompanyID != companyID {
		return nil, utils.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSessionRepo) Transition(_ context.Context, sessionID string, from, to models.SessionStatus, upd mongorepo.SessionUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[sessionID]
	if !ok {
		return utils.ErrNotFound
	}
	if s.Status != from {
		return utils.E(utils.CodeConflict, "fake", "wrong status", nil)
	}
	s.Status = to
	switch {
	case upd.ClearQuote:
		s.QuoteID, s.Revision = "", 0
	case upd.QuoteID != "":
		s.QuoteID, s.Revision = upd.QuoteID, upd.Revision
	}
	return nil
}

func (r *fakeSessionRepo) AddTurns(_ context.Context, sessionID string, n int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.byID[sessionID]; ok {
		s.Turns += n
	}
	return nil
}

type fakeMessageRepo struct {
	mu   sync.Mutex
	rows []models.ConversationMessage
	err  error
}

func (r *fakeMessageRepo) Append(_ context.Context, sessionID string, msgs ...*models.ConversationMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	seq := 0
	for _, m := range r.rows {
		if m.SessionID == sessionID && m.Seq > seq {
			seq = m.Seq
		}
	}
	for _, m := range msgs {
		seq++
		m.SessionID, m.Seq = sessionID, seq
		r.rows = append(r.rows, *m)
	}
	return nil
}

func (r *fakeMessageRepo) ListBySession(_ context.Context, companyID, sessionID string) ([]models.ConversationMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	var out []models.ConversationMessage
	for _, m := range r.rows {
		if m.CompanyID == companyID && m.SessionID == sessionID {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeQuoteRepo struct {
	mu        sync.Mutex
	byID      map[string]models.Quote
	createErr error
	updateErr error
}

func newFakeQuoteRepo() *fakeQuoteRepo { return &fakeQuoteRepo{byID: map[string]models.Quote{}} }

func (r *fakeQuoteRepo) Create(_ context.Context, q *models.Quote) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.byID[q.ID] = *q
	return nil
}

func (r *fakeQuoteRepo) Get(_ context.Context, companyID, id string) (*models.Quote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.byID[id]
	if !ok || q.CompanyID != companyID {
		return nil, utils.ErrNotFound
	}
	return &q, nil
}

func (r *fakeQuoteRepo) GetApproved(_ context.Context, id string) (*models.Quote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.byID[id]
	if !ok || (q.Status != models.QuoteApproved && q.Status != models.QuoteSuperseded) {
		return nil, utils.ErrNotFound
	}
	return &q, nil
}

func (r *fakeQuoteRepo) cas(q *models.Quote, expected int) error {
	cur, ok := r.byID[q.ID]
	if !ok {
		return utils.ErrNotFound
	}
	if cur.Version != expected {
		return utils.ErrStaleVersion
	}
	q.Version = expected + 1
	r.byID[q.ID] = *q
	return nil
}

func (r *fakeQuoteRepo) Update(_ context.Context, q *models.Quote, expected int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	return r.cas(q, expected)
}

func (r *fakeQuoteRepo) SetPublicURL(_ context.Context, companyID, id string, version int, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.byID[id]
	if !ok || q.CompanyID != companyID || q.Version != version {
		return utils.ErrStaleVersion
	}
	q.PublicURL = url
	r.byID[id] = q
	return nil
}

func (r *fakeQuoteRepo) CreateRevision(_ context.Context, parent *models.Quote, expected int, child *models.Quote) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.cas(parent, expected); err != nil {
		return err
	}
	r.byID[child.ID] = *child
	return nil
}

func (r *fakeQuoteRepo) ListByCompany(_ context.Context, companyID string, status models.QuoteStatus, _ int) ([]models.Quote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Quote
	for _, q := range r.byID {
		if q.CompanyID == companyID && (status == "" || q.Status == status) {
			out = append(out, q)
		}
	}
	return out, nil
}

type fakeCompanyRepo struct {
	companies map[string]*models.Company
	codes     []models.AccessCode
	touched   []string
}

func (r *fakeCompanyRepo) GetByID(_ context.Context, id string) (*models.Company, error) {
	for _, c := range r.companies {
		if c.ID == id {
			cp := *c
			return &cp, nil
		}
	}
	return nil, utils.ErrNotFound
}

func (r *fakeCompanyRepo) GetBySlug(_ context.Context, slug string) (*models.Company, error) {
	c, ok := r.companies[slug]
	if !ok {
		return nil, utils.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCompanyRepo) Create(_ context.Context, c *models.Company) error {
	r.companies[c.Slug] = c
	return nil
}

func (r *fakeCompanyRepo) ActiveAccessCodes(_ context.Context, companyID string, now time.Time) ([]models.AccessCode, error) {
	var out []models.AccessCode
	for _, a := range r.codes {
		if a.CompanyID == companyID && a.Active && (a.ExpiresAt == nil || a.ExpiresAt.After(now)) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeCompanyRepo) CreateAccessCode(_ context.Context, a *models.AccessCode) error {
	r.codes = append(r.codes, *a)
	return nil
}

func (r *fakeCompanyRepo) TouchAccessCode(_ context.Context, id string, _ time.Time) error {
	r.touched = append(r.touched, id)
	return nil
}

type fakeProductRepo struct {
	rows  []models.Product
	lists int
}

func (r *fakeProductRepo) ListByCompany(_ context.Context, companyID string) ([]models.Product, error) {
	r.lists++
	var out []models.Product
	for _, p := range r.rows {
		if p.CompanyID == companyID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeProductRepo) Get(_ context.Context, companyID, id string) (*models.Product, error) {
	for _, p := range r.rows {
		if p.CompanyID == companyID && p.ID == id {
			cp := p
			return &cp, nil
		}
	}
	return nil, utils.ErrNotFound
}

func (r *fakeProductRepo) Create(_ context.Context, p *models.Product) error {
	r.rows = append(r.rows, *p)
	return nil
}

func (r *fakeProductRepo) Update(_ context.Context, p *models.Product) error {
	for i := range r.rows {
		if r.rows[i].ID == p.ID && r.rows[i].CompanyID == p.CompanyID {
			r.rows[i] = *p
			return nil
		}
	}
	return utils.ErrNotFound
}

func (r *fakeProductRepo) Delete(_ context.Context, companyID, id string) error {
	for i := range r.rows {
		if r.rows[i].ID == id && r.rows[i].CompanyID == companyID {
			r.rows = append(r.rows[:i], r.rows[i+1:]...)
			return nil
		}
	}
	return utils.ErrNotFound
}

type fakeProfileRepo struct {
	mu       sync.Mutex
	profiles map[string]*models.LearningProfile
	getErr   error
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: map[string]*models.LearningProfile{}}
}

func (r *fakeProfileRepo) Get(_ context.Context, companyID string) (*models.LearningProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	p, ok := r.profiles[companyID]
	if !ok {
		return nil, utils.ErrNotFound
	}
	return p, nil
}

func (r *fakeProfileRepo) Upsert(_ context.Context, p *models.LearningProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[p.CompanyID] = p
	return nil
}

func (r *fakeProfileRepo) Modify(_ context.Context, companyID string, fn func(*models.LearningProfile) *models.LearningProfile) (*models.LearningProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	in, ok := r.profiles[companyID]
	if !ok {
		in = models.NewLearningProfile(companyID)
	}
	out := fn(in)
	r.profiles[companyID] = out
	return out, nil
}

type fakeSignalRepo struct {
	status map[string]string
}

func (r *fakeSignalRepo) Insert(_ context.Context, s *models.LearningSignal) error {
	r.status[s.JobID] = s.Status
	return nil
}

func (r *fakeSignalRepo) MarkDone(_ context.Context, jobID string, _ models.LearningData, _ int64) error {
	r.status[jobID] = "done"
	return nil
}

func (r *fakeSignalRepo) MarkFailed(_ context.Context, jobID string, _ string, _ int64) error {
	r.status[jobID] = "failed"
	return nil
}

func (r *fakeSignalRepo) ListByCompany(context.Context, string, int64) ([]models.LearningSignal, error) {
	return nil, nil
}

type fakeQueue struct {
	jobs []LearningJob
	err  error
}

func (q *fakeQueue) Enqueue(_ context.Context, job LearningJob) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

type fakeEvents struct {
	mu     sync.Mutex
	events []models.SessionEvent
}

func (e *fakeEvents) Publish(_ context.Context, ev models.SessionEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, ev)
	return nil
}

func (e *fakeEvents) types() []models.EventType {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]models.EventType, 0, len(e.events))
	for _, ev := range e.events {
		out = append(out, ev.Type)
	}
	return out
}

type fakeConvo struct {
	turns []assistant.Turn
	calls int
}

func (f *fakeConvo) Advance(_ context.Context, _ string, _ []models.ConversationMessage, _ assistant.Company) assistant.Turn {
	i := f.calls
	f.calls++
	if i < len(f.turns) {
		return f.turns[i]
	}
	return assistant.Turn{Reply: "Anything else?"}
}

type fakeExtractor struct {
	out        assistant.Extraction
	transcript []models.ConversationMessage
	calls      int
	// during runs inside Extract, while the session is claimed
	during func()
}

func (f *fakeExtractor) Extract(_ context.Context, transcript []models.ConversationMessage, _ assistant.Company) assistant.Extraction {
	f.calls++
	f.transcript = transcript
	if fn := f.during; fn != nil {
		f.during = nil
		fn()
	}
	return f.out
}

type staticLoader struct {
	co  assistant.Company
	err error
}

func (l staticLoader) Load(context.Context, string) (assistant.Company, error) { return l.co, l.err }

type fakeClientPublisher struct {
	err   error
	views []models.ClientQuote
}

func (p *fakeClientPublisher) Publish(_ context.Context, companyID string, revision int, view models.ClientQuote) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	p.views = append(p.views, view)
	return "https://storage.example/" + companyID + "/" + view.QuoteID, nil
}
