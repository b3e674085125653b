package services

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/brushline/quotedesk/internal/assistant"
	"github.com/brushline/quotedesk/internal/cache"
	"github.com/brushline/quotedesk/internal/models"
	"github.com/brushline/quotedesk/internal/pricing"
	"github.com/brushline/quotedesk/internal/review"
	"github.com/brushline/quotedesk/internal/utils"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

var principal = models.Principal{Subject: "code-1", CompanyID: "co-1", Role: models.RoleUser}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func ciciRecord(t *testing.T) models.ProjectRecord {
	t.Helper()
	p := models.NewProjectRecord()
	p.ClientName = "Cici"
	p.Address = "9090 Hillside Drive"
	p.Rooms = []models.Room{{Name: "Interior walls", WallSqft: 4500}}
	p.Materials[models.MaterialWallPaint] = models.Material{Brand: "Sherwin Williams", Product: "Eggshell", CostPerGallon: 50, CoveragePerGallon: 350}
	p.Labor = models.Labor{RateType: models.RateSqft, RateAmount: 1.5}
	p.MarkupPercentage = 20
	out, err := pricing.Recalculate(p)
	require.NoError(t, err)
	return out
}

type sessionFixture struct {
	svc       SessionService
	sessions  *fakeSessionRepo
	messages  *fakeMessageRepo
	quotes    *fakeQuoteRepo
	convo     *fakeConvo
	extractor *fakeExtractor
	queue     *fakeQueue
	events    *fakeEvents
}

func newSessionFixture(t *testing.T) *sessionFixture {
	f := &sessionFixture{
		sessions:  newFakeSessionRepo(),
		messages:  &fakeMessageRepo{},
		quotes:    newFakeQuoteRepo(),
		convo:     &fakeConvo{},
		extractor: &fakeExtractor{out: assistant.Extraction{Record: ciciRecord(t)}},
		queue:     &fakeQueue{},
		events:    &fakeEvents{},
	}
	f.svc = NewSessionService(SessionDeps{
		Sessions:  f.sessions,
		Messages:  f.messages,
		Quotes:    f.quotes,
		Companies: staticLoader{co: assistant.Company{ID: "co-1", Name: "Brushline"}},
		Convo:     f.convo,
		Extractor: f.extractor,
		Learning:  f.queue,
		Events:    f.events,
		Logger:    quietLogger(),
	})
	return f
}

func TestSessionService_StartStoresGreeting(t *testing.T) {
	f := newSessionFixture(t)
	f.convo.turns = []assistant.Turn{{Reply: "Hi! Who is the client?"}}

	res, err := f.svc.Start(context.Background(), principal)
	require.NoError(t, err)
	assert.Equal(t, models.SessionCollecting, res.Session.Status)
	assert.Equal(t, "Hi! Who is the client?", res.Turn.Reply)

	msgs, err := f.svc.Messages(context.Background(), "co-1", res.Session.SessionID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, models.RoleAssistantMessage, msgs[0].Role)
	assert.Equal(t, 1, msgs[0].Seq)
}

func TestSessionService_SendKeepsOrderAndMarksReady(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	f.convo.turns = []assistant.Turn{
		{Reply: "Hi! Who is the client?"},
		{Reply: "Which rooms?"},
		{Reply: "Great, I have what I need.", ReadyForExtraction: true},
	}

	start, err := f.svc.Start(ctx, principal)
	require.NoError(t, err)
	id := start.Session.SessionID

	res, err := f.svc.Send(ctx, principal, id, "Client is Cici")
	require.NoError(t, err)
	assert.Equal(t, models.SessionCollecting, res.Session.Status)

	res, err = f.svc.Send(ctx, principal, id, "Interior walls, 500 linear ft at 9 ft, SW eggshell")
	require.NoError(t, err)
	assert.True(t, res.Turn.ReadyForExtraction)
	assert.Equal(t, models.SessionReady, res.Session.Status)
	assert.Equal(t, []models.EventType{models.EventSessionReady}, f.events.types())

	msgs, err := f.svc.Messages(ctx, "co-1", id)
	require.NoError(t, err)
	require.Len(t, msgs, 5)
	for i, m := range msgs {
		assert.Equal(t, i+1, m.Seq)
	}
	assert.Equal(t, "Client is Cici", msgs[1].Content)
	assert.Equal(t, models.RoleUserMessage, msgs[1].Role)
	assert.Equal(t, "Which rooms?", msgs[2].Content)
}

func TestSessionService_SendValidation(t *testing.T) {
	f := newSessionFixture(t)
	_, err := f.svc.Send(context.Background(), principal, "missing", "  ")
	assert.Equal(t, "content", utils.FieldOf(err))

	_, err = f.svc.Send(context.Background(), principal, "missing", "hello")
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))
}

func TestSessionService_OtherCompanyCannotSeeSession(t *testing.T) {
	f := newSessionFixture(t)
	start, err := f.svc.Start(context.Background(), principal)
	require.NoError(t, err)

	_, err = f.svc.Get(context.Background(), "co-2", start.Session.SessionID)
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))
}

func TestSessionService_ExtractRequiresReadyUnlessForced(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	start, err := f.svc.Start(ctx, principal)
	require.NoError(t, err)
	id := start.Session.SessionID

	_, err = f.svc.Extract(ctx, principal, id, false)
	assert.True(t, utils.IsCode(err, utils.CodeConflict))

	res, err := f.svc.Extract(ctx, principal, id, true)
	require.NoError(t, err)
	assert.Equal(t, models.SessionInternalReview, res.Session.Status)
}

func TestSessionService_ExtractCreatesFirstRevision(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	f.convo.turns = []assistant.Turn{{Reply: "Hi"}, {Reply: "Ready.", ReadyForExtraction: true}}

	start, err := f.svc.Start(ctx, principal)
	require.NoError(t, err)
	id := start.Session.SessionID
	_, err = f.svc.Send(ctx, principal, id, "everything at once")
	require.NoError(t, err)

	res, err := f.svc.Extract(ctx, principal, id, false)
	require.NoError(t, err)

	q := res.Quote
	assert.Equal(t, 1, q.Revision)
	assert.Equal(t, 1, q.Version)
	assert.Equal(t, models.QuoteInternalReview, q.Status)
	assert.Equal(t, 8880.0, q.TotalQuote)
	assert.Equal(t, "Cici", q.ClientName)
	assert.Len(t, f.extractor.transcript, 3)

	stored, err := f.sessions.Get(ctx, "co-1", id)
	require.NoError(t, err)
	assert.Equal(t, models.SessionInternalReview, stored.Status)
	assert.Equal(t, q.ID, stored.QuoteID)

	require.Len(t, f.queue.jobs, 1)
	assert.Equal(t, id, f.queue.jobs[0].SessionID)
	assert.Contains(t, f.events.types(), models.EventQuoteCreated)

	_, err = f.svc.Send(ctx, principal, id, "one more thing")
	assert.True(t, utils.IsCode(err, utils.CodeConflict))
	_, err = f.svc.Extract(ctx, principal, id, true)
	assert.True(t, utils.IsCode(err, utils.CodeConflict))
}

func TestSessionService_ConcurrentExtractDraftsOneQuote(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	start, err := f.svc.Start(ctx, principal)
	require.NoError(t, err)
	id := start.Session.SessionID

	var second error
	f.extractor.during = func() {
		_, second = f.svc.Extract(ctx, principal, id, true)
	}
	res, err := f.svc.Extract(ctx, principal, id, true)
	require.NoError(t, err)

	assert.True(t, utils.IsCode(second, utils.CodeConflict))
	assert.Equal(t, 1, f.extractor.calls)
	assert.Len(t, f.quotes.byID, 1)
	stored, err := f.sessions.Get(ctx, "co-1", id)
	require.NoError(t, err)
	assert.Equal(t, res.Quote.ID, stored.QuoteID)
}

func TestSessionService_QuoteSaveFailureReleasesSession(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	start, err := f.svc.Start(ctx, principal)
	require.NoError(t, err)
	id := start.Session.SessionID

	f.quotes.createErr = errBoom
	_, err = f.svc.Extract(ctx, principal, id, true)
	assert.True(t, utils.IsCode(err, utils.CodeInternal))

	stored, err := f.sessions.Get(ctx, "co-1", id)
	require.NoError(t, err)
	assert.Equal(t, models.SessionReady, stored.Status)
	assert.Empty(t, stored.QuoteID)
	assert.Empty(t, f.queue.jobs)

	f.quotes.createErr = nil
	res, err := f.svc.Extract(ctx, principal, id, false)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Quote.Revision)
}

func TestSessionService_LearningQueueFailureIsSwallowed(t *testing.T) {
	f := newSessionFixture(t)
	f.queue.err = errBoom
	start, err := f.svc.Start(context.Background(), principal)
	require.NoError(t, err)

	res, err := f.svc.Extract(context.Background(), principal, start.Session.SessionID, true)
	require.NoError(t, err)
	assert.NotEmpty(t, res.Quote.ID)
}

func TestSessionService_PersistenceFailureIsExplicit(t *testing.T) {
	f := newSessionFixture(t)
	start, err := f.svc.Start(context.Background(), principal)
	require.NoError(t, err)

	f.messages.err = errBoom
	_, err = f.svc.Send(context.Background(), principal, start.Session.SessionID, "hello")
	assert.True(t, utils.IsCode(err, utils.CodeInternal))
}

type quoteFixture struct {
	svc       QuoteService
	quotes    *fakeQuoteRepo
	sessions  *fakeSessionRepo
	publisher *fakeClientPublisher
	events    *fakeEvents
	quote     models.Quote
}

func newQuoteFixture(t *testing.T) *quoteFixture {
	f := &quoteFixture{
		quotes:    newFakeQuoteRepo(),
		sessions:  newFakeSessionRepo(),
		publisher: &fakeClientPublisher{},
		events:    &fakeEvents{},
	}
	companies := &fakeCompanyRepo{companies: map[string]*models.Company{
		"brushline": {ID: "co-1", Slug: "brushline", PaymentTerms: "Net 15"},
	}}
	f.svc = NewQuoteService(QuoteDeps{
		Quotes:    f.quotes,
		Sessions:  f.sessions,
		Companies: companies,
		Publisher: f.publisher,
		Events:    f.events,
		Logger:    quietLogger(),
	})

	created := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	rec := ciciRecord(t)
	f.quote = models.Quote{
		ID:         "8d1c2f3e-8a9b-4c5d-9e0f-1a2b3c4d5e6f",
		CompanyID:  "co-1",
		SessionID:  "sess-1",
		Revision:   1,
		Version:    1,
		Status:     models.QuoteInternalReview,
		Record:     datatypes.NewJSONType(rec),
		ClientName: rec.ClientName,
		TotalQuote: rec.TotalQuote,
		CreatedAt:  created,
		UpdatedAt:  created,
	}
	require.NoError(t, f.quotes.Create(context.Background(), &f.quote))
	require.NoError(t, f.sessions.Create(context.Background(), &models.QuoteSession{SessionID: "sess-1", CompanyID: "co-1", Status: models.SessionInternalReview}))
	return f
}

func TestQuoteService_EditRecalculatesAndBumpsVersion(t *testing.T) {
	f := newQuoteFixture(t)
	cost := 55.0

	v, err := f.svc.Edit(context.Background(), "co-1", f.quote.ID, 1, review.Patch{
		Materials: map[models.MaterialCategory]*review.MaterialPatch{models.MaterialWallPaint: {CostPerGallon: &cost}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, v.Version)
	// (55-50) x 13 gallons x 1.2
	assert.InDelta(t, 8880+78, v.TotalQuote, 1e-9)
	assert.Empty(t, v.Issues)
}

func TestQuoteService_EditKeepsDraftedOverheadFixed(t *testing.T) {
	f := newQuoteFixture(t)
	rec := ciciRecord(t)
	oh, err := pricing.PercentageOverhead(rec, pricing.DefaultOverheadPercentage)
	require.NoError(t, err)
	rec.Overhead.Items = []models.OverheadItem{oh}
	rec, err = pricing.Recalculate(rec)
	require.NoError(t, err)
	stored := f.quotes.byID[f.quote.ID]
	stored.Record = datatypes.NewJSONType(rec)
	f.quotes.byID[f.quote.ID] = stored

	cost := 55.0
	v, err := f.svc.Edit(context.Background(), "co-1", f.quote.ID, 1, review.Patch{
		Materials: map[models.MaterialCategory]*review.MaterialPatch{models.MaterialWallPaint: {CostPerGallon: &cost}},
	})
	require.NoError(t, err)
	assert.Equal(t, 740.0, v.Record.Data().Overhead.Total)
	assert.InDelta(t, rec.TotalQuote+78, v.TotalQuote, 1e-9)
}

func TestQuoteService_StaleVersionConflicts(t *testing.T) {
	f := newQuoteFixture(t)
	name := "Cici Park"

	_, err := f.svc.Edit(context.Background(), "co-1", f.quote.ID, 1, review.Patch{ClientName: &name})
	require.NoError(t, err)

	_, err = f.svc.Edit(context.Background(), "co-1", f.quote.ID, 1, review.Patch{ClientName: &name})
	assert.True(t, utils.IsCode(err, utils.CodeConflict))

	_, err = f.svc.Edit(context.Background(), "co-1", f.quote.ID, 0, review.Patch{ClientName: &name})
	assert.Equal(t, "version", utils.FieldOf(err))
}

func TestQuoteService_ApprovePublishesClientView(t *testing.T) {
	f := newQuoteFixture(t)

	q, view, err := f.svc.Approve(context.Background(), "co-1", f.quote.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, models.QuoteApproved, q.Status)
	assert.Equal(t, 2, q.Version)
	assert.Equal(t, "Net 15", view.PaymentTerms)
	assert.Equal(t, 8880.0, view.TotalQuote)
	assert.Equal(t, "2026-05-31", view.ValidUntil)
	assert.Equal(t, "https://storage.example/co-1/"+f.quote.ID, q.PublicURL)
	require.Len(t, f.publisher.views, 1)

	sess, err := f.sessions.Get(context.Background(), "co-1", "sess-1")
	require.NoError(t, err)
	assert.Equal(t, models.SessionApproved, sess.Status)

	got, err := f.svc.ClientView(context.Background(), "co-1", f.quote.ID)
	require.NoError(t, err)
	assert.Equal(t, *view, *got)

	public, err := f.svc.PublicView(context.Background(), f.quote.ID)
	require.NoError(t, err)
	assert.Equal(t, *view, *public)

	_, err = f.svc.Edit(context.Background(), "co-1", f.quote.ID, 2, review.Patch{})
	assert.True(t, utils.IsCode(err, utils.CodeConflict))
}

func TestQuoteService_ApproveSurvivesStorageFailure(t *testing.T) {
	f := newQuoteFixture(t)
	f.publisher.err = errBoom

	q, _, err := f.svc.Approve(context.Background(), "co-1", f.quote.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, models.QuoteApproved, q.Status)
	assert.Empty(t, q.PublicURL)

	stored, err := f.quotes.Get(context.Background(), "co-1", f.quote.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, stored.ClientView)
}

func TestQuoteService_StaleApproveDoesNotPublish(t *testing.T) {
	f := newQuoteFixture(t)
	f.quotes.updateErr = utils.ErrStaleVersion

	_, _, err := f.svc.Approve(context.Background(), "co-1", f.quote.ID, 1)
	assert.True(t, utils.IsCode(err, utils.CodeConflict))
	assert.Empty(t, f.publisher.views)
	assert.Empty(t, f.quotes.byID[f.quote.ID].PublicURL)
}

func TestQuoteService_ApproveRejectsIncompleteQuote(t *testing.T) {
	f := newQuoteFixture(t)
	empty := ""
	_, err := f.svc.Edit(context.Background(), "co-1", f.quote.ID, 1, review.Patch{ClientName: &empty})
	require.NoError(t, err)

	_, _, err = f.svc.Approve(context.Background(), "co-1", f.quote.ID, 2)
	assert.Equal(t, "client_name", utils.FieldOf(err))
	assert.Empty(t, f.publisher.views)
}

func TestQuoteService_ReviseSupersedesParent(t *testing.T) {
	f := newQuoteFixture(t)
	ctx := context.Background()
	_, view, err := f.svc.Approve(ctx, "co-1", f.quote.ID, 1)
	require.NoError(t, err)

	child, err := f.svc.Revise(ctx, "co-1", f.quote.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, child.Revision)
	assert.Equal(t, models.QuoteInternalReview, child.Status)
	require.NotNil(t, child.ParentID)
	assert.Equal(t, f.quote.ID, *child.ParentID)

	parent, err := f.quotes.Get(ctx, "co-1", f.quote.ID)
	require.NoError(t, err)
	assert.Equal(t, models.QuoteSuperseded, parent.Status)

	// the approved snapshot still serves its client view
	old, err := f.svc.ClientView(ctx, "co-1", f.quote.ID)
	require.NoError(t, err)
	assert.Equal(t, *view, *old)

	sess, err := f.sessions.Get(ctx, "co-1", "sess-1")
	require.NoError(t, err)
	assert.Equal(t, models.SessionInternalReview, sess.Status)
	assert.Equal(t, child.ID, sess.QuoteID)

	_, err = f.svc.Revise(ctx, "co-1", f.quote.ID, 3)
	assert.True(t, utils.IsCode(err, utils.CodeConflict))
}

func TestQuoteService_ClientViewHiddenBeforeApproval(t *testing.T) {
	f := newQuoteFixture(t)
	_, err := f.svc.ClientView(context.Background(), "co-1", f.quote.ID)
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))

	_, err = f.svc.PublicView(context.Background(), f.quote.ID)
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))

	_, err = f.svc.PublicView(context.Background(), "not-a-uuid")
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))
}

func TestQuoteService_Calculate(t *testing.T) {
	f := newQuoteFixture(t)
	in := ciciRecord(t)
	in.TotalQuote = 1

	out, err := f.svc.Calculate(in)
	require.NoError(t, err)
	assert.Equal(t, 8880.0, out.TotalQuote)

	in.Materials[models.MaterialWallPaint] = models.Material{CostPerGallon: 50}
	_, err = f.svc.Calculate(in)
	assert.Equal(t, "materials.wall_paint.coverage_per_gallon", utils.FieldOf(err))

	out, err = f.svc.Calculate(models.NewProjectRecord())
	require.NoError(t, err)
	assert.Equal(t, 0.0, out.TotalQuote)
}

func TestAuthService_Login(t *testing.T) {
	hash, err := utils.HashSecret("PAINT-2024")
	require.NoError(t, err)
	past := time.Now().Add(-time.Hour)
	oldHash, err := utils.HashSecret("OLD-CODE")
	require.NoError(t, err)

	repo := &fakeCompanyRepo{
		companies: map[string]*models.Company{"brushline": {ID: "co-1", Slug: "brushline", Name: "Brushline"}},
		codes: []models.AccessCode{
			{ID: "ac-1", CompanyID: "co-1", CodeHash: hash, Role: models.RoleAdmin, Active: true},
			{ID: "ac-2", CompanyID: "co-1", CodeHash: oldHash, Role: models.RoleUser, Active: true, ExpiresAt: &past},
		},
	}
	svc := NewAuthService(repo, "secret", time.Hour, quietLogger())

	res, err := svc.Login(context.Background(), " Brushline ", "PAINT-2024")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, res.Principal.Role)
	assert.Equal(t, []string{"ac-1"}, repo.touched)

	p, err := utils.ParseToken("secret", res.Token)
	require.NoError(t, err)
	assert.Equal(t, "co-1", p.CompanyID)

	_, err = svc.Login(context.Background(), "brushline", "wrong")
	assert.True(t, utils.IsCode(err, utils.CodeUnauthorized))
	_, err = svc.Login(context.Background(), "brushline", "OLD-CODE")
	assert.True(t, utils.IsCode(err, utils.CodeUnauthorized))
	_, err = svc.Login(context.Background(), "nobody", "PAINT-2024")
	assert.True(t, utils.IsCode(err, utils.CodeUnauthorized))
	_, err = svc.Login(context.Background(), "", "")
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
}

func TestCatalogService_ValidatesAndCaches(t *testing.T) {
	mem, err := cache.NewMemoryCache(1 << 20)
	require.NoError(t, err)
	defer mem.Close()
	repo := &fakeProductRepo{}
	svc := NewCatalogService(repo, mem, time.Minute, quietLogger())
	ctx := context.Background()

	_, err = svc.Create(ctx, "co-1", ProductInput{Category: models.MaterialWallPaint, Name: "Duration", CostPerGallon: 68, Coverage: 0})
	assert.Equal(t, "coverage", utils.FieldOf(err))
	_, err = svc.Create(ctx, "co-1", ProductInput{Category: "stain", Name: "Deck", Coverage: 300})
	assert.Equal(t, "category", utils.FieldOf(err))

	p, err := svc.Create(ctx, "co-1", ProductInput{Category: models.MaterialWallPaint, Supplier: "Sherwin Williams", Name: "Duration", CostPerGallon: 68, Coverage: 375})
	require.NoError(t, err)
	assert.Equal(t, "sqft_per_gallon", p.CoverageUnit)

	rows, err := svc.List(ctx, "co-1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	_, err = svc.List(ctx, "co-1")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.lists, "second list is served from cache")

	_, err = svc.Update(ctx, "co-1", p.ID, ProductInput{Category: models.MaterialWallPaint, Name: "Duration", CostPerGallon: 72, Coverage: 375})
	require.NoError(t, err)
	rows, err = svc.List(ctx, "co-1")
	require.NoError(t, err)
	assert.Equal(t, 72.0, rows[0].CostPerGallon)
	assert.Equal(t, 2, repo.lists)

	require.NoError(t, svc.Delete(ctx, "co-1", p.ID))
	err = svc.Delete(ctx, "co-1", p.ID)
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))
}

func TestCompanyContextLoader(t *testing.T) {
	companies := &fakeCompanyRepo{companies: map[string]*models.Company{"brushline": {ID: "co-1", Slug: "brushline", Name: "Brushline"}}}
	products := &fakeProductRepo{rows: []models.Product{{ID: "p1", CompanyID: "co-1", Category: models.MaterialPrimer, Name: "Kilz 2", Coverage: 300}}}
	profiles := newFakeProfileRepo()
	profiles.getErr = errBoom
	catalog := NewCatalogService(products, nil, 0, quietLogger())
	l := NewCompanyContextLoader(companies, catalog, profiles, nil, time.Minute, Defaults{Coverage: 350, OverheadPercent: 10, ValidityDays: 30}, quietLogger())

	co, err := l.Load(context.Background(), "co-1")
	require.NoError(t, err, "profile failures only drop the learned defaults")
	assert.Equal(t, "Brushline", co.Name)
	assert.Len(t, co.Catalog, 1)
	assert.Nil(t, co.Profile)
	assert.Equal(t, 350.0, co.DefaultCoverage)

	_, err = l.Load(context.Background(), "co-9")
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))
}

func TestLearningService_ProcessFoldsProfile(t *testing.T) {
	msgs := &fakeMessageRepo{}
	require.NoError(t, msgs.Append(context.Background(), "sess-1",
		&models.ConversationMessage{CompanyID: "co-1", Role: models.RoleAssistantMessage, Content: "Markup of 90%? Just checking."},
		&models.ConversationMessage{CompanyID: "co-1", Role: models.RoleUserMessage, Content: "Sherwin Williams at $50/gal, 20% markup, interior job."},
	))
	profiles := newFakeProfileRepo()
	signals := &fakeSignalRepo{status: map[string]string{}}
	svc := NewLearningService(profiles, msgs, signals, nil)

	data, err := svc.Process(context.Background(), LearningJob{JobID: "j1", CompanyID: "co-1", SessionID: "sess-1"})
	require.NoError(t, err)
	require.NotNil(t, data.MarkupPercentage)
	assert.Equal(t, 20.0, *data.MarkupPercentage, "assistant turns are not mined")
	assert.Equal(t, "done", signals.status["j1"])

	p, err := svc.Profile(context.Background(), "co-1")
	require.NoError(t, err)
	assert.Equal(t, 1, p.QuotesAnalyzed)
	assert.Equal(t, 20.0, p.PreferredMarkup)
	assert.Contains(t, []string(p.PreferredBrands), "Sherwin Williams")

	fresh, err := svc.Profile(context.Background(), "co-2")
	require.NoError(t, err)
	assert.Equal(t, 0, fresh.QuotesAnalyzed)
}

func TestLearningService_ProcessFailureIsRecorded(t *testing.T) {
	signals := &fakeSignalRepo{status: map[string]string{}}
	svc := NewLearningService(newFakeProfileRepo(), &fakeMessageRepo{err: errBoom}, signals, nil)

	_, err := svc.Process(context.Background(), LearningJob{JobID: "j2", CompanyID: "co-1", SessionID: "sess-1"})
	assert.Error(t, err)
	assert.Equal(t, "failed", signals.status["j2"])
}
