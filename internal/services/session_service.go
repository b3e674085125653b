package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/brushline/quotedesk/internal/assistant"
	"github.com/brushline/quotedesk/internal/models"
	"github.com/brushline/quotedesk/internal/pricing"
	mongorepo "github.com/brushline/quotedesk/internal/repositories/mongo"
	pgrepo "github.com/brushline/quotedesk/internal/repositories/postgres"
	"github.com/brushline/quotedesk/internal/review"
	"github.com/brushline/quotedesk/internal/utils"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// maxMessageLen bounds one contractor message.
const maxMessageLen = 4000

// Conversationalist is the conversation stage.
type Conversationalist interface {
	Advance(ctx context.Context, message string, history []models.ConversationMessage, co assistant.Company) assistant.Turn
}

// RecordExtractor is the extraction stage.
type RecordExtractor interface {
	Extract(ctx context.Context, transcript []models.ConversationMessage, co assistant.Company) assistant.Extraction
}

type TurnResult struct {
	Session  *models.QuoteSession         `json:"session"`
	Turn     assistant.Turn               `json:"turn"`
	Messages []models.ConversationMessage `json:"messages"`
}

type ExtractResult struct {
	Session *models.QuoteSession `json:"session"`
	Quote   *models.Quote        `json:"quote"`
	Issues  []pricing.Issue      `json:"issues"`
	Partial bool                 `json:"partial"`
}

type SessionService interface {
	Start(ctx context.Context, p models.Principal) (*TurnResult, error)
	Get(ctx context.Context, companyID, sessionID string) (*models.QuoteSession, error)
	Messages(ctx context.Context, companyID, sessionID string) ([]models.ConversationMessage, error)
	Send(ctx context.Context, p models.Principal, sessionID, content string) (*TurnResult, error)
	// Extract drafts revision 1 of the session's quote. force allows
	// extraction before the conversation signalled readiness.
	Extract(ctx context.Context, p models.Principal, sessionID string, force bool) (*ExtractResult, error)
}

type sessionService struct {
	sessions  mongorepo.SessionRepository
	messages  pgrepo.MessageRepository
	quotes    pgrepo.QuoteRepository
	companies CompanyContextLoader
	convo     Conversationalist
	extractor RecordExtractor
	learning  LearningQueue
	events    EventPublisher
	log       *logrus.Logger
	now       func() time.Time
}

type SessionDeps struct {
	Sessions  mongorepo.SessionRepository
	Messages  pgrepo.MessageRepository
	Quotes    pgrepo.QuoteRepository
	Companies CompanyContextLoader
	Convo     Conversationalist
	Extractor RecordExtractor
	Learning  LearningQueue
	Events    EventPublisher
	Logger    *logrus.Logger
}

func NewSessionService(d SessionDeps) SessionService {
	s := &sessionService{
		sessions:  d.Sessions,
		messages:  d.Messages,
		quotes:    d.Quotes,
		companies: d.Companies,
		convo:     d.Convo,
		extractor: d.Extractor,
		learning:  d.Learning,
		events:    d.Events,
		log:       d.Logger,
		now:       time.Now,
	}
	if s.events == nil {
		s.events = nopPublisher{}
	}
	if s.log == nil {
		s.log = logrus.New()
	}
	return s
}

func (s *sessionService) Start(ctx context.Context, p models.Principal) (*TurnResult, error) {
	const op = "SessionService.Start"

	if p.CompanyID == "" {
		return nil, utils.E(utils.CodeUnauthorized, op, "company is required", nil)
	}
	co, err := s.companies.Load(ctx, p.CompanyID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	sess := &models.QuoteSession{
		SessionID: uuid.NewString(),
		CompanyID: p.CompanyID,
		CreatedBy: p.Subject,
		Status:    models.SessionCollecting,
		CreatedAt: now,
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to create session", err)
	}

	turn := s.convo.Advance(ctx, "", nil, co)
	greeting := &models.ConversationMessage{
		ID:        uuid.NewString(),
		CompanyID: p.CompanyID,
		Role:      models.RoleAssistantMessage,
		Content:   turn.Reply,
		Timestamp: now,
	}
	if err := s.messages.Append(ctx, sess.SessionID, greeting); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to store greeting", err)
	}
	_ = s.sessions.AddTurns(ctx, sess.SessionID, 1)
	sess.Turns = 1

	turn.ReadyForExtraction = false
	return &TurnResult{Session: sess, Turn: turn, Messages: []models.ConversationMessage{*greeting}}, nil
}

func (s *sessionService) Get(ctx context.Context, companyID, sessionID string) (*models.QuoteSession, error) {
	const op = "SessionService.Get"

	if companyID == "" || sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}
	sess, err := s.sessions.Get(ctx, companyID, sessionID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "session not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get session", err)
	}
	return sess, nil
}

func (s *sessionService) Messages(ctx context.Context, companyID, sessionID string) ([]models.ConversationMessage, error) {
	const op = "SessionService.Messages"

	if _, err := s.Get(ctx, companyID, sessionID); err != nil {
		return nil, err
	}
	rows, err := s.messages.ListBySession(ctx, companyID, sessionID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list messages", err)
	}
	return rows, nil
}

func (s *sessionService) Send(ctx context.Context, p models.Principal, sessionID, content string) (*TurnResult, error) {
	const op = "SessionService.Send"

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, utils.EField(op, "content", "message must not be empty")
	}
	if len(content) > maxMessageLen {
		return nil, utils.EField(op, "content", "message is too long")
	}

	sess, err := s.Get(ctx, p.CompanyID, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status != models.SessionCollecting && sess.Status != models.SessionReady {
		return nil, utils.E(utils.CodeConflict, op, "session has already been extracted into a quote", nil)
	}

	history, err := s.messages.ListBySession(ctx, p.CompanyID, sessionID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load transcript", err)
	}
	co, err := s.companies.Load(ctx, p.CompanyID)
	if err != nil {
		return nil, err
	}

	turn := s.convo.Advance(ctx, content, history, co)

	now := s.now().UTC()
	userMsg := &models.ConversationMessage{
		ID: uuid.NewString(), CompanyID: p.CompanyID,
		Role: models.RoleUserMessage, Content: content, Timestamp: now,
	}
	botMsg := &models.ConversationMessage{
		ID: uuid.NewString(), CompanyID: p.CompanyID,
		Role: models.RoleAssistantMessage, Content: turn.Reply, Timestamp: now,
	}
	if err := s.messages.Append(ctx, sessionID, userMsg, botMsg); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to store messages", err)
	}
	if err := s.sessions.AddTurns(ctx, sessionID, 2); err != nil {
		s.log.WithError(err).WithField("session_id", sessionID).Warn("failed to count turns")
	}
	sess.Turns += 2

	if turn.ReadyForExtraction && sess.Status == models.SessionCollecting {
		if err := s.sessions.Transition(ctx, sessionID, models.SessionCollecting, models.SessionReady, mongorepo.SessionUpdate{}); err != nil && !utils.IsCode(err, utils.CodeConflict) {
			return nil, utils.E(utils.CodeInternal, op, "failed to mark session ready", err)
		}
		sess.Status = models.SessionReady
		s.publish(ctx, models.SessionEvent{Type: models.EventSessionReady, SessionID: sessionID, Status: sess.Status})
	}

	return &TurnResult{Session: sess, Turn: turn, Messages: []models.ConversationMessage{*userMsg, *botMsg}}, nil
}

func (s *sessionService) Extract(ctx context.Context, p models.Principal, sessionID string, force bool) (*ExtractResult, error) {
	const op = "SessionService.Extract"

	sess, err := s.Get(ctx, p.CompanyID, sessionID)
	if err != nil {
		return nil, err
	}
	switch {
	case sess.Status == models.SessionCollecting && force:
		if err := s.sessions.Transition(ctx, sessionID, models.SessionCollecting, models.SessionReady, mongorepo.SessionUpdate{}); err != nil {
			return nil, wrapTransition(op, err)
		}
		sess.Status = models.SessionReady
	case sess.Status == models.SessionCollecting:
		return nil, utils.E(utils.CodeConflict, op, "conversation is not ready for extraction", nil)
	}
	if err := review.Transition(sess.Status, models.SessionInternalReview); err != nil {
		return nil, err
	}

	transcript, err := s.messages.ListBySession(ctx, p.CompanyID, sessionID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load transcript", err)
	}
	co, err := s.companies.Load(ctx, p.CompanyID)
	if err != nil {
		return nil, err
	}

	// Claim the session before the slow extraction so a concurrent call
	// conflicts instead of drafting a second revision 1.
	quoteID := uuid.NewString()
	if err := s.sessions.Transition(ctx, sessionID, models.SessionReady, models.SessionInternalReview, mongorepo.SessionUpdate{QuoteID: quoteID, Revision: 1}); err != nil {
		return nil, wrapTransition(op, err)
	}

	ex := s.extractor.Extract(ctx, transcript, co)

	now := s.now().UTC()
	q := &models.Quote{
		ID:         quoteID,
		CompanyID:  p.CompanyID,
		SessionID:  sessionID,
		Revision:   1,
		Version:    1,
		Status:     models.QuoteInternalReview,
		Record:     datatypes.NewJSONType(ex.Record),
		ClientName: ex.Record.ClientName,
		TotalQuote: pricing.RoundCents(ex.Record.TotalQuote),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.quotes.Create(ctx, q); err != nil {
		if rerr := s.sessions.Transition(ctx, sessionID, models.SessionInternalReview, models.SessionReady, mongorepo.SessionUpdate{ClearQuote: true}); rerr != nil {
			s.log.WithError(rerr).WithField("session_id", sessionID).Error("failed to release session after quote save failure")
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to save quote", err)
	}
	sess.Status = models.SessionInternalReview
	sess.QuoteID = q.ID
	sess.Revision = 1

	s.enqueueLearning(ctx, p.CompanyID, sessionID)
	s.publish(ctx, models.SessionEvent{Type: models.EventQuoteCreated, SessionID: sessionID, Status: sess.Status, QuoteID: q.ID, Revision: 1, Version: q.Version})

	return &ExtractResult{Session: sess, Quote: q, Issues: ex.Issues, Partial: ex.Partial}, nil
}

// enqueueLearning is best effort; a lost job only delays profile learning.
func (s *sessionService) enqueueLearning(ctx context.Context, companyID, sessionID string) {
	if s.learning == nil {
		return
	}
	job := LearningJob{JobID: uuid.NewString(), CompanyID: companyID, SessionID: sessionID}
	if err := s.learning.Enqueue(ctx, job); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"company_id": companyID, "session_id": sessionID}).
			Warn("failed to enqueue learning job")
	}
}

func (s *sessionService) publish(ctx context.Context, ev models.SessionEvent) {
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.WithError(err).WithField("session_id", ev.SessionID).Warn("failed to publish session event")
	}
}

func wrapTransition(op string, err error) error {
	var ae *utils.AppError
	if errors.As(err, &ae) {
		return err
	}
	if errors.Is(err, utils.ErrNotFound) {
		return utils.E(utils.CodeNotFound, op, "session not found", err)
	}
	return utils.E(utils.CodeInternal, op, "failed to update session", err)
}
