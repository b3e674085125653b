package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/brushline/quotedesk/internal/models"
	"github.com/brushline/quotedesk/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// SessionUpdate is applied together with a status transition.
type SessionUpdate struct {
	QuoteID  string
	Revision int
	// ClearQuote unlinks the session from its quote.
	ClearQuote bool
}

type SessionRepository interface {
	Create(ctx context.Context, s *models.QuoteSession) error
	Get(ctx context.Context, companyID, sessionID string) (*models.QuoteSession, error)
	// Transition moves the session from one status to another only if it is
	// still in from; otherwise it returns a CONFLICT error.
	Transition(ctx context.Context, sessionID string, from, to models.SessionStatus, upd SessionUpdate) error
	AddTurns(ctx context.Context, sessionID string, n int) error
}

type sessionRepo struct {
	col *mongo.Collection
}

func NewSessionRepo(db *mongo.Database) SessionRepository {
	return &sessionRepo{col: db.Collection("quote_sessions")}
}

func (r *sessionRepo) Create(ctx context.Context, s *models.QuoteSession) error {
	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	_, err := r.col.InsertOne(ctx, s)
	return err
}

func (r *sessionRepo) Get(ctx context.Context, companyID, sessionID string) (*models.QuoteSession, error) {
	var s models.QuoteSession
	err := r.col.FindOne(ctx, bson.M{"session_id": sessionID, "company_id": companyID}).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepo) Transition(ctx context.Context, sessionID string, from, to models.SessionStatus, upd SessionUpdate) error {
	const op = "SessionRepo.Transition"

	set := bson.M{"status": to, "updated_at": time.Now().UTC()}
	switch {
	case upd.ClearQuote:
		set["quote_id"] = ""
		set["revision"] = 0
	case upd.QuoteID != "":
		set["quote_id"] = upd.QuoteID
		set["revision"] = upd.Revision
	}
	res, err := r.col.UpdateOne(ctx,
		bson.M{"session_id": sessionID, "status": from},
		bson.M{"$set": set},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		n, err := r.col.CountDocuments(ctx, bson.M{"session_id": sessionID})
		if err != nil {
			return err
		}
		if n == 0 {
			return utils.ErrNotFound
		}
		return utils.E(utils.CodeConflict, op, "session is no longer "+string(from), nil)
	}
	return nil
}

func (r *sessionRepo) AddTurns(ctx context.Context, sessionID string, n int) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"session_id": sessionID},
		bson.M{
			"$inc": bson.M{"turns": n},
			"$set": bson.M{"updated_at": time.Now().UTC()},
		},
	)
	return err
}
