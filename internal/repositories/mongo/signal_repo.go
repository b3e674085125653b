package mongo

import (
	"context"
	"time"

	"github.com/brushline/quotedesk/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SignalRetention is how long learning job records are kept.
const SignalRetention = 30 * 24 * time.Hour

type SignalRepository interface {
	Insert(ctx context.Context, s *models.LearningSignal) error
	MarkDone(ctx context.Context, jobID string, data models.LearningData, processingMS int64) error
	MarkFailed(ctx context.Context, jobID string, reason string, processingMS int64) error
	ListByCompany(ctx context.Context, companyID string, limit int64) ([]models.LearningSignal, error)
}

type signalRepo struct {
	col *mongo.Collection
}

func NewSignalRepo(db *mongo.Database) SignalRepository {
	return &signalRepo{col: db.Collection("learning_signals")}
}

func (r *signalRepo) Insert(ctx context.Context, s *models.LearningSignal) error {
	if s.Timestamp.IsZero() {
		s.Timestamp = time.Now().UTC()
	}
	if s.ExpiresAt.IsZero() {
		s.ExpiresAt = s.Timestamp.Add(SignalRetention)
	}
	if s.Status == "" {
		s.Status = "pending"
	}
	_, err := r.col.InsertOne(ctx, s)
	return err
}

func (r *signalRepo) MarkDone(ctx context.Context, jobID string, data models.LearningData, processingMS int64) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"job_id": jobID},
		bson.M{"$set": bson.M{
			"status":             "done",
			"data":               data,
			"processing_time_ms": processingMS,
		}},
	)
	return err
}

func (r *signalRepo) MarkFailed(ctx context.Context, jobID string, reason string, processingMS int64) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"job_id": jobID},
		bson.M{"$set": bson.M{
			"status":             "failed",
			"error":              reason,
			"processing_time_ms": processingMS,
		}},
	)
	return err
}

func (r *signalRepo) ListByCompany(ctx context.Context, companyID string, limit int64) ([]models.LearningSignal, error) {
	if limit <= 0 {
		limit = 50
	}
	cur, err := r.col.Find(ctx,
		bson.M{"company_id": companyID},
		options.Find().
			SetSort(bson.D{{Key: "timestamp", Value: -1}}).
			SetLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.LearningSignal
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
