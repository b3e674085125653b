package postgres

import (
	"context"

	"github.com/brushline/quotedesk/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MessageRepository interface {
	// Append stores turns in order after the last stored one, assigning Seq.
	Append(ctx context.Context, sessionID string, msgs ...*models.ConversationMessage) error
	ListBySession(ctx context.Context, companyID, sessionID string) ([]models.ConversationMessage, error)
}

type messageRepo struct {
	db *gorm.DB
}

func NewMessageRepo(db *gorm.DB) MessageRepository {
	return &messageRepo{db: db}
}

func (r *messageRepo) Append(ctx context.Context, sessionID string, msgs ...*models.ConversationMessage) error {
	if len(msgs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var last struct{ Seq int }
		// lock the session's newest row so concurrent appends serialize
		err := tx.Model(&models.ConversationMessage{}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("seq").
			Where("session_id = ?", sessionID).
			Order("seq DESC").
			Limit(1).
			Scan(&last).Error
		if err != nil {
			return err
		}
		for i, m := range msgs {
			m.SessionID = sessionID
			m.Seq = last.Seq + i + 1
		}
		return tx.Create(msgs).Error
	})
}

func (r *messageRepo) ListBySession(ctx context.Context, companyID, sessionID string) ([]models.ConversationMessage, error) {
	var rows []models.ConversationMessage
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND session_id = ?", companyID, sessionID).
		Order("seq ASC").
		Find(&rows).Error
	return rows, err
}
