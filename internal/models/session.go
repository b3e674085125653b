package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SessionStatus string

const (
	SessionCollecting     SessionStatus = "collecting"
	SessionReady          SessionStatus = "ready"
	SessionInternalReview SessionStatus = "internal_review"
	SessionApproved       SessionStatus = "approved"
)

// QuoteSession tracks one quote conversation through the review gate.
type QuoteSession struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	SessionID string             `bson:"session_id" json:"session_id"` // uuid v4
	CompanyID string             `bson:"company_id" json:"company_id"`
	CreatedBy string             `bson:"created_by" json:"created_by"`

	Status   SessionStatus `bson:"status" json:"status"`
	QuoteID  string        `bson:"quote_id,omitempty" json:"quote_id,omitempty"`
	Revision int           `bson:"revision,omitempty" json:"revision,omitempty"`
	Turns    int           `bson:"turns" json:"turns"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

type EventType string

const (
	EventSessionReady  EventType = "session_ready"
	EventQuoteCreated  EventType = "quote_created"
	EventQuoteUpdated  EventType = "quote_updated"
	EventQuoteApproved EventType = "quote_approved"
	EventQuoteRevised  EventType = "quote_revised"
)

// SessionEvent is published on a session's channel and forwarded to
// websocket subscribers.
type SessionEvent struct {
	Type      EventType     `json:"type"`
	SessionID string        `json:"session_id"`
	Status    SessionStatus `json:"status,omitempty"`
	QuoteID   string        `json:"quote_id,omitempty"`
	Revision  int           `json:"revision,omitempty"`
	Version   int           `json:"version,omitempty"`
	At        time.Time     `json:"at"`
}
