package models

import "time"

type MessageRole string

const (
	RoleUserMessage      MessageRole = "user"
	RoleAssistantMessage MessageRole = "assistant"
)

// ConversationMessage is one immutable transcript turn.
type ConversationMessage struct {
	ID        string      `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	SessionID string      `gorm:"column:session_id;type:uuid;uniqueIndex:uniq_session_seq,priority:1" json:"session_id"`
	CompanyID string      `gorm:"column:company_id;type:uuid;index" json:"company_id"`
	Seq       int         `gorm:"column:seq;uniqueIndex:uniq_session_seq,priority:2" json:"seq"`
	Role      MessageRole `gorm:"column:role;type:text" json:"role"`
	Content   string      `gorm:"column:content;type:text" json:"content"`
	Timestamp time.Time   `gorm:"column:timestamp;type:timestamptz" json:"timestamp"`
}

func (ConversationMessage) TableName() string { return "conversation_messages" }
