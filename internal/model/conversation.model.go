package model

import "time"

type ConversationStatus string

const (
	ConversationStatusActive ConversationStatus = "active"
	ConversationStatusClosed ConversationStatus = "closed"
)

// Conversation is a chat thread between a tenant and one phone number.
// UnreadCount is a cache of the number of unread messages at the last recount.
type Conversation struct {
	ID                 int64              `json:"id"`
	TenantID           int64              `json:"tenant_id"`
	PhoneNumber        string             `json:"phone_number"`
	Status             ConversationStatus `json:"status"`
	UnreadCount        int64              `json:"unread_count"`
	Tags               []string           `json:"tags"`
	LastMessageExcerpt string             `json:"last_message_excerpt,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

func (Conversation) TableName() string { return "conversations" }

func (c *Conversation) IsClosed() bool {
	return c.Status == ConversationStatusClosed
}
