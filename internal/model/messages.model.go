package model

import (
	"time"
	"unicode/utf8"
)

type SenderRole string

const (
	SenderRoleCustomer SenderRole = "customer"
	SenderRoleAgent    SenderRole = "agent"
	SenderRoleBot      SenderRole = "bot"
)

func (r SenderRole) Valid() bool {
	switch r {
	case SenderRoleCustomer, SenderRoleAgent, SenderRoleBot:
		return true
	}
	return false
}

// Outbound reports whether messages from this role leave the institution.
func (r SenderRole) Outbound() bool {
	return r == SenderRoleAgent || r == SenderRoleBot
}

type MessageKind string

const (
	MessageKindText     MessageKind = "text"
	MessageKindImage    MessageKind = "image"
	MessageKindDocument MessageKind = "document"
	MessageKindAudio    MessageKind = "audio"
	MessageKindVideo    MessageKind = "video"
)

func (k MessageKind) Valid() bool {
	switch k {
	case MessageKindText, MessageKindImage, MessageKindDocument, MessageKindAudio, MessageKindVideo:
		return true
	}
	return false
}

// Message is one entry of a conversation. Outbound messages are stored read.
type Message struct {
	ID             int64       `json:"id"`
	ConversationID int64       `json:"conversation_id"`
	Content        string      `json:"content"`
	Kind           MessageKind `json:"kind"`
	SenderRole     SenderRole  `json:"sender_role"`
	Read           bool        `json:"read"`
	DeliveryID     string      `json:"delivery_id,omitempty"`
	Timestamp      time.Time   `json:"timestamp"`
}

func (Message) TableName() string { return "messages" }

const ExcerptLength = 120

// Excerpt shortens content for the conversation preview without splitting a rune.
func Excerpt(content string) string {
	if utf8.RuneCountInString(content) <= ExcerptLength {
		return content
	}
	runes := []rune(content)
	return string(runes[:ExcerptLength-1]) + "…"
}
