package model

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

type ScheduledStatus string

const (
	ScheduledStatusPending ScheduledStatus = "pending"
	ScheduledStatusSent    ScheduledStatus = "sent"
	ScheduledStatusFailed  ScheduledStatus = "failed"
)

func (s ScheduledStatus) Valid() bool {
	switch s {
	case ScheduledStatusPending, ScheduledStatusSent, ScheduledStatusFailed:
		return true
	}
	return false
}

func (s ScheduledStatus) Terminal() bool {
	return s == ScheduledStatusSent || s == ScheduledStatusFailed
}

const (
	DefaultBatchLimit  = 50
	DefaultMaxAttempts = 3

	AbandonedAttemptError = "attempt abandoned"
)

// ScheduledMessage is a request to deliver content at ScheduledAt. Attempts
// only grows, and once Status is sent or failed the record never changes.
type ScheduledMessage struct {
	ID             int64           `json:"id"`
	TenantID       int64           `json:"tenant_id"`
	ConversationID *int64          `json:"conversation_id,omitempty"`
	PhoneNumber    string          `json:"phone_number"`
	Content        string          `json:"content"`
	Kind           MessageKind     `json:"kind"`
	SenderRole     SenderRole      `json:"sender_role"`
	ScheduledAt    time.Time       `json:"scheduled_at"`
	Status         ScheduledStatus `json:"status"`
	Attempts       int             `json:"attempts"`
	LastError      *string         `json:"last_error,omitempty"`
	DeliveryID     *string         `json:"delivery_id,omitempty"`
	SentAt         *time.Time      `json:"sent_at,omitempty"`
	ClaimedUntil   *time.Time      `json:"-"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (ScheduledMessage) TableName() string { return "scheduled_messages" }

var phonePattern = regexp.MustCompile(`^\+?[1-9][0-9]{6,14}$`)

const MaxContentLength = 4096

// ScheduleRequest is the input for enqueuing a message.
type ScheduleRequest struct {
	TenantID       int64       `json:"-"`
	ConversationID *int64      `json:"conversation_id,omitempty"`
	PhoneNumber    string      `json:"phone_number"`
	Content        string      `json:"content"`
	Kind           MessageKind `json:"kind"`
	ScheduledAt    time.Time   `json:"scheduled_at"`
	SenderRole     SenderRole  `json:"sender_role"`
}

// Validate checks the shape of the request. now is the reference instant
// ScheduledAt must be strictly after.
func (r *ScheduleRequest) Validate(now time.Time) error {
	r.PhoneNumber = strings.TrimSpace(r.PhoneNumber)
	if r.Kind == "" {
		r.Kind = MessageKindText
	}
	if r.SenderRole == "" {
		r.SenderRole = SenderRoleAgent
	}

	if r.TenantID == 0 {
		return errors.New("tenant_id is required")
	}
	if !phonePattern.MatchString(r.PhoneNumber) {
		return errors.New("phone_number is malformed")
	}
	if strings.TrimSpace(r.Content) == "" {
		return errors.New("content is required")
	}
	if len(r.Content) > MaxContentLength {
		return errors.New("content is too long")
	}
	if !r.Kind.Valid() {
		return errors.New("kind is not supported")
	}
	if !r.SenderRole.Outbound() {
		return errors.New("sender_role must be agent or bot")
	}
	if !r.ScheduledAt.After(now) {
		return errors.New("scheduled_at must be in the future")
	}
	return nil
}

// ScheduledMessageFilter controls List queries.
type ScheduledMessageFilter struct {
	TenantID       int64
	ConversationID *int64
	Statuses       []ScheduledStatus
	From           *time.Time
	To             *time.Time
	Limit          int // default 50
	Offset         int
	Desc           bool // order by scheduled_at
}

// DispatchSummary reports one dispatch cycle. Failed counts failed attempts,
// Exhausted the records among them that became terminal.
type DispatchSummary struct {
	Processed int `json:"processed"`
	Sent      int `json:"sent"`
	Failed    int `json:"failed"`
	Exhausted int `json:"exhausted"`
	Skipped   int `json:"skipped"`
	Reaped    int `json:"reaped"`
}
