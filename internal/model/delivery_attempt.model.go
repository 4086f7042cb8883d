package model

import "time"

type AttemptOutcome string

const (
	AttemptOutcomeSent   AttemptOutcome = "sent"
	AttemptOutcomeFailed AttemptOutcome = "failed"
)

// DeliveryAttempt records one gateway call made for a scheduled message.
type DeliveryAttempt struct {
	ID                 int64          `json:"id"`
	ScheduledMessageID int64          `json:"scheduled_message_id"`
	Attempt            int            `json:"attempt"`
	Outcome            AttemptOutcome `json:"outcome"`
	DeliveryID         string         `json:"delivery_id,omitempty"`
	Error              string         `json:"error,omitempty"`
	AttemptedAt        time.Time      `json:"attempted_at"`
}

func (DeliveryAttempt) TableName() string { return "delivery_attempts" }
