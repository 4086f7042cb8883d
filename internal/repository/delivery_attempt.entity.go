package repository

import (
	"time"

	"github.com/nimasrn/admissions-inbox/internal/model"
)

type DeliveryAttemptEntity struct {
	ID                 int64     `db:"id"                   gorm:"primaryKey;autoIncrement;column:id"`
	ScheduledMessageID int64     `db:"scheduled_message_id" gorm:"column:scheduled_message_id;not null;index"`
	Attempt            int       `db:"attempt"              gorm:"column:attempt;not null"`
	Outcome            string    `db:"outcome"              gorm:"column:outcome;not null"`
	DeliveryID         string    `db:"delivery_id"          gorm:"column:delivery_id;not null;default:''"`
	Error              string    `db:"error"                gorm:"column:error;not null;default:''"`
	AttemptedAt        time.Time `db:"attempted_at"         gorm:"column:attempted_at;not null"`
}

func (DeliveryAttemptEntity) TableName() string {
	return "delivery_attempts"
}

func toDeliveryAttemptEntity(m *model.DeliveryAttempt) *DeliveryAttemptEntity {
	if m == nil {
		return nil
	}
	return &DeliveryAttemptEntity{
		ID:                 m.ID,
		ScheduledMessageID: m.ScheduledMessageID,
		Attempt:            m.Attempt,
		Outcome:            string(m.Outcome),
		DeliveryID:         m.DeliveryID,
		Error:              m.Error,
		AttemptedAt:        m.AttemptedAt,
	}
}

func toDeliveryAttemptModel(e *DeliveryAttemptEntity) *model.DeliveryAttempt {
	if e == nil {
		return nil
	}
	return &model.DeliveryAttempt{
		ID:                 e.ID,
		ScheduledMessageID: e.ScheduledMessageID,
		Attempt:            e.Attempt,
		Outcome:            model.AttemptOutcome(e.Outcome),
		DeliveryID:         e.DeliveryID,
		Error:              e.Error,
		AttemptedAt:        e.AttemptedAt,
	}
}
