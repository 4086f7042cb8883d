package repository

import (
	"time"

	"github.com/nimasrn/admissions-inbox/internal/model"
)

type ScheduledMessageEntity struct {
	ID             int64      `db:"id"              gorm:"primaryKey;autoIncrement;column:id"`
	TenantID       int64      `db:"tenant_id"       gorm:"column:tenant_id;not null;index"`
	ConversationID *int64     `db:"conversation_id" gorm:"column:conversation_id;index"`
	PhoneNumber    string     `db:"phone_number"    gorm:"column:phone_number;not null"`
	Content        string     `db:"content"         gorm:"column:content;not null"`
	Kind           string     `db:"kind"            gorm:"column:kind;not null"`
	SenderRole     string     `db:"sender_role"     gorm:"column:sender_role;not null"`
	ScheduledAt    time.Time  `db:"scheduled_at"    gorm:"column:scheduled_at;not null;index:idx_scheduled_due,priority:2"`
	Status         string     `db:"status"          gorm:"column:status;not null;index:idx_scheduled_due,priority:1"`
	Attempts       int        `db:"attempts"        gorm:"column:attempts;not null;default:0"`
	LastError      *string    `db:"last_error"      gorm:"column:last_error"`
	DeliveryID     *string    `db:"delivery_id"     gorm:"column:delivery_id"`
	SentAt         *time.Time `db:"sent_at"         gorm:"column:sent_at"`
	ClaimedUntil   *time.Time `db:"claimed_until"   gorm:"column:claimed_until"`
	CreatedAt      time.Time  `db:"created_at"      gorm:"column:created_at"`
	UpdatedAt      time.Time  `db:"updated_at"      gorm:"column:updated_at;autoUpdateTime:false"`
}

func (ScheduledMessageEntity) TableName() string {
	return "scheduled_messages"
}

func toScheduledMessageEntity(m *model.ScheduledMessage) *ScheduledMessageEntity {
	if m == nil {
		return nil
	}
	return &ScheduledMessageEntity{
		ID:             m.ID,
		TenantID:       m.TenantID,
		ConversationID: m.ConversationID,
		PhoneNumber:    m.PhoneNumber,
		Content:        m.Content,
		Kind:           string(m.Kind),
		SenderRole:     string(m.SenderRole),
		ScheduledAt:    m.ScheduledAt,
		Status:         string(m.Status),
		Attempts:       m.Attempts,
		LastError:      m.LastError,
		DeliveryID:     m.DeliveryID,
		SentAt:         m.SentAt,
		ClaimedUntil:   m.ClaimedUntil,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func toScheduledMessageModel(e *ScheduledMessageEntity) *model.ScheduledMessage {
	if e == nil {
		return nil
	}
	return &model.ScheduledMessage{
		ID:             e.ID,
		TenantID:       e.TenantID,
		ConversationID: e.ConversationID,
		PhoneNumber:    e.PhoneNumber,
		Content:        e.Content,
		Kind:           model.MessageKind(e.Kind),
		SenderRole:     model.SenderRole(e.SenderRole),
		ScheduledAt:    e.ScheduledAt,
		Status:         model.ScheduledStatus(e.Status),
		Attempts:       e.Attempts,
		LastError:      e.LastError,
		DeliveryID:     e.DeliveryID,
		SentAt:         e.SentAt,
		ClaimedUntil:   e.ClaimedUntil,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
}

func toScheduledMessageModels(entities []*ScheduledMessageEntity) []*model.ScheduledMessage {
	if entities == nil {
		return nil
	}
	models := make([]*model.ScheduledMessage, len(entities))
	for i, e := range entities {
		models[i] = toScheduledMessageModel(e)
	}
	return models
}
