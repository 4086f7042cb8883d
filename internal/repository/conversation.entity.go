package repository

import (
	"time"

	"github.com/lib/pq"
	"github.com/nimasrn/admissions-inbox/internal/model"
)

type ConversationEntity struct {
	ID                 int64          `db:"id"                   gorm:"primaryKey;autoIncrement;column:id"`
	TenantID           int64          `db:"tenant_id"            gorm:"column:tenant_id;not null;index"`
	PhoneNumber        string         `db:"phone_number"         gorm:"column:phone_number;not null"`
	Status             string         `db:"status"               gorm:"column:status;not null;default:active"`
	UnreadCount        int64          `db:"unread_count"         gorm:"column:unread_count;not null;default:0"`
	Tags               pq.StringArray `db:"tags"                 gorm:"column:tags;type:text[];not null"`
	LastMessageExcerpt string         `db:"last_message_excerpt" gorm:"column:last_message_excerpt;not null;default:''"`
	CreatedAt          time.Time      `db:"created_at"           gorm:"column:created_at"`
	UpdatedAt          time.Time      `db:"updated_at"           gorm:"column:updated_at;autoUpdateTime:false"`
}

func (ConversationEntity) TableName() string {
	return "conversations"
}

func toConversationEntity(m *model.Conversation) *ConversationEntity {
	if m == nil {
		return nil
	}
	tags := pq.StringArray(m.Tags)
	if tags == nil {
		tags = pq.StringArray{}
	}
	return &ConversationEntity{
		ID:                 m.ID,
		TenantID:           m.TenantID,
		PhoneNumber:        m.PhoneNumber,
		Status:             string(m.Status),
		UnreadCount:        m.UnreadCount,
		Tags:               tags,
		LastMessageExcerpt: m.LastMessageExcerpt,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

func toConversationModel(e *ConversationEntity) *model.Conversation {
	if e == nil {
		return nil
	}
	tags := []string(e.Tags)
	if tags == nil {
		tags = []string{}
	}
	return &model.Conversation{
		ID:                 e.ID,
		TenantID:           e.TenantID,
		PhoneNumber:        e.PhoneNumber,
		Status:             model.ConversationStatus(e.Status),
		UnreadCount:        e.UnreadCount,
		Tags:               tags,
		LastMessageExcerpt: e.LastMessageExcerpt,
		CreatedAt:          e.CreatedAt,
		UpdatedAt:          e.UpdatedAt,
	}
}
