package repository

import (
	"time"

	"github.com/nimasrn/admissions-inbox/internal/model"
)

type MessageEntity struct {
	ID             int64     `db:"id"              gorm:"primaryKey;autoIncrement;column:id"`
	ConversationID int64     `db:"conversation_id" gorm:"column:conversation_id;not null;index"`
	Content        string    `db:"content"         gorm:"column:content;not null"`
	Kind           string    `db:"kind"            gorm:"column:kind;not null;default:text"`
	SenderRole     string    `db:"sender_role"     gorm:"column:sender_role;not null"`
	Read           bool      `db:"read"            gorm:"column:read;not null;default:false"`
	DeliveryID     *string   `db:"delivery_id"     gorm:"column:delivery_id"`
	Timestamp      time.Time `db:"timestamp"       gorm:"column:timestamp;not null"`
}

func (MessageEntity) TableName() string {
	return "messages"
}

func toMessageEntity(m *model.Message) *MessageEntity {
	if m == nil {
		return nil
	}
	var deliveryID *string
	if m.DeliveryID != "" {
		id := m.DeliveryID
		deliveryID = &id
	}
	return &MessageEntity{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		Content:        m.Content,
		Kind:           string(m.Kind),
		SenderRole:     string(m.SenderRole),
		Read:           m.Read,
		DeliveryID:     deliveryID,
		Timestamp:      m.Timestamp,
	}
}

func toMessageModel(e *MessageEntity) *model.Message {
	if e == nil {
		return nil
	}
	m := &model.Message{
		ID:             e.ID,
		ConversationID: e.ConversationID,
		Content:        e.Content,
		Kind:           model.MessageKind(e.Kind),
		SenderRole:     model.SenderRole(e.SenderRole),
		Read:           e.Read,
		Timestamp:      e.Timestamp,
	}
	if e.DeliveryID != nil {
		m.DeliveryID = *e.DeliveryID
	}
	return m
}

func toMessageModels(entities []*MessageEntity) []*model.Message {
	if entities == nil {
		return nil
	}
	models := make([]*model.Message, len(entities))
	for i, e := range entities {
		models[i] = toMessageModel(e)
	}
	return models
}
