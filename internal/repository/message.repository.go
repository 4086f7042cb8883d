package repository

import (
	"context"
	"time"

	"github.com/nimasrn/admissions-inbox/internal/model"
	"github.com/nimasrn/admissions-inbox/pkg/pg"
)

type MessageRepository struct {
	*pg.DB
}

func NewMessageRepository(db *pg.DB) *MessageRepository {
	return &MessageRepository{
		db,
	}
}

func (r *MessageRepository) Create(ctx context.Context, msg *model.Message) (*model.Message, error) {
	entity := toMessageEntity(msg)
	if entity.Timestamp.IsZero() {
		entity.Timestamp = time.Now().UTC()
	}

	// Select keeps an explicit read=false from being swapped for the default.
	err := r.Write(ctx).WithContext(ctx).
		Select("conversation_id", "content", "kind", "sender_role", "read", "delivery_id", "timestamp").
		Create(entity).Error
	if err != nil {
		return nil, err
	}

	return toMessageModel(entity), nil
}

// MarkRead flags the given messages as read. Ids that belong to another
// conversation are ignored.
func (r *MessageRepository) MarkRead(ctx context.Context, conversationID int64, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.Write(ctx).WithContext(ctx).
		Model(&MessageEntity{}).
		Where("conversation_id = ? AND id IN ? AND read = ?", conversationID, ids, false).
		Update("read", true)
	return result.RowsAffected, result.Error
}

func (r *MessageRepository) MarkAllRead(ctx context.Context, conversationID int64) (int64, error) {
	result := r.Write(ctx).WithContext(ctx).
		Model(&MessageEntity{}).
		Where("conversation_id = ? AND read = ?", conversationID, false).
		Update("read", true)
	return result.RowsAffected, result.Error
}

func (r *MessageRepository) CountUnread(ctx context.Context, conversationID int64) (int64, error) {
	var count int64
	err := r.Read(ctx).WithContext(ctx).
		Model(&MessageEntity{}).
		Where("conversation_id = ? AND read = ?", conversationID, false).
		Count(&count).Error
	return count, err
}

func (r *MessageRepository) ListByConversation(ctx context.Context, conversationID int64, limit, offset int) ([]*model.Message, error) {
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var entities []*MessageEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("timestamp ASC, id ASC").
		Limit(limit).
		Offset(offset).
		Find(&entities).Error
	if err != nil {
		return nil, err
	}
	return toMessageModels(entities), nil
}
