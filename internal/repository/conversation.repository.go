package repository

import (
	"context"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/nimasrn/admissions-inbox/internal/model"
	"github.com/nimasrn/admissions-inbox/pkg/pg"
	"gorm.io/gorm"
)

type ConversationRepository struct {
	*pg.DB
}

func NewConversationRepository(db *pg.DB) *ConversationRepository {
	return &ConversationRepository{
		db,
	}
}

func (r *ConversationRepository) Create(ctx context.Context, c *model.Conversation) (*model.Conversation, error) {
	entity := toConversationEntity(c)
	if entity.Status == "" {
		entity.Status = string(model.ConversationStatusActive)
	}
	now := time.Now().UTC()
	if entity.CreatedAt.IsZero() {
		entity.CreatedAt = now
	}
	if entity.UpdatedAt.IsZero() {
		entity.UpdatedAt = entity.CreatedAt
	}

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toConversationModel(entity), nil
}

func (r *ConversationRepository) Get(ctx context.Context, id int64) (*model.Conversation, error) {
	var entity ConversationEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("id = ?", id).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toConversationModel(&entity), nil
}

// TenantOf returns only the owning tenant of a conversation.
func (r *ConversationRepository) TenantOf(ctx context.Context, id int64) (int64, error) {
	var entity ConversationEntity
	err := r.Read(ctx).WithContext(ctx).
		Select("id", "tenant_id").
		Where("id = ?", id).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return entity.TenantID, nil
}

func (r *ConversationRepository) SetStatus(ctx context.Context, id, tenantID int64, status model.ConversationStatus, now time.Time) error {
	return r.update(ctx, id, tenantID, map[string]interface{}{
		"status":     string(status),
		"updated_at": now.UTC(),
	})
}

// ReplaceTags overwrites the whole tag set.
func (r *ConversationRepository) ReplaceTags(ctx context.Context, id, tenantID int64, tags []string, now time.Time) error {
	arr := pq.StringArray(tags)
	if arr == nil {
		arr = pq.StringArray{}
	}
	return r.update(ctx, id, tenantID, map[string]interface{}{
		"tags":       arr,
		"updated_at": now.UTC(),
	})
}

func (r *ConversationRepository) SetUnreadCount(ctx context.Context, id, tenantID int64, count int64, now time.Time) error {
	return r.update(ctx, id, tenantID, map[string]interface{}{
		"unread_count": count,
		"updated_at":   now.UTC(),
	})
}

// TouchLastMessage refreshes the preview shown in the inbox list.
func (r *ConversationRepository) TouchLastMessage(ctx context.Context, id, tenantID int64, excerpt string, now time.Time) error {
	return r.update(ctx, id, tenantID, map[string]interface{}{
		"last_message_excerpt": excerpt,
		"updated_at":           now.UTC(),
	})
}

func (r *ConversationRepository) update(ctx context.Context, id, tenantID int64, values map[string]interface{}) error {
	result := r.Write(ctx).WithContext(ctx).
		Model(&ConversationEntity{}).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Updates(values)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
