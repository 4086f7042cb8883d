package repository

import (
	"context"
	"errors"
	"time"

	"github.com/nimasrn/admissions-inbox/internal/model"
	"github.com/nimasrn/admissions-inbox/pkg/pg"
	"gorm.io/gorm"
)

const claimFree = "(claimed_until IS NULL OR claimed_until <= ?)"

type ScheduledMessageRepository struct {
	*pg.DB
}

func NewScheduledMessageRepository(db *pg.DB) *ScheduledMessageRepository {
	return &ScheduledMessageRepository{
		db,
	}
}

// Create stores a new record as pending with no attempts, whatever the
// caller put in those fields.
func (r *ScheduledMessageRepository) Create(ctx context.Context, sm *model.ScheduledMessage) (*model.ScheduledMessage, error) {
	entity := toScheduledMessageEntity(sm)
	entity.ID = 0
	entity.Status = string(model.ScheduledStatusPending)
	entity.Attempts = 0
	entity.LastError = nil
	entity.DeliveryID = nil
	entity.SentAt = nil
	entity.ClaimedUntil = nil
	entity.ScheduledAt = entity.ScheduledAt.UTC()
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

	return toScheduledMessageModel(entity), nil
}

func (r *ScheduledMessageRepository) Get(ctx context.Context, id int64) (*model.ScheduledMessage, error) {
	var entity ScheduledMessageEntity
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
	return toScheduledMessageModel(&entity), nil
}

func (r *ScheduledMessageRepository) List(ctx context.Context, f model.ScheduledMessageFilter) ([]*model.ScheduledMessage, int64, error) {
	q := r.Read(ctx).WithContext(ctx).Model(&ScheduledMessageEntity{}).
		Where("tenant_id = ?", f.TenantID)

	if f.ConversationID != nil {
		q = q.Where("conversation_id = ?", *f.ConversationID)
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		q = q.Where("status IN ?", statuses)
	}
	if f.From != nil {
		q = q.Where("scheduled_at >= ?", f.From.UTC())
	}
	if f.To != nil {
		q = q.Where("scheduled_at < ?", f.To.UTC())
	}

	// Count before pagination
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "scheduled_at ASC, id ASC"
	if f.Desc {
		order = "scheduled_at DESC, id DESC"
	}

	limit := f.Limit
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	var entities []*ScheduledMessageEntity
	if err := q.Order(order).Limit(limit).Offset(offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}

	return toScheduledMessageModels(entities), total, nil
}

// SelectDue returns pending records whose time has come, that still have
// attempts left and are not claimed by a live worker. Oldest first. It reads
// from the primary since replicas can lag behind recent claims.
func (r *ScheduledMessageRepository) SelectDue(ctx context.Context, now time.Time, maxAttempts, limit int) ([]*model.ScheduledMessage, error) {
	now = now.UTC()
	var entities []*ScheduledMessageEntity
	err := r.Write(ctx).WithContext(ctx).
		Where("status = ? AND scheduled_at <= ? AND attempts < ?", string(model.ScheduledStatusPending), now, maxAttempts).
		Where(claimFree, now).
		Order("scheduled_at ASC, id ASC").
		Limit(limit).
		Find(&entities).Error
	if err != nil {
		return nil, err
	}
	return toScheduledMessageModels(entities), nil
}

// Claim takes ownership of a record for one attempt. The attempt counter is
// incremented here, before any delivery is tried. It only succeeds if the
// record is still pending with the attempt count the caller saw and no live
// claim; false means another worker got there first.
func (r *ScheduledMessageRepository) Claim(ctx context.Context, id int64, seenAttempts int, claimedUntil, now time.Time) (bool, error) {
	now = now.UTC()
	result := r.Write(ctx).WithContext(ctx).
		Model(&ScheduledMessageEntity{}).
		Where("id = ? AND status = ? AND attempts = ?", id, string(model.ScheduledStatusPending), seenAttempts).
		Where(claimFree, now).
		Updates(map[string]interface{}{
			"attempts":      gorm.Expr("attempts + 1"),
			"claimed_until": claimedUntil.UTC(),
			"updated_at":    now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// MarkSent records a successful delivery for the claimed attempt.
func (r *ScheduledMessageRepository) MarkSent(ctx context.Context, id int64, attempt int, deliveryID string, now time.Time) (bool, error) {
	now = now.UTC()
	return r.finish(ctx, id, attempt, map[string]interface{}{
		"status":        string(model.ScheduledStatusSent),
		"delivery_id":   deliveryID,
		"sent_at":       now,
		"claimed_until": nil,
		"updated_at":    now,
	})
}

// MarkAttemptFailed records a failed delivery for the claimed attempt. The
// record becomes failed when terminal is set, otherwise it stays pending.
func (r *ScheduledMessageRepository) MarkAttemptFailed(ctx context.Context, id int64, attempt int, reason string, terminal bool, now time.Time) (bool, error) {
	status := model.ScheduledStatusPending
	if terminal {
		status = model.ScheduledStatusFailed
	}
	return r.finish(ctx, id, attempt, map[string]interface{}{
		"status":        string(status),
		"last_error":    reason,
		"claimed_until": nil,
		"updated_at":    now.UTC(),
	})
}

func (r *ScheduledMessageRepository) finish(ctx context.Context, id int64, attempt int, values map[string]interface{}) (bool, error) {
	result := r.Write(ctx).WithContext(ctx).
		Model(&ScheduledMessageEntity{}).
		Where("id = ? AND status = ? AND attempts = ?", id, string(model.ScheduledStatusPending), attempt).
		Updates(values)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ReapAbandoned fails pending records that used their last attempt but never
// recorded an outcome, which happens when a worker dies mid-delivery.
func (r *ScheduledMessageRepository) ReapAbandoned(ctx context.Context, now time.Time, maxAttempts int) (int64, error) {
	now = now.UTC()
	result := r.Write(ctx).WithContext(ctx).
		Model(&ScheduledMessageEntity{}).
		Where("status = ? AND attempts >= ?", string(model.ScheduledStatusPending), maxAttempts).
		Where(claimFree, now).
		Updates(map[string]interface{}{
			"status":        string(model.ScheduledStatusFailed),
			"last_error":    model.AbandonedAttemptError,
			"claimed_until": nil,
			"updated_at":    now,
		})
	return result.RowsAffected, result.Error
}
