package repository

import (
	"context"

	"github.com/nimasrn/admissions-inbox/internal/model"
	"github.com/nimasrn/admissions-inbox/pkg/pg"
)

type DeliveryAttemptRepository struct {
	*pg.DB
}

func NewDeliveryAttemptRepository(db *pg.DB) *DeliveryAttemptRepository {
	return &DeliveryAttemptRepository{
		db,
	}
}

func (r *DeliveryAttemptRepository) Create(ctx context.Context, da *model.DeliveryAttempt) (*model.DeliveryAttempt, error) {
	entity := toDeliveryAttemptEntity(da)
	entity.AttemptedAt = entity.AttemptedAt.UTC()

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toDeliveryAttemptModel(entity), nil
}

func (r *DeliveryAttemptRepository) ListByScheduledMessage(ctx context.Context, scheduledMessageID int64) ([]*model.DeliveryAttempt, error) {
	var entities []*DeliveryAttemptEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("scheduled_message_id = ?", scheduledMessageID).
		Order("attempt ASC, id ASC").
		Find(&entities).Error
	if err != nil {
		return nil, err
	}

	attempts := make([]*model.DeliveryAttempt, len(entities))
	for i, e := range entities {
		attempts[i] = toDeliveryAttemptModel(e)
	}
	return attempts, nil
}
