package services

import (
	"context"
	"errors"
	"time"

	"github.com/nimasrn/admissions-inbox/internal/model"
	"github.com/nimasrn/admissions-inbox/pkg/logger"
)

type ScheduledMessageRepository interface {
	Create(ctx context.Context, sm *model.ScheduledMessage) (*model.ScheduledMessage, error)
	Get(ctx context.Context, id int64) (*model.ScheduledMessage, error)
	List(ctx context.Context, f model.ScheduledMessageFilter) ([]*model.ScheduledMessage, int64, error)
}

type DeliveryAttemptRepository interface {
	ListByScheduledMessage(ctx context.Context, scheduledMessageID int64) ([]*model.DeliveryAttempt, error)
}

type ScheduleService struct {
	scheduled ScheduledMessageRepository
	attempts  DeliveryAttemptRepository
	tenancy   Validator
	auth      Authorizer
	now       func() time.Time
}

func NewScheduleService(scheduled ScheduledMessageRepository, attempts DeliveryAttemptRepository, tenancy Validator, auth Authorizer) *ScheduleService {
	return &ScheduleService{
		scheduled: scheduled,
		attempts:  attempts,
		tenancy:   tenancy,
		auth:      auth,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Schedule stores a pending message to be delivered at req.ScheduledAt.
func (s *ScheduleService) Schedule(ctx context.Context, req model.ScheduleRequest) (*model.ScheduledMessage, error) {
	if !s.auth.Authorize(ctx, req.TenantID, ActionSchedule) {
		return nil, ErrUnauthorized
	}
	if req.ConversationID != nil {
		if err := s.tenancy.Validate(ctx, *req.ConversationID, req.TenantID); err != nil {
			return nil, err
		}
	}
	if err := req.Validate(s.now()); err != nil {
		return nil, invalidSchedule(err)
	}

	now := s.now()
	created, err := s.scheduled.Create(ctx, &model.ScheduledMessage{
		TenantID:       req.TenantID,
		ConversationID: req.ConversationID,
		PhoneNumber:    req.PhoneNumber,
		Content:        req.Content,
		Kind:           req.Kind,
		SenderRole:     req.SenderRole,
		ScheduledAt:    req.ScheduledAt,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		return nil, storageErr("create scheduled message", err)
	}

	logger.Info("message scheduled", "id", created.ID, "tenant_id", created.TenantID, "scheduled_at", created.ScheduledAt)
	return created, nil
}

func (s *ScheduleService) Get(ctx context.Context, tenantID, id int64) (*model.ScheduledMessage, error) {
	if !s.auth.Authorize(ctx, tenantID, ActionReadSchedule) {
		return nil, ErrUnauthorized
	}
	return s.owned(ctx, tenantID, id)
}

func (s *ScheduleService) owned(ctx context.Context, tenantID, id int64) (*model.ScheduledMessage, error) {
	sm, err := s.scheduled.Get(ctx, id)
	if err != nil {
		return nil, storageErr("get scheduled message", err)
	}
	if sm.TenantID != tenantID {
		return nil, ErrTenantMismatch
	}
	return sm, nil
}

// List is always scoped to f.TenantID.
func (s *ScheduleService) List(ctx context.Context, f model.ScheduledMessageFilter) ([]*model.ScheduledMessage, int64, error) {
	if !s.auth.Authorize(ctx, f.TenantID, ActionReadSchedule) {
		return nil, 0, ErrUnauthorized
	}
	for _, st := range f.Statuses {
		if !st.Valid() {
			return nil, 0, invalidSchedule(errors.New("unknown status " + string(st)))
		}
	}
	if f.ConversationID != nil {
		if err := s.tenancy.Validate(ctx, *f.ConversationID, f.TenantID); err != nil {
			return nil, 0, err
		}
	}

	items, total, err := s.scheduled.List(ctx, f)
	if err != nil {
		return nil, 0, storageErr("list scheduled messages", err)
	}
	return items, total, nil
}

func (s *ScheduleService) ListAttempts(ctx context.Context, tenantID, id int64) ([]*model.DeliveryAttempt, error) {
	if !s.auth.Authorize(ctx, tenantID, ActionReadSchedule) {
		return nil, ErrUnauthorized
	}
	if _, err := s.owned(ctx, tenantID, id); err != nil {
		return nil, err
	}
	attempts, err := s.attempts.ListByScheduledMessage(ctx, id)
	if err != nil {
		return nil, storageErr("list delivery attempts", err)
	}
	return attempts, nil
}

// Requeue schedules a fresh copy of a failed message. The failed record is
// left as it is.
func (s *ScheduleService) Requeue(ctx context.Context, tenantID, id int64, scheduledAt time.Time) (*model.ScheduledMessage, error) {
	if !s.auth.Authorize(ctx, tenantID, ActionSchedule) {
		return nil, ErrUnauthorized
	}
	original, err := s.owned(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if original.Status != model.ScheduledStatusFailed {
		return nil, invalidSchedule(errors.New("only failed messages can be requeued"))
	}

	copied, err := s.Schedule(ctx, model.ScheduleRequest{
		TenantID:       tenantID,
		ConversationID: original.ConversationID,
		PhoneNumber:    original.PhoneNumber,
		Content:        original.Content,
		Kind:           original.Kind,
		SenderRole:     original.SenderRole,
		ScheduledAt:    scheduledAt,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("failed message requeued", "id", id, "new_id", copied.ID, "tenant_id", tenantID)
	return copied, nil
}
