package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nimasrn/admissions-inbox/internal/model"
	"github.com/nimasrn/admissions-inbox/internal/repository"
	"github.com/nimasrn/admissions-inbox/test/fixtures"
	"github.com/nimasrn/admissions-inbox/test/helpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newMockScheduleService() (*ScheduleService, *MockScheduledMessageRepository, *MockDeliveryAttemptRepository, *MockValidator, *MockAuthorizer) {
	repo := new(MockScheduledMessageRepository)
	attempts := new(MockDeliveryAttemptRepository)
	validator := new(MockValidator)
	auth := new(MockAuthorizer)
	svc := NewScheduleService(repo, attempts, validator, auth)
	svc.now = func() time.Time { return fixedNow }
	return svc, repo, attempts, validator, auth
}

func TestScheduleService_Schedule(t *testing.T) {
	ctx := context.Background()

	t.Run("stores pending record", func(t *testing.T) {
		svc, repo, _, _, auth := newMockScheduleService()
		req := fixtures.TestScheduleRequest(1, fixedNow.Add(time.Hour))
		auth.On("Authorize", ctx, int64(1), ActionSchedule).Return(true)
		repo.On("Create", ctx, mock.MatchedBy(func(sm *model.ScheduledMessage) bool {
			return sm.TenantID == 1 && sm.ScheduledAt.Equal(req.ScheduledAt) && sm.Content == req.Content
		})).Return(&model.ScheduledMessage{ID: 5, TenantID: 1, Status: model.ScheduledStatusPending}, nil)

		sm, err := svc.Schedule(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, int64(5), sm.ID)
		assert.Equal(t, model.ScheduledStatusPending, sm.Status)
		repo.AssertExpectations(t)
	})

	t.Run("rejects non future timestamps", func(t *testing.T) {
		for _, at := range []time.Time{fixedNow, fixedNow.Add(-time.Minute)} {
			svc, repo, _, _, auth := newMockScheduleService()
			auth.On("Authorize", ctx, int64(1), ActionSchedule).Return(true)

			_, err := svc.Schedule(ctx, fixtures.TestScheduleRequest(1, at))
			assert.ErrorIs(t, err, ErrInvalidSchedule)
			repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		}
	})

	t.Run("rejects malformed phone", func(t *testing.T) {
		for _, phone := range fixtures.InvalidPhoneNumbers {
			svc, _, _, _, auth := newMockScheduleService()
			auth.On("Authorize", ctx, int64(1), ActionSchedule).Return(true)
			req := fixtures.TestScheduleRequest(1, fixedNow.Add(time.Hour))
			req.PhoneNumber = phone

			_, err := svc.Schedule(ctx, req)
			assert.ErrorIs(t, err, ErrInvalidSchedule, phone)
		}
	})

	t.Run("checks conversation tenancy", func(t *testing.T) {
		svc, repo, _, validator, auth := newMockScheduleService()
		req := fixtures.TestScheduleRequest(1, fixedNow.Add(time.Hour))
		req.ConversationID = helpers.Ptr(int64(44))
		auth.On("Authorize", ctx, int64(1), ActionSchedule).Return(true)
		validator.On("Validate", ctx, int64(44), int64(1)).Return(ErrTenantMismatch)

		_, err := svc.Schedule(ctx, req)
		assert.ErrorIs(t, err, ErrTenantMismatch)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("unauthorized", func(t *testing.T) {
		svc, _, _, validator, auth := newMockScheduleService()
		req := fixtures.TestScheduleRequest(1, fixedNow.Add(time.Hour))
		req.ConversationID = helpers.Ptr(int64(44))
		auth.On("Authorize", ctx, int64(1), ActionSchedule).Return(false)

		_, err := svc.Schedule(ctx, req)
		assert.ErrorIs(t, err, ErrUnauthorized)
		validator.AssertNotCalled(t, "Validate", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("storage failure", func(t *testing.T) {
		svc, repo, _, _, auth := newMockScheduleService()
		auth.On("Authorize", ctx, int64(1), ActionSchedule).Return(true)
		repo.On("Create", ctx, mock.Anything).Return(nil, errors.New("connection refused"))

		_, err := svc.Schedule(ctx, fixtures.TestScheduleRequest(1, fixedNow.Add(time.Hour)))
		assert.ErrorIs(t, err, ErrStorage)
	})
}

func TestScheduleService_Get(t *testing.T) {
	ctx := context.Background()
	svc, repo, _, _, auth := newMockScheduleService()
	auth.On("Authorize", ctx, mock.Anything, ActionReadSchedule).Return(true)
	repo.On("Get", ctx, int64(5)).Return(&model.ScheduledMessage{ID: 5, TenantID: 1}, nil)
	repo.On("Get", ctx, int64(6)).Return(nil, repository.ErrNotFound)

	sm, err := svc.Get(ctx, 1, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), sm.ID)

	_, err = svc.Get(ctx, 2, 5)
	assert.ErrorIs(t, err, ErrTenantMismatch)

	_, err = svc.Get(ctx, 1, 6)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestScheduleService_List_RejectsUnknownStatus(t *testing.T) {
	ctx := context.Background()
	svc, repo, _, _, auth := newMockScheduleService()
	auth.On("Authorize", ctx, int64(1), ActionReadSchedule).Return(true)

	_, _, err := svc.List(ctx, model.ScheduledMessageFilter{TenantID: 1, Statuses: []model.ScheduledStatus{"queued"}})
	assert.ErrorIs(t, err, ErrInvalidSchedule)
	repo.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestScheduleService_ListAttempts(t *testing.T) {
	ctx := context.Background()
	svc, repo, attempts, _, auth := newMockScheduleService()
	auth.On("Authorize", ctx, int64(1), ActionReadSchedule).Return(true)
	repo.On("Get", ctx, int64(5)).Return(&model.ScheduledMessage{ID: 5, TenantID: 1}, nil)
	attempts.On("ListByScheduledMessage", ctx, int64(5)).Return([]*model.DeliveryAttempt{{Attempt: 1}}, nil)

	list, err := svc.ListAttempts(ctx, 1, 5)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestScheduleService_Requeue(t *testing.T) {
	ctx := context.Background()
	db := helpers.SetupTestDB(t)
	scheduled := repository.NewScheduledMessageRepository(db)
	conversations := repository.NewConversationRepository(db)
	svc := NewScheduleService(scheduled, repository.NewDeliveryAttemptRepository(db), NewTenancyValidator(conversations), allowAll{})
	svc.now = func() time.Time { return fixedNow }

	tenant := helpers.CreateTestTenant(t, db, "northfield", true)
	failed := helpers.CreateTestScheduledMessage(t, db, tenant.ID, nil, fixedNow.Add(-time.Hour))
	require.NoError(t, db.Write(ctx).Model(&repository.ScheduledMessageEntity{}).Where("id = ?", failed.ID).
		Updates(map[string]interface{}{"status": "failed", "attempts": 3, "last_error": "boom"}).Error)
	pending := helpers.CreateTestScheduledMessage(t, db, tenant.ID, nil, fixedNow.Add(time.Hour))

	copied, err := svc.Requeue(ctx, tenant.ID, failed.ID, fixedNow.Add(2*time.Hour))
	require.NoError(t, err)
	assert.NotEqual(t, failed.ID, copied.ID)
	assert.Equal(t, model.ScheduledStatusPending, copied.Status)
	assert.Equal(t, 0, copied.Attempts)
	assert.Equal(t, failed.Content, copied.Content)

	original, err := scheduled.Get(ctx, failed.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ScheduledStatusFailed, original.Status)
	assert.Equal(t, 3, original.Attempts)

	_, err = svc.Requeue(ctx, tenant.ID, pending.ID, fixedNow.Add(2*time.Hour))
	assert.ErrorIs(t, err, ErrInvalidSchedule)

	_, err = svc.Requeue(ctx, tenant.ID, failed.ID, fixedNow)
	assert.ErrorIs(t, err, ErrInvalidSchedule)

	_, err = svc.Requeue(ctx, tenant.ID+1, failed.ID, fixedNow.Add(time.Hour))
	assert.ErrorIs(t, err, ErrTenantMismatch)
}
