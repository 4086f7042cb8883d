package services

import (
	"context"
	"time"

	"github.com/nimasrn/admissions-inbox/internal/model"
	"github.com/stretchr/testify/mock"
)

type MockAuthorizer struct {
	mock.Mock
}

func (m *MockAuthorizer) Authorize(ctx context.Context, tenantID int64, action Action) bool {
	args := m.Called(ctx, tenantID, action)
	return args.Bool(0)
}

type MockValidator struct {
	mock.Mock
}

func (m *MockValidator) Validate(ctx context.Context, conversationID, tenantID int64) error {
	args := m.Called(ctx, conversationID, tenantID)
	return args.Error(0)
}

type MockConversationRepository struct {
	mock.Mock
}

func (m *MockConversationRepository) Get(ctx context.Context, id int64) (*model.Conversation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Conversation), args.Error(1)
}

func (m *MockConversationRepository) SetStatus(ctx context.Context, id, tenantID int64, status model.ConversationStatus, now time.Time) error {
	args := m.Called(ctx, id, tenantID, status, now)
	return args.Error(0)
}

func (m *MockConversationRepository) ReplaceTags(ctx context.Context, id, tenantID int64, tags []string, now time.Time) error {
	args := m.Called(ctx, id, tenantID, tags, now)
	return args.Error(0)
}

func (m *MockConversationRepository) SetUnreadCount(ctx context.Context, id, tenantID int64, count int64, now time.Time) error {
	args := m.Called(ctx, id, tenantID, count, now)
	return args.Error(0)
}

type MockScheduledMessageRepository struct {
	mock.Mock
}

func (m *MockScheduledMessageRepository) Create(ctx context.Context, sm *model.ScheduledMessage) (*model.ScheduledMessage, error) {
	args := m.Called(ctx, sm)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ScheduledMessage), args.Error(1)
}

func (m *MockScheduledMessageRepository) Get(ctx context.Context, id int64) (*model.ScheduledMessage, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ScheduledMessage), args.Error(1)
}

func (m *MockScheduledMessageRepository) List(ctx context.Context, f model.ScheduledMessageFilter) ([]*model.ScheduledMessage, int64, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*model.ScheduledMessage), args.Get(1).(int64), args.Error(2)
}

type MockDeliveryAttemptRepository struct {
	mock.Mock
}

func (m *MockDeliveryAttemptRepository) ListByScheduledMessage(ctx context.Context, id int64) ([]*model.DeliveryAttempt, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.DeliveryAttempt), args.Error(1)
}

type MockOwnerLookup struct {
	mock.Mock
}

func (m *MockOwnerLookup) TenantOf(ctx context.Context, id int64) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}
