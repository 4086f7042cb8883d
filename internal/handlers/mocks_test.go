package handlers

import (
	"context"
	"time"

	"github.com/nimasrn/admissions-inbox/internal/model"
	xhttp "github.com/nimasrn/admissions-inbox/pkg/http"
	"github.com/stretchr/testify/mock"
	"github.com/valyala/fasthttp"
)

type MockConversationService struct {
	mock.Mock
}

func (m *MockConversationService) conv(args mock.Arguments) (*model.Conversation, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Conversation), args.Error(1)
}

func (m *MockConversationService) Get(ctx context.Context, conversationID, tenantID int64) (*model.Conversation, error) {
	return m.conv(m.Called(ctx, conversationID, tenantID))
}

func (m *MockConversationService) Close(ctx context.Context, conversationID, tenantID int64) (*model.Conversation, error) {
	return m.conv(m.Called(ctx, conversationID, tenantID))
}

func (m *MockConversationService) Reopen(ctx context.Context, conversationID, tenantID int64) (*model.Conversation, error) {
	return m.conv(m.Called(ctx, conversationID, tenantID))
}

func (m *MockConversationService) SetTags(ctx context.Context, conversationID, tenantID int64, tags []string) (*model.Conversation, error) {
	return m.conv(m.Called(ctx, conversationID, tenantID, tags))
}

func (m *MockConversationService) MarkRead(ctx context.Context, conversationID, tenantID int64, messageIDs []int64) (int64, error) {
	args := m.Called(ctx, conversationID, tenantID, messageIDs)
	return args.Get(0).(int64), args.Error(1)
}

type MockScheduleService struct {
	mock.Mock
}

func (m *MockScheduleService) one(args mock.Arguments) (*model.ScheduledMessage, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ScheduledMessage), args.Error(1)
}

func (m *MockScheduleService) Schedule(ctx context.Context, req model.ScheduleRequest) (*model.ScheduledMessage, error) {
	return m.one(m.Called(ctx, req))
}

func (m *MockScheduleService) Get(ctx context.Context, tenantID, id int64) (*model.ScheduledMessage, error) {
	return m.one(m.Called(ctx, tenantID, id))
}

func (m *MockScheduleService) List(ctx context.Context, f model.ScheduledMessageFilter) ([]*model.ScheduledMessage, int64, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*model.ScheduledMessage), args.Get(1).(int64), args.Error(2)
}

func (m *MockScheduleService) ListAttempts(ctx context.Context, tenantID, id int64) ([]*model.DeliveryAttempt, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.DeliveryAttempt), args.Error(1)
}

func (m *MockScheduleService) Requeue(ctx context.Context, tenantID, id int64, scheduledAt time.Time) (*model.ScheduledMessage, error) {
	return m.one(m.Called(ctx, tenantID, id, scheduledAt))
}

type MockHealthService struct {
	mock.Mock
}

func (m *MockHealthService) Get() error {
	return m.Called().Error(0)
}

// setupTestContext builds a request as the router would hand it over: the
// {id} path value is set and the tenant header is present when tenant != "".
func setupTestContext(method, path, tenant, id string, body []byte) *xhttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(path)
	if tenant != "" {
		ctx.Request.Header.Set(xhttp.TenantHeader, tenant)
	}
	if id != "" {
		ctx.SetUserValue("id", id)
	}
	if body != nil {
		ctx.Request.SetBody(body)
	}
	return ctx
}
