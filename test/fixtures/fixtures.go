package fixtures

import (
	"time"

	"github.com/nimasrn/admissions-inbox/internal/model"
)

var (
	TestTenant1 = model.Tenant{
		ID:         1,
		Name:       "Northfield College",
		APIKey:     "test-api-key-1",
		ChannelRef: "channel-northfield",
		Active:     true,
	}

	TestTenant2 = model.Tenant{
		ID:         2,
		Name:       "Lakeside Institute",
		APIKey:     "test-api-key-2",
		ChannelRef: "channel-lakeside",
		Active:     true,
	}

	InactiveTenant = model.Tenant{
		ID:         3,
		Name:       "Closed Academy",
		APIKey:     "test-api-key-3",
		ChannelRef: "channel-closed",
		Active:     false,
	}
)

var ValidPhoneNumbers = []string{
	"+5511999990000",
	"+14155550123",
	"447911123456",
}

var InvalidPhoneNumbers = []string{
	"",
	"abc",
	"+0123",
	"12345",
	"+1-415-555-0123",
}

func TestConversation(tenantID int64) model.Conversation {
	return model.Conversation{
		TenantID:    tenantID,
		PhoneNumber: ValidPhoneNumbers[0],
		Status:      model.ConversationStatusActive,
		Tags:        []string{},
	}
}

func TestScheduleRequest(tenantID int64, at time.Time) model.ScheduleRequest {
	return model.ScheduleRequest{
		TenantID:    tenantID,
		PhoneNumber: ValidPhoneNumbers[0],
		Content:     "Reminder: your entrance exam is tomorrow at 9am.",
		Kind:        model.MessageKindText,
		SenderRole:  model.SenderRoleBot,
		ScheduledAt: at,
	}
}
