package repository

import (
	"context"
	"testing"
	"time"

	"github.com/nimasrn/admissions-inbox/internal/model"
	"github.com/nimasrn/admissions-inbox/pkg/pg"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func setupTestDB(t *testing.T) *pg.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	err = db.AutoMigrate(AllEntities()...)
	require.NoError(t, err)

	return pg.New(db, db)
}

func seedTenant(t *testing.T, db *pg.DB, apiKey string) *model.Tenant {
	t.Helper()
	tenant, err := NewTenantRepository(db).Create(context.Background(), &model.Tenant{
		Name:       "Institute " + apiKey,
		APIKey:     apiKey,
		ChannelRef: "channel-" + apiKey,
		Active:     true,
	})
	require.NoError(t, err)
	return tenant
}

func seedConversation(t *testing.T, db *pg.DB, tenantID int64) *model.Conversation {
	t.Helper()
	conv, err := NewConversationRepository(db).Create(context.Background(), &model.Conversation{
		TenantID:    tenantID,
		PhoneNumber: "+5511999990000",
		CreatedAt:   baseTime,
	})
	require.NoError(t, err)
	return conv
}

func seedScheduled(t *testing.T, db *pg.DB, tenantID int64, at time.Time) *model.ScheduledMessage {
	t.Helper()
	sm, err := NewScheduledMessageRepository(db).Create(context.Background(), &model.ScheduledMessage{
		TenantID:    tenantID,
		PhoneNumber: "+5511999990000",
		Content:     "Your interview is confirmed",
		Kind:        model.MessageKindText,
		SenderRole:  model.SenderRoleAgent,
		ScheduledAt: at,
		CreatedAt:   baseTime.Add(-time.Hour),
	})
	require.NoError(t, err)
	return sm
}
