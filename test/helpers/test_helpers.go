package helpers

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/nimasrn/admissions-inbox/internal/model"
	"github.com/nimasrn/admissions-inbox/internal/repository"
	"github.com/nimasrn/admissions-inbox/pkg/pg"
	"github.com/nimasrn/admissions-inbox/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB opens a private in-memory sqlite database with every table
// migrated. One connection only, since each sqlite memory connection is a
// separate database.
func SetupTestDB(t *testing.T) *pg.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	err = db.AutoMigrate(repository.AllEntities()...)
	require.NoError(t, err)

	return pg.New(db, db)
}

var redisSeq atomic.Int64

// SetupTestRedis starts a miniredis and registers a fresh adapter for it.
func SetupTestRedis(t *testing.T) (*miniredis.Miniredis, redis.RedisAdapter) {
	t.Helper()
	mr := miniredis.RunT(t)

	name := fmt.Sprintf("test-%d", redisSeq.Add(1))
	adapter, err := redis.NewRedisAdapter(name, "test:", &goredis.UniversalOptions{
		Addrs: []string{mr.Addr()},
	})
	require.NoError(t, err)

	return mr, adapter
}

func CreateTestTenant(t *testing.T, db *pg.DB, name string, active bool) *model.Tenant {
	t.Helper()
	tenant, err := repository.NewTenantRepository(db).Create(context.Background(), &model.Tenant{
		Name:       name,
		APIKey:     RandomAPIKey(),
		ChannelRef: "channel-" + name,
		Active:     active,
	})
	require.NoError(t, err)
	return tenant
}

func CreateTestConversation(t *testing.T, db *pg.DB, tenantID int64, phone string) *model.Conversation {
	t.Helper()
	conv, err := repository.NewConversationRepository(db).Create(context.Background(), &model.Conversation{
		TenantID:    tenantID,
		PhoneNumber: phone,
	})
	require.NoError(t, err)
	return conv
}

// CreateInboundMessages adds n unread customer messages to a conversation.
func CreateInboundMessages(t *testing.T, db *pg.DB, conversationID int64, n int) []int64 {
	t.Helper()
	repo := repository.NewMessageRepository(db)
	ids := make([]int64, n)
	for i := 0; i < n; i++ {
		msg, err := repo.Create(context.Background(), &model.Message{
			ConversationID: conversationID,
			Content:        fmt.Sprintf("inbound %d", i),
			Kind:           model.MessageKindText,
			SenderRole:     model.SenderRoleCustomer,
			Timestamp:      time.Now().UTC().Add(time.Duration(i) * time.Millisecond),
		})
		require.NoError(t, err)
		ids[i] = msg.ID
	}
	return ids
}

func CreateTestScheduledMessage(t *testing.T, db *pg.DB, tenantID int64, conversationID *int64, at time.Time) *model.ScheduledMessage {
	t.Helper()
	sm, err := repository.NewScheduledMessageRepository(db).Create(context.Background(), &model.ScheduledMessage{
		TenantID:       tenantID,
		ConversationID: conversationID,
		PhoneNumber:    "+5511988887777",
		Content:        "Your application was received",
		Kind:           model.MessageKindText,
		SenderRole:     model.SenderRoleBot,
		ScheduledAt:    at,
	})
	require.NoError(t, err)
	return sm
}

func WaitForCondition(t *testing.T, timeout time.Duration, condition func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

func AssertEventually(t *testing.T, timeout time.Duration, condition func() bool, msg string) {
	if !WaitForCondition(t, timeout, condition) {
		t.Fatal(msg)
	}
}

func ContextWithTimeout(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

var apiKeySeq atomic.Int64

func RandomAPIKey() string {
	return fmt.Sprintf("test-api-key-%d-%d", time.Now().UnixNano(), apiKeySeq.Add(1))
}

func Ptr[T any](v T) *T {
	return &v
}
