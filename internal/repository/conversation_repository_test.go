package repository

import (
	"context"
	"testing"
	"time"

	"github.com/nimasrn/admissions-inbox/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversationRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewConversationRepository(db)
	ctx := context.Background()
	tenant := seedTenant(t, db, "k1")

	conv := seedConversation(t, db, tenant.ID)
	assert.NotZero(t, conv.ID)
	assert.Equal(t, model.ConversationStatusActive, conv.Status)

	got, err := repo.Get(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, tenant.ID, got.TenantID)
	assert.Equal(t, []string{}, got.Tags)

	owner, err := repo.TenantOf(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, tenant.ID, owner)

	_, err = repo.Get(ctx, conv.ID+100)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.TenantOf(ctx, conv.ID+100)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConversationRepository_Updates(t *testing.T) {
	db := setupTestDB(t)
	repo := NewConversationRepository(db)
	ctx := context.Background()
	tenant := seedTenant(t, db, "k1")
	other := seedTenant(t, db, "k2")
	conv := seedConversation(t, db, tenant.ID)
	later := baseTime.Add(time.Hour)

	t.Run("status", func(t *testing.T) {
		require.NoError(t, repo.SetStatus(ctx, conv.ID, tenant.ID, model.ConversationStatusClosed, later))
		got, err := repo.Get(ctx, conv.ID)
		require.NoError(t, err)
		assert.True(t, got.IsClosed())
		assert.True(t, got.UpdatedAt.Equal(later))
	})

	t.Run("tags", func(t *testing.T) {
		require.NoError(t, repo.ReplaceTags(ctx, conv.ID, tenant.ID, []string{"enrolled", "vip"}, later))
		got, err := repo.Get(ctx, conv.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"enrolled", "vip"}, got.Tags)

		require.NoError(t, repo.ReplaceTags(ctx, conv.ID, tenant.ID, nil, later))
		got, err = repo.Get(ctx, conv.ID)
		require.NoError(t, err)
		assert.Empty(t, got.Tags)
	})

	t.Run("unread count and excerpt", func(t *testing.T) {
		require.NoError(t, repo.SetUnreadCount(ctx, conv.ID, tenant.ID, 4, later))
		require.NoError(t, repo.TouchLastMessage(ctx, conv.ID, tenant.ID, "see you", later))
		got, err := repo.Get(ctx, conv.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(4), got.UnreadCount)
		assert.Equal(t, "see you", got.LastMessageExcerpt)
	})

	t.Run("other tenant matches nothing", func(t *testing.T) {
		err := repo.SetStatus(ctx, conv.ID, other.ID, model.ConversationStatusActive, later)
		assert.ErrorIs(t, err, ErrNotFound)

		got, err := repo.Get(ctx, conv.ID)
		require.NoError(t, err)
		assert.True(t, got.IsClosed())
	})
}
