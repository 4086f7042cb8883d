package repository

import (
	"context"
	"testing"

	"github.com/nimasrn/admissions-inbox/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTenantRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTenantRepository(db)
	ctx := context.Background()

	tenant := seedTenant(t, db, "key-1")

	t.Run("get", func(t *testing.T) {
		got, err := repo.Get(ctx, tenant.ID)
		require.NoError(t, err)
		assert.Equal(t, "channel-key-1", got.ChannelRef)
		assert.True(t, got.Active)
	})

	t.Run("get by api key", func(t *testing.T) {
		got, err := repo.GetByAPIKey(ctx, "key-1")
		require.NoError(t, err)
		assert.Equal(t, tenant.ID, got.ID)

		_, err = repo.GetByAPIKey(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("duplicate api key", func(t *testing.T) {
		_, err := repo.Create(ctx, &model.Tenant{Name: "dup", APIKey: "key-1", ChannelRef: "c"})
		assert.ErrorIs(t, err, ErrDuplicateAPIKey)
	})

	t.Run("inactive on create is kept", func(t *testing.T) {
		created, err := repo.Create(ctx, &model.Tenant{Name: "off", APIKey: "key-off", ChannelRef: "c", Active: false})
		require.NoError(t, err)
		got, err := repo.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.False(t, got.Active)
	})

	t.Run("set active", func(t *testing.T) {
		require.NoError(t, repo.SetActive(ctx, tenant.ID, false))
		got, err := repo.Get(ctx, tenant.ID)
		require.NoError(t, err)
		assert.False(t, got.Active)

		assert.ErrorIs(t, repo.SetActive(ctx, 999, true), ErrNotFound)
	})
}

func TestDeliveryAttemptRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDeliveryAttemptRepository(db)
	ctx := context.Background()
	tenant := seedTenant(t, db, "k1")
	sm := seedScheduled(t, db, tenant.ID, baseTime)

	_, err := repo.Create(ctx, &model.DeliveryAttempt{
		ScheduledMessageID: sm.ID, Attempt: 2, Outcome: model.AttemptOutcomeSent, DeliveryID: "d-2", AttemptedAt: baseTime,
	})
	require.NoError(t, err)
	_, err = repo.Create(ctx, &model.DeliveryAttempt{
		ScheduledMessageID: sm.ID, Attempt: 1, Outcome: model.AttemptOutcomeFailed, Error: "timeout", AttemptedAt: baseTime,
	})
	require.NoError(t, err)

	attempts, err := repo.ListByScheduledMessage(ctx, sm.ID)
	require.NoError(t, err)
	require.Len(t, attempts, 2)
	assert.Equal(t, 1, attempts[0].Attempt)
	assert.Equal(t, model.AttemptOutcomeFailed, attempts[0].Outcome)
	assert.Equal(t, "timeout", attempts[0].Error)
	assert.Equal(t, "d-2", attempts[1].DeliveryID)

	none, err := repo.ListByScheduledMessage(ctx, sm.ID+1)
	require.NoError(t, err)
	assert.Empty(t, none)
}
