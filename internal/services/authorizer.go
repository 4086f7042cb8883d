package services

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/nimasrn/admissions-inbox/internal/model"
	"github.com/nimasrn/admissions-inbox/internal/repository"
	"github.com/nimasrn/admissions-inbox/pkg/logger"
	"github.com/nimasrn/admissions-inbox/pkg/redis"
)

type Action string

const (
	ActionReadConversation   Action = "conversation:read"
	ActionUpdateConversation Action = "conversation:update"
	ActionMarkRead           Action = "conversation:mark_read"
	ActionReadSchedule       Action = "schedule:read"
	ActionSchedule           Action = "schedule:create"
)

// Authorizer decides whether a tenant may perform an action at all. Tenancy
// of the individual resource is checked separately.
type Authorizer interface {
	Authorize(ctx context.Context, tenantID int64, action Action) bool
}

type TenantLookup interface {
	Get(ctx context.Context, id int64) (*model.Tenant, error)
}

const authCacheKeyPrefix = "auth:tenant:"

var (
	authAllowed = []byte("1")
	authDenied  = []byte("0")
)

// TenantAuthorizer allows every action for active tenants. Decisions are
// cached in redis for ttl; lookup failures deny and are not cached.
type TenantAuthorizer struct {
	tenants TenantLookup
	cache   redis.RedisAdapter
	ttl     time.Duration
}

func NewTenantAuthorizer(tenants TenantLookup, cache redis.RedisAdapter, ttl time.Duration) *TenantAuthorizer {
	return &TenantAuthorizer{
		tenants: tenants,
		cache:   cache,
		ttl:     ttl,
	}
}

func (a *TenantAuthorizer) Authorize(ctx context.Context, tenantID int64, action Action) bool {
	if tenantID <= 0 {
		return false
	}

	key := authCacheKeyPrefix + strconv.FormatInt(tenantID, 10)
	if a.cache != nil {
		v, err := a.cache.Get(key)
		switch {
		case err == nil && len(v) > 0:
			return string(v) == string(authAllowed)
		case err != nil && !errors.Is(err, redis.NilError):
			logger.Warn("authorizer cache read failed", "tenant_id", tenantID, "error", err)
		}
	}

	tenant, err := a.tenants.Get(ctx, tenantID)
	allowed := false
	switch {
	case errors.Is(err, repository.ErrNotFound):
	case err != nil:
		logger.Error("authorizer tenant lookup failed", "tenant_id", tenantID, "action", action, "error", err)
		return false
	default:
		allowed = tenant.Active
	}

	if a.cache != nil && a.ttl > 0 {
		value := authDenied
		if allowed {
			value = authAllowed
		}
		if err := a.cache.Set(key, value, a.ttl); err != nil {
			logger.Warn("authorizer cache write failed", "tenant_id", tenantID, "error", err)
		}
	}

	if !allowed {
		logger.Info("tenant denied", "tenant_id", tenantID, "action", action)
	}
	return allowed
}

// Invalidate drops the cached decision, call it after toggling a tenant.
func (a *TenantAuthorizer) Invalidate(tenantID int64) error {
	if a.cache == nil {
		return nil
	}
	return a.cache.Del(authCacheKeyPrefix + strconv.FormatInt(tenantID, 10))
}
