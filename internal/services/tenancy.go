package services

import (
	"context"
)

type ConversationOwnerLookup interface {
	TenantOf(ctx context.Context, conversationID int64) (int64, error)
}

// Validator checks that a conversation exists and is owned by a tenant.
type Validator interface {
	Validate(ctx context.Context, conversationID, tenantID int64) error
}

type TenancyValidator struct {
	conversations ConversationOwnerLookup
}

func NewTenancyValidator(conversations ConversationOwnerLookup) *TenancyValidator {
	return &TenancyValidator{conversations: conversations}
}

// Validate returns nil when conversationID belongs to tenantID, ErrNotFound
// when it does not exist and ErrTenantMismatch when another tenant owns it.
// It never writes.
func (v *TenancyValidator) Validate(ctx context.Context, conversationID, tenantID int64) error {
	owner, err := v.conversations.TenantOf(ctx, conversationID)
	if err != nil {
		return storageErr("lookup conversation owner", err)
	}
	if owner != tenantID {
		return ErrTenantMismatch
	}
	return nil
}
