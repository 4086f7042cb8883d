package services

import (
	"context"
	"errors"
	"testing"

	"github.com/nimasrn/admissions-inbox/internal/repository"
	"github.com/stretchr/testify/assert"
)

func TestTenancyValidator_Validate(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		owner   int64
		err     error
		wantErr error
	}{
		{name: "owner matches", owner: 7},
		{name: "other tenant", owner: 8, wantErr: ErrTenantMismatch},
		{name: "missing conversation", err: repository.ErrNotFound, wantErr: ErrNotFound},
		{name: "storage failure", err: errors.New("connection reset"), wantErr: ErrStorage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lookup := new(MockOwnerLookup)
			lookup.On("TenantOf", ctx, int64(1)).Return(tt.owner, tt.err)

			err := NewTenancyValidator(lookup).Validate(ctx, 1, 7)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			lookup.AssertExpectations(t)
		})
	}
}

func TestStorageErr_KeepsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := storageErr("write", cause)
	assert.ErrorIs(t, err, ErrStorage)
	assert.ErrorIs(t, err, cause)
	assert.Nil(t, storageErr("noop", nil))
}
