package services

import (
	"errors"
	"fmt"

	"github.com/nimasrn/admissions-inbox/internal/repository"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrTenantMismatch  = errors.New("resource belongs to another tenant")
	ErrUnauthorized    = errors.New("tenant is not authorized")
	ErrInvalidSchedule = errors.New("invalid schedule")
	ErrStorage         = errors.New("storage failure")
	ErrDelivery        = errors.New("delivery failure")
)

// storageErr maps a repository error into the service taxonomy. A missing row
// becomes ErrNotFound, anything else is wrapped in ErrStorage keeping the cause.
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}

func invalidSchedule(reason error) error {
	return fmt.Errorf("%w: %w", ErrInvalidSchedule, reason)
}
