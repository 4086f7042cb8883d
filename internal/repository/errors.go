package repository

import "errors"

var (
	// ErrNotFound is returned when a row does not exist, or a conditional
	// update matched nothing because the row is gone.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateAPIKey is returned when a tenant api key is already taken.
	ErrDuplicateAPIKey = errors.New("api key already exists")
)
