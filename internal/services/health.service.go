package services

import (
	"context"
	"fmt"
	"time"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthService struct {
	deps    map[string]Pinger
	timeout time.Duration
}

// NewHealthService checks the named dependencies; nil entries are skipped.
func NewHealthService(deps map[string]Pinger) *HealthService {
	clean := make(map[string]Pinger, len(deps))
	for name, p := range deps {
		if p != nil {
			clean[name] = p
		}
	}
	return &HealthService{deps: clean, timeout: 2 * time.Second}
}

// Get returns the first failing dependency, or nil when all respond.
func (s *HealthService) Get() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	for name, p := range s.deps {
		if err := p.Ping(ctx); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}
