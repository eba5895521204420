// Package filterregistry manages the persisted filter predicate: validation,
// durable storage under a fixed key, and retrieval with a safe default.
package filterregistry

import (
	"context"
	"errors"

	"github.com/whalefeed/whalefeed/internal/filter"
	"github.com/whalefeed/whalefeed/internal/pkg/logger"
	"github.com/whalefeed/whalefeed/internal/pkg/validation"
)

// Service exposes validated access to the persisted filter predicate.
type Service interface {
	// Apply validates the predicate and persists it as the active filter set.
	Apply(ctx context.Context, pred filter.Predicate) error

	// Reset removes the persisted predicate, restoring the default.
	Reset(ctx context.Context) error

	// Current returns the persisted predicate, or the default when nothing
	// has been persisted or the persisted payload cannot be read. Storage
	// problems degrade to the default; they are logged, never fatal.
	Current(ctx context.Context) filter.Predicate
}

type service struct {
	storage Storage
}

var _ Service = (*service)(nil)

// Option configures the filterregistry service.
type Option func(*service)

// WithStorage sets the durable predicate storage. Without it, filters are
// process-local only.
func WithStorage(s Storage) Option {
	return func(svc *service) {
		svc.storage = s
	}
}

// New creates a filterregistry service.
func New(opts ...Option) *service {
	svc := &service{
		storage: nopStorage{},
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Apply implements Service.
func (s *service) Apply(ctx context.Context, pred filter.Predicate) error {
	if err := validation.Validate(pred); err != nil {
		return err
	}

	return s.storage.SaveFilters(ctx, pred)
}

// Reset implements Service.
func (s *service) Reset(ctx context.Context) error {
	return s.storage.ClearFilters(ctx)
}

// Current implements Service.
func (s *service) Current(ctx context.Context) filter.Predicate {
	pred, err := s.storage.LoadFilters(ctx)
	if err != nil {
		if !errors.Is(err, ErrNoFiltersSaved) {
			logger.Warn(ctx, "failed to load saved filters, using defaults", "error", err)
		}
		return filter.Default()
	}

	return pred
}
