package filterregistry

import (
	"context"
	"errors"

	"github.com/whalefeed/whalefeed/internal/filter"
)

// ErrNoFiltersSaved is returned by LoadFilters when no predicate has been
// persisted yet.
var ErrNoFiltersSaved = errors.New("no saved filters found")

// Storage persists the active filter predicate under a fixed key in a durable
// key-value store.
//
// The persisted predicate is read once at startup and rewritten on every
// change, so implementations should favor simple overwrite semantics.
type Storage interface {
	// SaveFilters overwrites the persisted predicate.
	//
	// ctx controls cancellation and deadlines for any underlying I/O.
	SaveFilters(ctx context.Context, pred filter.Predicate) error

	// LoadFilters returns the persisted predicate.
	//
	// It returns ErrNoFiltersSaved when nothing has been persisted. A
	// corrupt payload is surfaced as an error; callers fall back to the
	// default predicate rather than failing.
	LoadFilters(ctx context.Context) (filter.Predicate, error)

	// ClearFilters removes the persisted predicate, if any.
	ClearFilters(ctx context.Context) error
}

// nopStorage is a no-op Storage used when persistence is not configured.
// Filters then live only for the lifetime of the process.
type nopStorage struct{}

func (nopStorage) SaveFilters(context.Context, filter.Predicate) error {
	return nil
}

func (nopStorage) LoadFilters(context.Context) (filter.Predicate, error) {
	return filter.Predicate{}, ErrNoFiltersSaved
}

func (nopStorage) ClearFilters(context.Context) error {
	return nil
}
