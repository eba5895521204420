// Package txquery orchestrates page-bounded fetches against the transaction
// query service: it serializes the active filter predicate into a query,
// expands the returned records into view transactions, and derives the
// pagination cursor state.
package txquery

import (
	"context"

	"github.com/whalefeed/whalefeed/internal/feed"
	"github.com/whalefeed/whalefeed/internal/filter"
)

// Page is the expanded, render-ready result of one fetch.
type Page struct {
	// Items are the expanded view records for this page, in server order.
	Items []feed.ViewTransaction

	// Total is the server-side total count for the predicate.
	Total int

	// HasMore reports whether pages beyond this one exist:
	// page * limit < total.
	HasMore bool
}

// Service fetches and expands transaction pages.
type Service interface {
	// FetchPage retrieves the given page under the predicate and runs the
	// results through the expander with the predicate's amount threshold.
	//
	// Failures are returned as-is; the caller owns the visible list and
	// decides whether to clear or keep it.
	FetchPage(ctx context.Context, page, limit int, pred filter.Predicate) (Page, error)
}

type service struct {
	querier  TransactionQuerier
	expander *feed.Expander
}

var _ Service = (*service)(nil)

// Option configures the txquery service.
type Option func(*service)

// WithExpander replaces the expander used on fetched records.
func WithExpander(e *feed.Expander) Option {
	return func(s *service) {
		s.expander = e
	}
}

// New creates a txquery service over the given querier port.
func New(querier TransactionQuerier, opts ...Option) *service {
	s := &service{
		querier:  querier,
		expander: feed.NewExpander(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchPage implements Service.
func (s *service) FetchPage(ctx context.Context, page, limit int, pred filter.Predicate) (Page, error) {
	res, err := s.querier.QueryTransactions(ctx, QueryRequest{
		Page:      page,
		Limit:     limit,
		Predicate: pred,
	})
	if err != nil {
		return Page{}, err
	}

	return Page{
		Items:   s.expander.Expand(res.Transactions, pred.MinAmount),
		Total:   res.Total,
		HasMore: page*limit < res.Total,
	}, nil
}
