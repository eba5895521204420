package txquery

import (
	"context"

	"github.com/whalefeed/whalefeed/internal/feed"
	"github.com/whalefeed/whalefeed/internal/filter"
)

// QueryRequest describes one page-bounded query against the transaction query
// service. Every set field of the predicate is serialized into the upstream
// query by the adapter.
type QueryRequest struct {
	// Page is the 1-based page number.
	Page int

	// Limit is the fixed page size.
	Limit int

	// Predicate carries the active filters to reproduce server-side.
	Predicate filter.Predicate
}

// QueryResponse is the raw upstream result for one page.
type QueryResponse struct {
	Transactions []feed.Transaction `json:"transactions"`
	Total        int                `json:"total"`
	TotalPages   int                `json:"totalPages"`
	Page         int                `json:"page"`
	QueryTimeMS  float64            `json:"queryTime,omitempty"`
}

// TransactionQuerier is the port to the remote transaction query service.
//
// Implementations translate the request into the upstream wire format and
// must return an error for any non-success upstream status; they never
// partially succeed.
type TransactionQuerier interface {
	// QueryTransactions fetches one page of transactions matching the
	// request's predicate.
	//
	// ctx controls cancellation and deadlines for the underlying I/O.
	QueryTransactions(ctx context.Context, req QueryRequest) (QueryResponse, error)
}
