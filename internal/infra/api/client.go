// Package api implements the txquery.TransactionQuerier port against the
// whale-transaction REST query service.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/whalefeed/whalefeed/internal/filter"
	transporthttp "github.com/whalefeed/whalefeed/internal/pkg/transport/http"
	"github.com/whalefeed/whalefeed/internal/txquery"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
)

// ErrUnexpectedStatusCode indicates that the query service answered with a
// non-200 status. Any such response is a failure; there are no partial
// successes.
var ErrUnexpectedStatusCode = errors.New("unexpected status code")

// client queries the remote transaction service over HTTP.
type client struct {
	endpoint   string                // Base URL of the query service, including path
	httpClient *retryablehttp.Client // HTTP client with retry support
}

// Compile-time assertion that client implements txquery.TransactionQuerier.
var _ txquery.TransactionQuerier = (*client)(nil)

// QueryTransactions fetches one page of transactions. Every set predicate
// field is serialized into the query string so the server applies the same
// filters the client evaluates locally.
func (c *client) QueryTransactions(ctx context.Context, query txquery.QueryRequest) (txquery.QueryResponse, error) {
	endpoint, err := c.buildURL(query)
	if err != nil {
		return txquery.QueryResponse{}, err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return txquery.QueryResponse{}, err
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	res, err := c.httpClient.Do(req)
	if err != nil {
		return txquery.QueryResponse{}, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return txquery.QueryResponse{}, fmt.Errorf("%w: %d", ErrUnexpectedStatusCode, res.StatusCode)
	}

	var data txquery.QueryResponse
	if err := json.NewDecoder(res.Body).Decode(&data); err != nil {
		return txquery.QueryResponse{}, err
	}

	return data, nil
}

// buildURL serializes the request into the service's query-string contract.
// Unset predicate fields are omitted entirely rather than sent empty.
func (c *client) buildURL(query txquery.QueryRequest) (string, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", err
	}

	pred := query.Predicate

	params := u.Query()
	params.Set("page", strconv.Itoa(query.Page))
	params.Set("limit", strconv.Itoa(query.Limit))

	if pred.Search != "" {
		params.Set("search", pred.Search)
		if pred.SearchScope != "" {
			params.Set("searchType", pred.SearchScope)
		}
	}
	if pred.Type != "" && pred.Type != filter.TypeAll {
		params.Set("type", pred.Type)
	}
	if pred.Hotness != "" {
		params.Set("hotness", pred.Hotness)
	}
	if len(pred.Tags) > 0 {
		params.Set("tags", strings.Join(pred.Tags, ","))
	}
	if pred.MinAmount != "" {
		params.Set("amount", pred.MinAmount)
	}
	if pred.AgeMin != nil {
		params.Set("ageMin", formatFloat(*pred.AgeMin))
	}
	if pred.AgeMax != nil {
		params.Set("ageMax", formatFloat(*pred.AgeMax))
	}
	if pred.MarketCapMin != nil {
		params.Set("marketCapMin", formatFloat(*pred.MarketCapMin))
	}
	if pred.MarketCapMax != nil {
		params.Set("marketCapMax", formatFloat(*pred.MarketCapMax))
	}

	u.RawQuery = params.Encode()
	return u.String(), nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// NewClient creates a transaction query client for the given endpoint. Retry
// behavior and timeouts are configured through the transport options.
func NewClient(endpoint string, opts ...transporthttp.Option) *client {
	return &client{
		endpoint:   endpoint,
		httpClient: transporthttp.NewClient(opts...),
	}
}
