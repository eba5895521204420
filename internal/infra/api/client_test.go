package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/whalefeed/whalefeed/internal/filter"
	"github.com/whalefeed/whalefeed/internal/txquery"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(f float64) *float64 { return &f }

func TestClient_QueryTransactions(t *testing.T) {
	t.Run("serializes every active filter into the query string", func(t *testing.T) {
		var captured *http.Request
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			captured = r.Clone(r.Context())
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"transactions": [], "total": 0, "totalPages": 0, "page": 1}`))
		}))
		defer srv.Close()

		c := NewClient(srv.URL + "/api/transactions")

		_, err := c.QueryTransactions(t.Context(), txquery.QueryRequest{
			Page:  2,
			Limit: 20,
			Predicate: filter.Predicate{
				Search:       "bonk",
				SearchScope:  "symbol",
				Type:         filter.TypeBuy,
				Hotness:      filter.HotnessHigh,
				Tags:         []string{"whale", "insider"},
				MinAmount:    ">$1,000",
				AgeMin:       floatPtr(5),
				AgeMax:       floatPtr(120),
				MarketCapMin: floatPtr(50000),
				MarketCapMax: floatPtr(2000000),
			},
		})
		require.NoError(t, err)

		require.NotNil(t, captured)
		assert.Equal(t, "/api/transactions", captured.URL.Path)

		params := captured.URL.Query()
		assert.Equal(t, "2", params.Get("page"))
		assert.Equal(t, "20", params.Get("limit"))
		assert.Equal(t, "bonk", params.Get("search"))
		assert.Equal(t, "symbol", params.Get("searchType"))
		assert.Equal(t, "buy", params.Get("type"))
		assert.Equal(t, "high", params.Get("hotness"))
		assert.Equal(t, "whale,insider", params.Get("tags"))
		assert.Equal(t, ">$1,000", params.Get("amount"))
		assert.Equal(t, "5", params.Get("ageMin"))
		assert.Equal(t, "120", params.Get("ageMax"))
		assert.Equal(t, "50000", params.Get("marketCapMin"))
		assert.Equal(t, "2000000", params.Get("marketCapMax"))

		assert.NotEmpty(t, captured.Header.Get("X-Request-ID"))
	})

	t.Run("omits unset filters", func(t *testing.T) {
		var captured *http.Request
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			captured = r.Clone(r.Context())
			_, _ = w.Write([]byte(`{"transactions": [], "total": 0, "totalPages": 0, "page": 1}`))
		}))
		defer srv.Close()

		c := NewClient(srv.URL)

		_, err := c.QueryTransactions(t.Context(), txquery.QueryRequest{
			Page:      1,
			Limit:     20,
			Predicate: filter.Default(),
		})
		require.NoError(t, err)

		params := captured.URL.Query()
		assert.Equal(t, "1", params.Get("page"))
		assert.False(t, params.Has("search"))
		assert.False(t, params.Has("type"), `"all" is the server default and is not sent`)
		assert.False(t, params.Has("hotness"))
		assert.False(t, params.Has("tags"))
		assert.False(t, params.Has("amount"))
		assert.False(t, params.Has("ageMin"))
		assert.False(t, params.Has("marketCapMin"))
	})

	t.Run("decodes the response payload", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{
				"transactions": [
					{"id": "tx1", "signature": "sig1", "type": "buy", "buyAmount": 1500, "hotnessScore": 9}
				],
				"total": 25,
				"totalPages": 2,
				"page": 1,
				"queryTime": 12.5
			}`))
		}))
		defer srv.Close()

		c := NewClient(srv.URL)

		res, err := c.QueryTransactions(t.Context(), txquery.QueryRequest{Page: 1, Limit: 20})
		require.NoError(t, err)

		assert.Equal(t, 25, res.Total)
		assert.Equal(t, 2, res.TotalPages)
		require.Len(t, res.Transactions, 1)
		assert.Equal(t, "tx1", res.Transactions[0].ID)
		assert.Equal(t, 9, res.Transactions[0].HotnessScore)
		assert.InDelta(t, 12.5, res.QueryTimeMS, 0.001)
	})

	t.Run("fails on any non-200 status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		}))
		defer srv.Close()

		c := NewClient(srv.URL)

		_, err := c.QueryTransactions(t.Context(), txquery.QueryRequest{Page: 1, Limit: 20})

		assert.ErrorIs(t, err, ErrUnexpectedStatusCode)
	})
}
