// Package filter defines the combined set of user-chosen transaction filters
// and its evaluation against individual transactions.
//
// The Predicate is the single source of truth consulted both when building
// queries for the transaction query service and when re-evaluating live-pushed
// events on the client side. The two evaluations must agree, so Matches
// mirrors the server contract exactly.
package filter

import (
	"strings"
	"time"

	"github.com/whalefeed/whalefeed/internal/feed"
)

// Transaction type filter values.
const (
	TypeAll  = "all"
	TypeBuy  = "buy"
	TypeSell = "sell"
)

// Hotness buckets. Scores are bucketed as high [8,10], medium [5,7] and
// low [1,4]; a score of 0 belongs to no bucket.
const (
	HotnessHigh   = "high"
	HotnessMedium = "medium"
	HotnessLow    = "low"
)

// Predicate is the combined set of active filters, evaluated as a boolean
// test against a transaction. The zero value (or Default()) matches
// everything: every filter is a no-op when unset.
//
// Age bounds are minutes since the transaction timestamp. Market-cap bounds
// are raw USD; any "K" convention belongs to the entry surface, never here.
type Predicate struct {
	Search       string   `json:"search,omitempty"`
	SearchScope  string   `json:"searchScope,omitempty"`
	Type         string   `json:"type,omitempty" validate:"omitempty,oneof=all buy sell"`
	Hotness      string   `json:"hotness,omitempty" validate:"omitempty,oneof=high medium low"`
	Tags         []string `json:"tags,omitempty"`
	MinAmount    string   `json:"minAmount,omitempty"`
	AgeMin       *float64 `json:"ageMin,omitempty" validate:"omitempty,gte=0"`
	AgeMax       *float64 `json:"ageMax,omitempty" validate:"omitempty,gte=0"`
	MarketCapMin *float64 `json:"marketCapMin,omitempty" validate:"omitempty,gte=0"`
	MarketCapMax *float64 `json:"marketCapMax,omitempty" validate:"omitempty,gte=0"`
}

// Default returns the all-unset predicate.
func Default() Predicate {
	return Predicate{Type: TypeAll}
}

// IsZero reports whether no filter is active.
func (p Predicate) IsZero() bool {
	return p.Search == "" &&
		(p.Type == "" || p.Type == TypeAll) &&
		p.Hotness == "" &&
		len(p.Tags) == 0 &&
		p.MinAmount == "" &&
		p.AgeMin == nil && p.AgeMax == nil &&
		p.MarketCapMin == nil && p.MarketCapMax == nil
}

// Matches reports whether the transaction passes every active filter.
//
// It is pure: no hidden state, no side effects, and identical arguments always
// produce the same result. The now argument anchors the age computation.
func (p Predicate) Matches(tx feed.Transaction, now time.Time) bool {
	return p.matchesSearch(tx) &&
		p.matchesType(tx) &&
		p.matchesHotness(tx) &&
		p.matchesTags(tx) &&
		p.matchesAmount(tx) &&
		p.matchesAge(tx, now) &&
		p.matchesMarketCap(tx)
}

// matchesSearch checks the search text as a case-insensitive substring of the
// token-in/token-out symbols and addresses, OR-combined across the four
// fields. The search scope only narrows the server-side query; client-side
// evaluation always spans all four fields.
func (p Predicate) matchesSearch(tx feed.Transaction) bool {
	if p.Search == "" {
		return true
	}

	needle := strings.ToLower(p.Search)
	for _, field := range []string{
		tx.TokenIn.Symbol,
		tx.TokenOut.Symbol,
		tx.TokenIn.Address,
		tx.TokenOut.Address,
	} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}

	return false
}

func (p Predicate) matchesType(tx feed.Transaction) bool {
	if p.Type == "" || p.Type == TypeAll {
		return true
	}
	return tx.Type == p.Type
}

func (p Predicate) matchesHotness(tx feed.Transaction) bool {
	switch p.Hotness {
	case HotnessHigh:
		return tx.HotnessScore >= 8 && tx.HotnessScore <= 10
	case HotnessMedium:
		return tx.HotnessScore >= 5 && tx.HotnessScore <= 7
	case HotnessLow:
		return tx.HotnessScore >= 1 && tx.HotnessScore <= 4
	default:
		return true
	}
}

// matchesTags passes if any whale label contains any selected tag,
// case-insensitively.
func (p Predicate) matchesTags(tx feed.Transaction) bool {
	if len(p.Tags) == 0 {
		return true
	}

	for _, label := range tx.Whale.Labels {
		lowered := strings.ToLower(label)
		for _, tag := range p.Tags {
			if strings.Contains(lowered, strings.ToLower(tag)) {
				return true
			}
		}
	}

	return false
}

// matchesAmount compares the transaction's resolved side amount against the
// parsed minimum. A malformed threshold fails closed: the filter is ignored.
func (p Predicate) matchesAmount(tx feed.Transaction) bool {
	threshold, ok := feed.ParseAmount(p.MinAmount)
	if !ok {
		return true
	}
	return tx.Amount() >= threshold
}

func (p Predicate) matchesAge(tx feed.Transaction, now time.Time) bool {
	if p.AgeMin == nil && p.AgeMax == nil {
		return true
	}

	ageMinutes := now.Sub(tx.Timestamp).Minutes()
	if p.AgeMin != nil && ageMinutes < *p.AgeMin {
		return false
	}
	if p.AgeMax != nil && ageMinutes > *p.AgeMax {
		return false
	}
	return true
}

func (p Predicate) matchesMarketCap(tx feed.Transaction) bool {
	if p.MarketCapMin == nil && p.MarketCapMax == nil {
		return true
	}

	mcap := tx.ResolvedMarketCap()
	if p.MarketCapMin != nil && mcap < *p.MarketCapMin {
		return false
	}
	if p.MarketCapMax != nil && mcap > *p.MarketCapMax {
		return false
	}
	return true
}
