// Package livematch decides what happens to each live-pushed transaction:
// merge into the visible list, raise the "new transactions available" counter,
// or hold in a bounded pending buffer for re-matching when the filter
// predicate later changes.
//
// The Matcher is a reducer over (event, predicate, page) with no network
// dependency; the owning service applies its outcomes to the visible list.
package livematch

import (
	"time"

	"github.com/whalefeed/whalefeed/internal/feed"
	"github.com/whalefeed/whalefeed/internal/filter"
)

// Outcome describes the effect of a single live event.
type Outcome struct {
	// Merge holds expanded view records to prepend to the visible list.
	// Only populated when the event matched the predicate on page 1.
	Merge []feed.ViewTransaction

	// NewArrivals is the increment for the "new transactions available"
	// counter. Every live arrival that was not merged counts, whether it
	// matched the predicate or not.
	NewArrivals int
}

// Reeval describes the effect of re-evaluating the pending buffer after a
// predicate change.
type Reeval struct {
	// Merge holds expanded views for buffered transactions that match the
	// new predicate, when the current page is 1.
	Merge []feed.ViewTransaction

	// NewAvailable is the rebuilt counter value: buffered entries that still
	// do not match, plus matching entries that could not be merged off
	// page 1.
	NewAvailable int
}

// Matcher owns the pending buffer and evaluates live events against the
// current predicate. It is not safe for concurrent use; the owning service
// serializes access.
type Matcher struct {
	expander *feed.Expander
	buffer   *Buffer
	now      func() time.Time
}

// MatcherOption configures a Matcher.
type MatcherOption func(*Matcher)

// WithBufferCapacity bounds the pending buffer. Default: DefaultBufferCapacity.
func WithBufferCapacity(n int) MatcherOption {
	return func(m *Matcher) {
		m.buffer = NewBuffer(n)
	}
}

// WithClock replaces the time source used for age evaluation. Intended for tests.
func WithClock(now func() time.Time) MatcherOption {
	return func(m *Matcher) {
		m.now = now
	}
}

// New creates a Matcher using the given expander for merged events.
func New(expander *feed.Expander, opts ...MatcherOption) *Matcher {
	m := &Matcher{
		expander: expander,
		buffer:   NewBuffer(DefaultBufferCapacity),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// OnEvent evaluates one live transaction against the active predicate and the
// current page:
//
//   - match on page 1: the transaction is expanded and returned for merging.
//   - match off page 1: nothing is merged; the arrival is counted.
//   - no match: the transaction is buffered (deduplicated, bounded) and the
//     arrival is counted.
func (m *Matcher) OnEvent(tx feed.Transaction, pred filter.Predicate, page int) Outcome {
	if pred.Matches(tx, m.now()) {
		if page == 1 {
			views := m.expander.ExpandOne(tx, pred.MinAmount)
			for i := range views {
				views[i].Fresh = true
			}
			return Outcome{Merge: views}
		}
		return Outcome{NewArrivals: 1}
	}

	m.buffer.Insert(tx)
	return Outcome{NewArrivals: 1}
}

// OnPredicateChange re-evaluates every buffered transaction against the new
// predicate. Matching entries leave the buffer: on page 1 they are expanded
// and returned for merging, otherwise they count as new-available. The
// counter is rebuilt from scratch; callers replace their current counter with
// Reeval.NewAvailable.
func (m *Matcher) OnPredicateChange(pred filter.Predicate, page int) Reeval {
	now := m.now()

	matched := m.buffer.Retain(func(tx feed.Transaction) bool {
		return !pred.Matches(tx, now)
	})

	result := Reeval{NewAvailable: m.buffer.Len()}
	for _, tx := range matched {
		if page == 1 {
			views := m.expander.ExpandOne(tx, pred.MinAmount)
			for i := range views {
				views[i].Fresh = true
			}
			result.Merge = append(result.Merge, views...)
		} else {
			result.NewAvailable++
		}
	}

	return result
}

// Pending returns the buffered transactions, most recent first.
func (m *Matcher) Pending() []feed.Transaction {
	return m.buffer.Items()
}

// PendingCount returns the number of buffered transactions.
func (m *Matcher) PendingCount() int {
	return m.buffer.Len()
}

// Reset drops every buffered transaction. Used by the jump-to-latest flow.
func (m *Matcher) Reset() {
	m.buffer.Clear()
}
