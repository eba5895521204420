package feed

import (
	"strconv"
	"strings"
	"time"
)

// ParseAmount parses a user-supplied USD amount filter string. Decorations
// commonly present in filter values (">", "$", "," and surrounding spaces)
// are stripped before parsing.
//
// It returns the parsed value and true on success. Empty or malformed input
// returns false, which callers must treat as "no threshold set" so that a bad
// filter value can never break evaluation.
func ParseAmount(s string) (float64, bool) {
	cleaned := strings.NewReplacer(">", "", "$", "", ",", "").Replace(s)
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return 0, false
	}

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}

	return value, true
}

// Expander derives single-sided view records from server transaction records.
//
// It is deterministic: expanding the same input twice yields the same output,
// and a record that is already single-sided passes through unchanged apart
// from its resolved age and defaulted timestamp.
type Expander struct {
	ages AgeFormatter
	now  func() time.Time
}

// ExpanderOption configures an Expander.
type ExpanderOption func(*Expander)

// WithAgeFormatter replaces the formatter used to render token ages.
func WithAgeFormatter(f AgeFormatter) ExpanderOption {
	return func(e *Expander) {
		e.ages = f
	}
}

// WithClock replaces the time source used to default missing timestamps.
// Intended for tests.
func WithClock(now func() time.Time) ExpanderOption {
	return func(e *Expander) {
		e.now = now
	}
}

// NewExpander creates an Expander with the default age formatter and clock.
func NewExpander(opts ...ExpanderOption) *Expander {
	e := &Expander{
		ages: defaultAgeFormatter{},
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Expand derives view records for every input record, preserving input order.
//
// Compound ("both") records contribute one view per present leg, buy leg
// first, each filtered independently against amountThreshold. Plain records
// pass through regardless of the threshold; the query service already applied
// it server-side. An empty or malformed threshold disables leg filtering.
func (e *Expander) Expand(records []Transaction, amountThreshold string) []ViewTransaction {
	views := make([]ViewTransaction, 0, len(records))
	for _, record := range records {
		views = append(views, e.ExpandOne(record, amountThreshold)...)
	}
	return views
}

// ExpandOne derives the view records for a single server record. It returns
// zero, one or two views: zero when both legs of a compound record fall under
// the threshold, two when both legs are present and pass.
func (e *Expander) ExpandOne(record Transaction, amountThreshold string) []ViewTransaction {
	threshold, hasThreshold := ParseAmount(amountThreshold)

	if record.Type == SideBoth && record.Both != nil {
		views := make([]ViewTransaction, 0, 2)

		if record.Both.HasBuy && (!hasThreshold || record.Both.BuyAmount >= threshold) {
			views = append(views, e.legView(record, SideBuy, record.Both.BuyAmount, record.TokenOutAge))
		}
		if record.Both.HasSell && (!hasThreshold || record.Both.SellAmount >= threshold) {
			views = append(views, e.legView(record, SideSell, record.Both.SellAmount, record.TokenInAge))
		}

		return views
	}

	return []ViewTransaction{e.plainView(record)}
}

// legView builds the view for one leg of a compound record. The buy leg ages
// by the token bought (tokenOut), the sell leg by the token sold (tokenIn).
func (e *Expander) legView(record Transaction, side string, amount, ageMinutes float64) ViewTransaction {
	return ViewTransaction{
		ID:        record.ID + "_" + side,
		Source:    record,
		Side:      side,
		Amount:    amount,
		Age:       e.ages.FormatAge(ageMinutes),
		Timestamp: e.timestampOf(record),
	}
}

// plainView passes a single-sided record through, resolving its age from the
// side-appropriate field and defaulting a missing timestamp.
func (e *Expander) plainView(record Transaction) ViewTransaction {
	var ageMinutes float64
	switch record.Type {
	case SideBuy:
		ageMinutes = record.TokenOutAge
	case SideSell:
		ageMinutes = record.TokenInAge
	default:
		ageMinutes = record.AgeMinutes
	}

	return ViewTransaction{
		ID:        record.ID,
		Source:    record,
		Side:      record.Type,
		Amount:    record.Amount(),
		Age:       e.ages.FormatAge(ageMinutes),
		Timestamp: e.timestampOf(record),
	}
}

func (e *Expander) timestampOf(record Transaction) time.Time {
	if record.Timestamp.IsZero() {
		return e.now()
	}
	return record.Timestamp
}
