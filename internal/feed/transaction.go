// Package feed defines the whale-transaction domain records and the expansion
// of compound buy+sell server records into independent single-sided view
// records.
package feed

import "time"

// Transaction side markers as reported by the transaction query service.
const (
	SideBuy  = "buy"
	SideSell = "sell"
	SideBoth = "both"
)

// Token identifies one side of a swap: the token contract, its display
// identity and the USD notional moved through it.
type Token struct {
	Address   string  `json:"address"`
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name"`
	AmountUSD float64 `json:"usdAmount"`
}

// Whale identifies the wallet behind a transaction, along with the display
// labels attached to it (e.g. "smart money", "early holder").
type Whale struct {
	Address string   `json:"address"`
	Labels  []string `json:"labels"`
}

// Legs describes which sides of a compound "both" record are present and the
// USD amount moved on each present side.
type Legs struct {
	HasBuy     bool    `json:"hasBuy"`
	HasSell    bool    `json:"hasSell"`
	BuyAmount  float64 `json:"buyAmount"`
	SellAmount float64 `json:"sellAmount"`
}

// Transaction is a whale swap event as received from the transaction query
// service or the live feed.
//
// Type is one of SideBuy, SideSell or SideBoth. For SideBoth records the Both
// sub-record describes the individual legs; such records are never rendered
// directly and must first pass through the Expander.
//
// Token ages are reported in minutes since the token was created. Market caps
// are raw USD snapshots; BuyMarketCap/SellMarketCap are side-specific and fall
// back to MarketCap when zero.
type Transaction struct {
	ID            string    `json:"id"`
	Signature     string    `json:"signature"`
	Timestamp     time.Time `json:"timestamp"`
	Type          string    `json:"type"`
	TokenIn       Token     `json:"tokenIn"`
	TokenOut      Token     `json:"tokenOut"`
	Whale         Whale     `json:"whale"`
	HotnessScore  int       `json:"hotnessScore"`
	BuyAmount     float64   `json:"buyAmount"`
	SellAmount    float64   `json:"sellAmount"`
	MarketCap     float64   `json:"marketCap"`
	BuyMarketCap  float64   `json:"buyMarketCap"`
	SellMarketCap float64   `json:"sellMarketCap"`
	TokenInAge    float64   `json:"tokenInAge"`
	TokenOutAge   float64   `json:"tokenOutAge"`
	AgeMinutes    float64   `json:"age"`
	Both          *Legs     `json:"both,omitempty"`
}

// Amount returns the USD amount for the transaction's resolved side:
// BuyAmount for buys, SellAmount for sells, and 0 otherwise.
func (t Transaction) Amount() float64 {
	switch t.Type {
	case SideBuy:
		return t.BuyAmount
	case SideSell:
		return t.SellAmount
	default:
		return 0
	}
}

// ResolvedMarketCap returns the side-specific market-cap snapshot when one is
// present, falling back to the flat MarketCap field.
func (t Transaction) ResolvedMarketCap() float64 {
	switch {
	case t.Type == SideBuy && t.BuyMarketCap > 0:
		return t.BuyMarketCap
	case t.Type == SideSell && t.SellMarketCap > 0:
		return t.SellMarketCap
	default:
		return t.MarketCap
	}
}

// ViewTransaction is a single-sided record derived from a Transaction, ready
// for rendering. A plain buy/sell record maps 1:1; a "both" record produces
// one view per present leg with a derived id (`<id>_buy` / `<id>_sell`).
type ViewTransaction struct {
	// ID is the stable view identity: the source id, suffixed with the leg
	// for views derived from a compound record.
	ID string

	// Source is the server record this view was derived from.
	Source Transaction

	// Side is the resolved side, SideBuy or SideSell.
	Side string

	// Amount is the USD amount of the resolved side.
	Amount float64

	// Age is the formatted age of the traded token.
	Age string

	// Timestamp is the source timestamp, defaulted to the expansion time
	// when the server omitted it.
	Timestamp time.Time

	// Fresh marks a view that was just merged from the live feed and still
	// carries the transient "new" visual state.
	Fresh bool
}
