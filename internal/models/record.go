package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Record is the kind-agnostic view of a synchronized entity. The
// reconciliation and query engines operate on this interface so the same
// merge and filter logic serves signals, orders, and trades.
type Record interface {
	// Key is the stable identifier assigned by the origin; unique per kind.
	Key() string
	Kind() Kind
	CanonicalStatus() Status
	Instrument() string
	// Direction is BUY/SELL for signals and trades, buy/sell for orders.
	Direction() string
	// StrategyRef is the linked strategy id, or empty when not strategy-bound.
	StrategyRef() string
	// Amount is the record's primary quantity, used for range filtering.
	Amount() decimal.Decimal
	// EventTime is when the record entered its lifecycle at the origin.
	EventTime() time.Time
	// SearchFields are the strings free-text search matches against.
	SearchFields() []string
}
