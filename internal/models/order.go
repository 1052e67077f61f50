package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order represents a broker-submitted instruction, usually derived from an
// accepted Signal.
type Order struct {
	ID     string `json:"id" validate:"required"`
	Symbol string `json:"symbol" validate:"required"`
	Side   string `json:"side" validate:"required,oneof=buy sell"`
	Type   string `json:"type" validate:"required,oneof=market limit stop stop_limit"`

	RequestedQty decimal.Decimal `json:"requested_qty"`
	FilledQty    decimal.Decimal `json:"filled_qty"`

	LimitPrice *decimal.Decimal `json:"limit_price,omitempty"`
	StopPrice  *decimal.Decimal `json:"stop_price,omitempty"`

	// AvgFillPrice is present if and only if FilledQty > 0.
	AvgFillPrice *decimal.Decimal `json:"avg_fill_price,omitempty"`

	RawStatus string `json:"status"`
	Status    Status `json:"canonical_status,omitempty"`

	SubmittedAt time.Time  `json:"submitted_at"`
	FilledAt    *time.Time `json:"filled_at,omitempty"`

	// SignalID links back to the originating signal; empty for manual orders.
	SignalID string `json:"signal_id,omitempty"`
}

func (o *Order) Key() string             { return o.ID }
func (o *Order) Kind() Kind              { return KindOrder }
func (o *Order) CanonicalStatus() Status { return o.Status }
func (o *Order) Instrument() string      { return o.Symbol }
func (o *Order) Direction() string       { return o.Side }
func (o *Order) StrategyRef() string     { return "" }
func (o *Order) Amount() decimal.Decimal { return o.RequestedQty }
func (o *Order) EventTime() time.Time    { return o.SubmittedAt }

func (o *Order) SearchFields() []string {
	return []string{o.ID, o.Symbol, o.SignalID}
}
