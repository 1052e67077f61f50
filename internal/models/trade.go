package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade represents a position lifecycle (open -> closed) aggregated from one
// or more order fills. Closed trades carry exit price, close time, and
// realized P&L together; open trades carry none of the three.
type Trade struct {
	ID     string `json:"id" validate:"required"`
	Symbol string `json:"symbol" validate:"required"`
	Action string `json:"action" validate:"required,oneof=BUY SELL"`

	Quantity   decimal.Decimal `json:"quantity"`
	EntryPrice decimal.Decimal `json:"entry_price"`

	ExitPrice   *decimal.Decimal `json:"exit_price,omitempty"`
	RealizedPnL *decimal.Decimal `json:"realized_pnl,omitempty"`

	OpenedAt time.Time  `json:"opened_at"`
	ClosedAt *time.Time `json:"closed_at,omitempty"`

	RawStatus string `json:"status"`
	Status    Status `json:"canonical_status,omitempty"`

	StrategyID string `json:"strategy_id,omitempty"`
}

func (t *Trade) Key() string             { return t.ID }
func (t *Trade) Kind() Kind              { return KindTrade }
func (t *Trade) CanonicalStatus() Status { return t.Status }
func (t *Trade) Instrument() string      { return t.Symbol }
func (t *Trade) Direction() string       { return t.Action }
func (t *Trade) StrategyRef() string     { return t.StrategyID }
func (t *Trade) Amount() decimal.Decimal { return t.Quantity }
func (t *Trade) EventTime() time.Time    { return t.OpenedAt }

func (t *Trade) SearchFields() []string {
	return []string{t.ID, t.Symbol, t.StrategyID}
}
