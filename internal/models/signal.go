package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Signal represents a candidate trade suggestion originated by the bot
// backend, subject to user approval or rejection.
type Signal struct {
	ID         string `json:"id" validate:"required"`
	Symbol     string `json:"symbol" validate:"required"`
	Action     string `json:"action" validate:"required,oneof=BUY SELL"`
	StrategyID string `json:"strategy_id,omitempty"`

	// RawStatus is the origin-specific vocabulary as delivered on the wire;
	// Status is its canonical form and is what the rest of the service reads.
	RawStatus string `json:"status"`
	Status    Status `json:"canonical_status,omitempty"`

	// Confidence is 0-100 when the strategy reports one.
	Confidence *float64 `json:"confidence,omitempty" validate:"omitempty,gte=0,lte=100"`

	// Quantity is zero when the backend sizes the position automatically.
	Quantity  decimal.Decimal `json:"quantity,omitempty"`
	CreatedAt time.Time       `json:"created_at"`

	// Message carries the rejection or error reason, when present.
	Message string `json:"message,omitempty"`
}

func (s *Signal) Key() string             { return s.ID }
func (s *Signal) Kind() Kind              { return KindSignal }
func (s *Signal) CanonicalStatus() Status { return s.Status }
func (s *Signal) Instrument() string      { return s.Symbol }
func (s *Signal) Direction() string       { return s.Action }
func (s *Signal) StrategyRef() string     { return s.StrategyID }
func (s *Signal) Amount() decimal.Decimal { return s.Quantity }
func (s *Signal) EventTime() time.Time    { return s.CreatedAt }

func (s *Signal) SearchFields() []string {
	return []string{s.ID, s.Symbol, s.StrategyID}
}
