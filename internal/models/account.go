package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountSummary is the latest account-level snapshot from the backend.
type AccountSummary struct {
	Balance     decimal.Decimal `json:"balance"`
	Equity      decimal.Decimal `json:"equity"`
	BuyingPower decimal.Decimal `json:"buying_power"`
	Cash        decimal.Decimal `json:"cash"`
	Currency    string          `json:"currency,omitempty"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
