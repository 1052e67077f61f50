package store

import (
	"fmt"

	"tradedeck/internal/models"
)

// validateRecord rejects records that are structurally malformed or violate
// a cross-field invariant. Rejected records are dropped with a diagnostic by
// the caller; a single bad event must never stop future updates.
func (e *Engine) validateRecord(rec models.Record) error {
	if rec == nil || rec.Key() == "" {
		return fmt.Errorf("missing id")
	}
	if err := e.validate.Struct(rec); err != nil {
		return err
	}

	switch r := rec.(type) {
	case *models.Order:
		return validateOrder(r)
	case *models.Trade:
		return validateTrade(r)
	}
	return nil
}

func validateOrder(o *models.Order) error {
	if o.RequestedQty.Sign() <= 0 {
		return fmt.Errorf("requested_qty must be positive, got %s", o.RequestedQty)
	}
	if o.FilledQty.Sign() < 0 {
		return fmt.Errorf("filled_qty must not be negative, got %s", o.FilledQty)
	}
	if o.FilledQty.GreaterThan(o.RequestedQty) {
		return fmt.Errorf("filled_qty %s exceeds requested_qty %s", o.FilledQty, o.RequestedQty)
	}
	if o.FilledQty.Sign() > 0 && o.AvgFillPrice == nil {
		return fmt.Errorf("avg_fill_price missing with filled_qty %s", o.FilledQty)
	}
	if o.FilledQty.Sign() == 0 && o.AvgFillPrice != nil {
		return fmt.Errorf("avg_fill_price present with zero filled_qty")
	}
	return nil
}

func validateTrade(t *models.Trade) error {
	if t.Quantity.Sign() <= 0 {
		return fmt.Errorf("quantity must be positive, got %s", t.Quantity)
	}

	// Exit price, close time, and realized P&L travel together: a closed
	// trade is fully populated, an open one carries none of the three.
	closedFields := 0
	if t.ExitPrice != nil {
		closedFields++
	}
	if t.ClosedAt != nil {
		closedFields++
	}
	if t.RealizedPnL != nil {
		closedFields++
	}
	if closedFields != 0 && closedFields != 3 {
		return fmt.Errorf("partial close: exit_price, closed_at, realized_pnl must be set together")
	}
	if t.Status == models.StatusClosed && closedFields != 3 {
		return fmt.Errorf("closed trade missing exit_price, closed_at, or realized_pnl")
	}
	if t.Status == models.StatusOpen && closedFields != 0 {
		return fmt.Errorf("open trade carries close fields")
	}
	return nil
}
