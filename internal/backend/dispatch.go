package backend

import (
	"encoding/json"
	"log"
	"time"

	"tradedeck/internal/metrics"
	"tradedeck/internal/models"
)

// Reconciler is the narrow surface the adapters write through. Keeping it to
// these operations is what makes the transports swappable without touching
// reconciliation or query logic.
type Reconciler interface {
	ApplySnapshot(kind models.Kind, records []models.Record, asOf time.Time)
	ApplyIncremental(kind models.Kind, rec models.Record, asOf time.Time)
	SetAccount(summary *models.AccountSummary, asOf time.Time)
}

// Dispatcher routes decoded push envelopes into the reconciler. Unknown
// event kinds and malformed payloads are logged and discarded; they never
// crash the connection.
type Dispatcher struct {
	rec Reconciler
}

// NewDispatcher creates a dispatcher writing into the given reconciler.
func NewDispatcher(rec Reconciler) *Dispatcher {
	return &Dispatcher{rec: rec}
}

// Handle implements Handler.
func (d *Dispatcher) Handle(event string, payload json.RawMessage, asOf time.Time) {
	switch event {
	case models.EventNewSignal:
		d.applyRecord(models.KindSignal, event, payload, asOf)
	case models.EventOrderUpdate:
		d.applyRecord(models.KindOrder, event, payload, asOf)
	case models.EventTradeUpdate:
		d.applyRecord(models.KindTrade, event, payload, asOf)
	case models.EventAccountUpdate:
		summary, err := DecodeAccount(payload)
		if err != nil {
			log.Printf("dispatch: dropping malformed %s payload: %v", event, err)
			return
		}
		d.rec.SetAccount(summary, asOf)
	default:
		log.Printf("dispatch: ignoring unknown event kind %q", event)
		metrics.UnknownEvents.Inc()
	}
}

func (d *Dispatcher) applyRecord(kind models.Kind, event string, payload json.RawMessage, asOf time.Time) {
	rec, err := DecodeRecord(kind, payload)
	if err != nil {
		log.Printf("dispatch: dropping malformed %s payload: %v", event, err)
		return
	}
	d.rec.ApplyIncremental(kind, rec, asOf)
}
