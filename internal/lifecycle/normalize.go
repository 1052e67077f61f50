// Package lifecycle canonicalizes origin-specific status vocabularies and
// defines the valid transitions between canonical states.
package lifecycle

import (
	"strings"

	"tradedeck/internal/models"
)

// Mapping tables are data, not control flow: extending the vocabulary for a
// new backend means adding rows here, not touching call sites. Canonical
// values map to themselves so Normalize is idempotent.

var signalStatuses = map[string]models.Status{
	"pending":           models.StatusPending,
	"new":               models.StatusPending,
	"generated":         models.StatusPending,
	"awaiting_approval": models.StatusPending,

	"accepted":  models.StatusAccepted,
	"approved":  models.StatusAccepted,
	"active":    models.StatusAccepted,
	"submitted": models.StatusAccepted,

	"partially_filled": models.StatusPartiallyFilled,
	"partial":          models.StatusPartiallyFilled,

	"filled":   models.StatusFilled,
	"executed": models.StatusFilled,
	"complete": models.StatusFilled,
	"done":     models.StatusFilled,

	"rejected": models.StatusRejected,
	"denied":   models.StatusRejected,
	"declined": models.StatusRejected,

	"canceled":  models.StatusCanceled,
	"cancelled": models.StatusCanceled,
	"expired":   models.StatusCanceled,
	"skipped":   models.StatusCanceled,

	"error":  models.StatusError,
	"failed": models.StatusError,

	"unknown": models.StatusUnknown,
}

var orderStatuses = map[string]models.Status{
	"pending":     models.StatusPending,
	"pending_new": models.StatusPending,
	"new":         models.StatusPending,
	"submitted":   models.StatusPending,

	"accepted": models.StatusAccepted,
	"open":     models.StatusAccepted,
	"working":  models.StatusAccepted,
	"live":     models.StatusAccepted,

	"partially_filled": models.StatusPartiallyFilled,
	"partial_fill":     models.StatusPartiallyFilled,
	"partial":          models.StatusPartiallyFilled,

	"filled":   models.StatusFilled,
	"executed": models.StatusFilled,

	"canceled":       models.StatusCanceled,
	"cancelled":      models.StatusCanceled,
	"pending_cancel": models.StatusCanceled,
	"expired":        models.StatusCanceled,
	"replaced":       models.StatusCanceled,

	"rejected": models.StatusRejected,

	"error":     models.StatusError,
	"failed":    models.StatusError,
	"suspended": models.StatusError,

	"unknown": models.StatusUnknown,
}

var tradeStatuses = map[string]models.Status{
	"open":    models.StatusOpen,
	"active":  models.StatusOpen,
	"holding": models.StatusOpen,

	"closed":     models.StatusClosed,
	"exited":     models.StatusClosed,
	"completed":  models.StatusClosed,
	"liquidated": models.StatusClosed,

	"unknown": models.StatusUnknown,
}

var vocabularies = map[models.Kind]map[string]models.Status{
	models.KindSignal: signalStatuses,
	models.KindOrder:  orderStatuses,
	models.KindTrade:  tradeStatuses,
}

// Normalize maps a raw status string to its canonical state. It is total:
// every input yields a defined output, with unrecognized values falling back
// to StatusUnknown rather than an error. Raw values are matched
// case-insensitively.
func Normalize(kind models.Kind, raw string) models.Status {
	vocab, ok := vocabularies[kind]
	if !ok {
		return models.StatusUnknown
	}
	if status, ok := vocab[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return status
	}
	return models.StatusUnknown
}
