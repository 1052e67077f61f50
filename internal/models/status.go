package models

// Status is the canonical lifecycle state used uniformly across the service,
// independent of the origin-specific status vocabulary.
type Status string

const (
	StatusPending         Status = "pending"
	StatusAccepted        Status = "accepted"
	StatusPartiallyFilled Status = "partially_filled"
	StatusFilled          Status = "filled"
	StatusRejected        Status = "rejected"
	StatusCanceled        Status = "canceled"
	StatusError           Status = "error"
	StatusUnknown         Status = "unknown"

	// Trade lifecycle is a simpler two-state machine.
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

// Kind identifies one of the synchronized collections.
type Kind string

const (
	KindSignal Kind = "signals"
	KindOrder  Kind = "orders"
	KindTrade  Kind = "trades"
)

// Kinds lists every synchronized collection, in lifecycle order.
var Kinds = []Kind{KindSignal, KindOrder, KindTrade}
