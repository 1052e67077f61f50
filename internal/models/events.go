package models

import "encoding/json"

// Envelope is the tagged event frame delivered on the push channel.
type Envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// Push event kinds. Unknown kinds are logged and discarded by the dispatcher.
const (
	EventNewSignal     = "new_signal"
	EventOrderUpdate   = "order_update"
	EventTradeUpdate   = "trade_update"
	EventAccountUpdate = "account_update"
)
