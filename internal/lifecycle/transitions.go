package lifecycle

import "tradedeck/internal/models"

// Valid outgoing transitions per canonical state. Terminal states (filled,
// rejected, canceled, error, closed) have no outgoing edges; re-delivery of
// the same terminal status is handled by the self-transition rule in
// ValidTransition. Entering the error state is allowed from any non-terminal
// state since failures can strike at any point of the lifecycle.
var signalOrderTransitions = map[models.Status][]models.Status{
	models.StatusPending:         {models.StatusAccepted, models.StatusRejected, models.StatusError},
	models.StatusAccepted:        {models.StatusPartiallyFilled, models.StatusFilled, models.StatusCanceled, models.StatusError},
	models.StatusPartiallyFilled: {models.StatusFilled, models.StatusCanceled, models.StatusError},
}

var tradeTransitions = map[models.Status][]models.Status{
	models.StatusOpen: {models.StatusClosed},
}

// ValidTransition reports whether moving from one canonical state to another
// is expected for the given entity kind. It is total over the canonical
// enums and is used only for flagging anomalies, never for blocking writes:
// the backend stays authoritative even when it misbehaves.
//
// A self-transition is always valid, so idempotent re-delivery of a terminal
// status is never flagged. A transition out of StatusUnknown is valid (the
// real state was learned late); a transition into it is not.
func ValidTransition(kind models.Kind, from, to models.Status) bool {
	if from == to {
		return true
	}
	if to == models.StatusUnknown {
		return false
	}
	if from == models.StatusUnknown {
		return true
	}

	var graph map[models.Status][]models.Status
	switch kind {
	case models.KindTrade:
		graph = tradeTransitions
	default:
		graph = signalOrderTransitions
	}

	for _, next := range graph[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether a canonical state has no valid outgoing
// transitions other than to itself.
func Terminal(status models.Status) bool {
	switch status {
	case models.StatusFilled, models.StatusRejected, models.StatusCanceled,
		models.StatusError, models.StatusClosed:
		return true
	}
	return false
}
