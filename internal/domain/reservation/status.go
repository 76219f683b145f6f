package reservation

import (
	"errors"
	"slices"
)

var (
	ErrInvalidTransition = errors.New("transition not allowed from current status")
	ErrWrongPath         = errors.New("transition not allowed for fulfillment path")
	ErrUnsettled         = errors.New("outstanding balance blocks transition")
)

// edge is one permitted transition. The graph is shared by all four
// resource kinds; path-specific branches are expressed as data here rather
// than per-domain control flow.
type edge struct {
	requiresPath    FulfillmentPath // zero value: any path
	requiresSettled bool
}

var statusGraph = map[Status]map[Status]edge{
	StatusDraft: {
		StatusPendingPayment: {},
		StatusProcessing:     {requiresSettled: true},
	},
	StatusPendingPayment: {
		StatusProcessing: {requiresSettled: true},
	},
	StatusProcessing: {
		StatusReadyForPickup: {requiresPath: PathPickup},
		StatusOutForDelivery: {requiresPath: PathDelivery},
	},
	StatusReadyForPickup: {
		StatusCompleted: {},
	},
	StatusOutForDelivery: {
		StatusCompleted: {},
	},
}

// checkTransition validates one step through the status graph.
// Rejected/Cancelled are reachable from any non-terminal state and are
// handled before the table lookup.
func checkTransition(from, to Status, path FulfillmentPath, settled bool) error {
	if from.IsTerminal() {
		return ErrInvalidTransition
	}
	if to == StatusRejected || to == StatusCancelled {
		return nil
	}

	e, ok := statusGraph[from][to]
	if !ok {
		return ErrInvalidTransition
	}
	if e.requiresPath != "" && e.requiresPath != path {
		return ErrWrongPath
	}
	if e.requiresSettled && !settled {
		return ErrUnsettled
	}
	return nil
}

// NextStatuses lists the legal targets from a status for the given path,
// ignoring the settlement condition. Surfaced in the reservation detail
// payload; graph targets come sorted, the always-reachable Rejected and
// Cancelled pair last.
func NextStatuses(from Status, path FulfillmentPath) []Status {
	if from.IsTerminal() {
		return nil
	}
	var out []Status
	for to, e := range statusGraph[from] {
		if e.requiresPath != "" && e.requiresPath != path {
			continue
		}
		out = append(out, to)
	}
	slices.Sort(out)
	out = append(out, StatusRejected, StatusCancelled)
	return out
}
