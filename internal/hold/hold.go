// Package hold owns the time-boxed reservation for a cart session: one shared
// window per cart, a single countdown clock while the cart is held, and the
// best-effort release of seat holds when the window ends.
package hold

import "time"

// State is the reservation lifecycle of one cart session.
// Empty -> Held -> {Expired, Cleared}.
type State string

const (
	StateEmpty   State = "empty"
	StateHeld    State = "held"
	StateExpired State = "expired"
	StateCleared State = "cleared"
)

// Phase is the countdown rendering state derived from the remaining time.
type Phase string

const (
	PhaseNone    Phase = "none"
	PhaseActive  Phase = "active"
	PhaseWarning Phase = "warning"
	PhaseUrgent  Phase = "urgent"
	PhaseExpired Phase = "expired"
)

// Window is the shared reservation deadline for a whole cart. Adding or
// removing lines never moves the deadline; only the first insertion sets it.
type Window struct {
	Deadline  time.Time `json:"deadline"`
	CreatedAt time.Time `json:"createdAt"`
}

// SeatHold identifies seats to release against one seating context.
type SeatHold struct {
	SeatingContextID string
	SeatIDs          []string
}

// Notifier observes countdown threshold crossings. Each threshold fires at
// most once per held period.
type Notifier interface {
	HoldWarning(sessionID string, remaining time.Duration)
	HoldUrgent(sessionID string, remaining time.Duration)
	HoldExpired(sessionID string)
}
