package cart

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stagepass/stagepass-backend/internal/hold"
	pkgerrors "github.com/stagepass/stagepass-backend/pkg/errors"
)

// CommissionMode says whether the platform fee is already embedded in the
// displayed price or charged on top of it.
type CommissionMode string

const (
	CommissionIncluded   CommissionMode = "included"
	CommissionAddedOnTop CommissionMode = "added_on_top"
)

// CommissionKind shapes the added-on-top fee.
type CommissionKind string

const (
	CommissionPercentage CommissionKind = "percentage"
	CommissionFixed      CommissionKind = "fixed"
	CommissionBoth       CommissionKind = "both"
)

// CommissionDescriptor describes the platform fee attached to a line.
type CommissionDescriptor struct {
	Mode        CommissionMode  `json:"mode"`
	Kind        CommissionKind  `json:"kind,omitempty"`
	RatePercent decimal.Decimal `json:"ratePercent"`
	FixedAmount decimal.Decimal `json:"fixedAmount"`
}

func (c CommissionDescriptor) validate() error {
	switch c.Mode {
	case CommissionIncluded:
		return nil
	case CommissionAddedOnTop:
		switch c.Kind {
		case CommissionPercentage, CommissionFixed, CommissionBoth:
			return nil
		default:
			return pkgerrors.New(pkgerrors.CodeValidation, "added-on-top commission requires a kind")
		}
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid commission mode")
	}
}

// Line is one purchasable unit group in the cart.
type Line struct {
	EventID           uuid.UUID            `json:"eventId"`
	TicketTypeID      uuid.UUID            `json:"ticketTypeId"`
	TicketTypeName    string               `json:"ticketTypeName"`
	UnitBasePrice     decimal.Decimal      `json:"unitBasePrice"`
	OriginalUnitPrice *decimal.Decimal     `json:"originalUnitPrice,omitempty"`
	Quantity          int                  `json:"quantity"`
	MinPerOrder       int                  `json:"minPerOrder"`
	MaxPerOrder       int                  `json:"maxPerOrder"`
	AvailableQty      int                  `json:"availableQty,omitempty"`
	Commission        CommissionDescriptor `json:"commission"`
	SeatIDs           []string             `json:"seatIds,omitempty"`
	SeatingContextID  string               `json:"seatingContextId,omitempty"`
}

// Validate checks the structural invariants of a new line.
func (l Line) Validate() error {
	if l.EventID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "event id is required")
	}
	if l.TicketTypeID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "ticket type id is required")
	}
	if l.UnitBasePrice.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unit price cannot be negative")
	}
	if l.MinPerOrder < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "minimum per order must be at least 1")
	}
	if l.MaxPerOrder < l.MinPerOrder {
		return pkgerrors.New(pkgerrors.CodeValidation, "maximum per order below minimum")
	}
	if l.Quantity < l.MinPerOrder {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity below the per-order minimum")
	}
	if l.Quantity > l.MaxAllowed() {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity exceeds the per-order maximum")
	}
	if err := l.Commission.validate(); err != nil {
		return err
	}
	if len(l.SeatIDs) > 0 && strings.TrimSpace(l.SeatingContextID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "seated lines require a seating context")
	}
	if len(l.SeatIDs) == 0 && strings.TrimSpace(l.SeatingContextID) != "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "seating context without seats")
	}
	if len(l.SeatIDs) > 0 && len(l.SeatIDs) != l.Quantity {
		return pkgerrors.New(pkgerrors.CodeValidation, "seat count must match quantity")
	}
	return nil
}

// MaxAllowed caps the quantity at the per-order maximum and, when known, the
// available inventory.
func (l Line) MaxAllowed() int {
	limit := l.MaxPerOrder
	if l.AvailableQty > 0 && l.AvailableQty < limit {
		limit = l.AvailableQty
	}
	return limit
}

// SeatHold converts the line's seat claim for the release coordinator.
// General-admission lines carry no hold.
func (l Line) SeatHold() (hold.SeatHold, bool) {
	if len(l.SeatIDs) == 0 {
		return hold.SeatHold{}, false
	}
	return hold.SeatHold{
		SeatingContextID: l.SeatingContextID,
		SeatIDs:          l.SeatIDs,
	}, true
}

// Snapshot is the persisted cart for one session: the line items, the shared
// reservation window and the buyer's insurance choice. Derived totals are
// never stored; both rendering surfaces recompute them on read.
type Snapshot struct {
	SessionID         uuid.UUID    `json:"sessionId"`
	Lines             []Line       `json:"lines"`
	Window            *hold.Window `json:"window,omitempty"`
	InsuranceSelected bool         `json:"insuranceSelected"`
}

// IsEmpty reports whether the cart has no lines.
func (s *Snapshot) IsEmpty() bool {
	return s == nil || len(s.Lines) == 0
}

// SeatHolds collects the seat claims of every seated line.
func (s *Snapshot) SeatHolds() []hold.SeatHold {
	if s == nil {
		return nil
	}
	holds := make([]hold.SeatHold, 0, len(s.Lines))
	for _, line := range s.Lines {
		if h, ok := line.SeatHold(); ok {
			holds = append(holds, h)
		}
	}
	return holds
}
