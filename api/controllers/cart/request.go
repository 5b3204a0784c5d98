package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	cartsvc "github.com/stagepass/stagepass-backend/internal/cart"
)

type CommissionPayload struct {
	Mode        string          `json:"mode" validate:"required,oneof=included added_on_top"`
	Kind        string          `json:"kind,omitempty" validate:"omitempty,oneof=percentage fixed both"`
	RatePercent decimal.Decimal `json:"ratePercent"`
	FixedAmount decimal.Decimal `json:"fixedAmount"`
}

type AddLineRequest struct {
	EventID           uuid.UUID         `json:"eventId" validate:"required"`
	TicketTypeID      uuid.UUID         `json:"ticketTypeId" validate:"required"`
	TicketTypeName    string            `json:"ticketTypeName" validate:"required,max=200"`
	UnitBasePrice     decimal.Decimal   `json:"unitBasePrice"`
	OriginalUnitPrice *decimal.Decimal  `json:"originalUnitPrice,omitempty"`
	Quantity          int               `json:"quantity" validate:"required,min=1"`
	MinPerOrder       int               `json:"minPerOrder" validate:"min=1"`
	MaxPerOrder       int               `json:"maxPerOrder" validate:"min=1"`
	AvailableQty      int               `json:"availableQty,omitempty" validate:"min=0"`
	Commission        CommissionPayload `json:"commission" validate:"required"`
	SeatIDs           []string          `json:"seatIds,omitempty" validate:"max=100,dive,required"`
	SeatingContextID  string            `json:"seatingContextId,omitempty" validate:"max=200"`
}

func (r AddLineRequest) toLine() cartsvc.Line {
	return cartsvc.Line{
		EventID:           r.EventID,
		TicketTypeID:      r.TicketTypeID,
		TicketTypeName:    r.TicketTypeName,
		UnitBasePrice:     r.UnitBasePrice,
		OriginalUnitPrice: r.OriginalUnitPrice,
		Quantity:          r.Quantity,
		MinPerOrder:       r.MinPerOrder,
		MaxPerOrder:       r.MaxPerOrder,
		AvailableQty:      r.AvailableQty,
		Commission: cartsvc.CommissionDescriptor{
			Mode:        cartsvc.CommissionMode(r.Commission.Mode),
			Kind:        cartsvc.CommissionKind(r.Commission.Kind),
			RatePercent: r.Commission.RatePercent,
			FixedAmount: r.Commission.FixedAmount,
		},
		SeatIDs:          r.SeatIDs,
		SeatingContextID: r.SeatingContextID,
	}
}

type UpdateQuantityRequest struct {
	Delta int `json:"delta" validate:"required"`
}

type InsuranceRequest struct {
	Selected *bool `json:"selected" validate:"required"`
}
