package commerce

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PromoValidation is the commerce API's verdict on a promo code.
type PromoValidation struct {
	Valid   bool            `json:"valid"`
	Type    string          `json:"type"`
	Value   decimal.Decimal `json:"value"`
	Message string          `json:"message,omitempty"`
}

// Customer identifies the buyer on an order submission.
type Customer struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
}

// OrderLine is one line of an order submission.
type OrderLine struct {
	EventID          uuid.UUID       `json:"eventId"`
	TicketTypeID     uuid.UUID       `json:"ticketTypeId"`
	Quantity         int             `json:"quantity"`
	UnitBasePrice    decimal.Decimal `json:"unitBasePrice"`
	SeatIDs          []string        `json:"seatIds,omitempty"`
	SeatingContextID string          `json:"seatingContextId,omitempty"`
}

// InsuranceSelection carries the buyer's insurance choice on submission.
type InsuranceSelection struct {
	Selected bool            `json:"selected"`
	Amount   decimal.Decimal `json:"amount"`
}

// OrderSubmission is the payload sent to POST /checkout.
type OrderSubmission struct {
	CartSessionID uuid.UUID           `json:"cartSessionId"`
	Customer      Customer            `json:"customer"`
	Lines         []OrderLine         `json:"lines"`
	PaymentMethod string              `json:"paymentMethod"`
	PromoCode     string              `json:"promoCode,omitempty"`
	Insurance     *InsuranceSelection `json:"insurance,omitempty"`
	ClientTotal   decimal.Decimal     `json:"clientTotal"`
}

// OrderConfirmation is the commerce API's response to an order submission.
// Total is the collaborator's authoritative amount and must match the locally
// computed total before the buyer is handed to payment.
type OrderConfirmation struct {
	OrderID         string          `json:"orderId"`
	PaymentRequired bool            `json:"paymentRequired"`
	PaymentURL      string          `json:"paymentUrl,omitempty"`
	Total           decimal.Decimal `json:"total"`
}
