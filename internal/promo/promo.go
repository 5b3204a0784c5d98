package promo

import (
	"time"

	"github.com/shopspring/decimal"
)

// DiscountKind distinguishes how a promotion reduces the payable total.
type DiscountKind string

const (
	DiscountPercentage DiscountKind = "percentage"
	DiscountFixed      DiscountKind = "fixed"
)

// IsValid reports whether the kind is one the pricing walk understands.
func (k DiscountKind) IsValid() bool {
	return k == DiscountPercentage || k == DiscountFixed
}

// Descriptor is a server-validated promotion. It is only ever constructed from
// a successful validation response, never from raw user input.
type Descriptor struct {
	Code  string          `json:"code"`
	Kind  DiscountKind    `json:"kind"`
	Value decimal.Decimal `json:"value"`
}

// Applied pairs the descriptor with the moment it was accepted for a session.
type Applied struct {
	Descriptor
	AppliedAt time.Time `json:"appliedAt"`
}
