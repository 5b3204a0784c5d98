// Package pricing computes order totals. It is pure: identical inputs always
// yield identical outputs, and nothing here touches a clock or the network.
// Both the cart and checkout surfaces render from this one computation.
package pricing

import (
	"github.com/shopspring/decimal"
	"github.com/stagepass/stagepass-backend/internal/cart"
	"github.com/stagepass/stagepass-backend/internal/promo"
	"github.com/stagepass/stagepass-backend/pkg/money"
)

// DefaultPointsPerCurrencyUnit converts the payable total into loyalty points.
const DefaultPointsPerCurrencyUnit = 10

// Insurance is the buyer-facing insurance choice fed into the computation.
type Insurance struct {
	PriceKind  string
	PriceValue decimal.Decimal
	Selected   bool
}

// Totals is the itemized order breakdown. It is derived, never persisted, and
// recomputed on every read. Amounts stay unrounded between steps; Rounded
// produces the display form.
type Totals struct {
	BaseSubtotal    decimal.Decimal `json:"baseSubtotal"`
	TotalCommission decimal.Decimal `json:"totalCommission"`
	DiscountAmount  decimal.Decimal `json:"discountAmount"`
	InsuranceAmount decimal.Decimal `json:"insuranceAmount"`
	Total           decimal.Decimal `json:"total"`
	SavingsAmount   decimal.Decimal `json:"savingsAmount"`
	LoyaltyPoints   int64           `json:"loyaltyPoints"`
}

// Rounded returns the totals with every amount rounded to two decimal places.
// Rounding happens only at this display boundary, not between steps.
func (t Totals) Rounded() Totals {
	return Totals{
		BaseSubtotal:    money.Round2(t.BaseSubtotal),
		TotalCommission: money.Round2(t.TotalCommission),
		DiscountAmount:  money.Round2(t.DiscountAmount),
		InsuranceAmount: money.Round2(t.InsuranceAmount),
		Total:           money.Round2(t.Total),
		SavingsAmount:   money.Round2(t.SavingsAmount),
		LoyaltyPoints:   t.LoyaltyPoints,
	}
}

// Calculator carries the loyalty conversion rate.
type Calculator struct {
	pointsPerUnit decimal.Decimal
}

// NewCalculator builds a calculator; non-positive rates fall back to the
// default conversion.
func NewCalculator(pointsPerCurrencyUnit int64) Calculator {
	if pointsPerCurrencyUnit <= 0 {
		pointsPerCurrencyUnit = DefaultPointsPerCurrencyUnit
	}
	return Calculator{pointsPerUnit: decimal.NewFromInt(pointsPerCurrencyUnit)}
}

// ComputeTotals walks the lines in order: per-line commission, subtotals,
// promo discount, insurance, payable total, catalog savings, loyalty points.
func (c Calculator) ComputeTotals(lines []cart.Line, promotion *promo.Descriptor, insurance *Insurance) Totals {
	totals := Totals{
		BaseSubtotal:    decimal.Zero,
		TotalCommission: decimal.Zero,
		DiscountAmount:  decimal.Zero,
		InsuranceAmount: decimal.Zero,
		Total:           decimal.Zero,
		SavingsAmount:   decimal.Zero,
	}
	if len(lines) == 0 {
		return totals
	}

	for _, line := range lines {
		qty := decimal.NewFromInt(int64(line.Quantity))
		totals.BaseSubtotal = totals.BaseSubtotal.Add(line.UnitBasePrice.Mul(qty))
		totals.TotalCommission = totals.TotalCommission.Add(lineCommission(line).Mul(qty))

		if line.OriginalUnitPrice != nil && line.OriginalUnitPrice.GreaterThan(line.UnitBasePrice) {
			perUnit := line.OriginalUnitPrice.Sub(line.UnitBasePrice)
			totals.SavingsAmount = totals.SavingsAmount.Add(perUnit.Mul(qty))
		}
	}

	if promotion != nil {
		totals.DiscountAmount = discountAmount(*promotion, totals.BaseSubtotal, totals.TotalCommission)
	}

	if insurance != nil && insurance.Selected {
		totals.InsuranceAmount = insuranceAmount(*insurance, totals.BaseSubtotal)
	}

	totals.Total = totals.BaseSubtotal.
		Add(totals.TotalCommission).
		Sub(totals.DiscountAmount).
		Add(totals.InsuranceAmount)
	if totals.Total.IsNegative() {
		totals.Total = decimal.Zero
	}

	totals.LoyaltyPoints = totals.Total.Div(c.pointsPerUnit).Floor().IntPart()
	return totals
}

func lineCommission(line cart.Line) decimal.Decimal {
	if line.Commission.Mode != cart.CommissionAddedOnTop {
		return decimal.Zero
	}
	commission := decimal.Zero
	switch line.Commission.Kind {
	case cart.CommissionPercentage:
		commission = money.Percent(line.UnitBasePrice, line.Commission.RatePercent)
	case cart.CommissionFixed:
		commission = line.Commission.FixedAmount
	case cart.CommissionBoth:
		commission = money.Percent(line.UnitBasePrice, line.Commission.RatePercent).
			Add(line.Commission.FixedAmount)
	}
	return commission
}

func discountAmount(promotion promo.Descriptor, baseSubtotal, totalCommission decimal.Decimal) decimal.Decimal {
	charged := baseSubtotal.Add(totalCommission)
	switch promotion.Kind {
	case promo.DiscountPercentage:
		return money.Percent(charged, promotion.Value)
	case promo.DiscountFixed:
		// A fixed discount can never push the total negative.
		if promotion.Value.GreaterThan(charged) {
			return charged
		}
		return promotion.Value
	default:
		return decimal.Zero
	}
}

func insuranceAmount(insurance Insurance, baseSubtotal decimal.Decimal) decimal.Decimal {
	switch insurance.PriceKind {
	case "percentage":
		return money.Round2(money.Percent(baseSubtotal, insurance.PriceValue))
	case "fixed":
		return insurance.PriceValue
	default:
		return decimal.Zero
	}
}
