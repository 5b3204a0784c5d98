package pricing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stagepass/stagepass-backend/internal/cart"
	"github.com/stagepass/stagepass-backend/internal/promo"
)

func baseLine(t *testing.T) cart.Line {
	t.Helper()
	return cart.Line{
		EventID:        uuid.New(),
		TicketTypeID:   uuid.New(),
		TicketTypeName: "General Admission",
		UnitBasePrice:  decimal.NewFromInt(80),
		Quantity:       2,
		MinPerOrder:    1,
		MaxPerOrder:    10,
		Commission: cart.CommissionDescriptor{
			Mode:        cart.CommissionAddedOnTop,
			Kind:        cart.CommissionPercentage,
			RatePercent: decimal.NewFromInt(5),
		},
	}
}

func mustEqual(t *testing.T, name string, got, want decimal.Decimal) {
	t.Helper()
	if !got.Equal(want) {
		t.Fatalf("%s = %s, want %s", name, got, want)
	}
}

func TestComputeTotalsBaseAndCommission(t *testing.T) {
	t.Parallel()

	calc := NewCalculator(DefaultPointsPerCurrencyUnit)
	totals := calc.ComputeTotals([]cart.Line{baseLine(t)}, nil, nil)

	mustEqual(t, "baseSubtotal", totals.BaseSubtotal, decimal.NewFromInt(160))
	mustEqual(t, "totalCommission", totals.TotalCommission, decimal.NewFromInt(8))
	mustEqual(t, "total", totals.Total, decimal.NewFromInt(168))
	if totals.LoyaltyPoints != 16 {
		t.Fatalf("loyaltyPoints = %d, want 16", totals.LoyaltyPoints)
	}
}

func TestComputeTotalsPercentagePromo(t *testing.T) {
	t.Parallel()

	calc := NewCalculator(DefaultPointsPerCurrencyUnit)
	promotion := &promo.Descriptor{
		Code:  "LAUNCH10",
		Kind:  promo.DiscountPercentage,
		Value: decimal.NewFromInt(10),
	}
	totals := calc.ComputeTotals([]cart.Line{baseLine(t)}, promotion, nil)

	mustEqual(t, "discountAmount", totals.DiscountAmount, decimal.NewFromFloat(16.8))
	mustEqual(t, "total", totals.Total, decimal.NewFromFloat(151.2))
	if totals.LoyaltyPoints != 15 {
		t.Fatalf("loyaltyPoints = %d, want 15", totals.LoyaltyPoints)
	}
}

func TestComputeTotalsFixedInsurance(t *testing.T) {
	t.Parallel()

	calc := NewCalculator(DefaultPointsPerCurrencyUnit)
	insurance := &Insurance{PriceKind: "fixed", PriceValue: decimal.NewFromInt(5), Selected: true}
	totals := calc.ComputeTotals([]cart.Line{baseLine(t)}, nil, insurance)

	mustEqual(t, "insuranceAmount", totals.InsuranceAmount, decimal.NewFromInt(5))
	mustEqual(t, "total", totals.Total, decimal.NewFromInt(173))
}

func TestComputeTotalsUnselectedInsuranceIgnored(t *testing.T) {
	t.Parallel()

	calc := NewCalculator(DefaultPointsPerCurrencyUnit)
	insurance := &Insurance{PriceKind: "fixed", PriceValue: decimal.NewFromInt(5), Selected: false}
	totals := calc.ComputeTotals([]cart.Line{baseLine(t)}, nil, insurance)

	mustEqual(t, "insuranceAmount", totals.InsuranceAmount, decimal.Zero)
	mustEqual(t, "total", totals.Total, decimal.NewFromInt(168))
}

func TestComputeTotalsPercentageInsuranceRounded(t *testing.T) {
	t.Parallel()

	// 3.5% of 160 is 5.6; a rate producing a sub-cent value must round at the
	// insurance computation itself.
	calc := NewCalculator(DefaultPointsPerCurrencyUnit)
	insurance := &Insurance{PriceKind: "percentage", PriceValue: decimal.NewFromFloat(3.33), Selected: true}
	totals := calc.ComputeTotals([]cart.Line{baseLine(t)}, nil, insurance)

	// 3.33% of 160 = 5.328 -> 5.33
	mustEqual(t, "insuranceAmount", totals.InsuranceAmount, decimal.NewFromFloat(5.33))
}

func TestComputeTotalsFixedPromoClamped(t *testing.T) {
	t.Parallel()

	calc := NewCalculator(DefaultPointsPerCurrencyUnit)
	promotion := &promo.Descriptor{
		Code:  "BIGOFF",
		Kind:  promo.DiscountFixed,
		Value: decimal.NewFromInt(500),
	}
	totals := calc.ComputeTotals([]cart.Line{baseLine(t)}, promotion, nil)

	mustEqual(t, "discountAmount", totals.DiscountAmount, decimal.NewFromInt(168))
	mustEqual(t, "total", totals.Total, decimal.Zero)
	if totals.LoyaltyPoints != 0 {
		t.Fatalf("loyaltyPoints = %d, want 0", totals.LoyaltyPoints)
	}
}

func TestComputeTotalsIncludedCommissionAddsNothing(t *testing.T) {
	t.Parallel()

	line := baseLine(t)
	line.Commission = cart.CommissionDescriptor{Mode: cart.CommissionIncluded}

	calc := NewCalculator(DefaultPointsPerCurrencyUnit)
	totals := calc.ComputeTotals([]cart.Line{line}, nil, nil)

	mustEqual(t, "totalCommission", totals.TotalCommission, decimal.Zero)
	mustEqual(t, "total", totals.Total, decimal.NewFromInt(160))
}

func TestComputeTotalsBothCommission(t *testing.T) {
	t.Parallel()

	line := baseLine(t)
	line.Commission = cart.CommissionDescriptor{
		Mode:        cart.CommissionAddedOnTop,
		Kind:        cart.CommissionBoth,
		RatePercent: decimal.NewFromInt(5),
		FixedAmount: decimal.NewFromFloat(1.50),
	}

	calc := NewCalculator(DefaultPointsPerCurrencyUnit)
	totals := calc.ComputeTotals([]cart.Line{line}, nil, nil)

	// per unit: 4 + 1.50 = 5.50, two units = 11
	mustEqual(t, "totalCommission", totals.TotalCommission, decimal.NewFromInt(11))
	mustEqual(t, "total", totals.Total, decimal.NewFromInt(171))
}

func TestComputeTotalsSavingsDisplayOnly(t *testing.T) {
	t.Parallel()

	original := decimal.NewFromInt(100)
	line := baseLine(t)
	line.OriginalUnitPrice = &original

	calc := NewCalculator(DefaultPointsPerCurrencyUnit)
	totals := calc.ComputeTotals([]cart.Line{line}, nil, nil)

	mustEqual(t, "savingsAmount", totals.SavingsAmount, decimal.NewFromInt(40))
	// Savings never reduce the payable amount.
	mustEqual(t, "total", totals.Total, decimal.NewFromInt(168))
}

func TestComputeTotalsEmptyCart(t *testing.T) {
	t.Parallel()

	calc := NewCalculator(DefaultPointsPerCurrencyUnit)
	totals := calc.ComputeTotals(nil, &promo.Descriptor{Kind: promo.DiscountPercentage, Value: decimal.NewFromInt(10)}, nil)

	mustEqual(t, "total", totals.Total, decimal.Zero)
	if totals.LoyaltyPoints != 0 {
		t.Fatalf("loyaltyPoints = %d, want 0", totals.LoyaltyPoints)
	}
}

func TestComputeTotalsDeterministic(t *testing.T) {
	t.Parallel()

	calc := NewCalculator(DefaultPointsPerCurrencyUnit)
	lines := []cart.Line{baseLine(t), baseLine(t)}
	promotion := &promo.Descriptor{Kind: promo.DiscountPercentage, Value: decimal.NewFromFloat(7.5)}
	insurance := &Insurance{PriceKind: "percentage", PriceValue: decimal.NewFromInt(2), Selected: true}

	first := calc.ComputeTotals(lines, promotion, insurance)
	for i := 0; i < 5; i++ {
		again := calc.ComputeTotals(lines, promotion, insurance)
		mustEqual(t, "total", again.Total, first.Total)
		mustEqual(t, "discountAmount", again.DiscountAmount, first.DiscountAmount)
		if again.LoyaltyPoints != first.LoyaltyPoints {
			t.Fatalf("loyaltyPoints drifted: %d vs %d", again.LoyaltyPoints, first.LoyaltyPoints)
		}
	}
}

func TestRoundedTwoDecimalPlaces(t *testing.T) {
	t.Parallel()

	totals := Totals{
		BaseSubtotal: decimal.NewFromFloat(10.005),
		Total:        decimal.NewFromFloat(10.004),
	}
	rounded := totals.Rounded()

	mustEqual(t, "baseSubtotal", rounded.BaseSubtotal, decimal.NewFromFloat(10.01))
	mustEqual(t, "total", rounded.Total, decimal.NewFromInt(10))
}
