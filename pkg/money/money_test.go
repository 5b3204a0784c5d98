package money

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestPercent(t *testing.T) {
	t.Parallel()

	got := Percent(decimal.NewFromInt(160), decimal.NewFromInt(10))
	if !got.Equal(decimal.NewFromInt(16)) {
		t.Fatalf("expected 16, got %s", got)
	}
}

func TestCentsRoundTrip(t *testing.T) {
	t.Parallel()

	amount := decimal.RequireFromString("151.20")
	cents := ToCents(amount)
	if cents != 15120 {
		t.Fatalf("expected 15120 cents, got %d", cents)
	}
	if !FromCents(cents).Equal(amount) {
		t.Fatalf("round trip mismatch: %s", FromCents(cents))
	}
}

func TestToCentsRoundsAtBoundary(t *testing.T) {
	t.Parallel()

	// 10% of 80.05 carries four decimal places; cents conversion rounds once.
	if got := ToCents(decimal.RequireFromString("8.005")); got != 801 {
		t.Fatalf("expected 801, got %d", got)
	}
}
