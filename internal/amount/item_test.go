package amount

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/procurehq/backend-procure/internal/charge"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func igst18() charge.Definition {
	return charge.Definition{Name: "IGST", Nature: charge.NaturePercentage, Scope: charge.ScopeItem, Value: dec("18"), Enabled: true}
}

func gstSplit9() []charge.Definition {
	return []charge.Definition{
		{Name: "CGST", Nature: charge.NaturePercentage, Scope: charge.ScopeItem, Value: dec("9"), Enabled: true},
		{Name: "SGST", Nature: charge.NaturePercentage, Scope: charge.ScopeItem, Value: dec("9"), Enabled: true},
	}
}

func TestComputeItemScenario(t *testing.T) {
	// quantity 10 x rate 100 at 10% discount with 18% IGST.
	item := LineItem{
		IndentNumber: "IND-1",
		ItemCode:     "STL-01",
		Quantity:     dec("10"),
		Rate:         dec("100"),
		Discount:     Discount{Percent: dec("10")},
		Edited:       EditPercent,
		Charges:      []charge.Definition{igst18()},
	}
	got, err := ComputeItem(item, true)
	require.NoError(t, err)
	require.True(t, got.Basic.Equal(dec("1000")), "basic %s", got.Basic)
	require.True(t, got.LineItem.Discount.Amount.Equal(dec("100")))
	require.True(t, got.Taxable.Equal(dec("900")))
	require.True(t, got.IGST.Equal(dec("162")))
	require.True(t, got.Total.Equal(dec("1062")), "total %s", got.Total)
	require.True(t, got.TaxRate.Equal(dec("18")))
	require.True(t, got.RateAfterDiscount.Equal(dec("90")))
}

func TestComputeItemAmountDrivenDiscount(t *testing.T) {
	item := LineItem{
		Quantity: dec("4"),
		Rate:     dec("250"),
		Discount: Discount{Amount: dec("150")},
		Edited:   EditAmount,
	}
	got, err := ComputeItem(item, false)
	require.NoError(t, err)
	require.True(t, got.LineItem.Discount.Percent.Equal(dec("15")), "percent %s", got.LineItem.Discount.Percent)
	require.True(t, got.Taxable.Equal(dec("850")))
}

func TestDiscountRoundTrip(t *testing.T) {
	// Deriving amount from percent and re-deriving percent from that amount
	// must land within 0.01 of the original percent.
	for _, pct := range []string{"0", "2.5", "7.33", "12.5", "99.99", "100"} {
		item := LineItem{
			Quantity: dec("3"),
			Rate:     dec("137.41"),
			Discount: Discount{Percent: dec(pct)},
			Edited:   EditPercent,
		}
		first, err := ComputeItem(item, false)
		require.NoError(t, err)

		item.Discount = Discount{Amount: first.LineItem.Discount.Amount}
		item.Edited = EditAmount
		second, err := ComputeItem(item, false)
		require.NoError(t, err)

		drift := second.LineItem.Discount.Percent.Sub(dec(pct)).Abs()
		require.True(t, drift.LessThanOrEqual(dec("0.01")),
			"percent %s drifted to %s", pct, second.LineItem.Discount.Percent)
	}
}

func TestDiscountClamping(t *testing.T) {
	t.Run("percent above 100", func(t *testing.T) {
		item := LineItem{Quantity: dec("2"), Rate: dec("50"), Discount: Discount{Percent: dec("150")}, Edited: EditPercent}
		got, err := ComputeItem(item, false)
		require.NoError(t, err)
		require.True(t, got.LineItem.Discount.Percent.Equal(dec("100")))
		require.True(t, got.LineItem.Discount.Amount.Equal(dec("100")))
		require.True(t, got.Taxable.IsZero())
	})
	t.Run("amount above basic", func(t *testing.T) {
		item := LineItem{Quantity: dec("2"), Rate: dec("50"), Discount: Discount{Amount: dec("500")}, Edited: EditAmount}
		got, err := ComputeItem(item, false)
		require.NoError(t, err)
		require.True(t, got.LineItem.Discount.Amount.Equal(dec("100")))
		require.True(t, got.LineItem.Discount.Percent.Equal(dec("100")))
	})
}

func TestTotalIdentity(t *testing.T) {
	charges := append(gstSplit9(), charge.Definition{
		Name: "Packaging", Nature: charge.NaturePerUnit, Scope: charge.ScopeItem, Value: dec("1.37"), Enabled: true,
	})
	item := LineItem{
		Quantity: dec("7"),
		Rate:     dec("33.333"),
		Discount: Discount{Percent: dec("3.7")},
		Edited:   EditPercent,
		Charges:  charges,
	}
	got, err := ComputeItem(item, false)
	require.NoError(t, err)
	want := got.Taxable.Add(got.IGST).Add(got.CGST).Add(got.SGST).Add(got.OtherCharges)
	require.True(t, got.Total.Equal(want), "total %s != parts %s", got.Total, want)
}

func TestTaxExclusivity(t *testing.T) {
	t.Run("interstate only IGST", func(t *testing.T) {
		item := LineItem{Quantity: dec("1"), Rate: dec("100"), Charges: []charge.Definition{igst18()}}
		got, err := ComputeItem(item, true)
		require.NoError(t, err)
		require.True(t, got.CGST.IsZero())
		require.True(t, got.SGST.IsZero())
	})
	t.Run("intrastate only split", func(t *testing.T) {
		item := LineItem{Quantity: dec("1"), Rate: dec("100"), Charges: gstSplit9()}
		got, err := ComputeItem(item, false)
		require.NoError(t, err)
		require.True(t, got.IGST.IsZero())
		require.True(t, got.CGST.Equal(dec("9")))
		require.True(t, got.SGST.Equal(dec("9")))
	})
	t.Run("split on interstate is surfaced", func(t *testing.T) {
		item := LineItem{Quantity: dec("1"), Rate: dec("100"), Charges: gstSplit9()}
		_, err := ComputeItem(item, true)
		require.True(t, errors.Is(err, ErrInconsistentTaxSplit))
	})
	t.Run("IGST on intrastate is surfaced", func(t *testing.T) {
		item := LineItem{Quantity: dec("1"), Rate: dec("100"), Charges: []charge.Definition{igst18()}}
		_, err := ComputeItem(item, false)
		require.True(t, errors.Is(err, ErrInconsistentTaxSplit))
	})
}

func TestComputeItemZeroQuantity(t *testing.T) {
	item := LineItem{
		Quantity: decimal.Zero,
		Rate:     dec("100"),
		Discount: Discount{Percent: dec("5")},
		Edited:   EditPercent,
		Charges:  []charge.Definition{igst18()},
	}
	got, err := ComputeItem(item, true)
	require.NoError(t, err)
	require.True(t, got.Basic.IsZero())
	require.True(t, got.Total.IsZero())
	// Discount fields are left as supplied, not re-derived against zero.
	require.True(t, got.LineItem.Discount.Percent.Equal(dec("5")))
}

func TestComputeItemRejectsInvalidInput(t *testing.T) {
	cases := []struct {
		name string
		item LineItem
	}{
		{"negative quantity", LineItem{Quantity: dec("-1"), Rate: dec("10")}},
		{"negative rate", LineItem{Quantity: dec("1"), Rate: dec("-10")}},
		{"negative discount", LineItem{Quantity: dec("1"), Rate: dec("10"), Discount: Discount{Amount: dec("-5")}, Edited: EditAmount}},
		{"quantity without rate", LineItem{Quantity: dec("5")}},
		{"ambiguous discount pair", LineItem{Quantity: dec("1"), Rate: dec("10"), Discount: Discount{Percent: dec("5"), Amount: dec("3")}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ComputeItem(tc.item, false)
			require.True(t, errors.Is(err, ErrInvalidLineItem), "got %v", err)
		})
	}
}

func TestDisabledChargeContributesNothing(t *testing.T) {
	disabled := igst18()
	disabled.Enabled = false
	item := LineItem{Quantity: dec("10"), Rate: dec("100"), Charges: []charge.Definition{disabled}}
	got, err := ComputeItem(item, true)
	require.NoError(t, err)
	require.True(t, got.IGST.IsZero())
	require.True(t, got.Total.Equal(dec("1000")))
	require.True(t, got.TaxRate.IsZero())
}
