package negotiation

import (
	"github.com/shopspring/decimal"
)

// Field names a line-item particular a buyer may be allowed to renegotiate.
type Field string

const (
	FieldRate               Field = "rate"
	FieldDiscountPercent    Field = "discountPercent"
	FieldDiscountAmount     Field = "discountAmount"
	FieldBasicAfterDiscount Field = "basicAfterDiscount"
)

// FieldSet is the per-row whitelist of editable fields. Proposals touching a
// field outside the set are ignored, not rejected; the UI disables those
// inputs but the resolver guards the invariant independently.
type FieldSet map[Field]bool

// NewFieldSet builds a FieldSet from a list of field names.
func NewFieldSet(fields ...Field) FieldSet {
	s := make(FieldSet, len(fields))
	for _, f := range fields {
		s[f] = true
	}
	return s
}

// Baseline is the originally accepted pricing of one item.
type Baseline struct {
	Quantity           decimal.Decimal `json:"quantity"`
	Rate               decimal.Decimal `json:"rate"`
	DiscountPercent    decimal.Decimal `json:"discountPercent"`
	DiscountAmount     decimal.Decimal `json:"discountAmount"`
	BasicAfterDiscount decimal.Decimal `json:"basicAfterDiscount"`
}

// Proposal carries the revised values a buyer typed in. Nil means the field
// was not touched.
type Proposal struct {
	Rate               *decimal.Decimal `json:"rate,omitempty"`
	DiscountPercent    *decimal.Decimal `json:"discountPercent,omitempty"`
	DiscountAmount     *decimal.Decimal `json:"discountAmount,omitempty"`
	BasicAfterDiscount *decimal.Decimal `json:"basicAfterDiscount,omitempty"`
}

// Outcome is the resolved pricing for one negotiated item.
type Outcome struct {
	Rate               decimal.Decimal `json:"rate"`
	DiscountPercent    decimal.Decimal `json:"discountPercent"`
	DiscountAmount     decimal.Decimal `json:"discountAmount"`
	BasicAfterDiscount decimal.Decimal `json:"basicAfterDiscount"`
	// Savings is original basicAfterDiscount minus the negotiated one.
	// Positive means cheaper; a worse deal goes negative and is never
	// clamped.
	Savings decimal.Decimal `json:"savings"`
}

var hundred = decimal.NewFromInt(100)

func round2(d decimal.Decimal) decimal.Decimal { return d.Round(2) }

// clampPercent keeps a discount percent in [0, 100].
func clampPercent(pct decimal.Decimal) decimal.Decimal {
	if pct.IsNegative() {
		return decimal.Zero
	}
	if pct.GreaterThan(hundred) {
		return hundred
	}
	return pct
}

// clampAmount keeps a discount amount in [0, base].
func clampAmount(amt, base decimal.Decimal) decimal.Decimal {
	if amt.IsNegative() {
		return decimal.Zero
	}
	if amt.GreaterThan(base) {
		return base
	}
	return amt
}

// ComputeItemSavings resolves a proposal against the accepted baseline. The
// mutual percent/amount derivation mirrors the item calculator, restricted to
// the allowed fields: percent is clamped to [0,100] and amount to [0,base]
// before the counterpart is derived. Out-of-range proposals are clamped, not
// rejected; the resolver never errors.
func ComputeItemSavings(orig Baseline, p Proposal, allowed FieldSet) Outcome {
	rate := orig.Rate
	if allowed[FieldRate] && p.Rate != nil && !p.Rate.IsNegative() {
		rate = *p.Rate
	}
	base := rate.Mul(orig.Quantity)

	discountAmount := orig.DiscountAmount
	discountPercent := orig.DiscountPercent
	switch {
	case allowed[FieldDiscountAmount] && p.DiscountAmount != nil:
		discountAmount = clampAmount(*p.DiscountAmount, base)
		discountPercent = decimal.Zero
		if base.IsPositive() {
			discountPercent = round2(discountAmount.Div(base).Mul(hundred))
		}
	case allowed[FieldDiscountPercent] && p.DiscountPercent != nil:
		discountPercent = clampPercent(*p.DiscountPercent)
		discountAmount = round2(base.Mul(discountPercent).Div(hundred))
	}

	basicAfterDiscount := round2(base.Sub(discountAmount))
	if allowed[FieldBasicAfterDiscount] && p.BasicAfterDiscount != nil {
		// Editing the net amount directly re-derives the discount pair
		// from the gap to the base amount. The net stays in [0, base]
		// so the derived amount obeys the same clamp.
		basicAfterDiscount = round2(base.Sub(clampAmount(base.Sub(*p.BasicAfterDiscount), base)))
		discountAmount = round2(base.Sub(basicAfterDiscount))
		discountPercent = decimal.Zero
		if base.IsPositive() {
			discountPercent = round2(discountAmount.Div(base).Mul(hundred))
		}
	}

	return Outcome{
		Rate:               rate,
		DiscountPercent:    discountPercent,
		DiscountAmount:     discountAmount,
		BasicAfterDiscount: basicAfterDiscount,
		Savings:            round2(orig.BasicAfterDiscount.Sub(basicAfterDiscount)),
	}
}

// ChargeSavings is the delta between an original and a negotiated charge set.
// A charge present in the original but absent from the negotiated set counts
// its full original value as savings.
func ChargeSavings(original, negotiated map[string]decimal.Decimal) decimal.Decimal {
	var origSum, negSum decimal.Decimal
	for _, v := range original {
		origSum = origSum.Add(v)
	}
	for _, v := range negotiated {
		negSum = negSum.Add(v)
	}
	return round2(origSum.Sub(negSum))
}

// Savings aggregates a whole negotiation.
type Savings struct {
	Items   decimal.Decimal `json:"items"`
	Charges decimal.Decimal `json:"charges"`
	Total   decimal.Decimal `json:"total"`
}

// DocumentSavings sums item savings and adds the charge delta.
func DocumentSavings(items []Outcome, chargeSavings decimal.Decimal) Savings {
	var itemSum decimal.Decimal
	for _, it := range items {
		itemSum = itemSum.Add(it.Savings)
	}
	return Savings{
		Items:   round2(itemSum),
		Charges: round2(chargeSavings),
		Total:   round2(itemSum.Add(chargeSavings)),
	}
}
