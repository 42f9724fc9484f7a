package amount

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/procurehq/backend-procure/internal/charge"
)

var (
	// ErrInvalidLineItem flags negative quantities, rates or discounts, a
	// quantity without a rate, or an ambiguous discount pair.
	ErrInvalidLineItem = errors.New("amount: invalid line item")
	// ErrInconsistentTaxSplit flags GST amounts that contradict the
	// interstate flag. The split is a caller input; it is surfaced, never
	// silently corrected.
	ErrInconsistentTaxSplit = errors.New("amount: inconsistent tax split")
)

// DiscountEdit names which discount field the user last edited. The other
// field is always re-derived from it; the pair must never drift independently.
type DiscountEdit string

const (
	// EditPercent means Discount.Percent drives and Amount is derived.
	EditPercent DiscountEdit = "percent"
	// EditAmount means Discount.Amount drives and Percent is derived.
	EditAmount DiscountEdit = "amount"
)

// Discount holds the mutually derived percent/amount pair.
type Discount struct {
	Percent decimal.Decimal `json:"percent"`
	Amount  decimal.Decimal `json:"amount"`
}

// LineItem is one raw quotation/PO row as supplied by the caller.
type LineItem struct {
	IndentNumber string              `json:"indentNumber"`
	ItemCode     string              `json:"itemCode"`
	Quantity     decimal.Decimal     `json:"quantity"`
	Rate         decimal.Decimal     `json:"rate"`
	Discount     Discount            `json:"discount"`
	Edited       DiscountEdit        `json:"edited,omitempty"`
	Charges      []charge.Definition `json:"charges,omitempty"`
}

// Key identifies an item across vendors within one RFQ.
func (li LineItem) Key() string {
	return li.IndentNumber + ":" + li.ItemCode
}

// ItemAmount is a line item together with its computed breakdown and the
// derived particulars tracked by vendor comparison.
type ItemAmount struct {
	LineItem
	Breakdown
	// TaxRate is the summed percentage of all enabled GST charges.
	TaxRate decimal.Decimal `json:"taxRate"`
	// RateAfterDiscount is the effective per-unit rate net of discount.
	RateAfterDiscount decimal.Decimal `json:"rateAfterDiscount"`
	// Packaging is the portion of OtherCharges categorised as packaging
	// and forwarding, reported separately on comparison sheets.
	Packaging decimal.Decimal `json:"packaging"`
}

// BasicAfterDiscount is the taxable amount under its comparison-sheet name.
func (ia ItemAmount) BasicAfterDiscount() decimal.Decimal {
	return ia.Taxable
}

// ComputeItem turns one line item into its full amount breakdown.
//
// The interstate flag is a precondition on the attached GST charges, not a
// computed value: interstate items may only carry IGST, intrastate items only
// CGST+SGST. A violation is reported as ErrInconsistentTaxSplit.
func ComputeItem(item LineItem, interstate bool) (ItemAmount, error) {
	if err := validateLineItem(item); err != nil {
		return ItemAmount{}, err
	}

	out := ItemAmount{LineItem: item}

	// Zero quantity short-circuits: every amount is zero and the discount
	// pair is left as supplied rather than re-derived against a zero base.
	if item.Quantity.IsZero() {
		out.Breakdown = newBreakdown(decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero)
		return out, nil
	}

	basic := item.Quantity.Mul(item.Rate)
	disc, err := reconcileDiscount(item.Discount, item.Edited, basic)
	if err != nil {
		return ItemAmount{}, err
	}
	out.LineItem.Discount = disc
	taxable := basic.Sub(disc.Amount)

	var igst, cgst, sgst, other, taxRate, packaging decimal.Decimal
	qty := item.Quantity
	base := charge.Base{ItemBasic: &taxable, Quantity: &qty}
	for _, raw := range item.Charges {
		def := charge.Normalize(raw)
		if def.Scope == charge.ScopeDocument {
			continue
		}
		resolved, err := charge.Resolve(def, base)
		if err != nil {
			return ItemAmount{}, fmt.Errorf("item %s: %w", item.Key(), err)
		}
		switch def.Kind {
		case charge.KindIGST:
			igst = igst.Add(resolved)
		case charge.KindCGST:
			cgst = cgst.Add(resolved)
		case charge.KindSGST:
			sgst = sgst.Add(resolved)
		default:
			other = other.Add(resolved)
			if def.Kind == charge.KindPackaging {
				packaging = packaging.Add(resolved)
			}
		}
		if def.Enabled && def.Kind.GST() && def.Nature == charge.NaturePercentage {
			taxRate = taxRate.Add(def.Value)
		}
	}

	if err := checkTaxSplit(item.Key(), interstate, igst, cgst, sgst, taxRate, taxable); err != nil {
		return ItemAmount{}, err
	}

	out.Breakdown = newBreakdown(basic, taxable, igst, cgst, sgst, other)
	out.TaxRate = taxRate
	out.RateAfterDiscount = round2(taxable.Div(item.Quantity))
	out.Packaging = round2(packaging)
	return out, nil
}

func validateLineItem(item LineItem) error {
	switch {
	case item.Quantity.IsNegative():
		return fmt.Errorf("item %s: negative quantity: %w", item.Key(), ErrInvalidLineItem)
	case item.Rate.IsNegative():
		return fmt.Errorf("item %s: negative rate: %w", item.Key(), ErrInvalidLineItem)
	case item.Discount.Percent.IsNegative() || item.Discount.Amount.IsNegative():
		return fmt.Errorf("item %s: negative discount: %w", item.Key(), ErrInvalidLineItem)
	case item.Quantity.IsPositive() && item.Rate.IsZero():
		return fmt.Errorf("item %s: quantity present without rate: %w", item.Key(), ErrInvalidLineItem)
	}
	return nil
}

// reconcileDiscount derives the non-driving discount field from the edited
// one. Percent is clamped to [0,100] and amount to [0,basic] before deriving.
func reconcileDiscount(d Discount, edited DiscountEdit, basic decimal.Decimal) (Discount, error) {
	if edited == "" {
		// Legacy callers that never declared a driving field: treat the
		// pair as percent-driven only when it cannot be ambiguous.
		if d.Amount.IsZero() {
			edited = EditPercent
		} else {
			return Discount{}, fmt.Errorf("driving discount field not declared: %w", ErrInvalidLineItem)
		}
	}
	switch edited {
	case EditAmount:
		amt := d.Amount
		if amt.GreaterThan(basic) {
			amt = basic
		}
		pct := decimal.Zero
		if basic.IsPositive() {
			pct = amt.Div(basic).Mul(hundredDec)
		}
		return Discount{Percent: round2(pct), Amount: amt}, nil
	case EditPercent:
		pct := d.Percent
		if pct.GreaterThan(hundredDec) {
			pct = hundredDec
		}
		amt := basic.Mul(pct).Div(hundredDec)
		return Discount{Percent: pct, Amount: round2(amt)}, nil
	default:
		return Discount{}, fmt.Errorf("unknown discount edit %q: %w", edited, ErrInvalidLineItem)
	}
}

func checkTaxSplit(key string, interstate bool, igst, cgst, sgst, taxRate, taxable decimal.Decimal) error {
	if interstate && (cgst.IsPositive() || sgst.IsPositive()) {
		return fmt.Errorf("item %s: CGST/SGST on an interstate item: %w", key, ErrInconsistentTaxSplit)
	}
	if !interstate && igst.IsPositive() {
		return fmt.Errorf("item %s: IGST on an intrastate item: %w", key, ErrInconsistentTaxSplit)
	}
	if taxRate.IsPositive() && taxable.IsPositive() && igst.IsZero() && cgst.IsZero() && sgst.IsZero() {
		return fmt.Errorf("item %s: tax rate declared but no GST amount resolved: %w", key, ErrInconsistentTaxSplit)
	}
	return nil
}

var hundredDec = decimal.NewFromInt(100)
