package amount

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/procurehq/backend-procure/internal/charge"
)

// DocumentAmount aggregates item breakdowns and document-level charges for a
// quotation, purchase order, or one vendor row of a comparative statement.
type DocumentAmount struct {
	Breakdown
	// Discount is the sum of item discount amounts.
	Discount decimal.Decimal `json:"discount"`
	// ItemCharges is the sum of item-scoped non-GST charges.
	ItemCharges decimal.Decimal `json:"itemCharges"`
	// Packaging is the packaging and forwarding total across both scopes.
	Packaging decimal.Decimal `json:"packaging"`
	// Items carries the per-item computations the totals were built from.
	Items []ItemAmount `json:"items"`
}

// GST returns the combined tax amount of the document.
func (d DocumentAmount) GST() decimal.Decimal {
	return d.IGST.Add(d.CGST).Add(d.SGST)
}

// BasicAfterDiscount returns basic minus the summed item discounts.
func (d DocumentAmount) BasicAfterDiscount() decimal.Decimal {
	return d.Basic.Sub(d.Discount)
}

// AggregationError wraps the first item failure hit while aggregating a
// document. Aggregation never continues past a failing item and never emits a
// partial document.
type AggregationError struct {
	Index   int
	ItemKey string
	Err     error
}

// Error implements the error interface.
func (e *AggregationError) Error() string {
	return fmt.Sprintf("amount: aggregation failed at item %d (%s): %v", e.Index, e.ItemKey, e.Err)
}

// Unwrap exposes the underlying item failure to errors.Is/As.
func (e *AggregationError) Unwrap() error { return e.Err }

// ComputeDocument recomputes a document total in full from its raw inputs.
// It is always a total recomputation; removing a charge or an item must go
// through here again rather than patching a previous result, so stale partial
// sums cannot survive reordering or duplicate charge names.
func ComputeDocument(items []LineItem, documentCharges []charge.Definition, interstate bool) (DocumentAmount, error) {
	doc := DocumentAmount{Items: make([]ItemAmount, 0, len(items))}

	var basic, discount, taxable, igst, cgst, sgst, itemCharges, packaging, quantity decimal.Decimal
	for i, item := range items {
		computed, err := ComputeItem(item, interstate)
		if err != nil {
			return DocumentAmount{}, &AggregationError{Index: i, ItemKey: item.Key(), Err: err}
		}
		doc.Items = append(doc.Items, computed)
		basic = basic.Add(computed.Basic)
		discount = discount.Add(computed.LineItem.Discount.Amount)
		taxable = taxable.Add(computed.Taxable)
		igst = igst.Add(computed.IGST)
		cgst = cgst.Add(computed.CGST)
		sgst = sgst.Add(computed.SGST)
		itemCharges = itemCharges.Add(computed.OtherCharges)
		packaging = packaging.Add(computed.Packaging)
		quantity = quantity.Add(computed.Quantity)
	}

	var docCharges decimal.Decimal
	base := charge.Base{ItemBasic: &basic, Quantity: &quantity}
	for _, raw := range documentCharges {
		def := charge.Normalize(raw)
		if def.Scope == charge.ScopeItem {
			continue
		}
		resolved, err := charge.Resolve(def, base)
		if err != nil {
			return DocumentAmount{}, fmt.Errorf("document charge: %w", err)
		}
		docCharges = docCharges.Add(resolved)
		if def.Kind == charge.KindPackaging {
			packaging = packaging.Add(resolved)
		}
	}

	doc.Breakdown = Breakdown{
		Basic:        round2(basic),
		Taxable:      round2(taxable),
		IGST:         round2(igst),
		CGST:         round2(cgst),
		SGST:         round2(sgst),
		OtherCharges: round2(docCharges),
	}
	doc.Discount = round2(discount)
	doc.ItemCharges = round2(itemCharges)
	doc.Packaging = round2(packaging)
	doc.Total = doc.Basic.Sub(doc.Discount).
		Add(doc.IGST).Add(doc.CGST).Add(doc.SGST).
		Add(doc.OtherCharges).Add(doc.ItemCharges)
	return doc, nil
}
