package amount

import "github.com/shopspring/decimal"

// Breakdown is the computed amount split for one line item or one document,
// rounded to two decimal places at construction. Intermediate arithmetic is
// kept at full precision; rounding happens exactly once, here.
type Breakdown struct {
	Basic        decimal.Decimal `json:"basic"`
	Taxable      decimal.Decimal `json:"taxable"`
	IGST         decimal.Decimal `json:"igst"`
	CGST         decimal.Decimal `json:"cgst"`
	SGST         decimal.Decimal `json:"sgst"`
	OtherCharges decimal.Decimal `json:"otherCharges"`
	Total        decimal.Decimal `json:"total"`
}

func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// newBreakdown rounds each component and derives the total from the rounded
// parts so that total == taxable + gst + otherCharges holds exactly after
// rounding.
func newBreakdown(basic, taxable, igst, cgst, sgst, other decimal.Decimal) Breakdown {
	b := Breakdown{
		Basic:        round2(basic),
		Taxable:      round2(taxable),
		IGST:         round2(igst),
		CGST:         round2(cgst),
		SGST:         round2(sgst),
		OtherCharges: round2(other),
	}
	b.Total = b.Taxable.Add(b.IGST).Add(b.CGST).Add(b.SGST).Add(b.OtherCharges)
	return b
}
