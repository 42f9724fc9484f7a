package compare

import (
	"github.com/procurehq/backend-procure/internal/amount"
)

// RowFromDocument projects one vendor's computed document onto the tracked
// comparison particulars. Items with zero quantity expose no particulars,
// so an unquoted item never competes as zero.
func RowFromDocument(vendorCode string, doc amount.DocumentAmount) VendorRow {
	row := VendorRow{
		VendorCode: vendorCode,
		PerItem:    make(map[string]Particulars, len(doc.Items)),
	}
	for _, item := range doc.Items {
		if item.Quantity.IsZero() {
			continue
		}
		row.PerItem[item.Key()] = Particulars{
			FieldRate:               item.Rate,
			FieldDiscountPercent:    item.LineItem.Discount.Percent,
			FieldDiscountAmount:     item.LineItem.Discount.Amount,
			FieldBasicAfterDiscount: item.BasicAfterDiscount(),
			FieldTaxRate:            item.TaxRate,
			FieldRateAfterDiscount:  item.RateAfterDiscount,
		}
	}
	row.Document = Particulars{
		FieldBasicAfterDiscount:  doc.BasicAfterDiscount(),
		FieldOtherCharges:        doc.OtherCharges.Add(doc.ItemCharges),
		FieldPackagingForwarding: doc.Packaging,
		FieldGST:                 doc.GST(),
		FieldNetAmount:           doc.Total,
	}
	return row
}
