package compare

import (
	"github.com/shopspring/decimal"
)

// Field names a tracked particular on a comparison sheet.
type Field string

// Item-level tracked particulars.
const (
	FieldRate               Field = "rate"
	FieldDiscountPercent    Field = "discountPercent"
	FieldDiscountAmount     Field = "discountAmount"
	FieldBasicAfterDiscount Field = "basicAfterDiscount"
	FieldTaxRate            Field = "taxRate"
	FieldRateAfterDiscount  Field = "rateAfterDiscount"
)

// Document-level tracked particulars.
const (
	FieldOtherCharges        Field = "otherCharges"
	FieldPackagingForwarding Field = "packagingForwarding"
	FieldGST                 Field = "gst"
	FieldNetAmount           Field = "netAmount"
)

// DefaultItemFields is the particular set compared per item on a CS.
var DefaultItemFields = []Field{
	FieldRate,
	FieldDiscountPercent,
	FieldDiscountAmount,
	FieldBasicAfterDiscount,
	FieldTaxRate,
	FieldRateAfterDiscount,
}

// DefaultDocumentFields is the particular set compared per vendor total.
var DefaultDocumentFields = []Field{
	FieldBasicAfterDiscount,
	FieldOtherCharges,
	FieldPackagingForwarding,
	FieldGST,
	FieldNetAmount,
}

// Particulars maps tracked fields to quoted values. A field absent from the
// map means the vendor did not quote it; absence excludes the vendor from
// that field's comparison instead of competing as zero.
type Particulars map[Field]decimal.Decimal

// VendorRow is one vendor's computed amounts for an RFQ, keyed by
// indentNumber:itemCode.
type VendorRow struct {
	VendorCode string                 `json:"vendorCode"`
	PerItem    map[string]Particulars `json:"perItem"`
	Document   Particulars            `json:"document"`
}

// LeastValue records the lowest quoted value for one field and the vendor
// that owns it. Vendors are identified by code, never by row position.
type LeastValue struct {
	Field      Field           `json:"field"`
	Value      decimal.Decimal `json:"value"`
	VendorCode string          `json:"vendorCode"`
}

// Result holds the L1 records of one comparison run. It is recomputed from
// scratch whenever the vendor set or any vendor's amounts change; a removed
// vendor can change the L1 owner, so results are never merged.
type Result struct {
	PerItem  map[string]map[Field]LeastValue `json:"perItem"`
	Document map[Field]LeastValue            `json:"document"`
}

// ComputeLeastValues selects, per item per field and per document field, the
// numerically smallest quoted value across all vendor rows. Ties go to the
// lexicographically lowest vendor code, which makes the result independent of
// row order.
func ComputeLeastValues(rows []VendorRow, itemFields, documentFields []Field) Result {
	res := Result{
		PerItem:  make(map[string]map[Field]LeastValue),
		Document: make(map[Field]LeastValue),
	}
	if len(itemFields) == 0 {
		itemFields = DefaultItemFields
	}
	if len(documentFields) == 0 {
		documentFields = DefaultDocumentFields
	}

	for _, row := range rows {
		for itemKey, particulars := range row.PerItem {
			fields := res.PerItem[itemKey]
			if fields == nil {
				fields = make(map[Field]LeastValue, len(itemFields))
				res.PerItem[itemKey] = fields
			}
			for _, f := range itemFields {
				value, ok := particulars[f]
				if !ok {
					continue
				}
				challenge(fields, f, value, row.VendorCode)
			}
		}
		for _, f := range documentFields {
			value, ok := row.Document[f]
			if !ok {
				continue
			}
			challenge(res.Document, f, value, row.VendorCode)
		}
	}
	return res
}

// challenge replaces the current least record when the candidate is strictly
// smaller, or equal with a lower vendor code.
func challenge(current map[Field]LeastValue, f Field, value decimal.Decimal, vendorCode string) {
	best, exists := current[f]
	if !exists ||
		value.LessThan(best.Value) ||
		(value.Equal(best.Value) && vendorCode < best.VendorCode) {
		current[f] = LeastValue{Field: f, Value: value, VendorCode: vendorCode}
	}
}
