package quotation

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/procurehq/backend-procure/internal/amount"
	"github.com/procurehq/backend-procure/internal/charge"
)

// DocType discriminates the commercial documents sharing one store. A
// purchase order carries the same amount structure as a quotation.
type DocType string

const (
	// DocTypeQuotation is a vendor quotation against an RFQ.
	DocTypeQuotation DocType = "quotation"
	// DocTypePurchaseOrder is a purchase order placed with a vendor.
	DocTypePurchaseOrder DocType = "purchase_order"
)

// ChargePayload is a tax/charge row as it arrives off the wire.
type ChargePayload struct {
	Name    string          `json:"name" validate:"required"`
	Nature  string          `json:"nature" validate:"required"`
	Scope   string          `json:"scope" validate:"omitempty,oneof=item document"`
	Value   decimal.Decimal `json:"value"`
	Enabled bool            `json:"enabled"`
}

// ItemPayload is a raw line item as it arrives off the wire.
type ItemPayload struct {
	IndentNumber        string          `json:"indentNumber" validate:"required"`
	ItemCode            string          `json:"itemCode" validate:"required"`
	Quantity            decimal.Decimal `json:"quantity"`
	Rate                decimal.Decimal `json:"rate"`
	DiscountPercent     decimal.Decimal `json:"discountPercent"`
	DiscountAmount      decimal.Decimal `json:"discountAmount"`
	EditedDiscountField string          `json:"editedDiscountField" validate:"omitempty,oneof=percent amount"`
	Charges             []ChargePayload `json:"charges" validate:"dive"`
}

// ComputeRequest is the payload for computing (and optionally saving) one
// vendor's document amounts.
type ComputeRequest struct {
	RFQNumber       string          `json:"rfqNumber" validate:"required"`
	VendorCode      string          `json:"vendorCode" validate:"required"`
	Interstate      bool            `json:"interstate"`
	Items           []ItemPayload   `json:"items" validate:"min=1,dive"`
	DocumentCharges []ChargePayload `json:"documentCharges" validate:"dive"`
}

// Document is one persisted commercial document with its computed amounts.
type Document struct {
	ID         uuid.UUID             `json:"id"`
	DocType    DocType               `json:"docType"`
	RFQNumber  string                `json:"rfqNumber"`
	VendorCode string                `json:"vendorCode"`
	Interstate bool                  `json:"interstate"`
	Amounts    amount.DocumentAmount `json:"amounts"`
	CreatedAt  time.Time             `json:"createdAt"`
	UpdatedAt  time.Time             `json:"updatedAt"`
}

func (p ChargePayload) toDefinition() (charge.Definition, error) {
	nature, err := charge.ParseNature(p.Nature)
	if err != nil {
		return charge.Definition{}, err
	}
	scope := charge.Scope(p.Scope)
	if scope == "" {
		scope = charge.ScopeItem
	}
	return charge.Normalize(charge.Definition{
		Name:    p.Name,
		Nature:  nature,
		Scope:   scope,
		Value:   p.Value,
		Enabled: p.Enabled,
	}), nil
}

func (p ItemPayload) toLineItem() (amount.LineItem, error) {
	item := amount.LineItem{
		IndentNumber: p.IndentNumber,
		ItemCode:     p.ItemCode,
		Quantity:     p.Quantity,
		Rate:         p.Rate,
		Discount:     amount.Discount{Percent: p.DiscountPercent, Amount: p.DiscountAmount},
		Edited:       amount.DiscountEdit(p.EditedDiscountField),
	}
	for _, cp := range p.Charges {
		def, err := cp.toDefinition()
		if err != nil {
			return amount.LineItem{}, err
		}
		item.Charges = append(item.Charges, def)
	}
	return item, nil
}

// EngineInput converts the wire payload into engine records.
func (r ComputeRequest) EngineInput() ([]amount.LineItem, []charge.Definition, error) {
	items := make([]amount.LineItem, 0, len(r.Items))
	for _, ip := range r.Items {
		item, err := ip.toLineItem()
		if err != nil {
			return nil, nil, err
		}
		items = append(items, item)
	}
	docCharges := make([]charge.Definition, 0, len(r.DocumentCharges))
	for _, cp := range r.DocumentCharges {
		def, err := cp.toDefinition()
		if err != nil {
			return nil, nil, err
		}
		// Charges posted at document level default to document scope.
		if def.Scope == charge.ScopeItem && cp.Scope == "" {
			def.Scope = charge.ScopeDocument
		}
		docCharges = append(docCharges, def)
	}
	return items, docCharges, nil
}
