package negotiation

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemProposalPayload pairs one line item's pre-negotiation figures with the
// buyer's proposed edits.
type ItemProposalPayload struct {
	ItemKey  string   `json:"itemKey" validate:"required"`
	Baseline Baseline `json:"baseline"`
	Proposal Proposal `json:"proposal"`
}

// ComputeRequest is the payload for resolving one negotiation round.
type ComputeRequest struct {
	RFQNumber         string                     `json:"rfqNumber"`
	VendorCode        string                     `json:"vendorCode"`
	AllowedFields     []string                   `json:"allowedFields" validate:"min=1,dive,oneof=rate discountPercent discountAmount basicAfterDiscount"`
	Items             []ItemProposalPayload      `json:"items" validate:"min=1,dive"`
	OriginalCharges   map[string]decimal.Decimal `json:"originalCharges"`
	NegotiatedCharges map[string]decimal.Decimal `json:"negotiatedCharges"`
}

// ItemOutcome is one resolved line with its key preserved for the caller.
type ItemOutcome struct {
	ItemKey string `json:"itemKey"`
	Outcome
}

// Round is a resolved negotiation round, optionally persisted.
type Round struct {
	ID         uuid.UUID     `json:"id,omitempty"`
	RFQNumber  string        `json:"rfqNumber,omitempty"`
	VendorCode string        `json:"vendorCode,omitempty"`
	Items      []ItemOutcome `json:"items"`
	Savings    Savings       `json:"savings"`
	CreatedAt  time.Time     `json:"createdAt,omitempty"`
}

// Resolve applies the engine to the request.
func (r ComputeRequest) Resolve() Round {
	fields := make([]Field, 0, len(r.AllowedFields))
	for _, f := range r.AllowedFields {
		fields = append(fields, Field(f))
	}
	allowed := NewFieldSet(fields...)

	items := make([]ItemOutcome, 0, len(r.Items))
	outcomes := make([]Outcome, 0, len(r.Items))
	for _, ip := range r.Items {
		out := ComputeItemSavings(ip.Baseline, ip.Proposal, allowed)
		items = append(items, ItemOutcome{ItemKey: ip.ItemKey, Outcome: out})
		outcomes = append(outcomes, out)
	}
	chargeSavings := ChargeSavings(r.OriginalCharges, r.NegotiatedCharges)
	return Round{
		RFQNumber:  r.RFQNumber,
		VendorCode: r.VendorCode,
		Items:      items,
		Savings:    DocumentSavings(outcomes, chargeSavings),
	}
}
