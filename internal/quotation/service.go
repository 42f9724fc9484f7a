package quotation

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/procurehq/backend-procure/internal/amount"
	"github.com/procurehq/backend-procure/internal/obs"
)

// DocumentStore is the persistence surface the service needs.
type DocumentStore interface {
	Save(ctx context.Context, doc Document) (Document, error)
	Get(ctx context.Context, id uuid.UUID) (Document, error)
	ListByRFQ(ctx context.Context, docType DocType, rfqNumber string) ([]Document, error)
	List(ctx context.Context, docType DocType, page, perPage int) ([]Document, int64, error)
}

// Recomputer is notified after a save so downstream comparison sheets can be
// invalidated and rebuilt off the request path.
type Recomputer interface {
	ScheduleRecompute(ctx context.Context, rfqNumber string) error
}

// Service computes document amounts and persists the results.
type Service struct {
	Store      DocumentStore
	Recompute  Recomputer
	DocMetrics func(docType, result string)
}

func (s *Service) observe(docType DocType, result string) {
	if s != nil && s.DocMetrics != nil {
		s.DocMetrics(string(docType), result)
		return
	}
	if obs.DocumentComputeTotal != nil {
		obs.DocumentComputeTotal.WithLabelValues(string(docType), result).Inc()
	}
}

// Compute runs the amount engine over the request without persisting.
func (s *Service) Compute(docType DocType, req ComputeRequest) (amount.DocumentAmount, error) {
	items, docCharges, err := req.EngineInput()
	if err != nil {
		s.observe(docType, "invalid_input")
		return amount.DocumentAmount{}, err
	}
	doc, err := amount.ComputeDocument(items, docCharges, req.Interstate)
	if err != nil {
		s.observe(docType, "error")
		return amount.DocumentAmount{}, err
	}
	s.observe(docType, "ok")
	return doc, nil
}

// Save computes the request and upserts one vendor document. The stored
// amounts are always the engine's output, never caller-supplied totals.
func (s *Service) Save(ctx context.Context, docType DocType, req ComputeRequest) (Document, error) {
	if s == nil || s.Store == nil {
		return Document{}, errors.New("quotation: service not configured")
	}
	amounts, err := s.Compute(docType, req)
	if err != nil {
		return Document{}, err
	}
	doc, err := s.Store.Save(ctx, Document{
		DocType:    docType,
		RFQNumber:  req.RFQNumber,
		VendorCode: req.VendorCode,
		Interstate: req.Interstate,
		Amounts:    amounts,
	})
	if err != nil {
		return Document{}, err
	}
	if s.Recompute != nil {
		// Comparison rebuild is advisory; the save already succeeded.
		_ = s.Recompute.ScheduleRecompute(ctx, req.RFQNumber)
	}
	return doc, nil
}

// Get returns one stored document.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Document, error) {
	if s == nil || s.Store == nil {
		return Document{}, errors.New("quotation: service not configured")
	}
	return s.Store.Get(ctx, id)
}

// ListByRFQ returns all vendor documents of one type for an RFQ.
func (s *Service) ListByRFQ(ctx context.Context, docType DocType, rfqNumber string) ([]Document, error) {
	if s == nil || s.Store == nil {
		return nil, errors.New("quotation: service not configured")
	}
	return s.Store.ListByRFQ(ctx, docType, rfqNumber)
}

// List returns a page of stored documents.
func (s *Service) List(ctx context.Context, docType DocType, page, perPage int) ([]Document, int64, error) {
	if s == nil || s.Store == nil {
		return nil, 0, errors.New("quotation: service not configured")
	}
	return s.Store.List(ctx, docType, page, perPage)
}
