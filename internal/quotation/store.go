package quotation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/procurehq/backend-procure/internal/amount"
)

// ErrNotFound indicates the requested document could not be located.
var ErrNotFound = errors.New("quotation: document not found")

// Store persists commercial documents with their computed amounts. One row
// per (docType, rfqNumber, vendorCode); saving again replaces the amounts
// wholesale, matching the engine's recompute-in-full model.
type Store struct {
	Pool *pgxpool.Pool
}

// NewStore constructs a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{Pool: pool}
}

// Save upserts the document and returns the stored row.
func (s *Store) Save(ctx context.Context, doc Document) (Document, error) {
	if s == nil || s.Pool == nil {
		return Document{}, errors.New("quotation: store not configured")
	}
	payload, err := json.Marshal(doc.Amounts)
	if err != nil {
		return Document{}, fmt.Errorf("quotation: encode amounts: %w", err)
	}
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	row := s.Pool.QueryRow(ctx, `
		INSERT INTO procurement_documents (id, doc_type, rfq_number, vendor_code, interstate, amounts)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (doc_type, rfq_number, vendor_code)
		DO UPDATE SET interstate = EXCLUDED.interstate, amounts = EXCLUDED.amounts, updated_at = now()
		RETURNING id, doc_type, rfq_number, vendor_code, interstate, amounts, created_at, updated_at`,
		doc.ID, doc.DocType, doc.RFQNumber, doc.VendorCode, doc.Interstate, payload)
	return scanDocument(row)
}

// Get loads one document by id.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (Document, error) {
	if s == nil || s.Pool == nil {
		return Document{}, errors.New("quotation: store not configured")
	}
	row := s.Pool.QueryRow(ctx, `
		SELECT id, doc_type, rfq_number, vendor_code, interstate, amounts, created_at, updated_at
		FROM procurement_documents WHERE id = $1`, id)
	doc, err := scanDocument(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	return doc, err
}

// ListByRFQ returns every vendor document of one type for an RFQ, ordered by
// vendor code for deterministic comparison input.
func (s *Store) ListByRFQ(ctx context.Context, docType DocType, rfqNumber string) ([]Document, error) {
	if s == nil || s.Pool == nil {
		return nil, errors.New("quotation: store not configured")
	}
	rows, err := s.Pool.Query(ctx, `
		SELECT id, doc_type, rfq_number, vendor_code, interstate, amounts, created_at, updated_at
		FROM procurement_documents
		WHERE doc_type = $1 AND rfq_number = $2
		ORDER BY vendor_code`, docType, rfqNumber)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var docs []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// List returns a page of documents of one type, newest first.
func (s *Store) List(ctx context.Context, docType DocType, page, perPage int) ([]Document, int64, error) {
	if s == nil || s.Pool == nil {
		return nil, 0, errors.New("quotation: store not configured")
	}
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 20
	}
	offset := (page - 1) * perPage

	var total int64
	if err := s.Pool.QueryRow(ctx,
		`SELECT count(*) FROM procurement_documents WHERE doc_type = $1`, docType).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := s.Pool.Query(ctx, `
		SELECT id, doc_type, rfq_number, vendor_code, interstate, amounts, created_at, updated_at
		FROM procurement_documents
		WHERE doc_type = $1
		ORDER BY updated_at DESC
		LIMIT $2 OFFSET $3`, docType, perPage, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var docs []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, 0, err
		}
		docs = append(docs, doc)
	}
	return docs, total, rows.Err()
}

func scanDocument(row pgx.Row) (Document, error) {
	var (
		doc     Document
		payload []byte
	)
	if err := row.Scan(&doc.ID, &doc.DocType, &doc.RFQNumber, &doc.VendorCode, &doc.Interstate, &payload, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		return Document{}, err
	}
	if len(payload) > 0 {
		var amounts amount.DocumentAmount
		if err := json.Unmarshal(payload, &amounts); err != nil {
			return Document{}, fmt.Errorf("quotation: decode amounts: %w", err)
		}
		doc.Amounts = amounts
	}
	return doc, nil
}
