package quotation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type stubStore struct {
	saved []Document
}

func (s *stubStore) Save(_ context.Context, doc Document) (Document, error) {
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	s.saved = append(s.saved, doc)
	return doc, nil
}

func (s *stubStore) Get(_ context.Context, id uuid.UUID) (Document, error) {
	for _, doc := range s.saved {
		if doc.ID == id {
			return doc, nil
		}
	}
	return Document{}, ErrNotFound
}

func (s *stubStore) ListByRFQ(_ context.Context, docType DocType, rfqNumber string) ([]Document, error) {
	var out []Document
	for _, doc := range s.saved {
		if doc.DocType == docType && doc.RFQNumber == rfqNumber {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (s *stubStore) List(_ context.Context, docType DocType, _, _ int) ([]Document, int64, error) {
	var out []Document
	for _, doc := range s.saved {
		if doc.DocType == docType {
			out = append(out, doc)
		}
	}
	return out, int64(len(out)), nil
}

type stubRecompute struct {
	rfqs []string
}

func (s *stubRecompute) ScheduleRecompute(_ context.Context, rfqNumber string) error {
	s.rfqs = append(s.rfqs, rfqNumber)
	return nil
}

func newHandler(store *stubStore, rec *stubRecompute) *Handler {
	svc := &Service{Store: store, DocMetrics: func(string, string) {}}
	if rec != nil {
		svc.Recompute = rec
	}
	return &Handler{
		Svc:            svc,
		DocType:        DocTypeQuotation,
		Validate:       validator.New(),
		DefaultPerPage: 20,
		MaxPerPage:     100,
	}
}

const computeBody = `{
	"rfqNumber": "RFQ-42",
	"vendorCode": "V001",
	"interstate": true,
	"items": [{
		"indentNumber": "IND-1",
		"itemCode": "STL-01",
		"quantity": "10",
		"rate": "100",
		"discountPercent": "10",
		"editedDiscountField": "percent",
		"charges": [{"name": "IGST", "nature": "percentage", "scope": "item", "value": "18", "enabled": true}]
	}]
}`

func TestComputeEndpointScenario(t *testing.T) {
	h := newHandler(&stubStore{}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/quotations/compute", strings.NewReader(computeBody))
	rr := httptest.NewRecorder()
	h.Compute(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var resp struct {
		Data struct {
			Basic   string `json:"basic"`
			Taxable string `json:"taxable"`
			IGST    string `json:"igst"`
			Total   string `json:"total"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, "1000", resp.Data.Basic)
	require.Equal(t, "900", resp.Data.Taxable)
	require.Equal(t, "162", resp.Data.IGST)
	require.Equal(t, "1062", resp.Data.Total)
}

func TestCreatePersistsAndSchedulesRecompute(t *testing.T) {
	store := &stubStore{}
	rec := &stubRecompute{}
	h := newHandler(store, rec)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/quotations", strings.NewReader(computeBody))
	rr := httptest.NewRecorder()
	h.Create(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	require.Len(t, store.saved, 1)
	require.Equal(t, "RFQ-42", store.saved[0].RFQNumber)
	require.Equal(t, DocTypeQuotation, store.saved[0].DocType)
	require.Equal(t, []string{"RFQ-42"}, rec.rfqs)
}

func TestComputeRejectsMissingFields(t *testing.T) {
	h := newHandler(&stubStore{}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/quotations/compute", strings.NewReader(`{"vendorCode":"V001","items":[]}`))
	rr := httptest.NewRecorder()
	h.Compute(rr, req)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestComputeSurfacesTaxSplitViolation(t *testing.T) {
	body := strings.Replace(computeBody, `"interstate": true`, `"interstate": false`, 1)
	h := newHandler(&stubStore{}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/quotations/compute", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.Compute(rr, req)

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, "AGGREGATION_FAILURE", resp.Error.Code)
}

func TestComputeRejectsUnknownChargeNature(t *testing.T) {
	body := strings.Replace(computeBody, `"nature": "percentage"`, `"nature": "progressive"`, 1)
	h := newHandler(&stubStore{}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/quotations/compute", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.Compute(rr, req)

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, "INVALID_CHARGE_DEFINITION", resp.Error.Code)
}
