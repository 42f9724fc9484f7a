package negotiation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type stubRoundStore struct {
	rounds []Round
}

func (s *stubRoundStore) Insert(_ context.Context, round Round) (Round, error) {
	if round.ID == uuid.Nil {
		round.ID = uuid.New()
	}
	s.rounds = append(s.rounds, round)
	return round, nil
}

func (s *stubRoundStore) ListByRFQ(_ context.Context, rfqNumber string) ([]Round, error) {
	var out []Round
	for _, round := range s.rounds {
		if round.RFQNumber == rfqNumber {
			out = append(out, round)
		}
	}
	return out, nil
}

const negotiationBody = `{
	"vendorCode": "V001",
	"allowedFields": ["discountPercent"],
	"items": [{
		"itemKey": "IND-1:STL-01",
		"baseline": {
			"quantity": "10",
			"rate": "100",
			"discountPercent": "15",
			"discountAmount": "150",
			"basicAfterDiscount": "850"
		},
		"proposal": {"discountPercent": "20"}
	}],
	"originalCharges": {"Freight": "100"},
	"negotiatedCharges": {"Freight": "80"}
}`

func newRouter(store *stubRoundStore) *chi.Mux {
	h := &Handler{Store: store, Validate: validator.New()}
	r := chi.NewRouter()
	r.Post("/api/v1/negotiations/compute", h.Compute)
	r.Post("/api/v1/rfqs/{rfqNumber}/negotiations", h.Create)
	r.Get("/api/v1/rfqs/{rfqNumber}/negotiations", h.ListByRFQ)
	return r
}

func TestComputeEndpointSavings(t *testing.T) {
	router := newRouter(&stubRoundStore{})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/negotiations/compute", strings.NewReader(negotiationBody))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var resp struct {
		Data struct {
			Items []struct {
				ItemKey            string `json:"itemKey"`
				BasicAfterDiscount string `json:"basicAfterDiscount"`
				Savings            string `json:"savings"`
			} `json:"items"`
			Savings struct {
				Items   string `json:"items"`
				Charges string `json:"charges"`
				Total   string `json:"total"`
			} `json:"savings"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Items, 1)
	require.Equal(t, "IND-1:STL-01", resp.Data.Items[0].ItemKey)
	require.Equal(t, "800", resp.Data.Items[0].BasicAfterDiscount)
	require.Equal(t, "50", resp.Data.Items[0].Savings)
	require.Equal(t, "50", resp.Data.Savings.Items)
	require.Equal(t, "20", resp.Data.Savings.Charges)
	require.Equal(t, "70", resp.Data.Savings.Total)
}

func TestCreatePersistsRound(t *testing.T) {
	store := &stubRoundStore{}
	router := newRouter(store)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/rfqs/RFQ-42/negotiations", strings.NewReader(negotiationBody))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	require.Len(t, store.rounds, 1)
	require.Equal(t, "RFQ-42", store.rounds[0].RFQNumber)
	require.Equal(t, "V001", store.rounds[0].VendorCode)
	require.Equal(t, "70", store.rounds[0].Savings.Total.String())

	listReq := httptest.NewRequest(http.MethodGet, "/api/v1/rfqs/RFQ-42/negotiations", nil)
	listRR := httptest.NewRecorder()
	router.ServeHTTP(listRR, listReq)
	require.Equal(t, http.StatusOK, listRR.Code)
}

func TestComputeRejectsUnknownAllowedField(t *testing.T) {
	body := strings.Replace(negotiationBody, `"discountPercent"]`, `"rsuggestedRetailPrice"]`, 1)
	router := newRouter(&stubRoundStore{})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/negotiations/compute", strings.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestCreateRequiresVendorCode(t *testing.T) {
	body := strings.Replace(negotiationBody, `"vendorCode": "V001",`, "", 1)
	router := newRouter(&stubRoundStore{})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/rfqs/RFQ-42/negotiations", strings.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}
