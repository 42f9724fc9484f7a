package negotiation

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/procurehq/backend-procure/internal/common"
	"github.com/procurehq/backend-procure/internal/obs"
)

// RoundStore is the persistence surface the handlers need.
type RoundStore interface {
	Insert(ctx context.Context, round Round) (Round, error)
	ListByRFQ(ctx context.Context, rfqNumber string) ([]Round, error)
}

// Handler exposes the negotiation endpoints.
type Handler struct {
	Store    RoundStore
	Validate *validator.Validate
}

func (h *Handler) validate(req any) error {
	if h.Validate == nil {
		return nil
	}
	return h.Validate.Struct(req)
}

func observeCompute(result string) {
	if obs.NegotiationComputeTotal != nil {
		obs.NegotiationComputeTotal.WithLabelValues(result).Inc()
	}
}

// Compute handles POST /negotiations/compute: resolve a round without
// persisting it.
func (h *Handler) Compute(w http.ResponseWriter, r *http.Request) {
	var req ComputeRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json body", nil)
		return
	}
	if err := h.validate(req); err != nil {
		observeCompute("invalid_input")
		common.JSONValidationError(w, err)
		return
	}
	round := req.Resolve()
	observeCompute("ok")
	common.JSON(w, http.StatusOK, map[string]any{"data": round})
}

// Create handles POST /rfqs/{rfqNumber}/negotiations: resolve a round and
// persist the accepted outcome.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	rfqNumber := chi.URLParam(r, "rfqNumber")
	if rfqNumber == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "rfq number is required", nil)
		return
	}
	var req ComputeRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json body", nil)
		return
	}
	req.RFQNumber = rfqNumber
	if req.VendorCode == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "vendor code is required", nil)
		return
	}
	if err := h.validate(req); err != nil {
		observeCompute("invalid_input")
		common.JSONValidationError(w, err)
		return
	}
	round := req.Resolve()
	stored, err := h.Store.Insert(r.Context(), round)
	if err != nil {
		observeCompute("error")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "save negotiation", nil)
		return
	}
	observeCompute("ok")
	common.JSON(w, http.StatusCreated, map[string]any{"data": stored})
}

// ListByRFQ handles GET /rfqs/{rfqNumber}/negotiations.
func (h *Handler) ListByRFQ(w http.ResponseWriter, r *http.Request) {
	rfqNumber := chi.URLParam(r, "rfqNumber")
	if rfqNumber == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "rfq number is required", nil)
		return
	}
	rounds, err := h.Store.ListByRFQ(r.Context(), rfqNumber)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "list negotiations", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rounds})
}
