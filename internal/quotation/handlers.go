package quotation

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/procurehq/backend-procure/internal/amount"
	"github.com/procurehq/backend-procure/internal/charge"
	"github.com/procurehq/backend-procure/internal/common"
)

// Handler exposes quotation and purchase order endpoints.
type Handler struct {
	Svc            *Service
	DocType        DocType
	Validate       *validator.Validate
	DefaultPerPage int
	MaxPerPage     int
}

func (h *Handler) validate(req any) error {
	if h.Validate == nil {
		return nil
	}
	return h.Validate.Struct(req)
}

// Compute handles POST /{docs}/compute: run the engine, return the amounts,
// persist nothing.
func (h *Handler) Compute(w http.ResponseWriter, r *http.Request) {
	var req ComputeRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json body", nil)
		return
	}
	if err := h.validate(req); err != nil {
		common.JSONValidationError(w, err)
		return
	}
	doc, err := h.Svc.Compute(h.DocType, req)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": doc})
}

// Create handles POST /{docs}: compute and persist one vendor document.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req ComputeRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json body", nil)
		return
	}
	if err := h.validate(req); err != nil {
		common.JSONValidationError(w, err)
		return
	}
	doc, err := h.Svc.Save(r.Context(), h.DocType, req)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": doc})
}

// Get handles GET /{docs}/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid document id", nil)
		return
	}
	doc, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "document not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "load document", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": doc})
}

// List handles GET /{docs} with pagination.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := common.ParsePagination(r, h.DefaultPerPage, h.MaxPerPage)
	docs, total, err := h.Svc.List(r.Context(), h.DocType, page, perPage)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "list documents", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       docs,
		"pagination": common.Pagination{Page: page, PerPage: perPage, TotalItems: int(total)},
	})
}

// ListByRFQ handles GET /rfqs/{rfqNumber}/{docs}.
func (h *Handler) ListByRFQ(w http.ResponseWriter, r *http.Request) {
	rfqNumber := chi.URLParam(r, "rfqNumber")
	if rfqNumber == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "rfq number is required", nil)
		return
	}
	docs, err := h.Svc.ListByRFQ(r.Context(), h.DocType, rfqNumber)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "list documents", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": docs})
}

// writeEngineError maps engine failures onto the API error shape. Validation
// style failures are 422s carrying a stable code the form layer can branch
// on; anything unrecognised is a 500.
func writeEngineError(w http.ResponseWriter, err error) {
	appErr := engineError(err)
	common.JSONError(w, appErr.HTTPStatus, appErr.Code, appErr.Message, appErr.Details)
}

func engineError(err error) *common.AppError {
	var aggErr *amount.AggregationError
	if errors.As(err, &aggErr) {
		return common.Unprocessable("AGGREGATION_FAILURE", err).WithDetails(map[string]any{
			"itemIndex": aggErr.Index,
			"itemKey":   aggErr.ItemKey,
		})
	}
	switch {
	case errors.Is(err, amount.ErrInvalidLineItem):
		return common.Unprocessable("INVALID_LINE_ITEM", err)
	case errors.Is(err, charge.ErrInvalidDefinition):
		return common.Unprocessable("INVALID_CHARGE_DEFINITION", err)
	case errors.Is(err, amount.ErrInconsistentTaxSplit):
		return common.Unprocessable("INCONSISTENT_TAX_SPLIT", err)
	default:
		return common.Internal("compute document", err)
	}
}
