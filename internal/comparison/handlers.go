package comparison

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/procurehq/backend-procure/internal/common"
)

// Handler exposes the comparative statement endpoint.
type Handler struct {
	Svc *Service
}

// Get handles GET /rfqs/{rfqNumber}/comparison.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	rfqNumber := chi.URLParam(r, "rfqNumber")
	if rfqNumber == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "rfq number is required", nil)
		return
	}
	sheet, err := h.Svc.Get(r.Context(), rfqNumber)
	if err != nil {
		if errors.Is(err, ErrNoQuotations) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "no quotations saved for this rfq", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "build comparison", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": sheet})
}
