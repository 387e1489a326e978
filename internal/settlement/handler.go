package settlement

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mbravoz/drop-storefront/internal/discounts"
	"github.com/mbravoz/drop-storefront/internal/stock"
)

type Settler interface {
	Settle(ctx context.Context, paymentID, preferenceID string) (*Result, error)
}

type Handler struct {
	service Settler
	logger  *slog.Logger
}

func NewHandler(service Settler, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// HandleConfirm is the processor's return-page callback. It is a GET
// because the processor redirects the buyer's browser here with the
// payment and preference ids in the query string.
func (h *Handler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	paymentID := r.URL.Query().Get("payment_id")
	preferenceID := r.URL.Query().Get("preference_id")
	if paymentID == "" || preferenceID == "" {
		h.writeJSON(w, http.StatusBadRequest, Result{
			Success: false,
			Message: "faltan payment_id o preference_id",
		})
		return
	}

	result, err := h.service.Settle(r.Context(), paymentID, preferenceID)
	if err != nil {
		h.logger.Error("settlement failed",
			"error", err,
			"payment_id", paymentID,
			"preference_id", preferenceID,
		)

		switch {
		case errors.Is(err, stock.ErrNoStock):
			h.writeJSON(w, http.StatusBadRequest, Result{
				Success: false,
				Message: "no quedan unidades disponibles, contactá a soporte para el reembolso",
			})
		case errors.Is(err, discounts.ErrNotRedeemable):
			h.writeJSON(w, http.StatusBadRequest, Result{
				Success: false,
				Message: "el código de descuento ya no está disponible, contactá a soporte",
			})
		case errors.Is(err, ErrAmountMismatch):
			h.writeJSON(w, http.StatusBadRequest, Result{
				Success: false,
				Message: "el monto pagado no coincide con el pedido, contactá a soporte",
			})
		default:
			h.writeJSON(w, http.StatusInternalServerError, Result{
				Success: false,
				Message: "no se pudo confirmar el pago",
			})
		}
		return
	}

	// Soft outcomes (payment still pending) are 200s with success=false;
	// the return page renders the message either way.
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}
