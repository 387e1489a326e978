package discounts

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mbravoz/drop-storefront/internal/domain"
)

// Reader is what the public validation endpoint needs from the
// repository.
type Reader interface {
	GetByCode(ctx context.Context, code string) (*domain.DiscountCode, error)
}

type Handler struct {
	reader Reader
	logger *slog.Logger
	now    func() time.Time
}

func NewHandler(reader Reader, logger *slog.Logger) *Handler {
	return &Handler{
		reader: reader,
		logger: logger,
		now:    time.Now,
	}
}

type validateRequest struct {
	Code string `json:"code"`
}

type validateResponse struct {
	Valid              bool   `json:"valid"`
	DiscountPercentage int    `json:"discount_percentage,omitempty"`
	IDDescuento        int64  `json:"id_descuento,omitempty"`
	Code               string `json:"code,omitempty"`
	Reason             string `json:"reason,omitempty"`
}

// HandleValidate checks a code and returns the percentage and id the
// client must carry into checkout verbatim.
func (h *Handler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, validateResponse{Valid: false, Reason: "cuerpo inválido"})
		return
	}

	req.Code = strings.TrimSpace(req.Code)
	if req.Code == "" {
		h.writeJSON(w, http.StatusBadRequest, validateResponse{Valid: false, Reason: "falta el código"})
		return
	}

	code, err := h.reader.GetByCode(r.Context(), req.Code)
	if err != nil {
		h.logger.Error("failed to look up discount code", "error", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if err := Validate(code, h.now()); err != nil {
		h.logger.Info("discount code rejected", "code", strings.ToUpper(req.Code), "reason", err.Error())
		h.writeJSON(w, http.StatusBadRequest, validateResponse{Valid: false, Reason: err.Error()})
		return
	}

	h.logger.Info("discount code validated", "code", code.Code, "percentage", code.Percentage)
	h.writeJSON(w, http.StatusOK, validateResponse{
		Valid:              true,
		DiscountPercentage: code.Percentage,
		IDDescuento:        code.ID,
		Code:               code.Code,
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}
