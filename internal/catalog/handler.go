package catalog

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/mbravoz/drop-storefront/internal/domain"
)

// Store is the slice of the repository the public handlers need.
type Store interface {
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	Stock(ctx context.Context, productID int64) (*domain.StockSummary, error)
}

type Handler struct {
	store     Store
	productID int64
	logger    *slog.Logger
}

func NewHandler(store Store, productID int64, logger *slog.Logger) *Handler {
	return &Handler{
		store:     store,
		productID: productID,
		logger:    logger,
	}
}

func (h *Handler) HandleStock(w http.ResponseWriter, r *http.Request) {
	summary, err := h.store.Stock(r.Context(), h.productID)
	if err != nil {
		h.logger.Error("failed to query stock", "error", err, "product_id", h.productID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if summary == nil {
		h.writeError(w, http.StatusNotFound, "producto no encontrado")
		return
	}

	h.writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) HandlePrices(w http.ResponseWriter, r *http.Request) {
	product, err := h.store.GetProduct(r.Context(), h.productID)
	if err != nil {
		h.logger.Error("failed to query product", "error", err, "product_id", h.productID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if product == nil {
		h.writeError(w, http.StatusNotFound, "producto no encontrado")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]int64{
		string(domain.ZoneCapital):  product.PrecioCapital,
		string(domain.ZoneInterior): product.PrecioInterior,
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
