package admin

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mbravoz/drop-storefront/internal/discounts"
	"github.com/mbravoz/drop-storefront/internal/domain"
	"github.com/mbravoz/drop-storefront/internal/orders"
)

type OrderStore interface {
	List(ctx context.Context, filter orders.ListFilter) ([]domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	SetShippingStatus(ctx context.Context, id string, from, to domain.ShippingStatus) error
}

type DiscountStore interface {
	List(ctx context.Context) ([]domain.DiscountCode, error)
	Create(ctx context.Context, code *domain.DiscountCode) error
	SetActive(ctx context.Context, id int64, active bool) (*domain.DiscountCode, error)
	PerformanceReport(ctx context.Context) ([]discounts.Performance, error)
}

type Catalog interface {
	UpdatePrices(ctx context.Context, productID, precioCapital, precioInterior int64) (*domain.Product, error)
}

// Handler serves the owner dashboard. Every route here sits behind the
// admin auth middleware.
type Handler struct {
	orders    OrderStore
	discounts DiscountStore
	catalog   Catalog
	productID int64
	logger    *slog.Logger
	now       func() time.Time
}

func NewHandler(orderStore OrderStore, discountStore DiscountStore, catalog Catalog, productID int64, logger *slog.Logger) *Handler {
	return &Handler{
		orders:    orderStore,
		discounts: discountStore,
		catalog:   catalog,
		productID: productID,
		logger:    logger,
		now:       time.Now,
	}
}

func (h *Handler) HandleListOrders(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := orders.ListFilter{
		EstadoPago:  domain.PaymentStatus(query.Get("estado_pago")),
		EstadoEnvio: domain.ShippingStatus(query.Get("estado_envio")),
		Zona:        domain.Zone(query.Get("zona")),
	}
	if limit := query.Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			h.writeError(w, http.StatusBadRequest, "limit inválido")
			return
		}
		filter.Limit = n
	}

	list, err := h.orders.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list orders", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"pedidos": list,
		"total":   len(list),
	})
}

type shippingUpdateRequest struct {
	EstadoEnvio domain.ShippingStatus `json:"estado_envio"`
}

func (h *Handler) HandleUpdateShipping(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req shippingUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "cuerpo inválido")
		return
	}

	order, err := h.orders.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to load order", "error", err, "order_id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if order == nil {
		h.writeError(w, http.StatusNotFound, "pedido no encontrado")
		return
	}
	if order.EstadoPago != domain.PaymentPaid {
		h.writeError(w, http.StatusConflict, "el pedido no está pagado")
		return
	}
	if !domain.NextShippingStatus(order.EstadoEnvio, req.EstadoEnvio) {
		h.writeError(w, http.StatusConflict, "transición de envío inválida")
		return
	}

	if err := h.orders.SetShippingStatus(r.Context(), id, order.EstadoEnvio, req.EstadoEnvio); err != nil {
		if errors.Is(err, orders.ErrStaleStatus) {
			h.writeError(w, http.StatusConflict, "el pedido cambió de estado, recargá la lista")
			return
		}
		h.logger.Error("failed to update shipping status", "error", err, "order_id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	updated, err := h.orders.GetByID(r.Context(), id)
	if err != nil || updated == nil {
		h.logger.Error("failed to reload order", "error", err, "order_id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	now := h.now()

	var cutoff time.Time
	if rango := r.URL.Query().Get("rango"); rango != "" {
		windowStart, ok := StatsWindows[rango]
		if !ok {
			h.writeError(w, http.StatusBadRequest, "rango inválido, usar dia|semana|mes|anio")
			return
		}
		cutoff = windowStart(now)
	}

	list, err := h.orders.List(r.Context(), orders.ListFilter{})
	if err != nil {
		h.logger.Error("failed to list orders for stats", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if !cutoff.IsZero() {
		inWindow := list[:0]
		for _, order := range list {
			paidAt := order.CreatedAt
			if order.PaidAt != nil {
				paidAt = *order.PaidAt
			}
			if paidAt.After(cutoff) {
				inWindow = append(inWindow, order)
			}
		}
		list = inWindow
	}

	h.writeJSON(w, http.StatusOK, BuildStats(list, now))
}

func (h *Handler) HandleListDiscounts(w http.ResponseWriter, r *http.Request) {
	list, err := h.discounts.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list discounts", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, list)
}

type createDiscountRequest struct {
	Code        string     `json:"code"`
	Percentage  int        `json:"percentage"`
	MaxUsos     *int       `json:"max_usos"`
	ValidoDesde *time.Time `json:"valido_desde"`
	ValidoHasta *time.Time `json:"valido_hasta"`
	Descripcion string     `json:"descripcion"`
}

func (h *Handler) HandleCreateDiscount(w http.ResponseWriter, r *http.Request) {
	var req createDiscountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "cuerpo inválido")
		return
	}

	if strings.TrimSpace(req.Code) == "" {
		h.writeError(w, http.StatusBadRequest, "el código es obligatorio")
		return
	}
	if req.Percentage < 1 || req.Percentage > 100 {
		h.writeError(w, http.StatusBadRequest, "el porcentaje debe estar entre 1 y 100")
		return
	}
	if req.MaxUsos != nil && *req.MaxUsos < 1 {
		h.writeError(w, http.StatusBadRequest, "max_usos debe ser positivo")
		return
	}
	if req.ValidoDesde != nil && req.ValidoHasta != nil && req.ValidoHasta.Before(*req.ValidoDesde) {
		h.writeError(w, http.StatusBadRequest, "la ventana de validez está invertida")
		return
	}

	code := &domain.DiscountCode{
		Code:        req.Code,
		Percentage:  req.Percentage,
		Activo:      true,
		MaxUsos:     req.MaxUsos,
		ValidoDesde: req.ValidoDesde,
		ValidoHasta: req.ValidoHasta,
		Descripcion: req.Descripcion,
	}
	if err := h.discounts.Create(r.Context(), code); err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			h.writeError(w, http.StatusConflict, "el código ya existe")
			return
		}
		h.logger.Error("failed to create discount", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusCreated, code)
}

type discountActiveRequest struct {
	Activo *bool `json:"activo"`
}

func (h *Handler) HandleSetDiscountActive(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "id inválido")
		return
	}

	var req discountActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Activo == nil {
		h.writeError(w, http.StatusBadRequest, "falta el campo activo")
		return
	}

	code, err := h.discounts.SetActive(r.Context(), id, *req.Activo)
	if err != nil {
		h.logger.Error("failed to toggle discount", "error", err, "discount_id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if code == nil {
		h.writeError(w, http.StatusNotFound, "descuento no encontrado")
		return
	}

	h.writeJSON(w, http.StatusOK, code)
}

func (h *Handler) HandleDiscountPerformance(w http.ResponseWriter, r *http.Request) {
	report, err := h.discounts.PerformanceReport(r.Context())
	if err != nil {
		h.logger.Error("failed to build discount report", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, report)
}

type priceUpdateRequest struct {
	PrecioCapital  int64 `json:"precio_cba"`
	PrecioInterior int64 `json:"precio_interior"`
}

func (h *Handler) HandleUpdatePrices(w http.ResponseWriter, r *http.Request) {
	var req priceUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "cuerpo inválido")
		return
	}
	if req.PrecioCapital <= 0 || req.PrecioInterior <= 0 {
		h.writeError(w, http.StatusBadRequest, "los precios deben ser positivos")
		return
	}

	product, err := h.catalog.UpdatePrices(r.Context(), h.productID, req.PrecioCapital, req.PrecioInterior)
	if err != nil {
		h.logger.Error("failed to update prices", "error", err, "product_id", h.productID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if product == nil {
		h.writeError(w, http.StatusNotFound, "producto no encontrado")
		return
	}

	h.writeJSON(w, http.StatusOK, product)
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
