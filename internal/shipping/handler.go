package shipping

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/mbravoz/drop-storefront/internal/domain"
	"github.com/mbravoz/drop-storefront/internal/mail"
	"github.com/mbravoz/drop-storefront/internal/orders"
)

type OrderStore interface {
	GetByPaymentID(ctx context.Context, paymentID string) (*domain.Order, error)
	LinkCustomer(ctx context.Context, orderID, customerID, comentarios string) error
}

type CustomerStore interface {
	Create(ctx context.Context, customer *domain.Customer) error
	Delete(ctx context.Context, id string) error
}

type Mailer interface {
	Send(ctx context.Context, msg mail.Message) error
}

type SheetsSync interface {
	AppendOrder(ctx context.Context, order *domain.Order, customer *domain.Customer) error
}

// Handler covers the post-payment shipping form: buyers who paid
// without shipping data in the preference submit it here, keyed by the
// payment id they got back from the processor.
type Handler struct {
	orders      OrderStore
	customers   CustomerStore
	mailer      Mailer
	sheets      SheetsSync
	productName string
	logger      *slog.Logger
}

func NewHandler(orders OrderStore, customers CustomerStore, mailer Mailer, sheets SheetsSync, productName string, logger *slog.Logger) *Handler {
	return &Handler{
		orders:      orders,
		customers:   customers,
		mailer:      mailer,
		sheets:      sheets,
		productName: productName,
		logger:      logger,
	}
}

type shippingRequest struct {
	PaymentID   string `json:"payment_id"`
	Nombre      string `json:"nombre"`
	Email       string `json:"email"`
	Telefono    string `json:"telefono"`
	DNI         string `json:"dni"`
	Provincia   string `json:"provincia"`
	Ciudad      string `json:"ciudad"`
	Direccion   string `json:"direccion"`
	Comentarios string `json:"comentarios"`
}

func (req *shippingRequest) validate() string {
	missing := []string{}
	for field, value := range map[string]string{
		"payment_id": req.PaymentID,
		"nombre":     req.Nombre,
		"email":      req.Email,
		"telefono":   req.Telefono,
		"provincia":  req.Provincia,
		"ciudad":     req.Ciudad,
		"direccion":  req.Direccion,
	} {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) == 0 {
		return ""
	}
	return "faltan campos: " + strings.Join(missing, ", ")
}

type shippingResponse struct {
	Success      bool   `json:"success"`
	PedidoID     string `json:"pedido_id"`
	ClienteID    string `json:"cliente_id"`
	SheetsStatus string `json:"sheets_status"`
	SheetsError  string `json:"sheets_error,omitempty"`
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req shippingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "cuerpo inválido")
		return
	}
	if msg := req.validate(); msg != "" {
		h.writeError(w, http.StatusBadRequest, msg)
		return
	}
	if !ValidProvince(req.Provincia) {
		h.writeError(w, http.StatusBadRequest, "provincia inválida")
		return
	}

	ctx := r.Context()

	order, err := h.orders.GetByPaymentID(ctx, req.PaymentID)
	if err != nil {
		h.logger.Error("failed to look up order", "error", err, "payment_id", req.PaymentID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if order == nil {
		h.writeError(w, http.StatusNotFound, "no hay un pedido para ese pago")
		return
	}
	if order.EstadoPago != domain.PaymentPaid {
		h.writeError(w, http.StatusConflict, "el pedido no está pagado")
		return
	}
	if order.CustomerID != nil {
		h.writeError(w, http.StatusConflict, "el pedido ya tiene datos de envío")
		return
	}

	customer := &domain.Customer{
		ID:        uuid.NewString(),
		Nombre:    req.Nombre,
		Email:     req.Email,
		Telefono:  req.Telefono,
		DNI:       req.DNI,
		Provincia: req.Provincia,
		Ciudad:    req.Ciudad,
		Direccion: req.Direccion,
	}
	if err := h.customers.Create(ctx, customer); err != nil {
		h.logger.Error("failed to create customer", "error", err, "order_id", order.ID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if err := h.orders.LinkCustomer(ctx, order.ID, customer.ID, req.Comentarios); err != nil {
		if errors.Is(err, orders.ErrAlreadyLinked) {
			// A concurrent submission won the link; drop the row we
			// just inserted so it does not linger unreferenced.
			if delErr := h.customers.Delete(ctx, customer.ID); delErr != nil {
				h.logger.Error("failed to delete unlinked customer", "error", delErr, "customer_id", customer.ID)
			}
			h.writeError(w, http.StatusConflict, "el pedido ya tiene datos de envío")
			return
		}
		h.logger.Error("failed to link customer", "error", err, "order_id", order.ID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	order.CustomerID = &customer.ID
	if req.Comentarios != "" {
		order.Comentarios = req.Comentarios
	}

	h.sendConfirmation(ctx, order, customer)

	resp := shippingResponse{
		Success:      true,
		PedidoID:     order.ID,
		ClienteID:    customer.ID,
		SheetsStatus: "sincronizado",
	}
	if err := h.sheets.AppendOrder(ctx, order, customer); err != nil {
		h.logger.Error("failed to sync order to sheets", "error", err, "order_id", order.ID)
		resp.SheetsStatus = "error"
		resp.SheetsError = err.Error()
	}

	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandleProvinces(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, Provinces)
}

func (h *Handler) sendConfirmation(ctx context.Context, order *domain.Order, customer *domain.Customer) {
	serie := 0
	if order.NumeroSerie != nil {
		serie = *order.NumeroSerie
	}

	msg, err := mail.Confirmation(mail.ConfirmationData{
		Nombre:         customer.Nombre,
		Producto:       h.productName,
		NumeroSerie:    serie,
		MontoDescuento: order.MontoDescuento,
		MontoFinal:     order.MontoFinal,
		Direccion:      customer.Direccion,
		Ciudad:         customer.Ciudad,
		Provincia:      customer.Provincia,
	})
	if err == nil {
		msg.To = customer.Email
		err = h.mailer.Send(ctx, msg)
	}
	if err != nil {
		h.logger.Error("failed to send confirmation email", "error", err, "order_id", order.ID)
	}
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
