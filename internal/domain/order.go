package domain

import (
	"encoding/json"
	"time"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pendiente"
	PaymentPaid     PaymentStatus = "pagado"
	PaymentFailed   PaymentStatus = "fallido"
	PaymentRefunded PaymentStatus = "reembolsado"
)

type ShippingStatus string

const (
	ShippingPending   ShippingStatus = "pendiente"
	ShippingShipped   ShippingStatus = "enviado"
	ShippingDelivered ShippingStatus = "entregado"
)

// NextShippingStatus reports whether to is a legal single-step
// progression from from. Shipping only ever moves forward.
func NextShippingStatus(from, to ShippingStatus) bool {
	switch from {
	case ShippingPending:
		return to == ShippingShipped
	case ShippingShipped:
		return to == ShippingDelivered
	}
	return false
}

// Order is created only at settlement time, never at checkout, so an
// abandoned checkout leaves no row behind.
type Order struct {
	ID             string          `json:"id"`
	ProductID      int64           `json:"product_id"`
	NumeroSerie    *int            `json:"numero_serie,omitempty"`
	CustomerID     *string         `json:"cliente_id,omitempty"`
	DiscountID     *int64          `json:"id_descuento,omitempty"`
	PreferenceID   string          `json:"preference_id"`
	PaymentID      string          `json:"payment_id"`
	Zona           Zone            `json:"zona"`
	MontoOriginal  int64           `json:"monto_original"`
	MontoDescuento int64           `json:"monto_descuento"`
	MontoFinal     int64           `json:"monto_final"`
	EstadoPago     PaymentStatus   `json:"estado_pago"`
	EstadoEnvio    ShippingStatus  `json:"estado_envio"`
	RawPayment     json.RawMessage `json:"-"`
	Comentarios    string          `json:"comentarios,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	PaidAt         *time.Time      `json:"paid_at,omitempty"`
	ShippedAt      *time.Time      `json:"shipped_at,omitempty"`
	DeliveredAt    *time.Time      `json:"delivered_at,omitempty"`
}
