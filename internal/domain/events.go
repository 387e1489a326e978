package domain

import "time"

// OrderPaidEvent is published after a successful settlement. Consumers
// (the notifier worker) must tolerate replays: the event key is the
// order id.
type OrderPaidEvent struct {
	OrderID       string    `json:"order_id"`
	ProductID     int64     `json:"product_id"`
	NumeroSerie   int       `json:"numero_serie"`
	Zona          Zone      `json:"zona"`
	MontoFinal    int64     `json:"monto_final"`
	CustomerEmail string    `json:"customer_email,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}
