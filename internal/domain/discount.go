package domain

import "time"

// DiscountCode is stored upper-cased; lookups normalize first.
type DiscountCode struct {
	ID          int64      `json:"id"`
	Code        string     `json:"code"`
	Percentage  int        `json:"percentage"`
	Activo      bool       `json:"activo"`
	MaxUsos     *int       `json:"max_usos,omitempty"`
	Usos        int        `json:"usos"`
	ValidoDesde *time.Time `json:"valido_desde,omitempty"`
	ValidoHasta *time.Time `json:"valido_hasta,omitempty"`
	Descripcion string     `json:"descripcion"`
	CreatedAt   time.Time  `json:"created_at"`
}

// DiscountAmount computes the discounted portion of an amount, rounding
// half up. Amounts are whole pesos.
func DiscountAmount(original int64, percentage int) int64 {
	return (original*int64(percentage) + 50) / 100
}
