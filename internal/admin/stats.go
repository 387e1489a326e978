package admin

import (
	"time"

	"github.com/mbravoz/drop-storefront/internal/domain"
)

// WindowStats is a count/revenue pair for one trailing time window.
type WindowStats struct {
	Pedidos  int   `json:"pedidos"`
	Ingresos int64 `json:"ingresos"`
}

// Stats is the dashboard's sales roll-up, computed over paid orders
// only.
type Stats struct {
	TotalPedidos    int                    `json:"total_pedidos"`
	TotalIngresos   int64                  `json:"total_ingresos"`
	TotalDescuentos int64                  `json:"total_descuentos"`
	PorZona         map[string]int         `json:"por_zona"`
	PorEnvio        map[string]int         `json:"por_envio"`
	Ventanas        map[string]WindowStats `json:"ventanas"`
}

// StatsWindows are the trailing windows the dashboard shows, keyed by
// the rango query parameter values.
var StatsWindows = map[string]func(now time.Time) time.Time{
	"dia":    func(now time.Time) time.Time { return now.AddDate(0, 0, -1) },
	"semana": func(now time.Time) time.Time { return now.AddDate(0, 0, -7) },
	"mes":    func(now time.Time) time.Time { return now.AddDate(0, -1, 0) },
	"anio":   func(now time.Time) time.Time { return now.AddDate(-1, 0, 0) },
}

// BuildStats aggregates in Go rather than SQL; the whole drop is a few
// hundred orders at most.
func BuildStats(orderList []domain.Order, now time.Time) Stats {
	stats := Stats{
		PorZona:  map[string]int{},
		PorEnvio: map[string]int{},
		Ventanas: map[string]WindowStats{},
	}

	cutoffs := map[string]time.Time{}
	for name, windowStart := range StatsWindows {
		cutoffs[name] = windowStart(now)
		stats.Ventanas[name] = WindowStats{}
	}

	for _, order := range orderList {
		if order.EstadoPago != domain.PaymentPaid {
			continue
		}

		stats.TotalPedidos++
		stats.TotalIngresos += order.MontoFinal
		stats.TotalDescuentos += order.MontoDescuento
		stats.PorZona[string(order.Zona)]++
		stats.PorEnvio[string(order.EstadoEnvio)]++

		paidAt := order.CreatedAt
		if order.PaidAt != nil {
			paidAt = *order.PaidAt
		}
		for name, cutoff := range cutoffs {
			if paidAt.After(cutoff) {
				window := stats.Ventanas[name]
				window.Pedidos++
				window.Ingresos += order.MontoFinal
				stats.Ventanas[name] = window
			}
		}
	}

	return stats
}
