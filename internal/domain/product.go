package domain

import "time"

// Zone is the shipping price tier. Buyers in the capital pick up or pay
// local shipping; everyone else pays the national rate.
type Zone string

const (
	ZoneCapital  Zone = "cba"
	ZoneInterior Zone = "interior"
)

func (z Zone) Valid() bool {
	return z == ZoneCapital || z == ZoneInterior
}

type Product struct {
	ID             int64     `json:"id"`
	Nombre         string    `json:"nombre"`
	PrecioCapital  int64     `json:"precio_cba"`
	PrecioInterior int64     `json:"precio_interior"`
	StockInicial   int       `json:"stock_inicial"`
	Activo         bool      `json:"activo"`
	CreatedAt      time.Time `json:"created_at"`
}

// Price returns the product price for the given zone.
func (p Product) Price(zone Zone) int64 {
	if zone == ZoneCapital {
		return p.PrecioCapital
	}
	return p.PrecioInterior
}

// UnitStatus tracks one serialized physical item. A unit moves
// disponible -> reservada -> vendida; a failed settlement moves it back
// from reservada to disponible.
type UnitStatus string

const (
	UnitAvailable UnitStatus = "disponible"
	UnitReserved  UnitStatus = "reservada"
	UnitSold      UnitStatus = "vendida"
)

type StockSummary struct {
	StockInicial int `json:"stock_inicial"`
	Vendidos     int `json:"vendidos"`
	Disponibles  int `json:"disponibles"`
}
