package shipping

import "github.com/mbravoz/drop-storefront/internal/domain"

// Province feeds the shipping form dropdown. Zona decides which price
// tier applies when the buyer picks the province before checkout.
type Province struct {
	Nombre string      `json:"nombre"`
	Zona   domain.Zone `json:"zona"`
}

// Provinces is the fixed Argentine province list. Córdoba is the only
// local-delivery zone; everything else ships as interior.
var Provinces = []Province{
	{Nombre: "Buenos Aires", Zona: domain.ZoneInterior},
	{Nombre: "Catamarca", Zona: domain.ZoneInterior},
	{Nombre: "Chaco", Zona: domain.ZoneInterior},
	{Nombre: "Chubut", Zona: domain.ZoneInterior},
	{Nombre: "Ciudad Autónoma de Buenos Aires", Zona: domain.ZoneInterior},
	{Nombre: "Córdoba", Zona: domain.ZoneCapital},
	{Nombre: "Corrientes", Zona: domain.ZoneInterior},
	{Nombre: "Entre Ríos", Zona: domain.ZoneInterior},
	{Nombre: "Formosa", Zona: domain.ZoneInterior},
	{Nombre: "Jujuy", Zona: domain.ZoneInterior},
	{Nombre: "La Pampa", Zona: domain.ZoneInterior},
	{Nombre: "La Rioja", Zona: domain.ZoneInterior},
	{Nombre: "Mendoza", Zona: domain.ZoneInterior},
	{Nombre: "Misiones", Zona: domain.ZoneInterior},
	{Nombre: "Neuquén", Zona: domain.ZoneInterior},
	{Nombre: "Río Negro", Zona: domain.ZoneInterior},
	{Nombre: "Salta", Zona: domain.ZoneInterior},
	{Nombre: "San Juan", Zona: domain.ZoneInterior},
	{Nombre: "San Luis", Zona: domain.ZoneInterior},
	{Nombre: "Santa Cruz", Zona: domain.ZoneInterior},
	{Nombre: "Santa Fe", Zona: domain.ZoneInterior},
	{Nombre: "Santiago del Estero", Zona: domain.ZoneInterior},
	{Nombre: "Tierra del Fuego", Zona: domain.ZoneInterior},
	{Nombre: "Tucumán", Zona: domain.ZoneInterior},
}

// ValidProvince reports whether name matches an entry in Provinces.
func ValidProvince(name string) bool {
	for _, p := range Provinces {
		if p.Nombre == name {
			return true
		}
	}
	return false
}
