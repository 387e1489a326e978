package domain

import "time"

// Customer rows are created once per completed order that supplied
// shipping data. Repeat buyers get repeat rows; there is no dedup by
// email.
type Customer struct {
	ID        string    `json:"id"`
	Nombre    string    `json:"nombre"`
	Email     string    `json:"email"`
	Telefono  string    `json:"telefono"`
	DNI       string    `json:"dni"`
	Provincia string    `json:"provincia"`
	Ciudad    string    `json:"ciudad"`
	Direccion string    `json:"direccion"`
	CreatedAt time.Time `json:"created_at"`
}

// DatosEnvio is the raw shipping blob collected at checkout or on the
// post-payment form. It rides through the payment preference metadata
// untouched.
type DatosEnvio struct {
	Nombre      string `json:"nombre"`
	Email       string `json:"email"`
	Telefono    string `json:"telefono"`
	DNI         string `json:"dni"`
	Provincia   string `json:"provincia"`
	Ciudad      string `json:"ciudad"`
	Direccion   string `json:"direccion"`
	Comentarios string `json:"comentarios,omitempty"`
}
