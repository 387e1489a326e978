package mail

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/mbravoz/drop-storefront/internal/domain"
)

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`<h1>¡Gracias por tu compra, {{.Nombre}}!</h1>
<p>Tu pedido <strong>#{{.NumeroSerie}}</strong> quedó confirmado.</p>
<table>
  <tr><td>Producto</td><td>{{.Producto}}</td></tr>
  <tr><td>Número de serie</td><td>{{.NumeroSerie}}</td></tr>
  {{if .MontoDescuento}}<tr><td>Descuento</td><td>-${{.MontoDescuento}}</td></tr>{{end}}
  <tr><td>Total</td><td>${{.MontoFinal}}</td></tr>
</table>
<p>Enviamos a: {{.Direccion}}, {{.Ciudad}}, {{.Provincia}}.</p>
<p>Te vamos a avisar por este medio cuando el pedido salga en camino.</p>`))

var ownerSaleTmpl = template.Must(template.New("owner_sale").Parse(`<h1>Nueva venta</h1>
<p>Pedido <strong>{{.OrderID}}</strong>, unidad #{{.NumeroSerie}}, zona {{.Zona}}.</p>
<p>Total: ${{.MontoFinal}}</p>
<p>Comprador: {{.CustomerEmail}}</p>`))

type ConfirmationData struct {
	Nombre         string
	Producto       string
	NumeroSerie    int
	MontoDescuento int64
	MontoFinal     int64
	Direccion      string
	Ciudad         string
	Provincia      string
}

// Confirmation renders the buyer-facing purchase confirmation email.
func Confirmation(data ConfirmationData) (Message, error) {
	var buf strings.Builder
	if err := confirmationTmpl.Execute(&buf, data); err != nil {
		return Message{}, fmt.Errorf("render confirmation email: %w", err)
	}
	return Message{
		Subject: fmt.Sprintf("Compra confirmada - pedido #%d", data.NumeroSerie),
		HTML:    buf.String(),
	}, nil
}

// OwnerSale renders the internal notification sent to the shop owner
// when a payment settles.
func OwnerSale(event domain.OrderPaidEvent) (Message, error) {
	var buf strings.Builder
	if err := ownerSaleTmpl.Execute(&buf, event); err != nil {
		return Message{}, fmt.Errorf("render owner sale email: %w", err)
	}
	return Message{
		Subject: fmt.Sprintf("Nueva venta: unidad #%d", event.NumeroSerie),
		HTML:    buf.String(),
	}, nil
}
