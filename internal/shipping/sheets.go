package shipping

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mbravoz/drop-storefront/internal/domain"
)

// SheetsClient mirrors each completed order into the owner's
// spreadsheet through its webhook. The sync is best-effort: the handler
// reports failures in the response but never fails the request over
// them.
type SheetsClient struct {
	webhookURL string
	httpClient *http.Client
}

func NewSheetsClient(webhookURL string, httpClient *http.Client) *SheetsClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &SheetsClient{webhookURL: webhookURL, httpClient: httpClient}
}

type sheetsRow struct {
	PedidoID    string `json:"pedido_id"`
	NumeroSerie int    `json:"numero_serie"`
	Nombre      string `json:"nombre"`
	Email       string `json:"email"`
	Telefono    string `json:"telefono"`
	DNI         string `json:"dni"`
	Provincia   string `json:"provincia"`
	Ciudad      string `json:"ciudad"`
	Direccion   string `json:"direccion"`
	Zona        string `json:"zona"`
	MontoFinal  int64  `json:"monto_final"`
	Comentarios string `json:"comentarios,omitempty"`
}

type sheetsResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// AppendOrder posts one row to the spreadsheet webhook. The webhook
// answers JSON; an HTML body here almost always means the URL points at
// the script's editor page instead of its deployment, so that case gets
// its own error message.
func (c *SheetsClient) AppendOrder(ctx context.Context, order *domain.Order, customer *domain.Customer) error {
	serie := 0
	if order.NumeroSerie != nil {
		serie = *order.NumeroSerie
	}

	row := sheetsRow{
		PedidoID:    order.ID,
		NumeroSerie: serie,
		Nombre:      customer.Nombre,
		Email:       customer.Email,
		Telefono:    customer.Telefono,
		DNI:         customer.DNI,
		Provincia:   customer.Provincia,
		Ciudad:      customer.Ciudad,
		Direccion:   customer.Direccion,
		Zona:        string(order.Zona),
		MontoFinal:  order.MontoFinal,
		Comentarios: order.Comentarios,
	}

	data, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("marshal sheets row: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create sheets request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call sheets webhook: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var parsed sheetsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("sheets webhook returned non-JSON response, check the deployment URL: %w", err)
	}

	if !parsed.Success {
		if parsed.Error != "" {
			return fmt.Errorf("sheets webhook rejected row: %s", parsed.Error)
		}
		return fmt.Errorf("sheets webhook rejected row with status %d", resp.StatusCode)
	}

	return nil
}
