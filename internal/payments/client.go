package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/mbravoz/drop-storefront/internal/domain"
)

// Payment statuses reported by the processor. Anything other than
// approved is a soft outcome, not an error.
const (
	StatusApproved = "approved"
	StatusPending  = "pending"
	StatusRejected = "rejected"
	StatusRefunded = "refunded"
)

// Metadata is everything the checkout records on the preference so it
// survives the redirect round-trip. Settlement trusts the amounts in
// here for verification; the discount itself is re-validated live.
type Metadata struct {
	ProductID      int64              `json:"product_id"`
	Zona           string             `json:"zona"`
	MontoOriginal  int64              `json:"monto_original"`
	MontoDescuento int64              `json:"monto_descuento"`
	MontoFinal     int64              `json:"monto_final"`
	IDDescuento    int64              `json:"id_descuento,omitempty"`
	PorcentajeDesc int                `json:"porcentaje_descuento,omitempty"`
	DatosEnvio     *domain.DatosEnvio `json:"datos_envio,omitempty"`
}

type PreferenceItem struct {
	Title     string `json:"title"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

type BackURLs struct {
	Success string `json:"success"`
	Failure string `json:"failure"`
	Pending string `json:"pending"`
}

type PreferenceRequest struct {
	Items      []PreferenceItem `json:"items"`
	Metadata   Metadata         `json:"metadata"`
	BackURLs   BackURLs         `json:"back_urls"`
	AutoReturn string           `json:"auto_return"`
}

type Preference struct {
	ID        string   `json:"id"`
	InitPoint string   `json:"init_point"`
	Metadata  Metadata `json:"metadata"`
}

type Payment struct {
	ID                string          `json:"id"`
	Status            string          `json:"status"`
	TransactionAmount int64           `json:"transaction_amount"`
	PreferenceID      string          `json:"preference_id"`
	Raw               json.RawMessage `json:"-"`
}

// Client talks to the processor's REST API: hosted-checkout preferences
// plus payment status lookups.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: httpClient,
	}
}

func (c *Client) CreatePreference(ctx context.Context, pref PreferenceRequest) (*Preference, error) {
	data, err := json.Marshal(pref)
	if err != nil {
		return nil, fmt.Errorf("marshal preference: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/checkout/preferences", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create preference request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("create preference: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("payment processor returned status %d creating preference", resp.StatusCode)
	}

	var created Preference
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, fmt.Errorf("decode preference response: %w", err)
	}

	return &created, nil
}

// GetPayment fetches the current payment status. The raw body is kept
// for the order's audit column.
func (c *Client) GetPayment(ctx context.Context, paymentID string) (*Payment, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/payments/"+paymentID, nil)
	if err != nil {
		return nil, fmt.Errorf("create payment request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get payment %s: %w", paymentID, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read payment response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("payment processor returned status %d for payment %s", resp.StatusCode, paymentID)
	}

	var payment Payment
	if err := json.Unmarshal(body, &payment); err != nil {
		return nil, fmt.Errorf("decode payment response: %w", err)
	}
	payment.Raw = body

	return &payment, nil
}

func (c *Client) GetPreference(ctx context.Context, preferenceID string) (*Preference, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/checkout/preferences/"+preferenceID, nil)
	if err != nil {
		return nil, fmt.Errorf("create preference request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get preference %s: %w", preferenceID, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("payment processor returned status %d for preference %s", resp.StatusCode, preferenceID)
	}

	var pref Preference
	if err := json.NewDecoder(resp.Body).Decode(&pref); err != nil {
		return nil, fmt.Errorf("decode preference response: %w", err)
	}

	return &pref, nil
}
