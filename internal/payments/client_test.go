package payments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mbravoz/drop-storefront/internal/domain"
)

func TestClient_CreatePreference(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/checkout/preferences" {
			t.Errorf("expected /checkout/preferences, got %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-token" {
			t.Errorf("unexpected authorization header: %s", auth)
		}

		var req PreferenceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if len(req.Items) != 1 || req.Items[0].UnitPrice != 25060 {
			t.Errorf("unexpected items: %+v", req.Items)
		}
		if req.Metadata.MontoFinal != 25060 {
			t.Errorf("expected monto_final 25060 in metadata, got %d", req.Metadata.MontoFinal)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(Preference{
			ID:        "pref-123",
			InitPoint: "https://pay.example.com/checkout/pref-123",
			Metadata:  req.Metadata,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-token", server.Client())

	pref, err := client.CreatePreference(context.Background(), PreferenceRequest{
		Items: []PreferenceItem{{Title: "Edición limitada", Quantity: 1, UnitPrice: 25060}},
		Metadata: Metadata{
			ProductID:      1,
			Zona:           string(domain.ZoneCapital),
			MontoOriginal:  35800,
			MontoDescuento: 10740,
			MontoFinal:     25060,
			IDDescuento:    7,
			PorcentajeDesc: 30,
		},
		BackURLs:   BackURLs{Success: "https://store.example.com/gracias"},
		AutoReturn: "approved",
	})
	if err != nil {
		t.Fatalf("CreatePreference() error: %v", err)
	}

	if pref.ID != "pref-123" {
		t.Errorf("expected preference id pref-123, got %s", pref.ID)
	}
	if pref.InitPoint == "" {
		t.Error("expected init_point to be set")
	}
}

func TestClient_GetPayment(t *testing.T) {
	t.Run("approved payment with raw payload", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/v1/payments/pay-9" {
				t.Errorf("unexpected path: %s", r.URL.Path)
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"pay-9","status":"approved","transaction_amount":35800,"preference_id":"pref-123"}`))
		}))
		defer server.Close()

		client := NewClient(server.URL, "test-token", server.Client())

		payment, err := client.GetPayment(context.Background(), "pay-9")
		if err != nil {
			t.Fatalf("GetPayment() error: %v", err)
		}

		if payment.Status != StatusApproved {
			t.Errorf("expected status approved, got %s", payment.Status)
		}
		if payment.TransactionAmount != 35800 {
			t.Errorf("expected amount 35800, got %d", payment.TransactionAmount)
		}
		if len(payment.Raw) == 0 {
			t.Error("expected raw payload to be retained")
		}
	})

	t.Run("processor error status surfaces as error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		client := NewClient(server.URL, "test-token", server.Client())

		if _, err := client.GetPayment(context.Background(), "missing"); err == nil {
			t.Fatal("expected error for 404 response")
		}
	})
}

func TestClient_GetPreference(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/checkout/preferences/pref-123" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(Preference{
			ID: "pref-123",
			Metadata: Metadata{
				ProductID:  1,
				Zona:       "cba",
				MontoFinal: 35800,
				DatosEnvio: &domain.DatosEnvio{Nombre: "Ana", Email: "ana@example.com"},
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-token", server.Client())

	pref, err := client.GetPreference(context.Background(), "pref-123")
	if err != nil {
		t.Fatalf("GetPreference() error: %v", err)
	}

	if pref.Metadata.MontoFinal != 35800 {
		t.Errorf("expected monto_final 35800, got %d", pref.Metadata.MontoFinal)
	}
	if pref.Metadata.DatosEnvio == nil || pref.Metadata.DatosEnvio.Nombre != "Ana" {
		t.Errorf("expected shipping data to round-trip, got %+v", pref.Metadata.DatosEnvio)
	}
}
