package discounts

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mbravoz/drop-storefront/internal/domain"
)

type fakeReader struct {
	byCode map[string]*domain.DiscountCode
	err    error
}

func (f *fakeReader) GetByCode(_ context.Context, code string) (*domain.DiscountCode, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byCode[strings.ToUpper(strings.TrimSpace(code))], nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func validateReq(body string) (*httptest.ResponseRecorder, *http.Request) {
	req := httptest.NewRequest(http.MethodPost, "/api/descuentos/validar", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return httptest.NewRecorder(), req
}

func TestHandler_HandleValidate(t *testing.T) {
	cap20 := 20
	reader := &fakeReader{byCode: map[string]*domain.DiscountCode{
		"VIP30": {ID: 7, Code: "VIP30", Percentage: 30, Activo: true, MaxUsos: &cap20, Usos: 5},
		"VIEJO": {ID: 8, Code: "VIEJO", Percentage: 10, Activo: false},
	}}
	handler := NewHandler(reader, testLogger())

	t.Run("valid code returns percentage and id", func(t *testing.T) {
		rec, req := validateReq(`{"code":"vip30"}`)
		handler.HandleValidate(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var resp validateResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if !resp.Valid {
			t.Error("expected valid=true")
		}
		if resp.DiscountPercentage != 30 {
			t.Errorf("expected discount_percentage 30, got %d", resp.DiscountPercentage)
		}
		if resp.IDDescuento != 7 {
			t.Errorf("expected id_descuento 7, got %d", resp.IDDescuento)
		}
		if resp.Code != "VIP30" {
			t.Errorf("expected normalized code VIP30, got %q", resp.Code)
		}
	})

	t.Run("unknown code returns 400 with reason", func(t *testing.T) {
		rec, req := validateReq(`{"code":"NADA"}`)
		handler.HandleValidate(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", rec.Code)
		}

		var resp validateResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.Valid {
			t.Error("expected valid=false")
		}
		if resp.Reason != ErrNotFound.Error() {
			t.Errorf("expected reason %q, got %q", ErrNotFound.Error(), resp.Reason)
		}
	})

	t.Run("inactive code returns its reason", func(t *testing.T) {
		rec, req := validateReq(`{"code":"viejo"}`)
		handler.HandleValidate(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", rec.Code)
		}

		var resp validateResponse
		_ = json.Unmarshal(rec.Body.Bytes(), &resp)
		if resp.Reason != ErrInactive.Error() {
			t.Errorf("expected reason %q, got %q", ErrInactive.Error(), resp.Reason)
		}
	})

	t.Run("exhausted code reports usage cap", func(t *testing.T) {
		used := &fakeReader{byCode: map[string]*domain.DiscountCode{
			"VIP30": {ID: 7, Code: "VIP30", Percentage: 30, Activo: true, MaxUsos: &cap20, Usos: 20},
		}}
		h := NewHandler(used, testLogger())
		h.now = func() time.Time { return time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC) }

		rec, req := validateReq(`{"code":"VIP30"}`)
		h.HandleValidate(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", rec.Code)
		}

		var resp validateResponse
		_ = json.Unmarshal(rec.Body.Bytes(), &resp)
		if resp.Reason != ErrUsageCapReached.Error() {
			t.Errorf("expected reason %q, got %q", ErrUsageCapReached.Error(), resp.Reason)
		}
	})

	t.Run("missing code returns 400", func(t *testing.T) {
		rec, req := validateReq(`{}`)
		handler.HandleValidate(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", rec.Code)
		}
	})

	t.Run("lookup failure returns generic 500", func(t *testing.T) {
		h := NewHandler(&fakeReader{err: errors.New("db down")}, testLogger())

		rec, req := validateReq(`{"code":"VIP30"}`)
		h.HandleValidate(rec, req)

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected status 500, got %d", rec.Code)
		}
		if strings.Contains(rec.Body.String(), "db down") {
			t.Error("internal error detail leaked to client")
		}
	})
}
