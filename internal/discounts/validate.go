package discounts

import (
	"errors"
	"time"

	"github.com/mbravoz/drop-storefront/internal/domain"
)

// Validation outcomes. Each maps to the reason string surfaced to the
// client; none of them is a server error.
var (
	ErrNotFound        = errors.New("no existe")
	ErrInactive        = errors.New("inactivo")
	ErrNotYetValid     = errors.New("aún no vigente")
	ErrExpired         = errors.New("expirado")
	ErrUsageCapReached = errors.New("límite de usos alcanzado")
)

// Validate checks a fetched code against the current time. The usage cap
// is also enforced atomically by Redeem at settlement; this check exists
// so checkout can reject an exhausted code up front.
func Validate(code *domain.DiscountCode, now time.Time) error {
	if code == nil {
		return ErrNotFound
	}
	if !code.Activo {
		return ErrInactive
	}
	if code.ValidoDesde != nil && now.Before(*code.ValidoDesde) {
		return ErrNotYetValid
	}
	if code.ValidoHasta != nil && now.After(*code.ValidoHasta) {
		return ErrExpired
	}
	if code.MaxUsos != nil && code.Usos >= *code.MaxUsos {
		return ErrUsageCapReached
	}
	return nil
}
