package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mbravoz/drop-storefront/internal/domain"
	"github.com/mbravoz/drop-storefront/internal/payments"
)

var (
	ErrInvalidZone     = errors.New("zona inválida")
	ErrSoldOut         = errors.New("sin stock disponible")
	ErrUnavailable     = errors.New("producto no disponible")
	ErrInvalidDiscount = errors.New("descuento inválido")
)

type CatalogReader interface {
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	Stock(ctx context.Context, productID int64) (*domain.StockSummary, error)
}

type PreferenceCreator interface {
	CreatePreference(ctx context.Context, pref payments.PreferenceRequest) (*payments.Preference, error)
}

// Service prepares a hosted checkout. It creates nothing in the
// database: the order only comes into existence at settlement, so an
// abandoned checkout costs us a preference and nothing else.
type Service struct {
	catalog   CatalogReader
	processor PreferenceCreator
	productID int64
	returnURL string
	logger    *slog.Logger
}

func NewService(catalog CatalogReader, processor PreferenceCreator, productID int64, returnURL string, logger *slog.Logger) *Service {
	return &Service{
		catalog:   catalog,
		processor: processor,
		productID: productID,
		returnURL: returnURL,
		logger:    logger,
	}
}

type Request struct {
	Zona                domain.Zone        `json:"zona"`
	CodigoDescuento     string             `json:"codigo_descuento,omitempty"`
	PorcentajeDescuento int                `json:"porcentaje_descuento,omitempty"`
	IDDescuento         int64              `json:"id_descuento,omitempty"`
	DatosEnvio          *domain.DatosEnvio `json:"datos_envio,omitempty"`
}

type Result struct {
	InitPoint    string `json:"init_point"`
	PreferenceID string `json:"preference_id"`
}

func (s *Service) Create(ctx context.Context, req Request) (*Result, error) {
	if !req.Zona.Valid() {
		return nil, ErrInvalidZone
	}
	if req.PorcentajeDescuento < 0 || req.PorcentajeDescuento > 100 {
		return nil, ErrInvalidDiscount
	}
	if req.PorcentajeDescuento > 0 && req.IDDescuento == 0 {
		return nil, ErrInvalidDiscount
	}

	product, err := s.catalog.GetProduct(ctx, s.productID)
	if err != nil {
		return nil, fmt.Errorf("load product: %w", err)
	}
	if product == nil {
		return nil, fmt.Errorf("product %d not found", s.productID)
	}
	if !product.Activo {
		return nil, ErrUnavailable
	}

	// Read-only availability check. Nothing is reserved here; the race
	// between this check and settlement is resolved by the atomic claim.
	summary, err := s.catalog.Stock(ctx, s.productID)
	if err != nil {
		return nil, fmt.Errorf("check stock: %w", err)
	}
	if summary.Disponibles <= 0 {
		return nil, ErrSoldOut
	}

	original := product.Price(req.Zona)
	discount := int64(0)
	if req.PorcentajeDescuento > 0 {
		discount = domain.DiscountAmount(original, req.PorcentajeDescuento)
	}
	final := original - discount

	pref, err := s.processor.CreatePreference(ctx, payments.PreferenceRequest{
		Items: []payments.PreferenceItem{{
			Title:     product.Nombre,
			Quantity:  1,
			UnitPrice: final,
		}},
		Metadata: payments.Metadata{
			ProductID:      product.ID,
			Zona:           string(req.Zona),
			MontoOriginal:  original,
			MontoDescuento: discount,
			MontoFinal:     final,
			IDDescuento:    req.IDDescuento,
			PorcentajeDesc: req.PorcentajeDescuento,
			DatosEnvio:     req.DatosEnvio,
		},
		BackURLs: payments.BackURLs{
			Success: s.returnURL,
			Failure: s.returnURL,
			Pending: s.returnURL,
		},
		AutoReturn: "approved",
	})
	if err != nil {
		return nil, fmt.Errorf("create preference: %w", err)
	}

	s.logger.Info("checkout preference created",
		"preference_id", pref.ID,
		"zona", req.Zona,
		"monto_final", final,
		"id_descuento", req.IDDescuento,
	)

	return &Result{InitPoint: pref.InitPoint, PreferenceID: pref.ID}, nil
}
