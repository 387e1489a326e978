package settlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/mbravoz/drop-storefront/internal/domain"
	"github.com/mbravoz/drop-storefront/internal/mail"
	"github.com/mbravoz/drop-storefront/internal/payments"
)

// ErrAmountMismatch means the amount the processor actually charged does
// not equal the amount frozen in the preference metadata. The settlement
// aborts; no unit is reserved and no order row is written.
var ErrAmountMismatch = errors.New("paid amount does not match preference amount")

type Processor interface {
	GetPayment(ctx context.Context, paymentID string) (*payments.Payment, error)
	GetPreference(ctx context.Context, preferenceID string) (*payments.Preference, error)
}

type UnitStore interface {
	Claim(ctx context.Context, productID int64) (int, error)
	Release(ctx context.Context, productID int64, serie int) error
	MarkSold(ctx context.Context, productID int64, serie int) error
}

type DiscountStore interface {
	Redeem(ctx context.Context, id int64) error
	Unredeem(ctx context.Context, id int64) error
}

type CustomerStore interface {
	Create(ctx context.Context, customer *domain.Customer) error
}

type OrderStore interface {
	GetByPaymentID(ctx context.Context, paymentID string) (*domain.Order, error)
	Create(ctx context.Context, order *domain.Order) error
}

type Mailer interface {
	Send(ctx context.Context, msg mail.Message) error
}

type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// Result is the settlement outcome sent back to the return page. A
// not-yet-approved payment is a Result, not an error.
type Result struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Status  string        `json:"status,omitempty"`
	Pedido  *OrderSummary `json:"pedido,omitempty"`
}

type OrderSummary struct {
	ID          string      `json:"id"`
	Zona        domain.Zone `json:"zona"`
	MontoFinal  int64       `json:"monto_final"`
	NumeroSerie int         `json:"numero_serie"`
}

// Service turns an approved payment into a sold unit and an order row.
// The reservation sequence runs as a saga: each mutating step carries
// its own compensation, and a failure anywhere rolls back everything
// before it in reverse order.
type Service struct {
	processor   Processor
	units       UnitStore
	discounts   DiscountStore
	customers   CustomerStore
	orders      OrderStore
	mailer      Mailer
	publisher   Publisher
	productID   int64
	productName string
	logger      *slog.Logger
	now         func() time.Time
	settlements metric.Int64Counter
}

func NewService(
	processor Processor,
	units UnitStore,
	discounts DiscountStore,
	customers CustomerStore,
	orders OrderStore,
	mailer Mailer,
	publisher Publisher,
	productID int64,
	productName string,
	logger *slog.Logger,
) *Service {
	meter := otel.Meter("github.com/mbravoz/drop-storefront/internal/settlement")
	counter, err := meter.Int64Counter("storefront.settlements",
		metric.WithDescription("Settlement attempts by outcome"),
	)
	if err != nil {
		logger.Warn("failed to create settlements counter", slog.String("error", err.Error()))
	}

	return &Service{
		processor:   processor,
		units:       units,
		discounts:   discounts,
		customers:   customers,
		orders:      orders,
		mailer:      mailer,
		publisher:   publisher,
		productID:   productID,
		productName: productName,
		logger:      logger,
		now:         time.Now,
		settlements: counter,
	}
}

func (s *Service) record(ctx context.Context, outcome string) {
	if s.settlements == nil {
		return
	}
	s.settlements.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// Settle verifies the payment with the processor and, if approved,
// reserves a unit, consumes the discount, and writes the order. Calling
// it twice with the same payment id returns the already-created order.
func (s *Service) Settle(ctx context.Context, paymentID, preferenceID string) (*Result, error) {
	payment, err := s.processor.GetPayment(ctx, paymentID)
	if err != nil {
		s.record(ctx, "processor_error")
		return nil, fmt.Errorf("fetch payment: %w", err)
	}

	if payment.Status != payments.StatusApproved {
		s.logger.Info("payment not approved",
			slog.String("payment_id", paymentID),
			slog.String("status", payment.Status),
		)
		s.record(ctx, "not_approved")
		return &Result{
			Success: false,
			Message: "el pago todavía no fue aprobado",
			Status:  payment.Status,
		}, nil
	}

	// Idempotency: the return page can be reloaded, and the processor
	// can redirect more than once.
	existing, err := s.orders.GetByPaymentID(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("look up order by payment: %w", err)
	}
	if existing != nil {
		s.record(ctx, "duplicate")
		return &Result{
			Success: true,
			Message: "el pago ya fue procesado",
			Pedido:  summarize(existing),
		}, nil
	}

	pref, err := s.processor.GetPreference(ctx, preferenceID)
	if err != nil {
		s.record(ctx, "processor_error")
		return nil, fmt.Errorf("fetch preference: %w", err)
	}
	meta := pref.Metadata

	if payment.TransactionAmount != meta.MontoFinal {
		s.logger.Error("settlement amount mismatch",
			slog.String("payment_id", paymentID),
			slog.Int64("paid", payment.TransactionAmount),
			slog.Int64("expected", meta.MontoFinal),
		)
		s.record(ctx, "amount_mismatch")
		return nil, ErrAmountMismatch
	}

	order, err := s.reserve(ctx, payment, pref)
	if err != nil {
		s.record(ctx, "failed")
		return nil, err
	}

	s.finalize(ctx, order, meta.DatosEnvio)
	s.record(ctx, "settled")

	return &Result{
		Success: true,
		Message: "pago confirmado",
		Pedido:  summarize(order),
	}, nil
}

// reserve runs the mutating settlement steps as a saga. The unit claim
// sits after the discount redeem so a sold-out failure hands the use
// back before the caller sees the error.
func (s *Service) reserve(ctx context.Context, payment *payments.Payment, pref *payments.Preference) (*domain.Order, error) {
	meta := pref.Metadata
	now := s.now()

	var serie int

	order := &domain.Order{
		ID:             uuid.NewString(),
		ProductID:      s.productID,
		PreferenceID:   pref.ID,
		PaymentID:      payment.ID,
		Zona:           domain.Zone(meta.Zona),
		MontoOriginal:  meta.MontoOriginal,
		MontoDescuento: meta.MontoDescuento,
		MontoFinal:     meta.MontoFinal,
		EstadoPago:     domain.PaymentPaid,
		EstadoEnvio:    domain.ShippingPending,
		RawPayment:     payment.Raw,
		CreatedAt:      now,
		PaidAt:         &now,
	}
	if meta.IDDescuento != 0 {
		id := meta.IDDescuento
		order.DiscountID = &id
	}
	if meta.DatosEnvio != nil {
		order.Comentarios = meta.DatosEnvio.Comentarios
	}

	var steps []Step

	if meta.IDDescuento != 0 {
		steps = append(steps, Step{
			Name: "redeem_discount",
			Run: func(ctx context.Context) error {
				return s.discounts.Redeem(ctx, meta.IDDescuento)
			},
			Compensate: func(ctx context.Context) error {
				return s.discounts.Unredeem(ctx, meta.IDDescuento)
			},
		})
	}

	steps = append(steps, Step{
		Name: "claim_unit",
		Run: func(ctx context.Context) error {
			claimed, err := s.units.Claim(ctx, s.productID)
			if err != nil {
				return err
			}
			serie = claimed
			order.NumeroSerie = &serie
			return nil
		},
		Compensate: func(ctx context.Context) error {
			return s.units.Release(ctx, s.productID, serie)
		},
	})

	if meta.DatosEnvio != nil {
		steps = append(steps, Step{
			Name: "create_customer",
			Run: func(ctx context.Context) error {
				customer := &domain.Customer{
					ID:        uuid.NewString(),
					Nombre:    meta.DatosEnvio.Nombre,
					Email:     meta.DatosEnvio.Email,
					Telefono:  meta.DatosEnvio.Telefono,
					DNI:       meta.DatosEnvio.DNI,
					Provincia: meta.DatosEnvio.Provincia,
					Ciudad:    meta.DatosEnvio.Ciudad,
					Direccion: meta.DatosEnvio.Direccion,
					CreatedAt: now,
				}
				if err := s.customers.Create(ctx, customer); err != nil {
					return err
				}
				order.CustomerID = &customer.ID
				return nil
			},
		})
	}

	steps = append(steps, Step{
		Name: "insert_order",
		Run: func(ctx context.Context) error {
			return s.orders.Create(ctx, order)
		},
	})

	if err := NewSaga(s.logger, steps...).Execute(ctx); err != nil {
		return nil, err
	}

	return order, nil
}

// finalize covers the best-effort tail of a settlement: marking the unit
// sold, emailing the buyer, and publishing the order.paid event. None of
// these can fail the settlement; the order row already exists.
func (s *Service) finalize(ctx context.Context, order *domain.Order, envio *domain.DatosEnvio) {
	serie := 0
	if order.NumeroSerie != nil {
		serie = *order.NumeroSerie
	}

	if err := s.units.MarkSold(ctx, order.ProductID, serie); err != nil {
		s.logger.Error("failed to mark unit sold",
			slog.String("order_id", order.ID),
			slog.Int("numero_serie", serie),
			slog.String("error", err.Error()),
		)
	}

	if envio != nil && s.mailer != nil {
		msg, err := mail.Confirmation(mail.ConfirmationData{
			Nombre:         envio.Nombre,
			Producto:       s.productName,
			NumeroSerie:    serie,
			MontoDescuento: order.MontoDescuento,
			MontoFinal:     order.MontoFinal,
			Direccion:      envio.Direccion,
			Ciudad:         envio.Ciudad,
			Provincia:      envio.Provincia,
		})
		if err == nil {
			msg.To = envio.Email
			err = s.mailer.Send(ctx, msg)
		}
		if err != nil {
			s.logger.Error("failed to send confirmation email",
				slog.String("order_id", order.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	if s.publisher != nil {
		event := domain.OrderPaidEvent{
			OrderID:     order.ID,
			ProductID:   order.ProductID,
			NumeroSerie: serie,
			Zona:        order.Zona,
			MontoFinal:  order.MontoFinal,
			Timestamp:   s.now(),
		}
		if envio != nil {
			event.CustomerEmail = envio.Email
		}
		if err := s.publisher.Publish(ctx, order.ID, event); err != nil {
			s.logger.Error("failed to publish order.paid event",
				slog.String("order_id", order.ID),
				slog.String("error", err.Error()),
			)
		}
	}
}

func summarize(order *domain.Order) *OrderSummary {
	serie := 0
	if order.NumeroSerie != nil {
		serie = *order.NumeroSerie
	}
	return &OrderSummary{
		ID:          order.ID,
		Zona:        order.Zona,
		MontoFinal:  order.MontoFinal,
		NumeroSerie: serie,
	}
}
