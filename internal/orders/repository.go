package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mbravoz/drop-storefront/internal/domain"
)

var (
	// ErrAlreadyLinked means the order already has a customer attached;
	// shipping data is write-once.
	ErrAlreadyLinked = errors.New("order already has a customer")
	// ErrStaleStatus means the conditional status update matched no row,
	// usually because a concurrent request already moved the order.
	ErrStaleStatus = errors.New("order status changed concurrently")
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const orderColumns = `id, product_id, numero_serie, customer_id, discount_id, preference_id, payment_id,
	zona, monto_original, monto_descuento, monto_final, estado_pago, estado_envio,
	comentarios, created_at, paid_at, shipped_at, delivered_at`

func scanOrder(row interface{ Scan(...any) error }) (*domain.Order, error) {
	order := &domain.Order{}
	var comentarios sql.NullString
	err := row.Scan(
		&order.ID,
		&order.ProductID,
		&order.NumeroSerie,
		&order.CustomerID,
		&order.DiscountID,
		&order.PreferenceID,
		&order.PaymentID,
		&order.Zona,
		&order.MontoOriginal,
		&order.MontoDescuento,
		&order.MontoFinal,
		&order.EstadoPago,
		&order.EstadoEnvio,
		&comentarios,
		&order.CreatedAt,
		&order.PaidAt,
		&order.ShippedAt,
		&order.DeliveredAt,
	)
	if err != nil {
		return nil, err
	}
	order.Comentarios = comentarios.String
	return order, nil
}

func (r *Repository) Create(ctx context.Context, order *domain.Order) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO orders (id, product_id, numero_serie, customer_id, discount_id, preference_id, payment_id,
			zona, monto_original, monto_descuento, monto_final, estado_pago, estado_envio,
			raw_payment, comentarios, created_at, paid_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`,
		order.ID, order.ProductID, order.NumeroSerie, order.CustomerID, order.DiscountID,
		order.PreferenceID, order.PaymentID, order.Zona,
		order.MontoOriginal, order.MontoDescuento, order.MontoFinal,
		order.EstadoPago, order.EstadoEnvio,
		[]byte(order.RawPayment), nullable(order.Comentarios),
		order.CreatedAt, order.PaidAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE id = $1
	`, id)

	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return order, nil
}

func (r *Repository) GetByPaymentID(ctx context.Context, paymentID string) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE payment_id = $1
	`, paymentID)

	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return order, nil
}

// ListFilter narrows the admin order listing. Zero values mean no
// filtering on that column.
type ListFilter struct {
	EstadoPago  domain.PaymentStatus
	EstadoEnvio domain.ShippingStatus
	Zona        domain.Zone
	Limit       int
}

func (r *Repository) List(ctx context.Context, filter ListFilter) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders`
	conditions := []string{}
	args := []any{}

	if filter.EstadoPago != "" {
		args = append(args, filter.EstadoPago)
		conditions = append(conditions, fmt.Sprintf("estado_pago = $%d", len(args)))
	}
	if filter.EstadoEnvio != "" {
		args = append(args, filter.EstadoEnvio)
		conditions = append(conditions, fmt.Sprintf("estado_envio = $%d", len(args)))
	}
	if filter.Zona != "" {
		args = append(args, filter.Zona)
		conditions = append(conditions, fmt.Sprintf("zona = $%d", len(args)))
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	list := []domain.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *order)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}

// SetShippingStatus moves an order from one shipping status to the next
// and stamps the matching timestamp. The WHERE clause re-checks the
// current status so two admins clicking at once cannot double-advance.
func (r *Repository) SetShippingStatus(ctx context.Context, id string, from, to domain.ShippingStatus) error {
	var column string
	switch to {
	case domain.ShippingShipped:
		column = "shipped_at"
	case domain.ShippingDelivered:
		column = "delivered_at"
	default:
		return fmt.Errorf("no timestamp column for shipping status %q", to)
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET estado_envio = $3, `+column+` = NOW()
		WHERE id = $1 AND estado_envio = $2 AND estado_pago = $4
	`, id, from, to, domain.PaymentPaid)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrStaleStatus
	}

	return nil
}

// LinkCustomer attaches a customer and optional comments to an order
// that does not have one yet.
func (r *Repository) LinkCustomer(ctx context.Context, orderID, customerID, comentarios string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET customer_id = $2, comentarios = COALESCE(NULLIF($3, ''), comentarios)
		WHERE id = $1 AND customer_id IS NULL
	`, orderID, customerID, comentarios)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrAlreadyLinked
	}

	return nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
