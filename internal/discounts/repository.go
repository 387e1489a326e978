package discounts

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/mbravoz/drop-storefront/internal/domain"
)

// ErrNotRedeemable means the conditional redeem matched no row: the code
// was deactivated, fell out of its validity window, or hit its cap after
// checkout validated it.
var ErrNotRedeemable = errors.New("discount code no longer redeemable")

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const discountColumns = `id, code, percentage, activo, max_usos, usos, valido_desde, valido_hasta, descripcion, created_at`

func scanDiscount(row interface{ Scan(...any) error }) (*domain.DiscountCode, error) {
	code := &domain.DiscountCode{}
	err := row.Scan(
		&code.ID,
		&code.Code,
		&code.Percentage,
		&code.Activo,
		&code.MaxUsos,
		&code.Usos,
		&code.ValidoDesde,
		&code.ValidoHasta,
		&code.Descripcion,
		&code.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return code, nil
}

// GetByCode looks a code up case-insensitively; codes are stored
// upper-cased.
func (r *Repository) GetByCode(ctx context.Context, code string) (*domain.DiscountCode, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+discountColumns+`
		FROM discount_codes
		WHERE code = $1
	`, strings.ToUpper(strings.TrimSpace(code)))

	dc, err := scanDiscount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return dc, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.DiscountCode, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+discountColumns+`
		FROM discount_codes
		WHERE id = $1
	`, id)

	dc, err := scanDiscount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return dc, nil
}

// Redeem bumps the usage counter under the cap in a single conditional
// UPDATE, so two concurrent settlements cannot both consume the last
// use.
func (r *Repository) Redeem(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE discount_codes
		SET usos = usos + 1
		WHERE id = $1
		  AND activo
		  AND (max_usos IS NULL OR usos < max_usos)
		  AND (valido_desde IS NULL OR valido_desde <= NOW())
		  AND (valido_hasta IS NULL OR valido_hasta >= NOW())
	`, id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if affected == 0 {
		return ErrNotRedeemable
	}

	return nil
}

// Unredeem compensates a Redeem when a later settlement step fails.
func (r *Repository) Unredeem(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE discount_codes
		SET usos = usos - 1
		WHERE id = $1 AND usos > 0
	`, id)
	return err
}

func (r *Repository) List(ctx context.Context) ([]domain.DiscountCode, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+discountColumns+`
		FROM discount_codes
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	codes := []domain.DiscountCode{}
	for rows.Next() {
		code, err := scanDiscount(rows)
		if err != nil {
			return nil, err
		}
		codes = append(codes, *code)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return codes, nil
}

func (r *Repository) Create(ctx context.Context, code *domain.DiscountCode) error {
	code.Code = strings.ToUpper(strings.TrimSpace(code.Code))

	return r.db.QueryRowContext(ctx, `
		INSERT INTO discount_codes (code, percentage, activo, max_usos, valido_desde, valido_hasta, descripcion)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, usos, created_at
	`, code.Code, code.Percentage, code.Activo, code.MaxUsos, code.ValidoDesde, code.ValidoHasta, code.Descripcion).
		Scan(&code.ID, &code.Usos, &code.CreatedAt)
}

// SetActive toggles a code. Returns the updated row, or nil when the id
// does not exist.
func (r *Repository) SetActive(ctx context.Context, id int64, active bool) (*domain.DiscountCode, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE discount_codes
		SET activo = $2
		WHERE id = $1
	`, id, active)
	if err != nil {
		return nil, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}

	if affected == 0 {
		return nil, nil
	}

	return r.GetByID(ctx, id)
}

// Performance summarizes each code's take for the admin dashboard.
type Performance struct {
	Code       string `json:"code"`
	Percentage int    `json:"percentage"`
	Usos       int    `json:"usos"`
	Pedidos    int    `json:"pedidos"`
	Ingresos   int64  `json:"ingresos"`
	Descuento  int64  `json:"descuento_total"`
}

func (r *Repository) PerformanceReport(ctx context.Context) ([]Performance, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT d.code, d.percentage, d.usos,
		       COUNT(o.id),
		       COALESCE(SUM(o.monto_final), 0),
		       COALESCE(SUM(o.monto_descuento), 0)
		FROM discount_codes d
		LEFT JOIN orders o ON o.discount_id = d.id AND o.estado_pago = $1
		GROUP BY d.id, d.code, d.percentage, d.usos
		ORDER BY COUNT(o.id) DESC
	`, domain.PaymentPaid)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	report := []Performance{}
	for rows.Next() {
		var p Performance
		if err := rows.Scan(&p.Code, &p.Percentage, &p.Usos, &p.Pedidos, &p.Ingresos, &p.Descuento); err != nil {
			return nil, err
		}
		report = append(report, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return report, nil
}
