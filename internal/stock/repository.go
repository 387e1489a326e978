package stock

import (
	"context"
	"database/sql"
	"errors"

	"github.com/mbravoz/drop-storefront/internal/domain"
)

var (
	// ErrNoStock means no available unit was left to claim.
	ErrNoStock = errors.New("no available units")
	// ErrInvalidTransition means the unit was not in the status the
	// transition requires, usually because another request got there
	// first.
	ErrInvalidTransition = errors.New("unit not in expected status")
)

// Repository owns the unit status transitions. Claim is the single
// concurrency-sensitive operation in the system: two settlements racing
// for the last unit must never both succeed, and the database resolves
// that here, not the callers.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Claim atomically reserves the lowest-numbered available unit of the
// product and returns its serial number. SKIP LOCKED makes concurrent
// claims take distinct rows instead of queueing on the same one.
func (r *Repository) Claim(ctx context.Context, productID int64) (int, error) {
	var serie int
	err := r.db.QueryRowContext(ctx, `
		UPDATE units
		SET estado = $2, updated_at = NOW()
		WHERE product_id = $1 AND numero_serie = (
			SELECT numero_serie
			FROM units
			WHERE product_id = $1 AND estado = $3
			ORDER BY numero_serie
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		RETURNING numero_serie
	`, productID, domain.UnitReserved, domain.UnitAvailable).Scan(&serie)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNoStock
		}
		return 0, err
	}

	return serie, nil
}

// Available counts units still open for sale.
func (r *Repository) Available(ctx context.Context, productID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM units
		WHERE product_id = $1 AND estado = $2
	`, productID, domain.UnitAvailable).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Release returns a reserved unit to the available pool. It is the
// compensation for Claim and refuses to touch units in any other status.
func (r *Repository) Release(ctx context.Context, productID int64, serie int) error {
	return r.transition(ctx, productID, serie, domain.UnitReserved, domain.UnitAvailable)
}

// MarkSold finalizes a reserved unit after the order row exists.
func (r *Repository) MarkSold(ctx context.Context, productID int64, serie int) error {
	return r.transition(ctx, productID, serie, domain.UnitReserved, domain.UnitSold)
}

func (r *Repository) transition(ctx context.Context, productID int64, serie int, from, to domain.UnitStatus) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE units
		SET estado = $4, updated_at = NOW()
		WHERE product_id = $1 AND numero_serie = $2 AND estado = $3
	`, productID, serie, from, to)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if affected == 0 {
		return ErrInvalidTransition
	}

	return nil
}
