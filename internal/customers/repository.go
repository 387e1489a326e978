package customers

import (
	"context"
	"database/sql"

	"github.com/mbravoz/drop-storefront/internal/domain"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, customer *domain.Customer) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO customers (id, nombre, email, telefono, dni, provincia, ciudad, direccion)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`,
		customer.ID, customer.Nombre, customer.Email, customer.Telefono,
		customer.DNI, customer.Provincia, customer.Ciudad, customer.Direccion,
	).Scan(&customer.CreatedAt)
}

// Delete removes a customer row that never got linked to an order.
// The orders FK would block the delete otherwise, which is fine: a
// linked customer stays.
func (r *Repository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM customers WHERE id = $1`, id)
	return err
}
