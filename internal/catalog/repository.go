package catalog

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

func (r *Repository) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	product := &domain.Product{}

	err := r.db.QueryRowContext(ctx, `
		SELECT id, nombre, precio_cba, precio_interior, stock_inicial, activo, created_at
		FROM products
		WHERE id = $1
	`, id).Scan(
		&product.ID,
		&product.Nombre,
		&product.PrecioCapital,
		&product.PrecioInterior,
		&product.StockInicial,
		&product.Activo,
		&product.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return product, nil
}

// Stock aggregates unit statuses into the summary the landing page polls.
func (r *Repository) Stock(ctx context.Context, productID int64) (*domain.StockSummary, error) {
	summary := &domain.StockSummary{}

	err := r.db.QueryRowContext(ctx, `
		SELECT p.stock_inicial,
		       COUNT(u.numero_serie) FILTER (WHERE u.estado = $2),
		       COUNT(u.numero_serie) FILTER (WHERE u.estado = $3)
		FROM products p
		LEFT JOIN units u ON u.product_id = p.id
		WHERE p.id = $1
		GROUP BY p.stock_inicial
	`, productID, domain.UnitSold, domain.UnitAvailable).Scan(
		&summary.StockInicial,
		&summary.Vendidos,
		&summary.Disponibles,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return summary, nil
}

// UpdatePrices applies an admin price edit. Prices are the only product
// fields that change after catalog setup.
func (r *Repository) UpdatePrices(ctx context.Context, productID, precioCapital, precioInterior int64) (*domain.Product, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET precio_cba = $2, precio_interior = $3, updated_at = NOW()
		WHERE id = $1
	`, productID, precioCapital, precioInterior)
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

	return r.GetProduct(ctx, productID)
}
