package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/avc/dropship-backend/internal/domain"
	"github.com/jackc/pgx/v5"
)

// CatalogRepository реализует поиск справочных сущностей
type CatalogRepository struct {
	db DBTX
}

// NewCatalogRepository создает новый CatalogRepository
func NewCatalogRepository(db DBTX) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// GetCustomerByID получает покупателя по id
func (r *CatalogRepository) GetCustomerByID(ctx context.Context, id int64) (*domain.Customer, error) {
	customer := &domain.Customer{}

	err := r.db.QueryRow(ctx,
		`SELECT id, email, full_name, created_at FROM customers WHERE id = $1`, id,
	).Scan(&customer.ID, &customer.Email, &customer.FullName, &customer.CreatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("repository: failed to get customer %d: %w", id, err)
	}

	return customer, nil
}

// GetProductByID получает товар по id
func (r *CatalogRepository) GetProductByID(ctx context.Context, id int64) (*domain.Product, error) {
	product := &domain.Product{}

	err := r.db.QueryRow(ctx,
		`SELECT id, name, sku, supplier_id, supplier_price, selling_price, is_active
		 FROM products WHERE id = $1`, id,
	).Scan(&product.ID, &product.Name, &product.SKU, &product.SupplierID,
		&product.SupplierPrice, &product.SellingPrice, &product.IsActive)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("repository: failed to get product %d: %w", id, err)
	}

	return product, nil
}

// GetSupplierByID получает поставщика по id
func (r *CatalogRepository) GetSupplierByID(ctx context.Context, id int64) (*domain.Supplier, error) {
	supplier := &domain.Supplier{}

	err := r.db.QueryRow(ctx,
		`SELECT id, name, COALESCE(email, ''), is_active FROM suppliers WHERE id = $1`, id,
	).Scan(&supplier.ID, &supplier.Name, &supplier.Email, &supplier.IsActive)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSupplierNotFound
		}
		return nil, fmt.Errorf("repository: failed to get supplier %d: %w", id, err)
	}

	return supplier, nil
}
