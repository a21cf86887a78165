package repositories

import (
	"context"

	"orderhub/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	// GetBySku returns nil, nil when the sku is unknown.
	GetBySku(ctx context.Context, sku string) (*models.Product, error)
	List(ctx context.Context, limit, offset int) ([]*models.Product, error)
	// Update rewrites the mutable catalog fields and reports whether the sku exists.
	Update(ctx context.Context, product *models.Product) (bool, error)
}

type productRepo struct {
	db DBTX
}

func NewProductRepo(db DBTX) ProductRepository {
	return &productRepo{db: db}
}

func (r *productRepo) Create(ctx context.Context, product *models.Product) error {
	query := `
		INSERT INTO products (id, sku, name, description, category, price, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.Exec(ctx, query, product.ID, product.Sku, product.Name, product.Description, product.Category, numeric(product.Price), product.IsActive, product.CreatedAt, product.UpdatedAt)
	return mapError(err, "create product")
}

func (r *productRepo) GetBySku(ctx context.Context, sku string) (*models.Product, error) {
	query := `
		SELECT id, sku, name, description, category, price::text, is_active, created_at, updated_at
		FROM products
		WHERE sku = $1
	`
	product, err := scanProduct(r.db.QueryRow(ctx, query, sku))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "get product %s", sku)
	}
	return product, nil
}

func (r *productRepo) Update(ctx context.Context, product *models.Product) (bool, error) {
	query := `
		UPDATE products
		SET name = $1, description = $2, category = $3, price = $4, is_active = $5, updated_at = $6
		WHERE sku = $7
	`
	tag, err := r.db.Exec(ctx, query, product.Name, product.Description, product.Category, numeric(product.Price), product.IsActive, product.UpdatedAt, product.Sku)
	if err != nil {
		return false, mapError(err, "update product")
	}
	return tag.RowsAffected() > 0, nil
}

func (r *productRepo) List(ctx context.Context, limit, offset int) ([]*models.Product, error) {
	query := `
		SELECT id, sku, name, description, category, price::text, is_active, created_at, updated_at
		FROM products
		ORDER BY sku
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	defer rows.Close()

	products := []*models.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan product")
		}
		products = append(products, product)
	}
	return products, errors.Wrap(rows.Err(), "list products")
}

func scanProduct(row pgx.Row) (*models.Product, error) {
	product := &models.Product{}
	var price string
	if err := row.Scan(&product.ID, &product.Sku, &product.Name, &product.Description, &product.Category, &price, &product.IsActive, &product.CreatedAt, &product.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	if product.Price, err = decimal.NewFromString(price); err != nil {
		return nil, errors.Wrapf(err, "parse price of %s", product.Sku)
	}
	return product, nil
}
