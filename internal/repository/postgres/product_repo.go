package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/prn-tf/product-manager/internal/domain"
	"github.com/prn-tf/product-manager/internal/repository"
)

// productRepository implements repository.ProductRepository.
type productRepository struct {
	db *DB
}

// NewProductRepository creates a new PostgreSQL product repository.
func NewProductRepository(db *DB) repository.ProductRepository {
	return &productRepository{db: db}
}

const productColumns = `id, user_id, name, description, price, category, image_url, sku, stock, is_active, created_at, updated_at`

// Put creates or replaces a product. The owner and creation time of an
// existing row are never overwritten.
func (r *productRepository) Put(ctx context.Context, p *domain.Product) error {
	pool, err := r.db.Pool()
	if err != nil {
		return err
	}

	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			price = EXCLUDED.price,
			category = EXCLUDED.category,
			image_url = EXCLUDED.image_url,
			sku = EXCLUDED.sku,
			stock = EXCLUDED.stock,
			is_active = EXCLUDED.is_active,
			updated_at = EXCLUDED.updated_at
	`

	_, err = pool.Exec(ctx, query,
		p.ID, p.UserID, p.Name, p.Description, p.Price, p.Category,
		p.ImageURL, p.SKU, p.Stock, p.IsActive, p.CreatedAt.UTC(), p.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save product: %w", err)
	}
	return nil
}

// Get retrieves a product by ID with an optional ownership filter.
func (r *productRepository) Get(ctx context.Context, id, ownerID string) (*domain.Product, error) {
	pool, err := r.db.Pool()
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 AND ($2::text = '' OR user_id = $2)`
	p, err := scanProduct(pool.QueryRow(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return p, nil
}

// ListByOwner returns all products of a user ordered by creation time.
func (r *productRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Product, error) {
	pool, err := r.db.Pool()
	if err != nil {
		return nil, err
	}

	rows, err := pool.Query(ctx,
		`SELECT `+productColumns+` FROM products WHERE user_id = $1 ORDER BY created_at, id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := make([]*domain.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}
	return products, nil
}

// Delete deletes a product by ID with an optional ownership filter.
func (r *productRepository) Delete(ctx context.Context, id, ownerID string) error {
	pool, err := r.db.Pool()
	if err != nil {
		return err
	}

	tag, err := pool.Exec(ctx, `DELETE FROM products WHERE id = $1 AND ($2::text = '' OR user_id = $2)`, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

// DeleteByOwner deletes every product of a user.
func (r *productRepository) DeleteByOwner(ctx context.Context, ownerID string) (int64, error) {
	pool, err := r.db.Pool()
	if err != nil {
		return 0, err
	}

	tag, err := pool.Exec(ctx, `DELETE FROM products WHERE user_id = $1`, ownerID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete products: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Clear removes all products.
func (r *productRepository) Clear(ctx context.Context) error {
	pool, err := r.db.Pool()
	if err != nil {
		return err
	}
	if _, err := pool.Exec(ctx, `DELETE FROM products`); err != nil {
		return fmt.Errorf("failed to clear products: %w", err)
	}
	return nil
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	p := &domain.Product{}
	err := row.Scan(
		&p.ID, &p.UserID, &p.Name, &p.Description, &p.Price, &p.Category,
		&p.ImageURL, &p.SKU, &p.Stock, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Ensure productRepository implements repository.ProductRepository.
var _ repository.ProductRepository = (*productRepository)(nil)
