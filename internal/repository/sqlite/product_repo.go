package sqlite

import (
	"context"
	"fmt"

	"github.com/prn-tf/product-manager/internal/domain"
	"github.com/prn-tf/product-manager/internal/repository"
)

// productRepository implements repository.ProductRepository for SQLite.
type productRepository struct {
	db *DB
}

// NewProductRepository creates a new SQLite product repository.
func NewProductRepository(db *DB) repository.ProductRepository {
	return &productRepository{db: db}
}

const productColumns = `id, user_id, name, description, price, category, image_url, sku, stock, is_active, created_at, updated_at`

// Put creates or replaces a product. The owner and creation time of an
// existing row are never overwritten.
func (r *productRepository) Put(ctx context.Context, p *domain.Product) error {
	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			price = excluded.price,
			category = excluded.category,
			image_url = excluded.image_url,
			sku = excluded.sku,
			stock = excluded.stock,
			is_active = excluded.is_active,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		p.ID,
		p.UserID,
		p.Name,
		p.Description,
		p.Price,
		p.Category,
		p.ImageURL,
		p.SKU,
		p.Stock,
		boolToInt(p.IsActive),
		formatTime(p.CreatedAt),
		formatTime(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save product: %w", err)
	}
	return nil
}

// Get retrieves a product by ID with an optional ownership filter.
func (r *productRepository) Get(ctx context.Context, id, ownerID string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = ? AND (? = '' OR user_id = ?)`

	row, err := r.db.QueryRowContext(ctx, query, id, ownerID, ownerID)
	if err != nil {
		return nil, err
	}

	p, err := scanProduct(row)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return p, nil
}

// ListByOwner returns all products of a user ordered by creation time.
func (r *productRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Product, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE user_id = ? ORDER BY created_at, id`, ownerID)
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
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM products WHERE id = ? AND (? = '' OR user_id = ?)`, id, ownerID, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

// DeleteByOwner deletes every product of a user.
func (r *productRepository) DeleteByOwner(ctx context.Context, ownerID string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE user_id = ?`, ownerID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete products: %w", err)
	}
	return result.RowsAffected()
}

// Clear removes all products.
func (r *productRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM products`); err != nil {
		return fmt.Errorf("failed to clear products: %w", err)
	}
	return nil
}

func scanProduct(s scanner) (*domain.Product, error) {
	p := &domain.Product{}
	var isActive int
	var createdAt, updatedAt string

	err := s.Scan(
		&p.ID,
		&p.UserID,
		&p.Name,
		&p.Description,
		&p.Price,
		&p.Category,
		&p.ImageURL,
		&p.SKU,
		&p.Stock,
		&isActive,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.IsActive = isActive != 0
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("product %s created_at: %w", p.ID, err)
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("product %s updated_at: %w", p.ID, err)
	}
	return p, nil
}

// Ensure productRepository implements repository.ProductRepository.
var _ repository.ProductRepository = (*productRepository)(nil)
