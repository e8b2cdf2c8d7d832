package kvstore

import (
	"context"
	"fmt"
	"sort"

	"github.com/prn-tf/product-manager/internal/domain"
	"github.com/prn-tf/product-manager/internal/repository"
)

// KeyProducts holds the id-keyed product map when no indexed store is configured.
const KeyProducts = "products"

// productRepository implements repository.ProductRepository over an id-keyed map.
// Owner lookups scan the map; it is meant for small demo data sets.
type productRepository struct {
	kv   repository.KVStore
	opts options
}

// NewProductRepository creates a KV-backed product repository.
func NewProductRepository(kv repository.KVStore, opts ...Option) repository.ProductRepository {
	return &productRepository{kv: kv, opts: newOptions(opts)}
}

func (r *productRepository) load(ctx context.Context) (map[string]*domain.Product, error) {
	products := make(map[string]*domain.Product)
	if err := loadJSON(ctx, r.kv, KeyProducts, &products); err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	return products, nil
}

// Put creates or replaces a product.
func (r *productRepository) Put(ctx context.Context, product *domain.Product) error {
	return r.opts.update(ctx, KeyProducts, func() error {
		products, err := r.load(ctx)
		if err != nil {
			return err
		}
		cp := *product
		products[product.ID] = &cp
		return storeJSON(ctx, r.kv, KeyProducts, products)
	})
}

// Get retrieves a product by ID with an optional ownership filter.
func (r *productRepository) Get(ctx context.Context, id, ownerID string) (*domain.Product, error) {
	products, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	p, ok := products[id]
	if !ok || (ownerID != "" && p.UserID != ownerID) {
		return nil, domain.ErrProductNotFound
	}
	return p, nil
}

// ListByOwner returns all products of a user ordered by creation time.
func (r *productRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Product, error) {
	products, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]*domain.Product, 0)
	for _, p := range products {
		if p.UserID == ownerID {
			result = append(result, p)
		}
	}
	sortProducts(result)
	return result, nil
}

// Delete deletes a product by ID with an optional ownership filter.
func (r *productRepository) Delete(ctx context.Context, id, ownerID string) error {
	return r.opts.update(ctx, KeyProducts, func() error {
		products, err := r.load(ctx)
		if err != nil {
			return err
		}
		p, ok := products[id]
		if !ok || (ownerID != "" && p.UserID != ownerID) {
			return domain.ErrProductNotFound
		}
		delete(products, id)
		return storeJSON(ctx, r.kv, KeyProducts, products)
	})
}

// DeleteByOwner deletes every product of a user.
func (r *productRepository) DeleteByOwner(ctx context.Context, ownerID string) (int64, error) {
	var n int64
	err := r.opts.update(ctx, KeyProducts, func() error {
		products, err := r.load(ctx)
		if err != nil {
			return err
		}
		for id, p := range products {
			if p.UserID == ownerID {
				delete(products, id)
				n++
			}
		}
		if n == 0 {
			return nil
		}
		return storeJSON(ctx, r.kv, KeyProducts, products)
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// Clear removes all products.
func (r *productRepository) Clear(ctx context.Context) error {
	return r.opts.update(ctx, KeyProducts, func() error {
		return r.kv.Delete(ctx, KeyProducts)
	})
}

func sortProducts(products []*domain.Product) {
	sort.SliceStable(products, func(i, j int) bool {
		if products[i].CreatedAt.Equal(products[j].CreatedAt) {
			return products[i].ID < products[j].ID
		}
		return products[i].CreatedAt.Before(products[j].CreatedAt)
	})
}

// Ensure productRepository implements repository.ProductRepository.
var _ repository.ProductRepository = (*productRepository)(nil)
