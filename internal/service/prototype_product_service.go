package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/product-manager/internal/domain"
	"github.com/prn-tf/product-manager/internal/pkg/crypto"
	"github.com/prn-tf/product-manager/internal/repository"
)

// KeyPrototypeProducts holds the fake product list.
const KeyPrototypeProducts = "prototypeProducts"

// PrototypeProductService serves fake products for demos. Nothing is
// validated and every product belongs to DemoUserID.
type PrototypeProductService struct {
	kv     repository.KVStore
	logger zerolog.Logger
	now    func() time.Time

	mu sync.Mutex
}

// NewPrototypeProductService creates a new PrototypeProductService.
func NewPrototypeProductService(kv repository.KVStore, logger zerolog.Logger) *PrototypeProductService {
	return &PrototypeProductService{
		kv:     kv,
		logger: logger.With().Str("service", "prototype-product").Logger(),
		now:    time.Now,
	}
}

func (s *PrototypeProductService) sampleProducts() []*domain.Product {
	now := s.now().UTC()
	sample := func(id, name, description, category string, price float64) *domain.Product {
		return &domain.Product{
			ID:          id,
			UserID:      DemoUserID,
			Name:        name,
			Description: description,
			Price:       price,
			Category:    category,
			IsActive:    true,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
	}
	return []*domain.Product{
		sample("product_1", "Sample iPhone 15", "Latest iPhone with amazing features", "Electronics", 999.99),
		sample("product_2", "Sample MacBook Pro", "Powerful laptop for professionals", "Computers", 1999.99),
	}
}

// load returns the stored products, seeding the samples on first use.
// s.mu must be held.
func (s *PrototypeProductService) load(ctx context.Context) ([]*domain.Product, error) {
	data, err := s.kv.Get(ctx, KeyPrototypeProducts)
	if errors.Is(err, repository.ErrNotFound) {
		products := s.sampleProducts()
		if err := s.save(ctx, products); err != nil {
			return nil, err
		}
		return products, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	var products []*domain.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("%w: failed to decode products: %v", ErrInternalError, err)
	}
	if products == nil {
		products = []*domain.Product{}
	}
	return products, nil
}

func (s *PrototypeProductService) save(ctx context.Context, products []*domain.Product) error {
	data, err := json.Marshal(products)
	if err != nil {
		return fmt.Errorf("%w: failed to encode products: %v", ErrInternalError, err)
	}
	if err := s.kv.Set(ctx, KeyPrototypeProducts, data, 0); err != nil {
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return nil
}

// CreateProduct stores the input, filling missing fields with placeholders.
func (s *PrototypeProductService) CreateProduct(ctx context.Context, input domain.ProductInput) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	product := domain.NewProduct(crypto.NewProductID(), DemoUserID, input)
	product.CreatedAt = s.now().UTC()
	product.UpdatedAt = product.CreatedAt
	if product.Name == "" {
		product.Name = "Sample Product"
	}
	if product.Description == "" {
		product.Description = "Sample description"
	}
	if product.Price == 0 {
		product.Price = 19.99
	}

	if err := s.save(ctx, append(products, product)); err != nil {
		return nil, err
	}
	return product, nil
}

// GetProducts returns every fake product.
func (s *PrototypeProductService) GetProducts(ctx context.Context) ([]*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// GetProduct returns the product with the id, or nil.
func (s *PrototypeProductService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range products {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, nil
}

// UpdateProduct applies the input without validation.
func (s *PrototypeProductService) UpdateProduct(ctx context.Context, id string, input domain.ProductInput) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	for i, p := range products {
		if p.ID != id {
			continue
		}
		updated := p.Merge(input)
		updated.UpdatedAt = s.now().UTC()
		products[i] = updated
		if err := s.save(ctx, products); err != nil {
			return nil, err
		}
		return updated, nil
	}
	return nil, domain.ErrProductNotFound
}

// DeleteProduct removes the product with the id.
func (s *PrototypeProductService) DeleteProduct(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.load(ctx)
	if err != nil {
		return err
	}
	for i, p := range products {
		if p.ID == id {
			return s.save(ctx, append(products[:i], products[i+1:]...))
		}
	}
	return domain.ErrProductNotFound
}

// SearchProducts matches name and description. A nil or blank query returns
// everything.
func (s *PrototypeProductService) SearchProducts(ctx context.Context, query *string) ([]*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if query == nil || *query == "" {
		return products, nil
	}

	q := strings.ToLower(*query)
	matches := make([]*domain.Product, 0)
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Name), q) || strings.Contains(strings.ToLower(p.Description), q) {
			matches = append(matches, p)
		}
	}
	return matches, nil
}

// GetProductStats summarizes the fake products.
func (s *PrototypeProductService) GetProductStats(ctx context.Context) (*domain.ProductStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return domain.ComputeProductStats(products), nil
}

// ClearAllProducts removes every fake product. The samples come back on the
// next read.
func (s *PrototypeProductService) ClearAllProducts(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.load(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.kv.Delete(ctx, KeyPrototypeProducts); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return len(products), nil
}

// AddSampleProducts appends two more sample products.
func (s *PrototypeProductService) AddSampleProducts(ctx context.Context) ([]*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	extra := []*domain.Product{
		{ID: "sample_1", UserID: DemoUserID, Name: "Wireless Headphones", Description: "High-quality noise-canceling headphones", Price: 199.99, Category: "Audio", IsActive: true, CreatedAt: now, UpdatedAt: now},
		{ID: "sample_2", UserID: DemoUserID, Name: "Smart Watch", Description: "Fitness tracking smartwatch with GPS", Price: 299.99, Category: "Wearables", IsActive: true, CreatedAt: now, UpdatedAt: now},
	}
	if err := s.save(ctx, append(products, extra...)); err != nil {
		return nil, err
	}
	return extra, nil
}

// Ensure PrototypeProductService implements ProductManager.
var _ ProductManager = (*PrototypeProductService)(nil)
