package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/product-manager/internal/domain"
	"github.com/prn-tf/product-manager/internal/pkg/crypto"
	"github.com/prn-tf/product-manager/internal/repository"
)

// ProductService manages the products of the logged-in user.
// Every read and write is filtered by the current user's id.
type ProductService struct {
	products repository.ProductRepository
	auth     CurrentUserProvider
	logger   zerolog.Logger
	now      func() time.Time
}

// NewProductService creates a new ProductService.
func NewProductService(products repository.ProductRepository, auth CurrentUserProvider, logger zerolog.Logger) *ProductService {
	return &ProductService{
		products: products,
		auth:     auth,
		logger:   logger.With().Str("service", "product").Logger(),
		now:      time.Now,
	}
}

// requireUser returns the current user or ErrNotAuthenticated.
func (s *ProductService) requireUser(ctx context.Context) (*domain.User, error) {
	user, err := s.auth.CurrentUser(ctx)
	if err != nil {
		if errors.Is(err, ErrNotAuthenticated) {
			return nil, ErrNotAuthenticated
		}
		return nil, err
	}
	return user, nil
}

// ValidateProduct returns every rule the input breaks, in rule order.
func (s *ProductService) ValidateProduct(input domain.ProductInput) []error {
	return domain.ValidateProduct(input)
}

// CreateProduct validates the input and stores a new product for the
// current user. The first broken rule is returned.
func (s *ProductService) CreateProduct(ctx context.Context, input domain.ProductInput) (*domain.Product, error) {
	user, err := s.requireUser(ctx)
	if err != nil {
		return nil, err
	}

	if errs := domain.ValidateProduct(input); len(errs) > 0 {
		return nil, errs[0]
	}

	product := domain.NewProduct(crypto.NewProductID(), user.ID, input)
	product.CreatedAt = s.now().UTC()
	product.UpdatedAt = product.CreatedAt

	if err := s.products.Put(ctx, product); err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("failed to create product")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().
		Str("product_id", product.ID).
		Str("user_id", user.ID).
		Msg("product created")

	return product, nil
}

// GetProducts returns the current user's products ordered by creation time.
func (s *ProductService) GetProducts(ctx context.Context) ([]*domain.Product, error) {
	user, err := s.requireUser(ctx)
	if err != nil {
		return nil, err
	}
	return s.listOwned(ctx, user.ID)
}

func (s *ProductService) listOwned(ctx context.Context, ownerID string) ([]*domain.Product, error) {
	products, err := s.products.ListByOwner(ctx, ownerID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", ownerID).Msg("failed to list products")
		return nil, fmt.Errorf("%w: failed to retrieve products: %v", ErrInternalError, err)
	}
	if products == nil {
		products = []*domain.Product{}
	}
	return products, nil
}

// GetProduct returns one of the current user's products, or nil when it does
// not exist or belongs to someone else.
func (s *ProductService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	user, err := s.requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, domain.ErrProductIDRequired
	}

	product, err := s.products.Get(ctx, id, user.ID)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return nil, nil
		}
		s.logger.Error().Err(err).Str("product_id", id).Msg("failed to get product")
		return nil, fmt.Errorf("%w: failed to retrieve product: %v", ErrInternalError, err)
	}
	return product, nil
}

// getOwned loads a product for modification.
// Returns domain.ErrProductNotFound when the current user doesn't own it.
func (s *ProductService) getOwned(ctx context.Context, id, ownerID string) (*domain.Product, error) {
	product, err := s.products.Get(ctx, id, ownerID)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return nil, domain.ErrProductNotFound
		}
		s.logger.Error().Err(err).Str("product_id", id).Msg("failed to get product")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return product, nil
}

// UpdateProduct applies the supplied fields to one of the current user's
// products. The merged record must pass the same rules as a new product.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, input domain.ProductInput) (*domain.Product, error) {
	user, err := s.requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, domain.ErrProductIDRequired
	}

	existing, err := s.getOwned(ctx, id, user.ID)
	if err != nil {
		return nil, err
	}

	// Supplied fields are checked untrimmed, as on create.
	if errs := domain.ValidateProduct(existing.MergedInput(input)); len(errs) > 0 {
		return nil, errs[0]
	}

	updated := existing.Merge(input)
	updated.UpdatedAt = s.now().UTC()

	if err := s.products.Put(ctx, updated); err != nil {
		s.logger.Error().Err(err).Str("product_id", id).Msg("failed to update product")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().
		Str("product_id", id).
		Str("user_id", user.ID).
		Msg("product updated")

	return updated, nil
}

// DeleteProduct removes one of the current user's products.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	user, err := s.requireUser(ctx)
	if err != nil {
		return err
	}
	if id == "" {
		return domain.ErrProductIDRequired
	}

	if _, err := s.getOwned(ctx, id, user.ID); err != nil {
		return err
	}

	if err := s.products.Delete(ctx, id, user.ID); err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return domain.ErrProductNotFound
		}
		s.logger.Error().Err(err).Str("product_id", id).Msg("failed to delete product")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().
		Str("product_id", id).
		Str("user_id", user.ID).
		Msg("product deleted")

	return nil
}

// SearchProducts returns the current user's products whose name,
// description, category or SKU contains the query, ignoring case.
func (s *ProductService) SearchProducts(ctx context.Context, query *string) ([]*domain.Product, error) {
	user, err := s.requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if query == nil {
		return nil, ErrSearchQueryRequired
	}

	products, err := s.listOwned(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(strings.TrimSpace(*query))
	if q == "" {
		return products, nil
	}

	matches := make([]*domain.Product, 0)
	for _, p := range products {
		if p.Matches(q) {
			matches = append(matches, p)
		}
	}
	return matches, nil
}

// GetProductStats summarizes the current user's products.
func (s *ProductService) GetProductStats(ctx context.Context) (*domain.ProductStats, error) {
	user, err := s.requireUser(ctx)
	if err != nil {
		return nil, err
	}

	products, err := s.listOwned(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return domain.ComputeProductStats(products), nil
}

// ClearAllProducts deletes all of the current user's products.
func (s *ProductService) ClearAllProducts(ctx context.Context) (int, error) {
	user, err := s.requireUser(ctx)
	if err != nil {
		return 0, err
	}

	n, err := s.products.DeleteByOwner(ctx, user.ID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("failed to clear products")
		return 0, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Int64("deleted", n).
		Msg("products cleared")

	return int(n), nil
}

// Ensure ProductService implements ProductManager.
var _ ProductManager = (*ProductService)(nil)
