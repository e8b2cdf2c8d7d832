package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/product-manager/internal/domain"
	"github.com/prn-tf/product-manager/internal/kv/memory"
)

func newPrototypeProducts(t *testing.T) *PrototypeProductService {
	t.Helper()
	kv := memory.NewStore(time.Hour)
	t.Cleanup(func() { _ = kv.Close() })
	return NewPrototypeProductService(kv, zerolog.Nop())
}

func TestPrototypeProductService_SeedsSamples(t *testing.T) {
	svc := newPrototypeProducts(t)
	ctx := context.Background()

	products, err := svc.GetProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 2)
	require.Equal(t, "product_1", products[0].ID)
	require.Equal(t, "Sample iPhone 15", products[0].Name)
	require.Equal(t, 1999.99, products[1].Price)
	for _, p := range products {
		require.Equal(t, DemoUserID, p.UserID)
	}

	got, err := svc.GetProduct(ctx, "product_2")
	require.NoError(t, err)
	require.Equal(t, "Computers", got.Category)

	got, err = svc.GetProduct(ctx, "product_missing")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestPrototypeProductService_CRUD(t *testing.T) {
	svc := newPrototypeProducts(t)
	ctx := context.Background()

	// No validation: placeholders fill the gaps.
	created, err := svc.CreateProduct(ctx, domain.ProductInput{})
	require.NoError(t, err)
	require.Equal(t, "Sample Product", created.Name)
	require.Equal(t, "Sample description", created.Description)
	require.Equal(t, 19.99, created.Price)

	updated, err := svc.UpdateProduct(ctx, created.ID, domain.ProductInput{Price: floatPtr(-5)})
	require.NoError(t, err)
	require.Equal(t, -5.0, updated.Price)

	_, err = svc.UpdateProduct(ctx, "product_missing", domain.ProductInput{})
	require.ErrorIs(t, err, domain.ErrProductNotFound)

	require.NoError(t, svc.DeleteProduct(ctx, created.ID))
	require.ErrorIs(t, svc.DeleteProduct(ctx, created.ID), domain.ErrProductNotFound)

	products, err := svc.GetProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 2)
}

func TestPrototypeProductService_Search(t *testing.T) {
	svc := newPrototypeProducts(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		query *string
		want  int
	}{
		{name: "nil returns all", query: nil, want: 2},
		{name: "empty returns all", query: strPtr(""), want: 2},
		{name: "name", query: strPtr("iphone"), want: 1},
		{name: "description", query: strPtr("PROFESSIONALS"), want: 1},
		{name: "category is not searched", query: strPtr("electronics"), want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found, err := svc.SearchProducts(ctx, tt.query)
			require.NoError(t, err)
			require.Len(t, found, tt.want)
		})
	}
}

func TestPrototypeProductService_ClearAndSamples(t *testing.T) {
	svc := newPrototypeProducts(t)
	ctx := context.Background()

	extra, err := svc.AddSampleProducts(ctx)
	require.NoError(t, err)
	require.Len(t, extra, 2)

	stats, err := svc.GetProductStats(ctx)
	require.NoError(t, err)
	require.Equal(t, 4, stats.TotalProducts)
	require.Equal(t, 1, stats.Categories["Audio"])

	n, err := svc.ClearAllProducts(ctx)
	require.NoError(t, err)
	require.Equal(t, 4, n)

	products, err := svc.GetProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 2)
}
