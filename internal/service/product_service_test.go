package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/product-manager/internal/domain"
)

// loggedIn signs up a user on env and returns its id.
func loggedIn(t *testing.T, env *testEnv, email string) string {
	t.Helper()
	result, err := env.auth.Signup(context.Background(), SignupInput{Email: email, Password: testPassword})
	require.NoError(t, err)
	return result.User.ID
}

func TestProductService_RequiresAuthentication(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.CreateProduct(ctx, domain.ProductInput{Name: strPtr("Widget"), Price: floatPtr(9.99)})
	require.ErrorIs(t, err, ErrNotAuthenticated)

	_, err = env.svc.GetProducts(ctx)
	require.ErrorIs(t, err, ErrNotAuthenticated)

	_, err = env.svc.GetProduct(ctx, "product_1")
	require.ErrorIs(t, err, ErrNotAuthenticated)

	_, err = env.svc.UpdateProduct(ctx, "product_1", domain.ProductInput{})
	require.ErrorIs(t, err, ErrNotAuthenticated)

	require.ErrorIs(t, env.svc.DeleteProduct(ctx, "product_1"), ErrNotAuthenticated)

	_, err = env.svc.SearchProducts(ctx, strPtr(""))
	require.ErrorIs(t, err, ErrNotAuthenticated)

	_, err = env.svc.GetProductStats(ctx)
	require.ErrorIs(t, err, ErrNotAuthenticated)

	_, err = env.svc.ClearAllProducts(ctx)
	require.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestProductService_CreateProduct(t *testing.T) {
	tests := []struct {
		name    string
		input   domain.ProductInput
		wantErr error
	}{
		{
			name:  "valid",
			input: domain.ProductInput{Name: strPtr("Widget"), Price: floatPtr(29.99)},
		},
		{
			name:  "valid with all fields",
			input: domain.ProductInput{Name: strPtr("  Gadget  "), Description: strPtr(" shiny "), Price: floatPtr(5), Category: strPtr("Tools"), SKU: strPtr("G-1"), Stock: intPtr(3)},
		},
		{
			name:    "missing name",
			input:   domain.ProductInput{Price: floatPtr(1)},
			wantErr: domain.ErrProductNameRequired,
		},
		{
			name:    "blank name",
			input:   domain.ProductInput{Name: strPtr("   "), Price: floatPtr(1)},
			wantErr: domain.ErrProductNameEmpty,
		},
		{
			name:    "name too long",
			input:   domain.ProductInput{Name: strPtr(strings.Repeat("n", 101)), Price: floatPtr(1)},
			wantErr: domain.ErrProductNameTooLong,
		},
		{
			name:    "description too long",
			input:   domain.ProductInput{Name: strPtr("Widget"), Description: strPtr(strings.Repeat("d", 501)), Price: floatPtr(1)},
			wantErr: domain.ErrProductDescriptionTooLong,
		},
		{
			name:    "missing price",
			input:   domain.ProductInput{Name: strPtr("Widget")},
			wantErr: domain.ErrProductPriceRequired,
		},
		{
			name:    "zero price",
			input:   domain.ProductInput{Name: strPtr("Widget"), Price: floatPtr(0)},
			wantErr: domain.ErrProductPriceNotPositive,
		},
		{
			name:    "negative price",
			input:   domain.ProductInput{Name: strPtr("Widget"), Price: floatPtr(-1)},
			wantErr: domain.ErrProductPriceNotPositive,
		},
		{
			name:    "price too high",
			input:   domain.ProductInput{Name: strPtr("Widget"), Price: floatPtr(1000000)},
			wantErr: domain.ErrProductPriceTooHigh,
		},
		{
			name:    "three decimals",
			input:   domain.ProductInput{Name: strPtr("Widget"), Price: floatPtr(9.999)},
			wantErr: domain.ErrProductPricePrecision,
		},
		{
			name:    "negative stock",
			input:   domain.ProductInput{Name: strPtr("Widget"), Price: floatPtr(1), Stock: intPtr(-1)},
			wantErr: domain.ErrProductStockNegative,
		},
		{
			name:    "first rule wins",
			input:   domain.ProductInput{Price: floatPtr(9.999)},
			wantErr: domain.ErrProductNameRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			ctx := context.Background()
			owner := loggedIn(t, env, testEmail)

			product, err := env.svc.CreateProduct(ctx, tt.input)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.ErrorIs(t, err, domain.ErrValidation)
				require.Nil(t, product)
				return
			}

			require.NoError(t, err)
			require.True(t, strings.HasPrefix(product.ID, "product_"))
			require.Equal(t, owner, product.UserID)
			require.Equal(t, strings.TrimSpace(*tt.input.Name), product.Name)
			require.True(t, product.IsActive)
			require.Equal(t, env.clock.Now(), product.CreatedAt)

			if tt.input.Category == nil {
				require.Equal(t, domain.DefaultCategory, product.Category)
			}
			if tt.input.Stock == nil {
				require.Zero(t, product.Stock)
			}
			if tt.input.Description != nil {
				require.Equal(t, strings.TrimSpace(*tt.input.Description), product.Description)
			}
		})
	}
}

func TestProductService_PriceRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	loggedIn(t, env, testEmail)

	_, err := env.svc.CreateProduct(ctx, domain.ProductInput{Name: strPtr("Widget"), Price: floatPtr(9.999)})
	require.ErrorIs(t, err, domain.ErrProductPricePrecision)

	created, err := env.svc.CreateProduct(ctx, domain.ProductInput{Name: strPtr("Widget"), Price: floatPtr(9.99)})
	require.NoError(t, err)
	require.Equal(t, 9.99, created.Price)

	created, err = env.svc.CreateProduct(ctx, domain.ProductInput{Name: strPtr("Gizmo"), Price: floatPtr(29.99)})
	require.NoError(t, err)

	got, err := env.svc.GetProduct(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, 29.99, got.Price)
}

func TestProductService_GetProduct(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	loggedIn(t, env, testEmail)

	_, err := env.svc.GetProduct(ctx, "")
	require.ErrorIs(t, err, domain.ErrProductIDRequired)

	got, err := env.svc.GetProduct(ctx, "product_missing")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestProductService_UpdateProduct(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := loggedIn(t, env, testEmail)

	created, err := env.svc.CreateProduct(ctx, domain.ProductInput{Name: strPtr("Widget"), Price: floatPtr(10), Stock: intPtr(2)})
	require.NoError(t, err)

	env.clock.Advance(time.Second)

	updated, err := env.svc.UpdateProduct(ctx, created.ID, domain.ProductInput{Name: strPtr("  Widget v2 "), Price: floatPtr(12.5)})
	require.NoError(t, err)
	require.Equal(t, created.ID, updated.ID)
	require.Equal(t, owner, updated.UserID)
	require.Equal(t, created.CreatedAt, updated.CreatedAt)
	require.True(t, updated.UpdatedAt.After(created.UpdatedAt))
	require.Equal(t, "Widget v2", updated.Name)
	require.Equal(t, 12.5, updated.Price)
	require.Equal(t, 2, updated.Stock)

	tests := []struct {
		name    string
		id      string
		input   domain.ProductInput
		wantErr error
	}{
		{name: "missing id", input: domain.ProductInput{}, wantErr: domain.ErrProductIDRequired},
		{name: "unknown id", id: "product_missing", input: domain.ProductInput{}, wantErr: domain.ErrProductNotFound},
		{name: "three decimals", id: created.ID, input: domain.ProductInput{Price: floatPtr(1.234)}, wantErr: domain.ErrProductPricePrecision},
		{name: "zero price", id: created.ID, input: domain.ProductInput{Price: floatPtr(0)}, wantErr: domain.ErrProductPriceNotPositive},
		{name: "name too long", id: created.ID, input: domain.ProductInput{Name: strPtr(strings.Repeat("x", 101))}, wantErr: domain.ErrProductNameTooLong},
		{name: "blank name", id: created.ID, input: domain.ProductInput{Name: strPtr(" ")}, wantErr: domain.ErrProductNameEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.UpdateProduct(ctx, tt.id, tt.input)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}

	// Failed updates leave the record untouched.
	got, err := env.svc.GetProduct(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "Widget v2", got.Name)
	require.Equal(t, 12.5, got.Price)
}

func TestProductService_OwnershipIsolation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	loggedIn(t, env, "owner@x.com")
	created, err := env.svc.CreateProduct(ctx, domain.ProductInput{Name: strPtr("Secret Widget"), Price: floatPtr(5)})
	require.NoError(t, err)
	require.NoError(t, env.auth.Logout(ctx))

	loggedIn(t, env, "intruder@x.com")

	got, err := env.svc.GetProduct(ctx, created.ID)
	require.NoError(t, err)
	require.Nil(t, got)

	list, err := env.svc.GetProducts(ctx)
	require.NoError(t, err)
	require.Empty(t, list)

	found, err := env.svc.SearchProducts(ctx, strPtr("secret"))
	require.NoError(t, err)
	require.Empty(t, found)

	_, err = env.svc.UpdateProduct(ctx, created.ID, domain.ProductInput{Name: strPtr("Mine now")})
	require.ErrorIs(t, err, domain.ErrProductNotFound)

	require.ErrorIs(t, env.svc.DeleteProduct(ctx, created.ID), domain.ErrProductNotFound)

	n, err := env.svc.ClearAllProducts(ctx)
	require.NoError(t, err)
	require.Zero(t, n)

	// The owner still has it.
	require.NoError(t, env.auth.Logout(ctx))
	_, err = env.auth.Login(ctx, LoginInput{Email: "owner@x.com", Password: testPassword})
	require.NoError(t, err)

	got, err = env.svc.GetProduct(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "Secret Widget", got.Name)
}

func TestProductService_DeleteProduct(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	loggedIn(t, env, testEmail)

	created, err := env.svc.CreateProduct(ctx, domain.ProductInput{Name: strPtr("Widget"), Price: floatPtr(1)})
	require.NoError(t, err)

	require.ErrorIs(t, env.svc.DeleteProduct(ctx, ""), domain.ErrProductIDRequired)
	require.NoError(t, env.svc.DeleteProduct(ctx, created.ID))
	require.ErrorIs(t, env.svc.DeleteProduct(ctx, created.ID), domain.ErrProductNotFound)

	list, err := env.svc.GetProducts(ctx)
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestProductService_SearchProducts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	loggedIn(t, env, testEmail)

	inputs := []domain.ProductInput{
		{Name: strPtr("Red Widget"), Price: floatPtr(1)},
		{Name: strPtr("Blue Gadget"), Description: strPtr("a WIDGET accessory"), Price: floatPtr(2)},
		{Name: strPtr("Lamp"), Category: strPtr("Lighting"), SKU: strPtr("LMP-42"), Price: floatPtr(3)},
	}
	for _, in := range inputs {
		_, err := env.svc.CreateProduct(ctx, in)
		require.NoError(t, err)
	}

	tests := []struct {
		name  string
		query *string
		want  int
	}{
		{name: "empty returns all", query: strPtr(""), want: 3},
		{name: "blank returns all", query: strPtr("   "), want: 3},
		{name: "no match", query: strPtr("zzz-no-match"), want: 0},
		{name: "name and description", query: strPtr("widget"), want: 2},
		{name: "category", query: strPtr("LIGHT"), want: 1},
		{name: "sku", query: strPtr("lmp-4"), want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found, err := env.svc.SearchProducts(ctx, tt.query)
			require.NoError(t, err)
			require.NotNil(t, found)
			require.Len(t, found, tt.want)
		})
	}

	_, err := env.svc.SearchProducts(ctx, nil)
	require.ErrorIs(t, err, ErrSearchQueryRequired)
}

func TestProductService_GetProductStats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	loggedIn(t, env, testEmail)

	stats, err := env.svc.GetProductStats(ctx)
	require.NoError(t, err)
	require.Zero(t, stats.TotalProducts)
	require.Empty(t, stats.Categories)

	inputs := []domain.ProductInput{
		{Name: strPtr("A"), Price: floatPtr(10), Stock: intPtr(2)},
		{Name: strPtr("B"), Price: floatPtr(20), Stock: intPtr(1), Category: strPtr("Tools")},
		{Name: strPtr("C"), Price: floatPtr(30), Category: strPtr("Tools")},
	}
	for _, in := range inputs {
		_, err := env.svc.CreateProduct(ctx, in)
		require.NoError(t, err)
	}

	stats, err = env.svc.GetProductStats(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, stats.TotalProducts)
	require.InDelta(t, 40.0, stats.TotalValue, 1e-9)
	require.InDelta(t, 20.0, stats.AveragePrice, 1e-9)
	require.Equal(t, map[string]int{"General": 1, "Tools": 2}, stats.Categories)
}

func TestProductService_ClearAllProducts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	loggedIn(t, env, testEmail)

	for _, name := range []string{"A", "B", "C"} {
		_, err := env.svc.CreateProduct(ctx, domain.ProductInput{Name: strPtr(name), Price: floatPtr(1)})
		require.NoError(t, err)
	}

	n, err := env.svc.ClearAllProducts(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, n)

	list, err := env.svc.GetProducts(ctx)
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestProductService_StorageErrorsSurface(t *testing.T) {
	ctx := context.Background()
	repo := new(MockProductRepository)
	storeErr := errors.New("database is locked")

	repo.On("ListByOwner", mock.Anything, "user_1").Return(nil, storeErr)
	repo.On("Get", mock.Anything, "product_1", "user_1").Return(nil, storeErr)
	repo.On("Put", mock.Anything, mock.AnythingOfType("*domain.Product")).Return(storeErr)
	repo.On("DeleteByOwner", mock.Anything, "user_1").Return(int64(0), storeErr)

	svc := NewProductService(repo, staticUser{user: &domain.User{ID: "user_1"}}, zerolog.Nop())

	_, err := svc.GetProducts(ctx)
	require.ErrorIs(t, err, ErrInternalError)
	require.NotErrorIs(t, err, domain.ErrValidation)

	_, err = svc.GetProduct(ctx, "product_1")
	require.ErrorIs(t, err, ErrInternalError)

	_, err = svc.CreateProduct(ctx, domain.ProductInput{Name: strPtr("Widget"), Price: floatPtr(1)})
	require.ErrorIs(t, err, ErrInternalError)

	_, err = svc.SearchProducts(ctx, strPtr("x"))
	require.ErrorIs(t, err, ErrInternalError)

	_, err = svc.GetProductStats(ctx)
	require.ErrorIs(t, err, ErrInternalError)

	_, err = svc.ClearAllProducts(ctx)
	require.ErrorIs(t, err, ErrInternalError)

	repo.AssertExpectations(t)
}

func TestProductService_ValidateProduct(t *testing.T) {
	svc := NewProductService(new(MockProductRepository), staticUser{}, zerolog.Nop())

	errs := svc.ValidateProduct(domain.ProductInput{Name: strPtr(""), Price: floatPtr(-1), Stock: intPtr(-2)})
	require.Len(t, errs, 3)
	require.ErrorIs(t, errs[0], domain.ErrProductNameEmpty)
	require.ErrorIs(t, errs[1], domain.ErrProductPriceNotPositive)
	require.ErrorIs(t, errs[2], domain.ErrProductStockNegative)

	require.Empty(t, svc.ValidateProduct(domain.ProductInput{Name: strPtr("ok"), Price: floatPtr(0.01)}))
}
