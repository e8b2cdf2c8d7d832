package domain

import (
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	// MaxProductNameLength is the maximum length of a product name.
	MaxProductNameLength = 100

	// MaxProductDescriptionLength is the maximum length of a product description.
	MaxProductDescriptionLength = 500

	// MaxProductPrice is the highest accepted unit price.
	MaxProductPrice = 999999.99

	// MaxPriceDecimals is the number of decimal places a price may carry.
	MaxPriceDecimals = 2

	// DefaultCategory is assigned to products created without a category.
	DefaultCategory = "General"
)

// Product is an inventory item owned by exactly one user.
type Product struct {
	// ID is the unique identifier for the product (product_<uuid>).
	ID string `json:"id"`

	// UserID is the owner. It is set on creation and never changes.
	UserID string `json:"userId"`

	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	ImageURL    string  `json:"imageUrl"`
	SKU         string  `json:"sku"`
	Stock       int     `json:"stock"`
	IsActive    bool    `json:"isActive"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ProductInput carries the fields of a create or update request.
// Nil pointers mean the field was not supplied.
type ProductInput struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Category    *string  `json:"category,omitempty"`
	ImageURL    *string  `json:"imageUrl,omitempty"`
	SKU         *string  `json:"sku,omitempty"`
	Stock       *int     `json:"stock,omitempty"`
	IsActive    *bool    `json:"isActive,omitempty"`
}

// NewProduct builds a product for the owner from validated input.
// Name and description are trimmed; missing optional fields get their defaults.
func NewProduct(id, ownerID string, in ProductInput) *Product {
	now := time.Now().UTC()
	p := &Product{
		ID:        id,
		UserID:    ownerID,
		Category:  DefaultCategory,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	p.apply(in)
	if p.Category == "" {
		p.Category = DefaultCategory
	}
	return p
}

// Merge returns a copy of the product with the supplied input fields applied.
// ID, UserID and CreatedAt are carried over unchanged; UpdatedAt is left for
// the caller to stamp.
func (p *Product) Merge(in ProductInput) *Product {
	cp := *p
	cp.apply(in)
	return &cp
}

func (p *Product) apply(in ProductInput) {
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		p.Description = strings.TrimSpace(*in.Description)
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.Category != nil {
		p.Category = *in.Category
	}
	if in.ImageURL != nil {
		p.ImageURL = *in.ImageURL
	}
	if in.SKU != nil {
		p.SKU = *in.SKU
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
}

// Input returns the product's fields as a fully populated ProductInput.
// It is used to re-validate a merged record with the same rules as creation.
func (p *Product) Input() ProductInput {
	return ProductInput{
		Name:        &p.Name,
		Description: &p.Description,
		Price:       &p.Price,
		Category:    &p.Category,
		ImageURL:    &p.ImageURL,
		SKU:         &p.SKU,
		Stock:       &p.Stock,
		IsActive:    &p.IsActive,
	}
}

// MergedInput returns the product's fields with the supplied input fields
// taking precedence. Update validation runs on the result.
func (p *Product) MergedInput(in ProductInput) ProductInput {
	merged := p.Input()
	if in.Name != nil {
		merged.Name = in.Name
	}
	if in.Description != nil {
		merged.Description = in.Description
	}
	if in.Price != nil {
		merged.Price = in.Price
	}
	if in.Category != nil {
		merged.Category = in.Category
	}
	if in.ImageURL != nil {
		merged.ImageURL = in.ImageURL
	}
	if in.SKU != nil {
		merged.SKU = in.SKU
	}
	if in.Stock != nil {
		merged.Stock = in.Stock
	}
	if in.IsActive != nil {
		merged.IsActive = in.IsActive
	}
	return merged
}

// Value returns the inventory value of the product (price times stock).
func (p *Product) Value() float64 {
	return p.Price * float64(p.Stock)
}

// Matches reports whether the lowercased query occurs in the product's
// name, description, category or SKU.
func (p *Product) Matches(lowerQuery string) bool {
	for _, field := range []string{p.Name, p.Description, p.Category, p.SKU} {
		if field != "" && strings.Contains(strings.ToLower(field), lowerQuery) {
			return true
		}
	}
	return false
}

// ValidateProduct checks the input against the product rules and returns
// every violation in rule order. Callers that report a single error use the
// first element.
func ValidateProduct(in ProductInput) []error {
	var errs []error

	switch {
	case in.Name == nil:
		errs = append(errs, ErrProductNameRequired)
	case strings.TrimSpace(*in.Name) == "":
		errs = append(errs, ErrProductNameEmpty)
	case len([]rune(*in.Name)) > MaxProductNameLength:
		errs = append(errs, ErrProductNameTooLong)
	}

	if in.Description != nil && len([]rune(*in.Description)) > MaxProductDescriptionLength {
		errs = append(errs, ErrProductDescriptionTooLong)
	}

	switch {
	case in.Price == nil:
		errs = append(errs, ErrProductPriceRequired)
	case math.IsNaN(*in.Price) || math.IsInf(*in.Price, 0):
		errs = append(errs, ErrProductPriceInvalid)
	case *in.Price <= 0:
		errs = append(errs, ErrProductPriceNotPositive)
	case *in.Price > MaxProductPrice:
		errs = append(errs, ErrProductPriceTooHigh)
	case decimalPlaces(*in.Price) > MaxPriceDecimals:
		errs = append(errs, ErrProductPricePrecision)
	}

	if in.Stock != nil && *in.Stock < 0 {
		errs = append(errs, ErrProductStockNegative)
	}

	return errs
}

// decimalPlaces counts the digits after the decimal point in the shortest
// representation that round-trips the value, so 29.99 has two and 9.999 three.
func decimalPlaces(v float64) int {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if _, frac, ok := strings.Cut(s, "."); ok {
		return len(frac)
	}
	return 0
}

// ProductStats aggregates a user's products.
type ProductStats struct {
	TotalProducts int            `json:"totalProducts"`
	TotalValue    float64        `json:"totalValue"`
	Categories    map[string]int `json:"categories"`
	AveragePrice  float64        `json:"averagePrice"`
}

// ComputeProductStats derives count, inventory value, category histogram and
// average price. Products without a category are counted under DefaultCategory.
func ComputeProductStats(products []*Product) *ProductStats {
	stats := &ProductStats{Categories: make(map[string]int)}
	if len(products) == 0 {
		return stats
	}

	var totalPrice float64
	for _, p := range products {
		stats.TotalValue += p.Value()
		totalPrice += p.Price

		category := p.Category
		if category == "" {
			category = DefaultCategory
		}
		stats.Categories[category]++
	}

	stats.TotalProducts = len(products)
	stats.AveragePrice = totalPrice / float64(len(products))
	return stats
}
