package catalog

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
)

// Prices are kept in major currency units with two fractional digits.
const priceScale = 2

// Product is an item offered in the storefront
type Product struct {
	shared.BaseEntity
	Name        string
	Category    string
	Image       string
	Price       decimal.Decimal
	Description string
}

// NewProduct creates a product from raw form values.
// price is a decimal string as submitted by the upload form.
func NewProduct(name, category, image, price, description string) (*Product, error) {
	name = strings.TrimSpace(name)
	if err := validateProductName(name); err != nil {
		return nil, err
	}

	amount, err := ParsePrice(price)
	if err != nil {
		return nil, err
	}

	return &Product{
		BaseEntity:  shared.NewBaseEntity(),
		Name:        name,
		Category:    NormalizeCategory(category),
		Image:       image,
		Price:       amount,
		Description: strings.TrimSpace(description),
	}, nil
}

// SetImage replaces the image reference
func (p *Product) SetImage(image string) {
	p.Image = image
	p.Touch()
}

// PriceString renders the price the way the storefront displays it
func (p *Product) PriceString() string {
	return p.Price.StringFixed(priceScale)
}

// ParsePrice parses a non-negative decimal price
func ParsePrice(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, shared.NewDomainError("INVALID_PRICE", "Price cannot be empty")
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, shared.NewDomainError("INVALID_PRICE", "Price must be a number")
	}
	if amount.IsNegative() {
		return decimal.Zero, shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}
	return amount.Round(priceScale), nil
}

func validateProductName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_PRODUCT_NAME", "Product name cannot be empty")
	}
	if len([]rune(name)) > 200 {
		return shared.NewDomainError("INVALID_PRODUCT_NAME", "Product name cannot exceed 200 characters")
	}
	return nil
}
