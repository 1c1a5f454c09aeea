package checkout

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
)

// Upper bounds for a single cart line. Anything larger is a client bug or
// tampering, and would push the minor-unit amount towards int64 overflow.
const (
	MaxLineQty   = 10_000
	MaxLineTotal = 100_000_000
)

var maxLineTotal = decimal.NewFromInt(MaxLineTotal)

// CartItem is one line of the client-side cart
type CartItem struct {
	ProductID string `json:"_id"`
	Name      string `json:"name"`
	Image     string `json:"image,omitempty"`
	Category  string `json:"category,omitempty"`
	Qty       Amount `json:"qty"`
	Price     Amount `json:"price"`
	Total     Amount `json:"total"`
}

// Quantity returns the whole quantity, defaulting to 1 when omitted
func (i CartItem) Quantity() (int64, error) {
	if !i.Qty.IsSet() {
		return 1, nil
	}
	return i.Qty.WholeUnits()
}

// Cart is the set of items submitted for checkout
type Cart struct {
	Items []CartItem
}

// Validate checks the cart shape without pricing it
func (c Cart) Validate() error {
	if len(c.Items) == 0 {
		return ErrEmptyCart
	}
	for idx, item := range c.Items {
		qty, err := item.Quantity()
		if err != nil || qty <= 0 {
			return lineError(idx, item, "quantity must be a positive whole number")
		}
		if qty > MaxLineQty {
			return lineError(idx, item, fmt.Sprintf("quantity cannot exceed %d", MaxLineQty))
		}
		if item.Total.IsSet() {
			total, err := item.Total.WholeUnits()
			if err != nil || total < 0 {
				return lineError(idx, item, "total must be a non-negative number")
			}
			if total > MaxLineTotal {
				return lineError(idx, item, fmt.Sprintf("total cannot exceed %d", MaxLineTotal))
			}
		}
	}
	return nil
}

// TotalQty sums whole quantities; invalid lines count as zero
func (c Cart) TotalQty() int64 {
	var sum int64
	for _, item := range c.Items {
		if qty, err := item.Quantity(); err == nil {
			sum += qty
		}
	}
	return sum
}

// TotalPrice sums whole line totals as submitted by the client
func (c Cart) TotalPrice() int64 {
	var sum int64
	for _, item := range c.Items {
		if total, err := item.Total.WholeUnits(); err == nil {
			sum += total
		}
	}
	return sum
}

// ProductIDs returns the distinct non-empty product references in the cart
func (c Cart) ProductIDs() []string {
	seen := make(map[string]struct{}, len(c.Items))
	ids := make([]string, 0, len(c.Items))
	for _, item := range c.Items {
		id := normalizeProductID(item.ProductID)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// PriceBook maps product IDs to authoritative unit prices
type PriceBook map[string]decimal.Decimal

// Lookup finds the unit price for a product reference
func (b PriceBook) Lookup(productID string) (decimal.Decimal, bool) {
	if b == nil {
		return decimal.Zero, false
	}
	price, ok := b[normalizeProductID(productID)]
	return price, ok
}

// Line is a priced cart line
type Line struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Qty       int64           `json:"qty"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	LineTotal decimal.Decimal `json:"lineTotal"`
	Repriced  bool            `json:"repriced"`
}

// Quote is the priced result of a cart
type Quote struct {
	Lines    []Line
	Total    decimal.Decimal
	TotalQty int64
}

// MinorUnits converts the total into the gateway's smallest currency unit.
// A total that is not positive or does not fit in int64 is ErrInvalidAmount.
func (q Quote) MinorUnits() (int64, error) {
	minor := q.Total.Mul(decimal.NewFromInt(100)).Round(0)
	if !minor.IsPositive() || !minor.BigInt().IsInt64() {
		return 0, ErrInvalidAmount
	}
	return minor.IntPart(), nil
}

// Price computes the amount to charge.
// Lines whose product is in book are charged unit price times quantity;
// all others keep the client total, truncated to whole units.
func Price(cart Cart, book PriceBook) (Quote, error) {
	if err := cart.Validate(); err != nil {
		return Quote{}, err
	}

	quote := Quote{Lines: make([]Line, 0, len(cart.Items)), Total: decimal.Zero}
	for idx, item := range cart.Items {
		qty, _ := item.Quantity()
		line := Line{
			ProductID: strings.TrimSpace(item.ProductID),
			Name:      item.Name,
			Qty:       qty,
		}

		if unit, ok := book.Lookup(item.ProductID); ok {
			line.UnitPrice = unit
			line.LineTotal = unit.Mul(decimal.NewFromInt(qty))
			line.Repriced = true
			if line.LineTotal.GreaterThan(maxLineTotal) {
				return Quote{}, lineError(idx, item, fmt.Sprintf("total cannot exceed %d", MaxLineTotal))
			}
		} else {
			total, err := item.Total.WholeUnits()
			if err != nil {
				return Quote{}, lineError(idx, item, "total is required")
			}
			line.LineTotal = decimal.NewFromInt(total)
			if unit, err := item.Price.Decimal(); err == nil {
				line.UnitPrice = unit
			}
		}

		quote.Lines = append(quote.Lines, line)
		quote.Total = quote.Total.Add(line.LineTotal)
		quote.TotalQty += qty
	}

	if !quote.Total.IsPositive() {
		return Quote{}, ErrInvalidAmount
	}
	return quote, nil
}

func normalizeProductID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

func lineError(idx int, item CartItem, reason string) error {
	label := item.Name
	if label == "" {
		label = fmt.Sprintf("#%d", idx+1)
	}
	return shared.NewDomainError(ErrInvalidCartItem.Code, fmt.Sprintf("Cart item %s: %s", label, reason))
}
