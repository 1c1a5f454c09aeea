package catalog

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/catalog"
)

// UploadProductInput is the product upload form.
// Price accepts either a JSON number or a numeric string.
type UploadProductInput struct {
	Name        string      `json:"name" binding:"required,max=200"`
	Category    string      `json:"category" binding:"max=100"`
	Image       string      `json:"image"`
	Price       json.Number `json:"price" binding:"required"`
	Description string      `json:"description" binding:"max=5000"`
}

// ProductResponse is the product shape the storefront renders
type ProductResponse struct {
	ID          uuid.UUID `json:"_id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Image       string    `json:"image"`
	Price       string    `json:"price"`
	Description string    `json:"description"`
}

// ToProductResponse converts a domain product to its response shape
func ToProductResponse(p *catalog.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Category:    p.Category,
		Image:       p.Image,
		Price:       p.PriceString(),
		Description: p.Description,
	}
}

// ToProductResponses converts a slice of products
func ToProductResponses(products []catalog.Product) []ProductResponse {
	out := make([]ProductResponse, len(products))
	for i := range products {
		out[i] = ToProductResponse(&products[i])
	}
	return out
}
