package catalog

import (
	"time"

	"github.com/salesdesk/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// CreateProductRequest represents a request to create a new product.
// Price and Stock are pointers so the binding layer can tell "absent" from a
// legitimate zero.
type CreateProductRequest struct {
	Name  string           `json:"name" binding:"required,min=1,max=200"`
	Price *decimal.Decimal `json:"price" binding:"required"`
	Stock *int             `json:"stock" binding:"required,gte=0"`
}

// UpdateProductRequest represents a partial update; absent fields keep their
// current value
type UpdateProductRequest struct {
	Name  *string          `json:"name" binding:"omitempty,min=1,max=200"`
	Price *decimal.Decimal `json:"price"`
	Stock *int             `json:"stock" binding:"omitempty,gte=0"`
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID        uint            `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// ToProductResponse converts a domain Product to ProductResponse
func ToProductResponse(p *catalog.Product) ProductResponse {
	return ProductResponse{
		ID:        p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Stock:     p.Stock,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// ToProductResponses converts a slice of domain Products to ProductResponses
func ToProductResponses(products []catalog.Product) []ProductResponse {
	responses := make([]ProductResponse, len(products))
	for i, p := range products {
		responses[i] = ToProductResponse(&p)
	}
	return responses
}
