package catalog

import (
	"context"

	"github.com/salesdesk/backend/internal/domain/shared"
)

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	shared.Repository[Product]

	// FindByName finds a product by its unique name.
	// Returns (nil, nil) when no product carries the name.
	FindByName(ctx context.Context, name string) (*Product, error)

	// DecrementStock atomically reduces a product's stock by quantity,
	// refusing to go below zero. It reports NotFound when the product does
	// not exist and a Validation error when the remaining stock is
	// insufficient.
	DecrementStock(ctx context.Context, id uint, quantity int) error
}
