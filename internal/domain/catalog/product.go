package catalog

import (
	"strings"
	"time"

	"github.com/salesdesk/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Product represents a sellable item in the catalog.
// It is the aggregate root for catalog operations.
type Product struct {
	shared.BaseEntity
	Name  string
	Price decimal.Decimal
	Stock int
}

// NewProduct creates a new product
func NewProduct(name string, price decimal.Decimal, stock int) (*Product, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := validatePrice(price); err != nil {
		return nil, err
	}
	if err := validateStock(stock); err != nil {
		return nil, err
	}

	return &Product{
		BaseEntity: shared.NewBaseEntity(),
		Name:       strings.TrimSpace(name),
		Price:      price,
		Stock:      stock,
	}, nil
}

// Rename updates the product name
func (p *Product) Rename(name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	p.Name = strings.TrimSpace(name)
	p.UpdatedAt = time.Now()
	return nil
}

// SetPrice updates the catalog price
func (p *Product) SetPrice(price decimal.Decimal) error {
	if err := validatePrice(price); err != nil {
		return err
	}
	p.Price = price
	p.UpdatedAt = time.Now()
	return nil
}

// SetStock replaces the available stock (admin path)
func (p *Product) SetStock(stock int) error {
	if err := validateStock(stock); err != nil {
		return err
	}
	p.Stock = stock
	p.UpdatedAt = time.Now()
	return nil
}

// CanFulfill reports whether the available stock covers the quantity
func (p *Product) CanFulfill(quantity int) bool {
	return quantity > 0 && p.Stock >= quantity
}

// Decrement reduces the available stock. The store-level conditional
// decrement is authoritative under concurrency; this keeps the in-memory
// aggregate consistent with it.
func (p *Product) Decrement(quantity int) error {
	if quantity <= 0 {
		return shared.NewValidation("Quantity must be positive")
	}
	if p.Stock < quantity {
		return shared.NewValidation("Insufficient stock available").
			WithMeta("productId", p.ID).
			WithMeta("requested", quantity).
			WithMeta("available", p.Stock)
	}
	p.Stock -= quantity
	p.UpdatedAt = time.Now()
	return nil
}

func validateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewValidation("Product name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewValidation("Product name cannot exceed 200 characters")
	}
	return nil
}

func validatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return shared.NewValidation("Product price cannot be negative")
	}
	return nil
}

func validateStock(stock int) error {
	if stock < 0 {
		return shared.NewValidation("Product stock cannot be negative")
	}
	return nil
}
