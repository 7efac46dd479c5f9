package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/salesdesk/backend/internal/domain/catalog"
	"github.com/salesdesk/backend/internal/domain/shared"
	"github.com/salesdesk/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormProductRepository implements ProductRepository using GORM
type GormProductRepository struct {
	*GormRepository[catalog.Product, models.ProductModel]
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{
		GormRepository: NewGormRepository(
			db,
			(*models.ProductModel).ToDomain,
			models.ProductModelFromDomain,
		),
		db: db,
	}
}

// FindByName finds a product by its unique name.
// Absence is reported as (nil, nil), not as an error.
func (r *GormProductRepository) FindByName(ctx context.Context, name string) (*catalog.Product, error) {
	var model models.ProductModel
	if err := dbFromContext(ctx, r.db).
		Where("name = ?", strings.TrimSpace(name)).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, classifyStoreError(err)
	}
	return model.ToDomain(), nil
}

// DecrementStock atomically reduces a product's stock, refusing to go below
// zero. The conditional UPDATE makes the check-and-decrement a single store
// operation, so concurrent sales cannot oversell: only one of two competing
// decrements for the last units matches the stock guard.
func (r *GormProductRepository) DecrementStock(ctx context.Context, id uint, quantity int) error {
	if quantity <= 0 {
		return shared.NewValidation("Quantity must be positive").
			WithMeta("requested", quantity)
	}

	result := dbFromContext(ctx, r.db).
		Model(&models.ProductModel{}).
		Where("id = ? AND stock >= ?", id, quantity).
		UpdateColumn("stock", gorm.Expr("stock - ?", quantity))
	if result.Error != nil {
		return classifyStoreError(result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	// Zero rows: either the product is gone or the stock guard refused.
	var current models.ProductModel
	err := dbFromContext(ctx, r.db).
		Select("id", "stock").
		First(&current, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.NewNotFound("Product not found").
			WithMeta("productId", id)
	}
	if err != nil {
		return classifyStoreError(err)
	}
	return shared.NewValidation("Insufficient stock available").
		WithMeta("productId", id).
		WithMeta("requested", quantity).
		WithMeta("available", current.Stock)
}

var _ catalog.ProductRepository = (*GormProductRepository)(nil)
