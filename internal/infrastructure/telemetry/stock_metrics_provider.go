// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"

	"gorm.io/gorm"
)

// GormStockMetricsProvider implements StockMetricsProvider with direct
// aggregate queries against the products table.
type GormStockMetricsProvider struct {
	db *gorm.DB
}

// NewGormStockMetricsProvider creates a new GormStockMetricsProvider.
func NewGormStockMetricsProvider(db *gorm.DB) *GormStockMetricsProvider {
	return &GormStockMetricsProvider{db: db}
}

// CountOutOfStock returns the number of products with zero stock.
func (p *GormStockMetricsProvider) CountOutOfStock(ctx context.Context) (int64, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Table("products").
		Where("stock = 0").
		Count(&count).Error

	return count, err
}

// CountBelowStock returns the number of products whose stock is
// positive but below threshold.
func (p *GormStockMetricsProvider) CountBelowStock(ctx context.Context, threshold int) (int64, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Table("products").
		Where("stock > 0 AND stock < ?", threshold).
		Count(&count).Error

	return count, err
}
