// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// BusinessMetrics tracks the domain signals of the sales backend: sale
// volume and value, receipt delivery outcomes, cache effectiveness and
// catalog stock health.
type BusinessMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	saleCreatedTotal     *Counter
	saleAmountTotal      *Counter
	receiptDeliveryTotal *Counter
	cacheRequestsTotal   *Counter

	// Gauge metrics (point-in-time values)
	productsOutOfStock *Gauge
	productsLowStock   *Gauge

	// Periodic collector
	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	stockProvider     StockMetricsProvider
	lowStockThreshold int
}

// StockMetricsProvider supplies catalog stock aggregates for periodic
// collection. The interface keeps the telemetry layer off the catalog
// domain.
type StockMetricsProvider interface {
	// CountOutOfStock returns the number of products with zero stock.
	CountOutOfStock(ctx context.Context) (int64, error)

	// CountBelowStock returns the number of products whose stock is
	// positive but below threshold.
	CountBelowStock(ctx context.Context, threshold int) (int64, error)
}

// DefaultLowStockThreshold is used when the config leaves the
// threshold unset.
const DefaultLowStockThreshold = 5

// BusinessMetricsConfig holds configuration for business metrics.
type BusinessMetricsConfig struct {
	Meter             metric.Meter
	Logger            *zap.Logger
	CollectInterval   time.Duration // Default: 5 minutes
	StockProvider     StockMetricsProvider
	LowStockThreshold int // Default: DefaultLowStockThreshold
}

// NewBusinessMetrics creates a new BusinessMetrics instance.
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	threshold := cfg.LowStockThreshold
	if threshold <= 0 {
		threshold = DefaultLowStockThreshold
	}

	bm := &BusinessMetrics{
		meter:             cfg.Meter,
		logger:            logger,
		stopChan:          make(chan struct{}),
		stockProvider:     cfg.StockProvider,
		lowStockThreshold: threshold,
	}

	var err error

	bm.saleCreatedTotal, err = NewCounter(
		cfg.Meter,
		"sales_created_total",
		"Total number of sales recorded",
		"{sales}",
	)
	if err != nil {
		return nil, err
	}

	bm.saleAmountTotal, err = NewCounter(
		cfg.Meter,
		"sales_amount_total",
		"Total sale amount in cents",
		"{cents}",
	)
	if err != nil {
		return nil, err
	}

	bm.receiptDeliveryTotal, err = NewCounter(
		cfg.Meter,
		"receipt_delivery_total",
		"Receipt delivery steps by stage and outcome",
		"{deliveries}",
	)
	if err != nil {
		return nil, err
	}

	bm.cacheRequestsTotal, err = NewCounter(
		cfg.Meter,
		"cache_requests_total",
		"Entity cache lookups by kind and result",
		"{requests}",
	)
	if err != nil {
		return nil, err
	}

	bm.productsOutOfStock, err = NewGauge(
		cfg.Meter,
		"catalog_products_out_of_stock",
		"Number of products with zero stock",
		"{products}",
	)
	if err != nil {
		return nil, err
	}

	bm.productsLowStock, err = NewGauge(
		cfg.Meter,
		"catalog_products_low_stock",
		"Number of products below the low stock threshold",
		"{products}",
	)
	if err != nil {
		return nil, err
	}

	return bm, nil
}

// =============================================================================
// Sale Metrics
// =============================================================================

// SaleChannel labels how a sale entered the system.
type SaleChannel string

const (
	SaleChannelDirect  SaleChannel = "direct"
	SaleChannelByEmail SaleChannel = "by_email"
)

// RecordSaleCreated records a committed sale.
func (bm *BusinessMetrics) RecordSaleCreated(ctx context.Context, channel SaleChannel) {
	bm.saleCreatedTotal.Inc(ctx,
		AttrSaleChannel.String(string(channel)),
	)
}

// RecordSaleAmount adds a sale total to the amount counter. The amount
// is in cents.
func (bm *BusinessMetrics) RecordSaleAmount(ctx context.Context, channel SaleChannel, amountCents int64) {
	bm.saleAmountTotal.Add(ctx, amountCents,
		AttrSaleChannel.String(string(channel)),
	)
}

// RecordSale records both the sale count and its total amount.
func (bm *BusinessMetrics) RecordSale(ctx context.Context, channel SaleChannel, total decimal.Decimal) {
	bm.RecordSaleCreated(ctx, channel)

	amountCents := total.Mul(decimal.NewFromInt(100)).IntPart()
	bm.RecordSaleAmount(ctx, channel, amountCents)
}

// =============================================================================
// Receipt Delivery Metrics
// =============================================================================

// ReceiptStage labels the post-sale delivery step being recorded.
type ReceiptStage string

const (
	ReceiptStageRender ReceiptStage = "render"
	ReceiptStageUpload ReceiptStage = "upload"
	ReceiptStageEmail  ReceiptStage = "email"
)

// RecordReceiptDelivery records the outcome of one receipt delivery
// stage. Failed stages surface as response warnings, so this counter is
// where their rate becomes visible.
func (bm *BusinessMetrics) RecordReceiptDelivery(ctx context.Context, stage ReceiptStage, succeeded bool) {
	outcome := "ok"
	if !succeeded {
		outcome = "failed"
	}
	bm.receiptDeliveryTotal.Inc(ctx,
		AttrReceiptStage.String(string(stage)),
		AttrOutcome.String(outcome),
	)
}

// =============================================================================
// Cache Metrics
// =============================================================================

// Hit implements the cache metrics hook for cache hits.
func (bm *BusinessMetrics) Hit(ctx context.Context, kind string) {
	bm.recordCacheRequest(ctx, kind, "hit")
}

// Miss implements the cache metrics hook for cache misses.
func (bm *BusinessMetrics) Miss(ctx context.Context, kind string) {
	bm.recordCacheRequest(ctx, kind, "miss")
}

// Error implements the cache metrics hook for cache failures.
func (bm *BusinessMetrics) Error(ctx context.Context, kind string) {
	bm.recordCacheRequest(ctx, kind, "error")
}

func (bm *BusinessMetrics) recordCacheRequest(ctx context.Context, kind, result string) {
	bm.cacheRequestsTotal.Inc(ctx,
		AttrCacheKind.String(kind),
		AttrCacheResult.String(result),
	)
}

// =============================================================================
// Periodic Collection
// =============================================================================

// StartPeriodicCollection starts periodic collection of the stock
// gauges. Non-blocking; use Stop() to stop collection.
func (bm *BusinessMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	bm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}

		go bm.runPeriodicCollection(ctx, interval)
	})
}

func (bm *BusinessMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Collect immediately on start
	bm.collectStockMetrics(ctx)

	for {
		select {
		case <-bm.stopChan:
			bm.logger.Info("Stopping periodic business metrics collection")
			return
		case <-ctx.Done():
			bm.logger.Info("Context cancelled, stopping periodic business metrics collection")
			return
		case <-ticker.C:
			bm.collectStockMetrics(ctx)
		}
	}
}

func (bm *BusinessMetrics) collectStockMetrics(ctx context.Context) {
	if bm.stockProvider == nil {
		bm.logger.Debug("No stock provider configured, skipping stock metrics collection")
		return
	}

	outOfStock, err := bm.stockProvider.CountOutOfStock(ctx)
	if err != nil {
		bm.logger.Warn("Failed to count out-of-stock products", zap.Error(err))
	} else {
		bm.productsOutOfStock.Record(ctx, outOfStock)
	}

	lowStock, err := bm.stockProvider.CountBelowStock(ctx, bm.lowStockThreshold)
	if err != nil {
		bm.logger.Warn("Failed to count low-stock products", zap.Error(err))
	} else {
		bm.productsLowStock.Record(ctx, lowStock)
	}
}

// Stop stops the periodic collection.
func (bm *BusinessMetrics) Stop() {
	bm.stopOnce.Do(func() {
		close(bm.stopChan)
	})
}

// =============================================================================
// Error Types
// =============================================================================

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewBusinessMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
