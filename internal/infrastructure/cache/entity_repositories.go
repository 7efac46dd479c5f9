package cache

import (
	"context"

	"github.com/salesdesk/backend/internal/domain/billing"
	"github.com/salesdesk/backend/internal/domain/catalog"
	"github.com/salesdesk/backend/internal/domain/partner"
)

// Entity kinds as they appear in cache keys: the lower-cased entity type
// name. The per-entity constructors hard-wire these so the key grammar
// cannot drift per call site.
const (
	KindProduct  = "product"
	KindCustomer = "customer"
	KindBill     = "bill"
)

// CachedProductRepository decorates a ProductRepository with the cache-aside
// layer. Name lookups have no key in the cache grammar and pass through;
// stock decrements evict the cached product so the next read refetches the
// authoritative stock.
type CachedProductRepository struct {
	*CachedRepository[catalog.Product]
	inner catalog.ProductRepository
}

// NewCachedProductRepository creates the cached decorator for products
func NewCachedProductRepository(inner catalog.ProductRepository, cfg DecoratorConfig) *CachedProductRepository {
	return &CachedProductRepository{
		CachedRepository: NewCachedRepository[catalog.Product](inner, KindProduct, cfg),
		inner:            inner,
	}
}

// FindByName passes through to the store
func (r *CachedProductRepository) FindByName(ctx context.Context, name string) (*catalog.Product, error) {
	return r.inner.FindByName(ctx, name)
}

// DecrementStock delegates the conditional decrement and, on success, evicts
// the stale product entry and collection keys.
func (r *CachedProductRepository) DecrementStock(ctx context.Context, id uint, quantity int) error {
	if err := r.inner.DecrementStock(ctx, id, quantity); err != nil {
		return err
	}
	if err := r.evictEntity(ctx, id); err != nil {
		return err
	}
	return r.evictCollections(ctx)
}

var _ catalog.ProductRepository = (*CachedProductRepository)(nil)

// CachedCustomerRepository decorates a CustomerRepository with the
// cache-aside layer. Email lookups have no key in the cache grammar and pass
// through.
type CachedCustomerRepository struct {
	*CachedRepository[partner.Customer]
	inner partner.CustomerRepository
}

// NewCachedCustomerRepository creates the cached decorator for customers
func NewCachedCustomerRepository(inner partner.CustomerRepository, cfg DecoratorConfig) *CachedCustomerRepository {
	return &CachedCustomerRepository{
		CachedRepository: NewCachedRepository[partner.Customer](inner, KindCustomer, cfg),
		inner:            inner,
	}
}

// FindByEmail passes through to the store
func (r *CachedCustomerRepository) FindByEmail(ctx context.Context, email string) (*partner.Customer, error) {
	return r.inner.FindByEmail(ctx, email)
}

var _ partner.CustomerRepository = (*CachedCustomerRepository)(nil)

// CachedBillRepository decorates the read-only bill repository plus its one
// write path. Save writes through and evicts collections exactly like the
// full decorator does for other entities.
type CachedBillRepository struct {
	*CachedReadRepository[billing.Bill]
	inner billing.BillRepository
}

// NewCachedBillRepository creates the cached decorator for bills
func NewCachedBillRepository(inner billing.BillRepository, cfg DecoratorConfig) *CachedBillRepository {
	return &CachedBillRepository{
		CachedReadRepository: NewCachedReadRepository[billing.Bill](inner, KindBill, cfg),
		inner:                inner,
	}
}

// Save persists the bill through the store, then writes it through to the
// cache and evicts the collection keys.
func (r *CachedBillRepository) Save(ctx context.Context, bill *billing.Bill) error {
	if err := r.inner.Save(ctx, bill); err != nil {
		return err
	}
	return r.Prime(ctx, bill)
}

var _ billing.BillRepository = (*CachedBillRepository)(nil)
