package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/salesdesk/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// DefaultTTL is the fixed lifetime of every cached entry. The TTL is
// deliberately uniform rather than adaptive: staleness is bounded to one
// hour and the invalidation model stays trivial.
const DefaultTTL = 3600 * time.Second

// Metrics records cache outcomes per entity kind.
// Implementations must be safe for concurrent use.
type Metrics interface {
	Hit(ctx context.Context, kind string)
	Miss(ctx context.Context, kind string)
	Error(ctx context.Context, kind string)
}

type nopMetrics struct{}

func (nopMetrics) Hit(context.Context, string)   {}
func (nopMetrics) Miss(context.Context, string)  {}
func (nopMetrics) Error(context.Context, string) {}

// NopMetrics returns a Metrics that records nothing
func NopMetrics() Metrics {
	return nopMetrics{}
}

// DecoratorConfig configures a cached repository decorator.
type DecoratorConfig struct {
	// Store is the cache tier. Required.
	Store Store
	// TTL overrides DefaultTTL when positive.
	TTL time.Duration
	// Logger is optional; a no-op logger is used when nil.
	Logger *zap.Logger
	// Metrics is optional; outcomes are dropped when nil.
	Metrics Metrics
}

func (c DecoratorConfig) withDefaults() DecoratorConfig {
	if c.TTL <= 0 {
		c.TTL = DefaultTTL
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	if c.Metrics == nil {
		c.Metrics = NopMetrics()
	}
	return c
}

// CachedReadRepository decorates a ReadRepository with cache-aside reads.
//
// The store stays the durability source of truth; the cache is strictly a
// performance layer. Absent entities are never cached, and neither are empty
// collections, so "data unavailable" and "data absent" stay distinguishable.
// Any cache failure — connectivity, encoding, decoding — surfaces as a
// Cache-kind error instead of silently falling back to the store.
type CachedReadRepository[T shared.Entity] struct {
	inner   shared.ReadRepository[T]
	store   Store
	keys    Keyspace
	ttl     time.Duration
	logger  *zap.Logger
	metrics Metrics
}

// NewCachedReadRepository decorates inner with cache-aside reads under the
// given entity kind.
func NewCachedReadRepository[T shared.Entity](inner shared.ReadRepository[T], kind string, cfg DecoratorConfig) *CachedReadRepository[T] {
	cfg = cfg.withDefaults()
	return &CachedReadRepository[T]{
		inner:   inner,
		store:   cfg.Store,
		keys:    NewKeyspace(kind),
		ttl:     cfg.TTL,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
	}
}

// Keys exposes the keyspace this decorator reads and writes
func (r *CachedReadRepository[T]) Keys() Keyspace {
	return r.keys
}

// FindByID serves the entity from cache when possible. On a miss the store
// is read and, when the entity exists, written through under {kind}:{id}.
// Absence is reported as (nil, nil) and is not cached.
func (r *CachedReadRepository[T]) FindByID(ctx context.Context, id uint) (*T, error) {
	key := r.keys.Entity(id)

	entity, err := getCached[T](ctx, r, key)
	if err != nil {
		return nil, err
	}
	if entity != nil {
		return entity, nil
	}

	entity, err = r.inner.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, nil
	}
	if err := r.put(ctx, key, entity); err != nil {
		return nil, err
	}
	return entity, nil
}

// FindAll serves the full collection from cache when possible. Empty result
// sets are not cached, so the first record created after an empty read
// becomes visible immediately.
func (r *CachedReadRepository[T]) FindAll(ctx context.Context) ([]T, error) {
	key := r.keys.All()

	cached, err := getCached[[]T](ctx, r, key)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		return *cached, nil
	}

	items, err := r.inner.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return items, nil
	}
	if err := r.put(ctx, key, items); err != nil {
		return nil, err
	}
	return items, nil
}

// FindPage serves one pagination window from cache when possible. The window
// is normalized before the key is built so the key always names the window
// that actually ran. Windows with no items are not cached.
func (r *CachedReadRepository[T]) FindPage(ctx context.Context, page shared.Page) (*shared.Paginated[T], error) {
	page = page.Normalize()
	key := r.keys.Page(page)

	cached, err := getCached[shared.Paginated[T]](ctx, r, key)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		return cached, nil
	}

	result, err := r.inner.FindPage(ctx, page)
	if err != nil {
		return nil, err
	}
	if result == nil || len(result.Items) == 0 {
		return result, nil
	}
	if err := r.put(ctx, key, result); err != nil {
		return nil, err
	}
	return result, nil
}

// Count is a pass-through: counts have no key in the cache grammar
func (r *CachedReadRepository[T]) Count(ctx context.Context) (int64, error) {
	return r.inner.Count(ctx)
}

// Prime writes an already persisted entity into the cache and evicts the
// collection keys, without touching the store. The sale workflow uses it to
// publish a bill committed outside the decorated path.
func (r *CachedReadRepository[T]) Prime(ctx context.Context, entity *T) error {
	if err := r.put(ctx, r.keys.Entity((*entity).GetID()), entity); err != nil {
		return err
	}
	return r.evictCollections(ctx)
}

// Evict drops an entity's cached entry and the collection keys without
// touching the store. Prime's counterpart: the sale workflow uses it after
// commit for products whose stock changed inside the transaction.
func (r *CachedReadRepository[T]) Evict(ctx context.Context, id uint) error {
	if err := r.evictEntity(ctx, id); err != nil {
		return err
	}
	return r.evictCollections(ctx)
}

// getCached reads and decodes one cached value. (nil, nil) means miss.
func getCached[V any, T shared.Entity](ctx context.Context, r *CachedReadRepository[T], key string) (*V, error) {
	data, err := r.store.Get(ctx, key)
	switch {
	case err == nil:
		var value V
		if err := json.Unmarshal(data, &value); err != nil {
			r.metrics.Error(ctx, r.keys.Kind())
			r.logger.Error("failed to decode cached value",
				zap.String("key", key),
				zap.Error(err))
			return nil, shared.Wrap(shared.KindCache, "Failed to decode cached value", err).
				WithMeta("key", key)
		}
		r.metrics.Hit(ctx, r.keys.Kind())
		return &value, nil

	case errors.Is(err, ErrCacheMiss):
		r.metrics.Miss(ctx, r.keys.Kind())
		return nil, nil

	default:
		r.metrics.Error(ctx, r.keys.Kind())
		r.logger.Error("cache read failed",
			zap.String("key", key),
			zap.Error(err))
		return nil, shared.Wrap(shared.KindCache, "Cache read failed", err).
			WithMeta("key", key)
	}
}

// put encodes value and stores it under key with the fixed TTL
func (r *CachedReadRepository[T]) put(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		r.metrics.Error(ctx, r.keys.Kind())
		return shared.Wrap(shared.KindCache, "Failed to encode value for cache", err).
			WithMeta("key", key)
	}
	if err := r.store.Set(ctx, key, data, r.ttl); err != nil {
		r.metrics.Error(ctx, r.keys.Kind())
		r.logger.Error("cache write failed",
			zap.String("key", key),
			zap.Error(err))
		return shared.Wrap(shared.KindCache, "Cache write failed", err).
			WithMeta("key", key)
	}
	return nil
}

// evictEntity removes the single-entity key
func (r *CachedReadRepository[T]) evictEntity(ctx context.Context, id uint) error {
	if err := r.store.Delete(ctx, r.keys.Entity(id)); err != nil {
		r.metrics.Error(ctx, r.keys.Kind())
		return shared.Wrap(shared.KindCache, "Cache eviction failed", err).
			WithMeta("key", r.keys.Entity(id))
	}
	return nil
}

// evictCollections removes the full-collection key and every pagination
// window. Writes call this so collection reads never serve pre-write state
// for a full TTL.
func (r *CachedReadRepository[T]) evictCollections(ctx context.Context) error {
	if err := r.store.Delete(ctx, r.keys.All()); err != nil {
		r.metrics.Error(ctx, r.keys.Kind())
		return shared.Wrap(shared.KindCache, "Cache eviction failed", err).
			WithMeta("key", r.keys.All())
	}
	if err := r.store.DeleteByPrefix(ctx, r.keys.PagePrefix()); err != nil {
		r.metrics.Error(ctx, r.keys.Kind())
		return shared.Wrap(shared.KindCache, "Cache eviction failed", err).
			WithMeta("key", r.keys.PagePrefix())
	}
	return nil
}

// CachedRepository adds write-through semantics on top of
// CachedReadRepository for full-CRUD entities.
type CachedRepository[T shared.Entity] struct {
	*CachedReadRepository[T]
	inner shared.Repository[T]
}

// NewCachedRepository decorates inner with cache-aside reads and
// write-through writes under the given entity kind.
func NewCachedRepository[T shared.Entity](inner shared.Repository[T], kind string, cfg DecoratorConfig) *CachedRepository[T] {
	return &CachedRepository[T]{
		CachedReadRepository: NewCachedReadRepository[T](inner, kind, cfg),
		inner:                inner,
	}
}

// Save persists through the store, then writes the entity through to the
// cache and evicts the now stale collection keys.
func (r *CachedRepository[T]) Save(ctx context.Context, entity *T) error {
	if err := r.inner.Save(ctx, entity); err != nil {
		return err
	}
	if err := r.put(ctx, r.keys.Entity((*entity).GetID()), entity); err != nil {
		return err
	}
	return r.evictCollections(ctx)
}

// Update persists through the store, then refreshes the cached entity and
// evicts the collection keys.
func (r *CachedRepository[T]) Update(ctx context.Context, entity *T) error {
	if err := r.inner.Update(ctx, entity); err != nil {
		return err
	}
	if err := r.put(ctx, r.keys.Entity((*entity).GetID()), entity); err != nil {
		return err
	}
	return r.evictCollections(ctx)
}

// Delete removes through the store, then evicts the entity and collection
// keys. A delete the store refused (NotFound) does not touch the cache.
func (r *CachedRepository[T]) Delete(ctx context.Context, id uint) error {
	if err := r.inner.Delete(ctx, id); err != nil {
		return err
	}
	if err := r.evictEntity(ctx, id); err != nil {
		return err
	}
	return r.evictCollections(ctx)
}

var _ shared.Repository[shared.BaseEntity] = (*CachedRepository[shared.BaseEntity])(nil)
