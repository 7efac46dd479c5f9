package persistence

import (
	"context"
	"errors"

	"github.com/salesdesk/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// repoSettings holds per-repository query tuning
type repoSettings struct {
	preloads []string
	order    string
}

// RepositoryOption customizes query behavior of a generic repository
type RepositoryOption func(*repoSettings)

// WithPreload adds an association to load on every read
func WithPreload(association string) RepositoryOption {
	return func(s *repoSettings) {
		s.preloads = append(s.preloads, association)
	}
}

// WithOrder sets the ordering applied to collection reads
func WithOrder(order string) RepositoryOption {
	return func(s *repoSettings) {
		s.order = order
	}
}

// GormReadRepository implements the read-only capability set for one entity
// type T persisted through model type M. The mapper functions carry the
// domain/model translation; everything else is uniform across entities.
//
// All reads honor a transaction carried in the context.
type GormReadRepository[T any, M any] struct {
	db       *gorm.DB
	toDomain func(*M) *T
	settings repoSettings
}

// NewGormReadRepository creates a read-only repository for T backed by M
func NewGormReadRepository[T any, M any](db *gorm.DB, toDomain func(*M) *T, opts ...RepositoryOption) *GormReadRepository[T, M] {
	r := &GormReadRepository[T, M]{
		db:       db,
		toDomain: toDomain,
		settings: repoSettings{order: "id"},
	}
	for _, opt := range opts {
		opt(&r.settings)
	}
	return r
}

// handle returns the query handle for ctx with preloads applied
func (r *GormReadRepository[T, M]) handle(ctx context.Context) *gorm.DB {
	tx := dbFromContext(ctx, r.db)
	for _, preload := range r.settings.preloads {
		tx = tx.Preload(preload)
	}
	return tx
}

// FindByID finds an entity by its ID.
// Absence is reported as (nil, nil), not as an error.
func (r *GormReadRepository[T, M]) FindByID(ctx context.Context, id uint) (*T, error) {
	var model M
	if err := r.handle(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, classifyStoreError(err)
	}
	return r.toDomain(&model), nil
}

// FindAll returns every entity, ordered by ID
func (r *GormReadRepository[T, M]) FindAll(ctx context.Context) ([]T, error) {
	var models []M
	if err := r.handle(ctx).Order(r.settings.order).Find(&models).Error; err != nil {
		return nil, classifyStoreError(err)
	}
	return r.mapAll(models), nil
}

// FindPage returns one window of the collection together with the total count
func (r *GormReadRepository[T, M]) FindPage(ctx context.Context, page shared.Page) (*shared.Paginated[T], error) {
	page = page.Normalize()

	total, err := r.Count(ctx)
	if err != nil {
		return nil, err
	}

	var models []M
	if err := r.handle(ctx).
		Order(r.settings.order).
		Offset(page.Skip).
		Limit(page.Take).
		Find(&models).Error; err != nil {
		return nil, classifyStoreError(err)
	}

	return shared.NewPaginated(r.mapAll(models), total, page), nil
}

// Count returns the number of persisted entities
func (r *GormReadRepository[T, M]) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := dbFromContext(ctx, r.db).Model(new(M)).Count(&count).Error; err != nil {
		return 0, classifyStoreError(err)
	}
	return count, nil
}

func (r *GormReadRepository[T, M]) mapAll(models []M) []T {
	entities := make([]T, 0, len(models))
	for i := range models {
		entities = append(entities, *r.toDomain(&models[i]))
	}
	return entities
}

// GormRepository adds the write capability set on top of GormReadRepository.
type GormRepository[T any, M any] struct {
	*GormReadRepository[T, M]
	toModel func(*T) *M
}

// NewGormRepository creates a full CRUD repository for T backed by M
func NewGormRepository[T any, M any](db *gorm.DB, toDomain func(*M) *T, toModel func(*T) *M, opts ...RepositoryOption) *GormRepository[T, M] {
	return &GormRepository[T, M]{
		GormReadRepository: NewGormReadRepository[T, M](db, toDomain, opts...),
		toModel:            toModel,
	}
}

// Save inserts the entity and writes the store-assigned identity and
// timestamps back into it.
func (r *GormRepository[T, M]) Save(ctx context.Context, entity *T) error {
	model := r.toModel(entity)
	if err := dbFromContext(ctx, r.db).Create(model).Error; err != nil {
		return classifyStoreError(err)
	}
	*entity = *r.toDomain(model)
	return nil
}

// Update persists every column of an existing entity.
// Updating an entity that no longer exists reports NotFound.
func (r *GormRepository[T, M]) Update(ctx context.Context, entity *T) error {
	model := r.toModel(entity)
	result := dbFromContext(ctx, r.db).
		Model(model).
		Select("*").
		Omit("id", "created_at").
		Updates(model)
	if result.Error != nil {
		return classifyStoreError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFound("")
	}
	return nil
}

// Delete removes the entity with the given ID.
// Deleting an entity that does not exist reports NotFound.
func (r *GormRepository[T, M]) Delete(ctx context.Context, id uint) error {
	result := dbFromContext(ctx, r.db).Delete(new(M), "id = ?", id)
	if result.Error != nil {
		return classifyStoreError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFound("")
	}
	return nil
}
