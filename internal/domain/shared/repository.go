package shared

import (
	"context"
)

// ReadRepository is the read-only capability set. Entities whose services
// never mutate through the generic path (bills are assembled only by the
// sale workflow) are wired against this interface so the restriction is
// checked at compile time.
//
// FindByID returns (nil, nil) when no entity exists under the given ID:
// absence is not an error at this layer, callers decide whether it is.
type ReadRepository[T any] interface {
	FindByID(ctx context.Context, id uint) (*T, error)
	FindAll(ctx context.Context) ([]T, error)
	FindPage(ctx context.Context, page Page) (*Paginated[T], error)
	Count(ctx context.Context) (int64, error)
}

// Repository is the full CRUD capability set
type Repository[T any] interface {
	ReadRepository[T]
	Save(ctx context.Context, entity *T) error
	Update(ctx context.Context, entity *T) error
	Delete(ctx context.Context, id uint) error
}

// Page selects a window of a collection
type Page struct {
	Skip int
	Take int
}

// DefaultPage returns the window used when a request names none
func DefaultPage() Page {
	return Page{Skip: 0, Take: 20}
}

// Normalize clamps the window to sane bounds
func (p Page) Normalize() Page {
	if p.Skip < 0 {
		p.Skip = 0
	}
	if p.Take <= 0 {
		p.Take = DefaultPage().Take
	}
	if p.Take > 100 {
		p.Take = 100
	}
	return p
}

// Paginated represents a paginated result
type Paginated[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Skip  int   `json:"skip"`
	Take  int   `json:"take"`
}

// NewPaginated creates a new paginated result
func NewPaginated[T any](items []T, total int64, page Page) *Paginated[T] {
	return &Paginated[T]{
		Items: items,
		Total: total,
		Skip:  page.Skip,
		Take:  page.Take,
	}
}
