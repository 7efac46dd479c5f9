package partner

import (
	"context"

	"github.com/salesdesk/backend/internal/domain/shared"
)

// CustomerRepository defines the interface for customer persistence
type CustomerRepository interface {
	shared.Repository[Customer]

	// FindByEmail finds a customer by email (lower-cased before matching).
	// Returns (nil, nil) when no customer carries the email.
	FindByEmail(ctx context.Context, email string) (*Customer, error)
}
