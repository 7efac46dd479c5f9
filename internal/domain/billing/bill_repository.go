package billing

import (
	"context"

	"github.com/salesdesk/backend/internal/domain/shared"
)

// BillRepository persists bills. Bills are written exactly once, by the
// sale workflow, so the interface deliberately omits Update and Delete:
// the read-only capability set plus a cascading Save is all there is.
type BillRepository interface {
	shared.ReadRepository[Bill]

	// Save persists the bill and its lines as one cascading write
	Save(ctx context.Context, bill *Bill) error
}
