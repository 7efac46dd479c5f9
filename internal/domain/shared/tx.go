package shared

import (
	"context"
)

// TxManager runs a unit of work inside a single store transaction. The
// transaction travels in the context handed to fn: repository calls made
// with that context join it, and an error returned by fn rolls the whole
// unit back.
type TxManager interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}
