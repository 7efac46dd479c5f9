// Package storage provides object storage implementations for receipt files.
package storage

import "context"

// ObjectStorage is the narrow contract the sale workflow depends on: put
// named bytes with a content type and get back a stable location for them.
type ObjectStorage interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
}
