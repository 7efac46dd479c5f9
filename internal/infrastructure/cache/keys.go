package cache

import (
	"fmt"
	"strings"

	"github.com/salesdesk/backend/internal/domain/shared"
)

// Keyspace builds the cache keys for one entity kind. The grammar is fixed:
//
//	{kind}:{id}
//	{kind}:all
//	{kind}:pagination:skip={n}:take={m}
//
// where kind is the lower-cased entity type name. Readers and writers must
// agree on these shapes byte for byte, so nothing outside this type
// concatenates cache keys.
type Keyspace struct {
	kind string
}

// NewKeyspace creates the keyspace for an entity kind
func NewKeyspace(kind string) Keyspace {
	return Keyspace{kind: strings.ToLower(strings.TrimSpace(kind))}
}

// Kind returns the lower-cased entity kind
func (k Keyspace) Kind() string {
	return k.kind
}

// Entity returns the key caching a single entity
func (k Keyspace) Entity(id uint) string {
	return fmt.Sprintf("%s:%d", k.kind, id)
}

// All returns the key caching the full collection
func (k Keyspace) All() string {
	return k.kind + ":all"
}

// Page returns the key caching one pagination window
func (k Keyspace) Page(page shared.Page) string {
	return fmt.Sprintf("%s:pagination:skip=%d:take=%d", k.kind, page.Skip, page.Take)
}

// PagePrefix returns the shared prefix of every pagination key, used to
// evict all cached windows at once.
func (k Keyspace) PagePrefix() string {
	return k.kind + ":pagination:"
}
