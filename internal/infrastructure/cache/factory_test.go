package cache

import (
	"testing"

	"github.com/salesdesk/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unreachableRedis points at a port nothing listens on, so connection
// attempts fail fast instead of waiting out a timeout.
func unreachableRedis() config.RedisConfig {
	return config.RedisConfig{Host: "127.0.0.1", Port: 1}
}

func TestStoreFactory_FallsBackWhenAllowed(t *testing.T) {
	factory := NewStoreFactory(unreachableRedis(), WithMemoryFallback(true))

	store, err := factory.CreateStore()

	require.NoError(t, err)
	require.NotNil(t, store)
	defer store.Close()

	_, ok := store.(*MemoryStore)
	assert.True(t, ok, "fallback must produce the in-process store")
}

func TestStoreFactory_FailsClosedByDefault(t *testing.T) {
	factory := NewStoreFactory(unreachableRedis())

	store, err := factory.CreateStore()

	require.Error(t, err)
	assert.Nil(t, store)
	assert.Contains(t, err.Error(), "Redis required")
}

func TestStoreFactory_CreateMemoryStore(t *testing.T) {
	factory := NewStoreFactory(unreachableRedis())

	store := factory.CreateMemoryStore()

	require.NotNil(t, store)
	assert.NoError(t, store.Close())
}
