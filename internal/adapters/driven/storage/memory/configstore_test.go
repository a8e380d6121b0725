package memory

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigStore_SetAndGet(t *testing.T) {
	store := NewConfigStore()

	require.NoError(t, store.Set("invoices.page_size", 100))
	require.NoError(t, store.Set("invoices.page_size", 250))

	val, ok := store.Get("invoices.page_size")
	assert.True(t, ok)
	assert.Equal(t, 250, val)

	_, ok = store.Get("missing")
	assert.False(t, ok)
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := NewConfigStore()
	_ = store.Set("s", "text")
	_ = store.Set("i", 42)
	_ = store.Set("i64", int64(7))
	_ = store.Set("f", 12.9)
	_ = store.Set("numeric", "15")
	_ = store.Set("b", true)
	_ = store.Set("list", []string{"Code", "Name"})
	_ = store.Set("anylist", []any{"Code", 3, "Name"})

	assert.Equal(t, "text", store.GetString("s"))
	assert.Equal(t, "", store.GetString("i"))

	assert.Equal(t, 42, store.GetInt("i"))
	assert.Equal(t, 7, store.GetInt("i64"))
	assert.Equal(t, 12, store.GetInt("f"))
	assert.Equal(t, 15, store.GetInt("numeric"))
	assert.Equal(t, 0, store.GetInt("s"))
	assert.Equal(t, 0, store.GetInt("b"))

	assert.True(t, store.GetBool("b"))
	assert.False(t, store.GetBool("s"))

	assert.Equal(t, []string{"Code", "Name"}, store.GetStringSlice("list"))
	assert.Equal(t, []string{"Code", "Name"}, store.GetStringSlice("anylist"))
	assert.Nil(t, store.GetStringSlice("s"))
	assert.Nil(t, store.GetStringSlice("missing"))
}

func TestConfigStore_Keys(t *testing.T) {
	store := NewConfigStore()
	_ = store.Set("logging.level", "debug")
	_ = store.Set("api.timeout", "10s")

	assert.Equal(t, []string{"api.timeout", "logging.level"}, store.Keys())
}

func TestConfigStore_PersistenceNoops(t *testing.T) {
	store := NewConfigStore()

	assert.NoError(t, store.Save())
	assert.NoError(t, store.Load())
	assert.Equal(t, ":memory:", store.Path())
}

func TestConfigStore_ConcurrentAccess(t *testing.T) {
	store := NewConfigStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = store.Set("key", n)
			_ = store.GetInt("key")
		}(i)
	}
	wg.Wait()

	_, ok := store.Get("key")
	assert.True(t, ok)
}
