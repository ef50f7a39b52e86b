package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseKV(t *testing.T, kv KV) {
	t.Helper()
	ctx := context.Background()

	_, err := kv.Get(ctx, "token")
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, kv.Set(ctx, "token", []byte("Bearer abc")))
	require.NoError(t, kv.Set(ctx, "user_data", []byte(`{"id":1}`)))

	v, err := kv.Get(ctx, "token")
	require.NoError(t, err)
	assert.Equal(t, "Bearer abc", string(v))

	require.NoError(t, kv.Delete(ctx, "token"))
	_, err = kv.Get(ctx, "token")
	assert.True(t, errors.Is(err, ErrNotFound))

	// Deleting a missing key is not an error.
	require.NoError(t, kv.Delete(ctx, "token"))

	require.NoError(t, kv.Clear(ctx))
	_, err = kv.Get(ctx, "user_data")
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, kv.Set(ctx, "after_clear", []byte("ok")))
	v, err = kv.Get(ctx, "after_clear")
	require.NoError(t, err)
	assert.Equal(t, "ok", string(v))
}

func TestMemoryStore(t *testing.T) {
	exerciseKV(t, NewMemoryStore())
}

func TestBoltStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.db")
	s, err := OpenBolt(path)
	require.NoError(t, err)
	exerciseKV(t, s)
	require.NoError(t, s.Close())

	// Values survive reopening.
	s, err = OpenBolt(path)
	require.NoError(t, err)
	defer s.Close()
	v, err := s.Get(context.Background(), "after_clear")
	require.NoError(t, err)
	assert.Equal(t, "ok", string(v))
}

func TestBoltStoreHonoursCancelledContext(t *testing.T) {
	s, err := OpenBolt(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Set(ctx, "k", []byte("v")), context.Canceled)
}
