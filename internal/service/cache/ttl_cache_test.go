package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTLCache(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewTTLCache(2)
	c.now = func() time.Time { return now }

	require.NoError(t, c.SetBytes(ctx, "a", []byte("1"), 5*time.Second))
	b, ok, err := c.GetBytes(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1", string(b))

	now = now.Add(6 * time.Second)
	_, ok, _ = c.GetBytes(ctx, "a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())

	require.NoError(t, c.SetBytes(ctx, "a", []byte("1"), 0))
	require.NoError(t, c.SetBytes(ctx, "b", []byte("2"), 0))
	require.NoError(t, c.SetBytes(ctx, "c", []byte("3"), 0))
	assert.Equal(t, 1, c.Len())
	_, ok, _ = c.GetBytes(ctx, "c")
	assert.True(t, ok)
}
