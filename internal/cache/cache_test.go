package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemory_GetSet(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	_, ok := c.Get(ctx, "missing")
	assert.False(t, ok)

	val := []byte("payload")
	c.Set(ctx, "k", val, 0)
	val[0] = 'X' // cache keeps its own copy

	got, ok := c.Get(ctx, "k")
	assert.True(t, ok)
	assert.Equal(t, "payload", string(got))
}

func TestMemory_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c := &memory{m: make(map[string]entry), now: func() time.Time { return now }}

	c.Set(ctx, "k", []byte("v"), time.Minute)
	_, ok := c.Get(ctx, "k")
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok)
	assert.Empty(t, c.m)
}

func TestNew_PicksBackend(t *testing.T) {
	_, isMemory := New("").(*memory)
	assert.True(t, isMemory)

	_, isRedis := New("localhost:6379").(*redisCache)
	assert.True(t, isRedis)
}
