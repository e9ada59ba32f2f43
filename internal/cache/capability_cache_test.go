package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hazard-service/internal/models"
)

func TestCapabilityCache_DegradesWithoutRedis(t *testing.T) {
	ctx := context.Background()

	// Nothing listens on port 1
	c, err := NewCapabilityCache("127.0.0.1", 1, "", 0, 60)
	require.NoError(t, err)
	assert.False(t, c.IsAvailable())

	require.NoError(t, c.Set(ctx, "u1", &models.Capabilities{Users: true}))
	got, err := c.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.NoError(t, c.Invalidate(ctx, "u1"))
	assert.NoError(t, c.InvalidateAll(ctx))
	assert.NoError(t, c.Close())
}

func TestCapabilityCache_Key(t *testing.T) {
	c := &CapabilityCache{}
	assert.Equal(t, "caps:u1", c.cacheKey("u1"))
}
