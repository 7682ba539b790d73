package impl

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relrag-api/models"
)

func newTestCache(t *testing.T) (*miniredis.Miniredis, *cacheServiceImpl) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewCacheServiceWithClient(client, 5*time.Minute).(*cacheServiceImpl)
	return mr, cache
}

func TestPropertySchemaCache(t *testing.T) {
	ctx := context.Background()

	t.Run("set then get round-trips", func(t *testing.T) {
		_, cache := newTestCache(t)
		collectionID := uuid.New()
		items := []models.PropertySchemaItem{
			{Key: "author", Label: "Author", Type: models.PropertyTypeString, Values: []string{"smith"}},
		}

		cache.SetPropertySchema(ctx, collectionID, items)
		got, ok := cache.GetPropertySchema(ctx, collectionID)
		require.True(t, ok)
		assert.Equal(t, items, got)
	})

	t.Run("cold key misses", func(t *testing.T) {
		_, cache := newTestCache(t)
		_, ok := cache.GetPropertySchema(ctx, uuid.New())
		assert.False(t, ok)
	})

	t.Run("invalidate removes the entry", func(t *testing.T) {
		_, cache := newTestCache(t)
		collectionID := uuid.New()
		cache.SetPropertySchema(ctx, collectionID, []models.PropertySchemaItem{{Key: "k"}})

		cache.InvalidatePropertySchema(ctx, collectionID)
		_, ok := cache.GetPropertySchema(ctx, collectionID)
		assert.False(t, ok)
	})

	t.Run("entries expire after the ttl", func(t *testing.T) {
		mr, cache := newTestCache(t)
		collectionID := uuid.New()
		cache.SetPropertySchema(ctx, collectionID, []models.PropertySchemaItem{{Key: "k"}})

		mr.FastForward(6 * time.Minute)
		_, ok := cache.GetPropertySchema(ctx, collectionID)
		assert.False(t, ok)
	})

	t.Run("keys are scoped per collection", func(t *testing.T) {
		_, cache := newTestCache(t)
		a, b := uuid.New(), uuid.New()
		cache.SetPropertySchema(ctx, a, []models.PropertySchemaItem{{Key: "only-a"}})

		_, ok := cache.GetPropertySchema(ctx, b)
		assert.False(t, ok)
	})

	t.Run("disabled cache never panics", func(t *testing.T) {
		cache := NewCacheService(nil)
		collectionID := uuid.New()
		cache.SetPropertySchema(ctx, collectionID, []models.PropertySchemaItem{{Key: "k"}})
		_, ok := cache.GetPropertySchema(ctx, collectionID)
		assert.False(t, ok)
		cache.InvalidatePropertySchema(ctx, collectionID)
	})
}
