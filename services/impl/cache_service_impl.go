package impl

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/relrag-api/config"
	"github.com/relrag-api/models"
	"github.com/relrag-api/services"
)

type cacheServiceImpl struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCacheService returns a Redis-backed cache for derived read models. A
// nil config or unreachable Redis yields a disabled cache; callers never see
// cache errors, only misses.
func NewCacheService(cfg *config.RedisConfig) services.CacheService {
	if cfg == nil || !cfg.Enabled {
		return &cacheServiceImpl{}
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		log.Warn().Err(err).Msg("redis unreachable, property schema cache disabled")
		return &cacheServiceImpl{}
	}
	return &cacheServiceImpl{
		client: client,
		ttl:    time.Duration(cfg.SchemaCacheTTL) * time.Second,
	}
}

// NewCacheServiceWithClient wires an existing Redis client; used by tests.
func NewCacheServiceWithClient(client *redis.Client, ttl time.Duration) services.CacheService {
	return &cacheServiceImpl{client: client, ttl: ttl}
}

func schemaCacheKey(collectionID uuid.UUID) string {
	return fmt.Sprintf("relrag:property-schema:%s", collectionID)
}

func (s *cacheServiceImpl) GetPropertySchema(ctx context.Context, collectionID uuid.UUID) ([]models.PropertySchemaItem, bool) {
	if s.client == nil {
		return nil, false
	}
	raw, err := s.client.Get(ctx, schemaCacheKey(collectionID)).Bytes()
	if err != nil {
		return nil, false
	}
	var items []models.PropertySchemaItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}
	return items, true
}

func (s *cacheServiceImpl) SetPropertySchema(ctx context.Context, collectionID uuid.UUID, items []models.PropertySchemaItem) {
	if s.client == nil {
		return
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return
	}
	if err := s.client.Set(ctx, schemaCacheKey(collectionID), raw, s.ttl).Err(); err != nil {
		log.Debug().Err(err).Str("collection_id", collectionID.String()).Msg("schema cache write failed")
	}
}

func (s *cacheServiceImpl) InvalidatePropertySchema(ctx context.Context, collectionID uuid.UUID) {
	if s.client == nil {
		return
	}
	if err := s.client.Del(ctx, schemaCacheKey(collectionID)).Err(); err != nil {
		log.Debug().Err(err).Str("collection_id", collectionID.String()).Msg("schema cache invalidation failed")
	}
}
