package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/example/dairyshop/pkg/config"
	"github.com/example/dairyshop/pkg/models"
	"github.com/go-redis/redis/v8"
)

type RedisRepository struct {
	client *redis.Client
	config *config.RedisConfig
}

func NewRedisRepository(cfg *config.RedisConfig) *RedisRepository {
	return &RedisRepository{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
			PoolSize: cfg.PoolSize,
		}),
		config: cfg,
	}
}

func (r *RedisRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisRepository) Del(ctx context.Context, keys ...string) error {
	return r.client.Del(ctx, keys...).Err()
}

func (r *RedisRepository) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, expiration).Err()
}

func (r *RedisRepository) GetJSON(ctx context.Context, key string, dest interface{}) error {
	data, err := r.client.Get(ctx, key).Result()
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(data), dest)
}

func (r *RedisRepository) Close() error {
	return r.client.Close()
}

// CartStore keeps each session's cart in a single slot, read and written
// as a unit on every mutation.
type CartStore struct {
	redis *RedisRepository
	ttl   time.Duration
}

func NewCartStore(r *RedisRepository, ttl time.Duration) *CartStore {
	return &CartStore{redis: r, ttl: ttl}
}

func cartKey(sessionID string) string {
	return fmt.Sprintf("cart:%s", sessionID)
}

// Load returns the session's cart, or an empty cart if none is stored.
func (s *CartStore) Load(ctx context.Context, sessionID string) (*models.Cart, error) {
	var cart models.Cart
	err := s.redis.GetJSON(ctx, cartKey(sessionID), &cart)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return &models.Cart{SessionID: sessionID}, nil
		}
		return nil, err
	}
	cart.SessionID = sessionID
	return &cart, nil
}

func (s *CartStore) Save(ctx context.Context, cart *models.Cart) error {
	cart.UpdatedAt = time.Now()
	return s.redis.SetJSON(ctx, cartKey(cart.SessionID), cart, s.ttl)
}

func (s *CartStore) Clear(ctx context.Context, sessionID string) error {
	return s.redis.Del(ctx, cartKey(sessionID))
}

const catalogCacheKey = "catalog:in_stock"

// CacheCatalog stores the in-stock product list for catalog reads.
func (r *RedisRepository) CacheCatalog(ctx context.Context, products []models.Product, ttl time.Duration) error {
	return r.SetJSON(ctx, catalogCacheKey, products, ttl)
}

func (r *RedisRepository) GetCatalogCache(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := r.GetJSON(ctx, catalogCacheKey, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *RedisRepository) InvalidateCatalog(ctx context.Context) error {
	return r.Del(ctx, catalogCacheKey)
}
