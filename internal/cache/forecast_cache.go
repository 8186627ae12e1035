package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/config"
	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/domain"
)

const (
	forecastKeyPrefix       = "forecast:sku"
	recommendationKeyPrefix = "forecast:recommendation"
	forecastScanBatchSize   = 100
)

// ForecastCache fronts the forecast read path. Misses fall through to the
// repository; writes happen after every forecast run.
type ForecastCache interface {
	GetForecast(ctx context.Context, sku string) (*domain.EnsembleForecast, bool, error)
	SetForecast(ctx context.Context, fc domain.EnsembleForecast) error
	GetRecommendation(ctx context.Context, sku string) (*domain.OrderRecommendation, bool, error)
	SetRecommendation(ctx context.Context, rec domain.OrderRecommendation) error
	InvalidateSKU(ctx context.Context, sku string) error
	InvalidateAll(ctx context.Context) error
}

type redisForecastCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopForecastCache struct{}

func NewForecastCache(cfg config.CacheConfig) (ForecastCache, error) {
	if !cfg.Enabled {
		return &noopForecastCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisForecastCache{
		client: client,
		ttl:    ttl,
	}, nil
}

func NewNoopForecastCache() ForecastCache {
	return &noopForecastCache{}
}

func (c *redisForecastCache) GetForecast(ctx context.Context, sku string) (*domain.EnsembleForecast, bool, error) {
	payload, err := c.client.Get(ctx, forecastKey(sku)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var fc domain.EnsembleForecast
	if err := json.Unmarshal(payload, &fc); err != nil {
		return nil, false, fmt.Errorf("decode forecast cache: %w", err)
	}
	return &fc, true, nil
}

func (c *redisForecastCache) SetForecast(ctx context.Context, fc domain.EnsembleForecast) error {
	payload, err := json.Marshal(fc)
	if err != nil {
		return fmt.Errorf("encode forecast cache: %w", err)
	}

	if err := c.client.Set(ctx, forecastKey(fc.SKU), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisForecastCache) GetRecommendation(ctx context.Context, sku string) (*domain.OrderRecommendation, bool, error) {
	payload, err := c.client.Get(ctx, recommendationKey(sku)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var rec domain.OrderRecommendation
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, false, fmt.Errorf("decode recommendation cache: %w", err)
	}
	return &rec, true, nil
}

func (c *redisForecastCache) SetRecommendation(ctx context.Context, rec domain.OrderRecommendation) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode recommendation cache: %w", err)
	}

	if err := c.client.Set(ctx, recommendationKey(rec.SKU), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisForecastCache) InvalidateSKU(ctx context.Context, sku string) error {
	return c.client.Del(ctx, forecastKey(sku), recommendationKey(sku)).Err()
}

func (c *redisForecastCache) InvalidateAll(ctx context.Context) error {
	if err := deleteKeysWithPrefix(ctx, c.client, forecastKeyPrefix, forecastScanBatchSize); err != nil {
		return err
	}
	return deleteKeysWithPrefix(ctx, c.client, recommendationKeyPrefix, forecastScanBatchSize)
}

func (n *noopForecastCache) GetForecast(ctx context.Context, sku string) (*domain.EnsembleForecast, bool, error) {
	return nil, false, nil
}

func (n *noopForecastCache) SetForecast(ctx context.Context, fc domain.EnsembleForecast) error {
	return nil
}

func (n *noopForecastCache) GetRecommendation(ctx context.Context, sku string) (*domain.OrderRecommendation, bool, error) {
	return nil, false, nil
}

func (n *noopForecastCache) SetRecommendation(ctx context.Context, rec domain.OrderRecommendation) error {
	return nil
}

func (n *noopForecastCache) InvalidateSKU(ctx context.Context, sku string) error {
	return nil
}

func (n *noopForecastCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func forecastKey(sku string) string {
	return fmt.Sprintf("%s:%s", forecastKeyPrefix, sku)
}

func recommendationKey(sku string) string {
	return fmt.Sprintf("%s:%s", recommendationKeyPrefix, sku)
}
