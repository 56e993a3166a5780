package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/voyantic/farecast/internal/models"
)

// ErrCacheMiss is returned when a key has no cached value.
var ErrCacheMiss = errors.New("cache miss")

// ForecastCache stores finished predictions under a short TTL. Forecasts are
// never persisted beyond this cache; recomputing is cheap and history moves
// on quickly.
type ForecastCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewForecastCache(client *redis.Client, ttl time.Duration) *ForecastCache {
	return &ForecastCache{client: client, ttl: ttl}
}

func forecastKey(origin, destination string, horizon int) string {
	return fmt.Sprintf("forecast:%s:%s:%d", origin, destination, horizon)
}

func (c *ForecastCache) Get(ctx context.Context, origin, destination string, horizon int) (*models.PricePrediction, error) {
	payload, err := c.client.Get(ctx, forecastKey(origin, destination, horizon)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached forecast: %w", err)
	}

	var prediction models.PricePrediction
	if err := json.Unmarshal(payload, &prediction); err != nil {
		return nil, fmt.Errorf("failed to decode cached forecast: %w", err)
	}
	return &prediction, nil
}

func (c *ForecastCache) Set(ctx context.Context, prediction *models.PricePrediction, horizon int) error {
	payload, err := json.Marshal(prediction)
	if err != nil {
		return fmt.Errorf("failed to encode forecast: %w", err)
	}
	key := forecastKey(prediction.Origin, prediction.Destination, horizon)
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache forecast: %w", err)
	}
	return nil
}

// LivePriceCache holds recently fetched provider offers so bursts of
// requests for the same route do not hammer the flight-data API.
type LivePriceCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewLivePriceCache(client *redis.Client, ttl time.Duration) *LivePriceCache {
	return &LivePriceCache{client: client, ttl: ttl}
}

func livePriceKey(origin, destination, departureDate string) string {
	return fmt.Sprintf("live:%s:%s:%s", origin, destination, departureDate)
}

func (c *LivePriceCache) Get(ctx context.Context, origin, destination, departureDate string) ([]models.FlightOffer, error) {
	payload, err := c.client.Get(ctx, livePriceKey(origin, destination, departureDate)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached offers: %w", err)
	}

	var offers []models.FlightOffer
	if err := json.Unmarshal(payload, &offers); err != nil {
		return nil, fmt.Errorf("failed to decode cached offers: %w", err)
	}
	return offers, nil
}

func (c *LivePriceCache) Set(ctx context.Context, origin, destination, departureDate string, offers []models.FlightOffer) error {
	payload, err := json.Marshal(offers)
	if err != nil {
		return fmt.Errorf("failed to encode offers: %w", err)
	}
	key := livePriceKey(origin, destination, departureDate)
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache offers: %w", err)
	}
	return nil
}
