package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"fos-allocation-service/internal/domain"
	"fos-allocation-service/internal/platform/obs"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultGeocodeTTL = 30 * 24 * time.Hour

// RedisGeocodeCache keeps address -> coordinate lookups in Redis with a TTL.
// Values are stored as JSON under "<prefix><address>".
type RedisGeocodeCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

type cachedCoordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func NewRedisGeocodeCache(client *redis.Client, ttl time.Duration) *RedisGeocodeCache {
	if ttl <= 0 {
		ttl = defaultGeocodeTTL
	}
	return &RedisGeocodeCache{client: client, prefix: "geocode:", ttl: ttl}
}

// Fetch cached coordinates with a single MGET. Misses are simply absent.
func (c *RedisGeocodeCache) GetMany(
	ctx context.Context,
	addresses []string,
) (_ map[string]domain.Coordinates, err error) {
	defer obs.Time(ctx, "geocode.cache.redis.GetMany")(&err)

	if c.client == nil {
		return nil, errors.New("geocode cache: redis client is nil")
	}

	uniq := uniqueAddresses(addresses)
	if len(uniq) == 0 {
		return map[string]domain.Coordinates{}, nil
	}

	keys := make([]string, 0, len(uniq))
	for _, a := range uniq {
		keys = append(keys, c.prefix+a)
	}

	vals, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("get geocode cache: mget: %w", err)
	}

	out := make(map[string]domain.Coordinates, len(uniq))
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var cc cachedCoordinates
		if err := json.Unmarshal([]byte(s), &cc); err != nil {
			return nil, fmt.Errorf("get geocode cache: decode %q: %w", uniq[i], err)
		}
		out[uniq[i]] = domain.Coordinates{Lat: cc.Lat, Lon: cc.Lon}
	}

	return out, nil
}

// Store address -> coordinate mappings in one pipeline.
func (c *RedisGeocodeCache) PutMany(ctx context.Context, results map[string]domain.Coordinates) error {
	if c.client == nil {
		return errors.New("geocode cache: redis client is nil")
	}

	if len(results) == 0 {
		return nil
	}

	pipe := c.client.TxPipeline()
	for addr, coords := range results {
		if strings.TrimSpace(addr) == "" {
			return errors.New("insert geocode cache: empty address key")
		}

		b, err := json.Marshal(cachedCoordinates{Lat: coords.Lat, Lon: coords.Lon})
		if err != nil {
			return fmt.Errorf("insert geocode cache: encode %q: %w", addr, err)
		}
		pipe.Set(ctx, c.prefix+addr, b, c.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("insert geocode cache: exec pipeline: %w", err)
	}

	return nil
}
