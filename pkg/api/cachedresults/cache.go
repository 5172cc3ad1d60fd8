package cachedresults

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	redisstore "github.com/eko/gocache/store/redis/v4"
	"github.com/redis/go-redis/v9"
	"github.com/travigo/reachability/pkg/aggregator"
)

type Cache struct {
	Cache *cache.Cache[string]
}

func (c *Cache) Setup(client *redis.Client, expiration time.Duration) {
	redisStore := redisstore.NewRedis(client, store.WithExpiration(expiration))

	c.Cache = cache.New[string](redisStore)
}

type Key struct {
	Dataset   string
	Origins   []string
	Budget    time.Duration
	Transfers int
	Window    string
	Policy    aggregator.Policy
	Filter    string
}

func (k Key) String() string {
	return fmt.Sprintf("reachability/%s/%v/%d/%d/%s/%s/%s", k.Dataset, k.Origins, k.Budget, k.Transfers, k.Window, k.Policy, k.Filter)
}

// Get returns the cached destinations and whether the lookup hit.
func (c *Cache) Get(ctx context.Context, key Key) ([]aggregator.Destination, bool) {
	value, err := c.Cache.Get(ctx, key.String())
	if err != nil {
		return nil, false
	}

	var destinations []aggregator.Destination
	if err := json.Unmarshal([]byte(value), &destinations); err != nil {
		return nil, false
	}

	return destinations, true
}

func (c *Cache) Set(ctx context.Context, key Key, destinations []aggregator.Destination) error {
	destinationsJSON, err := json.Marshal(destinations)
	if err != nil {
		return err
	}

	return c.Cache.Set(ctx, key.String(), string(destinationsJSON))
}
