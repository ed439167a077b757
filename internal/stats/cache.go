package stats

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"afisha/internal/logger"

	"github.com/redis/go-redis/v9"
)

type CacheConfig struct {
	Addr     string
	Password string
	TTL      time.Duration
}

// ViewsCache keeps recently fetched view counters in Redis to spare the stat
// collector on hot listings. Cache failures degrade to a direct stats query.
type ViewsCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewViewsCache(cfg CacheConfig) (*ViewsCache, error) {
	if cfg.TTL == 0 {
		cfg.TTL = 30 * time.Second
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           0,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		DialTimeout:  5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &ViewsCache{client: rdb, ttl: cfg.TTL}, nil
}

// Get returns cached counters and the ids it had no entry for.
func (c *ViewsCache) Get(ctx context.Context, eventIDs []int64) (map[int64]int64, []int64) {
	cached := make(map[int64]int64, len(eventIDs))

	keys := make([]string, len(eventIDs))
	for i, id := range eventIDs {
		keys[i] = viewsKey(id)
	}

	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		logger.WithContext(ctx).Warn("Views cache lookup failed", "error", err)
		return cached, eventIDs
	}

	var missing []int64
	for i, value := range values {
		s, ok := value.(string)
		if !ok {
			missing = append(missing, eventIDs[i])
			continue
		}
		views, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			missing = append(missing, eventIDs[i])
			continue
		}
		cached[eventIDs[i]] = views
	}

	return cached, missing
}

// Set stores counters for the given ids; ids absent from views are cached as
// zero so cold events do not hammer the collector.
func (c *ViewsCache) Set(ctx context.Context, eventIDs []int64, views map[int64]int64) {
	pipe := c.client.Pipeline()
	for _, id := range eventIDs {
		pipe.Set(ctx, viewsKey(id), strconv.FormatInt(views[id], 10), c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		logger.WithContext(ctx).Warn("Views cache store failed", "error", err)
	}
}

func (c *ViewsCache) Close() error {
	return c.client.Close()
}

func viewsKey(eventID int64) string {
	return "views:" + strconv.FormatInt(eventID, 10)
}
