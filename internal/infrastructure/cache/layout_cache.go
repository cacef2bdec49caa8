// Package cache holds the read-through cache in front of page layout loads.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/matchdesk/cms/internal/config"
	"github.com/matchdesk/cms/pkg/logger"
	"github.com/matchdesk/cms/pkg/models"
)

// Generation numbers the cache state of one page. Invalidate moves it on, so a result
// loaded under an older generation is stored where no later reader looks.
type Generation int64

// NoGeneration is returned when the cache cannot tell the current generation; Set
// ignores it.
const NoGeneration Generation = -1

// LayoutCache caches loaded page layouts by page id. Implementations treat their own
// failures as misses; a cache outage never fails a request.
type LayoutCache interface {
	// Get returns a cached result, or on a miss the generation a result loaded now must
	// be stored under.
	Get(ctx context.Context, pageID string) (*models.PageLayoutResult, Generation, bool)
	Set(ctx context.Context, pageID string, gen Generation, result *models.PageLayoutResult)
	Invalidate(ctx context.Context, pageID string)
}

// Noop is used when no Redis address is configured.
type Noop struct{}

func (Noop) Get(context.Context, string) (*models.PageLayoutResult, Generation, bool) {
	return nil, NoGeneration, false
}

func (Noop) Set(context.Context, string, Generation, *models.PageLayoutResult) {}

func (Noop) Invalidate(context.Context, string) {}

const (
	keyPrefix = "cms:layout:"
	genPrefix = "cms:layout-gen:"
)

// entry keeps the layout body as a string so the cached bytes are exactly the stored
// ones; a json.RawMessage field would be compacted on encode.
type entry struct {
	Layout         string                `json:"layout"`
	UpdatedAt      *time.Time            `json:"updated_at"`
	Page           *models.Page          `json:"page"`
	ThemeOverrides models.ThemeOverrides `json:"theme_overrides"`
}

// RedisLayoutCache stores results as JSON with a TTL.
type RedisLayoutCache struct {
	rdb goredis.Cmdable
	ttl time.Duration
	log *logger.Logger
}

// NewRedisLayoutCache connects to Redis and verifies it answers.
func NewRedisLayoutCache(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) (*RedisLayoutCache, *goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisLayoutCacheWith(rdb, cfg.TTL, log), rdb, nil
}

// NewRedisLayoutCacheWith wraps an existing client.
func NewRedisLayoutCacheWith(rdb goredis.Cmdable, ttl time.Duration, log *logger.Logger) *RedisLayoutCache {
	if log == nil {
		log = logger.Nop()
	}
	return &RedisLayoutCache{rdb: rdb, ttl: ttl, log: log.With("service", "RedisLayoutCache")}
}

func key(pageID string, gen Generation) string {
	return fmt.Sprintf("%s%s:%d", keyPrefix, pageID, gen)
}

func genKey(pageID string) string {
	return genPrefix + pageID
}

// Get reads the page's generation counter, then the entry stored under it. A missing
// counter is generation zero.
func (c *RedisLayoutCache) Get(ctx context.Context, pageID string) (*models.PageLayoutResult, Generation, bool) {
	n, err := c.rdb.Get(ctx, genKey(pageID)).Int64()
	if errors.Is(err, goredis.Nil) {
		n, err = 0, nil
	}
	if err != nil {
		c.log.Warn("layout cache generation read failed", "pageId", pageID, "error", err)
		return nil, NoGeneration, false
	}
	gen := Generation(n)

	raw, err := c.rdb.Get(ctx, key(pageID, gen)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, gen, false
	}
	if err != nil {
		c.log.Warn("layout cache get failed", "pageId", pageID, "error", err)
		return nil, gen, false
	}
	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		c.log.Warn("layout cache entry is corrupt, ignoring", "pageId", pageID, "error", err)
		return nil, gen, false
	}
	return &models.PageLayoutResult{
		Layout:         json.RawMessage(e.Layout),
		UpdatedAt:      e.UpdatedAt,
		Page:           e.Page,
		ThemeOverrides: e.ThemeOverrides,
	}, gen, true
}

func (c *RedisLayoutCache) Set(ctx context.Context, pageID string, gen Generation, result *models.PageLayoutResult) {
	if gen < 0 {
		return
	}
	raw, err := json.Marshal(entry{
		Layout:         string(result.Layout),
		UpdatedAt:      result.UpdatedAt,
		Page:           result.Page,
		ThemeOverrides: result.ThemeOverrides,
	})
	if err != nil {
		c.log.Warn("layout cache encode failed", "pageId", pageID, "error", err)
		return
	}
	if err := c.rdb.Set(ctx, key(pageID, gen), raw, c.ttl).Err(); err != nil {
		c.log.Warn("layout cache set failed", "pageId", pageID, "error", err)
	}
}

// Invalidate moves the page to a new generation. Entries under older generations expire
// with their TTL.
func (c *RedisLayoutCache) Invalidate(ctx context.Context, pageID string) {
	if err := c.rdb.Incr(ctx, genKey(pageID)).Err(); err != nil {
		c.log.Warn("layout cache invalidate failed", "pageId", pageID, "error", err)
	}
}
