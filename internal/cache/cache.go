package cache

import (
	"context"
	"crypto/sha1"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"venue-backend/internal/config"
	"venue-backend/internal/engine"
	"venue-backend/internal/metadata"
)

const defaultTTL = 5 * time.Minute

// NewClient connects to redis and pings it.
func NewClient(ctx context.Context, cfg config.CacheConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		DialTimeout:  5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return rdb, nil
}

// ResponseCache stores successful GET responses per entity. Every entity
// has a version counter; a write bumps the counter of the entity and of
// every entity whose views embed it, which orphans their cached responses.
type ResponseCache struct {
	rdb      *redis.Client
	registry *metadata.Registry
	ttl      time.Duration
	prefix   string
}

func New(rdb *redis.Client, reg *metadata.Registry, cfg config.CacheConfig) *ResponseCache {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "venue"
	}
	return &ResponseCache{rdb: rdb, registry: reg, ttl: ttl, prefix: prefix}
}

func (rc *ResponseCache) versionKey(entity string) string {
	return rc.prefix + ":ver:" + entity
}

func (rc *ResponseCache) responseKey(entity string, version int64, uri string) string {
	sum := sha1.Sum([]byte(uri))
	return fmt.Sprintf("%s:resp:%s:%d:%x", rc.prefix, entity, version, sum)
}

// Middleware serves cached responses for the entity's read routes.
// Redis failures degrade to an uncached request.
func (rc *ResponseCache) Middleware(entity *metadata.Entity) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodGet {
			return c.Next()
		}
		ctx := c.UserContext()

		version, err := rc.rdb.Get(ctx, rc.versionKey(entity.Name)).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			slog.Debug("cache unavailable", "entity", entity.Name, "error", err)
			return c.Next()
		}

		key := rc.responseKey(entity.Name, version, c.OriginalURL())
		if body, err := rc.rdb.Get(ctx, key).Bytes(); err == nil {
			c.Set("X-Cache", "HIT")
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
			return c.Status(fiber.StatusOK).Send(body)
		}

		c.Set("X-Cache", "MISS")
		if err := c.Next(); err != nil {
			return err
		}
		if c.Response().StatusCode() != fiber.StatusOK {
			return nil
		}

		// the response buffer is reused by fasthttp
		body := append([]byte(nil), c.Response().Body()...)
		if err := rc.rdb.Set(ctx, key, body, rc.ttl).Err(); err != nil {
			slog.Debug("cache store failed", "entity", entity.Name, "error", err)
		}
		return nil
	}
}

// EntityChanged bumps the version of every entity whose responses may
// contain the changed rows.
func (rc *ResponseCache) EntityChanged(ctx context.Context, ch engine.Change) {
	pipe := rc.rdb.Pipeline()
	for _, name := range Affected(rc.registry, ch.Entity) {
		pipe.Incr(ctx, rc.versionKey(name))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		slog.Warn("cache invalidation failed", "entity", ch.Entity, "error", err)
	}
}

// Affected returns name followed by every entity that embeds it, directly
// or through other embedding entities.
func Affected(reg *metadata.Registry, name string) []string {
	out := []string{name}
	seen := map[string]bool{name: true}
	for i := 0; i < len(out); i++ {
		for _, dep := range reg.Dependents(out[i]) {
			if !seen[dep] {
				seen[dep] = true
				out = append(out, dep)
			}
		}
	}
	return out
}
