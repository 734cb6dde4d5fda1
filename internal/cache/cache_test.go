package cache

import (
	"context"
	"net/http"
	"slices"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"venue-backend/internal/config"
	"venue-backend/internal/engine"
	"venue-backend/internal/metadata"
)

func catalog(t *testing.T) *metadata.Registry {
	t.Helper()
	reg := metadata.NewRegistry()
	if err := reg.Load(metadata.Catalog()); err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	return reg
}

func TestAffected(t *testing.T) {
	reg := catalog(t)

	tests := []struct {
		entity string
		want   []string
	}{
		{"localidad", []string{"localidad", "tribuna", "auditorio"}},
		{"pais", []string{"pais", "auditorio"}},
		{"imagen", []string{"imagen", "auditorio"}},
		{"imagenes_auditorio", []string{"imagenes_auditorio", "auditorio"}},
		{"cupon", []string{"cupon"}},
	}
	for _, tt := range tests {
		t.Run(tt.entity, func(t *testing.T) {
			got := Affected(reg, tt.entity)
			for _, w := range tt.want {
				if !slices.Contains(got, w) {
					t.Fatalf("Affected(%s) = %v, missing %s", tt.entity, got, w)
				}
			}
			if got[0] != tt.entity {
				t.Fatalf("changed entity should come first, got %v", got)
			}
		})
	}
}

func TestResponseKey_VersionedPerURI(t *testing.T) {
	rc := New(nil, catalog(t), config.CacheConfig{Prefix: "test"})
	a := rc.responseKey("auditorio", 1, "/auditorios?page=1")
	b := rc.responseKey("auditorio", 2, "/auditorios?page=1")
	c := rc.responseKey("auditorio", 1, "/auditorios?page=2")
	if a == b || a == c {
		t.Fatalf("keys must differ by version and uri: %s %s %s", a, b, c)
	}
	if rc.ttl != defaultTTL {
		t.Fatalf("ttl = %v, want default", rc.ttl)
	}
}

// With redis down the middleware must not get in the way of reads.
func TestMiddleware_RedisDownPassesThrough(t *testing.T) {
	reg := catalog(t)
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()
	rc := New(rdb, reg, config.CacheConfig{})

	app := fiber.New()
	app.Get("/paises", rc.Middleware(reg.GetEntity("pais")), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"success": true})
	})

	req, _ := http.NewRequest("GET", "/paises", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("status %d, want 200", resp.StatusCode)
	}
	if h := resp.Header.Get("X-Cache"); h != "" {
		t.Fatalf("X-Cache = %q, want none when redis is down", h)
	}

	// invalidation only logs
	rc.EntityChanged(context.Background(), engine.Change{Entity: "pais"})
}
