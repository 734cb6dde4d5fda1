package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"venue-backend/internal/auth"
	"venue-backend/internal/config"
	"venue-backend/internal/engine"
	"venue-backend/internal/metadata"
	"venue-backend/internal/store"
)

const secret = "admin-test-secret"

func testApp(t *testing.T) *fiber.App {
	t.Helper()
	ctx := context.Background()
	s, err := store.New(ctx, config.DatabaseConfig{Driver: "sqlite", Path: t.TempDir(), Name: "admin"})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(s.Close)

	reg := metadata.NewRegistry()
	if err := reg.Load(metadata.Catalog()); err != nil {
		t.Fatalf("load catalog: %v", err)
	}

	app := fiber.New(fiber.Config{ErrorHandler: engine.ErrorHandler})
	RegisterAdminRoutes(app, NewHandler(s, reg, store.NewMigrator(s)), auth.AuthMiddleware(auth.NewIssuer(secret)), auth.RequireAdmin())
	return app
}

func call(t *testing.T, app *fiber.App, method, path string, roles []string) (int, map[string]any) {
	t.Helper()
	token, _ := auth.NewIssuer(secret).Issue(auth.Principal{ID: "u", Roles: roles})
	req, _ := http.NewRequest(method, path, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	var body map[string]any
	json.NewDecoder(resp.Body).Decode(&body) //nolint:errcheck
	return resp.StatusCode, body
}

func TestMeta_Entities(t *testing.T) {
	app := testApp(t)
	admin := []string{"admin"}

	status, body := call(t, app, "GET", "/_meta/entities", admin)
	if status != 200 {
		t.Fatalf("list: %d %v", status, body)
	}
	if n := len(body["data"].([]any)); n != len(metadata.Catalog()) {
		t.Fatalf("listed %d entities, want %d", n, len(metadata.Catalog()))
	}

	status, body = call(t, app, "GET", "/_meta/entities/evento_cuponera", admin)
	if status != 200 {
		t.Fatalf("get: %d %v", status, body)
	}
	data := body["data"].(map[string]any)
	ddl := data["ddl"].(string)
	if !strings.Contains(ddl, "CREATE TABLE IF NOT EXISTS evento_cuponera") || !strings.Contains(ddl, "PRIMARY KEY (id_evento, id_cuponera)") {
		t.Fatalf("unexpected ddl: %s", ddl)
	}

	status, body = call(t, app, "GET", "/_meta/entities/nada", admin)
	if status != 404 || body["code"] != "UNKNOWN_ENTITY" {
		t.Fatalf("unknown entity: %d %v", status, body)
	}

	status, _ = call(t, app, "GET", "/_meta/entities", []string{"taquilla"})
	if status != 403 {
		t.Fatalf("non-admin: status %d, want 403", status)
	}
}

func TestMeta_MigrateIsRepeatable(t *testing.T) {
	app := testApp(t)
	for i := 0; i < 2; i++ {
		status, body := call(t, app, "POST", "/_meta/migrate", []string{"admin"})
		if status != 200 {
			t.Fatalf("migrate run %d: %d %v", i+1, status, body)
		}
	}
}
