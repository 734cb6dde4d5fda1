package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"

	"venue-backend/internal/config"
	"venue-backend/internal/engine"
	"venue-backend/internal/store"
)

const testSecret = "test-secret"

func TestIssuer_RoundTrip(t *testing.T) {
	iss := NewIssuer(testSecret)
	token, err := iss.Issue(Principal{ID: "user-1", Roles: []string{"admin"}})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	p, err := iss.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if p.ID != "user-1" || !p.HasRole("admin") || p.HasRole("taquilla") {
		t.Fatalf("unexpected principal: %+v", p)
	}
	if _, err := NewIssuer("other-secret").Verify(token); err == nil {
		t.Fatal("token signed with another secret must not verify")
	}
}

func TestIssuer_Expired(t *testing.T) {
	iss := NewIssuer(testSecret)
	iss.now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, err := iss.Issue(Principal{ID: "user-1"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := NewIssuer(testSecret).Verify(token); err == nil {
		t.Fatal("token issued an hour ago must be expired")
	}
}

func TestPasswordHash(t *testing.T) {
	b, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	hash := string(b)
	if !passwordMatches("s3cret", hash) {
		t.Fatal("correct password rejected")
	}
	if passwordMatches("wrong", hash) {
		t.Fatal("wrong password accepted")
	}
}

func TestExtractRoles(t *testing.T) {
	if got := extractRoles(`["admin","taquilla"]`); len(got) != 2 || got[1] != "taquilla" {
		t.Fatalf("extractRoles = %v", got)
	}
	if got := extractRoles("not json"); len(got) != 0 {
		t.Fatalf("bad JSON should yield no roles, got %v", got)
	}
	if got := extractRoles(nil); len(got) != 0 {
		t.Fatalf("nil should yield no roles, got %v", got)
	}
}

func gatedApp() *fiber.App {
	gate := AuthMiddleware(NewIssuer(testSecret))
	app := fiber.New(fiber.Config{ErrorHandler: engine.ErrorHandler})
	app.Post("/protected", gate, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"user": GetUser(c).ID})
	})
	app.Get("/admin", gate, RequireAdmin(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func TestAuthMiddleware(t *testing.T) {
	app := gatedApp()
	iss := NewIssuer(testSecret)
	adminToken, _ := iss.Issue(Principal{ID: "u1", Roles: []string{"admin"}})
	plainToken, _ := iss.Issue(Principal{ID: "u2"})

	tests := []struct {
		name   string
		method string
		path   string
		header string
		want   int
	}{
		{"missing header", "POST", "/protected", "", 401},
		{"wrong scheme", "POST", "/protected", "Basic abc", 401},
		{"garbage token", "POST", "/protected", "Bearer not-a-jwt", 401},
		{"valid token", "POST", "/protected", "Bearer " + plainToken, 200},
		{"non-admin on admin route", "GET", "/admin", "Bearer " + plainToken, 403},
		{"admin on admin route", "GET", "/admin", "Bearer " + adminToken, 204},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(tt.method, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req, -1)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			if resp.StatusCode != tt.want {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.want)
			}
			if tt.want == 401 {
				var env engine.ErrorEnvelope
				if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
					t.Fatalf("decode: %v", err)
				}
				if env.Success || env.Code != "UNAUTHORIZED" {
					t.Fatalf("unexpected envelope: %+v", env)
				}
			}
		})
	}
}

func TestLoginRefreshLogout(t *testing.T) {
	ctx := context.Background()
	s, err := store.New(ctx, config.DatabaseConfig{Driver: "sqlite", Path: t.TempDir(), Name: "auth"})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer s.Close()
	if err := s.Bootstrap(ctx, "admin@localhost", "changeme"); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	app := fiber.New(fiber.Config{ErrorHandler: engine.ErrorHandler})
	iss := NewIssuer(testSecret)
	RegisterAuthRoutes(app, NewAuthHandler(s, iss))

	post := func(path string, body any) (*http.Response, map[string]any) {
		t.Helper()
		b, _ := json.Marshal(body)
		req, _ := http.NewRequest("POST", path, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req, -1)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		var out map[string]any
		json.NewDecoder(resp.Body).Decode(&out) //nolint:errcheck
		return resp, out
	}

	resp, _ := post("/auth/login", credentials{Email: "admin@localhost", Password: "wrong"})
	if resp.StatusCode != 401 {
		t.Fatalf("bad password: status %d, want 401", resp.StatusCode)
	}

	resp, out := post("/auth/login", credentials{Email: "admin@localhost", Password: "changeme"})
	if resp.StatusCode != 200 {
		t.Fatalf("login: status %d, body %v", resp.StatusCode, out)
	}
	data := out["data"].(map[string]any)
	access := data["access_token"].(string)
	refresh := data["refresh_token"].(string)

	p, err := iss.Verify(access)
	if err != nil {
		t.Fatalf("verify issued token: %v", err)
	}
	if !p.HasRole("admin") {
		t.Fatalf("seeded admin should carry the admin role, got %v", p.Roles)
	}

	resp, out = post("/auth/refresh", refreshBody{RefreshToken: refresh})
	if resp.StatusCode != 200 {
		t.Fatalf("refresh: status %d, body %v", resp.StatusCode, out)
	}
	rotated := out["data"].(map[string]any)["refresh_token"].(string)

	// the old refresh token was rotated away
	resp, _ = post("/auth/refresh", refreshBody{RefreshToken: refresh})
	if resp.StatusCode != 401 {
		t.Fatalf("reused refresh token: status %d, want 401", resp.StatusCode)
	}

	resp, _ = post("/auth/logout", refreshBody{RefreshToken: rotated})
	if resp.StatusCode != 200 {
		t.Fatalf("logout: status %d", resp.StatusCode)
	}
	resp, _ = post("/auth/refresh", refreshBody{RefreshToken: rotated})
	if resp.StatusCode != 401 {
		t.Fatalf("refresh after logout: status %d, want 401", resp.StatusCode)
	}
}
