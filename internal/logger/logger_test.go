package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func TestRequestLogger_TagsRequestID(t *testing.T) {
	var buf bytes.Buffer
	defaultLogger = slog.New(slog.NewJSONHandler(&buf, nil))
	t.Cleanup(func() { defaultLogger = nil })

	app := fiber.New()
	app.Use(requestid.New(), RequestLogger())
	app.Get("/paises", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	req, _ := http.NewRequest("GET", "/paises", nil)
	req.Header.Set(fiber.HeaderXRequestID, "req-123")
	if _, err := app.Test(req, -1); err != nil {
		t.Fatalf("request: %v", err)
	}

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if line["request_id"] != "req-123" || line["path"] != "/paises" || line["status"] != float64(200) {
		t.Fatalf("unexpected log line: %v", line)
	}
}

func TestRequestLogger_ErrorStatus(t *testing.T) {
	var buf bytes.Buffer
	defaultLogger = slog.New(slog.NewJSONHandler(&buf, nil))
	t.Cleanup(func() { defaultLogger = nil })

	app := fiber.New()
	app.Use(RequestLogger())
	app.Get("/boom", func(c *fiber.Ctx) error { return errors.New("db down") })
	app.Get("/denied", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusUnauthorized, "no token") })

	tests := []struct {
		path   string
		status int
		level  string
	}{
		{"/boom", 500, "ERROR"},
		{"/denied", 401, "INFO"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			buf.Reset()
			req, _ := http.NewRequest("GET", tt.path, nil)
			resp, err := app.Test(req, -1)
			if err != nil {
				t.Fatalf("request: %v", err)
			}
			if resp.StatusCode != tt.status {
				t.Fatalf("response status %d, want %d", resp.StatusCode, tt.status)
			}
			var line map[string]any
			if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
				t.Fatalf("decode log line %q: %v", buf.String(), err)
			}
			if line["level"] != tt.level || line["status"] != float64(tt.status) || line["error"] == nil {
				t.Fatalf("unexpected log line: %v", line)
			}
		})
	}
}

func TestInit_Levels(t *testing.T) {
	t.Cleanup(func() { defaultLogger = nil })
	Init("warn", "text")
	if Get().Enabled(context.Background(), slog.LevelInfo) {
		t.Fatal("info should be disabled at warn level")
	}
	if !Get().Enabled(context.Background(), slog.LevelWarn) {
		t.Fatal("warn should be enabled at warn level")
	}
}
