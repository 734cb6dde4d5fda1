package instrument

import (
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"venue-backend/internal/engine"
)

func TestMetrics_RecordsRoutesAndOperations(t *testing.T) {
	m := NewMetrics()

	app := fiber.New(fiber.Config{ErrorHandler: engine.ErrorHandler})
	app.Use(m.Middleware())
	app.Get("/metrics", m.Handler())
	app.Get("/auditorios/:id", func(c *fiber.Ctx) error {
		if c.Params("id") == "0" {
			return engine.NotFoundError("Auditorio no encontrado")
		}
		return c.JSON(fiber.Map{"success": true})
	})

	for _, path := range []string{"/auditorios/1", "/auditorios/2", "/auditorios/0"} {
		req, _ := http.NewRequest("GET", path, nil)
		if _, err := app.Test(req, -1); err != nil {
			t.Fatalf("request %s: %v", path, err)
		}
	}
	m.ObserveOperation("auditorio", "get", "ok", 3*time.Millisecond)

	req, _ := http.NewRequest("GET", "/metrics", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	raw, _ := io.ReadAll(resp.Body)
	body := string(raw)

	for _, want := range []string{
		`venue_http_requests_total{method="GET",route="/auditorios/:id",status="200"} 2`,
		`venue_http_requests_total{method="GET",route="/auditorios/:id",status="404"} 1`,
		`venue_engine_operations_total{entity="auditorio",op="get",outcome="ok"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("scrape output misses %s", want)
		}
	}
}
