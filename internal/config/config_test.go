package config

import (
	"testing"
	"time"
)

func TestDSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  DatabaseConfig
		want string
	}{
		{"postgres", DatabaseConfig{Driver: "postgres", User: "u", Password: "p", Host: "db", Port: 5432, Name: "boleteria"},
			"postgres://u:p@db:5432/boleteria?sslmode=disable"},
		{"mysql", DatabaseConfig{Driver: "mysql", User: "u", Password: "p", Host: "db", Port: 3306, Name: "boleteria"},
			"u:p@tcp(db:3306)/boleteria?charset=utf8mb4"},
		{"sqlite", DatabaseConfig{Driver: "sqlite", Path: "/tmp/data", Name: "boleteria"},
			"/tmp/data/boleteria.db?_pragma=foreign_keys(1)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.DSN(); got != tt.want {
				t.Fatalf("DSN() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoad_DefaultsAndEnv(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("CACHE_TTL", "30s")
	t.Setenv("PAGINATION_PER_PAGE", "0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("driver = %q, want env override sqlite", cfg.Database.Driver)
	}
	if cfg.Cache.TTL != 30*time.Second {
		t.Errorf("cache ttl = %v, want 30s", cfg.Cache.TTL)
	}
	if cfg.Pagination.PerPage != 15 {
		t.Errorf("per_page = %d, want fallback 15", cfg.Pagination.PerPage)
	}
	if cfg.Server.Port != 8080 || cfg.Storage.Driver != "local" || cfg.Metrics.Path != "/metrics" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}
