//go:build integration

package engine_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"

	"venue-backend/internal/auth"
	"venue-backend/internal/config"
	"venue-backend/internal/engine"
	"venue-backend/internal/metadata"
	"venue-backend/internal/store"
)

// pgSetup runs the engine against the PostgreSQL named by DATABASE_* (see
// config.Load). Entity tables are dropped and recreated for every test.
func pgSetup(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	cfg.Database.Driver = "postgres"
	s, err := store.New(ctx, cfg.Database)
	if err != nil {
		t.Skipf("postgres unavailable: %v", err)
	}
	t.Cleanup(s.Close)

	reg := metadata.NewRegistry()
	if err := reg.Load(metadata.Catalog()); err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	entities := reg.AllEntities()
	for i := len(entities) - 1; i >= 0; i-- {
		seed(t, s, "DROP TABLE IF EXISTS "+entities[i].Table+" CASCADE")
	}
	if err := store.NewMigrator(s).MigrateAll(ctx, reg); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	rec := &recorder{}
	e := engine.NewEngine(s, reg, 15)
	e.Subscribe(rec)

	iss := auth.NewIssuer(testSecret)
	app := fiber.New(fiber.Config{ErrorHandler: engine.ErrorHandler})
	engine.RegisterEntityRoutes(app, e, engine.RouteOptions{Auth: auth.AuthMiddleware(iss)})
	token, err := iss.Issue(auth.Principal{ID: "tester", Roles: []string{"admin"}})
	if err != nil {
		t.Fatalf("token: %v", err)
	}

	seed(t, s,
		"INSERT INTO pais (nombre) VALUES ('Colombia')",
		"INSERT INTO departamento (nombre) VALUES ('Antioquia')",
		"INSERT INTO ciudad (nombre) VALUES ('Medellín')",
		"INSERT INTO cuponera (nombre) VALUES ('Temporada')",
		"INSERT INTO cuponera (nombre) VALUES ('Preventa')",
	)
	return &testEnv{app: app, store: s, token: token, events: rec}
}

func TestPostgres_DeleteRestrictedByForeignKey(t *testing.T) {
	env := pgSetup(t)
	id := int(env.createAuditorio(t, "Coliseo"))

	status, body := env.do(t, "POST", "/tribunas", map[string]any{"nombre": "Norte", "id_auditorio": id})
	if status != 201 {
		t.Fatalf("create tribuna: %d %v", status, body)
	}

	status, body = env.do(t, "DELETE", fmt.Sprintf("/auditorios/%d", id), nil)
	expectError(t, status, body, 409, "CONSTRAINT_VIOLATION", "El Auditorio no se puede eliminar, es usado en otra tabla")
	if n := env.count(t, "auditorio"); n != 1 {
		t.Fatalf("auditorio rows = %d, the row must remain", n)
	}
}

func TestPostgres_AssociationCompositeKey(t *testing.T) {
	env := pgSetup(t)
	aud := int(env.createAuditorio(t, "Movistar Arena"))
	seed(t, env.store, fmt.Sprintf("INSERT INTO evento (nombre, id_auditorio) VALUES ('Concierto', %d)", aud))

	pair := map[string]any{"id_evento": 1, "id_cuponera": 1}
	if status, body := env.do(t, "POST", "/evento-cuponera", pair); status != 201 {
		t.Fatalf("create pair: %d %v", status, body)
	}
	status, body := env.do(t, "POST", "/evento-cuponera", pair)
	expectError(t, status, body, 409, "CONFLICT", "Cuponera por evento ya existe")

	status, body = env.do(t, "PUT", "/evento-cuponera/1", map[string]any{"id_cuponera_old": 1, "id_cuponera_new": 2})
	if status != 200 {
		t.Fatalf("substitute: %d %v", status, body)
	}
	if n := env.count(t, "evento_cuponera"); n != 1 {
		t.Fatalf("evento_cuponera rows = %d, want 1", n)
	}
}

func TestPostgres_SearchIsCaseInsensitive(t *testing.T) {
	env := pgSetup(t)
	env.createAuditorio(t, "Teatro Pablo Tobón")
	env.createAuditorio(t, "Coliseo")

	status, body := env.do(t, "GET", "/auditorios/search?nombre=TEATRO", nil)
	if status != 200 || len(dataList(t, body)) != 1 {
		t.Fatalf("search: %d %v", status, body)
	}
}
