package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"

	"venue-backend/internal/config"
	"venue-backend/internal/metadata"
)

func testSQLiteStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(context.Background(), config.DatabaseConfig{
		Driver: "sqlite",
		Path:   t.TempDir(),
		Name:   "test",
	})
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func catalogRegistry(t *testing.T) *metadata.Registry {
	t.Helper()
	reg := metadata.NewRegistry()
	if err := reg.Load(metadata.Catalog()); err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	return reg
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name    string
		dialect Dialect
		err     error
		want    error
	}{
		{"postgres unique", &PostgresDialect{}, &pgconn.PgError{Code: "23505"}, ErrUniqueViolation},
		{"postgres foreign key", &PostgresDialect{}, &pgconn.PgError{Code: "23503"}, ErrForeignKeyViolation},
		{"postgres wrapped", &PostgresDialect{}, fmt.Errorf("exec: %w", &pgconn.PgError{Code: "23503"}), ErrForeignKeyViolation},
		{"sqlite unique", &SQLiteDialect{}, errors.New("constraint failed: UNIQUE constraint failed: evento_cuponera.id_evento (2067)"), ErrUniqueViolation},
		{"sqlite foreign key", &SQLiteDialect{}, errors.New("constraint failed: FOREIGN KEY constraint failed (787)"), ErrForeignKeyViolation},
		{"mysql duplicate", &MySQLDialect{}, &mysql.MySQLError{Number: 1062}, ErrUniqueViolation},
		{"mysql row referenced", &MySQLDialect{}, &mysql.MySQLError{Number: 1451}, ErrForeignKeyViolation},
		{"mysql no referenced row", &MySQLDialect{}, &mysql.MySQLError{Number: 1452}, ErrForeignKeyViolation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.dialect, tt.err)
			if !errors.Is(got, tt.want) {
				t.Fatalf("MapError() = %v, want %v", got, tt.want)
			}
		})
	}

	plain := errors.New("connection reset")
	for _, d := range []Dialect{&PostgresDialect{}, &SQLiteDialect{}, &MySQLDialect{}} {
		got := d.MapError(plain)
		if errors.Is(got, ErrUniqueViolation) || errors.Is(got, ErrForeignKeyViolation) {
			t.Errorf("%s: unrelated error mapped to a sentinel: %v", d.Name(), got)
		}
	}
}

func TestParamBuilders(t *testing.T) {
	tests := []struct {
		dialect Dialect
		want    string
	}{
		{&PostgresDialect{}, "id IN ($2, $3)"},
		{&SQLiteDialect{}, "id IN (?2, ?3)"},
		{&MySQLDialect{}, "id IN (?, ?)"},
	}
	for _, tt := range tests {
		pb := tt.dialect.NewParamBuilder()
		pb.Add("first")
		got := InExpr("id", pb, []any{int64(1), int64(2)})
		if got != tt.want {
			t.Errorf("%s: InExpr() = %q, want %q", tt.dialect.Name(), got, tt.want)
		}
		if len(pb.Params()) != 3 {
			t.Errorf("%s: expected 3 params, got %d", tt.dialect.Name(), len(pb.Params()))
		}
	}

	pb := (&PostgresDialect{}).NewParamBuilder()
	if got := InExpr("id", pb, nil); got != "1=0" {
		t.Errorf("empty InExpr() = %q, want 1=0", got)
	}
}

func TestNormalizeTypes(t *testing.T) {
	rows := []map[string]any{
		{"id": "7", "aforo": int64(300), "latitud": "4.5", "tipo_cliente": int64(1), "nombre": "Teatro"},
		{"id": int64(8), "aforo": nil, "latitud": float64(1), "tipo_cliente": "0", "nombre": "Sala"},
	}
	NormalizeTypes(rows, map[string]string{
		"id":           metadata.TypeInteger,
		"aforo":        metadata.TypeInteger,
		"latitud":      metadata.TypeNumeric,
		"tipo_cliente": metadata.TypeBoolean,
		"nombre":       metadata.TypeText,
	})

	if rows[0]["id"] != int64(7) {
		t.Errorf("id = %#v, want int64(7)", rows[0]["id"])
	}
	if rows[0]["latitud"] != 4.5 {
		t.Errorf("latitud = %#v, want 4.5", rows[0]["latitud"])
	}
	if rows[0]["tipo_cliente"] != true || rows[1]["tipo_cliente"] != false {
		t.Errorf("booleans not normalized: %#v, %#v", rows[0]["tipo_cliente"], rows[1]["tipo_cliente"])
	}
	if rows[1]["aforo"] != nil {
		t.Errorf("nil must stay nil, got %#v", rows[1]["aforo"])
	}
	if rows[0]["nombre"] != "Teatro" {
		t.Errorf("text column changed: %#v", rows[0]["nombre"])
	}
}

func TestCreateTableSQL_Association(t *testing.T) {
	reg := catalogRegistry(t)
	sql, err := CreateTableSQL(&PostgresDialect{}, reg, reg.GetEntity("evento_cuponera"))
	if err != nil {
		t.Fatalf("CreateTableSQL: %v", err)
	}
	for _, want := range []string{
		"id_evento BIGINT NOT NULL",
		"PRIMARY KEY (id_evento, id_cuponera)",
		"FOREIGN KEY (id_evento) REFERENCES evento(id)",
		"FOREIGN KEY (id_cuponera) REFERENCES cuponera(id)",
	} {
		if !strings.Contains(sql, want) {
			t.Errorf("missing %q in:\n%s", want, sql)
		}
	}
	if strings.Contains(sql, "BIGSERIAL") {
		t.Errorf("association must not get a surrogate key:\n%s", sql)
	}
}

func TestCreateTableSQL_Defaults(t *testing.T) {
	reg := catalogRegistry(t)
	sql, err := CreateTableSQL(&MySQLDialect{}, reg, reg.GetEntity("cupon"))
	if err != nil {
		t.Fatalf("CreateTableSQL: %v", err)
	}
	for _, want := range []string{
		"id BIGINT AUTO_INCREMENT PRIMARY KEY",
		"monto BIGINT DEFAULT 0",
		"porcentaje_descuento BIGINT DEFAULT 0",
		"FOREIGN KEY (id_tipo_cupon) REFERENCES tipo_cupon(id)",
	} {
		if !strings.Contains(sql, want) {
			t.Errorf("missing %q in:\n%s", want, sql)
		}
	}
}

func TestMigrateAndBootstrap_SQLite(t *testing.T) {
	ctx := context.Background()
	s := testSQLiteStore(t)
	reg := catalogRegistry(t)

	if err := NewMigrator(s).MigrateAll(ctx, reg); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	// second run is a no-op
	if err := NewMigrator(s).MigrateAll(ctx, reg); err != nil {
		t.Fatalf("re-migrate: %v", err)
	}

	for _, e := range reg.AllEntities() {
		ok, err := s.Dialect.TableExists(ctx, s.DB, e.Table)
		if err != nil || !ok {
			t.Fatalf("table %s missing (err=%v)", e.Table, err)
		}
	}

	cols, err := s.Dialect.GetColumns(ctx, s.DB, "auditorio")
	if err != nil {
		t.Fatalf("get columns: %v", err)
	}
	for _, c := range reg.GetEntity("auditorio").Columns() {
		if _, ok := cols[c]; !ok {
			t.Errorf("auditorio is missing column %s", c)
		}
	}

	// foreign keys are enforced
	_, err = s.DB.ExecContext(ctx, "INSERT INTO tribuna (nombre, id_auditorio) VALUES ('Norte', 999)")
	if !errors.Is(MapError(s.Dialect, err), ErrForeignKeyViolation) {
		t.Fatalf("expected foreign key violation, got %v", err)
	}

	if err := s.Bootstrap(ctx, "admin@localhost", "changeme"); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if err := s.Bootstrap(ctx, "admin@localhost", "changeme"); err != nil {
		t.Fatalf("second bootstrap: %v", err)
	}
	row, err := QueryRow(ctx, s.DB, "SELECT COUNT(*) AS count FROM _users")
	if err != nil {
		t.Fatalf("count users: %v", err)
	}
	if row["count"] != int64(1) {
		t.Fatalf("expected exactly one seeded admin, got %v", row["count"])
	}
}

func TestQueryRow_NotFound(t *testing.T) {
	s := testSQLiteStore(t)
	_, err := QueryRow(context.Background(), s.DB, "SELECT 1 AS one WHERE 1 = 0")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
