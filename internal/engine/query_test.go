package engine

import (
	"reflect"
	"strings"
	"testing"

	"venue-backend/internal/store"
)

func TestBuildSQL_Postgres(t *testing.T) {
	d := store.NewDialect("postgres")
	pais := catalogEntity(t, "pais")
	ec := catalogEntity(t, "evento_cuponera")

	tests := []struct {
		name   string
		qr     QueryResult
		sql    string
		params []any
	}{
		{
			"page",
			BuildPageSQL(d, pais, 2, 15),
			"SELECT id, nombre FROM pais ORDER BY id LIMIT $1 OFFSET $2",
			[]any{15, int64(15)},
		},
		{
			"search",
			BuildSearchSQL(d, pais, "CÓL"),
			"SELECT id, nombre FROM pais WHERE LOWER(nombre) LIKE $1 ORDER BY id",
			[]any{"%cól%"},
		},
		{
			"insert returning",
			BuildInsertSQL(d, pais, map[string]any{"nombre": "Colombia"}),
			"INSERT INTO pais (nombre) VALUES ($1) RETURNING id, nombre",
			[]any{"Colombia"},
		},
		{
			"association select",
			BuildSelectSQL(d, ec, Condition{Field: "id_evento", Value: int64(1)}),
			"SELECT id_evento, id_cuponera FROM evento_cuponera WHERE id_evento = $1 ORDER BY id_evento, id_cuponera",
			[]any{int64(1)},
		},
		{
			"pair count",
			BuildCountSQL(d, ec, Condition{Field: "id_evento", Value: 1}, Condition{Field: "id_cuponera", Value: 2}),
			"SELECT COUNT(*) AS count FROM evento_cuponera WHERE id_evento = $1 AND id_cuponera = $2",
			[]any{1, 2},
		},
		{
			"substitution",
			BuildUpdateSQL(d, ec, map[string]any{"id_cuponera": 3},
				Condition{Field: "id_evento", Value: 1}, Condition{Field: "id_cuponera", Value: 2}),
			"UPDATE evento_cuponera SET id_cuponera = $1 WHERE id_evento = $2 AND id_cuponera = $3",
			[]any{3, 1, 2},
		},
		{
			"delete",
			BuildDeleteSQL(d, pais, Condition{Field: "id", Value: 9}),
			"DELETE FROM pais WHERE id = $1",
			[]any{9},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.qr.SQL != tt.sql {
				t.Fatalf("sql:\n got %s\nwant %s", tt.qr.SQL, tt.sql)
			}
			if !reflect.DeepEqual(tt.qr.Params, tt.params) {
				t.Fatalf("params: got %#v, want %#v", tt.qr.Params, tt.params)
			}
		})
	}
}

func TestBuildInsertSQL_MySQL(t *testing.T) {
	d := store.NewDialect("mysql")
	cupon := catalogEntity(t, "cupon")
	qr := BuildInsertSQL(d, cupon, map[string]any{"status": "activo", "monto": int64(0), "id_cuponera": int64(1)})
	want := "INSERT INTO cupon (id_cuponera, monto, status) VALUES (?, ?, ?)"
	if qr.SQL != want {
		t.Fatalf("got %s, want %s", qr.SQL, want)
	}
}

func TestBuildSearchSQL_SQLiteFoldsUnicode(t *testing.T) {
	qr := BuildSearchSQL(store.NewDialect("sqlite"), catalogEntity(t, "auditorio"), "TOBÓN")
	if !strings.Contains(qr.SQL, "WHERE unicode_lower(nombre) LIKE ?1") {
		t.Fatalf("unexpected sql: %s", qr.SQL)
	}
	if !reflect.DeepEqual(qr.Params, []any{"%tobón%"}) {
		t.Fatalf("params: %#v", qr.Params)
	}
}

func TestNewPage(t *testing.T) {
	rows := make([]map[string]any, 5)
	p := newPage(rows, 3, 15, 35)
	if p.LastPage != 3 || p.PerPage != 15 || p.CurrentPage != 3 {
		t.Fatalf("unexpected page: %+v", p)
	}
	if *p.From != 31 || *p.To != 35 {
		t.Fatalf("from/to = %d/%d, want 31/35", *p.From, *p.To)
	}

	empty := newPage(nil, 4, 15, 35)
	if empty.From != nil || empty.To != nil || empty.Data == nil {
		t.Fatalf("page past the end should have no bounds and empty data: %+v", empty)
	}

	if lastPage(35, 15) != 3 || lastPage(0, 15) != 1 {
		t.Fatalf("lastPage(35) = %d, lastPage(0) = %d", lastPage(35, 15), lastPage(0, 15))
	}

	none := newPage(nil, 1, 15, 0)
	if none.LastPage != 1 {
		t.Fatalf("empty table has one page, got %d", none.LastPage)
	}
}
