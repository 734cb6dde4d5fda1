package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Dialect abstracts database-specific SQL generation and behavior.
type Dialect interface {
	// Name returns "postgres", "sqlite" or "mysql".
	Name() string

	// DriverName returns the database/sql driver name.
	DriverName() string

	// NewParamBuilder creates a dialect-aware parameter builder.
	NewParamBuilder() ParamBuilder

	// ColumnType maps a generic column kind ("bigint", "float", "boolean",
	// "string") to the DDL type. size bounds string columns when > 0.
	ColumnType(kind string, size int) string

	// GeneratedKeyDef returns the column definition of an auto-generated
	// integer primary key.
	GeneratedKeyDef(column string) string

	// SupportsReturning reports whether INSERT ... RETURNING is available.
	SupportsReturning() bool

	// LowerExpr lowercases a text column, folding non-ASCII letters too.
	LowerExpr(column string) string

	// SystemTablesSQL returns the DDL statements for the auth tables.
	SystemTablesSQL() []string

	// TableExists checks whether a table exists.
	TableExists(ctx context.Context, db *sql.DB, tableName string) (bool, error)

	// GetColumns returns existing column names and types for a table.
	GetColumns(ctx context.Context, db *sql.DB, tableName string) (map[string]string, error)

	// MapError inspects a driver error and returns a well-known sentinel error if applicable.
	MapError(err error) error
}

// ParamBuilder accumulates query parameters and generates dialect-specific placeholders.
type ParamBuilder interface {
	// Add appends a value and returns the placeholder string.
	Add(v any) string

	// Params returns all accumulated parameter values.
	Params() []any
}

// NewDialect creates a Dialect for the given driver name.
func NewDialect(driver string) Dialect {
	switch driver {
	case "sqlite":
		return &SQLiteDialect{}
	case "mysql":
		return &MySQLDialect{}
	default:
		return &PostgresDialect{}
	}
}

// InExpr builds "field IN (p1, p2, ...)", expanding values into placeholders.
func InExpr(field string, pb ParamBuilder, values []any) string {
	if len(values) == 0 {
		return "1=0"
	}
	phs := make([]string, len(values))
	for i, v := range values {
		phs[i] = pb.Add(v)
	}
	return fmt.Sprintf("%s IN (%s)", field, strings.Join(phs, ", "))
}

// --- numbered placeholders ($1 for PostgreSQL, ?1 for SQLite) ---

type numberedParamBuilder struct {
	prefix string
	params []any
}

func (p *numberedParamBuilder) Add(v any) string {
	p.params = append(p.params, v)
	return fmt.Sprintf("%s%d", p.prefix, len(p.params))
}

func (p *numberedParamBuilder) Params() []any { return p.params }

// --- positional placeholders (MySQL) ---

type positionalParamBuilder struct {
	params []any
}

func (p *positionalParamBuilder) Add(v any) string {
	p.params = append(p.params, v)
	return "?"
}

func (p *positionalParamBuilder) Params() []any { return p.params }
