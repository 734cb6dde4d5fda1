package store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"venue-backend/internal/metadata"
)

type Migrator struct {
	store *Store
}

func NewMigrator(store *Store) *Migrator {
	return &Migrator{store: store}
}

// MigrateAll migrates every registered entity in declaration order, so
// referenced tables exist before the foreign keys pointing at them.
func (m *Migrator) MigrateAll(ctx context.Context, reg *metadata.Registry) error {
	for _, entity := range reg.AllEntities() {
		if err := m.Migrate(ctx, reg, entity); err != nil {
			return err
		}
	}
	return nil
}

// Migrate ensures the table matches the entity metadata.
// Creates the table if it doesn't exist, or adds missing columns.
func (m *Migrator) Migrate(ctx context.Context, reg *metadata.Registry, entity *metadata.Entity) error {
	exists, err := m.store.Dialect.TableExists(ctx, m.store.DB, entity.Table)
	if err != nil {
		return fmt.Errorf("check table exists: %w", err)
	}

	if !exists {
		return m.createTable(ctx, reg, entity)
	}

	return m.alterTable(ctx, entity)
}

func (m *Migrator) createTable(ctx context.Context, reg *metadata.Registry, entity *metadata.Entity) error {
	sql, err := CreateTableSQL(m.store.Dialect, reg, entity)
	if err != nil {
		return err
	}
	if _, err := m.store.DB.ExecContext(ctx, sql); err != nil {
		return fmt.Errorf("create table %s: %w", entity.Table, err)
	}
	slog.Info("created table", "table", entity.Table)
	return nil
}

func (m *Migrator) alterTable(ctx context.Context, entity *metadata.Entity) error {
	existing, err := m.store.Dialect.GetColumns(ctx, m.store.DB, entity.Table)
	if err != nil {
		return fmt.Errorf("get columns for %s: %w", entity.Table, err)
	}

	for _, f := range entity.Fields {
		if _, ok := existing[f.Name]; ok {
			continue
		}
		// added columns stay nullable, existing rows have no value for them
		col := f.Name + " " + m.store.Dialect.ColumnType(f.ColumnKind(), f.MaxLength)
		if f.Default != nil {
			col += " DEFAULT " + defaultLiteral(f.Default)
		}
		sql := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", entity.Table, col)
		if _, err := m.store.DB.ExecContext(ctx, sql); err != nil {
			return fmt.Errorf("add column %s.%s: %w", entity.Table, f.Name, err)
		}
		slog.Info("added column", "table", entity.Table, "column", f.Name)
	}

	return nil
}

// CreateTableSQL renders the CREATE TABLE statement for an entity: declared
// columns, a foreign key per reference and, for associations, the composite
// primary key that makes every pair unique.
func CreateTableSQL(d Dialect, reg *metadata.Registry, entity *metadata.Entity) (string, error) {
	var cols []string

	if entity.PrimaryKey.Field != "" && !entity.HasField(entity.PrimaryKey.Field) {
		if entity.PrimaryKey.Generated {
			cols = append(cols, d.GeneratedKeyDef(entity.PrimaryKey.Field))
		} else {
			cols = append(cols, entity.PrimaryKey.Field+" "+d.ColumnType("bigint", 0)+" PRIMARY KEY")
		}
	}

	for i := range entity.Fields {
		cols = append(cols, buildColumnDef(d, &entity.Fields[i]))
	}

	if a := entity.Association; a != nil {
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s, %s)", a.Fixed, a.Varying))
	}

	for _, ref := range entity.References {
		target := reg.GetEntity(ref.Target)
		if target == nil {
			return "", fmt.Errorf("entity %s: reference %s targets unknown entity %s", entity.Name, ref.Field, ref.Target)
		}
		cols = append(cols, fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s(%s)",
			ref.Field, target.Table, target.PrimaryKey.Field))
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n)", entity.Table, strings.Join(cols, ",\n  ")), nil
}

func buildColumnDef(d Dialect, f *metadata.Field) string {
	col := f.Name + " " + d.ColumnType(f.ColumnKind(), f.MaxLength)

	if f.Required && !f.Nullable {
		col += " NOT NULL"
	}

	if f.Default != nil {
		col += " DEFAULT " + defaultLiteral(f.Default)
	}

	return col
}

func defaultLiteral(v any) string {
	switch val := v.(type) {
	case string:
		return "'" + strings.ReplaceAll(val, "'", "''") + "'"
	case bool:
		if val {
			return "1"
		}
		return "0"
	default:
		return fmt.Sprintf("%v", val)
	}
}
