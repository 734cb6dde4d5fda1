package engine

import (
	"context"
	"fmt"
	"time"

	"venue-backend/internal/metadata"
	"venue-backend/internal/store"
)

const defaultPerPage = 15

// Engine runs the generic CRUD operations for every registered entity.
// It holds no per-request state.
type Engine struct {
	store     *store.Store
	registry  *metadata.Registry
	perPage   int
	listeners []ChangeListener
	recorder  Recorder
}

func NewEngine(s *store.Store, reg *metadata.Registry, perPage int) *Engine {
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	return &Engine{store: s, registry: reg, perPage: perPage, recorder: noopRecorder{}}
}

func (e *Engine) Registry() *metadata.Registry { return e.registry }

func (e *Engine) PerPage() int { return e.perPage }

func (e *Engine) inTx(ctx context.Context, fn func(q store.Querier) error) error {
	tx, err := e.store.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (e *Engine) selectRows(ctx context.Context, q store.Querier, entity *metadata.Entity, conds ...Condition) ([]map[string]any, error) {
	qr := BuildSelectSQL(e.store.Dialect, entity, conds...)
	rows, err := store.QueryRows(ctx, q, qr.SQL, qr.Params...)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", entity.Name, err)
	}
	store.NormalizeTypes(rows, entity.TypedColumns())
	return rows, nil
}

func (e *Engine) includes(ctx context.Context, entity *metadata.Entity, op metadata.Operation, rows []map[string]any) error {
	if err := LoadIncludes(ctx, e.store.DB, e.store.Dialect, e.registry, entity, rows, entity.IncludesFor(op)); err != nil {
		return fmt.Errorf("load includes: %w", err)
	}
	return nil
}

func pkCondition(entity *metadata.Entity, id int64) Condition {
	return Condition{Field: entity.PrimaryKey.Field, Value: id}
}

// List returns one page of rows with the relations declared for op
// (list or detail).
func (e *Engine) List(ctx context.Context, entity *metadata.Entity, op metadata.Operation, page int) (result *Page, err error) {
	defer func(start time.Time) { e.observe(entity, op, start, err) }(time.Now())

	if page < 1 {
		page = 1
	}

	cr := BuildCountSQL(e.store.Dialect, entity)
	countRow, err := store.QueryRow(ctx, e.store.DB, cr.SQL, cr.Params...)
	if err != nil {
		return nil, fmt.Errorf("count %s: %w", entity.Name, err)
	}
	total, _ := toInteger(countRow["count"])
	if int64(page) > lastPage(total, e.perPage) {
		return newPage(nil, page, e.perPage, total), nil
	}

	qr := BuildPageSQL(e.store.Dialect, entity, page, e.perPage)
	rows, err := store.QueryRows(ctx, e.store.DB, qr.SQL, qr.Params...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", entity.Name, err)
	}
	store.NormalizeTypes(rows, entity.TypedColumns())

	if err := e.includes(ctx, entity, op, rows); err != nil {
		return nil, err
	}
	return newPage(rows, page, e.perPage, total), nil
}

// All returns every row with the list relations.
func (e *Engine) All(ctx context.Context, entity *metadata.Entity) (rows []map[string]any, err error) {
	defer func(start time.Time) { e.observe(entity, metadata.OpAll, start, err) }(time.Now())

	rows, err = e.selectRows(ctx, e.store.DB, entity)
	if err != nil {
		return nil, err
	}
	if err := e.includes(ctx, entity, metadata.OpAll, rows); err != nil {
		return nil, err
	}
	return nonNil(rows), nil
}

// Search matches term as a case-insensitive substring of the search field.
// An empty term returns every row.
func (e *Engine) Search(ctx context.Context, entity *metadata.Entity, term string) (rows []map[string]any, err error) {
	defer func(start time.Time) { e.observe(entity, metadata.OpSearch, start, err) }(time.Now())

	if term == "" {
		rows, err = e.selectRows(ctx, e.store.DB, entity)
	} else {
		qr := BuildSearchSQL(e.store.Dialect, entity, term)
		rows, err = store.QueryRows(ctx, e.store.DB, qr.SQL, qr.Params...)
		if err == nil {
			store.NormalizeTypes(rows, entity.TypedColumns())
		}
	}
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", entity.Name, err)
	}
	if err := e.includes(ctx, entity, metadata.OpSearch, rows); err != nil {
		return nil, err
	}
	return nonNil(rows), nil
}

// Get returns one row by primary key with the get relations.
func (e *Engine) Get(ctx context.Context, entity *metadata.Entity, id int64) (row map[string]any, err error) {
	defer func(start time.Time) { e.observe(entity, metadata.OpGet, start, err) }(time.Now())

	rows, err := e.selectRows(ctx, e.store.DB, entity, pkCondition(entity, id))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, NotFoundError(entity.Messages.NotFound)
	}
	if err := e.includes(ctx, entity, metadata.OpGet, rows); err != nil {
		return nil, err
	}
	return rows[0], nil
}

// GetByFixedKey returns every association row with the given fixed key.
func (e *Engine) GetByFixedKey(ctx context.Context, entity *metadata.Entity, fixed int64) (rows []map[string]any, err error) {
	defer func(start time.Time) { e.observe(entity, metadata.OpGet, start, err) }(time.Now())

	rows, err = e.selectRows(ctx, e.store.DB, entity, Condition{Field: entity.Association.Fixed, Value: fixed})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, NotFoundError(entity.Messages.NotFound)
	}
	return rows, nil
}

// Create validates input, checks every reference and, for associations,
// pair uniqueness, then inserts. Checks and insert share one transaction.
func (e *Engine) Create(ctx context.Context, entity *metadata.Entity, in Input) (created map[string]any, err error) {
	defer func(start time.Time) { e.observe(entity, metadata.OpCreate, start, err) }(time.Now())

	values, verrs := validateRecord(entity, in, modeCreate)
	if verrs != nil {
		return nil, ValidationError(verrs)
	}

	err = e.inTx(ctx, func(tx store.Querier) error {
		if err := ensureReferences(ctx, tx, e.store.Dialect, e.registry, entity, values); err != nil {
			return err
		}

		if a := entity.Association; a != nil {
			unique, err := EnsureUnique(ctx, tx, e.store.Dialect, entity, values[a.Fixed], values[a.Varying])
			if err != nil {
				return err
			}
			if !unique {
				return ConflictError(e.existsMessage(entity, false))
			}
		}

		created, err = e.insert(ctx, tx, entity, values)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.notify(ctx, Change{Entity: entity.Name, Op: metadata.OpCreate, Key: recordKey(entity, created)})
	return created, nil
}

func (e *Engine) insert(ctx context.Context, tx store.Querier, entity *metadata.Entity, values map[string]any) (map[string]any, error) {
	d := e.store.Dialect
	qr := BuildInsertSQL(d, entity, values)

	if d.SupportsReturning() {
		row, err := store.QueryRow(ctx, tx, qr.SQL, qr.Params...)
		if err != nil {
			return nil, e.writeError(entity, err, false)
		}
		rows := []map[string]any{row}
		store.NormalizeTypes(rows, entity.TypedColumns())
		return row, nil
	}

	var conds []Condition
	if a := entity.Association; a != nil {
		if _, err := store.Exec(ctx, tx, qr.SQL, qr.Params...); err != nil {
			return nil, e.writeError(entity, err, false)
		}
		conds = []Condition{{Field: a.Fixed, Value: values[a.Fixed]}, {Field: a.Varying, Value: values[a.Varying]}}
	} else {
		id, err := store.ExecInsert(ctx, tx, qr.SQL, qr.Params...)
		if err != nil {
			return nil, e.writeError(entity, err, false)
		}
		conds = []Condition{pkCondition(entity, id)}
	}

	rows, err := e.selectRows(ctx, tx, entity, conds...)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("insert %s: row not readable after insert", entity.Name)
	}
	return rows[0], nil
}

// Update validates input, confirms the target exists and checks every
// reference being written, then rewrites the row. Absent or null
// KeepOnNull fields keep their stored value; other fields are replaced.
func (e *Engine) Update(ctx context.Context, entity *metadata.Entity, id int64, in Input) (updated map[string]any, err error) {
	defer func(start time.Time) { e.observe(entity, metadata.OpUpdate, start, err) }(time.Now())

	values, verrs := validateRecord(entity, in, modeUpdate)
	if verrs != nil {
		return nil, ValidationError(verrs)
	}

	err = e.inTx(ctx, func(tx store.Querier) error {
		rows, err := e.selectRows(ctx, tx, entity, pkCondition(entity, id))
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return NotFoundError(entity.Messages.NotFound)
		}

		if err := ensureReferences(ctx, tx, e.store.Dialect, e.registry, entity, values); err != nil {
			return err
		}

		if len(values) > 0 {
			qr := BuildUpdateSQL(e.store.Dialect, entity, values, pkCondition(entity, id))
			if _, err := store.Exec(ctx, tx, qr.SQL, qr.Params...); err != nil {
				return e.writeError(entity, err, false)
			}
		}

		rows, err = e.selectRows(ctx, tx, entity, pkCondition(entity, id))
		if err != nil {
			return err
		}
		updated = rows[0]
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.notify(ctx, Change{Entity: entity.Name, Op: metadata.OpUpdate, Key: id})
	return updated, nil
}

// recordKey identifies a row in change notifications.
func recordKey(entity *metadata.Entity, row map[string]any) any {
	if a := entity.Association; a != nil {
		return row[a.Fixed]
	}
	return row[entity.PrimaryKey.Field]
}

func nonNil(rows []map[string]any) []map[string]any {
	if rows == nil {
		return []map[string]any{}
	}
	return rows
}
