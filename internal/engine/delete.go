package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"venue-backend/internal/metadata"
	"venue-backend/internal/store"
)

// Delete removes one row by primary key and returns its last state. A row
// still referenced elsewhere is kept and reported as a constraint violation.
func (e *Engine) Delete(ctx context.Context, entity *metadata.Entity, id int64) (deleted map[string]any, err error) {
	defer func(start time.Time) { e.observe(entity, metadata.OpDelete, start, err) }(time.Now())

	rows, err := e.selectRows(ctx, e.store.DB, entity, pkCondition(entity, id))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, NotFoundError(entity.Messages.NotFound)
	}

	if err := e.deleteWhere(ctx, entity, pkCondition(entity, id)); err != nil {
		return nil, err
	}

	e.notify(ctx, Change{Entity: entity.Name, Op: metadata.OpDelete, Key: id})
	return rows[0], nil
}

// DeletePairs removes the association rows with the given fixed key, or only
// the (fixed, varying) pair when varying is set.
func (e *Engine) DeletePairs(ctx context.Context, entity *metadata.Entity, fixed int64, varying *int64) (deleted []map[string]any, err error) {
	defer func(start time.Time) { e.observe(entity, metadata.OpDelete, start, err) }(time.Now())

	a := entity.Association
	conds := []Condition{{Field: a.Fixed, Value: fixed}}
	notFound := entity.Messages.NotFound
	if varying != nil {
		conds = append(conds, Condition{Field: a.Varying, Value: *varying})
		notFound = pairNotFoundMessage(entity)
	}

	rows, err := e.selectRows(ctx, e.store.DB, entity, conds...)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, NotFoundError(notFound)
	}

	if err := e.deleteWhere(ctx, entity, conds...); err != nil {
		return nil, err
	}

	e.notify(ctx, Change{Entity: entity.Name, Op: metadata.OpDelete, Key: fixed})
	return rows, nil
}

func (e *Engine) deleteWhere(ctx context.Context, entity *metadata.Entity, conds ...Condition) error {
	qr := BuildDeleteSQL(e.store.Dialect, entity, conds...)
	if _, err := store.Exec(ctx, e.store.DB, qr.SQL, qr.Params...); err != nil {
		return translateDeleteError(e.store.Dialect, entity, err)
	}
	return nil
}

// translateDeleteError turns a foreign key rejection into a stable domain
// error. The raw storage error is logged, never returned to the caller.
func translateDeleteError(d store.Dialect, entity *metadata.Entity, err error) error {
	if !errors.Is(store.MapError(d, err), store.ErrForeignKeyViolation) {
		return fmt.Errorf("delete %s: %w", entity.Name, err)
	}
	msg := entity.Messages.DeleteBlocked
	if msg == "" {
		msg = fmt.Sprintf("%s no se puede eliminar, es usado en otra tabla", entity.Label)
	}
	slog.Warn("delete rejected by foreign key", "entity", entity.Name, "error", err)
	return ConstraintViolationError(msg, err)
}
