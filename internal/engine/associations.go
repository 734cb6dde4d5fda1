package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"venue-backend/internal/metadata"
	"venue-backend/internal/store"
)

// EnsureUnique reports whether no row of the association pairs fixed with varying.
func EnsureUnique(ctx context.Context, q store.Querier, d store.Dialect, entity *metadata.Entity, fixed, varying any) (bool, error) {
	n, err := countPair(ctx, q, d, entity, fixed, varying)
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

func countPair(ctx context.Context, q store.Querier, d store.Dialect, entity *metadata.Entity, fixed, varying any) (int64, error) {
	a := entity.Association
	qr := BuildCountSQL(d, entity,
		Condition{Field: a.Fixed, Value: fixed},
		Condition{Field: a.Varying, Value: varying},
	)
	row, err := store.QueryRow(ctx, q, qr.SQL, qr.Params...)
	if err != nil {
		return 0, fmt.Errorf("count %s pair: %w", entity.Name, err)
	}
	n, _ := toInteger(row["count"])
	return n, nil
}

func (e *Engine) existsMessage(entity *metadata.Entity, substitution bool) string {
	if substitution && entity.Messages.UpdateExists != "" {
		return entity.Messages.UpdateExists
	}
	if entity.Messages.Exists != "" {
		return entity.Messages.Exists
	}
	return fmt.Sprintf("%s ya existe", entity.Label)
}

// SubstituteKey replaces the varying key of every (fixedID, old) row with
// new. The old pair must exist, the fixed and new referenced rows must
// exist, and the new pair must not. old == new therefore always conflicts.
func (e *Engine) SubstituteKey(ctx context.Context, entity *metadata.Entity, fixedID int64, in Input) (rows []map[string]any, err error) {
	defer func(start time.Time) { e.observe(entity, metadata.OpUpdate, start, err) }(time.Now())

	a := entity.Association
	oldKey, newKey, verrs := validateKeyPair(a, in)
	if verrs != nil {
		return nil, ValidationError(verrs)
	}

	err = e.inTx(ctx, func(tx store.Querier) error {
		n, err := countPair(ctx, tx, e.store.Dialect, entity, fixedID, oldKey)
		if err != nil {
			return err
		}
		if n == 0 {
			return NotFoundError(pairNotFoundMessage(entity))
		}

		if err := ensureReferences(ctx, tx, e.store.Dialect, e.registry, entity, map[string]any{
			a.Fixed:   fixedID,
			a.Varying: newKey,
		}); err != nil {
			return err
		}

		unique, err := EnsureUnique(ctx, tx, e.store.Dialect, entity, fixedID, newKey)
		if err != nil {
			return err
		}
		if !unique {
			return ConflictError(e.existsMessage(entity, true))
		}

		upd := BuildUpdateSQL(e.store.Dialect, entity, map[string]any{a.Varying: newKey},
			Condition{Field: a.Fixed, Value: fixedID},
			Condition{Field: a.Varying, Value: oldKey},
		)
		if _, err := store.Exec(ctx, tx, upd.SQL, upd.Params...); err != nil {
			return e.writeError(entity, err, true)
		}

		rows, err = e.selectRows(ctx, tx, entity,
			Condition{Field: a.Fixed, Value: fixedID},
			Condition{Field: a.Varying, Value: newKey},
		)
		return err
	})
	if err != nil {
		return nil, err
	}
	e.notify(ctx, Change{Entity: entity.Name, Op: metadata.OpUpdate, Key: fixedID})
	return rows, nil
}

func pairNotFoundMessage(entity *metadata.Entity) string {
	if entity.Messages.PairNotFound != "" {
		return entity.Messages.PairNotFound
	}
	return entity.Messages.NotFound
}

// writeError maps storage failures that slipped past the pre-checks.
func (e *Engine) writeError(entity *metadata.Entity, err error, substitution bool) error {
	mapped := store.MapError(e.store.Dialect, err)
	switch {
	case errors.Is(mapped, store.ErrUniqueViolation):
		return ConflictError(e.existsMessage(entity, substitution))
	case errors.Is(mapped, store.ErrForeignKeyViolation):
		appErr := NotFoundError(fmt.Sprintf("%s: referencia inexistente", entity.Label))
		appErr.Diagnostic = err.Error()
		return appErr
	}
	return fmt.Errorf("write %s: %w", entity.Name, err)
}
