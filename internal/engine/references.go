package engine

import (
	"context"
	"fmt"

	"venue-backend/internal/metadata"
	"venue-backend/internal/store"
)

// EnsureExists reports whether target has a row with primary key id.
func EnsureExists(ctx context.Context, q store.Querier, d store.Dialect, target *metadata.Entity, id any) (bool, error) {
	pb := d.NewParamBuilder()
	sql := fmt.Sprintf("SELECT 1 AS found FROM %s WHERE %s = %s",
		target.Table, target.PrimaryKey.Field, pb.Add(id))
	rows, err := store.QueryRows(ctx, q, sql, pb.Params()...)
	if err != nil {
		return false, fmt.Errorf("check %s %v exists: %w", target.Name, id, err)
	}
	return len(rows) > 0, nil
}

// referenceMessage is the error returned when ref points at a missing row.
func referenceMessage(reg *metadata.Registry, ref metadata.Reference) string {
	if ref.Message != "" {
		return ref.Message
	}
	label := ref.Target
	if t := reg.GetEntity(ref.Target); t != nil && t.Label != "" {
		label = t.Label
	}
	return fmt.Sprintf("%s indicado no existe", label)
}

// ensureReferences checks every declared reference carried in values, in
// declaration order, and stops at the first missing row. Fields not being
// written or written as null are skipped.
func ensureReferences(ctx context.Context, q store.Querier, d store.Dialect, reg *metadata.Registry, entity *metadata.Entity, values map[string]any) error {
	for _, ref := range entity.References {
		v, ok := values[ref.Field]
		if !ok || v == nil {
			continue
		}
		target := reg.GetEntity(ref.Target)
		if target == nil {
			return fmt.Errorf("reference %s targets unknown entity %s", ref.Field, ref.Target)
		}
		found, err := EnsureExists(ctx, q, d, target, v)
		if err != nil {
			return err
		}
		if !found {
			return NotFoundError(referenceMessage(reg, ref))
		}
	}
	return nil
}
