package engine

import (
	"context"
	"time"

	"venue-backend/internal/metadata"
)

// NestedView returns the record together with every row reached through
// its two-step Nested relation path, e.g. an auditorio with the localidades
// of all its tribunas, as [{<entity>: row, <leaf>: rows}].
func (e *Engine) NestedView(ctx context.Context, entity *metadata.Entity, id int64) (view []map[string]any, err error) {
	defer func(start time.Time) { e.observe(entity, metadata.OpGet, start, err) }(time.Now())

	rows, err := e.selectRows(ctx, e.store.DB, entity, pkCondition(entity, id))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, NotFoundError(entity.Messages.NotFound)
	}

	via := entity.GetRelation(entity.Nested[0])
	middle := e.registry.GetEntity(via.Target)
	leaf := entity.Nested[1]

	mids, err := e.selectRows(ctx, e.store.DB, middle, Condition{Field: via.ForeignKey, Value: id})
	if err != nil {
		return nil, err
	}
	if len(mids) == 0 {
		return nil, NotFoundError(entity.Messages.NestedEmpty)
	}
	if err := LoadIncludes(ctx, e.store.DB, e.store.Dialect, e.registry, middle, mids, []string{leaf}); err != nil {
		return nil, err
	}

	leaves := []map[string]any{}
	for _, m := range mids {
		if children, ok := m[leaf].([]map[string]any); ok {
			leaves = append(leaves, children...)
		}
	}

	return []map[string]any{{entity.Name: rows[0], leaf: leaves}}, nil
}
