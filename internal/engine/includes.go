package engine

import (
	"context"
	"fmt"

	"venue-backend/internal/metadata"
	"venue-backend/internal/store"
)

// LoadIncludes fetches related data and attaches it to the parent rows.
func LoadIncludes(ctx context.Context, q store.Querier, d store.Dialect, reg *metadata.Registry, entity *metadata.Entity, rows []map[string]any, includes []string) error {
	if len(rows) == 0 || len(includes) == 0 {
		return nil
	}

	for _, incName := range includes {
		rel := entity.GetRelation(incName)
		if rel == nil {
			continue
		}
		target := reg.GetEntity(rel.Target)
		if target == nil {
			return fmt.Errorf("unknown target entity: %s", rel.Target)
		}

		var err error
		switch rel.Kind {
		case metadata.BelongsTo:
			err = loadBelongsTo(ctx, q, d, target, rel, rows)
		case metadata.HasMany:
			err = loadHasMany(ctx, q, d, entity, target, rel, rows)
		case metadata.Through:
			err = loadThrough(ctx, q, d, reg, entity, target, rel, rows)
		}
		if err != nil {
			return fmt.Errorf("load include %s: %w", incName, err)
		}
	}

	return nil
}

func queryByKeys(ctx context.Context, q store.Querier, d store.Dialect, entity *metadata.Entity, column string, keys []any) ([]map[string]any, error) {
	pb := d.NewParamBuilder()
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s", selectColumns(entity), entity.Table, store.InExpr(column, pb, keys))
	sql += orderBy(entity)
	rows, err := store.QueryRows(ctx, q, sql, pb.Params()...)
	if err != nil {
		return nil, err
	}
	store.NormalizeTypes(rows, entity.TypedColumns())
	return rows, nil
}

// loadBelongsTo attaches the row referenced by LocalKey, or nil.
func loadBelongsTo(ctx context.Context, q store.Querier, d store.Dialect, target *metadata.Entity, rel *metadata.Relation, rows []map[string]any) error {
	fkValues := collectValues(rows, rel.LocalKey)
	if len(fkValues) == 0 {
		for _, row := range rows {
			row[rel.Name] = nil
		}
		return nil
	}

	parents, err := queryByKeys(ctx, q, d, target, target.PrimaryKey.Field, fkValues)
	if err != nil {
		return err
	}

	byPK := make(map[string]map[string]any, len(parents))
	for _, p := range parents {
		byPK[keyString(p[target.PrimaryKey.Field])] = p
	}

	for _, row := range rows {
		if p, ok := byPK[keyString(row[rel.LocalKey])]; ok {
			row[rel.Name] = p
		} else {
			row[rel.Name] = nil
		}
	}
	return nil
}

// loadHasMany attaches every target row whose ForeignKey holds the parent key.
func loadHasMany(ctx context.Context, q store.Querier, d store.Dialect, parent, target *metadata.Entity, rel *metadata.Relation, rows []map[string]any) error {
	pkField := parent.PrimaryKey.Field
	parentIDs := collectValues(rows, pkField)

	grouped := make(map[string][]map[string]any)
	if len(parentIDs) > 0 {
		children, err := queryByKeys(ctx, q, d, target, rel.ForeignKey, parentIDs)
		if err != nil {
			return err
		}
		for _, child := range children {
			fk := keyString(child[rel.ForeignKey])
			grouped[fk] = append(grouped[fk], child)
		}
	}

	for _, row := range rows {
		if children, ok := grouped[keyString(row[pkField])]; ok {
			row[rel.Name] = children
		} else {
			row[rel.Name] = []map[string]any{}
		}
	}
	return nil
}

// loadThrough attaches target rows paired with the parent in the join entity.
func loadThrough(ctx context.Context, q store.Querier, d store.Dialect, reg *metadata.Registry, parent, target *metadata.Entity, rel *metadata.Relation, rows []map[string]any) error {
	join := reg.GetEntity(rel.Join)
	if join == nil {
		return fmt.Errorf("unknown join entity: %s", rel.Join)
	}

	pkField := parent.PrimaryKey.Field
	empty := func() {
		for _, row := range rows {
			row[rel.Name] = []map[string]any{}
		}
	}

	parentIDs := collectValues(rows, pkField)
	if len(parentIDs) == 0 {
		empty()
		return nil
	}

	joinRows, err := queryByKeys(ctx, q, d, join, rel.SourceJoinKey, parentIDs)
	if err != nil {
		return fmt.Errorf("load join table %s: %w", join.Table, err)
	}
	if len(joinRows) == 0 {
		empty()
		return nil
	}

	targetIDs := collectValues(joinRows, rel.TargetJoinKey)
	targetRows, err := queryByKeys(ctx, q, d, target, target.PrimaryKey.Field, targetIDs)
	if err != nil {
		return err
	}

	targetByPK := make(map[string]map[string]any, len(targetRows))
	for _, tr := range targetRows {
		targetByPK[keyString(tr[target.PrimaryKey.Field])] = tr
	}

	sourceToTargets := make(map[string][]map[string]any)
	for _, jr := range joinRows {
		sid := keyString(jr[rel.SourceJoinKey])
		if t, ok := targetByPK[keyString(jr[rel.TargetJoinKey])]; ok {
			sourceToTargets[sid] = append(sourceToTargets[sid], t)
		}
	}

	for _, row := range rows {
		if targets, ok := sourceToTargets[keyString(row[pkField])]; ok {
			row[rel.Name] = targets
		} else {
			row[rel.Name] = []map[string]any{}
		}
	}
	return nil
}

func collectValues(rows []map[string]any, field string) []any {
	seen := make(map[string]bool)
	var values []any
	for _, row := range rows {
		v := row[field]
		if v == nil {
			continue
		}
		s := keyString(v)
		if !seen[s] {
			seen[s] = true
			values = append(values, v)
		}
	}
	return values
}

func keyString(v any) string {
	return fmt.Sprintf("%v", v)
}
