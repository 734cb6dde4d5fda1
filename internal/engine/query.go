package engine

import (
	"fmt"
	"sort"
	"strings"

	"venue-backend/internal/metadata"
	"venue-backend/internal/store"
)

type QueryResult struct {
	SQL    string
	Params []any
}

// Condition is an equality filter on one column.
type Condition struct {
	Field string
	Value any
}

func selectColumns(entity *metadata.Entity) string {
	return strings.Join(entity.Columns(), ", ")
}

func orderBy(entity *metadata.Entity) string {
	return " ORDER BY " + strings.Join(entity.OrderBy(), ", ")
}

func whereEquals(pb store.ParamBuilder, conds []Condition) string {
	if len(conds) == 0 {
		return ""
	}
	parts := make([]string, len(conds))
	for i, c := range conds {
		parts[i] = fmt.Sprintf("%s = %s", c.Field, pb.Add(c.Value))
	}
	return " WHERE " + strings.Join(parts, " AND ")
}

// BuildSelectSQL selects the rows matching every condition, in list order.
func BuildSelectSQL(d store.Dialect, entity *metadata.Entity, conds ...Condition) QueryResult {
	pb := d.NewParamBuilder()
	sql := fmt.Sprintf("SELECT %s FROM %s", selectColumns(entity), entity.Table)
	sql += whereEquals(pb, conds)
	sql += orderBy(entity)
	return QueryResult{SQL: sql, Params: pb.Params()}
}

// BuildPageSQL selects one 1-based page of rows.
// Callers bound page by the last page, so the offset cannot overflow.
func BuildPageSQL(d store.Dialect, entity *metadata.Entity, page, perPage int) QueryResult {
	pb := d.NewParamBuilder()
	sql := fmt.Sprintf("SELECT %s FROM %s", selectColumns(entity), entity.Table)
	sql += orderBy(entity)
	limit := pb.Add(perPage)
	offset := pb.Add(int64(page-1) * int64(perPage))
	sql += fmt.Sprintf(" LIMIT %s OFFSET %s", limit, offset)
	return QueryResult{SQL: sql, Params: pb.Params()}
}

// BuildCountSQL counts the rows matching every condition.
func BuildCountSQL(d store.Dialect, entity *metadata.Entity, conds ...Condition) QueryResult {
	pb := d.NewParamBuilder()
	sql := fmt.Sprintf("SELECT COUNT(*) AS count FROM %s", entity.Table)
	sql += whereEquals(pb, conds)
	return QueryResult{SQL: sql, Params: pb.Params()}
}

// BuildSearchSQL matches term as a case-insensitive substring of the
// entity's search field. The term is lowercased here and the column by the
// dialect, so accented capitals match.
func BuildSearchSQL(d store.Dialect, entity *metadata.Entity, term string) QueryResult {
	pb := d.NewParamBuilder()
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s LIKE %s",
		selectColumns(entity), entity.Table, d.LowerExpr(entity.SearchField), pb.Add("%"+strings.ToLower(term)+"%"))
	sql += orderBy(entity)
	return QueryResult{SQL: sql, Params: pb.Params()}
}

// BuildInsertSQL inserts values, returning the stored row where the
// dialect supports it. Columns are sorted for stable statements.
func BuildInsertSQL(d store.Dialect, entity *metadata.Entity, values map[string]any) QueryResult {
	pb := d.NewParamBuilder()
	cols := sortedKeys(values)
	phs := make([]string, len(cols))
	for i, col := range cols {
		phs[i] = pb.Add(values[col])
	}
	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		entity.Table, strings.Join(cols, ", "), strings.Join(phs, ", "))
	if d.SupportsReturning() {
		sql += " RETURNING " + selectColumns(entity)
	}
	return QueryResult{SQL: sql, Params: pb.Params()}
}

// BuildUpdateSQL sets values on the rows matching every condition.
func BuildUpdateSQL(d store.Dialect, entity *metadata.Entity, values map[string]any, conds ...Condition) QueryResult {
	pb := d.NewParamBuilder()
	cols := sortedKeys(values)
	sets := make([]string, len(cols))
	for i, col := range cols {
		sets[i] = fmt.Sprintf("%s = %s", col, pb.Add(values[col]))
	}
	sql := fmt.Sprintf("UPDATE %s SET %s", entity.Table, strings.Join(sets, ", "))
	sql += whereEquals(pb, conds)
	return QueryResult{SQL: sql, Params: pb.Params()}
}

// BuildDeleteSQL deletes the rows matching every condition.
func BuildDeleteSQL(d store.Dialect, entity *metadata.Entity, conds ...Condition) QueryResult {
	pb := d.NewParamBuilder()
	sql := "DELETE FROM " + entity.Table
	sql += whereEquals(pb, conds)
	return QueryResult{SQL: sql, Params: pb.Params()}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
