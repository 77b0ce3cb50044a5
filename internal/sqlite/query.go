package sqlite

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/mesh-intelligence/gridline/internal/filter"
	"github.com/mesh-intelligence/gridline/internal/values"
	"github.com/mesh-intelligence/gridline/pkg/types"
)

// LoadItems returns the page of records matching q and the number of
// records matching before paging. Filters follow the same match modes as
// the in-memory filter engine; records tie-break on stored order.
func (s *Store) LoadItems(ctx context.Context, q types.Query) (types.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.attached {
		return types.Result{}, types.ErrStoreDetached
	}

	where, args := buildWhere(q)

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM records"+where, args...).Scan(&total); err != nil {
		return types.Result{}, fmt.Errorf("counting records: %w", err)
	}

	query := "SELECT body FROM records" + where + buildOrder(q.SortMeta)
	if q.PageSize > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, q.PageSize, q.Offset())
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return types.Result{}, fmt.Errorf("loading records: %w", err)
	}
	defer rows.Close()

	items := []map[string]any{}
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return types.Result{}, fmt.Errorf("scanning record: %w", err)
		}
		rec, err := decodeRecord([]byte(body))
		if err != nil {
			return types.Result{}, fmt.Errorf("decoding record: %w", err)
		}
		items = append(items, rec)
	}
	if err := rows.Err(); err != nil {
		return types.Result{}, fmt.Errorf("iterating records: %w", err)
	}

	s.log.Debug("records loaded", "page", q.Page, "items", len(items), "total", total)
	return types.Result{Items: items, Total: total}, nil
}

// field returns the SQL expression reading field from a record body. The
// JSON path is inlined as a quoted literal so an expression can be used
// more than once in a condition.
func field(name string) string {
	path := `$."` + strings.ReplaceAll(name, `"`, `\"`) + `"`
	return "json_extract(body, '" + strings.ReplaceAll(path, "'", "''") + "')"
}

func buildWhere(q types.Query) (string, []any) {
	var (
		conds []string
		args  []any
	)

	// Sorted field order keeps the generated SQL stable.
	names := make([]string, 0, len(q.Filters))
	for name := range q.Filters {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		cond, condArgs := filterCondition(field(name), q.Filters[name])
		conds = append(conds, cond)
		args = append(args, condArgs...)
	}

	if text := strings.TrimSpace(q.GlobalFilter); text != "" {
		conds = append(conds, "EXISTS (SELECT 1 FROM json_each(records.body) AS j WHERE instr(lower(CAST(j.value AS TEXT)), lower(?)) > 0)")
		args = append(args, text)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// filterCondition translates one predicate. It mirrors filter.Match: text
// matches case-insensitively, numbers compare numerically, dates through
// datetime(), and ranges are inclusive with a nil bound left open.
func filterCondition(x string, meta types.FilterMeta) (string, []any) {
	switch meta.MatchMode {
	case types.MatchIsEmpty:
		return "(" + x + " IS NULL OR " + x + " = '')", nil
	case types.MatchIsNotEmpty:
		return "(" + x + " IS NOT NULL AND " + x + " <> '')", nil
	case types.MatchIn:
		opts, ok := meta.Value.([]any)
		if !ok {
			if strs, isStrs := meta.Value.([]string); isStrs {
				for _, s := range strs {
					opts = append(opts, s)
				}
			} else {
				opts = []any{meta.Value}
			}
		}
		if len(opts) == 0 {
			return "0", nil
		}
		var (
			parts []string
			args  []any
		)
		for _, opt := range opts {
			cond, a := equalsCondition(x, types.FilterMeta{Value: opt, Type: meta.Type})
			parts = append(parts, cond)
			args = append(args, a...)
		}
		return "(" + strings.Join(parts, " OR ") + ")", args
	case types.MatchNotEquals:
		cond, args := equalsCondition(x, meta)
		return "(" + x + " IS NULL OR NOT " + cond + ")", args
	}

	if meta.IsRange() {
		return rangeCondition(x, meta)
	}

	kind := filter.Kind(meta)
	if kind != types.ColumnTypeText || meta.MatchMode == types.MatchEquals {
		return equalsCondition(x, meta)
	}
	text := values.String(meta.Value)
	if meta.MatchMode == types.MatchStartsWith {
		return "instr(lower(CAST(" + x + " AS TEXT)), lower(?)) = 1", []any{text}
	}
	return "instr(lower(CAST(" + x + " AS TEXT)), lower(?)) > 0", []any{text}
}

func equalsCondition(x string, meta types.FilterMeta) (string, []any) {
	switch filter.Kind(meta) {
	case types.ColumnTypeNumber:
		if n, ok := values.Number(meta.Value); ok {
			return "(" + x + " <> '' AND CAST(" + x + " AS REAL) = ?)", []any{n}
		}
	case types.ColumnTypeDate:
		if t, ok := values.Time(meta.Value); ok {
			return "datetime(" + x + ") = datetime(?)", []any{t.UTC().Format(time.RFC3339)}
		}
	case types.ColumnTypeBool:
		if b, ok := values.Bool(meta.Value); ok {
			return x + " = ?", []any{boolInt(b)}
		}
	}
	return "lower(CAST(" + x + " AS TEXT)) = lower(?)", []any{values.String(meta.Value)}
}

func rangeCondition(x string, meta types.FilterMeta) (string, []any) {
	kind := filter.RangeKind(meta)
	expr := "CAST(" + x + " AS REAL)"
	bound := func(v any) (any, bool) {
		n, ok := values.Number(v)
		return n, ok
	}
	if kind == types.ColumnTypeDate {
		expr = "datetime(" + x + ")"
		bound = func(v any) (any, bool) {
			t, ok := values.Time(v)
			return t.UTC().Format(time.RFC3339), ok
		}
	}

	conds := []string{"(" + x + " IS NOT NULL AND " + x + " <> '')"}
	var args []any
	if v, ok := bound(meta.Value); ok {
		if kind == types.ColumnTypeDate {
			conds = append(conds, expr+" >= datetime(?)")
		} else {
			conds = append(conds, expr+" >= ?")
		}
		args = append(args, v)
	}
	if v, ok := bound(meta.ValueTo); ok {
		if kind == types.ColumnTypeDate {
			conds = append(conds, expr+" <= datetime(?)")
		} else {
			conds = append(conds, expr+" <= ?")
		}
		args = append(args, v)
	}
	return "(" + strings.Join(conds, " AND ") + ")", args
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// buildOrder sorts by the given keys, then by stored order.
func buildOrder(keys []types.SortMeta) string {
	parts := make([]string, 0, len(keys)+1)
	for _, k := range keys {
		dir := "ASC"
		if k.Order == types.SortDesc {
			dir = "DESC"
		}
		parts = append(parts, field(k.Field)+" "+dir)
	}
	parts = append(parts, "position ASC")
	return " ORDER BY " + strings.Join(parts, ", ")
}
