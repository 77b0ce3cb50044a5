package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/gridline/internal/manager"
	"github.com/mesh-intelligence/gridline/internal/table"
	"github.com/mesh-intelligence/gridline/internal/values"
	"github.com/mesh-intelligence/gridline/pkg/types"
)

// inferSample is how many records are read to guess columns when
// config.yaml declares none.
const inferSample = 100

// gridOptions are the query flags shared by view and query.
type gridOptions struct {
	filters  []string
	search   string
	sorts    []string
	groupBy  []string
	aggs     []string
	set      []string
	page     int
	pageSize int
}

func (o *gridOptions) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringArrayVarP(&o.filters, "filter", "f", nil, "column filter, repeatable: field=text, field==v, field!=v, field^=prefix, field~=a,b, field=lo..hi, field= (empty)")
	f.StringVarP(&o.search, "search", "s", "", "case-insensitive search over every visible column")
	f.StringArrayVar(&o.sorts, "sort", nil, "sort key, repeatable: field or field:desc")
	f.StringSliceVar(&o.groupBy, "group-by", nil, "group rows by these fields, in order")
	f.StringArrayVar(&o.aggs, "agg", nil, "column aggregate, repeatable: field=count|sum|min|max|average")
	f.StringArrayVar(&o.set, "set", nil, "settings override, repeatable: key=value")
	f.IntVarP(&o.page, "page", "p", 1, "page number")
	f.IntVar(&o.pageSize, "page-size", 0, "rows per page (default: settings pageSize)")
}

func newViewCmd(a *app) *cobra.Command {
	o := &gridOptions{}
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Show records, filtered and sorted in memory",
		Long: `View loads every record and runs the in-memory pipeline: filter, sort
with the group-by fields first, slice the page, then group and aggregate
the page.`,
		Example: `  gridline view --filter race==Nord --sort exp:desc
  gridline view --group-by race --agg exp=sum --page-size 20`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runGrid(cmd, o, false)
		},
	}
	o.register(cmd)
	return cmd
}

func newQueryCmd(a *app) *cobra.Command {
	o := &gridOptions{}
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Show one page of records, filtered and sorted by the store",
		Long: `Query hands filters, sort keys and the page to the SQLite store and
shows the page it returns. Grouping and aggregates cover that page only.`,
		Example: `  gridline query --filter exp=500.. --sort name --page 2`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runGrid(cmd, o, true)
		},
	}
	o.register(cmd)
	return cmd
}

func (a *app) runGrid(cmd *cobra.Command, o *gridOptions, remote bool) error {
	ctx := cmd.Context()
	settings, err := o.settings(a.cfg.settings(), remote)
	if err != nil {
		return err
	}

	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Detach()

	cols := slices.Clone(a.cfg.Columns)
	if len(cols) == 0 {
		sample, err := store.LoadItems(ctx, types.Query{Page: 1, PageSize: inferSample})
		if err != nil {
			return err
		}
		cols = inferColumns(sample.Items, store.KeyField())
	}
	if cols, err = applyAggregates(cols, o.aggs); err != nil {
		return err
	}

	t, err := table.New(cols, settings, table.WithLogger(a.log))
	if err != nil {
		return err
	}
	m := manager.New(t, store, manager.WithLogger(a.log))
	defer m.Close()

	// The local pipeline resets the query when rows arrive, so rows come
	// first there; the remote pipeline needs the query before it loads.
	if !remote {
		if err := m.LoadItems(ctx); err != nil {
			return err
		}
	}
	var qerr error
	m.Do(func(t *table.Table) { qerr = o.apply(t) })
	if qerr != nil {
		return qerr
	}
	if remote {
		if err := m.LoadItems(ctx); err != nil {
			return err
		}
	}
	return a.render(cmd, t)
}

// settings merges the overrides and flags over base.
func (o *gridOptions) settings(base types.Settings, remote bool) (types.Settings, error) {
	s := base.Clone()
	if len(o.set) > 0 {
		over, err := parseSettings(o.set)
		if err != nil {
			return s, err
		}
		s.Merge(over)
	}
	s.ClientSide = !remote
	if len(o.groupBy) > 0 {
		s.GroupRowsBy = slices.Clone(o.groupBy)
	}
	if len(o.sorts) > 1 {
		s.MultipleSort = true
	}
	if o.pageSize < 0 {
		return s, usageErrorf("--page-size must be positive")
	}
	if o.pageSize > 0 {
		s.PageSize = o.pageSize
	}
	return s, nil
}

func parseSettings(args []string) (map[string]any, error) {
	out := make(map[string]any, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, usageErrorf("expected key=value in --set, got %q", arg)
		}
		out[key] = value
	}
	return out, nil
}

// apply installs filters, search, sort and page on t, in that order, since
// a filter or sort change returns the pager to page 1.
func (o *gridOptions) apply(t *table.Table) error {
	for _, arg := range o.filters {
		field, meta, err := parseFilter(arg)
		if err != nil {
			return err
		}
		if col, ok := t.Columns().Get(field); ok && meta.Type == "" {
			meta.Type = col.Type
		}
		t.SetFilter(field, meta)
	}
	t.SetGlobalFilter(o.search)

	if len(o.sorts) > 0 {
		keys := make([]types.SortMeta, 0, len(o.sorts))
		for _, arg := range o.sorts {
			key, err := parseSort(arg)
			if err != nil {
				return err
			}
			if _, ok := t.Columns().Get(key.Field); !ok {
				return fmt.Errorf("sort %q: %w", key.Field, types.ErrUnknownColumn)
			}
			keys = append(keys, key)
		}
		t.SetSortMeta(keys)
	}

	if o.page != 1 {
		if err := t.SetPage(o.page); err != nil {
			return fmt.Errorf("page %d: %w", o.page, err)
		}
	}
	return nil
}

// filterOps are tried in order, so two-character operators win over "=".
var filterOps = []struct {
	op   string
	mode types.MatchMode
}{
	{"!=", types.MatchNotEquals},
	{"^=", types.MatchStartsWith},
	{"~=", types.MatchIn},
	{"==", types.MatchEquals},
	{"=", ""},
}

// parseFilter parses one --filter argument. "field=" matches empty values
// and "field!=" non-empty ones; "field=lo..hi" is an inclusive range where
// either bound may be omitted.
func parseFilter(arg string) (string, types.FilterMeta, error) {
	for _, fo := range filterOps {
		i := strings.Index(arg, fo.op)
		if i < 0 {
			continue
		}
		field, raw := strings.TrimSpace(arg[:i]), arg[i+len(fo.op):]
		if field == "" {
			break
		}
		return field, filterMeta(fo.mode, raw), nil
	}
	return "", types.FilterMeta{}, usageErrorf("bad filter %q", arg)
}

func filterMeta(mode types.MatchMode, raw string) types.FilterMeta {
	switch {
	case raw == "" && mode == "":
		return types.FilterMeta{MatchMode: types.MatchIsEmpty}
	case raw == "" && mode == types.MatchNotEquals:
		return types.FilterMeta{MatchMode: types.MatchIsNotEmpty}
	case mode == types.MatchIn:
		parts := strings.Split(raw, ",")
		opts := make([]any, len(parts))
		for i, p := range parts {
			opts[i] = parseValue(strings.TrimSpace(p))
		}
		return types.FilterMeta{Value: opts, MatchMode: types.MatchIn}
	case mode == "" && strings.Contains(raw, ".."):
		lo, hi, _ := strings.Cut(raw, "..")
		meta := types.FilterMeta{MatchMode: types.MatchBetween}
		if lo != "" {
			meta.Value = parseValue(lo)
		}
		if hi != "" {
			meta.ValueTo = parseValue(hi)
		}
		return meta
	case mode == types.MatchEquals || mode == types.MatchNotEquals:
		return types.FilterMeta{Value: parseValue(raw), MatchMode: mode}
	}
	return types.FilterMeta{Value: raw, MatchMode: mode}
}

// parseSort parses "field" or "field:asc|desc".
func parseSort(arg string) (types.SortMeta, error) {
	field, dir, _ := strings.Cut(arg, ":")
	if field == "" {
		return types.SortMeta{}, usageErrorf("bad sort %q", arg)
	}
	switch strings.ToLower(dir) {
	case "", "asc":
		return types.SortMeta{Field: field, Order: types.SortAsc}, nil
	case "desc":
		return types.SortMeta{Field: field, Order: types.SortDesc}, nil
	}
	return types.SortMeta{}, usageErrorf("bad sort direction %q", dir)
}

// applyAggregates sets the aggregate of each field=kind argument on its
// column.
func applyAggregates(cols []types.ColumnBase, args []string) ([]types.ColumnBase, error) {
	for _, arg := range args {
		field, kind, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, usageErrorf("expected field=kind in --agg, got %q", arg)
		}
		agg, ok := types.ParseAggregateType(kind)
		if !ok {
			return nil, usageErrorf("unknown aggregate %q", kind)
		}
		i := slices.IndexFunc(cols, func(c types.ColumnBase) bool { return c.Name == field })
		if i < 0 {
			return nil, fmt.Errorf("aggregate on %q: %w", field, types.ErrUnknownColumn)
		}
		cols[i].Aggregation = agg
	}
	return cols, nil
}

// inferColumns derives columns from records: the key field first, then the
// remaining fields by name. Types are guessed from the first non-empty
// value of each field.
func inferColumns(recs []map[string]any, keyField string) []types.ColumnBase {
	kinds := make(map[string]string)
	for _, rec := range recs {
		for field, v := range rec {
			if _, seen := kinds[field]; seen && kinds[field] != "" {
				continue
			}
			kinds[field] = guessType(v)
		}
	}

	names := make([]string, 0, len(kinds))
	for name := range kinds {
		if name != keyField {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	if _, ok := kinds[keyField]; ok {
		names = append([]string{keyField}, names...)
	}

	cols := make([]types.ColumnBase, len(names))
	for i, name := range names {
		cols[i] = types.ColumnBase{Name: name, Type: kinds[name]}
	}
	return cols
}

func guessType(v any) string {
	switch v.(type) {
	case nil:
		return ""
	case bool:
		return types.ColumnTypeBool
	case float64, int, int64:
		return types.ColumnTypeNumber
	case string:
		if values.IsEmpty(v) {
			return ""
		}
		if _, err := cast.ToFloat64E(v); err == nil {
			return types.ColumnTypeNumber
		}
	}
	return types.ColumnTypeText
}
