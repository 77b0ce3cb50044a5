package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/gridline/internal/table"
	"github.com/mesh-intelligence/gridline/internal/values"
	"github.com/mesh-intelligence/gridline/pkg/types"
)

// maxCellWidth truncates long cells in table output.
const maxCellWidth = 40

type gridOutput struct {
	Columns    []string         `json:"columns"`
	Rows       []map[string]any `json:"rows"`
	Total      int              `json:"total"`
	Page       int              `json:"page"`
	Pages      int              `json:"pages"`
	Groups     []groupOutput    `json:"groups,omitempty"`
	GrandTotal map[string]any   `json:"grandTotal,omitempty"`
}

type groupOutput struct {
	Name    string         `json:"name"`
	Index   int            `json:"index"`
	Size    int            `json:"size"`
	Summary map[string]any `json:"summary,omitempty"`
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// gridOf collects the visible state of t.
func gridOf(t *table.Table) gridOutput {
	cols := t.Columns().Prepared()
	out := gridOutput{
		Columns:    make([]string, len(cols)),
		Rows:       make([]map[string]any, 0, len(t.Rows())),
		Total:      t.View().Total,
		Page:       t.Pager().Current(),
		Pages:      t.Pager().PageCount(),
		GrandTotal: t.GrandTotalRow(),
	}
	for i, c := range cols {
		out.Columns[i] = c.Name
	}
	for pos, row := range t.Rows() {
		out.Rows = append(out.Rows, row.Record())
		if t.IsRowGroup(row, pos) {
			out.Groups = append(out.Groups, groupOutput{
				Name:    t.RowGroupName(row),
				Index:   pos,
				Size:    t.RowGroupSize(row),
				Summary: t.RowGroupSummary(row),
			})
		}
	}
	return out
}

func (a *app) render(cmd *cobra.Command, t *table.Table) error {
	if a.jsonMode {
		return writeJSON(cmd.OutOrStdout(), gridOf(t))
	}
	return renderText(cmd.OutOrStdout(), t)
}

// renderText prints the visible rows as aligned columns. A group header
// precedes each group and, with aggregates, a summary line follows it.
func renderText(w io.Writer, t *table.Table) error {
	rows := t.Rows()
	if len(rows) == 0 {
		fmt.Fprintln(w, "No records found.")
		return nil
	}

	cols := t.Columns().Prepared()
	var sb strings.Builder
	tw := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)

	titles := make([]string, len(cols))
	rules := make([]string, len(cols))
	for i, c := range cols {
		titles[i] = strings.ToUpper(c.Title)
		rules[i] = strings.Repeat("-", utf8.RuneCountInString(c.Title))
	}
	fmt.Fprintln(tw, strings.Join(titles, "\t"))
	fmt.Fprintln(tw, strings.Join(rules, "\t"))

	for pos, row := range rows {
		if t.IsRowGroup(row, pos) {
			fmt.Fprintf(tw, "[%s] (%d)\n", t.RowGroupName(row), t.RowGroupSize(row))
		}
		fmt.Fprintln(tw, strings.Join(cells(cols, row.Fields), "\t"))
		if t.IsRowGroupSummary(row, pos) {
			fmt.Fprintln(tw, strings.Join(summaryCells(cols, t.RowGroupSummary(row)), "\t"))
		}
	}
	if total := t.GrandTotalRow(); total != nil {
		fmt.Fprintln(tw, strings.Join(rules, "\t"))
		fmt.Fprintln(tw, strings.Join(summaryCells(cols, total), "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, line := range strings.Split(strings.TrimSuffix(sb.String(), "\n"), "\n") {
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}
	fmt.Fprintf(w, "Page %d of %d, %d record(s)\n", t.Pager().Current(), t.Pager().PageCount(), t.View().Total)
	return nil
}

func cells(cols []*types.Column, fields map[string]any) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = truncate(values.String(fields[c.Name]))
	}
	return out
}

// summaryCells renders aggregates as kind=value under their columns.
func summaryCells(cols []*types.Column, summary map[string]any) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		if v, ok := summary[c.Name]; ok && c.Aggregation != "" {
			out[i] = fmt.Sprintf("%s=%s", c.Aggregation, values.String(v))
		}
	}
	return out
}

func truncate(s string) string {
	if utf8.RuneCountInString(s) <= maxCellWidth {
		return s
	}
	r := []rune(s)
	return string(r[:maxCellWidth-3]) + "..."
}
