package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/gridline/internal/manager"
	"github.com/mesh-intelligence/gridline/internal/table"
	"github.com/mesh-intelligence/gridline/pkg/sqlite"
	"github.com/mesh-intelligence/gridline/pkg/types"
)

// parseAssignments turns field=value arguments into a record. Values that
// parse as JSON keep their JSON type; anything else is a string.
func parseAssignments(args []string) (map[string]any, error) {
	rec := make(map[string]any, len(args))
	for _, arg := range args {
		field, raw, ok := strings.Cut(arg, "=")
		if !ok || field == "" {
			return nil, usageErrorf("expected field=value, got %q", arg)
		}
		rec[field] = parseValue(raw)
	}
	return rec, nil
}

func parseValue(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		return v
	}
	return raw
}

// recordSession is a remote table over the store, used to run single
// record edits through the data manager.
type recordSession struct {
	store *sqlite.Store
	mgr   *manager.Manager
	table *table.Table
}

func (a *app) openSession() (*recordSession, error) {
	store, err := a.openStore()
	if err != nil {
		return nil, err
	}
	settings := a.cfg.settings()
	settings.ClientSide = false
	t, err := table.New(a.cfg.Columns, settings, table.WithLogger(a.log))
	if err != nil {
		store.Detach()
		return nil, err
	}
	return &recordSession{
		store: store,
		mgr:   manager.New(t, store, manager.WithLogger(a.log)),
		table: t,
	}, nil
}

func (s *recordSession) Close() {
	s.mgr.Close()
	s.store.Detach()
}

// load places the record with the given ID in the table and returns its
// row.
func (s *recordSession) load(ctx context.Context, id string) (*types.Row, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("record %s: %w", id, err)
	}
	var row *types.Row
	s.mgr.Do(func(t *table.Table) {
		t.SetRows([]map[string]any{rec})
		row = t.Rows()[0]
	})
	return row, nil
}

func newAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "add FIELD=VALUE...",
		Short:   "Create a record",
		Example: `  gridline add name=Lydia race=Nord exp=300 active=true`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := parseAssignments(args)
			if err != nil {
				return err
			}
			s, err := a.openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			row, err := s.mgr.Create(cmd.Context(), rec)
			if err != nil {
				return err
			}
			return a.printRecord(cmd, row.Record(), s.store.KeyField(), "created")
		},
	}
}

func newSetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "set ID FIELD=VALUE...",
		Short:   "Change fields of a record",
		Example: `  gridline set 0190c2a4-... exp=450 note=null`,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch, err := parseAssignments(args[1:])
			if err != nil {
				return err
			}
			s, err := a.openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			row, err := s.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			s.mgr.Do(func(t *table.Table) {
				for field, v := range patch {
					row.Set(field, v)
				}
			})
			if err := s.mgr.SaveChanges(cmd.Context()); err != nil {
				return err
			}
			return a.printRecord(cmd, row.Record(), s.store.KeyField(), "updated")
		},
	}
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "delete ID",
		Aliases: []string{"rm"},
		Short:   "Delete a record",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			row, err := s.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := s.mgr.Delete(cmd.Context(), row); err != nil {
				return err
			}
			return a.printRecord(cmd, row.Record(), s.store.KeyField(), "deleted")
		},
	}
}

func (a *app) printRecord(cmd *cobra.Command, rec map[string]any, keyField, verb string) error {
	if a.jsonMode {
		return writeJSON(cmd.OutOrStdout(), rec)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %v\n", verb, rec[keyField])
	return nil
}
