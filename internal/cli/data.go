package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/gridline/pkg/sqlite"
)

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Replace every record with the records of a JSONL file",
		Long: `Import reads one JSON object per line from FILE and replaces the stored
records with them, in file order. Lines that are not JSON objects are
skipped. Records without a key get a new ID.`,
		Example: "  gridline import players.jsonl",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			recs, err := sqlite.ReadRecords(args[0])
			if err != nil {
				return usageErrorf("reading %s: %v", args[0], err)
			}

			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Detach()

			n, err := store.Import(cmd.Context(), recs)
			if err != nil {
				return err
			}
			if a.jsonMode {
				return writeJSON(cmd.OutOrStdout(), map[string]int{"imported": n})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d record(s)\n", n)
			return nil
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export [FILE]",
		Short: "Write every record as JSONL",
		Long:  "Export writes the stored records to FILE, or to stdout when FILE is omitted.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Detach()

			recs, err := store.Records(cmd.Context())
			if err != nil {
				return err
			}
			if len(args) == 1 {
				if err := sqlite.WriteRecords(args[0], recs); err != nil {
					return err
				}
				a.log.Info("records exported", "file", args[0], "count", len(recs))
				return nil
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, rec := range recs {
				if err := enc.Encode(rec); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
