// Package cli implements the gridline command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/gridline/internal/logging"
	"github.com/mesh-intelligence/gridline/internal/paths"
	"github.com/mesh-intelligence/gridline/pkg/sqlite"
	"github.com/mesh-intelligence/gridline/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// errUsage marks errors caused by bad arguments.
var errUsage = errors.New("usage")

func usageErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errUsage, fmt.Sprintf(format, args...))
}

// app holds the global flag values and the loaded configuration shared by
// every subcommand.
type app struct {
	configDir string
	dataDir   string
	jsonMode  bool
	logLevel  string

	resolvedConfigDir string
	cfg               *config
	log               *slog.Logger
}

// NewRootCmd creates the gridline command with its global flags and
// subcommands.
func NewRootCmd() *cobra.Command {
	a := &app{log: slog.Default()}
	root := &cobra.Command{
		Use:   "gridline",
		Short: "Filter, sort, page and group tabular records",
		Long: `gridline keeps a set of JSON records and shows them as a table.

Records live in records.jsonl in the data directory. The view command
runs the in-memory pipeline over every record; the query command asks
the SQLite store for one page at a time.`,
		Version:           Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configDir, "config-dir", "", "configuration directory (default: platform config dir, or $"+paths.EnvConfigDir+")")
	pf.StringVar(&a.dataDir, "data-dir", "", "data directory (default: $(CWD)/"+paths.DefaultDataDirName+", or $"+paths.EnvDataDir+")")
	pf.BoolVar(&a.jsonMode, "json", false, "output as JSON")
	pf.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error (default: $"+logging.EnvLevel+" or info)")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(a),
		newImportCmd(a),
		newExportCmd(a),
		newViewCmd(a),
		newQueryCmd(a),
		newAddCmd(a),
		newSetCmd(a),
		newDeleteCmd(a),
	)
	return root
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	return run(NewRootCmd(), os.Args[1:], os.Stderr)
}

func run(root *cobra.Command, args []string, stderr io.Writer) int {
	root.SetArgs(args)
	err := root.Execute()
	if err == nil {
		return exitSuccess
	}
	fmt.Fprintln(stderr, "gridline:", err)
	if isUserError(err) {
		return exitUserError
	}
	return exitSysError
}

func isUserError(err error) bool {
	for _, target := range []error{
		errUsage,
		types.ErrUnknownColumn,
		types.ErrInvalidPage,
		types.ErrDuplicateColumn,
		types.ErrEmptyColumnName,
		types.ErrUnknownAggregate,
		types.ErrNotFound,
		types.ErrInvalidID,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// setup configures logging and loads config.yaml before any subcommand.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	l, err := logging.Setup(a.logLevel)
	if err != nil {
		return usageErrorf("%v", err)
	}
	a.log = l

	dir, err := paths.ResolveConfigDir(a.configDir)
	if err != nil {
		return fmt.Errorf("resolving config dir: %w", err)
	}
	a.resolvedConfigDir = dir

	cfg, err := loadConfig(dir)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log.Debug("config loaded", "config_dir", dir, "columns", len(cfg.Columns))
	return nil
}

// resolveDataDir follows --data-dir > config.yaml data_dir >
// $GRIDLINE_DATA_DIR > $(CWD)/.gridline-db.
func (a *app) resolveDataDir() (string, error) {
	return paths.ResolveDataDir(a.dataDir, a.cfg.DataDir)
}

// openStore attaches the record store. The caller must Detach it.
func (a *app) openStore() (*sqlite.Store, error) {
	dataDir, err := a.resolveDataDir()
	if err != nil {
		return nil, fmt.Errorf("resolving data dir: %w", err)
	}
	s, err := sqlite.Open(types.Config{
		Backend:  a.cfg.Backend,
		DataDir:  dataDir,
		KeyField: a.cfg.KeyField,
	})
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	s.SetLogger(a.log)
	return s, nil
}
