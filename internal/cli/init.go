package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/gridline/internal/paths"
	"github.com/mesh-intelligence/gridline/pkg/types"
)

// configFile is the layout written to a fresh config.yaml.
type configFile struct {
	Backend  string             `yaml:"backend"`
	DataDir  string             `yaml:"data_dir,omitempty"`
	KeyField string             `yaml:"key_field,omitempty"`
	Settings map[string]any     `yaml:"settings"`
	Columns  []types.ColumnBase `yaml:"columns,omitempty"`
}

func newInitCmd(a *app) *cobra.Command {
	var keyField string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the config file and the data directory",
		Long: `Init writes a default config.yaml into the config directory, unless one
exists, and creates an empty record store in the data directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInit(cmd, keyField)
		},
	}
	cmd.Flags().StringVar(&keyField, "key-field", "", "record field holding each record's ID (default: id)")
	return cmd
}

func (a *app) runInit(cmd *cobra.Command, keyField string) error {
	if err := os.MkdirAll(a.resolvedConfigDir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	path := paths.ConfigFile(a.resolvedConfigDir)
	written, err := writeConfigIfMissing(path, configFile{
		Backend:  types.BackendSQLite,
		DataDir:  a.dataDir,
		KeyField: keyField,
		Settings: map[string]any{
			"clientSide":    true,
			"pageSize":      types.DefaultPageSize,
			"selectionType": string(types.SelectionSingle),
		},
	})
	if err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if written {
		if a.cfg, err = loadConfig(a.resolvedConfigDir); err != nil {
			return err
		}
	}

	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Detach()

	dataDir, _ := a.resolveDataDir()
	a.log.Info("initialized", "config", path, "data_dir", dataDir)
	if a.jsonMode {
		return writeJSON(cmd.OutOrStdout(), map[string]any{"config": path, "data_dir": dataDir})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "gridline initialized\nconfig: %s\ndata: %s\n", path, dataDir)
	return nil
}

// writeConfigIfMissing writes cfg to path unless the file exists. It
// reports whether it wrote.
func writeConfigIfMissing(path string, cfg configFile) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, err
	}
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	return true, os.WriteFile(path, data, 0o644)
}
