package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/gridline/pkg/types"
)

// config.yaml keys.
const (
	cfgKeyBackend  = "backend"
	cfgKeyDataDir  = "data_dir"
	cfgKeyKeyField = "key_field"
	cfgKeySettings = "settings"
	cfgKeyColumns  = "columns"
)

// config is the content of config.yaml.
type config struct {
	Backend  string
	DataDir  string
	KeyField string
	Settings map[string]any
	Columns  []types.ColumnBase
}

// loadConfig reads config.yaml from dir. A missing file yields the
// defaults.
func loadConfig(dir string) (*config, error) {
	v := viper.New()
	v.SetDefault(cfgKeyBackend, types.BackendSQLite)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := &config{
		Backend:  v.GetString(cfgKeyBackend),
		DataDir:  v.GetString(cfgKeyDataDir),
		KeyField: v.GetString(cfgKeyKeyField),
		Settings: v.GetStringMap(cfgKeySettings),
	}
	if err := v.UnmarshalKey(cfgKeyColumns, &cfg.Columns); err != nil {
		return nil, fmt.Errorf("decoding columns: %w", err)
	}
	return cfg, nil
}

// settings returns the configured settings merged over the defaults.
func (c *config) settings() types.Settings {
	s := types.DefaultSettings()
	s.Merge(c.Settings)
	return s
}
