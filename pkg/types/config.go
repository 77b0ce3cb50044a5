package types

// Config holds backend selection and parameters for a data store Attach.
type Config struct {
	Backend  string `json:"backend" yaml:"backend" mapstructure:"backend"`
	DataDir  string `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`
	KeyField string `json:"key_field,omitempty" yaml:"key_field,omitempty" mapstructure:"key_field"`
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"
)

// DefaultKeyField is the record field that carries the store-assigned ID
// when Config.KeyField is empty.
const DefaultKeyField = "id"

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite: true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	return nil
}

// GetKeyField returns the configured key field or DefaultKeyField.
func (c Config) GetKeyField() string {
	if c.KeyField == "" {
		return DefaultKeyField
	}
	return c.KeyField
}
