// Store configuration and the remote API settings consumed by the upload
// pipeline.
package types

import (
	"errors"
	"strings"
)

// Config holds backend selection and parameters for Store.Attach.
type Config struct {
	Backend string `json:"backend" yaml:"backend" mapstructure:"backend"`
	DataDir string `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Config validation errors.
var (
	ErrBackendEmpty   = errors.New("backend must not be empty")
	ErrBackendUnknown = errors.New("unknown backend")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite: true,
	BackendMemory: true,
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

// LocalOnly is the API base value that selects the local queue instead of the
// network for every save.
const LocalOnly = "LOCAL_ONLY"

// APIConfig describes the remote upsert endpoint. Base is either LocalOnly or
// a URL prefix such as "/api" or "https://host".
type APIConfig struct {
	Base     string `json:"base" mapstructure:"base"`
	Language string `json:"language" mapstructure:"language"`
	Tenant   string `json:"tenant" mapstructure:"tenant"`
}

// IsLocalOnly reports whether saves must go to the local queue.
func (c APIConfig) IsLocalOnly() bool {
	base := strings.TrimSpace(c.Base)
	return base == LocalOnly || base == ""
}

// TenantRef returns the tenant as a nullable value; an empty tenant is sent
// as JSON null.
func (c APIConfig) TenantRef() *string {
	if c.Tenant == "" {
		return nil
	}
	t := c.Tenant
	return &t
}
