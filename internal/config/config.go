// Package config provides configuration management.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"opticost/adapters/ratesheet"
	"opticost/core/types"
	"opticost/internal/errors"
	"opticost/internal/logging"
)

// DefaultAPIKeyEnv is the environment variable holding the logistics API key
const DefaultAPIKeyEnv = "OPTICOST_LOGISTICS_API_KEY"

// Config is the main application configuration
type Config struct {
	// Version is the configuration version
	Version string `json:"version"`

	// Sources locates the rate sheets
	Sources SourcesConfig `json:"sources"`

	// Logistics configures the logistics lookup provider
	Logistics LogisticsConfig `json:"logistics"`

	// Server contains HTTP server settings
	Server ServerConfig `json:"server"`

	// Output contains output configuration
	Output OutputConfig `json:"output"`

	// Policy contains quoting policies not carried by the rate sheets
	Policy PolicyConfig `json:"policy"`

	// Logging contains logging configuration
	Logging logging.Config `json:"logging"`
}

// SourcesConfig locates the three rate sheets.
// Each entry is a local path (.csv or .xlsx) or an http(s) URL of a CSV export.
type SourcesConfig struct {
	// Variables is the global variables sheet
	Variables string `json:"variables"`

	// Transport is the region transport price sheet
	Transport string `json:"transport"`

	// Catalog is the model and ballast catalog sheet
	Catalog string `json:"catalog"`

	// TimeoutSeconds bounds remote sheet downloads
	TimeoutSeconds int `json:"timeout_seconds"`
}

// Sheets returns the sheet locations in the loader's form
func (s SourcesConfig) Sheets() ratesheet.Sources {
	return ratesheet.Sources{
		Variables: s.Variables,
		Transport: s.Transport,
		Catalog:   s.Catalog,
	}
}

// Timeout returns the download timeout for remote sheets
func (s SourcesConfig) Timeout() time.Duration {
	return seconds(s.TimeoutSeconds, 20)
}

// LogisticsConfig configures the logistics provider
type LogisticsConfig struct {
	// Endpoint is the HTTP endpoint of the lookup service; empty disables lookups
	Endpoint string `json:"endpoint,omitempty"`

	// APIKeyEnv names the environment variable holding the API key
	APIKeyEnv string `json:"api_key_env"`

	// TimeoutSeconds bounds a single lookup
	TimeoutSeconds int `json:"timeout_seconds"`
}

// APIKey reads the logistics API key from the environment
func (l LogisticsConfig) APIKey() string {
	name := l.APIKeyEnv
	if name == "" {
		name = DefaultAPIKeyEnv
	}
	return strings.TrimSpace(os.Getenv(name))
}

// Timeout returns the lookup timeout
func (l LogisticsConfig) Timeout() time.Duration {
	return seconds(l.TimeoutSeconds, 30)
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	// Address is the listen address
	Address string `json:"address"`

	// ReadTimeoutSeconds bounds reading a request
	ReadTimeoutSeconds int `json:"read_timeout_seconds"`

	// WriteTimeoutSeconds bounds writing a response
	WriteTimeoutSeconds int `json:"write_timeout_seconds"`

	// MaxBodyBytes limits request bodies
	MaxBodyBytes int64 `json:"max_body_bytes"`
}

// ReadTimeout returns the request read timeout
func (s ServerConfig) ReadTimeout() time.Duration {
	return seconds(s.ReadTimeoutSeconds, 15)
}

// WriteTimeout returns the response write timeout
func (s ServerConfig) WriteTimeout() time.Duration {
	return seconds(s.WriteTimeoutSeconds, 30)
}

// OutputConfig contains output-related settings
type OutputConfig struct {
	// DefaultFormat is the default output format
	DefaultFormat string `json:"default_format"`

	// NoColor disables ANSI colors in terminal output
	NoColor bool `json:"no_color"`

	// ShowSchedule prints the crew schedule narrative
	ShowSchedule bool `json:"show_schedule"`
}

// PolicyConfig contains quoting policies
type PolicyConfig struct {
	// ExternalCrew selects the external crew reimbursement policy
	ExternalCrew types.ExternalPolicy `json:"external_crew"`
}

// Default returns a default configuration
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	sheetDir := filepath.Join(homeDir, ".opticost", "sheets")

	return &Config{
		Version: "1.0",
		Sources: SourcesConfig{
			Variables:      filepath.Join(sheetDir, "variables.csv"),
			Transport:      filepath.Join(sheetDir, "transport.csv"),
			Catalog:        filepath.Join(sheetDir, "catalog.csv"),
			TimeoutSeconds: 20,
		},
		Logistics: LogisticsConfig{
			APIKeyEnv:      DefaultAPIKeyEnv,
			TimeoutSeconds: 30,
		},
		Server: ServerConfig{
			Address:             ":8080",
			ReadTimeoutSeconds:  15,
			WriteTimeoutSeconds: 30,
			MaxBodyBytes:        1 << 20,
		},
		Output: OutputConfig{
			DefaultFormat: "cli",
			ShowSchedule:  true,
		},
		Policy: PolicyConfig{
			ExternalCrew: types.ExternalPerDiemOnly,
		},
		Logging: logging.DefaultConfig(),
	}
}

// DefaultPath returns the default configuration file location
func DefaultPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".opticost", "config.json")
}

// Load loads configuration from a file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, errors.Config("read config "+path, err)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, errors.Config("decode config "+path, err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks values that cannot be defaulted
func (c *Config) Validate() error {
	if !c.Policy.ExternalCrew.IsValid() {
		return errors.Newf(errors.TypeConfig, "unknown external crew policy %q", c.Policy.ExternalCrew)
	}
	switch c.Output.DefaultFormat {
	case "", "cli", "json", "markdown", "xlsx":
	default:
		return errors.Newf(errors.TypeConfig, "unknown output format %q", c.Output.DefaultFormat)
	}
	if c.Server.MaxBodyBytes < 0 {
		return errors.New(errors.TypeConfig, "server.max_body_bytes must not be negative")
	}
	return nil
}

// Save saves configuration to a file
func (c *Config) Save(path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func seconds(n, fallback int) time.Duration {
	if n <= 0 {
		n = fallback
	}
	return time.Duration(n) * time.Second
}

// Global configuration instance
var globalConfig = Default()

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// Set sets the global configuration
func Set(config *Config) {
	globalConfig = config
}
