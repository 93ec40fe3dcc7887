package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for IoTorch.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Links     LinksConfig     `yaml:"links"`
	Mctpd     MctpdConfig     `yaml:"mctpd"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	API       APIConfig       `yaml:"api"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// LinksConfig contains serial link provisioning settings.
type LinksConfig struct {
	// MctpBinary is the path to the mctp command-line tool.
	// Default: "mctp" (resolved via PATH)
	MctpBinary string `yaml:"mctp_binary"`

	// PollInterval is how often to re-read the interface list while
	// waiting for a newly bound interface to appear.
	// Default: 100ms. Must not exceed 100ms.
	PollInterval time.Duration `yaml:"poll_interval"`

	// WaitTimeout bounds the wait for a newly bound interface.
	// Default: 2s. Must not exceed 2s.
	WaitTimeout time.Duration `yaml:"wait_timeout"`

	// GracefulTimeout is how long to wait for the link binder process to
	// exit after SIGTERM before it is killed.
	// Default: 2s
	GracefulTimeout time.Duration `yaml:"graceful_timeout"`
}

// MctpdConfig contains settings for the external mctpd daemon.
type MctpdConfig struct {
	// ConfPath is the path to the mctpd configuration file. IoTorch reads
	// the dynamic_eid_range declaration from it; the file is never written.
	// Default: "/etc/mctpd.conf". The CLI's positional argument overrides it.
	ConfPath string `yaml:"conf_path"`

	// UnitName is the systemd unit controlling mctpd.
	// Default: "mctpd.service"
	UnitName string `yaml:"unit_name"`

	// Systemctl is the path to the systemctl binary.
	// Default: "systemctl" (resolved via PATH)
	Systemctl string `yaml:"systemctl"`

	// CommandTimeout bounds each systemctl invocation.
	// Default: 10s
	CommandTimeout time.Duration `yaml:"command_timeout"`
}

// DiscoveryConfig contains endpoint discovery stabilization settings.
type DiscoveryConfig struct {
	// PollInterval is the delay between discovery polls while waiting for
	// the endpoint count to stabilize.
	// Default: 1s
	PollInterval time.Duration `yaml:"poll_interval"`

	// StabilizeTimeout bounds the stabilization wait.
	// Default: 30s
	StabilizeTimeout time.Duration `yaml:"stabilize_timeout"`
}

// APIConfig contains HTTP status API settings.
type APIConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`

	// ReadTimeoutSeconds and WriteTimeoutSeconds are HTTP server timeouts.
	ReadTimeoutSeconds  int `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int `yaml:"write_timeout_seconds"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: IOTORCH_SECTION_KEY
// For example: IOTORCH_MCTPD_CONF, IOTORCH_LOG_LEVEL
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Defaults returns a Config with sensible defaults. Used directly when no
// configuration file is present.
func Defaults() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Links: LinksConfig{
			MctpBinary:      "mctp",
			PollInterval:    100 * time.Millisecond,
			WaitTimeout:     2 * time.Second,
			GracefulTimeout: 2 * time.Second,
		},
		Mctpd: MctpdConfig{
			ConfPath:       "/etc/mctpd.conf",
			UnitName:       "mctpd.service",
			Systemctl:      "systemctl",
			CommandTimeout: 10 * time.Second,
		},
		Discovery: DiscoveryConfig{
			PollInterval:     time.Second,
			StabilizeTimeout: 30 * time.Second,
		},
		API: APIConfig{
			Enabled:             false,
			Host:                "127.0.0.1",
			Port:                8731,
			ReadTimeoutSeconds:  15,
			WriteTimeoutSeconds: 60,
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: IOTORCH_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("IOTORCH_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("IOTORCH_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("IOTORCH_MCTP_BINARY"); v != "" {
		cfg.Links.MctpBinary = v
	}
	if v := os.Getenv("IOTORCH_MCTPD_CONF"); v != "" {
		cfg.Mctpd.ConfPath = v
	}
	if v := os.Getenv("IOTORCH_MCTPD_UNIT"); v != "" {
		cfg.Mctpd.UnitName = v
	}
	if v := os.Getenv("IOTORCH_API_HOST"); v != "" {
		cfg.API.Host = v
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	if c.Links.MctpBinary == "" {
		errs = append(errs, "links.mctp_binary is required")
	}
	if c.Links.PollInterval <= 0 || c.Links.PollInterval > 100*time.Millisecond {
		errs = append(errs, "links.poll_interval must be positive and at most 100ms")
	}
	if c.Links.WaitTimeout <= 0 || c.Links.WaitTimeout > 2*time.Second {
		errs = append(errs, "links.wait_timeout must be positive and at most 2s")
	}

	if c.Mctpd.ConfPath == "" {
		errs = append(errs, "mctpd.conf_path is required")
	}
	if c.Mctpd.UnitName == "" {
		errs = append(errs, "mctpd.unit_name is required")
	}
	if c.Mctpd.Systemctl == "" {
		errs = append(errs, "mctpd.systemctl is required")
	}

	if c.Discovery.PollInterval <= 0 {
		errs = append(errs, "discovery.poll_interval must be positive")
	}
	if c.Discovery.StabilizeTimeout < c.Discovery.PollInterval {
		errs = append(errs, "discovery.stabilize_timeout must be at least discovery.poll_interval")
	}

	if c.API.Enabled {
		if c.API.Port < 1 || c.API.Port > 65535 {
			errs = append(errs, "api.port must be between 1 and 65535")
		}
		if c.API.Host == "" {
			errs = append(errs, "api.host is required when api.enabled is true")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.ReadTimeoutSeconds) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
// Discovery runs inside request handlers, so this must comfortably exceed
// a full walk of the bus tree.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.WriteTimeoutSeconds) * time.Second
}
