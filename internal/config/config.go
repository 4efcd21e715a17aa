package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v7"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/alarm-history/internal/logger"
)

// Config holds the settings shared by the alarm history binaries.
type Config struct {
	// ServerAddress is the gRPC address of the history backend server.
	ServerAddress string `yaml:"server_addr" env:"ALARM_HISTORY_SERVER_ADDR"`
	// MetricsAddress is the HTTP address serving /metrics and /health; empty disables it.
	MetricsAddress string `yaml:"metrics_addr,omitempty" env:"ALARM_HISTORY_METRICS_ADDR"`
	// Backend selects the alarm store behind the server: "file" or "postgres".
	Backend string `yaml:"backend" env:"ALARM_HISTORY_BACKEND"`
	// DatabaseURL is the PostgreSQL connection string for the postgres backend.
	DatabaseURL string `yaml:"database_url,omitempty" env:"ALARM_HISTORY_DATABASE_URL"`
	// RecordsFile is the YAML file read by the file backend.
	RecordsFile string `yaml:"records_file,omitempty" env:"ALARM_HISTORY_RECORDS_FILE"`
	// Timeout bounds connection setup and shutdown. Alarm fetches are never timed out.
	Timeout time.Duration `yaml:"timeout" env:"ALARM_HISTORY_TIMEOUT"`
	// LogLevel is the minimum log level (debug, info, warn, error).
	LogLevel string `yaml:"log_level,omitempty" env:"ALARM_HISTORY_LOG_LEVEL"`
}

// Backend kinds.
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

const (
	// DefaultConfigFilename is the default filename for settings.
	DefaultConfigFilename = "alarm-history-settings.yaml"

	// DefaultRecordsFilename is the default filename for the file backend.
	DefaultRecordsFilename = "alarm-history-records.yaml"

	// DefaultTimeout is the default duration for connection setup and shutdown.
	DefaultTimeout = 5 * time.Second

	// DefaultFilePermissions is the default file permission for written files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errServerSocketRequired is returned when server address is missing.
	errServerSocketRequired = errors.New("server address must be provided")
	// errUnknownBackend is returned for an unsupported backend kind.
	errUnknownBackend = errors.New("unknown backend")
	// errDatabaseURLRequired is returned when the postgres backend has no DSN.
	errDatabaseURLRequired = errors.New("database URL must be provided for the postgres backend")
)

// Load reads configuration from the provided path, applies environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := ApplyEnv(&cfg); err != nil {
		return nil, err
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ApplyEnv overrides settings with ALARM_HISTORY_* environment variables.
// Unset variables leave the corresponding fields untouched.
func ApplyEnv(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}

	return nil
}

// Save writes settings to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks required fields and fills in defaults.
func Validate(settings *Config) error {
	if settings == nil {
		return errConfigIsNotSet
	}

	if settings.ServerAddress == "" {
		return errServerSocketRequired
	}

	if _, err := net.ResolveTCPAddr("tcp", settings.ServerAddress); err != nil {
		return fmt.Errorf("invalid server socket: %w", err)
	}

	if settings.MetricsAddress != "" {
		if _, _, err := net.SplitHostPort(settings.MetricsAddress); err != nil {
			return fmt.Errorf("invalid metrics address: %w", err)
		}
	}

	if _, ok := logger.ParseLogLevel(settings.LogLevel); !ok {
		return fmt.Errorf("invalid log level %q", settings.LogLevel)
	}

	if settings.Timeout <= 0 {
		settings.Timeout = DefaultTimeout
	}

	switch settings.Backend {
	case "", BackendFile:
		settings.Backend = BackendFile

		if settings.RecordsFile == "" {
			settings.RecordsFile = DefaultRecordsFilename
		}
	case BackendPostgres:
		if settings.DatabaseURL == "" {
			return errDatabaseURLRequired
		}

		if _, err := url.Parse(settings.DatabaseURL); err != nil {
			return fmt.Errorf("invalid database URL: %w", err)
		}
	default:
		return fmt.Errorf("%w %q", errUnknownBackend, settings.Backend)
	}

	return nil
}
