package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config is the root configuration structure.
// It is read-only after Load() returns and thread-safe for concurrent reads.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Worker    WorkerConfig    `yaml:"worker"`
	Log       LogConfig       `yaml:"log"`
	Analytics AnalyticsConfig `yaml:"analytics"`
	Export    ExportConfig    `yaml:"export"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig selects the response store. Path is used by sqlite,
// URL by postgres.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	URL    string `yaml:"-"` // env-only, carries credentials
}

// AuthConfig contains the bearer keys that map callers to roles.
type AuthConfig struct {
	AdminKey   string   `yaml:"-"` // env-only, never in YAML
	MemberKeys []string `yaml:"-"` // env-only, comma separated
}

// WorkerConfig contains background worker settings.
type WorkerConfig struct {
	RefreshInterval Duration `yaml:"refresh_interval"`
	RefreshDebounce Duration `yaml:"refresh_debounce"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// AnalyticsConfig bounds cohort fetches.
type AnalyticsConfig struct {
	CohortLimit int `yaml:"cohort_limit"`
}

// ExportConfig points at the object store receiving cohort reports.
// An empty Bucket disables publishing.
type ExportConfig struct {
	Bucket    string   `yaml:"bucket"`
	Endpoint  string   `yaml:"endpoint"`
	Region    string   `yaml:"region"`
	UseSSL    *bool    `yaml:"use_ssl"`
	URLExpiry Duration `yaml:"url_expiry"`
	AccessKey string   `yaml:"-"`
	SecretKey string   `yaml:"-"`
}

// SSL reports whether the export endpoint uses TLS. Defaults to true.
func (e ExportConfig) SSL() bool {
	return e.UseSSL == nil || *e.UseSSL
}

// Duration is a wrapper around time.Duration that supports YAML string parsing.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Load loads configuration with precedence: defaults → YAML file → env vars.
// Returns an immutable Config suitable for concurrent read access.
func Load() (*Config, error) {
	cfg, err := loadLayers(getEnv("MEMBERPORTAL_CONFIG_PATH", "config/memberportal.yaml"), false)
	if err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a specific path, which must exist.
func LoadFromFile(path string) (*Config, error) {
	cfg, err := loadLayers(path, true)
	if err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDatabaseConfig resolves only what offline CLI commands need: the
// database and cohort settings. Auth keys are not required.
func LoadDatabaseConfig() (*Config, error) {
	cfg, err := loadLayers(getEnv("MEMBERPORTAL_CONFIG_PATH", "config/memberportal.yaml"), false)
	if err != nil {
		return nil, err
	}
	if err := cfg.validateDatabase(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadLayers(path string, mustExist bool) (*Config, error) {
	cfg := newDefaults()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	case os.IsNotExist(err) && !mustExist:
		// Missing file is OK; use defaults
	default:
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

// newDefaults returns a Config with all default values.
func newDefaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     Duration(30 * time.Second),
			WriteTimeout:    Duration(30 * time.Second),
			ShutdownTimeout: Duration(15 * time.Second),
		},
		Database: DatabaseConfig{
			Driver: DriverSQLite,
			Path:   "data/memberportal.db",
		},
		Worker: WorkerConfig{
			RefreshInterval: Duration(1 * time.Hour),
			RefreshDebounce: Duration(5 * time.Second),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Analytics: AnalyticsConfig{
			CohortLimit: 500,
		},
		Export: ExportConfig{
			Region:    "us-east-1",
			URLExpiry: Duration(15 * time.Minute),
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the config.
// Only non-empty env vars override config values; unparsable numbers and
// durations are ignored.
func applyEnvOverrides(cfg *Config) {
	// Server
	envInt("MEMBERPORTAL_PORT", &cfg.Server.Port)
	envDuration("MEMBERPORTAL_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	envDuration("MEMBERPORTAL_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	envDuration("MEMBERPORTAL_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)

	// Database
	envString("MEMBERPORTAL_DB_DRIVER", &cfg.Database.Driver)
	envString("MEMBERPORTAL_DB_PATH", &cfg.Database.Path)
	envString("MEMBERPORTAL_DATABASE_URL", &cfg.Database.URL)

	// Auth
	envString("MEMBERPORTAL_ADMIN_KEY", &cfg.Auth.AdminKey)
	if v := os.Getenv("MEMBERPORTAL_MEMBER_KEYS"); v != "" {
		cfg.Auth.MemberKeys = splitList(v)
	}

	// Worker
	envDuration("MEMBERPORTAL_REFRESH_INTERVAL", &cfg.Worker.RefreshInterval)
	envDuration("MEMBERPORTAL_REFRESH_DEBOUNCE", &cfg.Worker.RefreshDebounce)

	// Log
	envString("MEMBERPORTAL_LOG_LEVEL", &cfg.Log.Level)
	envString("MEMBERPORTAL_LOG_FORMAT", &cfg.Log.Format)

	// Analytics
	envInt("MEMBERPORTAL_COHORT_LIMIT", &cfg.Analytics.CohortLimit)

	// Export (AWS_* names follow the S3 client convention)
	envString("MEMBERPORTAL_EXPORT_BUCKET", &cfg.Export.Bucket)
	envString("MEMBERPORTAL_EXPORT_ENDPOINT", &cfg.Export.Endpoint)
	envString("MEMBERPORTAL_EXPORT_REGION", &cfg.Export.Region)
	envDuration("MEMBERPORTAL_EXPORT_URL_EXPIRY", &cfg.Export.URLExpiry)
	envString("AWS_ACCESS_KEY_ID", &cfg.Export.AccessKey)
	envString("AWS_SECRET_ACCESS_KEY", &cfg.Export.SecretKey)
	if v := os.Getenv("MEMBERPORTAL_EXPORT_USE_SSL"); v != "" {
		ssl := v == "true" || v == "1"
		cfg.Export.UseSSL = &ssl
	}
}

// validate checks that required configuration values are set.
// In dev mode (MEMBERPORTAL_DEV_MODE=true), key validation is skipped.
func (c *Config) validate() error {
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if c.Worker.RefreshDebounce < 0 || c.Worker.RefreshInterval < 0 {
		return errors.New("worker intervals must not be negative")
	}
	if c.Export.Bucket != "" && c.Export.Endpoint == "" {
		return errors.New("export.endpoint is required when export.bucket is set")
	}

	if os.Getenv("MEMBERPORTAL_DEV_MODE") == "true" {
		return nil
	}
	if c.Auth.AdminKey == "" {
		return errors.New("MEMBERPORTAL_ADMIN_KEY is required")
	}
	for _, k := range c.Auth.MemberKeys {
		if k == c.Auth.AdminKey {
			return errors.New("MEMBERPORTAL_MEMBER_KEYS must not contain the admin key")
		}
	}
	return nil
}

func (c *Config) validateDatabase() error {
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return errors.New("database.path is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.Database.URL == "" {
			return errors.New("MEMBERPORTAL_DATABASE_URL is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported database driver %q (want %s or %s)", c.Database.Driver, DriverSQLite, DriverPostgres)
	}
	if c.Analytics.CohortLimit <= 0 {
		return errors.New("analytics.cohort_limit must be positive")
	}
	return nil
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envDuration(key string, dst *Duration) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = Duration(d)
		}
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
