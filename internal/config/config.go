// Package config loads pressync configuration with precedence:
// defaults → YAML file → environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
// It is read-only after Load() returns and thread-safe for concurrent reads.
type Config struct {
	DefaultSite string                `yaml:"default_site"`
	Sites       map[string]SiteConfig `yaml:"sites"`
	Sync        SyncConfig            `yaml:"sync"`
	History     HistoryConfig         `yaml:"history"`
	Server      ServerConfig          `yaml:"server"`
	Log         LogConfig             `yaml:"log"`
}

// SiteConfig describes one target WordPress site.
type SiteConfig struct {
	BaseURL       string `yaml:"base_url"`
	Username      string `yaml:"username"`
	AppPassword   string `yaml:"-"` // env-only, never in YAML
	DefaultStatus string `yaml:"default_status"`
}

// SyncConfig contains batch pipeline settings.
type SyncConfig struct {
	WriteDelay     Duration `yaml:"write_delay"`
	RequestTimeout Duration `yaml:"request_timeout"`
	CSVPath        string   `yaml:"csv_path"`
	LogDir         string   `yaml:"log_dir"`
}

// HistoryConfig contains run history store settings.
// An empty path disables run history.
type HistoryConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig contains HTTP server settings for the upload form.
type ServerConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
	APIKey          string   `yaml:"-"` // env-only, never in YAML
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
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

// Load loads configuration from the default path (overridable with
// PRESSYNC_CONFIG_PATH). A missing file is not an error; defaults apply.
func Load() (*Config, error) {
	cfg := newDefaults()

	configPath := getEnv("PRESSYNC_CONFIG_PATH", "config/pressync.yaml")

	if err := loadYAMLFile(cfg, configPath); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile loads configuration from a specific path.
// Used for testing and explicit path specification.
func LoadFromFile(path string) (*Config, error) {
	cfg := newDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Site resolves a named site configuration; an empty name selects the
// default site. The resolved site must carry full credentials.
func (c *Config) Site(name string) (string, SiteConfig, error) {
	if name == "" {
		name = c.DefaultSite
	}
	if name == "" {
		return "", SiteConfig{}, errors.New("no site selected: set default_site or pass --site")
	}

	site, ok := c.Sites[name]
	if !ok {
		return "", SiteConfig{}, fmt.Errorf("unknown site %q", name)
	}
	if site.BaseURL == "" {
		return "", SiteConfig{}, fmt.Errorf("site %q has no base_url", name)
	}
	if site.Username == "" || site.AppPassword == "" {
		return "", SiteConfig{}, fmt.Errorf("site %q is missing credentials: set PRESSYNC_USERNAME and PRESSYNC_APP_PASSWORD", name)
	}
	if site.DefaultStatus == "" {
		site.DefaultStatus = "draft"
	}
	return name, site, nil
}

// newDefaults returns a Config with all default values.
func newDefaults() *Config {
	return &Config{
		Sites: map[string]SiteConfig{},
		Sync: SyncConfig{
			WriteDelay:     Duration(300 * time.Millisecond),
			RequestTimeout: Duration(30 * time.Second),
			CSVPath:        "posts.csv",
			LogDir:         "logs",
		},
		History: HistoryConfig{
			Path: "data/pressync.db",
		},
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     Duration(30 * time.Second),
			ShutdownTimeout: Duration(15 * time.Second),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// loadYAMLFile loads configuration from a YAML file if it exists.
// Missing file is not an error; we just use defaults.
func loadYAMLFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Only non-empty env vars override config values.
func applyEnvOverrides(cfg *Config) {
	// An explicit empty "sites:" key in the YAML nulls the map out.
	if cfg.Sites == nil {
		cfg.Sites = map[string]SiteConfig{}
	}

	// Site selection and ad-hoc site definition
	if v := os.Getenv("PRESSYNC_SITE"); v != "" {
		cfg.DefaultSite = v
	}
	if cfg.DefaultSite == "" && len(cfg.Sites) == 0 {
		cfg.DefaultSite = "default"
	}
	site := cfg.Sites[cfg.DefaultSite]
	if v := os.Getenv("PRESSYNC_BASE_URL"); v != "" {
		site.BaseURL = v
	}
	if v := os.Getenv("PRESSYNC_USERNAME"); v != "" {
		site.Username = v
	}
	if v := os.Getenv("PRESSYNC_APP_PASSWORD"); v != "" {
		site.AppPassword = v
	}
	if v := os.Getenv("PRESSYNC_DEFAULT_STATUS"); v != "" {
		site.DefaultStatus = v
	}
	if cfg.DefaultSite != "" {
		cfg.Sites[cfg.DefaultSite] = site
	}

	// Credentials apply to every configured site that has none of its own.
	for name, s := range cfg.Sites {
		if s.Username == "" {
			s.Username = os.Getenv("PRESSYNC_USERNAME")
		}
		if s.AppPassword == "" {
			s.AppPassword = os.Getenv("PRESSYNC_APP_PASSWORD")
		}
		cfg.Sites[name] = s
	}

	// Sync
	if v := os.Getenv("PRESSYNC_WRITE_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Sync.WriteDelay = Duration(d)
		}
	}
	if v := os.Getenv("PRESSYNC_REQUEST_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Sync.RequestTimeout = Duration(d)
		}
	}
	if v := os.Getenv("PRESSYNC_CSV_PATH"); v != "" {
		cfg.Sync.CSVPath = v
	}
	if v := os.Getenv("PRESSYNC_LOG_DIR"); v != "" {
		cfg.Sync.LogDir = v
	}

	// History
	if v := os.Getenv("PRESSYNC_HISTORY_PATH"); v != "" {
		cfg.History.Path = v
	}

	// Server
	if v := os.Getenv("PRESSYNC_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("PRESSYNC_API_KEY"); v != "" {
		cfg.Server.APIKey = v
	}

	// Log
	if v := os.Getenv("PRESSYNC_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("PRESSYNC_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// validate checks structural configuration problems. Credential presence is
// checked at site resolution time so read-only commands still work.
func (c *Config) validate() error {
	if c.DefaultSite != "" && len(c.Sites) > 0 {
		if _, ok := c.Sites[c.DefaultSite]; !ok {
			return fmt.Errorf("default_site %q is not defined under sites", c.DefaultSite)
		}
	}
	if time.Duration(c.Sync.WriteDelay) < 0 {
		return errors.New("sync.write_delay must not be negative")
	}
	return nil
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
