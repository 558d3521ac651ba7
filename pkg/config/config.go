package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Persistence PersistenceConfig `mapstructure:"persistence"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	RateLimit   RateLimitConfig   `mapstructure:"rate_limit"`
}

// ServerConfig holds HTTP control surface configuration.
type ServerConfig struct {
	Enabled      bool     `mapstructure:"enabled"`
	AutoPort     bool     `mapstructure:"auto_port"`
	Port         int      `mapstructure:"port"`
	Host         string   `mapstructure:"host"`
	CORS         bool     `mapstructure:"cors"`
	AllowOrigins []string `mapstructure:"allow_origins"`
	APIKey       string   `mapstructure:"api_key"`
}

// PersistenceConfig holds the JSON store document location.
type PersistenceConfig struct {
	Path     string `mapstructure:"path"`
	AutoSave bool   `mapstructure:"auto_save"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // console, json
}

// RateLimitConfig holds request rate limiting configuration.
type RateLimitConfig struct {
	Enabled bool         `mapstructure:"enabled"`
	Global  LimitConfig  `mapstructure:"global"`
	Routes  []RouteLimit `mapstructure:"routes"`
}

// LimitConfig defines rate limit parameters.
type LimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	BurstSize         int     `mapstructure:"burst_size"`
}

// RouteLimit defines per-route-category rate limiting.
type RouteLimit struct {
	Name              string  `mapstructure:"name"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	BurstSize         int     `mapstructure:"burst_size"`
}

// DefaultConfig returns configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Enabled:  true,
			AutoPort: true,
			Port:     3310,
			Host:     "localhost",
			CORS:     true,
		},
		Persistence: PersistenceConfig{
			Path:     filepath.Join(ConfigPath(), "loomdb.json"),
			AutoSave: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		RateLimit: RateLimitConfig{
			Enabled: false,
			Global: LimitConfig{
				RequestsPerSecond: 100,
				BurstSize:         200,
			},
			Routes: []RouteLimit{
				{Name: "query", RequestsPerSecond: 50, BurstSize: 100},
				{Name: "insert", RequestsPerSecond: 30, BurstSize: 60},
				{Name: "persistence", RequestsPerSecond: 1, BurstSize: 2},
			},
		},
	}
}

// Load loads configuration from a YAML file with fallback to defaults.
// Searches in multiple locations:
// 1. ./loomdb.yaml (current directory)
// 2. ~/.loomdb/loomdb.yaml (user home)
// 3. /etc/loomdb/loomdb.yaml (system-wide)
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("loomdb")
	v.SetConfigType("yaml")

	v.AddConfigPath(".")
	homeDir, _ := os.UserHomeDir()
	v.AddConfigPath(filepath.Join(homeDir, ".loomdb"))
	v.AddConfigPath("/etc/loomdb")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// LoadFile loads configuration from an explicit path.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

// setDefaults sets default values in Viper.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.enabled", true)
	v.SetDefault("server.auto_port", true)
	v.SetDefault("server.port", 3310)
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.cors", true)

	v.SetDefault("persistence.path", filepath.Join(ConfigPath(), "loomdb.json"))
	v.SetDefault("persistence.auto_save", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("rate_limit.enabled", false)
	v.SetDefault("rate_limit.global.requests_per_second", 100)
	v.SetDefault("rate_limit.global.burst_size", 200)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Enabled {
		if c.Server.Port < 1 || c.Server.Port > 65535 {
			return fmt.Errorf("server.port must be between 1 and 65535")
		}
		if c.Server.Host == "" {
			return fmt.Errorf("server.host is required when the server is enabled")
		}
	}

	if c.Persistence.Path == "" {
		return fmt.Errorf("persistence.path is required")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}

	validFormats := map[string]bool{"console": true, "json": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: console, json")
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.Global.RequestsPerSecond <= 0 {
			return fmt.Errorf("rate_limit.global.requests_per_second must be > 0")
		}
	}

	return nil
}

// EnsureConfigDir creates the persistence directory if it doesn't exist.
func (c *Config) EnsureConfigDir() error {
	dir := filepath.Dir(c.Persistence.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return nil
}

// ConfigPath returns the path to the configuration directory.
func ConfigPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".loomdb")
}

// Watch reloads the configuration file at path whenever it changes on
// disk and hands the result to cb. Invalid intermediate states are
// skipped, so a half-written file never reaches the callback. The
// returned stop function releases the watcher.
func Watch(path string, cb func(*Config)) (func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config watch: %w", err)
	}

	// Watch the directory: editors replace files on save, which drops
	// a watch registered on the file itself.
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("config watch %q: %w", dir, err)
	}

	target := filepath.Clean(path)
	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				cfg, err := LoadFile(path)
				if err != nil {
					continue
				}
				cb(cfg)
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return func() { watcher.Close() }, nil
}
