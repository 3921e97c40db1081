package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server          ServerConfig          `mapstructure:"server"`
	Recommendations RecommendationsConfig `mapstructure:"recommendations"`
	UI              UIConfig              `mapstructure:"ui"`
	Logging         LoggingConfig         `mapstructure:"logging"`
}

// ServerConfig holds book platform connection settings
type ServerConfig struct {
	URL   string `mapstructure:"url"`   // API base URL, e.g. http://localhost:8000
	Token string `mapstructure:"token"` // Bearer token from /v1/auth/login
	Email string `mapstructure:"email"` // Login email (display only)
}

// RecommendationsConfig controls fetching behaviour
type RecommendationsConfig struct {
	Limit                 int           `mapstructure:"limit"`
	ForceFreshOnTabSwitch bool          `mapstructure:"force_fresh_on_tab_switch"`
	PersistCache          bool          `mapstructure:"persist_cache"` // keep cache entries on disk between runs
	RequestTimeout        time.Duration `mapstructure:"request_timeout"`
	RequestsPerSecond     int           `mapstructure:"requests_per_second"`
	DefaultStrategy       string        `mapstructure:"default_strategy"` // top_rated, similar or ai
}

// UIConfig holds UI configuration
type UIConfig struct {
	Theme string `mapstructure:"theme"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			URL: "http://localhost:8000",
		},
		Recommendations: RecommendationsConfig{
			Limit:                 10,
			ForceFreshOnTabSwitch: true,
			PersistCache:          false,
			RequestTimeout:        30 * time.Second,
			RequestsPerSecond:     5,
			DefaultStrategy:       "top_rated",
		},
		UI: UIConfig{
			Theme: "default",
		},
		Logging: LoggingConfig{
			File:  defaultLogPath(),
			Level: "INFO",
		},
	}
}

// defaultLogPath returns the default log file path for the current OS
func defaultLogPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "folio", "folio.log")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "folio", "folio.log")
	}
}

// defaultConfigPath returns the default config directory for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "folio")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "folio")
	}
}

// defaultCachePath returns the default cache directory path for the current OS
func defaultCachePath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "folio", "cache")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "folio", "cache")
	}
}

// LoadConfig loads configuration from file and environment
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(defaultConfigPath())
	viper.AddConfigPath(".")
	return load(viper.GetViper())
}

// LoadConfigFile loads configuration from an explicit file path. It resets
// the global viper instance so later saves write back to path.
func LoadConfigFile(path string) (*Config, error) {
	viper.Reset()
	viper.SetConfigFile(path)
	return load(viper.GetViper())
}

func load(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()

	// Environment variable overrides (FOLIO_SERVER_URL, FOLIO_SERVER_TOKEN, ...)
	v.SetEnvPrefix("FOLIO")
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !asConfigNotFound(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	if cfg.Recommendations.Limit <= 0 {
		cfg.Recommendations.Limit = 10
	}
	if cfg.Recommendations.RequestTimeout <= 0 {
		cfg.Recommendations.RequestTimeout = 30 * time.Second
	}

	return cfg, nil
}

// SaveConfig saves the current configuration to file
func SaveConfig(cfg *Config) error {
	configPath := defaultConfigPath()

	// Ensure config directory exists
	if err := os.MkdirAll(configPath, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Set fields individually to ensure correct key names (snake_case)
	viper.Set("server.url", cfg.Server.URL)
	viper.Set("server.token", cfg.Server.Token)
	viper.Set("server.email", cfg.Server.Email)

	viper.Set("recommendations.limit", cfg.Recommendations.Limit)
	viper.Set("recommendations.force_fresh_on_tab_switch", cfg.Recommendations.ForceFreshOnTabSwitch)
	viper.Set("recommendations.persist_cache", cfg.Recommendations.PersistCache)
	viper.Set("recommendations.request_timeout", cfg.Recommendations.RequestTimeout.String())
	viper.Set("recommendations.requests_per_second", cfg.Recommendations.RequestsPerSecond)
	viper.Set("recommendations.default_strategy", cfg.Recommendations.DefaultStrategy)

	viper.Set("ui.theme", cfg.UI.Theme)

	viper.Set("logging.file", cfg.Logging.File)
	viper.Set("logging.level", cfg.Logging.Level)

	return writeConfig()
}

// SaveToken updates just the token in the configuration
func SaveToken(token string) error {
	viper.Set("server.token", token)
	return writeConfig()
}

// ClearServerConfig removes the credentials while preserving other settings
func ClearServerConfig() error {
	viper.Set("server.token", "")
	viper.Set("server.email", "")
	return writeConfig()
}

// writeConfig writes to the file the config was loaded from, or to the
// default location when none was found
func writeConfig() error {
	configFile := viper.ConfigFileUsed()
	if configFile == "" {
		configFile = filepath.Join(defaultConfigPath(), "config.yaml")
	}
	if err := os.MkdirAll(filepath.Dir(configFile), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// IsConfigured returns true if the server URL and token are set
func (c *Config) IsConfigured() bool {
	return c.Server.URL != "" && c.Server.Token != ""
}

// ClearCache removes all cached data
func ClearCache() error {
	cachePath := defaultCachePath()
	if err := os.RemoveAll(cachePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}

// GetCachePath returns the cache directory path
func GetCachePath() string {
	return defaultCachePath()
}

var envKeyReplacer = strings.NewReplacer(".", "_")

// bindEnv registers every key so AutomaticEnv overrides reach Unmarshal
// even when the key is absent from the config file.
func bindEnv(v *viper.Viper) {
	for _, key := range []string{
		"server.url", "server.token", "server.email",
		"recommendations.limit", "recommendations.force_fresh_on_tab_switch",
		"recommendations.persist_cache", "recommendations.request_timeout",
		"recommendations.requests_per_second", "recommendations.default_strategy",
		"ui.theme", "logging.file", "logging.level",
	} {
		_ = v.BindEnv(key)
	}
}

func asConfigNotFound(err error, target *viper.ConfigFileNotFoundError) bool {
	if errors.As(err, target) {
		return true
	}
	// SetConfigFile with a missing path surfaces the raw os error instead
	return errors.Is(err, fs.ErrNotExist)
}
