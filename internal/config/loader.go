// Package config loads application configuration with the usual
// precedence: runtime overrides, then environment, then config file,
// then defaults.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const envPrefix = "BIOMCP"

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	RateLimit       float64       `mapstructure:"rate_limit"`
	RateBurst       int           `mapstructure:"rate_burst"`
}

// LoggingConfig selects log verbosity and output shape.
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Profile string `mapstructure:"profile"`
}

// JobsConfig tunes the background job registry.
type JobsConfig struct {
	CleanupCompletedOnly bool `mapstructure:"cleanup_completed_only"`
}

// ToolsConfig tunes tool detection and installation.
type ToolsConfig struct {
	AutoInstall bool     `mapstructure:"auto_install"`
	SearchDirs  []string `mapstructure:"search_dirs"`
}

// Config is the root configuration document.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
	Jobs    JobsConfig    `mapstructure:"jobs"`
	Tools   ToolsConfig   `mapstructure:"tools"`
}

type envSpec struct {
	Name string
	Path string
}

var (
	configMu  sync.RWMutex
	appConfig *Config
)

// Load builds the configuration. Optional override maps apply last and
// win over environment and file values. The loaded config is cached for
// GetConfig.
func Load(ctx context.Context, overrides ...map[string]any) (*Config, error) {
	_ = ctx

	v := viper.New()
	setDefaults(v)

	for _, spec := range getEnvSpecs() {
		if err := v.BindEnv(spec.Path, spec.Name); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", spec.Name, err)
		}
	}

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	for _, override := range overrides {
		applyOverrides(v, "", override)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.WeaklyTypedInput = true
	}); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	configMu.Lock()
	appConfig = &cfg
	configMu.Unlock()

	return &cfg, nil
}

// GetConfig returns the most recently loaded configuration, or nil if
// Load has not run.
func GetConfig() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return appConfig
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.rate_limit", 20.0)
	v.SetDefault("server.rate_burst", 40)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.profile", "cli")

	v.SetDefault("jobs.cleanup_completed_only", true)

	v.SetDefault("tools.auto_install", false)
	v.SetDefault("tools.search_dirs", []string{})
}

func getEnvSpecs() []envSpec {
	return []envSpec{
		{envPrefix + "_HOST", "server.host"},
		{envPrefix + "_PORT", "server.port"},
		{envPrefix + "_READ_TIMEOUT", "server.read_timeout"},
		{envPrefix + "_WRITE_TIMEOUT", "server.write_timeout"},
		{envPrefix + "_IDLE_TIMEOUT", "server.idle_timeout"},
		{envPrefix + "_SHUTDOWN_TIMEOUT", "server.shutdown_timeout"},
		{envPrefix + "_RATE_LIMIT", "server.rate_limit"},
		{envPrefix + "_RATE_BURST", "server.rate_burst"},
		{envPrefix + "_LOG_LEVEL", "logging.level"},
		{envPrefix + "_LOG_PROFILE", "logging.profile"},
		{envPrefix + "_CLEANUP_COMPLETED_ONLY", "jobs.cleanup_completed_only"},
		{envPrefix + "_AUTO_INSTALL", "tools.auto_install"},
	}
}

// readConfigFile merges an optional YAML config file. BIOMCP_CONFIG
// names an explicit file; otherwise the user config directory and the
// working directory are searched. A missing file is not an error.
func readConfigFile(v *viper.Viper) error {
	if explicit := os.Getenv(envPrefix + "_CONFIG"); explicit != "" {
		v.SetConfigFile(explicit)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", explicit, err)
		}
		return nil
	}

	v.SetConfigName("biomcp")
	v.SetConfigType("yaml")
	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, "biomcp"))
	}
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

// applyOverrides flattens a nested override map into viper Set calls so
// overrides outrank bound environment variables.
func applyOverrides(v *viper.Viper, prefix string, values map[string]any) {
	for key, value := range values {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		if nested, ok := value.(map[string]any); ok {
			applyOverrides(v, path, nested)
			continue
		}
		v.Set(path, value)
	}
}
