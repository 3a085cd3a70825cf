package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/mitchellh/go-homedir"
	gap "github.com/muesli/go-app-paths"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

const (
	appName               = "settingsd"
	defaultPort           = "8080"
	defaultRateLimitRPS   = 25.0
	defaultRateLimitBurst = 50
	defaultLogLevel       = "info"
)

// settingsFileNames are looked up, in order, in the user config directories.
var settingsFileNames = []string{"settings.yaml", "settings.yml", "settings.toml", "settings.json"}

// Config aggregates runtime configuration resolved from multiple sources.
// Precedence: CLI flags > YAML config > Environment variables > Defaults
type Config struct {
	Port                 string
	SettingsFile         string
	Watch                bool
	PartialApply         bool
	ShutdownGracePeriod  time.Duration
	ReadHeaderTimeout    time.Duration
	WriteTimeout         time.Duration
	IdleTimeout          time.Duration
	EnableRequestLogging bool
	RateLimitRPS         float64
	RateLimitBurst       int
	LogLevel             string
}

// yamlConfig represents the YAML configuration file structure.
type yamlConfig struct {
	Port                 string        `yaml:"port"`
	SettingsFile         string        `yaml:"settings_file"`
	Watch                *bool         `yaml:"watch"`
	PartialApply         *bool         `yaml:"partial_apply"`
	ShutdownGracePeriod  string        `yaml:"shutdown_grace_period"`
	ReadHeaderTimeout    string        `yaml:"read_header_timeout"`
	WriteTimeout         string        `yaml:"write_timeout"`
	IdleTimeout          string        `yaml:"idle_timeout"`
	EnableRequestLogging *bool         `yaml:"enable_request_logging"`
	RateLimit            yamlRateLimit `yaml:"rate_limit"`
	LogLevel             string        `yaml:"log_level"`
}

// yamlRateLimit represents the rate limit section in YAML.
type yamlRateLimit struct {
	RPS   *float64 `yaml:"rps"`
	Burst *int     `yaml:"burst"`
}

// envConfig lists the environment variables understood by Load.
type envConfig struct {
	Port           string   `env:"PORT"`
	SettingsFile   string   `env:"SETTINGSD_FILE"`
	Watch          *bool    `env:"SETTINGSD_WATCH"`
	PartialApply   *bool    `env:"SETTINGSD_PARTIAL_APPLY"`
	RateLimitRPS   *float64 `env:"RATE_LIMIT_RPS"`
	RateLimitBurst *int     `env:"RATE_LIMIT_BURST"`
	LogLevel       string   `env:"LOG_LEVEL"`
}

// CLIOverrides holds command-line flag overrides. Nil fields were not set.
type CLIOverrides struct {
	ConfigFile     string
	Port           *string
	SettingsFile   *string
	Watch          *bool
	PartialApply   *bool
	RateLimitRPS   *float64
	RateLimitBurst *int
	LogLevel       *string
}

// Load extracts configuration from multiple sources with precedence:
// CLI flags > YAML config > Environment variables > Defaults
func Load(overrides *CLIOverrides) (Config, error) {
	cfg := defaultConfig()

	// Apply environment variables (override defaults)
	if err := applyEnvConfig(&cfg); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	// Load from YAML file if specified (overrides environment)
	if overrides != nil && overrides.ConfigFile != "" {
		yamlCfg, err := loadFromFile(overrides.ConfigFile)
		if err != nil {
			return Config{}, fmt.Errorf("load YAML config: %w", err)
		}
		if err := applyYAMLConfig(&cfg, yamlCfg); err != nil {
			return Config{}, fmt.Errorf("load YAML config: %w", err)
		}
	}

	// Apply CLI overrides (highest precedence)
	if overrides != nil {
		applyCLIOverrides(&cfg, overrides)
	}

	if cfg.SettingsFile == "" {
		cfg.SettingsFile = DefaultSettingsFile()
	}
	expanded, err := homedir.Expand(cfg.SettingsFile)
	if err != nil {
		return Config{}, fmt.Errorf("expand settings file path: %w", err)
	}
	cfg.SettingsFile = expanded

	// Validate final configuration
	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// DefaultSettingsFile returns the first settings document found in the user
// config directories, or the preferred location for a new one.
func DefaultSettingsFile() string {
	scope := gap.NewScope(gap.User, appName)
	dirs, err := scope.ConfigDirs()
	if err != nil || len(dirs) == 0 {
		return settingsFileNames[0]
	}
	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, appName)}, dirs...)
	}

	for _, dir := range dirs {
		for _, name := range settingsFileNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return filepath.Join(dirs[0], settingsFileNames[0])
}

// defaultConfig returns a Config with default values.
func defaultConfig() Config {
	return Config{
		Port:                 defaultPort,
		ShutdownGracePeriod:  10 * time.Second,
		ReadHeaderTimeout:    5 * time.Second,
		WriteTimeout:         15 * time.Second,
		IdleTimeout:          60 * time.Second,
		EnableRequestLogging: true,
		RateLimitRPS:         defaultRateLimitRPS,
		RateLimitBurst:       defaultRateLimitBurst,
		LogLevel:             defaultLogLevel,
	}
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(path string) (*yamlConfig, error) {
	path, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("expand path: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	return &yamlCfg, nil
}

// applyYAMLConfig applies YAML configuration to the Config struct.
func applyYAMLConfig(cfg *Config, yamlCfg *yamlConfig) error {
	if yamlCfg.Port != "" {
		cfg.Port = yamlCfg.Port
	}
	if yamlCfg.SettingsFile != "" {
		cfg.SettingsFile = yamlCfg.SettingsFile
	}
	if yamlCfg.Watch != nil {
		cfg.Watch = *yamlCfg.Watch
	}
	if yamlCfg.PartialApply != nil {
		cfg.PartialApply = *yamlCfg.PartialApply
	}

	durations := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"shutdown_grace_period", yamlCfg.ShutdownGracePeriod, &cfg.ShutdownGracePeriod},
		{"read_header_timeout", yamlCfg.ReadHeaderTimeout, &cfg.ReadHeaderTimeout},
		{"write_timeout", yamlCfg.WriteTimeout, &cfg.WriteTimeout},
		{"idle_timeout", yamlCfg.IdleTimeout, &cfg.IdleTimeout},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
		*d.dst = parsed
	}

	if yamlCfg.EnableRequestLogging != nil {
		cfg.EnableRequestLogging = *yamlCfg.EnableRequestLogging
	}
	if yamlCfg.RateLimit.RPS != nil {
		cfg.RateLimitRPS = *yamlCfg.RateLimit.RPS
	}
	if yamlCfg.RateLimit.Burst != nil {
		cfg.RateLimitBurst = *yamlCfg.RateLimit.Burst
	}
	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}
	return nil
}

// applyEnvConfig applies environment variable configuration.
func applyEnvConfig(cfg *Config) error {
	envCfg, err := env.ParseAs[envConfig]()
	if err != nil {
		return err
	}

	if port := strings.TrimSpace(envCfg.Port); port != "" {
		cfg.Port = port
	}
	if file := strings.TrimSpace(envCfg.SettingsFile); file != "" {
		cfg.SettingsFile = file
	}
	if envCfg.Watch != nil {
		cfg.Watch = *envCfg.Watch
	}
	if envCfg.PartialApply != nil {
		cfg.PartialApply = *envCfg.PartialApply
	}
	if envCfg.RateLimitRPS != nil {
		cfg.RateLimitRPS = *envCfg.RateLimitRPS
	}
	if envCfg.RateLimitBurst != nil {
		cfg.RateLimitBurst = *envCfg.RateLimitBurst
	}
	if level := strings.TrimSpace(envCfg.LogLevel); level != "" {
		cfg.LogLevel = level
	}
	return nil
}

// applyCLIOverrides applies command-line flag overrides.
func applyCLIOverrides(cfg *Config, overrides *CLIOverrides) {
	if overrides.Port != nil && *overrides.Port != "" {
		cfg.Port = *overrides.Port
	}
	if overrides.SettingsFile != nil && *overrides.SettingsFile != "" {
		cfg.SettingsFile = *overrides.SettingsFile
	}
	if overrides.Watch != nil {
		cfg.Watch = *overrides.Watch
	}
	if overrides.PartialApply != nil {
		cfg.PartialApply = *overrides.PartialApply
	}
	if overrides.RateLimitRPS != nil && *overrides.RateLimitRPS >= 0 {
		cfg.RateLimitRPS = *overrides.RateLimitRPS
	}
	if overrides.RateLimitBurst != nil && *overrides.RateLimitBurst >= 0 {
		cfg.RateLimitBurst = *overrides.RateLimitBurst
	}
	if overrides.LogLevel != nil && *overrides.LogLevel != "" {
		cfg.LogLevel = *overrides.LogLevel
	}
}

// validateConfig validates the final configuration.
func validateConfig(cfg Config) error {
	if cfg.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be >= 0")
	}
	if cfg.RateLimitBurst < 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must be >= 0")
	}
	if cfg.SettingsFile == "" {
		return fmt.Errorf("settings file cannot be empty")
	}
	if _, err := zapcore.ParseLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q", cfg.LogLevel)
	}
	return nil
}
