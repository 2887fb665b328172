package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/quantmind-br/debinstall/internal/helpers"
	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Paths   PathsConfig   `mapstructure:"paths"`
	Logging LoggingConfig `mapstructure:"logging"`
	Dpkg    DpkgConfig    `mapstructure:"dpkg"`
}

// PathsConfig contains path-related configuration
type PathsConfig struct {
	DataDir string `mapstructure:"data_dir"`
	DBFile  string `mapstructure:"db_file"`
	LogFile string `mapstructure:"log_file"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	Color string `mapstructure:"color"`
}

// DpkgConfig selects and tunes the tools used to inspect, check and install packages
type DpkgConfig struct {
	// Inspector is "dpkg" (shell out to dpkg -I) or "native" (read the ar archive directly)
	Inspector   string `mapstructure:"inspector"`
	Binary      string `mapstructure:"binary"`
	QueryBinary string `mapstructure:"query_binary"`
	StatusFile  string `mapstructure:"status_file"`
	// Lookup is "status" (parse the status file) or "query" (run dpkg-query)
	Lookup         string        `mapstructure:"lookup"`
	InspectTimeout time.Duration `mapstructure:"inspect_timeout"`
	CheckTimeout   time.Duration `mapstructure:"check_timeout"`
	UseSudo        bool          `mapstructure:"use_sudo"`
	SudoBinary     string        `mapstructure:"sudo_binary"`
}

// Load loads configuration from file and environment
func Load() (*Config, error) {
	v := viper.GetViper()

	v.SetConfigName("config")
	v.SetConfigType("toml")

	homeDir, err := os.UserHomeDir()
	if err == nil {
		v.AddConfigPath(filepath.Join(homeDir, ".config", "debinstall"))
	}
	v.AddConfigPath(".")

	setDefaults(v)

	// Environment variable overrides
	v.SetEnvPrefix("DEBINSTALL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// Config file not found - use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.Paths.DataDir = expandPath(cfg.Paths.DataDir)
	cfg.Paths.DBFile = expandPath(cfg.Paths.DBFile)
	cfg.Paths.LogFile = expandPath(cfg.Paths.LogFile)
	cfg.Dpkg.StatusFile = expandPath(cfg.Dpkg.StatusFile)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects option values the wiring layer cannot act on
func (c *Config) Validate() error {
	switch c.Dpkg.Inspector {
	case "dpkg", "native":
	default:
		return fmt.Errorf("invalid dpkg.inspector %q: must be dpkg or native", c.Dpkg.Inspector)
	}
	switch c.Dpkg.Lookup {
	case "status", "query":
	default:
		return fmt.Errorf("invalid dpkg.lookup %q: must be status or query", c.Dpkg.Lookup)
	}
	switch c.Logging.Color {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("invalid logging.color %q: must be auto, always or never", c.Logging.Color)
	}
	if c.Dpkg.InspectTimeout <= 0 {
		return fmt.Errorf("invalid dpkg.inspect_timeout %s: must be positive", c.Dpkg.InspectTimeout)
	}
	if c.Dpkg.CheckTimeout <= 0 {
		return fmt.Errorf("invalid dpkg.check_timeout %s: must be positive", c.Dpkg.CheckTimeout)
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	homeDir, err := os.UserHomeDir()
	if err != nil || homeDir == "" {
		homeDir = os.Getenv("HOME")
	}
	if homeDir == "" {
		homeDir = "."
	}

	dataDir := filepath.Join(homeDir, ".local", "share", "debinstall")
	v.SetDefault("paths.data_dir", dataDir)
	v.SetDefault("paths.db_file", filepath.Join(dataDir, "history.db"))
	v.SetDefault("paths.log_file", filepath.Join(dataDir, "debinstall.log"))

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.color", "auto")

	v.SetDefault("dpkg.inspector", "dpkg")
	v.SetDefault("dpkg.binary", "dpkg")
	v.SetDefault("dpkg.query_binary", "dpkg-query")
	v.SetDefault("dpkg.status_file", "/var/lib/dpkg/status")
	v.SetDefault("dpkg.lookup", "status")
	v.SetDefault("dpkg.inspect_timeout", 5*time.Second)
	v.SetDefault("dpkg.check_timeout", 5*time.Second)
	v.SetDefault("dpkg.use_sudo", !helpers.IsRoot())
	v.SetDefault("dpkg.sudo_binary", "sudo")
}

// expandPath expands ~ and environment variables in paths
func expandPath(path string) string {
	if path == "" {
		return path
	}

	if path[0] == '~' {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(homeDir, path[1:])
		}
	}

	return os.ExpandEnv(path)
}
