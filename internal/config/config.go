package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Rules   RulesConfig   `mapstructure:"rules"`
	Cleaner CleanerConfig `mapstructure:"cleaner"`
	Journal JournalConfig `mapstructure:"journal"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig holds the Plex server connection
type ServerConfig struct {
	URL   string `mapstructure:"url"`   // Server URL
	Token string `mapstructure:"token"` // Owner's Plex token
}

// RulesConfig holds the retention thresholds
type RulesConfig struct {
	MusicDeleteBelow float64 `mapstructure:"music_delete_below"`
	VideoKeepAbove   float64 `mapstructure:"video_keep_above"`
	AnyWatchedDays   int     `mapstructure:"any_watched_days"`
	AllWatchedDays   int     `mapstructure:"all_watched_days"`
}

// CleanerConfig holds pass-level behavior
type CleanerConfig struct {
	DryRun       bool     `mapstructure:"dry_run"`       // never delete, only report
	LibraryTypes []string `mapstructure:"library_types"` // raw types to evaluate
	Protected    []string `mapstructure:"protected"`     // titles never deleted
}

// JournalConfig holds the decision journal settings
type JournalConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
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
			URL:   "",
			Token: "",
		},
		Rules: RulesConfig{
			MusicDeleteBelow: 3,
			VideoKeepAbove:   8,
			AnyWatchedDays:   15,
			AllWatchedDays:   7,
		},
		Cleaner: CleanerConfig{
			DryRun:       false,
			LibraryTypes: []string{"episode", "movie", "track"},
			Protected:    nil,
		},
		Journal: JournalConfig{
			Enabled: true,
			Path:    defaultJournalPath(),
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
		return filepath.Join(os.Getenv("APPDATA"), "plex-cleaner", "plex-cleaner.log")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "plex-cleaner", "plex-cleaner.log")
	}
}

// defaultJournalPath returns the default journal database path
func defaultJournalPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "plex-cleaner", "journal.db")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "plex-cleaner", "journal.db")
	}
}

// defaultConfigPath returns the default config directory for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "plex-cleaner")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "plex-cleaner")
	}
}

// LoadConfig loads configuration from file and environment
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(defaultConfigPath())
	viper.AddConfigPath(".")

	// Environment variable overrides, e.g. PLEXCLEANER_SERVER_TOKEN
	viper.SetEnvPrefix("PLEXCLEANER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
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

	viper.Set("rules.music_delete_below", cfg.Rules.MusicDeleteBelow)
	viper.Set("rules.video_keep_above", cfg.Rules.VideoKeepAbove)
	viper.Set("rules.any_watched_days", cfg.Rules.AnyWatchedDays)
	viper.Set("rules.all_watched_days", cfg.Rules.AllWatchedDays)

	viper.Set("cleaner.dry_run", cfg.Cleaner.DryRun)
	viper.Set("cleaner.library_types", cfg.Cleaner.LibraryTypes)
	viper.Set("cleaner.protected", cfg.Cleaner.Protected)

	viper.Set("journal.enabled", cfg.Journal.Enabled)
	viper.Set("journal.path", cfg.Journal.Path)

	viper.Set("logging.file", cfg.Logging.File)
	viper.Set("logging.level", cfg.Logging.Level)

	configFile := filepath.Join(configPath, "config.yaml")
	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// IsConfigured returns true if the server URL and token are set
func (c *Config) IsConfigured() bool {
	return c.Server.URL != "" && c.Server.Token != ""
}
