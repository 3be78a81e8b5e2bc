package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	ListenAddr string `mapstructure:"listen_addr"`
	ChunkMB    int    `mapstructure:"chunk_mb"`    // default block size per grow request
	MaxGrowMB  int    `mapstructure:"max_grow_mb"` // per-call safety ceiling
	TouchPages bool   `mapstructure:"touch_pages"` // write every page so blocks land in RSS
	Allocator  string `mapstructure:"allocator"`   // "heap" or "mmap"
	LogLevel   string `mapstructure:"log_level"`

	JournalEnabled bool   `mapstructure:"journal_enabled"`
	JournalFile    string `mapstructure:"journal_file"`
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig() (*Config, error) {
	// Set defaults
	viper.SetDefault("listen_addr", ":8000")
	viper.SetDefault("chunk_mb", 8)
	viper.SetDefault("max_grow_mb", 4096)
	viper.SetDefault("touch_pages", true)
	viper.SetDefault("allocator", "heap")
	viper.SetDefault("log_level", "info")
	viper.SetDefault("journal_enabled", false)
	viper.SetDefault("journal_file", filepath.Join(getHomeDir(), ".memstress", "journal.log"))

	// Set config file location
	configDir := filepath.Join(getHomeDir(), ".memstress")
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)

	// Read config file (ignore error if file doesn't exist)
	_ = viper.ReadInConfig() // nolint:errcheck // config file is optional

	// Override with environment variables
	viper.SetEnvPrefix("MEMSTRESS")
	viper.AutomaticEnv()

	// Map env var names to config keys (errors are unlikely and safe to ignore)
	_ = viper.BindEnv("listen_addr", "MEMSTRESS_LISTEN_ADDR") // nolint:errcheck // errors are unlikely here
	_ = viper.BindEnv("chunk_mb", "MEMSTRESS_CHUNK_MB")       // nolint:errcheck // errors are unlikely here
	_ = viper.BindEnv("max_grow_mb", "MEMSTRESS_MAX_GROW_MB") // nolint:errcheck // errors are unlikely here
	_ = viper.BindEnv("allocator", "MEMSTRESS_ALLOCATOR")     // nolint:errcheck // errors are unlikely here
	_ = viper.BindEnv("log_level", "MEMSTRESS_LOG_LEVEL")     // nolint:errcheck // errors are unlikely here

	// Unmarshal into Config struct
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Expand ~ in paths
	cfg.JournalFile = expandPath(cfg.JournalFile)

	return &cfg, nil
}

// getHomeDir returns the user's home directory
func getHomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		home := getHomeDir()
		return filepath.Join(home, path[1:])
	}
	return path
}
