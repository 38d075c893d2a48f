package config

import (
	"github.com/nibzard/tasktrack-go/internal/storage"
)

// ConfigSource represents where a configuration value came from.
type ConfigSource string

const (
	SourceDefault  ConfigSource = "default"
	SourceUserFile ConfigSource = "user file"
	SourceProjFile ConfigSource = "project file"
	SourceEnv      ConfigSource = "environment"
	SourceFlag     ConfigSource = "flag"
)

// ConfigWithSources holds configuration along with source information for each field.
type ConfigWithSources struct {
	Config  *Config
	Sources map[string]ConfigSource
	// Files lists the config files that were read, lowest priority first.
	Files []string
}

// Default values.
const (
	DefaultDataDir                = "~/.tasktrack/data"
	DefaultLogDir                 = "~/.tasktrack/logs"
	DefaultBackend                = storage.BackendFile
	DefaultQuotaBytes             = storage.DefaultQuotaBytes
	DefaultUsageIntervalSeconds   = 60
	DefaultRefreshIntervalSeconds = 30
	DefaultChatDelayMS            = 1500
	DefaultStreakWindowDays       = 30
)

// Config holds the full configuration for tasktrack.
type Config struct {
	// Storage
	DataDir    string `toml:"data_dir"`
	Backend    string `toml:"backend"`
	QuotaBytes int64  `toml:"quota_bytes"`

	// Session timers
	UsageIntervalSeconds   int `toml:"usage_interval_seconds"`
	RefreshIntervalSeconds int `toml:"refresh_interval_seconds"`

	// Assistant reply delay
	ChatDelayMS int `toml:"chat_delay_ms"`

	// Days scanned by the productivity streak
	StreakWindowDays int `toml:"streak_window_days"`

	// Logging configuration
	LogDir        string `toml:"log_dir"`
	LogLevel      string `toml:"log_level"`
	LogFormat     string `toml:"log_format"`
	LogTimestamps bool   `toml:"log_timestamps"`
	LogCaller     bool   `toml:"log_caller"`

	// Project root (computed)
	ProjectRoot string `toml:"-"`
}

// configFields returns the list of configurable field names for source tracking.
func configFields() []string {
	return []string{
		"data_dir",
		"backend",
		"quota_bytes",
		"usage_interval_seconds",
		"refresh_interval_seconds",
		"chat_delay_ms",
		"streak_window_days",
		"log_dir",
		"log_level",
		"log_format",
		"log_timestamps",
		"log_caller",
	}
}

// Fields returns the configurable field names in display order.
func Fields() []string {
	return configFields()
}
