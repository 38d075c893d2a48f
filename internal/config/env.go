package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// envBinding maps one TASKTRACK_* variable onto a config field.
type envBinding struct {
	name  string
	field string
	apply func(cfg *Config, v string) error
}

func envBindings() []envBinding {
	str := func(dst func(*Config) *string) func(*Config, string) error {
		return func(cfg *Config, v string) error {
			*dst(cfg) = v
			return nil
		}
	}
	num := func(dst func(*Config) *int) func(*Config, string) error {
		return func(cfg *Config, v string) error {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return err
			}
			*dst(cfg) = n
			return nil
		}
	}
	flag := func(dst func(*Config) *bool) func(*Config, string) error {
		return func(cfg *Config, v string) error {
			*dst(cfg) = boolFromString(v)
			return nil
		}
	}

	return []envBinding{
		{"TASKTRACK_DATA_DIR", "data_dir", str(func(c *Config) *string { return &c.DataDir })},
		{"TASKTRACK_BACKEND", "backend", str(func(c *Config) *string { return &c.Backend })},
		{"TASKTRACK_QUOTA_BYTES", "quota_bytes", func(cfg *Config, v string) error {
			n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
			if err != nil {
				return err
			}
			cfg.QuotaBytes = n
			return nil
		}},
		{"TASKTRACK_USAGE_INTERVAL", "usage_interval_seconds", num(func(c *Config) *int { return &c.UsageIntervalSeconds })},
		{"TASKTRACK_REFRESH_INTERVAL", "refresh_interval_seconds", num(func(c *Config) *int { return &c.RefreshIntervalSeconds })},
		{"TASKTRACK_CHAT_DELAY_MS", "chat_delay_ms", num(func(c *Config) *int { return &c.ChatDelayMS })},
		{"TASKTRACK_STREAK_WINDOW", "streak_window_days", num(func(c *Config) *int { return &c.StreakWindowDays })},
		{"TASKTRACK_LOG_DIR", "log_dir", str(func(c *Config) *string { return &c.LogDir })},
		{"TASKTRACK_LOG_LEVEL", "log_level", str(func(c *Config) *string { return &c.LogLevel })},
		{"TASKTRACK_LOG_FORMAT", "log_format", str(func(c *Config) *string { return &c.LogFormat })},
		{"TASKTRACK_LOG_TIMESTAMPS", "log_timestamps", flag(func(c *Config) *bool { return &c.LogTimestamps })},
		{"TASKTRACK_LOG_CALLER", "log_caller", flag(func(c *Config) *bool { return &c.LogCaller })},
	}
}

// EnvVars lists the recognized environment variables.
func EnvVars() []string {
	bindings := envBindings()
	names := make([]string, len(bindings))
	for i, b := range bindings {
		names[i] = b.name
	}
	return names
}

// loadFromEnv overrides config from environment variables. Unset or empty
// variables are ignored; malformed numbers are an error.
func loadFromEnv(cfg *Config, sources map[string]ConfigSource) error {
	for _, b := range envBindings() {
		v := os.Getenv(b.name)
		if v == "" {
			continue
		}
		if err := b.apply(cfg, v); err != nil {
			return fmt.Errorf("%s: %w", b.name, err)
		}
		if sources != nil {
			sources[b.field] = SourceEnv
		}
	}
	return nil
}

// boolFromString parses a boolean from a string.
func boolFromString(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "1" || s == "true" || s == "yes" || s == "on"
}
