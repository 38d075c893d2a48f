package config

import (
	"fmt"
	"time"
)

// UsageInterval is the period of the usage-time ticker.
func (c *Config) UsageInterval() time.Duration {
	return time.Duration(c.UsageIntervalSeconds) * time.Second
}

// RefreshInterval is the period of the view refresh ticker.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalSeconds) * time.Second
}

// ChatDelay is the pause before each assistant reply.
func (c *Config) ChatDelay() time.Duration {
	return time.Duration(c.ChatDelayMS) * time.Millisecond
}

// Value returns the display value of a field named as in configFields.
func (c *Config) Value(field string) string {
	switch field {
	case "data_dir":
		return c.DataDir
	case "backend":
		return c.Backend
	case "quota_bytes":
		return fmt.Sprint(c.QuotaBytes)
	case "usage_interval_seconds":
		return fmt.Sprint(c.UsageIntervalSeconds)
	case "refresh_interval_seconds":
		return fmt.Sprint(c.RefreshIntervalSeconds)
	case "chat_delay_ms":
		return fmt.Sprint(c.ChatDelayMS)
	case "streak_window_days":
		return fmt.Sprint(c.StreakWindowDays)
	case "log_dir":
		return c.LogDir
	case "log_level":
		return c.LogLevel
	case "log_format":
		return c.LogFormat
	case "log_timestamps":
		return fmt.Sprint(c.LogTimestamps)
	case "log_caller":
		return fmt.Sprint(c.LogCaller)
	default:
		return ""
	}
}
