package config

import (
	"flag"
)

// flagFields maps flag names to the config field they set.
var flagFields = map[string]string{
	"data-dir":         "data_dir",
	"backend":          "backend",
	"quota-bytes":      "quota_bytes",
	"usage-interval":   "usage_interval_seconds",
	"refresh-interval": "refresh_interval_seconds",
	"chat-delay":       "chat_delay_ms",
	"streak-window":    "streak_window_days",
	"log-dir":          "log_dir",
	"log-level":        "log_level",
	"log-format":       "log_format",
	"log-timestamps":   "log_timestamps",
	"log-caller":       "log_caller",
}

// RegisterFlags defines the global flags on fs, bound to cfg. Each flag
// defaults to cfg's current value so unset flags leave cfg unchanged.
func RegisterFlags(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "Directory holding persisted state")
	fs.StringVar(&cfg.Backend, "backend", cfg.Backend, "Storage backend (file, sqlite, memory)")
	fs.Int64Var(&cfg.QuotaBytes, "quota-bytes", cfg.QuotaBytes, "Storage quota in bytes (0 for unlimited)")
	fs.IntVar(&cfg.UsageIntervalSeconds, "usage-interval", cfg.UsageIntervalSeconds, "Usage ticker period (seconds)")
	fs.IntVar(&cfg.RefreshIntervalSeconds, "refresh-interval", cfg.RefreshIntervalSeconds, "Dashboard refresh period (seconds)")
	fs.IntVar(&cfg.ChatDelayMS, "chat-delay", cfg.ChatDelayMS, "Assistant reply delay (milliseconds)")
	fs.IntVar(&cfg.StreakWindowDays, "streak-window", cfg.StreakWindowDays, "Days scanned for the productivity streak")
	fs.StringVar(&cfg.LogDir, "log-dir", cfg.LogDir, "Session log directory")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format (text, json, logfmt)")
	fs.BoolVar(&cfg.LogTimestamps, "log-timestamps", cfg.LogTimestamps, "Show timestamps in logs")
	fs.BoolVar(&cfg.LogCaller, "log-caller", cfg.LogCaller, "Show caller location in logs")
}

// parseFlags registers and parses the global flags, recording the source of
// every flag that was set explicitly.
func parseFlags(cfg *Config, fs *flag.FlagSet, args []string, sources map[string]ConfigSource) error {
	RegisterFlags(fs, cfg)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if sources != nil {
		fs.Visit(func(f *flag.Flag) {
			if field, ok := flagFields[f.Name]; ok {
				sources[field] = SourceFlag
			}
		})
	}
	return nil
}
