package config

// ExampleConfig returns an example configuration showing all available options.
func ExampleConfig() string {
	return `# tasktrack configuration file
# Values can be overridden by TASKTRACK_* environment variables or CLI flags

# Directory holding persisted state (supports ~ and $VAR expansion)
data_dir = "~/.tasktrack/data"

# Storage backend: file, sqlite or memory
backend = "file"

# Storage quota in bytes; 0 disables the limit
quota_bytes = 5242880

# Usage-time ticker and dashboard refresh periods (seconds)
usage_interval_seconds = 60
refresh_interval_seconds = 30

# Pause before each assistant reply (milliseconds)
chat_delay_ms = 1500

# Days scanned when computing the productivity streak
streak_window_days = 30

# Logging
log_dir = "~/.tasktrack/logs"
log_level = "info"    # debug, info, warn, error
log_format = "text"   # text, json, logfmt
log_timestamps = false
log_caller = false
`
}
