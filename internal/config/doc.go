// Package config loads, normalizes, and validates the TOML configuration
// for the playlet pipeline, including the narration style catalog. A loaded
// Config is treated as an immutable snapshot for the duration of a job.
package config
