// Package logging builds the slog loggers used across playlet: a pretty
// console handler for interactive use and a JSON handler for log files,
// plus typed attribute helpers and context carriage so pipeline stages
// inherit the job-scoped logger.
package logging
