// Package testsupport provides helpers shared by package tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"playlet/internal/config"
)

// ConfigOption adjusts a test configuration before it is returned.
type ConfigOption func(*config.Config)

// NewConfig returns a validated configuration rooted in a per-test temp
// directory. Options are applied after the directories are seeded.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.OutputDir = filepath.Join(base, "output")
	cfg.Paths.WorkDir = filepath.Join(base, "work")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithStyle appends a style to the catalog.
func WithStyle(style config.Style) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Styles = append(cfg.Styles, style)
	}
}

// WithNtfyTopic points notifications at the given topic URL.
func WithNtfyTopic(topic string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Notifications.NtfyTopic = topic
	}
}

// WithNarrationConcurrency caps concurrent collaborator calls.
func WithNarrationConcurrency(n int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Workflow.NarrationConcurrency = n
	}
}
