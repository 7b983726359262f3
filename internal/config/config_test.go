package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"playlet/internal/config"
)

func TestDefaultValidates(t *testing.T) {
	cfg := config.Default()
	// Load normalizes before validating; mirror that here.
	path := filepath.Join(t.TempDir(), "missing.toml")
	loaded, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load with missing file failed: %v", err)
	}
	if exists {
		t.Fatal("missing config reported as existing")
	}
	if loaded.Reconcile.MaxSlowdownFactor != cfg.Reconcile.MaxSlowdownFactor {
		t.Fatal("defaults not applied")
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[logging]
format = "JSON"
level = "DEBUG"

[reconcile]
alignment = "CENTER"
max_slowdown_factor = 2.0

[[styles]]
name = "  drama  "
description = "dramatic"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists || resolved == "" {
		t.Fatal("expected config to resolve")
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("logging not normalized: %#v", cfg.Logging)
	}
	if cfg.Reconcile.Alignment != "center" {
		t.Fatalf("alignment not normalized: %q", cfg.Reconcile.Alignment)
	}
	if cfg.Reconcile.MaxSlowdownFactor != 2.0 {
		t.Fatalf("override lost: %v", cfg.Reconcile.MaxSlowdownFactor)
	}
	style, known := cfg.StyleByName("drama")
	if !known || style.Description != "dramatic" {
		t.Fatalf("style lookup failed: %#v known=%v", style, known)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "bad alignment",
			content: "[reconcile]\nalignment = \"top\"\n",
			wantErr: "reconcile.alignment",
		},
		{
			name:    "bad strategy",
			content: "[reconcile]\nextension_strategy = \"stretch\"\n",
			wantErr: "reconcile.extension_strategy",
		},
		{
			name:    "slowdown below one",
			content: "[reconcile]\nmax_slowdown_factor = 0.9\n",
			wantErr: "max_slowdown_factor",
		},
		{
			name:    "tts speed out of range",
			content: "[tts]\nspeed = 3.0\n",
			wantErr: "tts.speed",
		},
		{
			name:    "duplicate style",
			content: "[[styles]]\nname = \"a\"\n\n[[styles]]\nname = \"A\"\n",
			wantErr: "duplicate name",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tc.content), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			_, _, _, err := config.Load(path)
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestStyleByNameUnknownIsFreeForm(t *testing.T) {
	cfg := config.Default()
	style, known := cfg.StyleByName("melancholy noir")
	if known {
		t.Fatal("unknown style reported as known")
	}
	if style.Name != "melancholy noir" || style.Description != "melancholy noir" {
		t.Fatalf("free-form style mismatch: %#v", style)
	}
}

func TestLLMKeyFromEnvironment(t *testing.T) {
	t.Setenv("PLAYLET_LLM_API_KEY", "from-env")
	path := filepath.Join(t.TempDir(), "missing.toml")
	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.LLM.APIKey != "from-env" {
		t.Fatalf("env key not applied: %q", cfg.LLM.APIKey)
	}
}
