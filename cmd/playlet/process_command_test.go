package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveVideoPath(t *testing.T) {
	dir := t.TempDir()

	video := filepath.Join(dir, "episode.mp4")
	if err := os.WriteFile(video, []byte("x"), 0o644); err != nil {
		t.Fatalf("write video: %v", err)
	}

	resolved, err := resolveVideoPath(video)
	if err != nil {
		t.Fatalf("resolveVideoPath: %v", err)
	}
	if resolved != video {
		t.Fatalf("expected %s, got %s", video, resolved)
	}

	if _, err := resolveVideoPath(filepath.Join(dir, "missing.mp4")); err == nil {
		t.Fatal("expected error for missing file")
	}
	if _, err := resolveVideoPath(dir); err == nil {
		t.Fatal("expected error for directory")
	}

	text := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(text, []byte("x"), 0o644); err != nil {
		t.Fatalf("write text: %v", err)
	}
	if _, err := resolveVideoPath(text); err == nil {
		t.Fatal("expected error for unsupported extension")
	}
}

func TestProcessRejectsMissingSubtitles(t *testing.T) {
	env := setupCLITestEnv(t)

	dir := t.TempDir()
	video := filepath.Join(dir, "episode.mp4")
	if err := os.WriteFile(video, []byte("x"), 0o644); err != nil {
		t.Fatalf("write video: %v", err)
	}

	_, _, err := runCLI(t, []string{"process", video, "--srt", filepath.Join(dir, "missing.srt")}, env.configPath)
	if err == nil {
		t.Fatal("expected error for missing subtitle file")
	}
}
