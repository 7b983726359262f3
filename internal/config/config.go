package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir   string `toml:"data_dir"`
	OutputDir string `toml:"output_dir"`
	WorkDir   string `toml:"work_dir"`
	LogDir    string `toml:"log_dir"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Workflow contains orchestration settings: external-call concurrency,
// retries, and timeouts.
type Workflow struct {
	NarrationConcurrency  int `toml:"narration_concurrency"`
	RetryAttempts         int `toml:"retry_attempts"`
	RetryBaseDelaySeconds int `toml:"retry_base_delay_seconds"`
	CallTimeoutSeconds    int `toml:"call_timeout_seconds"`
}

// ASR contains configuration for the speech recognition collaborator.
type ASR struct {
	Binary         string `toml:"binary"`
	Model          string `toml:"model"`
	Language       string `toml:"language"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// LLM contains configuration for the script generation collaborator.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// TTS contains configuration for the speech synthesis collaborator.
type TTS struct {
	BaseURL        string  `toml:"base_url"`
	Voice          string  `toml:"voice"`
	Speed          float64 `toml:"speed"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
}

// Reconcile contains the timing and mix settings applied when narration is
// folded into the timeline.
type Reconcile struct {
	// Alignment places narration shorter than its segment: "left" or
	// "center".
	Alignment string `toml:"alignment"`
	// ExtensionStrategy handles narration longer than its segment:
	// "slowdown" or "freeze".
	ExtensionStrategy string  `toml:"extension_strategy"`
	MaxSlowdownFactor float64 `toml:"max_slowdown_factor"`
	FadeMillis        int64   `toml:"fade_millis"`
	// OriginalGain is the ducked original-track level under narration.
	OriginalGain  float64 `toml:"original_gain"`
	NarrationGain float64 `toml:"narration_gain"`
	MaxGain       float64 `toml:"max_gain"`
	// FrameRate of the output video, used to reject sub-frame spans.
	FrameRate int `toml:"frame_rate"`
	// MinSegmentSeconds is the smallest segment eligible for narration.
	MinSegmentSeconds float64 `toml:"min_segment_seconds"`
	// MinSilenceSeconds is the smallest cue gap that separates segments.
	MinSilenceSeconds float64 `toml:"min_silence_seconds"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	JobCompleted   bool   `toml:"job_completed"`
	Errors         bool   `toml:"errors"`
}

// Style is one entry in the narration style catalog. Zero-valued overrides
// fall back to the [reconcile] section.
type Style struct {
	Name           string `toml:"name"`
	Description    string `toml:"description"`
	Voice          string `toml:"voice"`
	Language       string `toml:"language"`
	Blur           bool   `toml:"blur"`
	PassThrough    bool   `toml:"pass_through"`
	PromptTemplate string `toml:"prompt_template"`

	MaxSlowdownFactor float64 `toml:"max_slowdown_factor"`
	OriginalGain      float64 `toml:"original_gain"`
	NarrationGain     float64 `toml:"narration_gain"`
}

// Config encapsulates all configuration values for playlet.
type Config struct {
	Paths         Paths         `toml:"paths"`
	Logging       Logging       `toml:"logging"`
	Workflow      Workflow      `toml:"workflow"`
	ASR           ASR           `toml:"asr"`
	LLM           LLM           `toml:"llm"`
	TTS           TTS           `toml:"tts"`
	Reconcile     Reconcile     `toml:"reconcile"`
	Notifications Notifications `toml:"notifications"`
	Styles        []Style       `toml:"styles"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/playlet/config.toml")
}

// Load locates, parses, normalizes, and validates a configuration file. When
// the file does not exist the defaults are returned, which lets commands run
// against an unconfigured environment as far as validation allows.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("playlet.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a pipeline run needs.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.OutputDir, c.Paths.WorkDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// StyleByName resolves a style from the catalog. Unknown names produce a
// free-form style whose description is the name itself, so callers can pass
// ad-hoc style descriptions straight to generation.
func (c *Config) StyleByName(name string) (Style, bool) {
	trimmed := strings.TrimSpace(name)
	for _, style := range c.Styles {
		if strings.EqualFold(style.Name, trimmed) {
			return style, true
		}
	}
	return Style{Name: trimmed, Description: trimmed}, false
}

// WriteSample writes the embedded sample configuration to path, refusing to
// overwrite an existing file.
func WriteSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists: %s", expanded)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(expanded, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if trimmed == "~" {
			trimmed = home
		} else {
			trimmed = filepath.Join(home, trimmed[2:])
		}
	}
	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return "", fmt.Errorf("absolute path: %w", err)
	}
	return abs, nil
}
