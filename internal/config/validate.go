package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateReconcile(); err != nil {
		return err
	}
	if err := c.validateTTS(); err != nil {
		return err
	}
	if err := c.validateStyles(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.NarrationConcurrency > 64 {
		return errors.New("workflow.narration_concurrency must be at most 64")
	}
	return nil
}

func (c *Config) validateReconcile() error {
	switch c.Reconcile.Alignment {
	case "left", "center":
	default:
		return fmt.Errorf("reconcile.alignment: unsupported value %q", c.Reconcile.Alignment)
	}
	switch c.Reconcile.ExtensionStrategy {
	case "freeze", "slowdown":
	default:
		return fmt.Errorf("reconcile.extension_strategy: unsupported value %q", c.Reconcile.ExtensionStrategy)
	}
	if c.Reconcile.MaxSlowdownFactor < 1 {
		return errors.New("reconcile.max_slowdown_factor must be at least 1")
	}
	if c.Reconcile.OriginalGain > 1 {
		return errors.New("reconcile.original_gain must be at most 1")
	}
	if c.Reconcile.NarrationGain > c.Reconcile.MaxGain {
		return errors.New("reconcile.narration_gain must not exceed reconcile.max_gain")
	}
	if c.Reconcile.MinSilenceSeconds > c.Reconcile.MinSegmentSeconds {
		return errors.New("reconcile.min_silence_seconds must not exceed reconcile.min_segment_seconds")
	}
	return nil
}

func (c *Config) validateTTS() error {
	if c.TTS.Speed < 0.5 || c.TTS.Speed > 2.0 {
		return errors.New("tts.speed must be between 0.5 and 2.0")
	}
	return nil
}

func (c *Config) validateStyles() error {
	seen := make(map[string]struct{}, len(c.Styles))
	for _, style := range c.Styles {
		key := strings.ToLower(style.Name)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("styles: duplicate name %q", style.Name)
		}
		seen[key] = struct{}{}
		if style.MaxSlowdownFactor != 0 && style.MaxSlowdownFactor < 1 {
			return fmt.Errorf("styles.%s: max_slowdown_factor must be at least 1", style.Name)
		}
	}
	return nil
}
