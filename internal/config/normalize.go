package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLogging()
	c.normalizeWorkflow()
	c.normalizeASR()
	c.normalizeLLM()
	c.normalizeTTS()
	c.normalizeReconcile()
	c.normalizeStyles()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.NarrationConcurrency <= 0 {
		c.Workflow.NarrationConcurrency = defaultNarrationConcurrency
	}
	if c.Workflow.RetryAttempts <= 0 {
		c.Workflow.RetryAttempts = defaultRetryAttempts
	}
	if c.Workflow.RetryBaseDelaySeconds <= 0 {
		c.Workflow.RetryBaseDelaySeconds = defaultRetryBaseDelaySeconds
	}
	if c.Workflow.CallTimeoutSeconds <= 0 {
		c.Workflow.CallTimeoutSeconds = defaultCallTimeoutSeconds
	}
}

func (c *Config) normalizeASR() {
	c.ASR.Binary = strings.TrimSpace(c.ASR.Binary)
	if c.ASR.Binary == "" {
		c.ASR.Binary = defaultASRBinary
	}
	c.ASR.Model = strings.TrimSpace(c.ASR.Model)
	if c.ASR.Model == "" {
		c.ASR.Model = defaultASRModel
	}
	c.ASR.Language = strings.ToLower(strings.TrimSpace(c.ASR.Language))
	if c.ASR.TimeoutSeconds <= 0 {
		c.ASR.TimeoutSeconds = defaultASRTimeoutSeconds
	}
}

func (c *Config) normalizeLLM() {
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		if value, ok := os.LookupEnv("PLAYLET_LLM_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("OPENROUTER_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("DEEPSEEK_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		}
	}
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	c.LLM.Referer = strings.TrimSpace(c.LLM.Referer)
	if c.LLM.Referer == "" {
		c.LLM.Referer = defaultLLMReferer
	}
	c.LLM.Title = strings.TrimSpace(c.LLM.Title)
	if c.LLM.Title == "" {
		c.LLM.Title = defaultLLMTitle
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
}

func (c *Config) normalizeTTS() {
	c.TTS.BaseURL = strings.TrimSpace(c.TTS.BaseURL)
	if c.TTS.BaseURL == "" {
		c.TTS.BaseURL = defaultTTSBaseURL
	}
	c.TTS.Voice = strings.TrimSpace(c.TTS.Voice)
	if c.TTS.Voice == "" {
		c.TTS.Voice = defaultTTSVoice
	}
	if c.TTS.Speed <= 0 {
		c.TTS.Speed = defaultTTSSpeed
	}
	if c.TTS.TimeoutSeconds <= 0 {
		c.TTS.TimeoutSeconds = defaultTTSTimeoutSeconds
	}
}

func (c *Config) normalizeReconcile() {
	c.Reconcile.Alignment = strings.ToLower(strings.TrimSpace(c.Reconcile.Alignment))
	if c.Reconcile.Alignment == "" {
		c.Reconcile.Alignment = defaultAlignment
	}
	c.Reconcile.ExtensionStrategy = strings.ToLower(strings.TrimSpace(c.Reconcile.ExtensionStrategy))
	if c.Reconcile.ExtensionStrategy == "" {
		c.Reconcile.ExtensionStrategy = defaultExtensionStrategy
	}
	if c.Reconcile.MaxSlowdownFactor <= 0 {
		c.Reconcile.MaxSlowdownFactor = defaultMaxSlowdownFactor
	}
	if c.Reconcile.FadeMillis <= 0 {
		c.Reconcile.FadeMillis = defaultFadeMillis
	}
	if c.Reconcile.OriginalGain <= 0 {
		c.Reconcile.OriginalGain = defaultOriginalGain
	}
	if c.Reconcile.NarrationGain <= 0 {
		c.Reconcile.NarrationGain = defaultNarrationGain
	}
	if c.Reconcile.MaxGain <= 0 {
		c.Reconcile.MaxGain = defaultMaxGain
	}
	if c.Reconcile.FrameRate <= 0 {
		c.Reconcile.FrameRate = defaultFrameRate
	}
	if c.Reconcile.MinSegmentSeconds <= 0 {
		c.Reconcile.MinSegmentSeconds = defaultMinSegmentSeconds
	}
	if c.Reconcile.MinSilenceSeconds <= 0 {
		c.Reconcile.MinSilenceSeconds = defaultMinSilenceSeconds
	}
}

func (c *Config) normalizeStyles() {
	styles := make([]Style, 0, len(c.Styles))
	for _, style := range c.Styles {
		style.Name = strings.TrimSpace(style.Name)
		if style.Name == "" {
			continue
		}
		style.Description = strings.TrimSpace(style.Description)
		style.Voice = strings.TrimSpace(style.Voice)
		style.Language = strings.ToLower(strings.TrimSpace(style.Language))
		styles = append(styles, style)
	}
	c.Styles = styles
}
