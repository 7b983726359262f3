package config

const (
	defaultDataDir   = "~/.local/share/playlet"
	defaultOutputDir = "~/.local/share/playlet/output"
	defaultWorkDir   = "~/.local/share/playlet/work"
	defaultLogDir    = "~/.local/share/playlet/logs"

	defaultLogFormat = "console"
	defaultLogLevel  = "info"

	defaultNarrationConcurrency  = 3
	defaultRetryAttempts         = 3
	defaultRetryBaseDelaySeconds = 1
	defaultCallTimeoutSeconds    = 120

	defaultASRBinary         = "whisper-cli"
	defaultASRModel          = "models/ggml-base.bin"
	defaultASRTimeoutSeconds = 600

	defaultLLMBaseURL        = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel          = "deepseek/deepseek-chat-v3"
	defaultLLMReferer        = "https://github.com/playlet/playlet"
	defaultLLMTitle          = "Playlet Narrator"
	defaultLLMTimeoutSeconds = 60

	defaultTTSBaseURL        = "http://127.0.0.1:50000"
	defaultTTSVoice          = "中文女"
	defaultTTSSpeed          = 1.0
	defaultTTSTimeoutSeconds = 120

	defaultAlignment         = "left"
	defaultExtensionStrategy = "slowdown"
	defaultMaxSlowdownFactor = 1.5
	defaultFadeMillis        = 150
	defaultOriginalGain      = 0.3
	defaultNarrationGain     = 1.0
	defaultMaxGain           = 2.0
	defaultFrameRate         = 25
	defaultMinSegmentSeconds = 2.0
	defaultMinSilenceSeconds = 0.5

	defaultNotifyRequestTimeout = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:   defaultDataDir,
			OutputDir: defaultOutputDir,
			WorkDir:   defaultWorkDir,
			LogDir:    defaultLogDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Workflow: Workflow{
			NarrationConcurrency:  defaultNarrationConcurrency,
			RetryAttempts:         defaultRetryAttempts,
			RetryBaseDelaySeconds: defaultRetryBaseDelaySeconds,
			CallTimeoutSeconds:    defaultCallTimeoutSeconds,
		},
		ASR: ASR{
			Binary:         defaultASRBinary,
			Model:          defaultASRModel,
			TimeoutSeconds: defaultASRTimeoutSeconds,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		TTS: TTS{
			BaseURL:        defaultTTSBaseURL,
			Voice:          defaultTTSVoice,
			Speed:          defaultTTSSpeed,
			TimeoutSeconds: defaultTTSTimeoutSeconds,
		},
		Reconcile: Reconcile{
			Alignment:         defaultAlignment,
			ExtensionStrategy: defaultExtensionStrategy,
			MaxSlowdownFactor: defaultMaxSlowdownFactor,
			FadeMillis:        defaultFadeMillis,
			OriginalGain:      defaultOriginalGain,
			NarrationGain:     defaultNarrationGain,
			MaxGain:           defaultMaxGain,
			FrameRate:         defaultFrameRate,
			MinSegmentSeconds: defaultMinSegmentSeconds,
			MinSilenceSeconds: defaultMinSilenceSeconds,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			JobCompleted:   true,
			Errors:         true,
		},
		Styles: []Style{
			{
				Name:        "suspense",
				Description: "tense, cliffhanger-driven narration that teases what happens next",
				Blur:        true,
			},
			{
				Name:        "humor",
				Description: "light, playful commentary that leans into the absurd",
			},
			{
				Name:        "recap",
				Description: "fast, factual plot summary for viewers catching up",
			},
		},
	}
}
