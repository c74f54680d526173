package config

const (
	defaultDataDir                  = "~/.local/share/briefcast/podcasts"
	defaultLogDir                   = "~/.local/share/briefcast/logs"
	defaultAPIBind                  = "127.0.0.1:7509"
	defaultPerplexityBaseURL        = "https://api.perplexity.ai"
	defaultPerplexityModel          = "sonar"
	defaultPerplexityTimeoutSeconds = 60
	defaultTTSModel                 = "gemini-2.5-flash-preview-tts"
	defaultTTSTimeoutSeconds        = 90
	defaultMaxSegmentLines          = 15
	defaultJobWorkers               = 4
	defaultLogFormat                = "console"
	defaultLogLevel                 = "info"
)

func defaultVoices() map[string]string {
	return map[string]string{
		"Speaker 1": "Zephyr",
		"Speaker 2": "Puck",
	}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Perplexity: Perplexity{
			BaseURL:        defaultPerplexityBaseURL,
			Model:          defaultPerplexityModel,
			TimeoutSeconds: defaultPerplexityTimeoutSeconds,
		},
		TTS: TTS{
			Model:           defaultTTSModel,
			Voices:          defaultVoices(),
			MaxSegmentLines: defaultMaxSegmentLines,
			TimeoutSeconds:  defaultTTSTimeoutSeconds,
		},
		Workflow: Workflow{
			JobWorkers: defaultJobWorkers,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
