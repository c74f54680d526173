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
	c.normalizePerplexity()
	c.normalizeTTS()
	if c.Workflow.JobWorkers <= 0 {
		c.Workflow.JobWorkers = defaultJobWorkers
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

func (c *Config) normalizePerplexity() {
	c.Perplexity.APIKey = strings.TrimSpace(c.Perplexity.APIKey)
	if c.Perplexity.APIKey == "" {
		if value, ok := os.LookupEnv("PERPLEXITY_API_KEY"); ok {
			c.Perplexity.APIKey = strings.TrimSpace(value)
		}
	}
	c.Perplexity.BaseURL = strings.TrimSuffix(strings.TrimSpace(c.Perplexity.BaseURL), "/")
	if c.Perplexity.BaseURL == "" {
		c.Perplexity.BaseURL = defaultPerplexityBaseURL
	}
	c.Perplexity.Model = strings.TrimSpace(c.Perplexity.Model)
	if c.Perplexity.Model == "" {
		c.Perplexity.Model = defaultPerplexityModel
	}
	if c.Perplexity.TimeoutSeconds <= 0 {
		c.Perplexity.TimeoutSeconds = defaultPerplexityTimeoutSeconds
	}
}

func (c *Config) normalizeTTS() {
	c.TTS.APIKey = strings.TrimSpace(c.TTS.APIKey)
	if c.TTS.APIKey == "" {
		if value, ok := os.LookupEnv("GEMINI_API_KEY"); ok {
			c.TTS.APIKey = strings.TrimSpace(value)
		}
	}
	c.TTS.Model = strings.TrimSpace(c.TTS.Model)
	if c.TTS.Model == "" {
		c.TTS.Model = defaultTTSModel
	}
	if len(c.TTS.Voices) == 0 {
		c.TTS.Voices = defaultVoices()
	} else {
		voices := make(map[string]string, len(c.TTS.Voices))
		for speaker, voice := range c.TTS.Voices {
			speaker = strings.TrimSpace(speaker)
			voice = strings.TrimSpace(voice)
			if speaker == "" || voice == "" {
				continue
			}
			voices[speaker] = voice
		}
		if len(voices) == 0 {
			voices = defaultVoices()
		}
		c.TTS.Voices = voices
	}
	if c.TTS.MaxSegmentLines <= 0 {
		c.TTS.MaxSegmentLines = defaultMaxSegmentLines
	}
	if c.TTS.TimeoutSeconds <= 0 {
		c.TTS.TimeoutSeconds = defaultTTSTimeoutSeconds
	}
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
