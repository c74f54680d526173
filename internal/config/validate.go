package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePerplexity(); err != nil {
		return err
	}
	if err := c.validateTTS(); err != nil {
		return err
	}
	if c.Workflow.JobWorkers <= 0 {
		return errors.New("workflow.job_workers must be positive")
	}
	return nil
}

func (c *Config) validatePerplexity() error {
	if c.Perplexity.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/briefcast/config.toml"
		}
		return fmt.Errorf("perplexity.api_key is required. Set PERPLEXITY_API_KEY env var or edit %s (create with 'briefcast config init')", defaultPath)
	}
	if c.Perplexity.TimeoutSeconds <= 0 {
		return errors.New("perplexity.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateTTS() error {
	if c.TTS.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/briefcast/config.toml"
		}
		return fmt.Errorf("tts.api_key is required. Set GEMINI_API_KEY env var or edit %s (create with 'briefcast config init')", defaultPath)
	}
	if len(c.TTS.Voices) == 0 {
		return errors.New("tts.voices must map at least one speaker to a voice")
	}
	if c.TTS.MaxSegmentLines <= 0 {
		return errors.New("tts.max_segment_lines must be positive")
	}
	if c.TTS.TimeoutSeconds <= 0 {
		return errors.New("tts.timeout_seconds must be positive")
	}
	return nil
}
