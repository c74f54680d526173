// Package tts turns a two-speaker script into per-segment audio files using
// the Gemini streaming speech API.
package tts

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"google.golang.org/genai"

	"briefcast/internal/logging"
	"briefcast/internal/script"
	"briefcast/internal/services"
	"briefcast/internal/wav"
)

const stageTTSGeneration = "TTS Generation"

// Config captures the runtime settings for speech synthesis.
type Config struct {
	APIKey string
	Model  string
	// Voices maps script speaker labels ("Speaker 1") to prebuilt voice names.
	Voices          map[string]string
	MaxSegmentLines int
	TimeoutSeconds  int
}

// streamer issues one streaming generate call. The indirection exists so
// tests can feed canned response chunks without a live client.
type streamer interface {
	generateStream(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error]
}

type genaiStreamer struct {
	client *genai.Client
}

func (s genaiStreamer) generateStream(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error] {
	return s.client.Models.GenerateContentStream(ctx, model, contents, cfg)
}

// Synthesizer converts scripts into segment audio files.
type Synthesizer struct {
	cfg    Config
	stream streamer
	logger *slog.Logger
}

// Option customizes the synthesizer.
type Option func(*Synthesizer)

// WithLogger attaches a logger for per-segment diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Synthesizer) {
		if logger != nil {
			s.logger = logging.NewComponentLogger(logger, "tts")
		}
	}
}

// New constructs a synthesizer backed by the Gemini API.
func New(ctx context.Context, cfg Config, opts ...Option) (*Synthesizer, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, services.Wrap(services.ErrConfiguration, stageTTSGeneration, "client", "gemini api key missing", nil)
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, stageTTSGeneration, "client", "create gemini client", err)
	}
	s := &Synthesizer{
		cfg:    cfg,
		stream: genaiStreamer{client: client},
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SynthesizeScript splits the script into segments and synthesizes each one
// in order, writing audio files named <outputPrefix>_seg<segment>_<chunk> with
// an extension matching the payload. Raw PCM payloads are wrapped into WAVE
// containers. The returned paths are in generation order.
func (s *Synthesizer) SynthesizeScript(ctx context.Context, scriptText, outputPrefix string) ([]string, error) {
	segments := script.Split(scriptText, s.cfg.MaxSegmentLines)
	if len(segments) == 0 {
		return nil, services.Wrap(services.ErrValidation, stageTTSGeneration, "synthesize", "script is empty", nil)
	}

	var files []string
	for _, segment := range segments {
		segmentFiles, err := s.synthesizeSegment(ctx, segment, outputPrefix)
		if err != nil {
			return nil, err
		}
		files = append(files, segmentFiles...)
	}
	return files, nil
}

func (s *Synthesizer) synthesizeSegment(ctx context.Context, segment script.Segment, outputPrefix string) ([]string, error) {
	if s.cfg.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(s.cfg.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	contents := []*genai.Content{{
		Role:  "user",
		Parts: []*genai.Part{genai.NewPartFromText(segment.Text())},
	}}
	temperature := float32(1)
	cfg := &genai.GenerateContentConfig{
		Temperature:        &temperature,
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			MultiSpeakerVoiceConfig: &genai.MultiSpeakerVoiceConfig{
				SpeakerVoiceConfigs: s.speakerVoiceConfigs(),
			},
		},
	}

	operation := fmt.Sprintf("segment %d", segment.Index)
	var (
		files     []string
		fileIndex int
	)
	for chunk, err := range s.stream.generateStream(ctx, s.cfg.Model, contents, cfg) {
		if err != nil {
			marker := services.ErrUpstream
			if services.IsQuota(err) {
				marker = services.ErrQuotaExceeded
			}
			return nil, services.Wrap(marker, stageTTSGeneration, operation, "stream error", err)
		}
		blob := firstAudioBlob(chunk)
		if blob == nil || len(blob.Data) == 0 {
			continue
		}

		data := blob.Data
		extension, needsWrap := extensionForDescriptor(blob.MIMEType)
		if needsWrap {
			data = wav.Wrap(data, blob.MIMEType)
		}
		path := fmt.Sprintf("%s_seg%d_%d%s", outputPrefix, segment.Index, fileIndex, extension)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return nil, services.Wrap(services.ErrUpstream, stageTTSGeneration, operation, "write audio file", err)
		}
		s.logger.DebugContext(ctx, "audio chunk saved",
			logging.String("path", path),
			logging.String("mime_type", blob.MIMEType),
			logging.Int("bytes", len(data)))
		files = append(files, path)
		fileIndex++
	}
	s.logger.InfoContext(ctx, "segment synthesized",
		logging.Int("segment", segment.Index),
		logging.Int("files", len(files)))
	return files, nil
}

func (s *Synthesizer) speakerVoiceConfigs() []*genai.SpeakerVoiceConfig {
	speakers := make([]string, 0, len(s.cfg.Voices))
	for speaker := range s.cfg.Voices {
		speakers = append(speakers, speaker)
	}
	sort.Strings(speakers)

	configs := make([]*genai.SpeakerVoiceConfig, 0, len(speakers))
	for _, speaker := range speakers {
		configs = append(configs, &genai.SpeakerVoiceConfig{
			Speaker: speaker,
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{
					VoiceName: s.cfg.Voices[speaker],
				},
			},
		})
	}
	return configs
}

func firstAudioBlob(chunk *genai.GenerateContentResponse) *genai.Blob {
	if chunk == nil || len(chunk.Candidates) == 0 {
		return nil
	}
	candidate := chunk.Candidates[0]
	if candidate == nil || candidate.Content == nil {
		return nil
	}
	for _, part := range candidate.Content.Parts {
		if part != nil && part.InlineData != nil {
			return part.InlineData
		}
	}
	return nil
}

// extensionForDescriptor maps a payload MIME type to a file extension and
// reports whether the raw bytes need a WAVE container header.
func extensionForDescriptor(descriptor string) (string, bool) {
	lower := strings.ToLower(descriptor)
	switch {
	case wav.IsContainerDescriptor(descriptor):
		return ".wav", false
	case strings.Contains(lower, "mpeg"), strings.Contains(lower, "mp3"):
		return ".mp3", false
	case strings.Contains(lower, "ogg"):
		return ".ogg", false
	default:
		// Raw PCM such as audio/L16;rate=24000.
		return ".wav", true
	}
}
