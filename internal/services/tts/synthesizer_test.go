package tts

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"google.golang.org/genai"

	"briefcast/internal/logging"
	"briefcast/internal/services"
	"briefcast/internal/wav"
)

type fakeCall struct {
	model    string
	contents []*genai.Content
	cfg      *genai.GenerateContentConfig
}

// fakeStreamer replays one canned chunk sequence per call.
type fakeStreamer struct {
	calls     []fakeCall
	responses [][]*genai.GenerateContentResponse
	errs      []error
}

func (f *fakeStreamer) generateStream(_ context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error] {
	call := len(f.calls)
	f.calls = append(f.calls, fakeCall{model: model, contents: contents, cfg: cfg})
	return func(yield func(*genai.GenerateContentResponse, error) bool) {
		if call < len(f.responses) {
			for _, chunk := range f.responses[call] {
				if !yield(chunk, nil) {
					return
				}
			}
		}
		if call < len(f.errs) && f.errs[call] != nil {
			yield(nil, f.errs[call])
		}
	}
}

func newTestSynthesizer(stream streamer) *Synthesizer {
	return &Synthesizer{
		cfg: Config{
			Model:           "gemini-2.5-flash-preview-tts",
			Voices:          map[string]string{"Speaker 1": "Zephyr", "Speaker 2": "Puck"},
			MaxSegmentLines: 15,
		},
		stream: stream,
		logger: logging.NewNop(),
	}
}

func audioChunk(mimeType string, data []byte) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{
				Parts: []*genai.Part{{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}}},
			},
		}},
	}
}

func scriptWithLines(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		speaker := 1 + i%2
		fmt.Fprintf(&b, "Speaker %d: Line %d.\n", speaker, i+1)
	}
	return b.String()
}

func TestSynthesizeScriptWrapsRawPCM(t *testing.T) {
	pcm := []byte{0x01, 0x02, 0x03, 0x04}
	stream := &fakeStreamer{
		responses: [][]*genai.GenerateContentResponse{
			{audioChunk("audio/L16;rate=24000", pcm)},
		},
	}
	s := newTestSynthesizer(stream)
	prefix := filepath.Join(t.TempDir(), "podcast-test")

	files, err := s.SynthesizeScript(context.Background(), scriptWithLines(4), prefix)
	if err != nil {
		t.Fatalf("SynthesizeScript failed: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("expected 1 file, got %v", files)
	}
	if want := prefix + "_seg0_0.wav"; files[0] != want {
		t.Fatalf("file name = %q, want %q", files[0], want)
	}

	data, err := os.ReadFile(files[0])
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	format, dataLen, err := wav.ParseHeader(data[:wav.HeaderSize])
	if err != nil {
		t.Fatalf("output is not a wav container: %v", err)
	}
	if format.SampleRate != 24000 || format.BitsPerSample != 16 || format.Channels != 1 {
		t.Fatalf("unexpected format: %+v", format)
	}
	if dataLen != len(pcm) {
		t.Fatalf("data length = %d, want %d", dataLen, len(pcm))
	}
}

func TestSynthesizeScriptSegmentAndChunkNaming(t *testing.T) {
	stream := &fakeStreamer{
		responses: [][]*genai.GenerateContentResponse{
			{
				audioChunk("audio/L16;rate=24000", []byte{1, 2}),
				audioChunk("audio/L16;rate=24000", []byte{3, 4}),
			},
			{audioChunk("audio/L16;rate=24000", []byte{5, 6})},
		},
	}
	s := newTestSynthesizer(stream)
	prefix := filepath.Join(t.TempDir(), "podcast-test")

	// 16 lines with a 15-line cap yields two segments.
	files, err := s.SynthesizeScript(context.Background(), scriptWithLines(16), prefix)
	if err != nil {
		t.Fatalf("SynthesizeScript failed: %v", err)
	}
	want := []string{
		prefix + "_seg0_0.wav",
		prefix + "_seg0_1.wav",
		prefix + "_seg1_0.wav",
	}
	if len(files) != len(want) {
		t.Fatalf("expected %d files, got %v", len(want), files)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Fatalf("files[%d] = %q, want %q", i, files[i], want[i])
		}
	}
	if len(stream.calls) != 2 {
		t.Fatalf("expected 2 streaming calls, got %d", len(stream.calls))
	}
}

func TestSynthesizeScriptRequestShape(t *testing.T) {
	stream := &fakeStreamer{
		responses: [][]*genai.GenerateContentResponse{
			{audioChunk("audio/L16;rate=24000", []byte{1})},
		},
	}
	s := newTestSynthesizer(stream)

	if _, err := s.SynthesizeScript(context.Background(), "Speaker 1: Hello.", filepath.Join(t.TempDir(), "p")); err != nil {
		t.Fatalf("SynthesizeScript failed: %v", err)
	}

	call := stream.calls[0]
	if call.model != "gemini-2.5-flash-preview-tts" {
		t.Fatalf("model = %q", call.model)
	}
	if call.cfg.Temperature == nil || *call.cfg.Temperature != 1 {
		t.Fatalf("temperature = %v", call.cfg.Temperature)
	}
	if len(call.cfg.ResponseModalities) != 1 || call.cfg.ResponseModalities[0] != "AUDIO" {
		t.Fatalf("response modalities = %v", call.cfg.ResponseModalities)
	}
	voices := call.cfg.SpeechConfig.MultiSpeakerVoiceConfig.SpeakerVoiceConfigs
	if len(voices) != 2 {
		t.Fatalf("expected 2 speaker configs, got %d", len(voices))
	}
	if voices[0].Speaker != "Speaker 1" || voices[0].VoiceConfig.PrebuiltVoiceConfig.VoiceName != "Zephyr" {
		t.Fatalf("unexpected first speaker config: %+v", voices[0])
	}
	if voices[1].Speaker != "Speaker 2" || voices[1].VoiceConfig.PrebuiltVoiceConfig.VoiceName != "Puck" {
		t.Fatalf("unexpected second speaker config: %+v", voices[1])
	}
	if len(call.contents) != 1 || call.contents[0].Parts[0].Text != "Speaker 1: Hello." {
		t.Fatalf("unexpected contents: %+v", call.contents)
	}
}

func TestSynthesizeScriptSkipsEmptyChunks(t *testing.T) {
	stream := &fakeStreamer{
		responses: [][]*genai.GenerateContentResponse{
			{
				{},
				{Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []*genai.Part{{Text: "thinking..."}}}}}},
				audioChunk("audio/L16;rate=24000", nil),
				audioChunk("audio/L16;rate=24000", []byte{9, 9}),
			},
		},
	}
	s := newTestSynthesizer(stream)
	prefix := filepath.Join(t.TempDir(), "p")

	files, err := s.SynthesizeScript(context.Background(), "Speaker 1: Hi.", prefix)
	if err != nil {
		t.Fatalf("SynthesizeScript failed: %v", err)
	}
	if len(files) != 1 || files[0] != prefix+"_seg0_0.wav" {
		t.Fatalf("expected single file from the non-empty chunk, got %v", files)
	}
}

func TestSynthesizeScriptContainerPayloadWrittenAsIs(t *testing.T) {
	container := wav.Wrap([]byte{7, 7, 7, 7}, "audio/L16;rate=24000")
	stream := &fakeStreamer{
		responses: [][]*genai.GenerateContentResponse{
			{audioChunk("audio/wav", container)},
		},
	}
	s := newTestSynthesizer(stream)
	prefix := filepath.Join(t.TempDir(), "p")

	files, err := s.SynthesizeScript(context.Background(), "Speaker 1: Hi.", prefix)
	if err != nil {
		t.Fatalf("SynthesizeScript failed: %v", err)
	}
	data, err := os.ReadFile(files[0])
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if len(data) != len(container) {
		t.Fatalf("container payload was rewrapped: %d bytes, want %d", len(data), len(container))
	}
}

func TestSynthesizeScriptQuotaClassification(t *testing.T) {
	stream := &fakeStreamer{
		errs: []error{errors.New("googleapi: Error 429: RESOURCE_EXHAUSTED")},
	}
	s := newTestSynthesizer(stream)

	_, err := s.SynthesizeScript(context.Background(), "Speaker 1: Hi.", filepath.Join(t.TempDir(), "p"))
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrQuotaExceeded) {
		t.Fatalf("expected quota marker, got %v", err)
	}
}

func TestSynthesizeScriptStreamFailureIsUpstream(t *testing.T) {
	stream := &fakeStreamer{
		errs: []error{errors.New("connection reset by peer")},
	}
	s := newTestSynthesizer(stream)

	_, err := s.SynthesizeScript(context.Background(), "Speaker 1: Hi.", filepath.Join(t.TempDir(), "p"))
	if !errors.Is(err, services.ErrUpstream) {
		t.Fatalf("expected upstream marker, got %v", err)
	}
	if services.IsQuota(err) {
		t.Fatalf("plain failure misclassified as quota: %v", err)
	}
}

func TestSynthesizeScriptEmptyScript(t *testing.T) {
	s := newTestSynthesizer(&fakeStreamer{})
	_, err := s.SynthesizeScript(context.Background(), "  \n \n", filepath.Join(t.TempDir(), "p"))
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
