package wav_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"briefcast/internal/wav"
)

func TestParseFormatDescriptor(t *testing.T) {
	cases := []struct {
		name       string
		descriptor string
		bits       int
		rate       int
	}{
		{"full", "audio/L16;rate=24000", 16, 24000},
		{"custom", "audio/L24;rate=48000", 24, 48000},
		{"spaced params", "audio/L16; rate=16000", 16, 16000},
		{"missing rate", "audio/L16", 16, 24000},
		{"missing bits", "rate=44100", 16, 44100},
		{"empty rate value", "audio/L16;rate=", 16, 24000},
		{"garbage", "application/octet-stream", 16, 24000},
		{"empty", "", 16, 24000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			format := wav.ParseFormatDescriptor(tc.descriptor)
			if format.BitsPerSample != tc.bits {
				t.Errorf("bits = %d, want %d", format.BitsPerSample, tc.bits)
			}
			if format.SampleRate != tc.rate {
				t.Errorf("rate = %d, want %d", format.SampleRate, tc.rate)
			}
			if format.Channels != 1 {
				t.Errorf("channels = %d, want 1", format.Channels)
			}
		})
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	raw := bytes.Repeat([]byte{0x7f, 0x80}, 600)
	wrapped := wav.Wrap(raw, "audio/L16;rate=24000")
	if len(wrapped) != wav.HeaderSize+len(raw) {
		t.Fatalf("wrapped length = %d, want %d", len(wrapped), wav.HeaderSize+len(raw))
	}

	format, dataLen, err := wav.ParseHeader(wrapped)
	if err != nil {
		t.Fatalf("ParseHeader failed: %v", err)
	}
	if format.BitsPerSample != 16 || format.SampleRate != 24000 || format.Channels != 1 {
		t.Fatalf("unexpected format: %+v", format)
	}
	if dataLen != len(raw) {
		t.Fatalf("dataLen = %d, want %d", dataLen, len(raw))
	}
	if !bytes.Equal(wrapped[wav.HeaderSize:], raw) {
		t.Fatal("sample data altered by Wrap")
	}
}

func TestHeaderFieldLayout(t *testing.T) {
	header := wav.EncodeHeader(wav.Format{BitsPerSample: 16, SampleRate: 24000, Channels: 1}, 1000)
	if got := string(header[0:4]); got != "RIFF" {
		t.Errorf("container tag = %q", got)
	}
	if got := string(header[8:12]); got != "WAVE" {
		t.Errorf("format tag = %q", got)
	}
	if got := string(header[12:16]); got != "fmt " {
		t.Errorf("sub-chunk id = %q", got)
	}
	if got := string(header[36:40]); got != "data" {
		t.Errorf("data sub-chunk id = %q", got)
	}
	// Total size 36+1000, little-endian at offset 4.
	if header[4] != 0x0C || header[5] != 0x04 {
		t.Errorf("chunk size bytes = %x %x", header[4], header[5])
	}
	// PCM format code 1 at offset 20.
	if header[20] != 1 || header[21] != 0 {
		t.Errorf("format code bytes = %x %x", header[20], header[21])
	}
	// Byte rate 48000 = 0xBB80 at offset 28.
	if header[28] != 0x80 || header[29] != 0xBB {
		t.Errorf("byte rate bytes = %x %x", header[28], header[29])
	}
}

func TestWrapPassesContainerDataThrough(t *testing.T) {
	raw := []byte("already-a-container")
	if got := wav.Wrap(raw, "audio/wav"); !bytes.Equal(got, raw) {
		t.Fatalf("audio/wav data was re-wrapped: %q", got)
	}
	if got := wav.Wrap(raw, "audio/x-wave"); !bytes.Equal(got, raw) {
		t.Fatalf("audio/x-wave data was re-wrapped: %q", got)
	}
}

func writeContainer(t *testing.T, dir, name, descriptor string, raw []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, wav.Wrap(raw, descriptor), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestConcatenate(t *testing.T) {
	dir := t.TempDir()
	first := bytes.Repeat([]byte{1, 2}, 100)
	second := bytes.Repeat([]byte{3, 4}, 250)
	third := bytes.Repeat([]byte{5, 6}, 50)
	paths := []string{
		writeContainer(t, dir, "seg0.wav", "audio/L16;rate=24000", first),
		writeContainer(t, dir, "seg1.wav", "audio/L16;rate=24000", second),
		writeContainer(t, dir, "seg2.wav", "audio/L16;rate=24000", third),
	}

	out := filepath.Join(dir, "full.wav")
	if err := wav.Concatenate(paths, out); err != nil {
		t.Fatalf("Concatenate failed: %v", err)
	}

	merged, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	wantLen := len(first) + len(second) + len(third)
	format, dataLen, err := wav.ParseHeader(merged)
	if err != nil {
		t.Fatalf("parse output header: %v", err)
	}
	if dataLen != wantLen {
		t.Fatalf("declared data length = %d, want %d", dataLen, wantLen)
	}
	if len(merged) != wav.HeaderSize+wantLen {
		t.Fatalf("output size = %d, want %d", len(merged), wav.HeaderSize+wantLen)
	}
	if format.SampleRate != 24000 || format.BitsPerSample != 16 {
		t.Fatalf("output format = %+v", format)
	}
	var want []byte
	want = append(want, first...)
	want = append(want, second...)
	want = append(want, third...)
	if !bytes.Equal(merged[wav.HeaderSize:], want) {
		t.Fatal("sample data not concatenated losslessly in order")
	}
}

func TestConcatenateEmptyInput(t *testing.T) {
	out := filepath.Join(t.TempDir(), "full.wav")
	err := wav.Concatenate(nil, out)
	if !errors.Is(err, wav.ErrNoInput) {
		t.Fatalf("expected ErrNoInput, got %v", err)
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Fatal("output file created despite empty input")
	}
}

func TestConcatenateRejectsMismatchedFormats(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeContainer(t, dir, "a.wav", "audio/L16;rate=24000", bytes.Repeat([]byte{1}, 64)),
		writeContainer(t, dir, "b.wav", "audio/L16;rate=16000", bytes.Repeat([]byte{2}, 64)),
	}
	if err := wav.Concatenate(paths, filepath.Join(dir, "full.wav")); err == nil {
		t.Fatal("expected mismatched sample rates to be rejected")
	}
}

func TestDuration(t *testing.T) {
	dir := t.TempDir()
	// 240000 bytes of 16-bit mono at 24 kHz is exactly five seconds.
	path := writeContainer(t, dir, "five.wav", "audio/L16;rate=24000", make([]byte, 240000))
	seconds, err := wav.Duration(path)
	if err != nil {
		t.Fatalf("Duration failed: %v", err)
	}
	if seconds != 5.0 {
		t.Fatalf("duration = %v, want 5.0", seconds)
	}
}
