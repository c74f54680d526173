// Package wav implements the canonical 44-byte PCM WAVE container used for
// synthesized briefing audio: descriptor parsing, header encode/decode,
// lossless concatenation, and header-derived duration.
//
// The header layout is the single serialization boundary for segment audio;
// no other package touches the byte layout directly.
package wav

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// HeaderSize is the size of the canonical PCM WAVE header in bytes.
const HeaderSize = 44

const (
	defaultBitsPerSample = 16
	defaultSampleRate    = 24000
)

// ErrNoInput reports a concatenation request with zero input files.
var ErrNoInput = errors.New("wav concatenate: no input files")

// Format describes raw PCM sample parameters. Synthesis output is mono.
type Format struct {
	BitsPerSample int
	SampleRate    int
	Channels      int
}

// DefaultFormat returns the format assumed when a descriptor is absent or
// does not specify a parameter: 16-bit mono at 24 kHz.
func DefaultFormat() Format {
	return Format{BitsPerSample: defaultBitsPerSample, SampleRate: defaultSampleRate, Channels: 1}
}

// BlockAlign returns the byte size of one sample frame.
func (f Format) BlockAlign() int {
	return f.Channels * f.BitsPerSample / 8
}

// ByteRate returns the number of sample-data bytes per second.
func (f Format) ByteRate() int {
	return f.SampleRate * f.BlockAlign()
}

// ParseFormatDescriptor extracts sample parameters from a MIME-style audio
// descriptor such as "audio/L16;rate=24000". Missing or malformed tokens
// fall back to the defaults; callers must tolerate partially-specified
// descriptors, so this never fails.
func ParseFormatDescriptor(descriptor string) Format {
	format := DefaultFormat()
	for _, part := range strings.Split(descriptor, ";") {
		part = strings.TrimSpace(part)
		switch {
		case strings.HasPrefix(strings.ToLower(part), "rate="):
			if rate, err := strconv.Atoi(part[len("rate="):]); err == nil && rate > 0 {
				format.SampleRate = rate
			}
		case strings.HasPrefix(part, "audio/L"):
			if bits, err := strconv.Atoi(part[len("audio/L"):]); err == nil && bits > 0 {
				format.BitsPerSample = bits
			}
		}
	}
	return format
}

// IsContainerDescriptor reports whether a descriptor already denotes WAVE
// container data rather than raw PCM.
func IsContainerDescriptor(descriptor string) bool {
	lowered := strings.ToLower(descriptor)
	return strings.Contains(lowered, "wav") || strings.Contains(lowered, "wave")
}

// EncodeHeader builds the canonical 44-byte PCM header for dataLen bytes of
// raw samples. All multi-byte fields are little-endian.
func EncodeHeader(format Format, dataLen int) []byte {
	header := make([]byte, HeaderSize)
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], uint32(36+dataLen))
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(header[22:24], uint16(format.Channels))
	binary.LittleEndian.PutUint32(header[24:28], uint32(format.SampleRate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(format.ByteRate()))
	binary.LittleEndian.PutUint16(header[32:34], uint16(format.BlockAlign()))
	binary.LittleEndian.PutUint16(header[34:36], uint16(format.BitsPerSample))
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], uint32(dataLen))
	return header
}

// ParseHeader decodes a canonical PCM header, returning the sample format and
// the declared sample-data length.
func ParseHeader(header []byte) (Format, int, error) {
	if len(header) < HeaderSize {
		return Format{}, 0, fmt.Errorf("wav header: need %d bytes, got %d", HeaderSize, len(header))
	}
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		return Format{}, 0, errors.New("wav header: missing RIFF/WAVE markers")
	}
	format := Format{
		Channels:      int(binary.LittleEndian.Uint16(header[22:24])),
		SampleRate:    int(binary.LittleEndian.Uint32(header[24:28])),
		BitsPerSample: int(binary.LittleEndian.Uint16(header[34:36])),
	}
	if format.Channels <= 0 || format.SampleRate <= 0 || format.BitsPerSample <= 0 {
		return Format{}, 0, errors.New("wav header: non-positive format fields")
	}
	dataLen := int(binary.LittleEndian.Uint32(header[40:44]))
	return format, dataLen, nil
}

// Wrap returns rawBytes as a playable WAVE container. Descriptors that
// already denote container data pass through unchanged; otherwise the
// descriptor is parsed (defaults applied) and a header is prepended.
func Wrap(rawBytes []byte, descriptor string) []byte {
	if descriptor != "" && IsContainerDescriptor(descriptor) {
		return rawBytes
	}
	header := EncodeHeader(ParseFormatDescriptor(descriptor), len(rawBytes))
	out := make([]byte, 0, len(header)+len(rawBytes))
	out = append(out, header...)
	return append(out, rawBytes...)
}

// Concatenate merges the sample data of the input containers, in order, into
// one container at outputPath. The output format is inherited from the first
// input; any input whose format differs is rejected before a byte is written.
func Concatenate(containerPaths []string, outputPath string) error {
	if len(containerPaths) == 0 {
		return ErrNoInput
	}

	var (
		shared   Format
		totalLen int
		lengths  = make([]int, len(containerPaths))
	)
	for i, path := range containerPaths {
		format, dataLen, err := readFileHeader(path)
		if err != nil {
			return err
		}
		if i == 0 {
			shared = format
		} else if format != shared {
			return fmt.Errorf("wav concatenate: %s format %+v differs from first input %+v", path, format, shared)
		}
		lengths[i] = dataLen
		totalLen += dataLen
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("wav concatenate: create output: %w", err)
	}
	defer out.Close()

	if _, err := out.Write(EncodeHeader(shared, totalLen)); err != nil {
		return fmt.Errorf("wav concatenate: write header: %w", err)
	}
	for i, path := range containerPaths {
		if err := copySampleData(out, path, lengths[i]); err != nil {
			return err
		}
	}
	return out.Sync()
}

// Duration returns the playback length in seconds derived from the file's
// header: sampleDataLength / (sampleRate x blockAlign).
func Duration(containerPath string) (float64, error) {
	format, dataLen, err := readFileHeader(containerPath)
	if err != nil {
		return 0, err
	}
	return float64(dataLen) / float64(format.ByteRate()), nil
}

func readFileHeader(path string) (Format, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return Format{}, 0, fmt.Errorf("wav header: open %s: %w", path, err)
	}
	defer f.Close()

	header := make([]byte, HeaderSize)
	if _, err := io.ReadFull(f, header); err != nil {
		return Format{}, 0, fmt.Errorf("wav header: read %s: %w", path, err)
	}
	format, dataLen, err := ParseHeader(header)
	if err != nil {
		return Format{}, 0, fmt.Errorf("%s: %w", path, err)
	}
	return format, dataLen, nil
}

func copySampleData(dst io.Writer, path string, dataLen int) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("wav concatenate: open %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.Seek(HeaderSize, io.SeekStart); err != nil {
		return fmt.Errorf("wav concatenate: seek %s: %w", path, err)
	}
	if _, err := io.CopyN(dst, f, int64(dataLen)); err != nil {
		return fmt.Errorf("wav concatenate: copy %s: %w", path, err)
	}
	return nil
}
