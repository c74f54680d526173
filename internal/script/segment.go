// Package script splits a generated briefing script into bounded dialogue
// segments sized for a single synthesis call.
package script

import "strings"

// DefaultMaxLines is the largest number of dialogue lines one synthesis call
// is asked to voice.
const DefaultMaxLines = 15

// Segment is an ordered, contiguous slice of the script's non-blank lines.
// Index is the segment's position in the full sequence and orders the audio
// files produced from it.
type Segment struct {
	Index int
	Lines []string
}

// Text returns the segment's lines re-joined as synthesis input.
func (s Segment) Text() string {
	return strings.Join(s.Lines, "\n")
}

// Split partitions a script into consecutive segments of at most maxLines
// non-blank lines each; a final partial segment is kept. Blank and
// whitespace-only lines are discarded, surviving lines are trimmed, and no
// line is ever reordered or dropped. maxLines values below one fall back to
// DefaultMaxLines.
func Split(text string, maxLines int) []Segment {
	if maxLines < 1 {
		maxLines = DefaultMaxLines
	}

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}

	segments := make([]Segment, 0, (len(lines)+maxLines-1)/maxLines)
	for start := 0; start < len(lines); start += maxLines {
		end := min(start+maxLines, len(lines))
		segments = append(segments, Segment{Index: len(segments), Lines: lines[start:end]})
	}
	return segments
}
