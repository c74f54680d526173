package script_test

import (
	"fmt"
	"strings"
	"testing"

	"briefcast/internal/script"
)

func TestSplitDiscardsBlankLines(t *testing.T) {
	text := "Speaker 1: Good morning.\n\n   \nSpeaker 2: Hello!\n\t\nSpeaker 1: Let's begin."
	segments := script.Split(text, 15)
	if len(segments) != 1 {
		t.Fatalf("expected one segment, got %d", len(segments))
	}
	want := []string{"Speaker 1: Good morning.", "Speaker 2: Hello!", "Speaker 1: Let's begin."}
	if got := segments[0].Lines; len(got) != len(want) {
		t.Fatalf("lines = %v", got)
	}
	for i, line := range want {
		if segments[0].Lines[i] != line {
			t.Errorf("line %d = %q, want %q", i, segments[0].Lines[i], line)
		}
	}
}

func TestSplitGroupsAndKeepsPartialTail(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 37; i++ {
		fmt.Fprintf(&sb, "Speaker %d: line %d\n", i%2+1, i)
	}
	segments := script.Split(sb.String(), 15)
	if len(segments) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(segments))
	}
	for i, seg := range segments {
		if seg.Index != i {
			t.Errorf("segment %d has index %d", i, seg.Index)
		}
	}
	if len(segments[0].Lines) != 15 || len(segments[1].Lines) != 15 || len(segments[2].Lines) != 7 {
		t.Fatalf("segment sizes = %d/%d/%d", len(segments[0].Lines), len(segments[1].Lines), len(segments[2].Lines))
	}
}

func TestSplitRejoinReproducesNonBlankLines(t *testing.T) {
	caps := []int{1, 2, 7, 15, 100}
	text := "a\nb\n\nc\nd\ne\n\n\nf\ng\nh\ni\nj"
	want := "a\nb\nc\nd\ne\nf\ng\nh\ni\nj"
	for _, cap := range caps {
		var parts []string
		for _, seg := range script.Split(text, cap) {
			if len(seg.Lines) > cap {
				t.Fatalf("cap %d: segment has %d lines", cap, len(seg.Lines))
			}
			parts = append(parts, seg.Text())
		}
		if got := strings.Join(parts, "\n"); got != want {
			t.Fatalf("cap %d: rejoined = %q, want %q", cap, got, want)
		}
	}
}

func TestSplitEmptyScript(t *testing.T) {
	if segments := script.Split("", 15); len(segments) != 0 {
		t.Fatalf("expected no segments, got %d", len(segments))
	}
	if segments := script.Split("\n \n\t\n", 15); len(segments) != 0 {
		t.Fatalf("expected no segments for blank script, got %d", len(segments))
	}
}

func TestSplitDefaultsInvalidCap(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 20; i++ {
		fmt.Fprintf(&sb, "line %d\n", i)
	}
	segments := script.Split(sb.String(), 0)
	if len(segments) != 2 {
		t.Fatalf("expected default cap of %d to yield 2 segments, got %d", script.DefaultMaxLines, len(segments))
	}
}
