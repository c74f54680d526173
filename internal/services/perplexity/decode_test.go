package perplexity_test

import (
	"testing"

	"briefcast/internal/services/perplexity"
)

func TestDecodeJSON(t *testing.T) {
	type item struct {
		Segment int `json:"segment"`
	}
	cases := []struct {
		name    string
		payload string
		wantErr bool
		wantLen int
	}{
		{"plain array", `[{"segment":1},{"segment":2}]`, false, 2},
		{"fenced", "```json\n[{\"segment\":1}]\n```", false, 1},
		{"fenced without language", "```\n[{\"segment\":1}]\n```", false, 1},
		{"surrounding prose", "Here you go:\n[{\"segment\":1}]\nHope that helps!", false, 1},
		{"empty", "   ", true, 0},
		{"not json", "no structured data here", true, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var parsed []item
			err := perplexity.DecodeJSON(tc.payload, &parsed)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", parsed)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeJSON failed: %v", err)
			}
			if len(parsed) != tc.wantLen {
				t.Fatalf("expected %d items, got %+v", tc.wantLen, parsed)
			}
		})
	}
}
