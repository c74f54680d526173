package perplexity_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"briefcast/internal/services"
	"briefcast/internal/services/perplexity"
)

type capturedRequest struct {
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	Stream      bool    `json:"stream"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func chatResponse(content string) string {
	encoded, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"content": content}},
		},
	})
	return string(encoded)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *perplexity.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return perplexity.NewClient(perplexity.Config{APIKey: "test-key", BaseURL: server.URL})
}

func decodeRequest(t *testing.T, r *http.Request) capturedRequest {
	t.Helper()
	var req capturedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		t.Fatalf("decode request: %v", err)
	}
	return req
}

func TestGenerateScript(t *testing.T) {
	var got capturedRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", auth)
		}
		got = decodeRequest(t, r)
		fmt.Fprint(w, chatResponse("Speaker 1: Good morning.\nSpeaker 2: Let's begin."))
	})

	script, err := client.GenerateScript(context.Background(), map[string]any{"interests": []string{"tech"}})
	if err != nil {
		t.Fatalf("GenerateScript failed: %v", err)
	}
	if !strings.HasPrefix(script, "Speaker 1:") {
		t.Fatalf("unexpected script: %q", script)
	}
	if got.Model != "sonar-pro" || got.Temperature != 0.2 || got.TopP != 0.9 || got.Stream {
		t.Fatalf("unexpected request parameters: %+v", got)
	}
	if len(got.Messages) != 1 || got.Messages[0].Role != "user" {
		t.Fatalf("unexpected messages: %+v", got.Messages)
	}
	if !strings.Contains(got.Messages[0].Content, `User Data: {"interests":["tech"]}`) {
		t.Fatalf("prompt missing user data: %q", got.Messages[0].Content)
	}
}

func TestGenerateScriptQuotaError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	})
	_, err := client.GenerateScript(context.Background(), map[string]any{})
	if err == nil {
		t.Fatal("expected error")
	}
	if !services.IsQuota(err) {
		t.Fatalf("expected quota classification, got %v", err)
	}
}

func TestGenerateScriptEmptyContent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[{"message":{"content":""}}]}`)
	})
	_, err := client.GenerateScript(context.Background(), map[string]any{})
	if !errors.Is(err, services.ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestGenerateScriptTopLevelTextFallback(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"text":"Speaker 1: Fallback.\nSpeaker 2: Noted."}`)
	})
	script, err := client.GenerateScript(context.Background(), map[string]any{})
	if err != nil {
		t.Fatalf("GenerateScript failed: %v", err)
	}
	if !strings.Contains(script, "Fallback") {
		t.Fatalf("unexpected script: %q", script)
	}
}

func TestMissingAPIKey(t *testing.T) {
	client := perplexity.NewClient(perplexity.Config{})
	_, err := client.GenerateScript(context.Background(), map[string]any{})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestFetchNewsSections(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		req := decodeRequest(t, r)
		if req.Model != "sonar" {
			t.Errorf("news request used model %q", req.Model)
		}
		prompt := req.Messages[0].Content
		switch {
		case strings.Contains(prompt, "news summary about: ai, cycling"):
			fmt.Fprint(w, chatResponse("AI and cycling headlines."))
		case strings.Contains(prompt, "local news and updates for Berlin"):
			http.Error(w, "upstream down", http.StatusInternalServerError)
		default:
			t.Errorf("unexpected prompt: %q", prompt)
			http.Error(w, "bad prompt", http.StatusBadRequest)
		}
	})

	news, err := client.FetchNews(context.Background(), []string{"ai", "cycling"}, "Berlin", "")
	if err != nil {
		t.Fatalf("FetchNews failed: %v", err)
	}
	if len(news) != 2 {
		t.Fatalf("expected 2 sections, got %v", news)
	}
	if news[perplexity.SectionInterests] != "AI and cycling headlines." {
		t.Fatalf("unexpected interests news: %q", news[perplexity.SectionInterests])
	}
	if news[perplexity.SectionHomeLocation] != perplexity.HomeLocationUnavailable {
		t.Fatalf("expected home marker, got %q", news[perplexity.SectionHomeLocation])
	}
	if _, ok := news[perplexity.SectionWorkLocation]; ok {
		t.Fatal("work section should be omitted without input")
	}
}

func TestFetchNewsEmptyInput(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected without interests or locations")
	})
	news, err := client.FetchNews(context.Background(), nil, "", "")
	if err != nil {
		t.Fatalf("FetchNews failed: %v", err)
	}
	if len(news) != 0 {
		t.Fatalf("expected empty map, got %v", news)
	}
}

func TestFetchNewsCanceledContext(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unreachable", http.StatusInternalServerError)
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.FetchNews(ctx, []string{"ai"}, "", "")
	if err == nil {
		t.Fatal("expected error for canceled context")
	}
}

func TestGenerateQuestions(t *testing.T) {
	// 120 words forces three 50-word segments (50 + 50 + 20).
	script := strings.Repeat("word ", 120)
	response := "```json\n" + `[
  {"segment": 1, "timestamp": "00:00", "questions": ["q-a", "q-b", "q-c"]},
  {"segment": 2, "timestamp": "00:20", "questions": ["q-d", "q-e", "q-f", "q-extra"]},
  {"segment": 3, "timestamp": "00:40", "questions": ["q-g"]}
]` + "\n```"

	var got capturedRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = decodeRequest(t, r)
		fmt.Fprint(w, chatResponse(response))
	})

	questions, err := client.GenerateQuestions(context.Background(), script)
	if err != nil {
		t.Fatalf("GenerateQuestions failed: %v", err)
	}
	if got.Model != "sonar-pro" {
		t.Fatalf("questions request used model %q", got.Model)
	}
	if !strings.Contains(got.Messages[0].Content, "each of the 3 podcast segments") {
		t.Fatalf("prompt missing segment count: %q", got.Messages[0].Content)
	}
	// Per-segment extras are dropped, so 3 + 3 + 1 questions survive.
	if len(questions) != 7 {
		t.Fatalf("expected 7 questions, got %d", len(questions))
	}
	if questions[0].ID != "q1_1" || questions[0].Timestamp != "00:00" || questions[0].Question != "q-a" {
		t.Fatalf("unexpected first question: %+v", questions[0])
	}
	if questions[3].ID != "q2_1" || questions[3].Timestamp != "00:20" {
		t.Fatalf("unexpected second-segment question: %+v", questions[3])
	}
	if questions[6].ID != "q3_1" || questions[6].Timestamp != "00:40" {
		t.Fatalf("unexpected last question: %+v", questions[6])
	}
}

func TestGenerateQuestionsMalformedPayload(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chatResponse("I could not produce questions today."))
	})
	_, err := client.GenerateQuestions(context.Background(), "Speaker 1: Hello there.")
	if !errors.Is(err, services.ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestGenerateQuestionsEmptyScript(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for empty script")
	})
	_, err := client.GenerateQuestions(context.Background(), "   ")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestGenerateAnswer(t *testing.T) {
	var got capturedRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = decodeRequest(t, r)
		fmt.Fprint(w, chatResponse("The podcast mentioned rain after noon."))
	})

	answer, err := client.GenerateAnswer(context.Background(), "Will it rain?", "Speaker 1: Rain expected after noon.")
	if err != nil {
		t.Fatalf("GenerateAnswer failed: %v", err)
	}
	if answer != "The podcast mentioned rain after noon." {
		t.Fatalf("unexpected answer: %q", answer)
	}
	prompt := got.Messages[0].Content
	if !strings.Contains(prompt, "answer this question: Will it rain?") {
		t.Fatalf("prompt missing question: %q", prompt)
	}
	if !strings.Contains(prompt, "Speaker 1: Rain expected after noon.") {
		t.Fatalf("prompt missing script context: %q", prompt)
	}
}

func TestFormatTimestamp(t *testing.T) {
	cases := []struct {
		seconds int
		want    string
	}{
		{0, "00:00"},
		{20, "00:20"},
		{60, "01:00"},
		{80, "01:20"},
		{600, "10:00"},
	}
	for _, tc := range cases {
		if got := perplexity.FormatTimestamp(tc.seconds); got != tc.want {
			t.Errorf("FormatTimestamp(%d) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}
