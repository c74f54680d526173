// Package perplexity talks to the Perplexity chat completion API for news
// fetching, script generation, question generation, and answer generation.
// Every operation is a single attempt; the caller decides whether a failure
// fails the job or degrades gracefully.
package perplexity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"briefcast/internal/logging"
	"briefcast/internal/services"
)

const (
	defaultBaseURL     = "https://api.perplexity.ai"
	defaultHTTPTimeout = 60 * time.Second

	newsModel   = "sonar"
	scriptModel = "sonar-pro"
)

// Config captures the runtime settings required to talk to Perplexity.
type Config struct {
	APIKey         string
	BaseURL        string
	TimeoutSeconds int
}

// Client wraps the Perplexity chat completion endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithLogger attaches a logger for per-call diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logging.NewComponentLogger(logger, "perplexity")
		}
	}
}

// NewClient constructs a Perplexity client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			BaseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = defaultBaseURL
	}
	return client
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	TopP        float64       `json:"top_p,omitempty"`
	Stream      bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatCompletionMessage `json:"message"`
		// Some providers return the streaming schema (delta) even when
		// stream=false, so tolerate it as a fallback.
		Delta chatCompletionMessage `json:"delta"`
	} `json:"choices"`
	// Legacy completion-style responses carry a top-level text field.
	Text  string `json:"text"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type chatCompletionMessage struct {
	Content string `json:"content"`
}

type httpStatusError struct {
	StatusCode int
	Body       string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("perplexity request: http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// complete issues one chat completion request and extracts the text payload.
// Stage and operation name the pipeline context for error wrapping.
func (c *Client) complete(ctx context.Context, stage, operation string, payload chatCompletionRequest) (string, error) {
	if c.cfg.APIKey == "" {
		return "", services.Wrap(services.ErrConfiguration, stage, operation, "perplexity api key missing", nil)
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", services.Wrap(services.ErrUpstream, stage, operation, "encode request body", err)
	}
	endpoint := c.cfg.BaseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return "", services.Wrap(services.ErrUpstream, stage, operation, "build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrUpstream, stage, operation, "http error", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", services.Wrap(services.ErrUpstream, stage, operation, "read response body", err)
	}
	c.logger.DebugContext(ctx, "chat completion response",
		logging.String("operation", operation),
		logging.Int("status", resp.StatusCode),
		logging.Duration("elapsed", time.Since(start)))

	if resp.StatusCode >= http.StatusMultipleChoices {
		statusErr := &httpStatusError{StatusCode: resp.StatusCode, Body: string(body)}
		marker := services.ErrUpstream
		if resp.StatusCode == http.StatusTooManyRequests || services.IsQuota(statusErr) {
			marker = services.ErrQuotaExceeded
		}
		return "", services.Wrap(marker, stage, operation, "", statusErr)
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", services.Wrap(services.ErrMalformedResponse, stage, operation, "decode response", err)
	}
	if completion.Error != nil {
		return "", services.Wrap(services.ErrUpstream, stage, operation, "api error", fmt.Errorf("%s", strings.TrimSpace(completion.Error.Message)))
	}

	content := extractContent(completion)
	if content == "" {
		return "", services.Wrap(services.ErrMalformedResponse, stage, operation,
			fmt.Sprintf("empty content (payload snippet: %s)", summarizeSnippet(string(body))), nil)
	}
	return content, nil
}

func extractContent(completion chatCompletionResponse) string {
	for _, choice := range completion.Choices {
		if content := strings.TrimSpace(choice.Message.Content); content != "" {
			return content
		}
		if content := strings.TrimSpace(choice.Delta.Content); content != "" {
			return content
		}
	}
	return strings.TrimSpace(completion.Text)
}
