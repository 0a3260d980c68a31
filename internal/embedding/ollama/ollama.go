package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"docembed/internal/embedding"
)

// ModuleName is the module identifier the Ollama types are registered under.
const ModuleName = "ollama"

func init() {
	embedding.Register(ModuleName, Types()...)
}

// Types returns the types this package provides.
func Types() []embedding.Type {
	return []embedding.Type{{
		Name:        "OllamaEmbeddings",
		Description: "Ollama or any OpenAI-compatible /embeddings endpoint over HTTP",
		New: func(opts embedding.Options) (embedding.DocumentEmbedder, error) {
			var cfg Config
			if err := opts.Decode(&cfg); err != nil {
				return nil, err
			}
			return NewClient(cfg)
		},
	}}
}

// Client is an HTTP embeddings client for Ollama and OpenAI-compatible servers.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	client     *http.Client
	maxRetries int
}

// Config configures the client.
type Config struct {
	BaseURL    string        `mapstructure:"base_url"`
	APIKeyEnv  string        `mapstructure:"api_key_env"`
	Model      string        `mapstructure:"model"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries *int          `mapstructure:"max_retries"`
}

// NewClient creates a new embeddings client. A key is only required when
// APIKeyEnv names a variable explicitly.
func NewClient(cfg Config) (*Client, error) {
	var key string
	if cfg.APIKeyEnv != "" {
		key = os.Getenv(cfg.APIKeyEnv)
		if key == "" {
			return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
		}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "nomic-embed-text"
	}
	t := cfg.Timeout
	if t == 0 {
		t = 30 * time.Second
	}
	retries := 5
	if cfg.MaxRetries != nil {
		if *cfg.MaxRetries < 0 {
			return nil, fmt.Errorf("max_retries must not be negative, got %d", *cfg.MaxRetries)
		}
		retries = *cfg.MaxRetries
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     key,
		model:      cfg.Model,
		client:     &http.Client{Timeout: t},
		maxRetries: retries,
	}, nil
}

// EmbedDocuments requests one embedding per document, in order.
func (c *Client) EmbedDocuments(ctx context.Context, documents []string) ([]embedding.Embedding, error) {
	out := make([]embedding.Embedding, 0, len(documents))
	for i, doc := range documents {
		v, err := c.embed(ctx, doc)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// StatusError is returned when the server answers with a non-retryable status.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string { return "embeddings request failed: " + e.Status }

func (c *Client) embed(ctx context.Context, text string) (embedding.Embedding, error) {
	type reqBody struct {
		Input  string `json:"input,omitempty"`
		Prompt string `json:"prompt,omitempty"`
		Model  string `json:"model"`
	}
	url := fmt.Sprintf("%s/embeddings", c.baseURL)
	data, err := json.Marshal(reqBody{Input: text, Prompt: text, Model: c.model})
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, lastDelay(lastErr, attempt-1)); err != nil {
				return nil, err
			}
		}

		v, err := c.do(ctx, url, data)
		if err == nil {
			return v, nil
		}
		lastErr = err
		if !retryable(err) || ctx.Err() != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

// retryAfterError carries a server-provided delay before the next attempt.
type retryAfterError struct {
	status string
	delay  time.Duration
}

func (e *retryAfterError) Error() string { return "embeddings request failed: " + e.status }

var errNoEmbedding = errors.New("no embedding returned")

func (c *Client) do(ctx context.Context, url string, data []byte) (embedding.Embedding, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		// Respect Retry-After if provided
		var d time.Duration
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
			d = time.Duration(secs) * time.Second
		}
		return nil, &retryAfterError{status: resp.Status, delay: d}
	}
	if resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	// Try OpenAI-compatible response first
	var openaiOut struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &openaiOut); err == nil {
		if len(openaiOut.Data) > 0 && len(openaiOut.Data[0].Embedding) > 0 {
			return openaiOut.Data[0].Embedding, nil
		}
	}
	// Fallback to Ollama-native shape: { "embedding": [...] }
	var ollamaOut struct {
		Embedding []float32 `json:"embedding"`
	}
	if err := json.Unmarshal(payload, &ollamaOut); err == nil && len(ollamaOut.Embedding) > 0 {
		return ollamaOut.Embedding, nil
	}
	return nil, errNoEmbedding
}

func retryable(err error) bool {
	var se *StatusError
	return !errors.As(err, &se)
}

func lastDelay(err error, attempt int) time.Duration {
	var ra *retryAfterError
	if errors.As(err, &ra) && ra.delay > 0 {
		return ra.delay
	}
	return retryDelay(attempt)
}

func sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func retryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	base := 200 * time.Millisecond
	// exponential backoff capped at 5s
	d := base << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}
