// Package embedding provides an OpenAI-compatible embeddings client.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// ErrService marks embedding provider failures so callers can apply a
// retry/backoff policy distinct from validation errors.
var ErrService = errors.New("embedding service error")

// ErrEmptyInput is returned when the text to embed is empty.
var ErrEmptyInput = fmt.Errorf("%w: input text cannot be empty", ErrService)

const defaultMaxRetries = 3

// Config configures the embeddings client.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Client calls an OpenAI-compatible /embeddings endpoint. Transient failures
// (429, 5xx, transport errors) are retried with exponential backoff,
// honoring Retry-After when present.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	maxRetries int
	logger     *zap.Logger
}

// NewClient builds an embeddings client from the configuration.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: API key is not set", ErrService)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: defaultMaxRetries,
		logger:     logger,
	}, nil
}

type embeddingRequest struct {
	Input string `json:"input"`
	Model string `json:"model"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// GetEmbedding returns the embedding vector for the given text.
func (c *Client) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyInput
	}

	body, err := json.Marshal(embeddingRequest{Input: text, Model: c.model})
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", ErrService, err)
	}
	url := c.baseURL + "/embeddings"

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", ErrService, ctx.Err())
			case <-time.After(retryDelay(attempt - 1)):
			}
		}

		vector, retryAfter, err := c.do(ctx, url, body)
		if err == nil {
			return vector, nil
		}
		lastErr = err
		if !errors.Is(err, errRetryable) {
			return nil, err
		}
		if retryAfter > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", ErrService, ctx.Err())
			case <-time.After(retryAfter):
			}
		}
		c.logger.Warn("embedding request failed, retrying",
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}
	return nil, lastErr
}

var errRetryable = errors.New("retryable")

func (c *Client) do(ctx context.Context, url string, body []byte) ([]float32, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: build request: %v", ErrService, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, 0, fmt.Errorf("%w: %v", ErrService, ctx.Err())
		}
		return nil, 0, fmt.Errorf("%w: %v: %w", ErrService, err, errRetryable)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, parseRetryAfter(resp), fmt.Errorf("%w: provider returned %s: %w",
			ErrService, resp.Status, errRetryable)
	}
	if resp.StatusCode >= 300 {
		return nil, 0, fmt.Errorf("%w: provider returned %s", ErrService, resp.Status)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: read response: %v: %w", ErrService, err, errRetryable)
	}

	var out embeddingResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, 0, fmt.Errorf("%w: decode response: %v", ErrService, err)
	}
	if len(out.Data) == 0 || len(out.Data[0].Embedding) == 0 {
		return nil, 0, fmt.Errorf("%w: no embedding returned", ErrService)
	}
	return out.Data[0].Embedding, 0, nil
}

func parseRetryAfter(resp *http.Response) time.Duration {
	header := resp.Header.Get("Retry-After")
	if header == "" {
		return 0
	}
	secs, err := strconv.Atoi(header)
	if err != nil {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func retryDelay(attempt int) time.Duration {
	base := 200 * time.Millisecond
	delay := base << attempt
	if delay > 5*time.Second {
		delay = 5 * time.Second
	}
	return delay
}
