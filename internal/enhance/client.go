package enhance

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Client produces enhanced text for a prompt.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ErrEmptyResponse means the collaborator answered without any text.
var ErrEmptyResponse = errors.New("ai returned no text")

type chatRequest struct {
	Agent string `json:"agent"`
	Input string `json:"input"`
}

type chatResponse struct {
	Output string `json:"output"`
}

// HTTPClient 调用外部 AI 网关：POST {baseURL}/v1/chat，失败时指数退避重试。
type HTTPClient struct {
	baseURL  string
	http     *http.Client
	attempts int
	backoff  time.Duration
	logger   *slog.Logger
}

// NewHTTPClient returns a client that tries each request up to attempts times.
func NewHTTPClient(baseURL string, timeout time.Duration, attempts int, logger *slog.Logger) *HTTPClient {
	if attempts <= 0 {
		attempts = 3
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPClient{
		baseURL:  strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:     &http.Client{Timeout: timeout},
		attempts: attempts,
		backoff:  500 * time.Millisecond,
		logger:   logger,
	}
}

// Complete sends prompt and returns the trimmed output.
func (c *HTTPClient) Complete(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	delay := c.backoff
	for attempt := 1; attempt <= c.attempts; attempt++ {
		out, err := c.call(ctx, prompt)
		if err == nil {
			return out, nil
		}
		lastErr = err
		c.logger.Warn("ai request failed",
			slog.Int("attempt", attempt),
			slog.Any("error", err),
		)
		if attempt == c.attempts {
			break
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return "", fmt.Errorf("ai request failed after %d attempts: %w", c.attempts, lastErr)
}

func (c *HTTPClient) call(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{Agent: "auto", Input: prompt})
	if err != nil {
		return "", fmt.Errorf("encode ai request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build ai request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("request ai: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 8*1024))
		return "", fmt.Errorf("ai status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode ai response: %w", err)
	}
	text := strings.TrimSpace(out.Output)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
