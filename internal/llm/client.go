// Package llm is the boundary to the chat-completion provider. The core of
// the service never depends on it directly; the agent consumes it through an
// interface and falls back to canned replies when it is disabled or failing.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"
)

type Config struct {
	Enabled bool
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Client struct {
	cfg      Config
	http     *http.Client
	strategy retry.Strategy
}

func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		strategy: retry.Strategy{
			Attempts: 3,
			Delay:    500 * time.Millisecond,
			Backoff:  2,
		},
	}
}

func (c *Client) Enabled() bool {
	return c.cfg.Enabled
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends one chat-completion request: system preamble, prior turns,
// then the current user message. Transient failures (network, 5xx, 429) are
// retried with backoff; client errors are not.
func (c *Client) Complete(ctx context.Context, system string, history []Message, user string) (string, error) {
	if !c.cfg.Enabled {
		return "", fmt.Errorf("llm client is disabled")
	}

	messages := make([]Message, 0, len(history)+2)
	messages = append(messages, Message{Role: "system", Content: system})
	messages = append(messages, history...)
	messages = append(messages, Message{Role: "user", Content: user})

	payload, err := json.Marshal(chatRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: 0.7,
		MaxTokens:   1024,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	var content string
	err = retry.Do(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			c.cfg.BaseURL+"/chat/completions", bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("llm provider returned %d", resp.StatusCode)
		}

		var parsed chatResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			return fmt.Errorf("decode llm response: %w", err)
		}
		if parsed.Error != nil {
			zlog.Logger.Warn().Str("provider_error", parsed.Error.Message).Msg("llm request rejected")
			return nil
		}
		if len(parsed.Choices) > 0 {
			content = parsed.Choices[0].Message.Content
		}
		return nil
	}, c.strategy)
	if err != nil {
		return "", fmt.Errorf("llm completion failed: %w", err)
	}
	if content == "" {
		return "", fmt.Errorf("llm returned no content")
	}
	return content, nil
}
