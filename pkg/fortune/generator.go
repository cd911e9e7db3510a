// Package fortune generates the bot's fortune-telling replies by delegating
// to the OpenAI chat-completions API.
package fortune

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/manatomanato/line-uranai-bot/pkg/logger"
)

// FallbackReply is returned whenever the completion API cannot produce a
// reply. The user always receives something.
const FallbackReply = "占いの結果を取得できませんでした…もう一度試してください。"

const defaultSystemPrompt = "あなたは優しい占い師です。相談者の悩みに占いの視点から前向きなアドバイスをしてください。"

// Config holds the completion API settings.
type Config struct {
	APIKey       string        `env:"OPENAI_API_KEY,required"`
	Model        string        `env:"OPENAI_MODEL" envDefault:"gpt-4"`
	BaseURL      string        `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	Timeout      time.Duration `env:"OPENAI_HTTP_TIMEOUT" envDefault:"30s"`
	SystemPrompt string        `env:"OPENAI_SYSTEM_PROMPT"`
}

// Generator produces a reply for a user's message. Implementations never
// return an error; failures yield a fixed fallback text.
type Generator interface {
	Generate(ctx context.Context, prompt string) string
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Client is the OpenAI-backed Generator.
type Client struct {
	cfg   Config
	httpc *http.Client
	log   *slog.Logger
}

// NewClient creates a generator from the config.
func NewClient(cfg Config, log *slog.Logger) *Client {
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = defaultSystemPrompt
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		cfg:   cfg,
		httpc: &http.Client{Timeout: cfg.Timeout},
		log:   log,
	}
}

// Generate asks the completion API for a fortune-telling reply to the user's
// message. Any failure is logged and replaced with FallbackReply so the
// relay can always notify the user.
func (c *Client) Generate(ctx context.Context, prompt string) string {
	reply, err := c.complete(ctx, prompt)
	if err != nil {
		c.log.ErrorContext(ctx, "completion request failed, using fallback reply", logger.Error(err))
		return FallbackReply
	}
	return reply
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: c.cfg.SystemPrompt},
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("encode completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("completion API returned status %d", resp.StatusCode)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode completion response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("completion response has no choices")
	}
	return out.Choices[0].Message.Content, nil
}
