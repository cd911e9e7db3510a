package line

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrPushFailed indicates the push API rejected or failed the delivery.
var ErrPushFailed = errors.New("line push delivery failed")

type pushRequest struct {
	To       string        `json:"to"`
	Messages []pushMessage `json:"messages"`
}

type pushMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Client delivers text messages to users via the LINE push API. Delivery is
// best-effort with no retry queue; callers log failures and move on.
type Client struct {
	cfg   Config
	httpc *http.Client
}

// NewClient creates a push client from the config.
func NewClient(cfg Config) *Client {
	return &Client{
		cfg:   cfg,
		httpc: &http.Client{Timeout: cfg.Timeout},
	}
}

// Push sends a single text message to the given user.
func (c *Client) Push(ctx context.Context, userID, text string) error {
	body, err := json.Marshal(pushRequest{
		To:       userID,
		Messages: []pushMessage{{Type: MessageTypeText, Text: text}},
	})
	if err != nil {
		return fmt.Errorf("encode push request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.PushURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.ChannelToken)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return errors.Join(ErrPushFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// The push API returns a short JSON error body; surface it for logs.
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: status %d: %s", ErrPushFailed, resp.StatusCode, detail)
	}
	return nil
}
