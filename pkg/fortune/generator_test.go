package fortune_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manatomanato/line-uranai-bot/pkg/fortune"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, baseURL string) *fortune.Client {
	t.Helper()
	return fortune.NewClient(fortune.Config{
		APIKey:  "sk-test",
		Model:   "gpt-4",
		BaseURL: baseURL,
		Timeout: time.Second,
	}, discardLogger())
}

func TestClientGenerate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("returns completion content", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/chat/completions", r.URL.Path)
			assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

			var req struct {
				Model    string `json:"model"`
				Messages []struct {
					Role    string `json:"role"`
					Content string `json:"content"`
				} `json:"messages"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "gpt-4", req.Model)
			require.Len(t, req.Messages, 2)
			assert.Equal(t, "system", req.Messages[0].Role)
			assert.Equal(t, "user", req.Messages[1].Role)
			assert.Equal(t, "明日の運勢は？", req.Messages[1].Content)

			json.NewEncoder(w).Encode(map[string]any{
				"choices": []map[string]any{
					{"message": map[string]any{"role": "assistant", "content": "大吉です"}},
				},
			})
		}))
		defer srv.Close()

		got := newTestClient(t, srv.URL).Generate(ctx, "明日の運勢は？")
		assert.Equal(t, "大吉です", got)
	})

	t.Run("non-2xx yields fallback", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":{"message":"rate limited"}}`, http.StatusTooManyRequests)
		}))
		defer srv.Close()

		got := newTestClient(t, srv.URL).Generate(ctx, "hello")
		assert.Equal(t, fortune.FallbackReply, got)
	})

	t.Run("empty choices yields fallback", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `{"choices":[]}`)
		}))
		defer srv.Close()

		got := newTestClient(t, srv.URL).Generate(ctx, "hello")
		assert.Equal(t, fortune.FallbackReply, got)
	})

	t.Run("malformed response yields fallback", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, "{broken")
		}))
		defer srv.Close()

		got := newTestClient(t, srv.URL).Generate(ctx, "hello")
		assert.Equal(t, fortune.FallbackReply, got)
	})

	t.Run("unreachable host yields fallback", func(t *testing.T) {
		t.Parallel()

		client := fortune.NewClient(fortune.Config{
			APIKey:  "sk-test",
			BaseURL: "http://127.0.0.1:1",
			Timeout: 200 * time.Millisecond,
		}, discardLogger())
		assert.Equal(t, fortune.FallbackReply, client.Generate(ctx, "hello"))
	})
}
