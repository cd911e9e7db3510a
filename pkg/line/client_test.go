package line_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manatomanato/line-uranai-bot/pkg/line"
)

func TestClientPush(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("sends bearer token and push body", func(t *testing.T) {
		t.Parallel()

		var got struct {
			To       string `json:"to"`
			Messages []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"messages"`
		}
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer token-123", r.Header.Get("Authorization"))
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		client := line.NewClient(line.Config{
			ChannelToken: "token-123",
			PushURL:      srv.URL,
			Timeout:      time.Second,
		})

		require.NoError(t, client.Push(ctx, "U123", "こんにちは"))
		assert.Equal(t, "U123", got.To)
		require.Len(t, got.Messages, 1)
		assert.Equal(t, "text", got.Messages[0].Type)
		assert.Equal(t, "こんにちは", got.Messages[0].Text)
	})

	t.Run("non-2xx is an error", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"message":"invalid user"}`, http.StatusBadRequest)
		}))
		defer srv.Close()

		client := line.NewClient(line.Config{ChannelToken: "t", PushURL: srv.URL, Timeout: time.Second})
		err := client.Push(ctx, "U123", "hello")
		assert.ErrorIs(t, err, line.ErrPushFailed)
		assert.ErrorContains(t, err, "invalid user")
	})

	t.Run("unreachable host is an error", func(t *testing.T) {
		t.Parallel()

		client := line.NewClient(line.Config{
			ChannelToken: "t",
			PushURL:      "http://127.0.0.1:1",
			Timeout:      200 * time.Millisecond,
		})
		assert.ErrorIs(t, client.Push(ctx, "U123", "hello"), line.ErrPushFailed)
	})
}

func TestEventIsTextMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		event line.Event
		want  bool
	}{
		{
			name:  "text message",
			event: line.Event{Type: "message", Message: &line.Message{Type: "text", Text: "hi"}},
			want:  true,
		},
		{
			name:  "sticker message",
			event: line.Event{Type: "message", Message: &line.Message{Type: "sticker"}},
			want:  false,
		},
		{
			name:  "follow event",
			event: line.Event{Type: "follow"},
			want:  false,
		},
		{
			name:  "message event without message body",
			event: line.Event{Type: "message"},
			want:  false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.event.IsTextMessage())
		})
	}
}
