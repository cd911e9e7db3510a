// Package relay implements the inbound LINE webhook: it gates each text
// message on the sender's subscription status and either pushes a generated
// fortune reply or a payment prompt.
package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/manatomanato/line-uranai-bot/pkg/fortune"
	"github.com/manatomanato/line-uranai-bot/pkg/line"
	"github.com/manatomanato/line-uranai-bot/pkg/logger"
	"github.com/manatomanato/line-uranai-bot/pkg/subscription"
)

const (
	subscribePrompt      = "このサービスは月額500円です。\n登録はこちら: %s"
	trialExhaustedPrompt = "無料でのご相談はここまでです。続きは月額プランでお楽しみください。\n登録はこちら: %s"
)

// Pusher delivers a text message to a user. Satisfied by line.Client.
type Pusher interface {
	Push(ctx context.Context, userID, text string) error
}

// Relay handles one webhook delivery at a time: events are processed
// sequentially in input order, each one independently, so a failure on one
// event never blocks the rest of the batch.
type Relay struct {
	gate    *subscription.Service
	gen     fortune.Generator
	pusher  Pusher
	baseURL string
	log     *slog.Logger
}

// New creates the relay. Panics on nil dependencies to fail fast during
// process wiring.
func New(gate *subscription.Service, gen fortune.Generator, pusher Pusher, baseURL string, log *slog.Logger) *Relay {
	if gate == nil {
		panic("relay: subscription service is required")
	}
	if gen == nil {
		panic("relay: reply generator is required")
	}
	if pusher == nil {
		panic("relay: pusher is required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Relay{gate: gate, gen: gen, pusher: pusher, baseURL: baseURL, log: log}
}

// Register mounts the relay routes on the given router.
func (rl *Relay) Register(r chi.Router) {
	r.Post("/webhook", rl.handleWebhook)
}

// handleWebhook processes one LINE webhook delivery. A payload without an
// events list is rejected outright; everything else is acknowledged with
// 200 regardless of downstream failures, since LINE retries on anything
// else and the bot must not amplify errors into redelivery storms.
func (rl *Relay) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Events json.RawMessage `json:"events"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid webhook payload", http.StatusBadRequest)
		return
	}
	if len(payload.Events) == 0 || string(payload.Events) == "null" {
		http.Error(w, "missing events", http.StatusBadRequest)
		return
	}

	var events []line.Event
	if err := json.Unmarshal(payload.Events, &events); err != nil {
		http.Error(w, "invalid events", http.StatusBadRequest)
		return
	}

	deliveryID := uuid.NewString()
	log := rl.log.With(logger.DeliveryID(deliveryID))

	for _, ev := range events {
		if !ev.IsTextMessage() {
			continue
		}
		if ev.Source.UserID == "" {
			log.WarnContext(r.Context(), "text message without userId, skipping")
			continue
		}
		rl.processMessage(r.Context(), log, ev.Source.UserID, ev.Message.Text)
	}

	w.WriteHeader(http.StatusOK)
}

// processMessage makes the gating decision for one text message and pushes
// the resulting reply. Push failures are logged and swallowed; there is no
// retry queue and LINE does not expect a synchronous delivery confirmation.
func (rl *Relay) processMessage(ctx context.Context, log *slog.Logger, userID, text string) {
	var reply string

	switch verdict := rl.gate.Admit(ctx, userID); verdict {
	case subscription.VerdictPaid, subscription.VerdictTrial:
		reply = rl.gen.Generate(ctx, text)
	case subscription.VerdictExhausted:
		reply = rl.paymentPrompt(userID)
	}

	if err := rl.pusher.Push(ctx, userID, reply); err != nil {
		log.ErrorContext(ctx, "push delivery failed", logger.UserID(userID), logger.Error(err))
	}
}

// paymentPrompt builds the gating message with the user's personal checkout
// link. The wording differs depending on whether a free trial exists.
func (rl *Relay) paymentPrompt(userID string) string {
	link := fmt.Sprintf("%s/create-checkout-session?userId=%s", rl.baseURL, url.QueryEscape(userID))
	if rl.gate.TrialEnabled() {
		return fmt.Sprintf(trialExhaustedPrompt, link)
	}
	return fmt.Sprintf(subscribePrompt, link)
}
