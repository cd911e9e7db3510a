// Package billing exposes the payment-provider HTTP surface: the Stripe
// webhook that marks users paid, the checkout-session endpoint that issues
// personal payment links, and the post-checkout static pages.
package billing

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/manatomanato/line-uranai-bot/pkg/billing"
	"github.com/manatomanato/line-uranai-bot/pkg/logger"
	"github.com/manatomanato/line-uranai-bot/pkg/subscription"
)

// fallbackUserID keeps checkout working for links created without a userId
// query parameter; the resulting payment cannot be correlated to a LINE
// user, which the webhook logs as a data problem.
const fallbackUserID = "unknown_user"

const (
	successPage = "<h1>決済が完了しました！</h1><p>LINEで「こんにちは」と送って、占いを受けてみてください。</p>"
	cancelPage  = "<h1>決済がキャンセルされました。</h1><p>再度お試しください。</p>"
)

// Module wires the payment endpoints to the provider and the subscriber store.
type Module struct {
	provider billing.Provider
	store    subscription.Store
	baseURL  string
	log      *slog.Logger
}

// New creates the billing module. Panics on nil dependencies to fail fast
// during process wiring.
func New(provider billing.Provider, store subscription.Store, baseURL string, log *slog.Logger) *Module {
	if provider == nil {
		panic("billing: provider is required")
	}
	if store == nil {
		panic("billing: subscriber store is required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Module{provider: provider, store: store, baseURL: baseURL, log: log}
}

// Register mounts the billing routes on the given router.
func (m *Module) Register(r chi.Router) {
	r.Post("/stripe-webhook", m.handleStripeWebhook)
	r.Get("/create-checkout-session", m.handleCreateCheckoutSession)
	r.Get("/success", servePage(successPage))
	r.Get("/cancel", servePage(cancelPage))
}

// handleStripeWebhook acknowledges every structurally valid event with 200,
// even when no user can be correlated, so the provider never enters a
// redelivery storm over our own data problems.
func (m *Module) handleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "cannot read payload", http.StatusBadRequest)
		return
	}

	event, err := m.provider.ParseWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		m.log.ErrorContext(r.Context(), "rejecting unparseable payment webhook", logger.Error(err))
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	if event.Type == billing.EventCheckoutCompleted {
		switch {
		case event.UserID == "":
			m.log.ErrorContext(r.Context(), "checkout completed without userId metadata",
				slog.String("session_id", event.SessionID))
		default:
			if err := m.store.MarkPaid(r.Context(), event.UserID); err != nil {
				m.log.ErrorContext(r.Context(), "failed to mark subscriber paid",
					logger.UserID(event.UserID), logger.Error(err))
			} else {
				m.log.InfoContext(r.Context(), "subscriber marked paid",
					logger.UserID(event.UserID), slog.String("session_id", event.SessionID))
			}
		}
	}

	w.WriteHeader(http.StatusOK)
}

func (m *Module) handleCreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		userID = fallbackUserID
	}

	link, err := m.provider.CreateCheckoutLink(r.Context(), billing.CheckoutRequest{
		UserID:     userID,
		SuccessURL: m.baseURL + "/success",
		CancelURL:  m.baseURL + "/cancel",
	})
	if err != nil {
		m.log.ErrorContext(r.Context(), "failed to create checkout session",
			logger.UserID(userID), logger.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "支払いリンクの作成に失敗しました。",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"url": link.URL})
}

func servePage(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		io.WriteString(w, body)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
