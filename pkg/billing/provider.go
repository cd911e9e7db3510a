// Package billing abstracts the payment provider behind a minimal interface
// and ships a Stripe implementation. The abstraction keeps checkout-session
// creation and webhook parsing swappable without touching the relay or the
// subscriber store.
package billing

import "context"

// Provider defines the minimal payment-provider surface the bot needs.
type Provider interface {
	// CreateCheckoutLink creates a hosted checkout session with the LINE
	// user ID embedded in provider metadata so the webhook can correlate
	// the completed payment back to the user.
	CreateCheckoutLink(ctx context.Context, req CheckoutRequest) (*CheckoutLink, error)

	// ParseWebhook validates and parses an incoming provider webhook into
	// a normalized event. Signature verification is applied when the
	// provider is configured with a webhook secret.
	ParseWebhook(ctx context.Context, payload []byte, signature string) (*Event, error)
}

// CheckoutRequest contains data needed to create a checkout session.
type CheckoutRequest struct {
	UserID     string // LINE user ID, stored in provider metadata
	SuccessURL string // Redirect after successful payment
	CancelURL  string // Redirect if the customer cancels
}

// CheckoutLink represents a hosted checkout session.
type CheckoutLink struct {
	URL       string // Hosted checkout URL
	SessionID string // Provider's session identifier
}

// EventType is the normalized billing event type.
type EventType string

// EventCheckoutCompleted is the only event the bot acts on; everything else
// is acknowledged and ignored.
const EventCheckoutCompleted EventType = "checkout_completed"

// Event is a normalized webhook event from the payment provider.
type Event struct {
	Type          EventType // Normalized event type
	ProviderEvent string    // Original provider event name
	SessionID     string    // Provider's checkout-session ID
	UserID        string    // LINE user ID from session metadata, may be empty
}
