package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	stripe "github.com/stripe/stripe-go/v82"
	stripeclient "github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"
)

// MetadataUserIDKey is the checkout-session metadata key carrying the LINE
// user ID. The webhook reads the same key back.
const MetadataUserIDKey = "userId"

// StripeConfig holds configuration for the Stripe billing provider.
type StripeConfig struct {
	SecretKey string `env:"STRIPE_SECRET_KEY,required"`

	// WebhookSecret enables Stripe-Signature verification when set. The
	// original deployment ran without verification, so it stays optional.
	WebhookSecret string `env:"STRIPE_WEBHOOK_SECRET"`

	ProductName string `env:"STRIPE_PRODUCT_NAME" envDefault:"占いチャットサブスク"`
	Currency    string `env:"STRIPE_CURRENCY" envDefault:"jpy"`
	UnitAmount  int64  `env:"STRIPE_UNIT_AMOUNT" envDefault:"500"`
}

// StripeProvider implements Provider for Stripe subscription checkouts.
type StripeProvider struct {
	api *stripeclient.API
	cfg StripeConfig
}

// NewStripeProvider creates a new Stripe billing provider.
func NewStripeProvider(cfg StripeConfig) (*StripeProvider, error) {
	if cfg.SecretKey == "" {
		return nil, ErrMissingAPIKey
	}

	api := &stripeclient.API{}
	api.Init(cfg.SecretKey, nil)

	return &StripeProvider{api: api, cfg: cfg}, nil
}

// CreateCheckoutLink creates a hosted subscription checkout session.
func (p *StripeProvider) CreateCheckoutLink(ctx context.Context, req CheckoutRequest) (*CheckoutLink, error) {
	if req.UserID == "" {
		return nil, ErrMissingUserID
	}

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(p.cfg.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(p.cfg.ProductName),
					},
					UnitAmount: stripe.Int64(p.cfg.UnitAmount),
					Recurring: &stripe.CheckoutSessionLineItemPriceDataRecurringParams{
						Interval: stripe.String("month"),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
	}
	params.Context = ctx
	params.AddMetadata(MetadataUserIDKey, req.UserID)

	session, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("create stripe checkout session: %w", err)
	}
	if session.URL == "" {
		return nil, ErrNoCheckoutURL
	}

	return &CheckoutLink{URL: session.URL, SessionID: session.ID}, nil
}

// ParseWebhook parses a Stripe webhook payload into a normalized event.
// With a webhook secret configured the Stripe-Signature header is verified;
// without one the payload is trusted as-is.
func (p *StripeProvider) ParseWebhook(ctx context.Context, payload []byte, signature string) (*Event, error) {
	var event stripe.Event

	if p.cfg.WebhookSecret != "" {
		verified, err := webhook.ConstructEvent(payload, signature, p.cfg.WebhookSecret)
		if err != nil {
			return nil, errors.Join(ErrWebhookVerificationFailed, err)
		}
		event = verified
	} else if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("parse stripe webhook payload: %w", err)
	}

	out := &Event{
		Type:          mapStripeEventType(event.Type),
		ProviderEvent: string(event.Type),
	}

	if event.Type == stripe.EventTypeCheckoutSessionCompleted && event.Data != nil {
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return nil, fmt.Errorf("parse checkout session object: %w", err)
		}
		out.SessionID = session.ID
		out.UserID = session.Metadata[MetadataUserIDKey]
	}

	return out, nil
}

func mapStripeEventType(t stripe.EventType) EventType {
	switch t {
	case stripe.EventTypeCheckoutSessionCompleted:
		return EventCheckoutCompleted
	default:
		// Pass unmapped events through; callers acknowledge and ignore them.
		return EventType(t)
	}
}
