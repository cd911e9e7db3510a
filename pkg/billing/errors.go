package billing

import "errors"

var (
	ErrMissingAPIKey             = errors.New("billing provider API key is required")
	ErrMissingUserID             = errors.New("user ID is required for checkout")
	ErrNoCheckoutURL             = errors.New("no checkout URL returned from provider")
	ErrWebhookVerificationFailed = errors.New("webhook signature verification failed")
)
