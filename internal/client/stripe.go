package client

import (
	"context"
	"encoding/json"
	"fmt"

	"storefront-checkout/internal/config"

	"github.com/stripe/stripe-go/v79"
	stripeclient "github.com/stripe/stripe-go/v79/client"
	"github.com/stripe/stripe-go/v79/webhook"
)

// Intent is the gateway-neutral view of a payment intent used by the
// checkout core.
type Intent struct {
	ID           string
	ClientSecret string
	Status       string
	Metadata     map[string]string
}

// WebhookEvent is a verified, decoded gateway event. Metadata carries
// the intent metadata when the event payload is a payment intent.
type WebhookEvent struct {
	ID              string
	Type            string
	PaymentIntentID string
	Metadata        map[string]string
}

// PaymentGateway wraps the external payment provider. Every write takes
// an idempotency key so transport-level retries produce one effect.
type PaymentGateway interface {
	CreateIntent(ctx context.Context, amount int64, currency string, metadata map[string]string, idempotencyKey string) (*Intent, error)
	GetIntent(ctx context.Context, id string) (*Intent, error)
	CancelIntent(ctx context.Context, id string) error
	VerifyWebhook(payload []byte, signature string) (*WebhookEvent, error)
}

const (
	EventPaymentSucceeded = "payment_intent.succeeded"
	EventPaymentFailed    = "payment_intent.payment_failed"
	EventChargeRefunded   = "charge.refunded"
)

const IntentStatusSucceeded = string(stripe.PaymentIntentStatusSucceeded)

type stripeGateway struct {
	api           *stripeclient.API
	webhookSecret string
}

func NewStripeGateway(cfg *config.Stripe) PaymentGateway {
	api := &stripeclient.API{}
	api.Init(cfg.SecretKey, nil)

	return &stripeGateway{
		api:           api,
		webhookSecret: cfg.WebhookSecret,
	}
}

func (g *stripeGateway) CreateIntent(ctx context.Context, amount int64, currency string, metadata map[string]string, idempotencyKey string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(currency),
	}
	params.Context = ctx
	params.SetIdempotencyKey(idempotencyKey)
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe create payment intent: %w", err)
	}

	return intentFromStripe(pi), nil
}

func (g *stripeGateway) GetIntent(ctx context.Context, id string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := g.api.PaymentIntents.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("stripe get payment intent: %w", err)
	}

	return intentFromStripe(pi), nil
}

// CancelIntent is best-effort: an intent that already left a cancellable
// state reports a gateway error the caller may choose to swallow.
func (g *stripeGateway) CancelIntent(ctx context.Context, id string) error {
	params := &stripe.PaymentIntentCancelParams{}
	params.Context = ctx

	if _, err := g.api.PaymentIntents.Cancel(id, params); err != nil {
		return fmt.Errorf("stripe cancel payment intent: %w", err)
	}
	return nil
}

func (g *stripeGateway) VerifyWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEvent(payload, signature, g.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("verify webhook signature: %w", err)
	}

	out := &WebhookEvent{
		ID:   event.ID,
		Type: string(event.Type),
	}

	switch event.Type {
	case EventPaymentSucceeded, EventPaymentFailed:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("decode payment intent payload: %w", err)
		}
		out.PaymentIntentID = pi.ID
		out.Metadata = pi.Metadata
	case EventChargeRefunded:
		var ch stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &ch); err != nil {
			return nil, fmt.Errorf("decode charge payload: %w", err)
		}
		if ch.PaymentIntent != nil {
			out.PaymentIntentID = ch.PaymentIntent.ID
		}
	}

	return out, nil
}

// Cancellable reports whether the intent can still be cancelled at the
// gateway.
func (i *Intent) Cancellable() bool {
	switch stripe.PaymentIntentStatus(i.Status) {
	case stripe.PaymentIntentStatusRequiresPaymentMethod,
		stripe.PaymentIntentStatusRequiresConfirmation,
		stripe.PaymentIntentStatusRequiresAction,
		stripe.PaymentIntentStatusRequiresCapture,
		stripe.PaymentIntentStatusProcessing:
		return true
	}
	return false
}

func intentFromStripe(pi *stripe.PaymentIntent) *Intent {
	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		Metadata:     pi.Metadata,
	}
}
