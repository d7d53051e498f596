package payment

import (
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/webhook"
)

const EventCheckoutCompleted = "checkout.session.completed"

// MaxWebhookBytes caps the webhook body read.
const MaxWebhookBytes = int64(65536)

// Webhook reads Stripe events. Without a signing secret the payload is trusted as
// is, which is only meant for local testing.
type Webhook struct {
	secret string
}

func NewWebhook(secret string) *Webhook {
	return &Webhook{secret: secret}
}

func (w *Webhook) Verified() bool {
	return w.secret != ""
}

func (w *Webhook) Parse(payload []byte, signature string) (stripe.Event, error) {
	var event stripe.Event
	if w.secret == "" {
		if err := json.Unmarshal(payload, &event); err != nil {
			return event, errors.Wrap(err, "decode event")
		}
		return event, nil
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, w.secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return event, errors.Wrap(err, "verify event")
	}
	return event, nil
}

// CompletedSessionID returns the session id of a checkout.session.completed event.
func CompletedSessionID(event stripe.Event) (string, bool) {
	if event.Type != EventCheckoutCompleted || event.Data == nil {
		return "", false
	}
	var cs stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &cs); err != nil || cs.ID == "" {
		return "", false
	}
	return cs.ID, true
}
