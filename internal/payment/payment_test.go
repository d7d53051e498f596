package payment

import (
	"context"
	stdjson "encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/webhook"

	"catalog_back_end/internal/models"
)

func lineItems(t *testing.T, raw string) []models.LineItem {
	t.Helper()
	var out []models.LineItem
	require.NoError(t, stdjson.Unmarshal([]byte(raw), &out))
	return out
}

func newTestCheckout() *Checkout {
	return NewCheckout(Config{
		SecretKey:        "sk_test_123",
		SuccessURL:       "http://localhost:3000/success.html",
		CancelURL:        "http://localhost:3000/cancel.html",
		AllowedCountries: []string{"US", "CA"},
	})
}

func TestSessionParams(t *testing.T) {
	c := newTestCheckout()
	params := c.SessionParams(lineItems(t, `[
		{"price_data":{"currency":"USD","product_data":{"name":"Shirt"},"unit_amount":1999},"quantity":2},
		{"amount":500}
	]`))

	assert.Equal(t, "payment", *params.Mode)
	assert.Equal(t, "http://localhost:3000/success.html", *params.SuccessURL)
	assert.Equal(t, "http://localhost:3000/cancel.html", *params.CancelURL)
	require.NotNil(t, params.ShippingAddressCollection)
	assert.Equal(t, []*string{stripe.String("US"), stripe.String("CA")}, params.ShippingAddressCollection.AllowedCountries)

	require.Len(t, params.LineItems, 2)
	first := params.LineItems[0]
	assert.Equal(t, "usd", *first.PriceData.Currency)
	assert.Equal(t, "Shirt", *first.PriceData.ProductData.Name)
	assert.Equal(t, int64(1999), *first.PriceData.UnitAmount)
	assert.Equal(t, int64(2), *first.Quantity)

	second := params.LineItems[1]
	assert.Equal(t, "usd", *second.PriceData.Currency)
	assert.Equal(t, "Item", *second.PriceData.ProductData.Name)
	assert.Equal(t, int64(500), *second.PriceData.UnitAmount)
	assert.Equal(t, int64(1), *second.Quantity)
}

func TestCreateSession(t *testing.T) {
	c := newTestCheckout()
	var got *stripe.CheckoutSessionParams
	c.newSession = func(p *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
		got = p
		return &stripe.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.stripe.com/c/pay/cs_test_1"}, nil
	}

	s, err := c.CreateSession(context.Background(), lineItems(t, `[{"price":100}]`))
	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", s.ID)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_1", s.URL)
	require.NotNil(t, got)
	assert.Len(t, got.LineItems, 1)
}

func TestCreateSessionProviderError(t *testing.T) {
	c := newTestCheckout()
	c.newSession = func(*stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
		return nil, &stripe.Error{Msg: "Invalid API Key provided"}
	}

	_, err := c.CreateSession(context.Background(), lineItems(t, `[{"price":100}]`))
	require.Error(t, err)
	assert.Equal(t, "Invalid API Key provided", ProviderMessage(err))
	assert.Equal(t, "network down", ProviderMessage(errors.New("network down")))
}

const completedEvent = `{
	"id": "evt_1",
	"object": "event",
	"type": "checkout.session.completed",
	"data": {"object": {"id": "cs_test_1", "object": "checkout.session"}}
}`

func TestWebhookWithoutSecret(t *testing.T) {
	w := NewWebhook("")
	assert.False(t, w.Verified())

	event, err := w.Parse([]byte(completedEvent), "")
	require.NoError(t, err)
	id, ok := CompletedSessionID(event)
	assert.True(t, ok)
	assert.Equal(t, "cs_test_1", id)

	_, err = w.Parse([]byte("{"), "")
	assert.Error(t, err)
}

func TestWebhookVerifiesSignature(t *testing.T) {
	w := NewWebhook("whsec_test")
	assert.True(t, w.Verified())

	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload: []byte(completedEvent),
		Secret:  "whsec_test",
	})
	event, err := w.Parse(signed.Payload, signed.Header)
	require.NoError(t, err)
	id, ok := CompletedSessionID(event)
	assert.True(t, ok)
	assert.Equal(t, "cs_test_1", id)

	_, err = w.Parse([]byte(completedEvent), "t=1,v1=bad")
	assert.Error(t, err)
}

func TestCompletedSessionIDIgnoresOtherEvents(t *testing.T) {
	event, err := NewWebhook("").Parse([]byte(`{"id":"evt_2","type":"checkout.session.expired","data":{"object":{"id":"cs_1"}}}`), "")
	require.NoError(t, err)
	_, ok := CompletedSessionID(event)
	assert.False(t, ok)
}
