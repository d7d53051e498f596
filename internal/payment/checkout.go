// Package payment talks to Stripe: it opens Checkout sessions and reads webhook
// events.
package payment

import (
	"context"
	"errors"
	"strings"

	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/checkout/session"

	"catalog_back_end/internal/models"
)

type Config struct {
	SecretKey        string
	SuccessURL       string
	CancelURL        string
	AllowedCountries []string
	Currency         string
}

// Session is what the client needs to continue to the hosted payment page.
type Session struct {
	ID  string
	URL string
}

type Checkout struct {
	cfg Config
	// newSession is session.New outside tests.
	newSession func(*stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

func NewCheckout(cfg Config) *Checkout {
	stripe.Key = cfg.SecretKey
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	return &Checkout{cfg: cfg, newSession: session.New}
}

// CreateSession opens a hosted Checkout session in payment mode for items.
func (c *Checkout) CreateSession(ctx context.Context, items []models.LineItem) (*Session, error) {
	params := c.SessionParams(items)
	params.Context = ctx

	s, err := c.newSession(params)
	if err != nil {
		return nil, err
	}
	return &Session{ID: s.ID, URL: s.URL}, nil
}

// SessionParams maps submitted line items to Stripe's price_data form.
func (c *Checkout) SessionParams(items []models.LineItem) *stripe.CheckoutSessionParams {
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(items))
	for _, item := range items {
		unit, _ := item.UnitAmount()
		currency := strings.ToLower(item.Currency())
		if currency == "" {
			currency = c.cfg.Currency
		}
		name := item.Name()
		if name == "" {
			name = "Item"
		}

		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(name),
				},
				UnitAmount: stripe.Int64(unit.Round(0).IntPart()),
			},
			Quantity: stripe.Int64(item.Qty()),
		})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:  lineItems,
		SuccessURL: stripe.String(c.cfg.SuccessURL),
		CancelURL:  stripe.String(c.cfg.CancelURL),
	}
	if len(c.cfg.AllowedCountries) > 0 {
		params.ShippingAddressCollection = &stripe.CheckoutSessionShippingAddressCollectionParams{
			AllowedCountries: stripe.StringSlice(c.cfg.AllowedCountries),
		}
	}
	return params
}

// ProviderMessage is the message Stripe gave for err, or err's text.
func ProviderMessage(err error) string {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.Msg != "" {
		return stripeErr.Msg
	}
	return err.Error()
}
