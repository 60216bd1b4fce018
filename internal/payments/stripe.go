package payments

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"
)

// Client talks to the real gateways. Credentials are passed per call since
// every store may carry its own keys.
type Client struct{}

func NewClient() *Client {
	return &Client{}
}

func (c *Client) CreateStripeSession(ctx context.Context, keys Keys, in SessionInput) (*CheckoutSession, error) {
	if keys.StripeSecretKey == "" {
		return nil, fmt.Errorf("%w: stripe", ErrNotConfigured)
	}

	sc := client.New(keys.StripeSecretKey, nil)

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:         stripe.String(in.SuccessURL),
		CancelURL:          stripe.String(in.CancelURL),
		ClientReferenceID:  stripe.String(in.Reference),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(in.Currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(in.Name),
				},
				UnitAmount: stripe.Int64(in.AmountCent),
			},
			Quantity: stripe.Int64(1),
		}},
	}
	params.Context = ctx

	s, err := sc.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe session create: %w", err)
	}
	return &CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

// StripeEvent is the part of a verified webhook the order flow needs.
type StripeEvent struct {
	Type      string
	SessionID string
}

func ParseStripeWebhook(payload []byte, header, secret string) (*StripeEvent, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: stripe webhook secret", ErrNotConfigured)
	}
	ev, err := webhook.ConstructEventWithOptions(payload, header, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, err
	}

	out := &StripeEvent{Type: string(ev.Type)}
	if ev.Data != nil && len(ev.Data.Raw) > 0 {
		var obj struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(ev.Data.Raw, &obj); err == nil {
			out.SessionID = obj.ID
		}
	}
	return out, nil
}
