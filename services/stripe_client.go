package services

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/client"
	"github.com/stripe/stripe-go/v80/webhook"
	apperrors "github.com/yashrajoria/bistro-backend/common/errors"
)

type paymentIntentAPI interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

// StripeGateway reserves card payments through Stripe PaymentIntents.
type StripeGateway struct {
	intents       paymentIntentAPI
	currency      string
	webhookSecret string
}

func NewStripeGateway(secretKey, currency, webhookSecret string) *StripeGateway {
	sc := &client.API{}
	sc.Init(secretKey, nil)
	if currency == "" {
		currency = string(stripe.CurrencyUSD)
	}
	return &StripeGateway{intents: sc.PaymentIntents, currency: strings.ToLower(currency), webhookSecret: webhookSecret}
}

// Currency is the currency used when the caller does not pick one.
func (g *StripeGateway) Currency() string {
	return g.currency
}

// Reserve creates a card PaymentIntent for amount and returns its client secret.
// Amounts are converted to minor units, rounding half-up.
func (g *StripeGateway) Reserve(ctx context.Context, amount decimal.Decimal, currency string) (string, error) {
	if !amount.IsPositive() {
		return "", apperrors.Validation("amount must be positive")
	}
	if currency == "" {
		currency = g.currency
	}
	cents := amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()

	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(cents),
		Currency:           stripe.String(strings.ToLower(currency)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	params.Context = ctx

	pi, err := g.intents.New(params)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrPaymentFailed, err)
	}
	return pi.ClientSecret, nil
}

// ParseWebhook verifies a Stripe webhook payload against the endpoint secret.
func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (stripe.Event, error) {
	event, err := webhook.ConstructEvent(payload, signature, g.webhookSecret)
	if err != nil {
		return event, apperrors.Wrap(apperrors.ErrBadRequest, err)
	}
	return event, nil
}
