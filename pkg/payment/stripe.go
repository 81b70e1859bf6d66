package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
)

// StripeGateway charges stored payment methods through Stripe
// PaymentIntents.
type StripeGateway struct {
	api    *client.API
	logger zerolog.Logger
}

// NewStripeGateway constructs a gateway instance.
func NewStripeGateway(apiKey string, logger zerolog.Logger) (*StripeGateway, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("stripe api key must be provided")
	}

	api := &client.API{}
	api.Init(apiKey, nil)

	return &StripeGateway{
		api:    api,
		logger: logger.With().Str("component", "stripe_gateway").Logger(),
	}, nil
}

// Charge confirms an off-session PaymentIntent against the stored payment
// method. The caller's idempotency key guards against duplicate charges when
// the batch is re-invoked.
func (g *StripeGateway) Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error) {
	currency := req.Currency
	if currency == "" {
		currency = string(stripe.CurrencyEUR)
	}

	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(req.AmountCents),
		Currency:      stripe.String(currency),
		Customer:      stripe.String(req.CustomerID),
		PaymentMethod: stripe.String(req.PaymentMethodID),
		OffSession:    stripe.Bool(true),
		Confirm:       stripe.Bool(true),
	}
	params.Context = ctx
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	intent, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return ChargeResult{}, mapStripeError(err)
	}

	g.logger.Info().Str("payment_intent", intent.ID).Str("status", string(intent.Status)).Msg("charge attempted")

	switch intent.Status {
	case stripe.PaymentIntentStatusSucceeded:
		return ChargeResult{Status: StatusSucceeded, ChargeID: intent.ID}, nil
	case stripe.PaymentIntentStatusRequiresAction, stripe.PaymentIntentStatusRequiresConfirmation:
		return ChargeResult{Status: StatusRequiresAction, ChargeID: intent.ID}, nil
	default:
		return ChargeResult{Status: StatusFailed, ChargeID: intent.ID}, nil
	}
}

func mapStripeError(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		switch stripeErr.Code {
		case stripe.ErrorCodeCardDeclined, stripe.ErrorCodeExpiredCard, stripe.ErrorCodeIncorrectCVC:
			return fmt.Errorf("%w: %s", ErrCardDeclined, stripeErr.Code)
		}
		if stripeErr.HTTPStatusCode >= 500 {
			return fmt.Errorf("%w: %s", ErrGatewayTimeout, stripeErr.Msg)
		}
		return err
	}
	return err
}
