package payment

import (
	"context"
	"errors"
)

// Charge outcome statuses.
const (
	StatusSucceeded      = "succeeded"
	StatusRequiresAction = "requires_action"
	StatusFailed         = "failed"
)

var (
	// ErrCardDeclined indicates the card issuer refused the charge.
	ErrCardDeclined = errors.New("card declined")
	// ErrGatewayTimeout indicates the gateway did not answer in time.
	ErrGatewayTimeout = errors.New("payment gateway timeout")
)

// ChargeRequest describes an off-session charge. The idempotency key must be
// stable across re-invocations for the same logical attempt so the gateway
// deduplicates retries.
type ChargeRequest struct {
	CustomerID      string
	PaymentMethodID string
	AmountCents     int64
	Currency        string
	IdempotencyKey  string
}

// ChargeResult is the gateway's answer to a charge request.
type ChargeResult struct {
	Status   string
	ChargeID string
}

// Gateway abstracts the payment provider.
type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error)
}
