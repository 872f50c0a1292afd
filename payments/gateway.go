package payments

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotIntegrated is returned by gateways that have no payment processor behind them.
// It is not a payment failure: nothing was charged and nothing was attempted.
var ErrNotIntegrated = errors.New("payment provider not integrated")

type Charge struct {
	BookingID uuid.UUID
	Amount    float64
	Currency  string
}

type Receipt struct {
	ExternalID string
	Succeeded  bool
}

// Gateway is the seam where a real processor (Stripe PaymentIntent, PayPal order) plugs in.
type Gateway interface {
	Initiate(ctx context.Context, charge Charge) (*Receipt, error)
	Confirm(ctx context.Context, externalID string) (*Receipt, error)
}

// Unintegrated is the gateway used until a processor is wired in.
type Unintegrated struct{}

func (Unintegrated) Initiate(ctx context.Context, charge Charge) (*Receipt, error) {
	return nil, ErrNotIntegrated
}

func (Unintegrated) Confirm(ctx context.Context, externalID string) (*Receipt, error) {
	return nil, ErrNotIntegrated
}
