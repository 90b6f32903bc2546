package payment

import (
	"context"
	"errors"
)

// MinChargeAmount is Stripe's smallest chargeable amount in minor
// units. Requests below it are rejected up front instead of clamped.
const MinChargeAmount = 50

var ErrAmountTooSmall = errors.New("amount below provider minimum")

// CheckAmount rejects amounts the provider would refuse to charge.
func CheckAmount(minorUnits int64) error {
	if minorUnits < MinChargeAmount {
		return ErrAmountTooSmall
	}
	return nil
}

// Intent is the embedded-form payable resource.
type Intent struct {
	ID           string
	ClientSecret string
}

// CheckoutSession is the hosted-checkout payable resource.
type CheckoutSession struct {
	ID  string
	URL string
}

// SessionStatus is the provider's own answer about a checkout session.
// Only Paid==true may drive the reservation completion step; URL
// parameters from the return redirect are never trusted on their own.
type SessionStatus struct {
	Paid          bool
	CustomerEmail string
	AmountTotal   int64
	Currency      string
}

// CheckoutParams describes one hosted checkout. Amount in minor units.
type CheckoutParams struct {
	Amount        int64
	Currency      string
	Description   string
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
	Metadata      map[string]string
}

// Provider is the external payment collaborator. The Stripe
// implementation lives in stripe.go; tests substitute a fake.
type Provider interface {
	CreateIntent(ctx context.Context, amount int64, currency string, methods []string) (*Intent, error)
	CreateCheckoutSession(ctx context.Context, in CheckoutParams) (*CheckoutSession, error)
	RetrieveSession(ctx context.Context, sessionID string) (*SessionStatus, error)
}
