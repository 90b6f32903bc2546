package payment

import (
	"context"
	"net/http"
	"strings"
	"time"

	stripe "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// StripeProvider implements Provider against the Stripe API with a
// bounded request timeout so a slow provider surfaces as an error
// instead of hanging the checkout.
type StripeProvider struct {
	sc *client.API
}

func NewStripeProvider(secretKey string) *StripeProvider {
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	})
	sc := &client.API{}
	sc.Init(secretKey, &stripe.Backends{API: backend, Connect: backend, Uploads: backend})
	return &StripeProvider{sc: sc}
}

func (p *StripeProvider) CreateIntent(ctx context.Context, amount int64, currency string, methods []string) (*Intent, error) {
	if err := CheckAmount(amount); err != nil {
		return nil, err
	}
	if len(methods) == 0 {
		methods = []string{"card"}
	}

	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(amount),
		Currency:           stripe.String(strings.ToLower(currency)),
		PaymentMethodTypes: stripe.StringSlice(methods),
	}
	params.Context = ctx
	params.AddMetadata("source", "BEFA Academy Inscription")

	pi, err := p.sc.PaymentIntents.New(params)
	if err != nil {
		return nil, err
	}
	return &Intent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, in CheckoutParams) (*CheckoutSession, error) {
	if err := CheckAmount(in.Amount); err != nil {
		return nil, err
	}

	product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
		Name: stripe.String("Inscription BEFA Academy"),
	}
	if in.Description != "" {
		product.Description = stripe.String(in.Description)
	}

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card", "bancontact"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(strings.ToLower(in.Currency)),
				ProductData: product,
				UnitAmount:  stripe.Int64(in.Amount),
			},
			Quantity: stripe.Int64(1),
		}},
		SuccessURL: stripe.String(in.SuccessURL),
		CancelURL:  stripe.String(in.CancelURL),
	}
	params.Context = ctx
	if in.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(in.CustomerEmail)
	}
	for k, v := range in.Metadata {
		params.AddMetadata(k, v)
	}

	s, err := p.sc.CheckoutSessions.New(params)
	if err != nil {
		return nil, err
	}
	return &CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

func (p *StripeProvider) RetrieveSession(ctx context.Context, sessionID string) (*SessionStatus, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	s, err := p.sc.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return nil, err
	}

	email := s.CustomerEmail
	if s.CustomerDetails != nil && s.CustomerDetails.Email != "" {
		email = s.CustomerDetails.Email
	}
	return &SessionStatus{
		Paid:          s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		CustomerEmail: email,
		AmountTotal:   s.AmountTotal,
		Currency:      string(s.Currency),
	}, nil
}
