package checkout

import (
	"context"

	"github.com/stripe/stripe-go/v84"
	checkoutsession "github.com/stripe/stripe-go/v84/checkout/session"

	pkgstripe "github.com/setdecrunner/backend/pkg/stripe"
)

// StripeCheckoutClient exposes the subset of Stripe operations the checkout
// service needs.
type StripeCheckoutClient interface {
	CreateSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	GetSession(ctx context.Context, id string) (*stripe.CheckoutSession, error)
}

type stripeClientWrapper struct{}

// NewStripeClient wraps the initialized Stripe client so the checkout service
// can be tested against a stub.
func NewStripeClient(api *pkgstripe.Client) StripeCheckoutClient {
	if api == nil {
		return nil
	}
	return &stripeClientWrapper{}
}

func (w *stripeClientWrapper) CreateSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	if params != nil {
		params.Context = ctx
	}
	return checkoutsession.New(params)
}

func (w *stripeClientWrapper) GetSession(ctx context.Context, id string) (*stripe.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	return checkoutsession.Get(id, params)
}
