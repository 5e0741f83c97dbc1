package clients

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
)

type CheckoutSessionRequest struct {
	BookingID   uuid.UUID
	MovieTitle  string
	AmountCents int64
	SuccessURL  string
	CancelURL   string
	ExpiresAt   time.Time
}

type CheckoutSession struct {
	ID  string
	URL string
}

// StripeClient creates checkout sessions. It wraps its own API handle
// instead of the package-level key so the credential lives with the
// component that needs it.
type StripeClient struct {
	api *client.API
}

func NewStripeClient(secretKey string) *StripeClient {
	api := &client.API{}
	api.Init(secretKey, nil)

	return &StripeClient{api: api}
}

// CreateSession opens a payment session with a single line item covering the
// whole booking. The booking id travels in the session metadata and comes
// back with the completion webhook.
func (c *StripeClient) CreateSession(ctx context.Context, req CheckoutSessionRequest) (CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Params: stripe.Params{
			Context: ctx,
		},
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		ExpiresAt:  stripe.Int64(req.ExpiresAt.Unix()),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(string(stripe.CurrencyUSD)),
					UnitAmount: stripe.Int64(req.AmountCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.MovieTitle),
					},
				},
			},
		},
	}
	params.AddMetadata("booking_id", req.BookingID.String())

	session, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return CheckoutSession{}, fmt.Errorf("error creating checkout session: %w", err)
	}

	return CheckoutSession{
		ID:  session.ID,
		URL: session.URL,
	}, nil
}
