package payment

import (
	"github.com/stripe/stripe-go/v74"
	portalsession "github.com/stripe/stripe-go/v74/billingportal/session"
	"github.com/stripe/stripe-go/v74/checkout/session"
	"github.com/stripe/stripe-go/v74/webhook"
)

// SubscriptionCheckout describes a checkout session for one plan.
type SubscriptionCheckout struct {
	UserID     string
	PlanID     string
	PriceID    string
	Email      string
	CustomerID string
}

// Gateway is the subset of Stripe used by billing.
type Gateway interface {
	CreateCheckoutSession(req SubscriptionCheckout) (*stripe.CheckoutSession, error)
	CreatePortalSession(customerID string) (*stripe.BillingPortalSession, error)
	GetCheckoutSession(sessionID string) (*stripe.CheckoutSession, error)
	ConstructEvent(payload []byte, signature string) (stripe.Event, error)
}

type StripeService struct {
	secretKey     string
	webhookSecret string
	frontendURL   string
}

func NewStripeService(secretKey, webhookSecret, frontendURL string) *StripeService {
	stripe.Key = secretKey
	return &StripeService{
		secretKey:     secretKey,
		webhookSecret: webhookSecret,
		frontendURL:   frontendURL,
	}
}

func (s *StripeService) CreateCheckoutSession(req SubscriptionCheckout) (*stripe.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(req.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		ClientReferenceID: stripe.String(req.UserID),
		SuccessURL:        stripe.String(s.frontendURL + "/billing/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:         stripe.String(s.frontendURL + "/select-plan"),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{
				"user_id": req.UserID,
				"plan_id": req.PlanID,
			},
		},
	}

	if req.CustomerID != "" {
		params.Customer = stripe.String(req.CustomerID)
	} else if req.Email != "" {
		params.CustomerEmail = stripe.String(req.Email)
	}

	params.AddMetadata("user_id", req.UserID)
	params.AddMetadata("plan_id", req.PlanID)

	return session.New(params)
}

func (s *StripeService) CreatePortalSession(customerID string) (*stripe.BillingPortalSession, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(s.frontendURL + "/settings/billing"),
	}
	return portalsession.New(params)
}

func (s *StripeService) GetCheckoutSession(sessionID string) (*stripe.CheckoutSession, error) {
	return session.Get(sessionID, nil)
}

// ConstructEvent verifies the Stripe-Signature header and decodes the event.
func (s *StripeService) ConstructEvent(payload []byte, signature string) (stripe.Event, error) {
	return webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
}
