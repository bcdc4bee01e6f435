package service

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/stripe/stripe-go/v74"
	"github.com/usenarra/narra-backend/internal/authcache"
	"github.com/usenarra/narra-backend/internal/models"
	"github.com/usenarra/narra-backend/internal/repository"
	"github.com/usenarra/narra-backend/pkg/email"
	"github.com/usenarra/narra-backend/pkg/payment"
	"go.uber.org/zap"
)

type BillingService struct {
	gateway  payment.Gateway
	userRepo *repository.UserRepository
	planRepo *repository.PlanRepository
	cache    authcache.Invalidator
	mailer   email.Mailer
	logger   *zap.Logger
}

func NewBillingService(gateway payment.Gateway, userRepo *repository.UserRepository, planRepo *repository.PlanRepository, cache authcache.Invalidator, mailer email.Mailer, logger *zap.Logger) *BillingService {
	return &BillingService{
		gateway:  gateway,
		userRepo: userRepo,
		planRepo: planRepo,
		cache:    cache,
		mailer:   mailer,
		logger:   logger,
	}
}

func (s *BillingService) CreateCheckoutSession(userID string, planID uint) (*models.CheckoutSession, error) {
	plan, err := s.planRepo.GetByID(planID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	if !plan.IsActive || plan.StripePriceID == "" {
		return nil, ErrPlanNotPurchasable
	}

	user, err := s.getUser(userID)
	if err != nil {
		return nil, err
	}

	session, err := s.gateway.CreateCheckoutSession(payment.SubscriptionCheckout{
		UserID:     user.ID,
		PlanID:     strconv.FormatUint(uint64(plan.ID), 10),
		PriceID:    plan.StripePriceID,
		Email:      user.Email,
		CustomerID: user.StripeCustomerID,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	return &models.CheckoutSession{
		ID:         session.ID,
		URL:        session.URL,
		CustomerID: user.StripeCustomerID,
	}, nil
}

func (s *BillingService) CreatePortalSession(userID string) (*models.PortalSession, error) {
	user, err := s.getUser(userID)
	if err != nil {
		return nil, err
	}
	if user.StripeCustomerID == "" {
		return nil, ErrNoBillingAccount
	}

	portal, err := s.gateway.CreatePortalSession(user.StripeCustomerID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return &models.PortalSession{URL: portal.URL}, nil
}

// VerifyCheckoutSession reports the state of a checkout the user returned from
// and applies the plan when it is paid. Applying twice has no further effect.
func (s *BillingService) VerifyCheckoutSession(userID, sessionID string) (*models.CheckoutVerification, error) {
	session, err := s.gateway.GetCheckoutSession(sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	owner := session.Metadata["user_id"]
	if owner == "" {
		owner = session.ClientReferenceID
	}
	if owner != userID {
		return nil, ErrSessionMismatch
	}

	result := &models.CheckoutVerification{
		SessionID:     session.ID,
		Status:        string(session.Status),
		PaymentStatus: string(session.PaymentStatus),
	}

	planID, err := parsePlanID(session.Metadata["plan_id"])
	if err != nil {
		return nil, err
	}
	result.PlanID = &planID

	if session.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid {
		if _, err := s.activate(userID, planID, customerID(session.Customer), subscriptionID(session.Subscription)); err != nil {
			return nil, err
		}
		result.Activated = true
	}
	return result, nil
}

// HandleEvent applies a verified Stripe event.
func (s *BillingService) HandleEvent(event stripe.Event) error {
	switch event.Type {
	case "checkout.session.completed":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return err
		}
		return s.handleCheckoutCompleted(&session)

	case "customer.subscription.updated":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return err
		}
		return s.handleSubscriptionUpdated(&sub)

	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return err
		}
		return s.handleSubscriptionDeleted(&sub)

	case "invoice.payment_failed":
		var invoice stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
			return err
		}
		return s.handlePaymentFailed(&invoice)

	default:
		s.logger.Debug("ignoring stripe event", zap.String("type", string(event.Type)))
		return nil
	}
}

func (s *BillingService) handleCheckoutCompleted(session *stripe.CheckoutSession) error {
	userID := session.Metadata["user_id"]
	if userID == "" {
		userID = session.ClientReferenceID
	}
	if userID == "" {
		return fmt.Errorf("checkout session %s has no user_id", session.ID)
	}

	planID, err := parsePlanID(session.Metadata["plan_id"])
	if err != nil {
		return err
	}

	user, err := s.activate(userID, planID, customerID(session.Customer), subscriptionID(session.Subscription))
	if err != nil {
		return err
	}
	if user == nil {
		return nil
	}

	planName := ""
	if plan, err := s.planRepo.GetByID(planID); err == nil {
		planName = plan.Name
	}
	if err := s.mailer.SendPaymentSuccessEmail(user.Email, user.FullName(), planName); err != nil {
		s.logger.Warn("failed to send payment success email", zap.String("user_id", userID), zap.Error(err))
	}
	return nil
}

// activate puts the user on planID with an active subscription. It returns the
// user when something changed, or nil when the subscription was already applied.
func (s *BillingService) activate(userID string, planID uint, customer, subscription string) (*models.User, error) {
	user, err := s.getUser(userID)
	if err != nil {
		return nil, err
	}
	if _, err := s.planRepo.GetByID(planID); err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}

	if user.PlanID != nil && *user.PlanID == planID &&
		user.SubscriptionStatus == models.SubscriptionActive &&
		(subscription == "" || user.StripeSubscriptionID == subscription) {
		return nil, nil
	}

	fields := map[string]interface{}{
		"plan_id":             planID,
		"subscription_status": models.SubscriptionActive,
	}
	if customer != "" {
		fields["stripe_customer_id"] = customer
	}
	if subscription != "" {
		fields["stripe_subscription_id"] = subscription
	}
	if err := s.userRepo.UpdateFields(userID, fields); err != nil {
		return nil, err
	}
	s.cache.Delete(userID)

	s.logger.Info("subscription activated",
		zap.String("user_id", userID),
		zap.Uint("plan_id", planID),
		zap.String("subscription_id", subscription),
	)
	return user, nil
}

func (s *BillingService) handleSubscriptionUpdated(sub *stripe.Subscription) error {
	user, err := s.findSubscriber(sub)
	if err != nil {
		return err
	}

	fields := map[string]interface{}{
		"subscription_status":    string(sub.Status),
		"stripe_subscription_id": sub.ID,
	}
	if priceID := subscriptionPriceID(sub); priceID != "" {
		plan, err := s.planRepo.GetByStripePriceID(priceID)
		switch {
		case err == nil:
			fields["plan_id"] = plan.ID
		case repository.IsNotFound(err):
			s.logger.Warn("subscription price does not match any plan", zap.String("price_id", priceID))
		default:
			return err
		}
	}

	if err := s.userRepo.UpdateFields(user.ID, fields); err != nil {
		return err
	}
	s.cache.Delete(user.ID)

	s.logger.Info("subscription updated", zap.String("user_id", user.ID), zap.String("status", string(sub.Status)))
	return nil
}

func (s *BillingService) handleSubscriptionDeleted(sub *stripe.Subscription) error {
	user, err := s.findSubscriber(sub)
	if err != nil {
		return err
	}

	err = s.userRepo.UpdateFields(user.ID, map[string]interface{}{
		"subscription_status": models.SubscriptionCanceled,
		"plan_id":             nil,
	})
	if err != nil {
		return err
	}
	s.cache.Delete(user.ID)

	s.logger.Info("subscription canceled", zap.String("user_id", user.ID))
	return nil
}

func (s *BillingService) handlePaymentFailed(invoice *stripe.Invoice) error {
	customer := customerID(invoice.Customer)
	if customer == "" {
		return fmt.Errorf("invoice %s has no customer", invoice.ID)
	}

	user, err := s.userRepo.GetByStripeCustomerID(customer)
	if err != nil {
		if repository.IsNotFound(err) {
			s.logger.Warn("payment failed for unknown customer", zap.String("customer_id", customer))
			return nil
		}
		return err
	}

	if err := s.userRepo.UpdateFields(user.ID, map[string]interface{}{
		"subscription_status": models.SubscriptionPastDue,
	}); err != nil {
		return err
	}
	s.cache.Delete(user.ID)

	if err := s.mailer.SendPaymentFailedEmail(user.Email, user.FullName()); err != nil {
		s.logger.Warn("failed to send payment failed email", zap.String("user_id", user.ID), zap.Error(err))
	}
	return nil
}

// findSubscriber locates the user by subscription id, customer id or metadata.
func (s *BillingService) findSubscriber(sub *stripe.Subscription) (*models.User, error) {
	if sub.ID != "" {
		if user, err := s.userRepo.GetByStripeSubscriptionID(sub.ID); err == nil {
			return user, nil
		} else if !repository.IsNotFound(err) {
			return nil, err
		}
	}
	if c := customerID(sub.Customer); c != "" {
		if user, err := s.userRepo.GetByStripeCustomerID(c); err == nil {
			return user, nil
		} else if !repository.IsNotFound(err) {
			return nil, err
		}
	}
	if id := sub.Metadata["user_id"]; id != "" {
		return s.getUser(id)
	}
	return nil, ErrUserNotFound
}

func (s *BillingService) getUser(userID string) (*models.User, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func parsePlanID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid plan_id metadata %q", raw)
	}
	return uint(id), nil
}

func customerID(c *stripe.Customer) string {
	if c == nil {
		return ""
	}
	return c.ID
}

func subscriptionID(sub *stripe.Subscription) string {
	if sub == nil {
		return ""
	}
	return sub.ID
}

func subscriptionPriceID(sub *stripe.Subscription) string {
	if sub.Items == nil {
		return ""
	}
	for _, item := range sub.Items.Data {
		if item.Price != nil && item.Price.ID != "" {
			return item.Price.ID
		}
	}
	return ""
}
