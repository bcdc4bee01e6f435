package models

type CreateCheckoutSessionRequest struct {
	PlanID uint `json:"plan_id" validate:"required"`
}

type CheckoutSession struct {
	ID         string `json:"id"`
	URL        string `json:"url"`
	CustomerID string `json:"customer_id,omitempty"`
	Status     string `json:"status,omitempty"`
}

type PortalSession struct {
	URL string `json:"url"`
}

type CheckoutVerification struct {
	SessionID     string `json:"session_id"`
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
	PlanID        *uint  `json:"plan_id,omitempty"`
	Activated     bool   `json:"activated"`
}
