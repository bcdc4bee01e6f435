package webhooks

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	svix "github.com/svix/svix-webhooks/go"
)

const (
	HeaderSvixID        = "svix-id"
	HeaderSvixTimestamp = "svix-timestamp"
	HeaderSvixSignature = "svix-signature"
)

var (
	ErrMissingHeaders   = errors.New("missing svix headers")
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

const (
	EventUserCreated = "user.created"
	EventUserUpdated = "user.updated"
	EventUserDeleted = "user.deleted"
)

type ClerkEvent struct {
	Type   string          `json:"type"`
	Object string          `json:"object"`
	Data   json.RawMessage `json:"data"`
}

type ClerkEmailAddress struct {
	ID           string `json:"id"`
	EmailAddress string `json:"email_address"`
}

// ClerkUser is the user payload carried by user.* events.
type ClerkUser struct {
	ID                    string                 `json:"id"`
	EmailAddresses        []ClerkEmailAddress    `json:"email_addresses"`
	PrimaryEmailAddressID string                 `json:"primary_email_address_id"`
	FirstName             string                 `json:"first_name"`
	LastName              string                 `json:"last_name"`
	ImageURL              string                 `json:"image_url"`
	PublicMetadata        map[string]interface{} `json:"public_metadata"`
	Deleted               bool                   `json:"deleted"`
}

func (u ClerkUser) PrimaryEmail() string {
	for _, e := range u.EmailAddresses {
		if e.ID == u.PrimaryEmailAddressID {
			return e.EmailAddress
		}
	}
	if len(u.EmailAddresses) > 0 {
		return u.EmailAddresses[0].EmailAddress
	}
	return ""
}

// Role returns public_metadata.role, or "" when unset.
func (u ClerkUser) Role() string {
	role, _ := u.PublicMetadata["role"].(string)
	return role
}

// ClerkVerifier checks Svix signatures on identity webhooks.
type ClerkVerifier struct {
	wh *svix.Webhook
}

func NewClerkVerifier(secret string) (*ClerkVerifier, error) {
	wh, err := svix.NewWebhook(secret)
	if err != nil {
		return nil, fmt.Errorf("invalid clerk webhook secret: %w", err)
	}
	return &ClerkVerifier{wh: wh}, nil
}

// Verify checks the three svix headers and the signature, then decodes the event.
func (v *ClerkVerifier) Verify(payload []byte, headers http.Header) (*ClerkEvent, error) {
	if headers.Get(HeaderSvixID) == "" || headers.Get(HeaderSvixTimestamp) == "" || headers.Get(HeaderSvixSignature) == "" {
		return nil, ErrMissingHeaders
	}

	if err := v.wh.Verify(payload, headers); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	var event ClerkEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("failed to decode clerk event: %w", err)
	}
	return &event, nil
}

// User decodes the event data as a Clerk user.
func (e *ClerkEvent) User() (*ClerkUser, error) {
	var u ClerkUser
	if err := json.Unmarshal(e.Data, &u); err != nil {
		return nil, fmt.Errorf("failed to decode clerk user: %w", err)
	}
	if u.ID == "" {
		return nil, errors.New("clerk user id is empty")
	}
	return &u, nil
}
