package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v74"
	"github.com/usenarra/narra-backend/internal/models"
	"github.com/usenarra/narra-backend/internal/repository"
	"github.com/usenarra/narra-backend/internal/testutil"
	"github.com/usenarra/narra-backend/pkg/payment"
	"github.com/usenarra/narra-backend/pkg/scraper"
	"gorm.io/gorm"
)

type sentEmail struct {
	Kind, To, Name, Plan string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentEmail
	err  error
}

func (m *fakeMailer) record(e sentEmail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, e)
	return m.err
}

func (m *fakeMailer) SendWelcomeEmail(to, name string) error {
	return m.record(sentEmail{Kind: "welcome", To: to, Name: name})
}

func (m *fakeMailer) SendPaymentSuccessEmail(to, name, plan string) error {
	return m.record(sentEmail{Kind: "payment_success", To: to, Name: name, Plan: plan})
}

func (m *fakeMailer) SendPaymentFailedEmail(to, name string) error {
	return m.record(sentEmail{Kind: "payment_failed", To: to, Name: name})
}

func (m *fakeMailer) count(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.sent {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

type recordingInvalidator struct {
	mu      sync.Mutex
	deleted []string
}

func (r *recordingInvalidator) Delete(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, userID)
}

func (r *recordingInvalidator) invalidated(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.deleted {
		if id == userID {
			return true
		}
	}
	return false
}

type fakeSource struct {
	mu          sync.Mutex
	profiles    map[string]*scraper.Profile
	posts       map[string][]scraper.Post
	transcript  *scraper.Transcript
	err         error
	profileHits int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		profiles: map[string]*scraper.Profile{},
		posts:    map[string][]scraper.Post{},
	}
}

func (f *fakeSource) GetProfile(_ context.Context, platform, handle string) (*scraper.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profileHits++
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.profiles[platform+"/"+handle]
	if !ok {
		return nil, scraper.ErrProfileNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeSource) GetPosts(_ context.Context, platform, handle string) ([]scraper.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.posts[platform+"/"+handle], nil
}

func (f *fakeSource) GetTranscript(_ context.Context, _, postURL string) (*scraper.Transcript, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if f.transcript == nil {
		return &scraper.Transcript{URL: postURL, Text: "transcript"}, nil
	}
	return f.transcript, nil
}

func (f *fakeSource) setErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

type fakeGateway struct {
	sessions   map[string]*stripe.CheckoutSession
	lastParams payment.SubscriptionCheckout
	err        error
}

func (g *fakeGateway) CreateCheckoutSession(req payment.SubscriptionCheckout) (*stripe.CheckoutSession, error) {
	if g.err != nil {
		return nil, g.err
	}
	g.lastParams = req
	return &stripe.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.stripe.com/c/cs_test_1"}, nil
}

func (g *fakeGateway) CreatePortalSession(customerID string) (*stripe.BillingPortalSession, error) {
	if g.err != nil {
		return nil, g.err
	}
	return &stripe.BillingPortalSession{URL: "https://billing.stripe.com/p/" + customerID}, nil
}

func (g *fakeGateway) GetCheckoutSession(id string) (*stripe.CheckoutSession, error) {
	s, ok := g.sessions[id]
	if !ok {
		return nil, errors.New("no such checkout session")
	}
	return s, nil
}

func (g *fakeGateway) ConstructEvent(payload []byte, _ string) (stripe.Event, error) {
	return stripe.Event{}, errors.New("not used")
}

func uintPtr(v uint) *uint { return &v }

func fixedNow() time.Time {
	return time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
}

// planBySlug returns the id of a seeded default plan.
func planBySlug(t *testing.T, db *gorm.DB, slug string) *models.Plan {
	t.Helper()
	var plan models.Plan
	if err := db.Where("slug = ?", slug).First(&plan).Error; err != nil {
		t.Fatalf("plan %s: %v", slug, err)
	}
	return &plan
}

func createUser(t *testing.T, db *gorm.DB, user *models.User) *models.User {
	t.Helper()
	if user.UsageResetDate.IsZero() {
		user.UsageResetDate = fixedNow().AddDate(0, 1, 0)
	}
	if err := repository.NewUserRepository(db).Create(user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func newDB(t *testing.T) *gorm.DB {
	return testutil.NewSeededDB(t)
}
