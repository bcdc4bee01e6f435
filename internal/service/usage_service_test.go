package service

import (
	"errors"
	"testing"
	"time"

	"github.com/usenarra/narra-backend/internal/models"
	"github.com/usenarra/narra-backend/internal/repository"
	"go.uber.org/zap"
)

func TestNewUsageCounterLevels(t *testing.T) {
	tests := []struct {
		used, limit int
		level       string
		percent     float64
	}{
		{0, 50, models.UsageLevelOK, 0},
		{39, 50, models.UsageLevelOK, 78},
		{40, 50, models.UsageLevelWarning, 80},
		{49, 50, models.UsageLevelWarning, 98},
		{50, 50, models.UsageLevelLimit, 100},
		{60, 50, models.UsageLevelLimit, 120},
		{999, 0, models.UsageLevelOK, 0},
	}
	for _, tt := range tests {
		c := NewUsageCounter(tt.used, tt.limit)
		if c.Level != tt.level || c.Percent != tt.percent {
			t.Errorf("NewUsageCounter(%d, %d) = %+v, want level %s percent %v", tt.used, tt.limit, c, tt.level, tt.percent)
		}
	}
}

func newUsageService(t *testing.T) (*UsageService, *repository.UserRepository, *models.Plan) {
	db := newDB(t)
	users := repository.NewUserRepository(db)
	svc := NewUsageService(users, zap.NewNop())
	svc.now = fixedNow

	plan := planBySlug(t, db, "starter")
	createUser(t, db, &models.User{ID: "user_1", PlanID: &plan.ID})
	return svc, users, plan
}

func TestConsumeStopsAtLimit(t *testing.T) {
	svc, users, plan := newUsageService(t)

	if err := users.UpdateFields("user_1", map[string]interface{}{
		repository.UsageTranscriptViews: plan.TranscriptLimit - 1,
	}); err != nil {
		t.Fatal(err)
	}

	if err := svc.Consume("user_1", UsageTranscriptView); err != nil {
		t.Fatalf("last allowed view: %v", err)
	}
	if err := svc.Consume("user_1", UsageTranscriptView); !errors.Is(err, ErrUsageLimitReached) {
		t.Fatalf("err = %v, want ErrUsageLimitReached", err)
	}

	stats, err := svc.GetStats("user_1")
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if stats.TranscriptViews.Used != plan.TranscriptLimit || stats.TranscriptViews.Level != models.UsageLevelLimit {
		t.Fatalf("transcripts = %+v", stats.TranscriptViews)
	}
	if stats.ProfileDiscoveries.Used != 0 || stats.PlanName != "Starter" {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestCheckDoesNotCount(t *testing.T) {
	svc, users, plan := newUsageService(t)
	users.UpdateFields("user_1", map[string]interface{}{
		repository.UsageProfileDiscoveries: plan.ProfileDiscoveryLimit - 1,
	})

	for i := 0; i < 3; i++ {
		if err := svc.Check("user_1", UsageProfileDiscovery); err != nil {
			t.Fatalf("Check %d: %v", i, err)
		}
	}
	u, _ := users.GetByID("user_1")
	if u.ProfileDiscoveriesUsed != plan.ProfileDiscoveryLimit-1 {
		t.Fatalf("Check changed the counter to %d", u.ProfileDiscoveriesUsed)
	}

	if err := svc.Consume("user_1", UsageProfileDiscovery); err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if err := svc.Check("user_1", UsageProfileDiscovery); !errors.Is(err, ErrUsageLimitReached) {
		t.Fatalf("err = %v, want ErrUsageLimitReached", err)
	}
	if err := svc.Check("user_1", UsageTranscriptView); err != nil {
		t.Fatalf("transcripts are counted separately: %v", err)
	}
}

func TestConsumeUnlimitedPlan(t *testing.T) {
	db := newDB(t)
	users := repository.NewUserRepository(db)
	svc := NewUsageService(users, zap.NewNop())
	svc.now = fixedNow

	agency := planBySlug(t, db, "agency")
	createUser(t, db, &models.User{ID: "user_1", PlanID: &agency.ID, ProfileDiscoveriesUsed: 10000})

	if err := svc.Consume("user_1", UsageProfileDiscovery); err != nil {
		t.Fatalf("unlimited plan should never block: %v", err)
	}
}

func TestConsumeWithoutPlan(t *testing.T) {
	db := newDB(t)
	svc := NewUsageService(repository.NewUserRepository(db), zap.NewNop())
	svc.now = fixedNow
	createUser(t, db, &models.User{ID: "user_1"})

	if err := svc.Consume("user_1", UsageProfileDiscovery); !errors.Is(err, ErrNoActivePlan) {
		t.Fatalf("err = %v, want ErrNoActivePlan", err)
	}
	if err := svc.Consume("ghost", UsageProfileDiscovery); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("err = %v, want ErrUserNotFound", err)
	}
}

func TestLazyResetOnRead(t *testing.T) {
	svc, users, _ := newUsageService(t)

	past := fixedNow().Add(-time.Hour)
	users.UpdateFields("user_1", map[string]interface{}{
		repository.UsageProfileDiscoveries: 30,
		repository.UsageTranscriptViews:    5,
		"usage_reset_date":                 past,
	})

	stats, err := svc.GetStats("user_1")
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	want := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	if stats.ProfileDiscoveries.Used != 0 || stats.TranscriptViews.Used != 0 || !stats.ResetDate.Equal(want) {
		t.Fatalf("stats not reset: %+v", stats)
	}

	u, _ := users.GetByID("user_1")
	if u.ProfileDiscoveriesUsed != 0 || !u.UsageResetDate.Equal(want) {
		t.Fatalf("row not reset: %+v", u)
	}
}

func TestResetMonthlyUsageCounters(t *testing.T) {
	db := newDB(t)
	users := repository.NewUserRepository(db)
	svc := NewUsageService(users, zap.NewNop())
	now := fixedNow()

	createUser(t, db, &models.User{ID: "due", ProfileDiscoveriesUsed: 4, TranscriptViewsUsed: 2, UsageResetDate: now.Add(-24 * time.Hour)})
	createUser(t, db, &models.User{ID: "not_due", ProfileDiscoveriesUsed: 9, TranscriptViewsUsed: 8, UsageResetDate: now.Add(24 * time.Hour)})

	n, err := svc.ResetMonthlyUsageCounters(now)
	if err != nil {
		t.Fatalf("ResetMonthlyUsageCounters: %v", err)
	}
	if n != 1 {
		t.Fatalf("reset %d users, want 1", n)
	}

	due, _ := users.GetByID("due")
	if due.ProfileDiscoveriesUsed != 0 || due.TranscriptViewsUsed != 0 {
		t.Fatalf("due user counters = %d/%d", due.ProfileDiscoveriesUsed, due.TranscriptViewsUsed)
	}
	if want := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC); !due.UsageResetDate.Equal(want) {
		t.Fatalf("reset date = %v, want %v", due.UsageResetDate, want)
	}

	notDue, _ := users.GetByID("not_due")
	if notDue.ProfileDiscoveriesUsed != 9 || notDue.TranscriptViewsUsed != 8 {
		t.Fatalf("not-due user modified: %+v", notDue)
	}
}
