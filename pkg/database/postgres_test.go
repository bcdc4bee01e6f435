package database_test

import (
	"testing"

	"github.com/usenarra/narra-backend/internal/models"
	"github.com/usenarra/narra-backend/internal/repository"
	"github.com/usenarra/narra-backend/internal/testutil"
	"github.com/usenarra/narra-backend/pkg/database"
)

func TestSeedDefaultPlansIsIdempotent(t *testing.T) {
	db := testutil.NewSeededDB(t)
	if err := database.SeedDefaultPlans(db); err != nil {
		t.Fatalf("second seed: %v", err)
	}

	var count int64
	db.Model(&models.Plan{}).Count(&count)
	if count != int64(len(database.DefaultPlans())) {
		t.Fatalf("plans = %d, want %d", count, len(database.DefaultPlans()))
	}
}

func TestActivePlansAreOrdered(t *testing.T) {
	db := testutil.NewSeededDB(t)
	plans, err := repository.NewPlanRepository(db).GetActive()
	if err != nil {
		t.Fatalf("GetActive: %v", err)
	}

	want := []string{"starter", "pro", "agency"}
	if len(plans) != len(want) {
		t.Fatalf("got %d plans", len(plans))
	}
	for i, slug := range want {
		if plans[i].Slug != slug {
			t.Fatalf("plans[%d] = %s, want %s", i, plans[i].Slug, slug)
		}
	}
	if agency := plans[2]; agency.ProfileDiscoveryLimit != 0 || agency.FollowLimit != 0 {
		t.Fatalf("agency should be unlimited: %+v", agency)
	}
}
