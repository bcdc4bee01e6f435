package service

import (
	"testing"
	"time"

	"github.com/usenarra/narra-backend/internal/authcache"
	"github.com/usenarra/narra-backend/internal/models"
	"github.com/usenarra/narra-backend/internal/repository"
	"go.uber.org/zap"
)

func TestLookupLoadsAndCaches(t *testing.T) {
	db := newDB(t)
	pro := planBySlug(t, db, "pro")
	createUser(t, db, &models.User{ID: "user_1", Role: models.RoleAdmin, PlanID: &pro.ID})

	cache := authcache.New(time.Minute)
	svc := NewAccessService(cache, repository.NewUserRepository(db), zap.NewNop())

	entry, err := svc.Lookup("user_1")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if !entry.HasPlan() || *entry.PlanID != pro.ID || !entry.IsAdmin {
		t.Fatalf("entry = %+v", entry)
	}

	cached, ok := cache.Get("user_1")
	if !ok || *cached.PlanID != pro.ID {
		t.Fatalf("entry was not cached: %+v", cached)
	}
}

func TestLookupReturnsStoredTimestamp(t *testing.T) {
	db := newDB(t)
	createUser(t, db, &models.User{ID: "user_1"})

	stamp := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	cache := authcache.New(time.Hour, authcache.WithClock(func() time.Time { return stamp }))
	svc := NewAccessService(cache, repository.NewUserRepository(db), zap.NewNop())

	entry, err := svc.Lookup("user_1")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if !entry.Timestamp.Equal(stamp) {
		t.Fatalf("Timestamp = %v, want cache clock %v", entry.Timestamp, stamp)
	}
	cached, _ := cache.Get("user_1")
	if !cached.Timestamp.Equal(entry.Timestamp) {
		t.Fatalf("returned %v but cached %v", entry.Timestamp, cached.Timestamp)
	}
}

func TestLookupServesFromCache(t *testing.T) {
	db := newDB(t)
	cache := authcache.New(time.Minute)
	cache.Set("user_1", uintPtr(42), true)

	svc := NewAccessService(cache, repository.NewUserRepository(db), zap.NewNop())
	entry, err := svc.Lookup("user_1")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if *entry.PlanID != 42 || !entry.IsAdmin {
		t.Fatalf("cache was bypassed: %+v", entry)
	}
}

func TestLookupUnsyncedUser(t *testing.T) {
	db := newDB(t)
	cache := authcache.New(time.Minute)
	svc := NewAccessService(cache, repository.NewUserRepository(db), zap.NewNop())

	entry, err := svc.Lookup("user_new")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if entry.HasPlan() || entry.IsAdmin {
		t.Fatalf("unsynced user should have no access: %+v", entry)
	}
	if _, ok := cache.Get("user_new"); !ok {
		t.Fatal("unsynced result should be cached")
	}
}
