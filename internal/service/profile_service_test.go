package service

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/usenarra/narra-backend/internal/models"
	"github.com/usenarra/narra-backend/internal/repository"
	"github.com/usenarra/narra-backend/pkg/scraper"
	"go.uber.org/zap"
)

type profileFixture struct {
	svc      *ProfileService
	source   *fakeSource
	posts    *repository.PostRepository
	profiles *repository.ProfileRepository
	follows  *repository.FollowRepository
	profile  *models.Profile
}

func newProfileFixture(t *testing.T) *profileFixture {
	db := newDB(t)
	f := &profileFixture{
		source:   newFakeSource(),
		posts:    repository.NewPostRepository(db),
		profiles: repository.NewProfileRepository(db),
		follows:  repository.NewFollowRepository(db),
	}
	f.svc = NewProfileService(f.source, f.profiles, f.follows, f.posts, zap.NewNop())
	f.svc.now = fixedNow

	f.profile = &models.Profile{Platform: models.PlatformInstagram, Handle: "narra", FollowerCount: 10}
	if err := f.profiles.Upsert(f.profile); err != nil {
		t.Fatal(err)
	}
	if _, err := f.follows.Create(&models.Follow{UserID: "user_1", ProfileID: f.profile.ID}); err != nil {
		t.Fatal(err)
	}

	f.source.profiles["instagram/narra"] = &scraper.Profile{
		Platform: models.PlatformInstagram, Handle: "narra", DisplayName: "Narra",
		Bio: "new bio", AvatarURL: "https://scontent.cdninstagram.com/new.jpg", FollowerCount: 2500, IsVerified: true,
	}
	return f
}

func (f *profileFixture) store(t *testing.T, ids ...string) {
	t.Helper()
	var rows []models.Post
	for _, id := range ids {
		rows = append(rows, toPostModel("user_1", f.profile.ID, models.PlatformInstagram, scraper.Post{ExternalID: id, Caption: "stored " + id}))
	}
	if _, err := f.posts.CreateNew(rows); err != nil {
		t.Fatal(err)
	}
}

func TestRefreshInsertsOnlyNewPosts(t *testing.T) {
	f := newProfileFixture(t)
	f.store(t, "p1", "p2", "p3")
	f.source.posts["instagram/narra"] = []scraper.Post{
		{ExternalID: "p2", Caption: "api p2"},
		{ExternalID: "p3", Caption: "api p3"},
		{ExternalID: "p4", Caption: "api p4"},
	}

	result, err := f.svc.Refresh(context.Background(), "user_1", f.profile.ID)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if !result.Success || result.NewPosts != 1 {
		t.Fatalf("result = %+v, want 1 new post", result)
	}

	ids, _ := f.posts.GetExternalIDs("user_1", f.profile.ID)
	sort.Strings(ids)
	if len(ids) != 4 || ids[3] != "p4" {
		t.Fatalf("external ids = %v", ids)
	}

	stored, _ := f.posts.GetUserProfilePosts("user_1", f.profile.ID, 10)
	for _, p := range stored {
		if p.ExternalID != "p4" && p.Caption != "stored "+p.ExternalID {
			t.Fatalf("existing post %s was modified: %q", p.ExternalID, p.Caption)
		}
	}

	profile, _ := f.profiles.GetByID(f.profile.ID)
	if profile.FollowerCount != 2500 || profile.Bio != "new bio" || !profile.IsVerified || profile.LastUpdated == nil {
		t.Fatalf("profile metadata not updated: %+v", profile)
	}
	follow, _ := f.follows.GetByUserAndProfile("user_1", f.profile.ID)
	if follow.LastRefreshedAt == nil || !follow.LastRefreshedAt.Equal(fixedNow()) {
		t.Fatalf("LastRefreshedAt = %v", follow.LastRefreshedAt)
	}
}

func TestRefreshDeduplicatesWithinResponse(t *testing.T) {
	f := newProfileFixture(t)
	f.source.posts["instagram/narra"] = []scraper.Post{{ExternalID: "p1"}, {ExternalID: "p1"}}

	result, err := f.svc.Refresh(context.Background(), "user_1", f.profile.ID)
	if err != nil || result.NewPosts != 1 {
		t.Fatalf("result = %+v err = %v", result, err)
	}
}

func TestRefreshScraperFailureIsAResult(t *testing.T) {
	f := newProfileFixture(t)
	f.source.setErr(&scraper.APIError{StatusCode: 500, Endpoint: "/v2/instagram/user/posts"})

	result, err := f.svc.Refresh(context.Background(), "user_1", f.profile.ID)
	if err != nil {
		t.Fatalf("scraper failures should not be returned as errors: %v", err)
	}
	if result.Success || result.Message == "" {
		t.Fatalf("result = %+v", result)
	}
}

func TestRefreshRequiresFollow(t *testing.T) {
	f := newProfileFixture(t)
	if _, err := f.svc.Refresh(context.Background(), "stranger", f.profile.ID); !errors.Is(err, ErrFollowNotFound) {
		t.Fatalf("err = %v, want ErrFollowNotFound", err)
	}
}

func TestRefreshAllFollows(t *testing.T) {
	f := newProfileFixture(t)
	f.source.posts["instagram/narra"] = []scraper.Post{{ExternalID: "p9"}}

	other := &models.Profile{Platform: models.PlatformTikTok, Handle: "gone"}
	f.profiles.Upsert(other)
	f.follows.Create(&models.Follow{UserID: "user_1", ProfileID: other.ID})

	ok, failed, err := f.svc.RefreshAllFollows(context.Background())
	if err != nil {
		t.Fatalf("RefreshAllFollows: %v", err)
	}
	if ok != 1 || failed != 1 {
		t.Fatalf("succeeded=%d failed=%d, want 1/1", ok, failed)
	}
}
