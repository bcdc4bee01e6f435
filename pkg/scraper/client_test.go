package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{
		APIKey:   "test-key",
		BaseURL:  srv.URL,
		CacheTTL: time.Minute,
		Timeout:  5 * time.Second,
	}, zap.NewNop())
}

func TestGetInstagramProfile(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/instagram/profile" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("missing api key header")
		}
		if r.URL.Query().Get("handle") != "narra" {
			t.Errorf("handle = %q", r.URL.Query().Get("handle"))
		}
		w.Write([]byte(`{"data":{"user":{"username":"Narra","full_name":"Narra HQ","biography":"bio",
			"profile_pic_url_hd":"https://scontent.cdninstagram.com/a.jpg","is_verified":true,
			"edge_followed_by":{"count":1200},"edge_follow":{"count":3},"edge_owner_to_timeline_media":{"count":42}}}}`))
	})

	p, err := c.GetProfile(context.Background(), PlatformInstagram, "@Narra ")
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if p.Handle != "narra" || p.DisplayName != "Narra HQ" || p.FollowerCount != 1200 || !p.IsVerified || p.PostCount != 42 {
		t.Fatalf("unexpected profile: %+v", p)
	}
}

func TestGetTikTokPosts(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v3/tiktok/profile/videos" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"aweme_list":[
			{"aweme_id":"7001","desc":"first","create_time":1700000000,
			 "statistics":{"digg_count":10,"comment_count":2,"play_count":100,"share_count":1},
			 "video":{"cover":{"url_list":["https://p16.tiktokcdn.com/c.jpg"]}}},
			{"aweme_id":"","desc":"skipped"}]}`))
	})

	posts, err := c.GetPosts(context.Background(), PlatformTikTok, "creator")
	if err != nil {
		t.Fatalf("GetPosts: %v", err)
	}
	if len(posts) != 1 {
		t.Fatalf("len(posts) = %d, want 1", len(posts))
	}
	p := posts[0]
	if p.ExternalID != "7001" || p.Views != 100 || p.Shares != 1 || p.ThumbnailURL == "" {
		t.Fatalf("unexpected post: %+v", p)
	}
	if p.URL != "https://www.tiktok.com/@creator/video/7001" {
		t.Fatalf("URL = %q", p.URL)
	}
	if p.PostedAt == nil || p.PostedAt.Unix() != 1700000000 {
		t.Fatalf("PostedAt = %v", p.PostedAt)
	}
}

func TestNon2xxReturnsAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error":"out of credits"}`))
	})

	_, err := c.GetProfile(context.Background(), PlatformTikTok, "x")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusPaymentRequired {
		t.Fatalf("StatusCode = %d", apiErr.StatusCode)
	}
}

func TestResponsesAreCached(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"transcript":"hello world"}`))
	})

	for i := 0; i < 3; i++ {
		tr, err := c.GetTranscript(context.Background(), PlatformTikTok, "https://www.tiktok.com/@a/video/1")
		if err != nil {
			t.Fatalf("GetTranscript: %v", err)
		}
		if tr.Text != "hello world" {
			t.Fatalf("Text = %q", tr.Text)
		}
	}
	if calls.Load() != 1 {
		t.Fatalf("upstream called %d times, want 1", calls.Load())
	}
}

func TestErrorsAreNotCached(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"user":{"uniqueId":"a","nickname":"A"},"stats":{"followerCount":5}}`))
	})

	if _, err := c.GetProfile(context.Background(), PlatformTikTok, "a"); err == nil {
		t.Fatal("expected first call to fail")
	}
	p, err := c.GetProfile(context.Background(), PlatformTikTok, "a")
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if p.FollowerCount != 5 {
		t.Fatalf("FollowerCount = %d", p.FollowerCount)
	}
}

func TestMissingProfile(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{}}`))
	})
	if _, err := c.GetProfile(context.Background(), PlatformInstagram, "ghost"); !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("err = %v, want ErrProfileNotFound", err)
	}
}

func TestUnsupportedPlatform(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	if _, err := c.GetPosts(context.Background(), "myspace", "tom"); !errors.Is(err, ErrUnsupportedPlatform) {
		t.Fatalf("err = %v", err)
	}
}

func TestInstagramTranscriptJoinsSegments(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/instagram/media/transcript" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"transcripts":[{"text":"one"},{"text":""},{"text":"two"}]}`))
	})
	tr, err := c.GetTranscript(context.Background(), PlatformInstagram, "https://www.instagram.com/reel/x/")
	if err != nil {
		t.Fatalf("GetTranscript: %v", err)
	}
	if tr.Text != "one\ntwo" {
		t.Fatalf("Text = %q", tr.Text)
	}
}
