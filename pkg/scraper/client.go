// Package scraper is a client for the creator scraping API used to discover
// Instagram and TikTok profiles, their latest posts and video transcripts.
package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

const (
	PlatformInstagram = "instagram"
	PlatformTikTok    = "tiktok"
)

var ErrUnsupportedPlatform = errors.New("unsupported platform")

type Config struct {
	APIKey   string
	BaseURL  string
	CacheTTL time.Duration
	Timeout  time.Duration
}

// APIError is returned for any non-2xx response.
type APIError struct {
	StatusCode int
	Endpoint   string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("scraper: %s returned %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	cache      *cache.Cache
	logger     *zap.Logger
}

// New builds a client. Responses are cached for cfg.CacheTTL.
func New(cfg Config, logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        50,
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		cache:   cache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
		logger:  logger.Named("scraper"),
	}
}

func (c *Client) GetProfile(ctx context.Context, platform, handle string) (*Profile, error) {
	handle = NormalizeHandle(handle)
	switch platform {
	case PlatformInstagram:
		var raw instagramProfileResponse
		if err := c.get(ctx, "/v1/instagram/profile", url.Values{"handle": {handle}}, &raw); err != nil {
			return nil, err
		}
		return raw.toProfile(handle)
	case PlatformTikTok:
		var raw tiktokProfileResponse
		if err := c.get(ctx, "/v1/tiktok/profile", url.Values{"handle": {handle}}, &raw); err != nil {
			return nil, err
		}
		return raw.toProfile(handle)
	default:
		return nil, ErrUnsupportedPlatform
	}
}

func (c *Client) GetPosts(ctx context.Context, platform, handle string) ([]Post, error) {
	handle = NormalizeHandle(handle)
	switch platform {
	case PlatformInstagram:
		var raw instagramPostsResponse
		if err := c.get(ctx, "/v2/instagram/user/posts", url.Values{"handle": {handle}}, &raw); err != nil {
			return nil, err
		}
		return raw.toPosts(), nil
	case PlatformTikTok:
		var raw tiktokVideosResponse
		if err := c.get(ctx, "/v3/tiktok/profile/videos", url.Values{"handle": {handle}}, &raw); err != nil {
			return nil, err
		}
		return raw.toPosts(handle), nil
	default:
		return nil, ErrUnsupportedPlatform
	}
}

func (c *Client) GetTranscript(ctx context.Context, platform, postURL string) (*Transcript, error) {
	var raw transcriptResponse
	switch platform {
	case PlatformInstagram:
		if err := c.get(ctx, "/v2/instagram/media/transcript", url.Values{"url": {postURL}}, &raw); err != nil {
			return nil, err
		}
	case PlatformTikTok:
		if err := c.get(ctx, "/v1/tiktok/video/transcript", url.Values{"url": {postURL}}, &raw); err != nil {
			return nil, err
		}
	default:
		return nil, ErrUnsupportedPlatform
	}
	return raw.toTranscript(postURL), nil
}

// get performs a cached GET and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	endpoint := c.baseURL + path + "?" + query.Encode()

	if body, ok := c.cache.Get(endpoint); ok {
		return json.Unmarshal(body.([]byte), out)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call scraper: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return fmt.Errorf("failed to read scraper response: %w", err)
	}

	c.logger.Debug("scraper request",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := string(body)
		if len(snippet) > 256 {
			snippet = snippet[:256]
		}
		return &APIError{StatusCode: resp.StatusCode, Endpoint: path, Body: snippet}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode scraper response: %w", err)
	}

	c.cache.SetDefault(endpoint, body)
	return nil
}

// NormalizeHandle strips a leading @ and surrounding whitespace and lowercases the handle.
func NormalizeHandle(handle string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(handle), "@"))
}
