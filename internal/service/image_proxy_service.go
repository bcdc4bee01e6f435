package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/usenarra/narra-backend/pkg/storage"
	"github.com/usenarra/narra-backend/pkg/utils"
	"go.uber.org/zap"
)

const MaxProxiedImageBytes = 10 << 20

// AllowedImageHosts are the CDN host suffixes the proxy will fetch from.
var AllowedImageHosts = []string{
	"cdninstagram.com",
	"fbcdn.net",
	"tiktokcdn.com",
	"tiktokcdn-us.com",
	"muscdn.com",
}

type ImageProxyService struct {
	client *http.Client
	store  storage.ObjectStore
	logger *zap.Logger
}

const maxImageRedirects = 5

// NewImageProxyService builds the proxy. store may be nil to disable caching.
// Redirects are only followed to allowed hosts.
func NewImageProxyService(client *http.Client, store storage.ObjectStore, logger *zap.Logger) *ImageProxyService {
	c := http.Client{Timeout: 15 * time.Second}
	if client != nil {
		c = *client
	}
	c.CheckRedirect = checkImageRedirect
	return &ImageProxyService{client: &c, store: store, logger: logger}
}

func checkImageRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= maxImageRedirects {
		return fmt.Errorf("%w: too many redirects", ErrInvalidImageURL)
	}
	if _, err := ValidateImageURL(req.URL.String()); err != nil {
		return err
	}
	return nil
}

// Fetch returns the image at rawURL, served from the object cache when present.
func (s *ImageProxyService) Fetch(ctx context.Context, rawURL string) (*storage.Object, error) {
	u, err := ValidateImageURL(rawURL)
	if err != nil {
		return nil, err
	}

	key := cacheKey(u.String())
	if s.store != nil {
		obj, err := s.store.Get(ctx, key)
		if err == nil {
			return obj, nil
		}
		if !errors.Is(err, storage.ErrObjectNotFound) {
			s.logger.Warn("image cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	obj, err := s.download(ctx, u.String())
	if err != nil {
		return nil, err
	}

	if s.store != nil {
		if err := s.store.Put(ctx, key, obj); err != nil {
			s.logger.Warn("image cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return obj, nil
}

func (s *ImageProxyService) download(ctx context.Context, rawURL string) (*storage.Object, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, ErrInvalidImageURL
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; NarraImageProxy/1.0)")
	req.Header.Set("Accept", "image/*")

	resp, err := s.client.Do(req)
	if err != nil {
		if errors.Is(err, ErrInvalidImageURL) {
			return nil, ErrInvalidImageURL
		}
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: image host returned %d", ErrUpstream, resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if !utils.IsImageContentType(contentType) {
		return nil, ErrNotAnImage
	}
	if resp.ContentLength > MaxProxiedImageBytes {
		return nil, ErrImageTooLarge
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxProxiedImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if len(body) > MaxProxiedImageBytes {
		return nil, ErrImageTooLarge
	}

	return &storage.Object{Body: body, ContentType: contentType}, nil
}

// ValidateImageURL accepts only https URLs on an allowed CDN host.
func ValidateImageURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme != "https" || u.User != nil {
		return nil, ErrInvalidImageURL
	}

	host := strings.ToLower(u.Hostname())
	for _, allowed := range AllowedImageHosts {
		if host == allowed || strings.HasSuffix(host, "."+allowed) {
			return u, nil
		}
	}
	return nil, ErrInvalidImageURL
}

func cacheKey(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	return hex.EncodeToString(sum[:])
}
