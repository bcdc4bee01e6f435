package qrcode

import (
	"fmt"
	"strings"

	"github.com/skip2/go-qrcode"
)

const (
	DefaultSize = 256
	MaxSize     = 1024
)

// ShareCodes renders QR codes pointing at the public page of a shared board.
type ShareCodes struct {
	baseURL string
}

// NewShareCodes takes the dashboard URL; codes point at <frontendURL>/shared/<publicID>.
func NewShareCodes(frontendURL string) *ShareCodes {
	return &ShareCodes{baseURL: strings.TrimRight(frontendURL, "/") + "/shared/"}
}

func (s *ShareCodes) URL(publicID string) string {
	return s.baseURL + publicID
}

// PNG encodes the share URL of publicID. size is clamped to [64, MaxSize].
func (s *ShareCodes) PNG(publicID string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultSize
	}
	if size < 64 {
		size = 64
	}
	if size > MaxSize {
		size = MaxSize
	}

	png, err := qrcode.Encode(s.URL(publicID), qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR code PNG: %w", err)
	}
	return png, nil
}
