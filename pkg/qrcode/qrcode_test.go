package qrcode

import (
	"bytes"
	"image/png"
	"testing"
)

func TestURL(t *testing.T) {
	s := NewShareCodes("https://app.usenarra.com/")
	if got := s.URL("abc"); got != "https://app.usenarra.com/shared/abc" {
		t.Fatalf("URL = %q", got)
	}
}

func TestPNGClampsSize(t *testing.T) {
	s := NewShareCodes("https://app.usenarra.com")

	tests := []struct {
		size, want int
	}{
		{0, DefaultSize},
		{10, 64},
		{5000, MaxSize},
	}
	for _, tt := range tests {
		raw, err := s.PNG("abc", tt.size)
		if err != nil {
			t.Fatalf("PNG(%d): %v", tt.size, err)
		}
		img, err := png.Decode(bytes.NewReader(raw))
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if w := img.Bounds().Dx(); w != tt.want {
			t.Fatalf("PNG(%d) width = %d, want %d", tt.size, w, tt.want)
		}
	}
}
