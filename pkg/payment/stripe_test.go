package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"
)

func sign(payload []byte, secret string, ts time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(fmt.Sprintf("%d.%s", ts.Unix(), payload)))
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func TestConstructEvent(t *testing.T) {
	s := NewStripeService("sk_test", "whsec_test", "http://localhost:3000")
	payload := []byte(`{"id":"evt_1","object":"event","type":"invoice.payment_failed","api_version":"2020-08-27","data":{"object":{}}}`)

	event, err := s.ConstructEvent(payload, sign(payload, "whsec_test", time.Now()))
	if err != nil {
		t.Fatalf("ConstructEvent: %v", err)
	}
	if string(event.Type) != "invoice.payment_failed" {
		t.Fatalf("event.Type = %q", event.Type)
	}
}

func TestConstructEventRejectsBadSignature(t *testing.T) {
	s := NewStripeService("sk_test", "whsec_test", "http://localhost:3000")
	payload := []byte(`{"id":"evt_1","object":"event","type":"invoice.payment_failed","data":{"object":{}}}`)

	if _, err := s.ConstructEvent(payload, sign(payload, "whsec_other", time.Now())); err == nil {
		t.Fatal("expected signature error")
	}
	if _, err := s.ConstructEvent(payload, ""); err == nil {
		t.Fatal("expected error for missing signature")
	}
}
