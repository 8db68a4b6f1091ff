// internal/app/system/ratelimit/ratelimit_test.go
package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestAllowWithinLimit(t *testing.T) {
	l := New(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !l.Allow("key") {
			t.Fatalf("attempt %d: denied, want allowed", i+1)
		}
	}
	if l.Allow("key") {
		t.Error("attempt over limit was allowed")
	}
	if !l.Allow("other") {
		t.Error("unrelated key was throttled")
	}
}

func TestWindowExpiry(t *testing.T) {
	l := New(1, 20*time.Millisecond)

	if !l.Allow("key") {
		t.Fatal("first attempt denied")
	}
	if l.Allow("key") {
		t.Fatal("second attempt inside window allowed")
	}
	time.Sleep(30 * time.Millisecond)
	if !l.Allow("key") {
		t.Error("attempt after window expiry denied")
	}
}

func TestReset(t *testing.T) {
	l := New(1, time.Minute)

	l.Allow("key")
	if l.Allow("key") {
		t.Fatal("over-limit attempt allowed")
	}
	l.Reset("key")
	if !l.Allow("key") {
		t.Error("attempt after reset denied")
	}
}

func TestClientIP(t *testing.T) {
	cases := []struct {
		name       string
		remoteAddr string
		xff        string
		realIP     string
		want       string
	}{
		{name: "remote addr with port", remoteAddr: "10.1.2.3:4567", want: "10.1.2.3"},
		{name: "remote addr without port", remoteAddr: "10.1.2.3", want: "10.1.2.3"},
		{name: "forwarded for wins", remoteAddr: "10.0.0.1:80", xff: "203.0.113.9, 10.0.0.1", want: "203.0.113.9"},
		{name: "real ip fallback", remoteAddr: "10.0.0.1:80", realIP: "203.0.113.7", want: "203.0.113.7"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tc.remoteAddr
			if tc.xff != "" {
				r.Header.Set("X-Forwarded-For", tc.xff)
			}
			if tc.realIP != "" {
				r.Header.Set("X-Real-IP", tc.realIP)
			}
			if got := ClientIP(r); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestSignInLimiterAccountKeyIsCaseInsensitive(t *testing.T) {
	sl := &SignInLimiter{
		ip:      New(100, time.Minute),
		account: New(2, time.Minute),
	}

	r := httptest.NewRequest("POST", "/sessions", nil)
	if !sl.Check(r, "Alice") {
		t.Fatal("first attempt denied")
	}
	if !sl.Check(r, "ALICE ") {
		t.Fatal("second attempt denied")
	}
	if sl.Check(r, "alice") {
		t.Error("third attempt for same account allowed")
	}

	sl.ResetAccount("alice")
	if !sl.Check(r, "Alice") {
		t.Error("attempt after account reset denied")
	}
}
