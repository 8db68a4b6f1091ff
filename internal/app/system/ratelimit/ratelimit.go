// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Limiter counts requests per key over a sliding window.
// It is safe for concurrent use.
type Limiter struct {
	mu       sync.Mutex
	windows  map[string]*window
	limit    int
	duration time.Duration
}

type window struct {
	count     int
	expiresAt time.Time
}

// New creates a limiter allowing limit requests per duration for each key.
func New(limit int, duration time.Duration) *Limiter {
	l := &Limiter{
		windows:  make(map[string]*window),
		limit:    limit,
		duration: duration,
	}
	go l.cleanupLoop()
	return l
}

// Allow records a request for key and reports whether it is within the limit.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	w, ok := l.windows[key]
	if !ok || now.After(w.expiresAt) {
		l.windows[key] = &window{count: 1, expiresAt: now.Add(l.duration)}
		return true
	}
	if w.count >= l.limit {
		return false
	}
	w.count++
	return true
}

// Reset clears the current window for key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
}

func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(l.duration * 2)
	defer ticker.Stop()

	for range ticker.C {
		l.mu.Lock()
		now := time.Now()
		for key, w := range l.windows {
			if now.After(w.expiresAt) {
				delete(l.windows, key)
			}
		}
		l.mu.Unlock()
	}
}

// ClientIP extracts the client IP from a request, honoring
// X-Forwarded-For and X-Real-IP before falling back to RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first := strings.TrimSpace(strings.SplitN(xff, ",", 2)[0])
		if first != "" {
			return first
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// SignInLimiter throttles sign-in attempts per client IP and per
// account name, so neither a single host nor a single targeted
// account can absorb unlimited guesses.
type SignInLimiter struct {
	ip      *Limiter
	account *Limiter
}

// NewSignInLimiter creates a limiter with the default sign-in budget:
// 10 attempts per IP per minute, 5 attempts per account per 5 minutes.
func NewSignInLimiter() *SignInLimiter {
	return &SignInLimiter{
		ip:      New(10, time.Minute),
		account: New(5, 5*time.Minute),
	}
}

// Check records an attempt and reports whether it is allowed.
func (sl *SignInLimiter) Check(r *http.Request, username string) bool {
	if !sl.ip.Allow(ClientIP(r)) {
		return false
	}
	if username != "" {
		if !sl.account.Allow(strings.ToLower(strings.TrimSpace(username))) {
			return false
		}
	}
	return true
}

// ResetAccount clears the account window after a successful sign-in.
func (sl *SignInLimiter) ResetAccount(username string) {
	if username != "" {
		sl.account.Reset(strings.ToLower(strings.TrimSpace(username)))
	}
}
