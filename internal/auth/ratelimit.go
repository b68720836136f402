package auth

import (
	"sync"
	"time"
)

// Login rate limiting defaults
const (
	DefaultMaxAttempts   = 5
	DefaultAttemptWindow = 15 * time.Minute
	DefaultLockout       = 30 * time.Minute
)

type attemptRecord struct {
	count       int
	windowStart time.Time
	lockedUntil time.Time
}

// LoginLimiter tracks failed login attempts per username and locks accounts
// out after too many failures within the window. State is in-memory only;
// a restart clears it, which is acceptable for a brute-force brake.
type LoginLimiter struct {
	mu          sync.Mutex
	attempts    map[string]*attemptRecord
	maxAttempts int
	window      time.Duration
	lockout     time.Duration
}

// NewLoginLimiter creates a login limiter.
func NewLoginLimiter(maxAttempts int, window, lockout time.Duration) *LoginLimiter {
	return &LoginLimiter{
		attempts:    make(map[string]*attemptRecord),
		maxAttempts: maxAttempts,
		window:      window,
		lockout:     lockout,
	}
}

// IsLocked reports whether the username is currently locked out.
func (l *LoginLimiter) IsLocked(username string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.attempts[username]
	if !ok {
		return false
	}
	if rec.lockedUntil.After(time.Now()) {
		return true
	}
	return false
}

// RecordFailure counts a failed attempt and locks the account when the
// threshold is crossed.
func (l *LoginLimiter) RecordFailure(username string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	rec, ok := l.attempts[username]
	if !ok || now.Sub(rec.windowStart) > l.window {
		l.attempts[username] = &attemptRecord{count: 1, windowStart: now}
		return
	}

	rec.count++
	if rec.count >= l.maxAttempts {
		rec.lockedUntil = now.Add(l.lockout)
	}
}

// Reset clears the attempt history after a successful login.
func (l *LoginLimiter) Reset(username string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.attempts, username)
}
