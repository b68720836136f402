package auth

import (
	"testing"
	"time"
)

func TestLoginLimiter_LocksAfterMaxAttempts(t *testing.T) {
	limiter := NewLoginLimiter(3, time.Minute, time.Minute)

	if limiter.IsLocked("alice") {
		t.Error("fresh username should not be locked")
	}

	limiter.RecordFailure("alice")
	limiter.RecordFailure("alice")
	if limiter.IsLocked("alice") {
		t.Error("locked before reaching the threshold")
	}

	limiter.RecordFailure("alice")
	if !limiter.IsLocked("alice") {
		t.Error("not locked after reaching the threshold")
	}

	// Other usernames are unaffected
	if limiter.IsLocked("bob") {
		t.Error("unrelated username locked")
	}
}

func TestLoginLimiter_Reset(t *testing.T) {
	limiter := NewLoginLimiter(2, time.Minute, time.Minute)

	limiter.RecordFailure("alice")
	limiter.RecordFailure("alice")
	if !limiter.IsLocked("alice") {
		t.Fatal("expected lockout")
	}

	limiter.Reset("alice")
	if limiter.IsLocked("alice") {
		t.Error("still locked after reset")
	}
}

func TestLoginLimiter_WindowExpiry(t *testing.T) {
	limiter := NewLoginLimiter(2, 10*time.Millisecond, time.Minute)

	limiter.RecordFailure("alice")
	time.Sleep(20 * time.Millisecond)

	// The window expired, so this failure starts a fresh count
	limiter.RecordFailure("alice")
	if limiter.IsLocked("alice") {
		t.Error("locked although the attempt window had expired")
	}
}
