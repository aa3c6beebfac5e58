package mentor

import (
	"testing"
	"time"
)

func TestRateLimiterAllowsUpToLimit(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(3, time.Minute)
	for i := 0; i < 3; i++ {
		if !rl.Allow("anon_a") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow("anon_a") {
		t.Error("request over the limit should be denied")
	}
}

func TestRateLimiterKeysAreIndependent(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(1, time.Minute)
	if !rl.Allow("anon_a") {
		t.Fatal("first request for a should pass")
	}
	if !rl.Allow("anon_b") {
		t.Error("a's exhaustion must not affect b")
	}
}

func TestRateLimiterWindowSlides(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(1, 50*time.Millisecond)
	if !rl.Allow("anon_a") {
		t.Fatal("first request should pass")
	}
	if rl.Allow("anon_a") {
		t.Fatal("second request inside the window should be denied")
	}
	time.Sleep(60 * time.Millisecond)
	if !rl.Allow("anon_a") {
		t.Error("request after the window should pass again")
	}
}
