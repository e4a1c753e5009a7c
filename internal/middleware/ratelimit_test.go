package middleware

import (
	"testing"
	"time"
)

func TestRateLimiterAllowsUpToRate(t *testing.T) {
	rl := NewRateLimiter(3, time.Hour)

	for i := 0; i < 3; i++ {
		if !rl.Allow("10.0.0.1") {
			t.Fatalf("request %d denied within budget", i+1)
		}
	}
	if rl.Allow("10.0.0.1") {
		t.Fatal("request over budget allowed")
	}
}

func TestRateLimiterKeysAreIndependent(t *testing.T) {
	rl := NewRateLimiter(1, time.Hour)

	if !rl.Allow("10.0.0.1") {
		t.Fatal("first key denied")
	}
	if rl.Allow("10.0.0.1") {
		t.Fatal("first key not exhausted")
	}
	if !rl.Allow("10.0.0.2") {
		t.Fatal("second key affected by first key's usage")
	}
}

func TestRateLimiterRefillsAfterInterval(t *testing.T) {
	rl := NewRateLimiter(2, 20*time.Millisecond)

	if !rl.Allow("10.0.0.1") || !rl.Allow("10.0.0.1") {
		t.Fatal("initial budget denied")
	}
	if rl.Allow("10.0.0.1") {
		t.Fatal("exhausted bucket allowed")
	}

	time.Sleep(25 * time.Millisecond)
	if !rl.Allow("10.0.0.1") {
		t.Fatal("bucket did not refill after interval")
	}
}
