package api

import (
	"testing"
	"time"
)

func TestRateLimiter_AllowsUpToBurstThenRejects(t *testing.T) {
	rl := NewRateLimiter(60, 3)
	now := time.Now()

	for i := 0; i < 3; i++ {
		allowed, _ := rl.allowAt("1.2.3.4", now)
		if !allowed {
			t.Fatalf("request %d should be allowed within burst capacity", i)
		}
	}

	allowed, retryAfter := rl.allowAt("1.2.3.4", now)
	if allowed {
		t.Fatal("expected the 4th request to exceed burst capacity")
	}
	if retryAfter <= 0 {
		t.Error("expected a positive Retry-After duration")
	}
}

func TestRateLimiter_SeparateIPsHaveIndependentBuckets(t *testing.T) {
	rl := NewRateLimiter(60, 1)
	now := time.Now()

	if allowed, _ := rl.allowAt("1.1.1.1", now); !allowed {
		t.Fatal("first request from 1.1.1.1 should be allowed")
	}
	if allowed, _ := rl.allowAt("2.2.2.2", now); !allowed {
		t.Fatal("first request from 2.2.2.2 should be allowed regardless of 1.1.1.1's state")
	}
}

func TestRateLimiter_TokensRefillOverTime(t *testing.T) {
	rl := NewRateLimiter(60, 1)
	now := time.Now()

	if allowed, _ := rl.allowAt("3.3.3.3", now); !allowed {
		t.Fatal("first request should be allowed")
	}
	if allowed, _ := rl.allowAt("3.3.3.3", now); allowed {
		t.Fatal("second immediate request should be rejected with burst=1")
	}

	// Advance a synthetic clock instead of sleeping: at 1 req/sec a
	// full token should be available 2 seconds later.
	later := now.Add(2 * time.Second)
	if allowed, _ := rl.allowAt("3.3.3.3", later); !allowed {
		t.Fatal("expected a token to have refilled 2 seconds later at 1 req/sec")
	}
}

func TestRateLimiter_RecordsLastSeenPerIP(t *testing.T) {
	rl := NewRateLimiter(60, 1)
	now := time.Now()
	rl.allowAt("4.4.4.4", now)

	rl.mu.Lock()
	entry, ok := rl.ips["4.4.4.4"]
	rl.mu.Unlock()
	if !ok {
		t.Fatal("expected a limiter entry for 4.4.4.4")
	}
	if entry.lastSeen != now {
		t.Errorf("lastSeen = %v, want %v", entry.lastSeen, now)
	}
}
