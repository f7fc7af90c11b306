package service_test

import (
	"testing"
	"time"

	"github.com/msomdec/squadhub/internal/service"
)

func TestRateLimiter_AllowsUpToBurst(t *testing.T) {
	rl := service.NewRateLimiter(1, 3, time.Minute)

	for i := 0; i < 3; i++ {
		if !rl.Allow("10.0.0.1") {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}
	if rl.Allow("10.0.0.1") {
		t.Fatal("4th attempt should be denied")
	}
}

func TestRateLimiter_KeysAreIndependent(t *testing.T) {
	rl := service.NewRateLimiter(1, 1, time.Minute)

	if !rl.Allow("ip-a") {
		t.Fatal("ip-a first attempt should be allowed")
	}
	if rl.Allow("ip-a") {
		t.Fatal("ip-a second attempt should be denied")
	}
	if !rl.Allow("ip-b") {
		t.Fatal("ip-b has its own bucket")
	}
}

func TestRateLimiter_Refills(t *testing.T) {
	rl := service.NewRateLimiter(100, 1, time.Minute)

	if !rl.Allow("k") {
		t.Fatal("first attempt should be allowed")
	}
	time.Sleep(50 * time.Millisecond)
	if !rl.Allow("k") {
		t.Fatal("bucket should have refilled")
	}
}
