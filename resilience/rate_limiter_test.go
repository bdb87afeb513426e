package resilience

import (
	"testing"
	"time"
)

func newTestLimiter(cfg RateLimiterConfig) (*RateLimiter, *fakeClock) {
	clock := newFakeClock()
	rl := NewRateLimiter(cfg)
	rl.now = clock.Now
	rl.lastRefill = clock.Now()
	return rl, clock
}

func TestRateLimiter_AllowsBurst(t *testing.T) {
	rl, _ := newTestLimiter(RateLimiterConfig{Name: "test", Rate: 10, Burst: 5})

	for i := 0; i < 5; i++ {
		if !rl.Allow() {
			t.Errorf("take %d should be allowed", i)
		}
	}
	if rl.Allow() {
		t.Error("take over burst should be refused")
	}
}

func TestRateLimiter_RefillsOverTime(t *testing.T) {
	rl, clock := newTestLimiter(RateLimiterConfig{Name: "test", Rate: 100, Burst: 1})

	if !rl.Allow() {
		t.Fatal("first take should be allowed")
	}
	if rl.Allow() {
		t.Fatal("second take should be refused")
	}

	clock.Advance(10 * time.Millisecond)
	if !rl.Allow() {
		t.Error("take after refill should be allowed")
	}
}

func TestRateLimiter_Delay(t *testing.T) {
	rl, clock := newTestLimiter(RateLimiterConfig{Name: "test", Rate: 100, Burst: 1})

	if d := rl.Delay(); d != 0 {
		t.Errorf("expected no delay with a full bucket, got %v", d)
	}
	rl.Allow()

	if d := rl.Delay(); d < 9*time.Millisecond || d > 10*time.Millisecond {
		t.Errorf("expected 10ms delay, got %v", d)
	}
	clock.Advance(4 * time.Millisecond)
	if d := rl.Delay(); d < 5*time.Millisecond || d > 7*time.Millisecond {
		t.Errorf("expected about 6ms delay, got %v", d)
	}
	if rl.Tokens() >= 1 {
		t.Error("Delay must not consume or add tokens beyond refill")
	}
}

func TestRateLimiter_OnLimitCallback(t *testing.T) {
	var limited []string
	rl, _ := newTestLimiter(RateLimiterConfig{
		Name:    "events",
		Rate:    10,
		Burst:   1,
		OnLimit: func(name string) { limited = append(limited, name) },
	})

	rl.Allow()
	rl.Allow()
	rl.Allow()

	if len(limited) != 2 || limited[0] != "events" {
		t.Errorf("OnLimit calls = %v", limited)
	}
}

func TestRateLimiter_AllowN(t *testing.T) {
	rl, _ := newTestLimiter(RateLimiterConfig{Name: "test", Rate: 10, Burst: 5})

	if !rl.AllowN(5) {
		t.Error("should allow the full burst at once")
	}
	if rl.Allow() {
		t.Error("should refuse after the burst is spent")
	}
}

func TestRateLimiter_Defaults(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Name: "unset"})
	if rl.Rate() != 10 || rl.Burst() != 10 {
		t.Errorf("expected 10/s with burst 10, got %f/%d", rl.Rate(), rl.Burst())
	}

	rl = NewRateLimiter(RateLimiterConfig{Name: "half", Rate: 0.5, Burst: 0})
	if rl.Burst() != 1 {
		t.Errorf("expected burst floor of 1, got %d", rl.Burst())
	}
	if rl.Name() != "half" {
		t.Errorf("Name() = %q", rl.Name())
	}
}
