package resilience

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func newTestBreaker(cfg CircuitBreakerConfig) (*CircuitBreaker, *fakeClock) {
	clock := newFakeClock()
	cb := NewCircuitBreaker(cfg)
	cb.now = clock.Now
	return cb, clock
}

func TestCircuitBreaker_StartsInClosedState(t *testing.T) {
	cb := NewCircuitBreaker(DefaultCircuitBreakerConfig("test"))

	if cb.State() != StateClosed {
		t.Errorf("expected StateClosed, got %s", cb.State())
	}
	if err := cb.Acquire(); err != nil {
		t.Errorf("expected channel to be admitted, got %v", err)
	}
	cb.Record(nil)
}

func TestCircuitBreaker_OpensAfterMaxFailures(t *testing.T) {
	cb, _ := newTestBreaker(CircuitBreakerConfig{
		Name:        "test",
		MaxFailures: 3,
		Timeout:     time.Second,
	})

	testErr := errors.New("source failed")
	for i := 0; i < 3; i++ {
		if err := cb.Acquire(); err != nil {
			t.Fatalf("attempt %d refused: %v", i, err)
		}
		cb.Record(testErr)
	}

	if cb.State() != StateOpen {
		t.Errorf("expected StateOpen, got %s", cb.State())
	}
	if err := cb.Acquire(); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen, got %v", err)
	}
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb, _ := newTestBreaker(CircuitBreakerConfig{Name: "test", MaxFailures: 2})

	_ = cb.Acquire()
	cb.Record(errors.New("fail"))
	_ = cb.Acquire()
	cb.Record(nil)
	_ = cb.Acquire()
	cb.Record(errors.New("fail"))

	if cb.State() != StateClosed {
		t.Errorf("expected StateClosed, got %s", cb.State())
	}
	if cb.Failures() != 1 {
		t.Errorf("expected 1 failure, got %d", cb.Failures())
	}
}

func TestCircuitBreaker_HalfOpenAfterTimeout(t *testing.T) {
	cb, clock := newTestBreaker(CircuitBreakerConfig{
		Name:        "test",
		MaxFailures: 1,
		Timeout:     50 * time.Millisecond,
	})

	_ = cb.Acquire()
	cb.Record(errors.New("fail"))
	if cb.State() != StateOpen {
		t.Fatalf("expected StateOpen, got %s", cb.State())
	}

	clock.Advance(60 * time.Millisecond)
	if cb.State() != StateHalfOpen {
		t.Errorf("expected StateHalfOpen, got %s", cb.State())
	}
}

func TestCircuitBreaker_HalfOpenLimitsTrialChannels(t *testing.T) {
	cb, clock := newTestBreaker(CircuitBreakerConfig{
		Name:             "test",
		MaxFailures:      1,
		Timeout:          10 * time.Millisecond,
		HalfOpenMaxCalls: 1,
	})

	_ = cb.Acquire()
	cb.Record(errors.New("fail"))
	clock.Advance(20 * time.Millisecond)

	if err := cb.Acquire(); err != nil {
		t.Fatalf("trial channel refused: %v", err)
	}
	if err := cb.Acquire(); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("second trial should be refused, got %v", err)
	}

	cb.Record(nil)
	if cb.State() != StateClosed {
		t.Errorf("expected StateClosed after trial success, got %s", cb.State())
	}
}

func TestCircuitBreaker_ReopensOnFailureInHalfOpen(t *testing.T) {
	cb, clock := newTestBreaker(CircuitBreakerConfig{
		Name:        "test",
		MaxFailures: 1,
		Timeout:     10 * time.Millisecond,
	})

	_ = cb.Acquire()
	cb.Record(errors.New("fail"))
	clock.Advance(20 * time.Millisecond)

	_ = cb.Acquire()
	cb.Record(errors.New("still failing"))

	if cb.State() != StateOpen {
		t.Errorf("expected StateOpen, got %s", cb.State())
	}
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb, _ := newTestBreaker(CircuitBreakerConfig{Name: "test", MaxFailures: 1, Timeout: time.Hour})

	_ = cb.Acquire()
	cb.Record(errors.New("fail"))
	cb.Reset()

	if cb.State() != StateClosed {
		t.Errorf("expected StateClosed after reset, got %s", cb.State())
	}
	if cb.Failures() != 0 {
		t.Errorf("expected 0 failures after reset, got %d", cb.Failures())
	}
}

func TestCircuitBreaker_StateChangeCallback(t *testing.T) {
	var changes []struct{ from, to State }

	cb, clock := newTestBreaker(CircuitBreakerConfig{
		Name:        "test",
		MaxFailures: 1,
		Timeout:     10 * time.Millisecond,
		OnStateChange: func(name string, from, to State) {
			changes = append(changes, struct{ from, to State }{from, to})
		},
	})

	_ = cb.Acquire()
	cb.Record(errors.New("fail"))
	clock.Advance(15 * time.Millisecond)
	_ = cb.State()

	if len(changes) != 2 {
		t.Fatalf("expected 2 state changes, got %d", len(changes))
	}
	if changes[0].from != StateClosed || changes[0].to != StateOpen {
		t.Errorf("expected Closed->Open, got %s->%s", changes[0].from, changes[0].to)
	}
	if changes[1].from != StateOpen || changes[1].to != StateHalfOpen {
		t.Errorf("expected Open->HalfOpen, got %s->%s", changes[1].from, changes[1].to)
	}
}

func TestCircuitBreaker_ConcurrentAccess(t *testing.T) {
	cb := NewCircuitBreaker(DefaultCircuitBreakerConfig("test"))

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if cb.Acquire() == nil {
				cb.Record(nil)
			}
			_ = cb.State()
			_ = cb.Failures()
		}()
	}
	wg.Wait()

	if cb.State() != StateClosed {
		t.Errorf("expected StateClosed, got %s", cb.State())
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateClosed, "closed"},
		{StateOpen, "open"},
		{StateHalfOpen, "half-open"},
		{State(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %s, want %s", tt.state, got, tt.want)
		}
	}
}
