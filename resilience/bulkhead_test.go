package resilience

import (
	"errors"
	"sync"
	"testing"
)

func TestBulkhead_AcquiresWithinLimit(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{Name: "test", MaxConcurrent: 2})

	if err := b.TryAcquire(); err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	if err := b.TryAcquire(); err != nil {
		t.Fatalf("second acquire: %v", err)
	}
	if b.InUse() != 2 || b.Available() != 0 {
		t.Errorf("InUse=%d Available=%d", b.InUse(), b.Available())
	}
}

func TestBulkhead_RejectsWhenFull(t *testing.T) {
	var rejected []string
	b := NewBulkhead(BulkheadConfig{
		Name:          "full",
		MaxConcurrent: 1,
		OnReject:      func(name string) { rejected = append(rejected, name) },
	})

	_ = b.TryAcquire()
	if err := b.TryAcquire(); !errors.Is(err, ErrBulkheadFull) {
		t.Errorf("expected ErrBulkheadFull, got %v", err)
	}
	if b.Rejected() != 1 {
		t.Errorf("expected 1 rejection, got %d", b.Rejected())
	}
	if len(rejected) != 1 || rejected[0] != "full" {
		t.Errorf("OnReject calls = %v", rejected)
	}
}

func TestBulkhead_ReleaseFreesSlot(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{Name: "test", MaxConcurrent: 1})

	_ = b.TryAcquire()
	b.Release()

	if err := b.TryAcquire(); err != nil {
		t.Errorf("expected slot after release, got %v", err)
	}
}

func TestBulkhead_Defaults(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{})
	if b.MaxConcurrent() != 10 {
		t.Errorf("expected default of 10, got %d", b.MaxConcurrent())
	}
	if DefaultBulkheadConfig("x").MaxConcurrent != 10 {
		t.Error("unexpected default config")
	}
}

func TestBulkhead_ConcurrentAcquire(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{Name: "test", MaxConcurrent: 5})

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		admitted int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if b.TryAcquire() == nil {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if admitted != 5 {
		t.Errorf("expected 5 admitted, got %d", admitted)
	}
	if b.Rejected() != 45 {
		t.Errorf("expected 45 rejected, got %d", b.Rejected())
	}
}
