package resilience

import (
	"errors"
	"sync/atomic"
)

// ErrBulkheadFull is returned by TryAcquire when every slot is taken.
var ErrBulkheadFull = errors.New("bulkhead is full")

// BulkheadConfig configures a bulkhead.
type BulkheadConfig struct {
	// Name identifies this bulkhead in logs.
	Name string `yaml:"name" mapstructure:"name"`
	// MaxConcurrent is the maximum number of live channels.
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent" validate:"gte=0"`
	// OnReject is called when a channel is refused.
	OnReject func(name string) `yaml:"-" mapstructure:"-"`
}

// DefaultBulkheadConfig returns a bulkhead with ten slots.
func DefaultBulkheadConfig(name string) BulkheadConfig {
	return BulkheadConfig{
		Name:          name,
		MaxConcurrent: 10,
	}
}

// Bulkhead caps the number of channels that may be live at once.
// Acquisition never waits: a producer cannot block inside a handshake.
type Bulkhead struct {
	config BulkheadConfig
	sem    chan struct{}
	reject atomic.Int64
}

// NewBulkhead creates a new bulkhead.
func NewBulkhead(config BulkheadConfig) *Bulkhead {
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 10
	}

	return &Bulkhead{
		config: config,
		sem:    make(chan struct{}, config.MaxConcurrent),
	}
}

// TryAcquire takes a slot or returns ErrBulkheadFull.
func (b *Bulkhead) TryAcquire() error {
	select {
	case b.sem <- struct{}{}:
		return nil
	default:
	}

	b.reject.Add(1)
	if b.config.OnReject != nil {
		b.config.OnReject(b.config.Name)
	}
	return ErrBulkheadFull
}

// Release returns a slot taken by TryAcquire.
func (b *Bulkhead) Release() {
	<-b.sem
}

// Name returns the configured name.
func (b *Bulkhead) Name() string { return b.config.Name }

// Available returns the number of free slots.
func (b *Bulkhead) Available() int {
	return b.config.MaxConcurrent - len(b.sem)
}

// InUse returns the number of slots currently taken.
func (b *Bulkhead) InUse() int {
	return len(b.sem)
}

// Rejected returns how many acquisitions have been refused.
func (b *Bulkhead) Rejected() int64 {
	return b.reject.Load()
}

// MaxConcurrent returns the slot count.
func (b *Bulkhead) MaxConcurrent() int {
	return b.config.MaxConcurrent
}
