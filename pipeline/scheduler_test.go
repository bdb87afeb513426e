package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbukum/talkback/errors"
)

func TestImmediate_RunsInline(t *testing.T) {
	ran := false
	Immediate.Schedule(func() { ran = true })
	assert.True(t, ran)
}

func TestLoopConfig_Defaults(t *testing.T) {
	var cfg LoopConfig
	cfg.ApplyDefaults()
	assert.Equal(t, "loop", cfg.Name)
	assert.Equal(t, 64, cfg.QueueSize)
	assert.NoError(t, cfg.Validate())

	bad := LoopConfig{Name: "x", QueueSize: -1}
	err := bad.Validate()
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidInput, errors.CodeOf(err))
}

func TestLoop_RunsCallbacksInOrder(t *testing.T) {
	loop := NewLoop(LoopConfig{Name: "order"})
	var (
		mu  sync.Mutex
		got []int
	)
	done := make(chan struct{})
	for i := 0; i < 100; i++ {
		loop.Schedule(func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
		})
	}
	loop.Schedule(func() { close(done) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = loop.Run(ctx) }()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("loop did not drain")
	}
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 100)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestLoop_CallbacksMaySchedule(t *testing.T) {
	loop := NewLoop(LoopConfig{})
	done := make(chan int, 1)

	var step func(n int)
	step = func(n int) {
		if n == 1000 {
			done <- n
			return
		}
		loop.Schedule(func() { step(n + 1) })
	}
	loop.Schedule(func() { step(0) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = loop.Run(ctx) }()

	select {
	case n := <-done:
		assert.Equal(t, 1000, n)
	case <-time.After(time.Second):
		t.Fatal("loop stalled")
	}
}

func TestLoop_RunReturnsOnCloseAndContext(t *testing.T) {
	loop := NewLoop(LoopConfig{Name: "close"})
	errCh := make(chan error, 1)
	go func() { errCh <- loop.Run(context.Background()) }()

	loop.Close()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Close")
	}

	ran := false
	loop.Schedule(func() { ran = true })
	assert.Zero(t, loop.Pending(), "callbacks after Close are dropped")
	assert.False(t, ran)

	other := NewLoop(LoopConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	go func() { errCh <- other.Run(ctx) }()
	cancel()
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestLoop_SecondRunFails(t *testing.T) {
	loop := NewLoop(LoopConfig{Name: "twice"})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	started := make(chan struct{})
	loop.Schedule(func() { close(started) })
	go func() { _ = loop.Run(ctx) }()
	<-started

	err := loop.Run(ctx)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInternal, errors.CodeOf(err))
	assert.Equal(t, "twice", loop.Name())
}
