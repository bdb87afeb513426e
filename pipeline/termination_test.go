package pipeline

import (
	"bytes"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kbukum/talkback/resilience"
)

// doubleEnd starts, emits one value, ends, then keeps talking.
func doubleEnd() Source[int] {
	return rogue(
		Start[int]{Talkback: noop},
		Data[int]{Value: 1},
		End[int]{},
		Data[int]{Value: 2},
		End[int]{Err: errBoom},
	)
}

func TestOperators_DropMessagesAfterEnd(t *testing.T) {
	var buf bytes.Buffer
	debug := newTestLogger(&buf, "debug")

	tests := []struct {
		name string
		op   Operator[int, int]
		want []int
	}{
		{"map", Map(func(n int) int { return n * 10 }), []int{10}},
		{"tap", Tap(func(int) {}), []int{1}},
		{"scan", Scan(func(acc, n int) int { return acc + n }, 100), []int{101}},
		{"scan first", ScanFirst(func(acc, n int) int { return acc + n }), []int{1}},
		{"filter", Filter(func(int) bool { return true }), []int{1}},
		{"skip", Skip[int](0), []int{1}},
		{"log", Log[int](debug, "double"), []int{1}},
		{"breaker", Breaker[int](resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig("double"))), []int{1}},
		{"limit", Limit[int](resilience.NewBulkhead(resilience.DefaultBulkheadConfig("double"))), []int{1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRecorder[int](false)
			tt.op(doubleEnd())(r.sink)

			assert.Equal(t, 1, r.starts)
			assert.Equal(t, tt.want, r.values)
			assert.Equal(t, 1, r.ends)
			assert.NoError(t, r.err, "the first End wins")
		})
	}
}

func TestMap_DropsMessagesAfterEndAcrossTypes(t *testing.T) {
	r := newRecorder[string](false)
	Map(strconv.Itoa)(doubleEnd())(r.sink)
	assert.Equal(t, []string{"1"}, r.values)
	assert.Equal(t, 1, r.ends)
}

func TestBreaker_RecordsOnlyFirstEnd(t *testing.T) {
	cfg := resilience.DefaultCircuitBreakerConfig("double")
	cfg.MaxFailures = 1
	cb := resilience.NewCircuitBreaker(cfg)

	r := newRecorder[int](false)
	Breaker[int](cb)(doubleEnd())(r.sink)

	assert.Equal(t, resilience.StateClosed, cb.State(), "the trailing error End must not count as a failure")
	assert.Zero(t, cb.Failures())
}
