package bootstrap

import (
	"context"
	"strconv"

	"github.com/kbukum/talkback/observability"
	"github.com/kbukum/talkback/pipeline"
)

// loopChecker reports the scheduler loop: down unless running, degraded
// while the backlog exceeds the configured queue size.
type loopChecker struct {
	loop      *pipeline.Loop
	queueSize int
}

func (c loopChecker) CheckHealth(context.Context) observability.Health {
	pending := c.loop.Pending()
	h := observability.Health{
		Name:   "loop:" + c.loop.Name(),
		Status: observability.HealthStatusUp,
		Details: map[string]string{
			"pending":    strconv.Itoa(pending),
			"queue_size": strconv.Itoa(c.queueSize),
		},
	}
	switch {
	case c.loop.Closed():
		h.Status = observability.HealthStatusDown
		h.Message = "closed"
	case !c.loop.Running():
		h.Status = observability.HealthStatusDown
		h.Message = "not running"
	case pending > c.queueSize:
		h.Status = observability.HealthStatusDegraded
		h.Message = "backlog above queue size"
	}
	return h
}
