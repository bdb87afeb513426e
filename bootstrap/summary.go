package bootstrap

import (
	"fmt"
	"io"
	"time"

	"github.com/kbukum/talkback/observability"
)

// SummaryItem is one line of the startup summary.
type SummaryItem struct {
	Name    string
	Status  string // "enabled", "disabled", "strict", ...
	Details string
}

// Summary collects what the runtime set up and prints it once started.
type Summary struct {
	serviceName     string
	version         string
	environment     string
	startupDuration time.Duration
	items           []SummaryItem
}

// NewSummary creates a new startup summary.
func NewSummary(serviceName, version, environment string) *Summary {
	return &Summary{
		serviceName: serviceName,
		version:     version,
		environment: environment,
		items:       make([]SummaryItem, 0),
	}
}

// SetStartupDuration records the total startup time.
func (s *Summary) SetStartupDuration(d time.Duration) {
	s.startupDuration = d
}

// Track adds a line to the summary.
func (s *Summary) Track(name, status, details string) {
	s.items = append(s.items, SummaryItem{Name: name, Status: status, Details: details})
}

// Items returns the tracked lines in order.
func (s *Summary) Items() []SummaryItem {
	return s.items
}

// Render writes the summary and, when given, the health report to w.
func (s *Summary) Render(w io.Writer, health *observability.ServiceHealth) {
	fmt.Fprintf(w, "\n🚀 %s v%s (%s) started in %.2fs\n\n",
		s.serviceName, s.version, s.environment, s.startupDuration.Seconds())

	if len(s.items) > 0 {
		fmt.Fprintf(w, "⚙️  Runtime\n")
		for i, item := range s.items {
			details := ""
			if item.Details != "" {
				details = ": " + item.Details
			}
			fmt.Fprintf(w, "   %s %s %s (%s)%s\n", branch(i, len(s.items)), statusIcon(item.Status), item.Name, item.Status, details)
		}
	}

	if health != nil && len(health.Components) > 0 {
		fmt.Fprintf(w, "\n🏥 Health (%s)\n", health.Status)
		for i, h := range health.Components {
			msg := ""
			if h.Message != "" {
				msg = " — " + h.Message
			}
			fmt.Fprintf(w, "   %s %s %s: %s%s\n", branch(i, len(health.Components)), healthIcon(h.Status), h.Name, h.Status, msg)
		}
	}

	fmt.Fprintf(w, "\n")
}

func branch(i, n int) string {
	if i == n-1 {
		return "└──"
	}
	return "├──"
}

func statusIcon(status string) string {
	switch status {
	case "enabled", "running", "lenient", "release":
		return "✅"
	case "strict":
		return "🛡️"
	case "development":
		return "🧪"
	case "disabled":
		return "⏸️"
	default:
		return "⚠️"
	}
}

func healthIcon(status observability.HealthStatus) string {
	switch status {
	case observability.HealthStatusUp:
		return "✅"
	case observability.HealthStatusDegraded:
		return "⚠️"
	case observability.HealthStatusDown:
		return "❌"
	default:
		return "❓"
	}
}
