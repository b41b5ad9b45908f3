package events

import (
	"time"

	"allat.local/internal/app/summary"
	"allat.local/internal/platform/metrics"
)

// Observer returns a controller observer that counts the outcome and hands
// an event to collector. collector may be nil.
func Observer(sessionID string, collector Collector) func(summary.Transition) {
	return func(t summary.Transition) {
		metrics.ObserveSubmission(Outcome(t))
		if collector != nil {
			collector.Collect(FromTransition(sessionID, t, time.Now()))
		}
	}
}
