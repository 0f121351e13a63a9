package monitor

import (
	"time"

	"github.com/cellwatch/cellwatch/pkg/types"
)

// Statistics derives a read-only summary from the history buffer and the
// registry at call time.
func (e *Engine) Statistics() types.Statistics {
	now := e.clock.Now()

	stats := types.Statistics{
		TotalEvents:         e.history.Len(),
		EventsByType:        e.history.CountByType(),
		EventsInLastHour:    e.history.CountSince(now.Add(-time.Hour)),
		ActiveSubscriptions: e.registry.Len(),
	}

	if oldest, ok := e.history.Oldest(); ok {
		minutes := now.Sub(oldest.Timestamp).Minutes()
		// Spans under a minute count as one so short runs don't report
		// inflated rates.
		if minutes < 1 {
			minutes = 1
		}
		stats.AverageEventsPerMinute = float64(stats.TotalEvents) / minutes
	}

	return stats
}
