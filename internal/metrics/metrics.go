// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Account metrics
	IncUserRegistered()
	IncLogin(status string) // status: "success" or "failed"
	IncRateLimited()

	// Note management metrics
	IncNoteCreated()
	IncNoteUpdated()
	IncNoteDeleted()

	// Summary metrics
	IncSummary(source string) // source: "cached", "generated" or "failed"
	ObserveSummaryDuration(duration time.Duration)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
