package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	UsersRegistered        uint64
	LoginsSucceeded        uint64
	LoginsFailed           uint64
	RateLimited            uint64
	NotesCreated           uint64
	NotesUpdated           uint64
	NotesDeleted           uint64
	SummariesCached        uint64
	SummariesGenerated     uint64
	SummariesFailed        uint64
	SummaryDurationCount   uint64
	SummaryDurationTotalNs int64
}

// InMemoryRecorder stores metrics in memory.
type InMemoryRecorder struct {
	usersRegistered        uint64
	loginsSucceeded        uint64
	loginsFailed           uint64
	rateLimited            uint64
	notesCreated           uint64
	notesUpdated           uint64
	notesDeleted           uint64
	summariesCached        uint64
	summariesGenerated     uint64
	summariesFailed        uint64
	summaryDurationCount   uint64
	summaryDurationTotalNs int64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		UsersRegistered:        atomic.LoadUint64(&m.usersRegistered),
		LoginsSucceeded:        atomic.LoadUint64(&m.loginsSucceeded),
		LoginsFailed:           atomic.LoadUint64(&m.loginsFailed),
		RateLimited:            atomic.LoadUint64(&m.rateLimited),
		NotesCreated:           atomic.LoadUint64(&m.notesCreated),
		NotesUpdated:           atomic.LoadUint64(&m.notesUpdated),
		NotesDeleted:           atomic.LoadUint64(&m.notesDeleted),
		SummariesCached:        atomic.LoadUint64(&m.summariesCached),
		SummariesGenerated:     atomic.LoadUint64(&m.summariesGenerated),
		SummariesFailed:        atomic.LoadUint64(&m.summariesFailed),
		SummaryDurationCount:   atomic.LoadUint64(&m.summaryDurationCount),
		SummaryDurationTotalNs: atomic.LoadInt64(&m.summaryDurationTotalNs),
	}
}

// IncUserRegistered increments the registration counter.
func (m *InMemoryRecorder) IncUserRegistered() {
	atomic.AddUint64(&m.usersRegistered, 1)
}

// IncLogin increments the login counter for status.
func (m *InMemoryRecorder) IncLogin(status string) {
	switch status {
	case "success":
		atomic.AddUint64(&m.loginsSucceeded, 1)
	case "failed":
		atomic.AddUint64(&m.loginsFailed, 1)
	}
}

// IncRateLimited increments the rejected-by-rate-limit counter.
func (m *InMemoryRecorder) IncRateLimited() {
	atomic.AddUint64(&m.rateLimited, 1)
}

// IncNoteCreated increments note created counter.
func (m *InMemoryRecorder) IncNoteCreated() {
	atomic.AddUint64(&m.notesCreated, 1)
}

// IncNoteUpdated increments note updated counter.
func (m *InMemoryRecorder) IncNoteUpdated() {
	atomic.AddUint64(&m.notesUpdated, 1)
}

// IncNoteDeleted increments note deleted counter.
func (m *InMemoryRecorder) IncNoteDeleted() {
	atomic.AddUint64(&m.notesDeleted, 1)
}

// IncSummary increments the summary counter for source.
func (m *InMemoryRecorder) IncSummary(source string) {
	switch source {
	case "cached":
		atomic.AddUint64(&m.summariesCached, 1)
	case "generated":
		atomic.AddUint64(&m.summariesGenerated, 1)
	case "failed":
		atomic.AddUint64(&m.summariesFailed, 1)
	}
}

// ObserveSummaryDuration records the latency of one upstream summary call.
func (m *InMemoryRecorder) ObserveSummaryDuration(duration time.Duration) {
	atomic.AddUint64(&m.summaryDurationCount, 1)
	atomic.AddInt64(&m.summaryDurationTotalNs, duration.Nanoseconds())
}
