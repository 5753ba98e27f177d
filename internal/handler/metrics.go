package handler

import (
	"fmt"
	"net/http"

	"github.com/jotter/jotter/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "jotter_users_registered_total %d\n", snap.UsersRegistered)
	writeMetric(w, "jotter_logins_total{status=\"success\"} %d\n", snap.LoginsSucceeded)
	writeMetric(w, "jotter_logins_total{status=\"failed\"} %d\n", snap.LoginsFailed)
	writeMetric(w, "jotter_rate_limited_total %d\n", snap.RateLimited)

	writeMetric(w, "jotter_notes_created_total %d\n", snap.NotesCreated)
	writeMetric(w, "jotter_notes_updated_total %d\n", snap.NotesUpdated)
	writeMetric(w, "jotter_notes_deleted_total %d\n", snap.NotesDeleted)

	writeMetric(w, "jotter_summaries_total{source=\"cached\"} %d\n", snap.SummariesCached)
	writeMetric(w, "jotter_summaries_total{source=\"generated\"} %d\n", snap.SummariesGenerated)
	writeMetric(w, "jotter_summaries_total{source=\"failed\"} %d\n", snap.SummariesFailed)
	writeMetric(w, "jotter_summary_duration_seconds_count %d\n", snap.SummaryDurationCount)
	writeMetric(w, "jotter_summary_duration_seconds_sum %.6f\n", float64(snap.SummaryDurationTotalNs)/1e9)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
