package api

import (
	"net/http"

	"github.com/arbiternet/arbiter/internal/metrics"
)

// HandleMetricsGlobal returns a handler for GET /api/v1/metrics/global.
func HandleMetricsGlobal(c *metrics.Collector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, c.SnapshotGlobal())
	}
}

// HandleMetricsBearers returns a handler for GET /api/v1/metrics/bearers.
func HandleMetricsBearers(c *metrics.Collector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, c.SnapshotBearers())
	}
}

// HandleMetricsDefaultSwitches returns a handler for
// GET /api/v1/metrics/default-switches.
func HandleMetricsDefaultSwitches(c *metrics.Collector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, c.DefaultSwitches())
	}
}
