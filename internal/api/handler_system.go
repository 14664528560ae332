package api

import (
	"net/http"
	"runtime"
	"time"

	"github.com/arbiternet/arbiter/internal/buildinfo"
	"github.com/arbiternet/arbiter/internal/conn"
	"github.com/arbiternet/arbiter/internal/model"
)

// HandleSystemInfo returns a handler for GET /api/v1/system/info.
func HandleSystemInfo(svc *conn.Service, startedAt time.Time, detection model.DetectionConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		suppliers, requests := svc.Counts()
		WriteJSON(w, http.StatusOK, model.SystemInfo{
			Version:      buildinfo.Version,
			Commit:       buildinfo.GitCommit,
			BuildDate:    buildinfo.BuildTime,
			GoVersion:    runtime.Version(),
			UptimeSec:    int64(time.Since(startedAt).Seconds()),
			Suppliers:    suppliers,
			Requests:     requests,
			AirplaneMode: svc.AirplaneMode(),
			Detection:    detection,
		})
	}
}
