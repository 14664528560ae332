package api

import "net/http"

// HandleHealthz returns a handler for GET /healthz. It answers without
// authentication so that process supervisors can probe it.
func HandleHealthz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "arbiter"})
	}
}
