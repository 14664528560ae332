package api

import (
	"net/http"

	"github.com/arbiternet/arbiter/internal/conn"
)

// HandleListSuppliers returns a handler for GET /api/v1/suppliers.
func HandleListSuppliers(svc *conn.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := ParsePagination(r)
		if err != nil {
			writeInvalidArgument(w, err.Error())
			return
		}
		WritePage(w, http.StatusOK, svc.SupplierViews(), p)
	}
}

// HandleListRequests returns a handler for GET /api/v1/requests.
func HandleListRequests(svc *conn.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := ParsePagination(r)
		if err != nil {
			writeInvalidArgument(w, err.Error())
			return
		}
		WritePage(w, http.StatusOK, svc.RequestViews(), p)
	}
}

// HandleListNetworks returns a handler for GET /api/v1/networks.
func HandleListNetworks(svc *conn.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := ParsePagination(r)
		if err != nil {
			writeInvalidArgument(w, err.Error())
			return
		}
		WritePage(w, http.StatusOK, svc.NetworkViews(), p)
	}
}

// HandleDefaultNetwork returns a handler for GET /api/v1/networks/default.
func HandleDefaultNetwork(svc *conn.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, svc.DefaultNetView())
	}
}

// HandleTriggerDetection returns a handler for
// POST /api/v1/networks/{net_id}/actions/detect.
func HandleTriggerDetection(svc *conn.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		netID, err := PathNetID(r)
		if err != nil {
			writeInvalidArgument(w, err.Error())
			return
		}
		if err := svc.TriggerNetDetection(conn.System, netID); err != nil {
			writeConnError(w, err)
			return
		}
		WriteJSON(w, http.StatusAccepted, map[string]any{"net_id": netID, "detection": "started"})
	}
}
