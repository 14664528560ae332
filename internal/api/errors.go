package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/arbiternet/arbiter/internal/conn"
)

func writeInvalidArgument(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, "INVALID_ARGUMENT", message)
}

func writePayloadTooLarge(w http.ResponseWriter, limit int64) {
	msg := "request body too large"
	if limit > 0 {
		msg = "request body too large (max " + strconv.FormatInt(limit, 10) + " bytes)"
	}
	WriteError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", msg)
}

func writeDecodeBodyError(w http.ResponseWriter, err error) {
	var tooLarge *requestBodyTooLargeError
	if errors.As(err, &tooLarge) {
		writePayloadTooLarge(w, tooLarge.Limit)
		return
	}
	writeInvalidArgument(w, err.Error())
}

// writeConnError maps connectivity-core errors to HTTP response codes.
func writeConnError(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal server error")
	case errors.Is(err, conn.ErrInvalidParameter):
		WriteError(w, http.StatusBadRequest, "INVALID_ARGUMENT", err.Error())
	case errors.Is(err, conn.ErrNoSuchSupplier),
		errors.Is(err, conn.ErrNoSuchRequest),
		errors.Is(err, conn.ErrNetIdNotFound),
		errors.Is(err, conn.ErrNetTypeNotFound):
		WriteError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, conn.ErrPermissionDenied):
		WriteError(w, http.StatusForbidden, "PERMISSION_DENIED", err.Error())
	case errors.Is(err, conn.ErrOverMaxRequestNum):
		WriteError(w, http.StatusTooManyRequests, "QUOTA_EXCEEDED", err.Error())
	case errors.Is(err, conn.ErrStopped):
		WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE", err.Error())
	default:
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal server error")
	}
}
