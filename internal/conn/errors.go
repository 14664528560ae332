package conn

import "errors"

var (
	// ErrInvalidParameter is returned for malformed arguments: nil sinks,
	// stale handles, or releasing the default request.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrNoSuchSupplier is returned when a supplier id is unknown.
	ErrNoSuchSupplier = errors.New("no such supplier")

	// ErrNoSuchRequest is returned when a request id is unknown.
	ErrNoSuchRequest = errors.New("no such request")

	// ErrNetTypeNotFound is returned for an unrecognized bearer value and
	// when no network of the asked bearer exists.
	ErrNetTypeNotFound = errors.New("net type not found")

	// ErrNetIdNotFound is returned when a network id resolves to nothing.
	ErrNetIdNotFound = errors.New("net id not found")

	// ErrOverMaxRequestNum is returned when a uid exceeds its request quota.
	ErrOverMaxRequestNum = errors.New("over max request number")

	// ErrPermissionDenied is returned when the caller lacks the permission
	// an operation demands.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrOperationFailed is returned when the host layer rejects a
	// programming operation.
	ErrOperationFailed = errors.New("operation failed")

	// ErrStopped is returned for calls arriving after Shutdown.
	ErrStopped = errors.New("service stopped")
)
