package api

import (
	"errors"
	"fmt"
)

// ErrBusy reports that a conflicting operation is already in flight.
// Session-level operations are rejected rather than queued.
var ErrBusy = errors.New("operation already in flight")

// NetworkError covers transport failures and unexpected non-2xx statuses.
// StatusCode is zero when the request never produced a response.
type NetworkError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: unexpected status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// SchemaError reports a response whose shape violates the remote contract:
// the expected array field is absent or not an array.
type SchemaError struct {
	Op    string
	Field string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: response missing array field %q", e.Op, e.Field)
}

// RemoteRejection is an explicit refusal from the server, carrying its
// human-readable detail message when one was supplied.
type RemoteRejection struct {
	StatusCode int
	Message    string
}

func (e *RemoteRejection) Error() string { return e.Message }
