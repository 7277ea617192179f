// internal/transport/errors.go
package transport

import (
	"errors"
	"fmt"
	"io/fs"
	"syscall"
)

// OpenErrorKind distinguishes open failures so the caller can show
// a precise diagnosis.
type OpenErrorKind int

const (
	OpenOther OpenErrorKind = iota
	OpenPortMissing
	OpenPermissionDenied
	OpenPortInUse
)

func (k OpenErrorKind) String() string {
	switch k {
	case OpenPortMissing:
		return "port_missing"
	case OpenPermissionDenied:
		return "permission_denied"
	case OpenPortInUse:
		return "port_in_use"
	default:
		return "open_failed"
	}
}

// OpenError is returned by every driver's Open.
type OpenError struct {
	Kind OpenErrorKind
	Port string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("transport: open %s: %s: %v", e.Port, e.Kind, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// classifyOpenError maps OS level errors onto OpenErrorKind.
// Drivers with richer error types classify before falling back here.
func classifyOpenError(port string, err error) error {
	kind := OpenOther
	switch {
	case errors.Is(err, fs.ErrNotExist):
		kind = OpenPortMissing
	case errors.Is(err, fs.ErrPermission):
		kind = OpenPermissionDenied
	case errors.Is(err, syscall.EBUSY):
		kind = OpenPortInUse
	}
	return &OpenError{Kind: kind, Port: port, Err: err}
}
