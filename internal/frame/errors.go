// internal/frame/errors.go
package frame

import (
	"errors"
	"fmt"
)

// Decode failure kinds. A single bad frame is never fatal to a session.
var (
	ErrFrameTooShort    = errors.New("frame: too short")
	ErrFrameMalformed   = errors.New("frame: malformed")
	ErrChecksumMismatch = errors.New("frame: checksum mismatch")
)

// DecodeError carries the failure kind plus the offending bytes.
// errors.Is matches it against the sentinel kinds above.
type DecodeError struct {
	Kind   error
	Detail string
	Raw    []byte
}

func (e *DecodeError) Error() string {
	if e.Detail == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%v: %s", e.Kind, e.Detail)
}

func (e *DecodeError) Unwrap() error { return e.Kind }

func decodeErr(kind error, raw []byte, format string, args ...any) error {
	cp := make([]byte, len(raw))
	copy(cp, raw)
	return &DecodeError{
		Kind:   kind,
		Detail: fmt.Sprintf(format, args...),
		Raw:    cp,
	}
}
