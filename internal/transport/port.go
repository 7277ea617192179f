// internal/transport/port.go
package transport

import (
	"errors"
	"time"
)

// Port is the byte-oriented serial capability set the engine consumes.
// Reads never block: callers poll BytesAvailable and then Read what is buffered.
type Port interface {
	Write(p []byte) (int, error)
	BytesAvailable() (int, error)
	Read(p []byte) (int, error)
	Close() error
}

// Config is the line configuration for one open.
// Framing is fixed at 8 data bits, no parity, 1 stop bit.
type Config struct {
	Name     string
	BaudRate int

	// ReadTimeout bounds a single blocking read inside a driver.
	// It is NOT the response timeout; that belongs to the engine.
	ReadTimeout time.Duration
}

// Opener opens a Port. One attempt per call, no retries.
type Opener interface {
	Open(cfg Config) (Port, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(cfg Config) (Port, error)

func (f OpenerFunc) Open(cfg Config) (Port, error) { return f(cfg) }

// ErrClosed is returned by operations on a closed port.
var ErrClosed = errors.New("transport: port closed")

const (
	dataBits = 8
	stopBits = 1

	defaultReadTimeout = 50 * time.Millisecond
)

func (c Config) readTimeout() time.Duration {
	if c.ReadTimeout <= 0 {
		return defaultReadTimeout
	}
	return c.ReadTimeout
}
