// internal/poller/types.go
package poller

import (
	"errors"
	"time"

	"github.com/tamzrod/loadcell-acquirer/internal/frame"
)

// State is the connection state. Owned by the poller goroutine only.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StatePolling
	StateFaulted
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StatePolling:
		return "polling"
	case StateFaulted:
		return "faulted"
	default:
		return "unknown"
	}
}

// HealthKind classifies health events.
type HealthKind int

const (
	// HealthPollMiss: one tick produced no reading. Non-fatal on its own.
	HealthPollMiss HealthKind = iota + 1
	// HealthOpenFailed: the transport could not be opened. Fatal.
	HealthOpenFailed
	// HealthProbeTimeout: no answer to the probe command. Fatal.
	HealthProbeTimeout
	// HealthSensorUnresponsive: miss budget or stale window exceeded. Fatal.
	HealthSensorUnresponsive
)

func (k HealthKind) String() string {
	switch k {
	case HealthPollMiss:
		return "poll_miss"
	case HealthOpenFailed:
		return "open_failed"
	case HealthProbeTimeout:
		return "probe_timeout"
	case HealthSensorUnresponsive:
		return "sensor_unresponsive"
	default:
		return "unknown"
	}
}

// Fatal reports whether the kind ends the session.
func (k HealthKind) Fatal() bool { return k != HealthPollMiss }

// Session-ending causes carried in Event.Err.
var (
	ErrProbeTimeout       = errors.New("poller: probe timeout")
	ErrSensorUnresponsive = errors.New("poller: sensor unresponsive")
)

// ErrRunning is returned by a second call to Run.
var ErrRunning = errors.New("poller: already running")

// EventKind tells which Event fields are meaningful.
type EventKind int

const (
	EventReading EventKind = iota + 1
	EventHealth
	EventState
)

// Event is the single message type delivered to consumers, in order.
type Event struct {
	Kind    EventKind
	At      time.Time
	Session string
	Address byte

	// EventReading
	Reading frame.Reading

	// EventHealth
	Health HealthKind
	Detail string
	Err    error

	// EventState
	State State
}

// SessionConfig is set before connecting.
// SamplingInterval and Address may be changed live.
type SessionConfig struct {
	Port             string
	BaudRate         int
	SamplingInterval time.Duration
	Address          byte
}

func (c SessionConfig) validate() error {
	if c.BaudRate <= 0 {
		return errors.New("poller: baud rate must be > 0")
	}
	if c.SamplingInterval <= 0 {
		return errors.New("poller: sampling interval must be > 0")
	}
	return nil
}

// Config is the timing and fault policy of the poller. Immutable after New.
type Config struct {
	ProbeCommand   byte
	ProbeParameter byte

	ProbeTimeout    time.Duration
	ResponseTimeout time.Duration
	PollGranularity time.Duration

	// Driver-level blocking read bound, passed to transport.Config.
	ReadTimeout time.Duration

	// Either trigger alone faults the session.
	MaxConsecutiveMisses int
	StaleAfter           time.Duration
}

// DefaultConfig mirrors the transmitter's documented timing.
func DefaultConfig() Config {
	return Config{
		ProbeCommand:         frame.CmdReadWeight,
		ProbeParameter:       frame.ParamReadWeight,
		ProbeTimeout:         time.Second,
		ResponseTimeout:      time.Second,
		PollGranularity:      10 * time.Millisecond,
		ReadTimeout:          50 * time.Millisecond,
		MaxConsecutiveMisses: 3,
		StaleAfter:           3 * time.Second,
	}
}
