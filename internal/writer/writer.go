// internal/writer/writer.go
package writer

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tamzrod/loadcell-acquirer/internal/poller"
	"github.com/tamzrod/loadcell-acquirer/internal/status"
	"github.com/tamzrod/loadcell-acquirer/internal/transport"
)

// Runner is the orchestrator between the engine event stream and the sinks.
// It owns the status snapshot and the 1 Hz seconds-in-error ticker.
type Runner struct {
	status  StatusWriter
	pubs    []Publisher
	observe func(poller.Event)
	log     logrus.FieldLogger
	tick    time.Duration

	snap status.Snapshot
}

// RunnerOption customizes a Runner.
type RunnerOption func(*Runner)

// WithStatusWriter enables the status block mirror.
func WithStatusWriter(sw StatusWriter) RunnerOption {
	return func(r *Runner) { r.status = sw }
}

// WithPublisher adds an event publisher. May be given more than once.
func WithPublisher(p Publisher) RunnerOption {
	return func(r *Runner) { r.pubs = append(r.pubs, p) }
}

// WithObserver is called for every event after the sinks.
func WithObserver(fn func(poller.Event)) RunnerOption {
	return func(r *Runner) { r.observe = fn }
}

// WithRunnerLogger sets the logger. Default: logrus standard logger.
func WithRunnerLogger(l logrus.FieldLogger) RunnerOption {
	return func(r *Runner) { r.log = l }
}

func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		log:  logrus.StandardLogger(),
		tick: time.Second,
	}
	r.snap.Health = status.HealthUnknown
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Snapshot returns the current status snapshot. Only safe after Run returns
// or from the observer callback.
func (r *Runner) Snapshot() status.Snapshot { return r.snap }

// Run consumes events until the stream is closed or ctx is done.
// Sink errors are logged and never stop the loop.
func (r *Runner) Run(ctx context.Context, events <-chan poller.Event) {
	secTicker := time.NewTicker(r.tick)
	defer secTicker.Stop()

	// Full block write on start (identity re-assert).
	r.writeStatus("start")

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-events:
			if !ok {
				return
			}

			if r.apply(ev) {
				r.writeStatus("event")
			}

			for _, p := range r.pubs {
				if err := p.Publish(ctx, ev); err != nil {
					r.log.WithError(err).Warn("writer: publish failed")
				}
			}

			if r.observe != nil {
				r.observe(ev)
			}

		case <-secTicker.C:
			// Tick 1 Hz while in error or stale. Saturates, never wraps.
			if inError(r.snap.Health) && r.snap.SecondsInError < status.SecondsInErrorMax {
				r.snap.SecondsInError++
				r.writeStatus("seconds tick")
			}
		}
	}
}

func inError(h uint16) bool {
	return h == status.HealthError || h == status.HealthStale
}

// apply folds one event into the snapshot. Reports whether it changed.
func (r *Runner) apply(ev poller.Event) bool {
	before := r.snap
	s := &r.snap

	switch ev.Kind {
	case poller.EventReading:
		s.Health = status.HealthOK
		s.LastErrorCode = status.ErrNone
		s.SecondsInError = 0
		s.Weight = float32(ev.Reading.Value)
		s.Raw = ev.Reading.Magnitude
		s.Decimals = uint16(ev.Reading.Decimals)
		s.Negative = ev.Reading.Negative

	case poller.EventHealth:
		if ev.Health.Fatal() {
			s.Health = status.HealthError
		} else if s.Health != status.HealthError {
			// One missed tick: the last weight is still shown, but stale.
			s.Health = status.HealthStale
		}
		s.LastErrorCode = ErrorCode(ev)

	case poller.EventState:
		s.ConnState = uint16(ev.State)
		if ev.State == poller.StateDisconnected {
			s.Health = status.HealthDisabled
			s.SecondsInError = 0
		}
	}

	return *s != before
}

func (r *Runner) writeStatus(why string) {
	if r.status == nil {
		return
	}
	if err := r.status.WriteStatus(r.snap); err != nil {
		r.log.WithError(err).WithField("on", why).Warn("writer: status write failed")
	}
}

// ErrorCode maps a health event to the status block error code.
func ErrorCode(ev poller.Event) uint16 {
	switch ev.Health {
	case poller.HealthPollMiss:
		return status.ErrPollMiss
	case poller.HealthProbeTimeout:
		return status.ErrProbeTimeout
	case poller.HealthSensorUnresponsive:
		return status.ErrSensorUnresponsive
	case poller.HealthOpenFailed:
		var oe *transport.OpenError
		if !errors.As(ev.Err, &oe) {
			return status.ErrOpenFailed
		}
		switch oe.Kind {
		case transport.OpenPortMissing:
			return status.ErrOpenPortMissing
		case transport.OpenPermissionDenied:
			return status.ErrOpenPermission
		case transport.OpenPortInUse:
			return status.ErrOpenPortInUse
		default:
			return status.ErrOpenFailed
		}
	default:
		return status.ErrGeneric
	}
}
