// internal/poller/runner.go
package poller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tamzrod/loadcell-acquirer/internal/frame"
	"github.com/tamzrod/loadcell-acquirer/internal/transport"
)

// session is the state of one Start..Stop/Fault span. Owned by Run.
type session struct {
	id     string
	cfg    SessionConfig
	port   transport.Port
	ctx    context.Context
	cancel context.CancelFunc
	log    logrus.FieldLogger

	nextTick time.Time
	misses   int
	lastGood time.Time
}

// Run drives the state machine until ctx is done and returns ctx.Err().
// Call it exactly once; a second call returns ErrRunning.
// One goroutine, no overlapping requests, no automatic retries.
func (p *Poller) Run(ctx context.Context) error {
	if !p.running.CompareAndSwap(false, true) {
		return ErrRunning
	}

	go p.events.run()
	defer p.events.close()
	defer p.shutdown()

	timer := time.NewTimer(time.Hour)
	stopTimer(timer)

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if req, ok := p.next(); ok {
			p.apply(ctx, req)
			continue
		}

		var tick <-chan time.Time
		if p.State() == StatePolling && p.sess != nil {
			timer.Reset(p.sess.nextTick.Sub(p.now()))
			tick = timer.C
		}

		select {
		case <-ctx.Done():
			stopTimer(timer)
			return ctx.Err()
		case <-p.wake:
			stopTimer(timer)
		case <-tick:
			p.poll(p.sess)
		}
	}
}

func stopTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}

func (p *Poller) apply(ctx context.Context, r request) {
	switch r.kind {
	case reqStart:
		switch p.State() {
		case StateConnecting, StatePolling:
			p.log.WithField("state", p.State()).Warn("poller: start ignored, session active")
			return
		}
		p.connect(ctx, r.session)

	case reqStop:
		switch p.State() {
		case StateConnecting, StatePolling:
			s := p.sess
			p.endSession(s)
			s.log.Info("poller: stopped")
			p.setState(s, StateDisconnected)
		}

	case reqInterval:
		if p.sess == nil {
			p.keep.interval = r.interval
			p.log.WithField("interval", r.interval).Info("poller: sampling interval kept for next start")
			return
		}
		p.sess.cfg.SamplingInterval = r.interval
		// Restart the countdown. apply only runs between ticks.
		if p.State() == StatePolling {
			p.sess.nextTick = p.now().Add(r.interval)
		}
		p.sess.log.WithField("interval", r.interval).Info("poller: sampling interval changed")

	case reqAddress:
		if p.sess == nil {
			p.keep.address, p.keep.hasAddress = r.address, true
			p.log.WithField("address", fmt.Sprintf("0x%02x", r.address)).Info("poller: device address kept for next start")
			return
		}
		p.sess.cfg.Address = r.address
		p.sess.log = p.sess.log.WithField("address", fmt.Sprintf("0x%02x", r.address))
		p.sess.log.Info("poller: device address changed")
	}
}

// overrides holds live changes made while no session was active.
// The next connect applies them once.
type overrides struct {
	interval   time.Duration
	address    byte
	hasAddress bool
}

func (o *overrides) applyTo(sc SessionConfig) SessionConfig {
	if o.interval > 0 {
		sc.SamplingInterval = o.interval
	}
	if o.hasAddress {
		sc.Address = o.address
	}
	*o = overrides{}
	return sc
}

// ---- Connecting ----

func (p *Poller) connect(parent context.Context, sc SessionConfig) {
	sc = p.keep.applyTo(sc)

	sctx, cancel := context.WithCancel(parent)
	s := &session{
		id:     p.newID(),
		cfg:    sc,
		ctx:    sctx,
		cancel: cancel,
	}
	s.log = p.log.WithFields(logrus.Fields{
		"session": s.id,
		"port":    sc.Port,
		"address": fmt.Sprintf("0x%02x", sc.Address),
	})
	p.sess = s
	p.armSession(cancel)

	p.setState(s, StateConnecting)

	port, err := p.opener.Open(transport.Config{
		Name:        sc.Port,
		BaudRate:    sc.BaudRate,
		ReadTimeout: p.cfg.ReadTimeout,
	})
	if err != nil {
		detail := transport.OpenOther.String()
		var oe *transport.OpenError
		if errors.As(err, &oe) {
			detail = oe.Kind.String()
		}
		p.fault(s, HealthOpenFailed, detail, err)
		return
	}
	s.port = port

	if s.ctx.Err() != nil {
		// stop already queued; apply(reqStop) closes the port
		return
	}

	probe := frame.BuildCommand(sc.Address, p.cfg.ProbeCommand, p.cfg.ProbeParameter)
	_, _ = transport.Drain(port)
	if _, err := port.Write(probe.Bytes()); err != nil {
		p.fault(s, HealthProbeTimeout, "probe write failed", fmt.Errorf("%w: %v", ErrProbeTimeout, err))
		return
	}

	_, err = transport.WaitForBytes(s.ctx, port, frame.ResponseLen, p.cfg.ProbeTimeout, p.cfg.PollGranularity)
	if s.ctx.Err() != nil {
		return
	}
	if err != nil {
		p.fault(s, HealthProbeTimeout, "no answer to probe", fmt.Errorf("%w: %v", ErrProbeTimeout, err))
		return
	}

	if n, _ := transport.Drain(port); n > 0 {
		s.log.WithField("bytes", n).Debug("poller: probe answered")
	}

	now := p.now()
	s.lastGood = now
	s.misses = 0
	s.nextTick = now
	p.setState(s, StatePolling)
	s.log.WithField("baud", sc.BaudRate).Info("poller: connected")
}

// ---- Polling ----

func (p *Poller) poll(s *session) {
	start := p.now()
	s.nextTick = start.Add(s.cfg.SamplingInterval)

	// Address is read here, between ticks, never mid-compose.
	cmd := frame.ReadWeight(s.cfg.Address)
	p.metrics.polls.Inc()

	if _, err := transport.Drain(s.port); err != nil {
		p.miss(s, "transport", err)
		return
	}
	if _, err := s.port.Write(cmd.Bytes()); err != nil {
		p.miss(s, "write", err)
		return
	}

	_, err := transport.WaitForBytes(s.ctx, s.port, frame.ResponseLen, p.cfg.ResponseTimeout, p.cfg.PollGranularity)
	if s.ctx.Err() != nil {
		return
	}
	if err != nil {
		p.miss(s, "timeout", err)
		return
	}

	buf := make([]byte, frame.ResponseLen)
	n, err := transport.ReadFull(s.port, buf)
	s.log.WithField("raw", fmt.Sprintf("% x", buf[:n])).Debug("poller: response frame")
	if err != nil {
		p.miss(s, "transport", err)
		return
	}

	r, err := frame.ParseResponse(buf)
	if err != nil {
		p.miss(s, decodeReason(err), err)
		return
	}

	now := p.now()
	r.At = now
	p.metrics.response.Observe(now.Sub(start).Seconds())
	p.metrics.readings.Inc()
	p.metrics.weight.Set(r.Value)

	s.misses = 0
	s.lastGood = now

	// A slow tick does not cause a burst of catch-up ticks.
	if s.nextTick.Before(now) {
		s.nextTick = now
	}

	p.emit(Event{
		Kind:    EventReading,
		At:      now,
		Session: s.id,
		Address: s.cfg.Address,
		Reading: r,
	})
}

func decodeReason(err error) string {
	switch {
	case errors.Is(err, frame.ErrFrameTooShort):
		return "too_short"
	case errors.Is(err, frame.ErrChecksumMismatch):
		return "checksum"
	default:
		return "malformed"
	}
}

// miss records one tick without a reading and applies the fault policy.
// The counter and the stale window are independent triggers.
func (p *Poller) miss(s *session, reason string, err error) {
	s.misses++
	now := p.now()
	stale := now.Sub(s.lastGood)

	p.metrics.misses.WithLabelValues(reason).Inc()
	s.log.WithFields(logrus.Fields{
		"reason": reason,
		"misses": s.misses,
	}).WithError(err).Warn("poller: poll miss")

	p.emit(Event{
		Kind:    EventHealth,
		At:      now,
		Session: s.id,
		Address: s.cfg.Address,
		Health:  HealthPollMiss,
		Detail:  reason,
		Err:     err,
	})

	switch {
	case s.misses >= p.cfg.MaxConsecutiveMisses:
		p.fault(s, HealthSensorUnresponsive,
			fmt.Sprintf("%d consecutive misses", s.misses),
			fmt.Errorf("%w: %d consecutive misses", ErrSensorUnresponsive, s.misses))
	case stale > p.cfg.StaleAfter:
		p.fault(s, HealthSensorUnresponsive,
			fmt.Sprintf("no good response for %v", stale.Round(time.Millisecond)),
			fmt.Errorf("%w: stale for %v", ErrSensorUnresponsive, stale))
	}
}

// ---- Faulted / teardown ----

func (p *Poller) fault(s *session, kind HealthKind, detail string, err error) {
	p.endSession(s)
	p.metrics.faults.WithLabelValues(kind.String()).Inc()
	s.log.WithFields(logrus.Fields{
		"kind":   kind,
		"detail": detail,
	}).WithError(err).Error("poller: session faulted")

	p.emit(Event{
		Kind:    EventHealth,
		At:      p.now(),
		Session: s.id,
		Address: s.cfg.Address,
		Health:  kind,
		Detail:  detail,
		Err:     err,
	})
	p.setState(s, StateFaulted)
}

// endSession cancels waits and closes the transport exactly once.
func (p *Poller) endSession(s *session) {
	if s == nil {
		return
	}
	p.disarmSession()
	s.cancel()
	if s.port != nil {
		if err := s.port.Close(); err != nil {
			s.log.WithError(err).Warn("poller: transport close failed")
		}
		s.port = nil
	}
	if p.sess == s {
		p.sess = nil
	}
}

func (p *Poller) shutdown() {
	if s := p.sess; s != nil {
		p.endSession(s)
		p.setState(s, StateDisconnected)
	}
}

func (p *Poller) setState(s *session, st State) {
	if State(p.state.Swap(int32(st))) == st {
		return
	}
	p.metrics.state.Set(float64(st))

	ev := Event{Kind: EventState, At: p.now(), State: st}
	if s != nil {
		ev.Session = s.id
		ev.Address = s.cfg.Address
	}
	p.emit(ev)
}

func (p *Poller) emit(ev Event) { p.events.push(ev) }
