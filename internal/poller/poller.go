// internal/poller/poller.go
package poller

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/tamzrod/loadcell-acquirer/internal/transport"
)

// Poller is the acquisition engine: one goroutine (Run) owns the transport,
// the state machine and the polling cadence. Control calls only enqueue.
type Poller struct {
	cfg     Config
	opener  transport.Opener
	log     logrus.FieldLogger
	metrics *metrics
	now     func() time.Time
	newID   func() string

	// control queue, shared with caller goroutines
	mu            sync.Mutex
	pending       []request
	cancelSession context.CancelFunc
	wake          chan struct{}

	state   atomic.Int32
	running atomic.Bool
	events  *eventQueue

	// owned by Run
	sess *session
	keep overrides
}

// Option customizes a Poller.
type Option func(*Poller)

// WithLogger sets the logger. Default: logrus standard logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(p *Poller) { p.log = l }
}

// WithRegisterer registers the poller metrics on reg. Default: none.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(p *Poller) { p.metrics = newMetrics(reg) }
}

// WithSessionIDs replaces the session id generator.
func WithSessionIDs(gen func() string) Option {
	return func(p *Poller) { p.newID = gen }
}

// New creates a poller with immutable timing config.
func New(cfg Config, opener transport.Opener, opts ...Option) (*Poller, error) {
	if opener == nil {
		return nil, errors.New("poller: transport opener required")
	}
	if cfg.ProbeTimeout <= 0 || cfg.ResponseTimeout <= 0 {
		return nil, errors.New("poller: probe and response timeouts must be > 0")
	}
	if cfg.PollGranularity <= 0 {
		return nil, errors.New("poller: poll granularity must be > 0")
	}
	if cfg.MaxConsecutiveMisses <= 0 {
		return nil, errors.New("poller: max consecutive misses must be > 0")
	}
	if cfg.StaleAfter <= 0 {
		return nil, errors.New("poller: stale window must be > 0")
	}

	p := &Poller{
		cfg:    cfg,
		opener: opener,
		log:    logrus.StandardLogger(),
		now:    time.Now,
		newID:  uuid.NewString,
		wake:   make(chan struct{}, 1),
		events: newEventQueue(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.metrics == nil {
		p.metrics = newMetrics(nil)
	}
	return p, nil
}

// Events is the single ordered event stream. It is closed after Run returns
// and every queued event has been delivered.
func (p *Poller) Events() <-chan Event { return p.events.out }

// State is a snapshot of the connection state.
func (p *Poller) State() State { return State(p.state.Load()) }

// ---- control surface (non-blocking) ----

type requestKind int

const (
	reqStart requestKind = iota
	reqStop
	reqInterval
	reqAddress
)

type request struct {
	kind     requestKind
	session  SessionConfig
	interval time.Duration
	address  byte
}

// Start requests a new session. Ignored while Connecting or Polling.
// Only the config shape is checked here; everything else is reported
// through events.
func (p *Poller) Start(sc SessionConfig) error {
	if err := sc.validate(); err != nil {
		return err
	}
	p.enqueue(request{kind: reqStart, session: sc}, false)
	return nil
}

// Stop ends the active session. A pending response wait is interrupted
// immediately rather than waiting out its timeout.
func (p *Poller) Stop() {
	p.enqueue(request{kind: reqStop}, true)
}

// SetSamplingInterval restarts the tick countdown with d. Without an active
// session the value is kept and applied by the next Start.
func (p *Poller) SetSamplingInterval(d time.Duration) error {
	if d <= 0 {
		return errors.New("poller: sampling interval must be > 0")
	}
	p.enqueue(request{kind: reqInterval, interval: d}, false)
	return nil
}

// SetDeviceAddress changes the address byte of the next command frame.
// Without an active session the value is kept and applied by the next Start.
func (p *Poller) SetDeviceAddress(addr byte) {
	p.enqueue(request{kind: reqAddress, address: addr}, false)
}

func (p *Poller) enqueue(r request, cancelActive bool) {
	p.mu.Lock()
	p.pending = append(p.pending, r)
	if cancelActive && p.cancelSession != nil {
		p.cancelSession()
	}
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// next pops one request in FIFO order.
func (p *Poller) next() (request, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.pending) == 0 {
		return request{}, false
	}
	r := p.pending[0]
	p.pending = p.pending[1:]
	return r, true
}

// armSession publishes the cancel func of a new session. A stop that is
// already queued behind the start cancels it right away.
func (p *Poller) armSession(cancel context.CancelFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.cancelSession = cancel
	for _, r := range p.pending {
		if r.kind == reqStop {
			cancel()
			return
		}
	}
}

func (p *Poller) disarmSession() {
	p.mu.Lock()
	p.cancelSession = nil
	p.mu.Unlock()
}
