// internal/poller/events.go
package poller

import (
	"context"
	"sync"

	"github.com/tamzrod/loadcell-acquirer/internal/frame"
)

// eventQueue is an unbounded FIFO in front of the consumer channel.
// push never blocks, so a slow consumer cannot stall the poll loop.
type eventQueue struct {
	mu     sync.Mutex
	items  []Event
	closed bool

	signal chan struct{}
	out    chan Event
}

func newEventQueue() *eventQueue {
	return &eventQueue{
		signal: make(chan struct{}, 1),
		out:    make(chan Event),
	}
}

func (q *eventQueue) push(ev Event) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.items = append(q.items, ev)
	q.mu.Unlock()
	q.poke()
}

// close stops accepting events; queued ones are still delivered.
func (q *eventQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.poke()
}

func (q *eventQueue) poke() {
	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// run forwards queued events in order and closes out when drained after close.
func (q *eventQueue) run() {
	defer close(q.out)

	for {
		q.mu.Lock()
		if len(q.items) == 0 {
			closed := q.closed
			q.mu.Unlock()
			if closed {
				return
			}
			<-q.signal
			continue
		}
		ev := q.items[0]
		q.items[0] = Event{}
		q.items = q.items[1:]
		q.mu.Unlock()

		q.out <- ev
	}
}

// ---- callback surface ----

// Consumer receives events through callbacks instead of a channel.
type Consumer interface {
	OnReading(addr byte, r frame.Reading)
	OnHealthEvent(kind HealthKind, detail string, err error)
	OnStateChange(s State)
}

// Dispatch delivers events to c until events is closed or ctx is done.
func Dispatch(ctx context.Context, events <-chan Event, c Consumer) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			switch ev.Kind {
			case EventReading:
				c.OnReading(ev.Address, ev.Reading)
			case EventHealth:
				c.OnHealthEvent(ev.Health, ev.Detail, ev.Err)
			case EventState:
				c.OnStateChange(ev.State)
			}
		}
	}
}
