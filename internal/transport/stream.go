// internal/transport/stream.go
package transport

import (
	"io"
	"sync"
	"time"
)

// streamPort adapts a blocking io.ReadWriteCloser (a serial driver with a
// short read timeout) to Port. One pump goroutine moves bytes from the
// device into an in-memory buffer; the engine only ever sees that buffer.
type streamPort struct {
	rw        io.ReadWriteCloser
	isTimeout func(error) bool

	mu  sync.Mutex
	buf []byte
	err error

	closeOnce sync.Once
	closed    chan struct{}
	done      chan struct{}
}

// pumpStopWait bounds how long Close waits for a driver Read to return.
const pumpStopWait = time.Second

func newStreamPort(rw io.ReadWriteCloser, isTimeout func(error) bool) *streamPort {
	if isTimeout == nil {
		isTimeout = func(error) bool { return false }
	}
	p := &streamPort{
		rw:        rw,
		isTimeout: isTimeout,
		closed:    make(chan struct{}),
		done:      make(chan struct{}),
	}
	go p.pump()
	return p
}

func (p *streamPort) pump() {
	defer close(p.done)

	chunk := make([]byte, 256)
	for {
		n, err := p.rw.Read(chunk)
		if n > 0 {
			p.mu.Lock()
			p.buf = append(p.buf, chunk[:n]...)
			p.mu.Unlock()
		}

		select {
		case <-p.closed:
			return
		default:
		}

		if err != nil && !p.isTimeout(err) {
			p.mu.Lock()
			p.err = err
			p.mu.Unlock()
			return
		}
	}
}

func (p *streamPort) Write(b []byte) (int, error) {
	select {
	case <-p.closed:
		return 0, ErrClosed
	default:
	}
	return p.rw.Write(b)
}

func (p *streamPort) BytesAvailable() (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.buf) > 0 {
		return len(p.buf), nil
	}
	select {
	case <-p.closed:
		return 0, ErrClosed
	default:
	}
	return 0, p.err
}

func (p *streamPort) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := copy(b, p.buf)
	p.buf = p.buf[n:]
	if n == 0 && p.err != nil {
		return 0, p.err
	}
	return n, nil
}

// Close is idempotent; the device is closed exactly once.
func (p *streamPort) Close() error {
	var err error
	p.closeOnce.Do(func() {
		close(p.closed)
		err = p.rw.Close()

		select {
		case <-p.done:
		case <-time.After(pumpStopWait):
		}
	})
	return err
}
