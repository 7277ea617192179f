// internal/transport/sim.go
package transport

import (
	"math/rand"
	"sync"
	"time"

	"github.com/tamzrod/loadcell-acquirer/internal/frame"
)

// Simulator is an in-process weighing transmitter. It answers well-formed
// read and wake commands with synthetic response frames whose magnitude
// drifts around Base. Useful for bench runs without hardware.
type Simulator struct {
	// Address the transmitter answers to. 0 answers every address.
	Address byte

	Base     uint32
	Jitter   uint32
	Decimals uint8

	// Seed for the jitter source. 0 uses the current time.
	Seed int64
}

// Opener returns an Opener producing fresh simulated ports.
func (s Simulator) Opener() Opener {
	return OpenerFunc(func(cfg Config) (Port, error) {
		seed := s.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		return &simPort{sim: s, rnd: rand.New(rand.NewSource(seed))}, nil
	})
}

type simPort struct {
	sim Simulator
	rnd *rand.Rand

	mu     sync.Mutex
	buf    []byte
	closed bool
}

func (p *simPort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return 0, ErrClosed
	}
	if resp := p.answer(b); resp != nil {
		p.buf = append(p.buf, resp...)
	}
	return len(b), nil
}

// answer returns the response for one command frame or nil when the
// transmitter would stay silent.
func (p *simPort) answer(b []byte) []byte {
	if len(b) != frame.CommandLen || b[frame.CommandLen-1] != frame.Terminator {
		return nil
	}
	if frame.Checksum(b[0], b[1], b[2]) != b[3] {
		return nil
	}
	if p.sim.Address != 0 && b[0] != p.sim.Address {
		return nil
	}
	if b[1] != frame.CmdReadWeight && b[1] != frame.CmdWake {
		return nil
	}

	mag := p.sim.Base
	if p.sim.Jitter > 0 {
		mag += uint32(p.rnd.Int63n(int64(p.sim.Jitter) + 1))
	}
	if mag > frame.MaxMagnitude {
		mag = frame.MaxMagnitude
	}

	resp, err := frame.EncodeResponse(mag, p.sim.Decimals, false)
	if err != nil {
		return nil
	}
	return resp
}

func (p *simPort) BytesAvailable() (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, ErrClosed
	}
	return len(p.buf), nil
}

func (p *simPort) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, ErrClosed
	}
	n := copy(b, p.buf)
	p.buf = p.buf[n:]
	return n, nil
}

func (p *simPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.buf = nil
	return nil
}
