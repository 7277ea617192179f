// internal/transport/transport_test.go
package transport

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/tamzrod/loadcell-acquirer/internal/frame"
)

// ---- fake port for wait helpers ----

type bufPort struct {
	mu  sync.Mutex
	buf []byte
}

func (p *bufPort) feed(b []byte) {
	p.mu.Lock()
	p.buf = append(p.buf, b...)
	p.mu.Unlock()
}

func (p *bufPort) Write(b []byte) (int, error) { return len(b), nil }
func (p *bufPort) Close() error                { return nil }

func (p *bufPort) BytesAvailable() (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.buf), nil
}

func (p *bufPort) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := copy(b, p.buf)
	p.buf = p.buf[n:]
	return n, nil
}

// ---- fake stream for streamPort ----

type pipeStream struct {
	r *io.PipeReader

	mu      sync.Mutex
	written bytes.Buffer
	closes  int
}

func (s *pipeStream) Read(b []byte) (int, error) { return s.r.Read(b) }

func (s *pipeStream) Write(b []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.written.Write(b)
}

func (s *pipeStream) Close() error {
	s.mu.Lock()
	s.closes++
	s.mu.Unlock()
	return s.r.Close()
}

// ---- WaitForBytes ----

func TestWaitForBytes_MetBeforeDeadline(t *testing.T) {
	p := &bufPort{}
	go func() {
		time.Sleep(20 * time.Millisecond)
		p.feed(make([]byte, 6))
		time.Sleep(20 * time.Millisecond)
		p.feed(make([]byte, 4))
	}()

	n, err := WaitForBytes(context.Background(), p, 10, time.Second, 5*time.Millisecond)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n < 10 {
		t.Fatalf("expected >= 10 bytes, got %d", n)
	}
}

func TestWaitForBytes_Timeout(t *testing.T) {
	p := &bufPort{}
	p.feed(make([]byte, 3))

	start := time.Now()
	n, err := WaitForBytes(context.Background(), p, 10, 60*time.Millisecond, 10*time.Millisecond)
	if !errors.Is(err, ErrWaitTimeout) {
		t.Fatalf("expected ErrWaitTimeout, got %v", err)
	}
	if n != 3 {
		t.Fatalf("expected partial count 3, got %d", n)
	}
	if el := time.Since(start); el > 500*time.Millisecond {
		t.Fatalf("wait overran its ceiling: %v", el)
	}
}

func TestWaitForBytes_CancelInterruptsWait(t *testing.T) {
	p := &bufPort{}
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := WaitForBytes(ctx, p, 10, 10*time.Second, 20*time.Millisecond)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if el := time.Since(start); el > time.Second {
		t.Fatalf("cancel not observed promptly: %v", el)
	}
}

func TestDrain(t *testing.T) {
	p := &bufPort{}
	p.feed(make([]byte, 150))

	n, err := Drain(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 150 {
		t.Fatalf("expected 150 dropped, got %d", n)
	}
	if left, _ := p.BytesAvailable(); left != 0 {
		t.Fatalf("expected empty buffer, got %d", left)
	}
}

// ---- streamPort ----

func TestStreamPort_BuffersAndClosesOnce(t *testing.T) {
	r, w := io.Pipe()
	s := &pipeStream{r: r}
	p := newStreamPort(s, nil)

	if _, err := p.Write([]byte{1, 2, 3}); err != nil {
		t.Fatalf("write: %v", err)
	}

	go func() { _, _ = w.Write([]byte("0123456789")) }()

	if _, err := WaitForBytes(context.Background(), p, 10, time.Second, 5*time.Millisecond); err != nil {
		t.Fatalf("wait: %v", err)
	}

	buf := make([]byte, 10)
	if _, err := ReadFull(p, buf); err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(buf) != "0123456789" {
		t.Fatalf("unexpected bytes %q", buf)
	}

	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	_ = p.Close()

	if s.closes != 1 {
		t.Fatalf("expected exactly one device close, got %d", s.closes)
	}
	if _, err := p.Write([]byte{1}); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed after close, got %v", err)
	}
	if !bytes.Equal(s.written.Bytes(), []byte{1, 2, 3}) {
		t.Fatalf("unexpected written bytes % x", s.written.Bytes())
	}
}

func TestStreamPort_DeviceErrorSurfaces(t *testing.T) {
	r, w := io.Pipe()
	p := newStreamPort(&pipeStream{r: r}, nil)
	defer p.Close()

	boom := errors.New("unplugged")
	_ = w.CloseWithError(boom)

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if _, err := p.BytesAvailable(); err != nil {
			if !errors.Is(err, boom) {
				t.Fatalf("expected device error, got %v", err)
			}
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("device error never surfaced")
}

// ---- open errors ----

func TestClassifyOpenError(t *testing.T) {
	cases := []struct {
		err  error
		want OpenErrorKind
	}{
		{&os.PathError{Op: "open", Path: "/dev/ttyX", Err: syscall.ENOENT}, OpenPortMissing},
		{&os.PathError{Op: "open", Path: "/dev/ttyX", Err: fs.ErrPermission}, OpenPermissionDenied},
		{&os.PathError{Op: "open", Path: "/dev/ttyX", Err: syscall.EBUSY}, OpenPortInUse},
		{errors.New("weird"), OpenOther},
	}

	for _, tc := range cases {
		err := classifyOpenError("/dev/ttyX", tc.err)
		var oe *OpenError
		if !errors.As(err, &oe) {
			t.Fatalf("expected *OpenError, got %T", err)
		}
		if oe.Kind != tc.want {
			t.Fatalf("%v: got kind %v want %v", tc.err, oe.Kind, tc.want)
		}
	}
}

func TestDriver_Unknown(t *testing.T) {
	if _, err := Driver("carrier-pigeon"); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
	for _, name := range Drivers {
		if _, err := Driver(name); err != nil {
			t.Fatalf("driver %q: %v", name, err)
		}
	}
}

// ---- simulator ----

func TestSimulator_AnswersReadCommand(t *testing.T) {
	p, err := Simulator{Address: 0x12, Base: 125, Decimals: 2, Seed: 1}.Opener().Open(Config{Name: "sim"})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer p.Close()

	if _, err := p.Write(frame.ReadWeight(0x12).Bytes()); err != nil {
		t.Fatalf("write: %v", err)
	}

	buf := make([]byte, frame.ResponseLen)
	if _, err := ReadFull(p, buf); err != nil {
		t.Fatalf("read: %v", err)
	}
	r, err := frame.ParseResponse(buf)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if r.Value != 1.25 {
		t.Fatalf("expected 1.25, got %v", r.Value)
	}
}

func TestSimulator_SilentForOtherAddress(t *testing.T) {
	p, _ := Simulator{Address: 0x12, Base: 1}.Opener().Open(Config{})
	defer p.Close()

	_, _ = p.Write(frame.ReadWeight(0x01).Bytes())
	if n, _ := p.BytesAvailable(); n != 0 {
		t.Fatalf("expected silence, got %d bytes", n)
	}
}
