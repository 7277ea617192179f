// internal/transport/wait.go
package transport

import (
	"context"
	"errors"
	"time"
)

// ErrWaitTimeout means the byte budget was not met before the deadline.
var ErrWaitTimeout = errors.New("transport: wait timed out")

// WaitForBytes polls p until at least want bytes are buffered.
// It sleeps granularity between polls, never waits past timeout in total,
// and returns ctx.Err() as soon as ctx is done.
// The returned count is the last observed BytesAvailable value.
func WaitForBytes(ctx context.Context, p Port, want int, timeout, granularity time.Duration) (int, error) {
	if granularity <= 0 {
		granularity = 10 * time.Millisecond
	}
	deadline := time.Now().Add(timeout)

	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C

	for {
		n, err := p.BytesAvailable()
		if err != nil {
			return n, err
		}
		if n >= want {
			return n, nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return n, ErrWaitTimeout
		}

		step := granularity
		if step > remaining {
			step = remaining
		}
		timer.Reset(step)

		select {
		case <-ctx.Done():
			return n, ctx.Err()
		case <-timer.C:
		}
	}
}

// ReadFull reads exactly len(b) buffered bytes. Callers wait first.
func ReadFull(p Port, b []byte) (int, error) {
	total := 0
	for total < len(b) {
		n, err := p.Read(b[total:])
		total += n
		if err != nil {
			return total, err
		}
		if n == 0 {
			return total, errors.New("transport: short read")
		}
	}
	return total, nil
}

// Drain discards whatever input is buffered. Returns the number of bytes dropped.
func Drain(p Port) (int, error) {
	var scratch [64]byte
	dropped := 0
	for {
		n, err := p.BytesAvailable()
		if err != nil || n == 0 {
			return dropped, err
		}
		r, err := p.Read(scratch[:])
		dropped += r
		if err != nil {
			return dropped, err
		}
		if r == 0 {
			return dropped, nil
		}
	}
}
