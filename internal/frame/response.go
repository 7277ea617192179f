// internal/frame/response.go
package frame

import (
	"errors"
	"time"
)

// Canonical response layout (10 bytes):
//
//	0    header 0x11
//	1    header 0x42
//	2..6 ASCII digits, most significant first
//	7    status: bit2 = sign, bit0-1 = decimal places
//	8    checksum over bytes 0..7
//	9    terminator 0x0D
const (
	ResponseLen = 10

	HeaderHi byte = 0x11
	HeaderLo byte = 0x42

	offDigits    = 2
	digitCount   = 5
	offStatus    = 7
	offChecksum  = 8
	offTerminal  = 9
	statusSign   = 0x04
	statusPlaces = 0x03

	// MaxMagnitude is the largest value five digits can carry.
	MaxMagnitude = 99999
)

var pow10 = [4]float64{1, 10, 100, 1000}

// Reading is one decoded weight value.
type Reading struct {
	Value     float64
	Magnitude uint32
	Decimals  uint8
	Negative  bool
	Status    byte
	At        time.Time
}

// ParseResponse validates and decodes a response frame.
// Only the first ResponseLen bytes are considered.
// Pure: At is left zero for the caller to stamp.
func ParseResponse(b []byte) (Reading, error) {
	if len(b) < ResponseLen {
		return Reading{}, decodeErr(ErrFrameTooShort, b, "got %d bytes, want %d", len(b), ResponseLen)
	}
	b = b[:ResponseLen]

	if b[0] != HeaderHi || b[1] != HeaderLo {
		return Reading{}, decodeErr(ErrFrameMalformed, b, "header 0x%02x 0x%02x", b[0], b[1])
	}
	if b[offTerminal] != Terminator {
		return Reading{}, decodeErr(ErrFrameMalformed, b, "terminator 0x%02x", b[offTerminal])
	}

	want := Checksum(b[:offChecksum]...)
	if b[offChecksum] != want {
		return Reading{}, decodeErr(ErrChecksumMismatch, b, "calc 0x%02x got 0x%02x", want, b[offChecksum])
	}

	var mag uint32
	for i := 0; i < digitCount; i++ {
		d := b[offDigits+i]
		if d < '0' || d > '9' {
			return Reading{}, decodeErr(ErrFrameMalformed, b, "digit %d is 0x%02x", i, d)
		}
		mag = mag*10 + uint32(d-'0')
	}

	status := b[offStatus]
	places := status & statusPlaces
	neg := status&statusSign != 0

	v := float64(mag) / pow10[places]
	if neg {
		v = -v
	}

	return Reading{
		Value:     v,
		Magnitude: mag,
		Decimals:  places,
		Negative:  neg,
		Status:    status,
	}, nil
}

// EncodeResponse builds a valid response frame. Used by the simulated
// transmitter and by tests.
func EncodeResponse(magnitude uint32, decimals uint8, negative bool) ([]byte, error) {
	if magnitude > MaxMagnitude {
		return nil, errors.New("frame: magnitude exceeds five digits")
	}
	if decimals > 3 {
		return nil, errors.New("frame: decimals must be 0..3")
	}

	out := make([]byte, ResponseLen)
	out[0] = HeaderHi
	out[1] = HeaderLo

	m := magnitude
	for i := digitCount - 1; i >= 0; i-- {
		out[offDigits+i] = '0' + byte(m%10)
		m /= 10
	}

	status := decimals & statusPlaces
	if negative {
		status |= statusSign
	}
	out[offStatus] = status
	out[offChecksum] = Checksum(out[:offChecksum]...)
	out[offTerminal] = Terminator

	return out, nil
}
