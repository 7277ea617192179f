// internal/frame/frame_test.go
package frame

import (
	"bytes"
	"errors"
	"math"
	"testing"
)

// helper: frame with explicit digits and status, checksum computed
func rawFrame(digits string, status byte) []byte {
	b := []byte{HeaderHi, HeaderLo}
	b = append(b, digits...)
	b = append(b, status)
	b = append(b, Checksum(b...))
	b = append(b, Terminator)
	return b
}

// ---- command ----

func TestBuildCommand_Layout(t *testing.T) {
	c := BuildCommand(0x12, CmdReadWeight, ParamReadWeight)
	got := c.Bytes()

	want := []byte{0x12, 0x42, 0x3F, (0x12 + 0x42 + 0x3F) & 0x7F, 0x0D}
	if !bytes.Equal(got, want) {
		t.Fatalf("command bytes: got=% x want=% x", got, want)
	}
}

func TestChecksum_CollisionBumped(t *testing.T) {
	// 0x05 + 0x08 = 0x0D -> must become 0x0E
	if cs := Checksum(0x05, 0x08, 0x00); cs != 0x0E {
		t.Fatalf("collision checksum: got=0x%02x want=0x0e", cs)
	}
	// 0x8D & 0x7F = 0x0D as well
	if cs := Checksum(0x80, 0x0D); cs != 0x0E {
		t.Fatalf("masked collision checksum: got=0x%02x want=0x0e", cs)
	}
}

func TestChecksum_RangeAllTriples(t *testing.T) {
	for a := 0; a < 256; a += 3 {
		for c := 0; c < 256; c += 5 {
			for p := 0; p < 256; p += 7 {
				cs := Checksum(byte(a), byte(c), byte(p))
				if cs > 0x7F || cs == Terminator {
					t.Fatalf("checksum(%d,%d,%d)=0x%02x out of range", a, c, p, cs)
				}
				if again := Checksum(byte(a), byte(c), byte(p)); again != cs {
					t.Fatalf("checksum not deterministic: 0x%02x vs 0x%02x", cs, again)
				}
			}
		}
	}
}

// ---- response ----

func TestParseResponse_Scenario125(t *testing.T) {
	r, err := ParseResponse(rawFrame("00125", 0x02))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Magnitude != 125 {
		t.Fatalf("magnitude: got=%d want=125", r.Magnitude)
	}
	if r.Value != 1.25 {
		t.Fatalf("value: got=%v want=1.25", r.Value)
	}
}

func TestParseResponse_ScenarioNegative(t *testing.T) {
	r, err := ParseResponse(rawFrame("00125", 0x02|0x04))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Value != -1.25 || !r.Negative {
		t.Fatalf("value: got=%v neg=%v want=-1.25", r.Value, r.Negative)
	}
}

func TestParseResponse_DecimalPlaces(t *testing.T) {
	want := []float64{12345, 1234.5, 123.45, 12.345}
	for places := 0; places <= 3; places++ {
		for _, sign := range []byte{0, 0x04} {
			r, err := ParseResponse(rawFrame("12345", byte(places)|sign))
			if err != nil {
				t.Fatalf("places=%d: %v", places, err)
			}
			w := want[places]
			if sign != 0 {
				w = -w
			}
			if r.Value != w {
				t.Fatalf("places=%d sign=%d: got=%v want=%v", places, sign, r.Value, w)
			}
		}
	}
}

func TestParseResponse_TooShort(t *testing.T) {
	full := rawFrame("00125", 0x02)
	for n := 0; n < ResponseLen; n++ {
		_, err := ParseResponse(full[:n])
		if !errors.Is(err, ErrFrameTooShort) {
			t.Fatalf("len=%d: expected ErrFrameTooShort, got %v", n, err)
		}
	}
}

func TestParseResponse_BadTerminator(t *testing.T) {
	for _, last := range []byte{0x00, 0x0A, 0x0C, 0x0E, 0xFF} {
		b := rawFrame("00125", 0x02)
		b[ResponseLen-1] = last
		_, err := ParseResponse(b)
		if !errors.Is(err, ErrFrameMalformed) {
			t.Fatalf("terminator 0x%02x: expected ErrFrameMalformed, got %v", last, err)
		}
	}
}

func TestParseResponse_BadHeader(t *testing.T) {
	for i := 0; i < 2; i++ {
		b := rawFrame("00125", 0x02)
		b[i]++
		_, err := ParseResponse(b)
		if !errors.Is(err, ErrFrameMalformed) {
			t.Fatalf("header byte %d: expected ErrFrameMalformed, got %v", i, err)
		}
	}
}

func TestParseResponse_SingleByteFlipDetected(t *testing.T) {
	orig := rawFrame("04711", 0x01)

	for i := 2; i <= 8; i++ {
		b := append([]byte(nil), orig...)
		b[i]++

		// Incrementing a covered byte shifts the 7-bit sum by one, which only
		// goes unnoticed when the adjusted collision value swallows it.
		if i < 8 && Checksum(b[:8]...) == orig[8] {
			continue
		}

		_, err := ParseResponse(b)
		if !errors.Is(err, ErrChecksumMismatch) {
			t.Fatalf("offset %d: expected ErrChecksumMismatch, got %v", i, err)
		}

		var de *DecodeError
		if !errors.As(err, &de) || len(de.Raw) != ResponseLen {
			t.Fatalf("offset %d: expected *DecodeError with raw bytes, got %#v", i, err)
		}
	}
}

func TestParseResponse_NonDigitRejected(t *testing.T) {
	_, err := ParseResponse(rawFrame("00A25", 0x00))
	if !errors.Is(err, ErrFrameMalformed) {
		t.Fatalf("expected ErrFrameMalformed, got %v", err)
	}
}

func TestParseResponse_TrailingBytesIgnored(t *testing.T) {
	b := append(rawFrame("00042", 0x00), 0x11, 0x42)
	r, err := ParseResponse(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Value != 42 {
		t.Fatalf("value: got=%v want=42", r.Value)
	}
}

func TestEncodeResponse_RoundTrip(t *testing.T) {
	cases := []struct {
		mag  uint32
		dec  uint8
		neg  bool
		want float64
	}{
		{0, 0, false, 0},
		{125, 2, false, 1.25},
		{125, 2, true, -1.25},
		{99999, 3, false, 99.999},
		{50000, 1, true, -5000},
		{7, 3, false, 0.007},
	}

	for _, tc := range cases {
		b, err := EncodeResponse(tc.mag, tc.dec, tc.neg)
		if err != nil {
			t.Fatalf("encode %+v: %v", tc, err)
		}
		r, err := ParseResponse(b)
		if err != nil {
			t.Fatalf("parse %+v: %v", tc, err)
		}
		if math.Abs(r.Value-tc.want) > 1e-3 {
			t.Fatalf("round trip %+v: got=%v", tc, r.Value)
		}
	}
}

func TestEncodeResponse_Limits(t *testing.T) {
	if _, err := EncodeResponse(MaxMagnitude+1, 0, false); err == nil {
		t.Fatalf("expected error for six-digit magnitude")
	}
	if _, err := EncodeResponse(1, 4, false); err == nil {
		t.Fatalf("expected error for decimals=4")
	}
}

func FuzzParseResponse(f *testing.F) {
	f.Add(rawFrame("00125", 0x02))
	f.Add(rawFrame("99999", 0x07))
	f.Add([]byte{0x11, 0x42, 0x0D})

	f.Fuzz(func(t *testing.T, b []byte) {
		r, err := ParseResponse(b)
		if err != nil {
			return
		}
		if r.Magnitude > MaxMagnitude || r.Decimals > 3 {
			t.Fatalf("decoded out of range: %+v", r)
		}
		if math.Abs(r.Value) > MaxMagnitude {
			t.Fatalf("value out of range: %v", r.Value)
		}
	})
}
