// internal/status/status_test.go
package status

import (
	"math"
	"testing"
)

func TestEncode_Layout(t *testing.T) {
	s := Snapshot{
		Health:         HealthOK,
		LastErrorCode:  ErrPollMiss,
		SecondsInError: 7,
		ConnState:      2,
		Weight:         -1.25,
		Raw:            125,
		Decimals:       2,
		Negative:       true,
	}

	regs := Encode(s)
	if len(regs) != SlotsPerDevice {
		t.Fatalf("block size: got %d want %d", len(regs), SlotsPerDevice)
	}

	if regs[SlotHealthCode] != HealthOK || regs[SlotLastErrorCode] != ErrPollMiss {
		t.Fatalf("health/error: got %d/%d", regs[SlotHealthCode], regs[SlotLastErrorCode])
	}
	if regs[SlotSecondsInError] != 7 || regs[SlotConnState] != 2 {
		t.Fatalf("seconds/state: got %d/%d", regs[SlotSecondsInError], regs[SlotConnState])
	}

	bits := uint32(regs[SlotWeightHi])<<16 | uint32(regs[SlotWeightLo])
	if got := math.Float32frombits(bits); got != -1.25 {
		t.Fatalf("weight: got %v", got)
	}
	if raw := uint32(regs[SlotRawHi])<<16 | uint32(regs[SlotRawLo]); raw != 125 {
		t.Fatalf("raw: got %d", raw)
	}
	if regs[SlotDecimals] != 2 || regs[SlotSign] != 1 {
		t.Fatalf("decimals/sign: got %d/%d", regs[SlotDecimals], regs[SlotSign])
	}

	for _, slot := range []int{SlotReservedA, SlotReservedB} {
		if regs[slot] != 0 {
			t.Fatalf("reserved slot %d not zero", slot)
		}
	}
	for i := SlotDeviceNameStart; i <= SlotDeviceNameEnd; i++ {
		if regs[i] != 0 {
			t.Fatalf("name slot %d written by Encode", i)
		}
	}
}

func TestEncode_LargeRawUsesBothWords(t *testing.T) {
	regs := Encode(Snapshot{Raw: 99999})
	if regs[SlotRawHi] != 1 || regs[SlotRawLo] != uint16(99999-65536) {
		t.Fatalf("raw words: got %d %d", regs[SlotRawHi], regs[SlotRawLo])
	}
}

func TestEncodeDeviceName(t *testing.T) {
	regs := EncodeDeviceName("AB\x01")
	if regs[0] != uint16('A')<<8|uint16('B') {
		t.Fatalf("first word: got 0x%04x", regs[0])
	}
	if regs[1] != uint16('?')<<8 {
		t.Fatalf("sanitized word: got 0x%04x", regs[1])
	}
	for i := 2; i < len(regs); i++ {
		if regs[i] != 0 {
			t.Fatalf("padding word %d: got 0x%04x", i, regs[i])
		}
	}

	long := EncodeDeviceName("0123456789ABCDEFXYZ")
	if long[7] != uint16('E')<<8|uint16('F') {
		t.Fatalf("truncation: got 0x%04x", long[7])
	}
}

func TestWeightWords(t *testing.T) {
	w := WeightWords(2.5)
	if len(w) != 2 {
		t.Fatalf("words: got %d", len(w))
	}
	if got := math.Float32frombits(uint32(w[0])<<16 | uint32(w[1])); got != 2.5 {
		t.Fatalf("value: got %v", got)
	}

	regs := Encode(Snapshot{Weight: 2.5})
	if regs[SlotWeightHi] != w[0] || regs[SlotWeightLo] != w[1] {
		t.Fatalf("Encode disagrees with WeightWords")
	}
}
