// internal/status/encode.go
package status

import "math"

// Encode converts a Snapshot into a full device status block.
// Device name slots are left zero; see EncodeDeviceName.
// No IO. No side effects.
func Encode(s Snapshot) []uint16 {
	regs := make([]uint16, SlotsPerDevice)

	regs[SlotHealthCode] = s.Health
	regs[SlotLastErrorCode] = s.LastErrorCode
	regs[SlotSecondsInError] = s.SecondsInError
	regs[SlotConnState] = s.ConnState

	copy(regs[SlotWeightHi:SlotWeightLo+1], WeightWords(s.Weight))
	regs[SlotRawHi], regs[SlotRawLo] = splitU32(s.Raw)
	regs[SlotDecimals] = s.Decimals
	if s.Negative {
		regs[SlotSign] = 1
	}

	return regs
}

// EncodeDeviceName packs up to 16 ASCII characters into 8 registers.
// Each register stores two bytes, big-endian. Non-printable bytes become '?'.
func EncodeDeviceName(name string) []uint16 {
	out := make([]uint16, SlotDeviceNameSlots)

	b := []byte(name)
	if len(b) > DeviceNameMaxChars {
		b = b[:DeviceNameMaxChars]
	}

	for i := 0; i < len(b); i++ {
		if b[i] < 0x20 || b[i] > 0x7E {
			b[i] = '?'
		}
	}

	for i := 0; i < DeviceNameMaxChars; i += 2 {
		var hi, lo byte
		if i < len(b) {
			hi = b[i]
		}
		if i+1 < len(b) {
			lo = b[i+1]
		}
		out[i/2] = uint16(hi)<<8 | uint16(lo)
	}

	return out
}

// WeightWords returns the float32 register pair for v, high word first.
func WeightWords(v float32) []uint16 {
	hi, lo := splitU32(math.Float32bits(v))
	return []uint16{hi, lo}
}

func splitU32(v uint32) (hi, lo uint16) {
	return uint16(v >> 16), uint16(v)
}
