// internal/frame/command.go
package frame

// Wire constants shared by command and response frames.
// These values define the protocol and MUST NOT be configurable.
const (
	// Terminator ends every frame in both directions.
	Terminator byte = 0x0D

	// CommandLen is the fixed size of an outgoing command frame.
	CommandLen = 5

	// CmdReadWeight requests the instantaneous weight.
	CmdReadWeight byte = 0x42

	// CmdWake is the wake variant of the probe command.
	CmdWake byte = 0x44

	// ParamReadWeight is the parameter byte sent with CmdReadWeight.
	ParamReadWeight byte = 0x3F
)

// Command is one outgoing command frame.
//
// Layout:
//
//	Address(1) Code(1) Param(1) Checksum(1) Terminator(1)
type Command struct {
	Address  byte
	Code     byte
	Param    byte
	Checksum byte
}

// BuildCommand constructs a command frame. No failure path.
func BuildCommand(address, code, param byte) Command {
	return Command{
		Address:  address,
		Code:     code,
		Param:    param,
		Checksum: Checksum(address, code, param),
	}
}

// ReadWeight is the steady-state poll command for one device.
func ReadWeight(address byte) Command {
	return BuildCommand(address, CmdReadWeight, ParamReadWeight)
}

// Bytes returns the 5-byte wire form.
func (c Command) Bytes() []byte {
	return []byte{c.Address, c.Code, c.Param, c.Checksum, Terminator}
}

// Checksum is the 7-bit additive sum of b.
// A result equal to the terminator is bumped by one so it never
// appears inside a frame body.
func Checksum(b ...byte) byte {
	var sum int
	for _, v := range b {
		sum += int(v)
	}
	cs := byte(sum & 0x7F)
	if cs == Terminator {
		cs++
	}
	return cs
}
