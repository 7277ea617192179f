// internal/transport/bugst.go
package transport

import (
	"errors"
	"fmt"

	"go.bug.st/serial"
)

// openBugst opens a port through go.bug.st/serial.
// Its PortError codes give the most precise open diagnosis of all drivers.
func openBugst(cfg Config) (Port, error) {
	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: dataBits,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	sp, err := serial.Open(cfg.Name, mode)
	if err != nil {
		return nil, classifyBugst(cfg.Name, err)
	}

	if err := sp.SetReadTimeout(cfg.readTimeout()); err != nil {
		_ = sp.Close()
		return nil, &OpenError{Kind: OpenOther, Port: cfg.Name, Err: fmt.Errorf("set read timeout: %w", err)}
	}

	// Boot garbage from the transmitter must not look like a probe answer.
	_ = sp.ResetInputBuffer()

	// A timed-out Read returns (0, nil); no timeout classification needed.
	return newStreamPort(sp, nil), nil
}

func classifyBugst(port string, err error) error {
	var code serial.PortErrorCode
	var pe *serial.PortError
	var pv serial.PortError

	switch {
	case errors.As(err, &pe):
		code = pe.Code()
	case errors.As(err, &pv):
		code = pv.Code()
	default:
		return classifyOpenError(port, err)
	}

	kind := OpenOther
	switch code {
	case serial.PortNotFound:
		kind = OpenPortMissing
	case serial.PermissionDenied:
		kind = OpenPermissionDenied
	case serial.PortBusy:
		kind = OpenPortInUse
	}
	return &OpenError{Kind: kind, Port: port, Err: err}
}

// ListPorts enumerates serial ports known to the OS.
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("transport: list ports: %w", err)
	}
	return ports, nil
}
