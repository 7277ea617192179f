// internal/transport/driver.go
package transport

import "fmt"

// Driver names accepted in config.
const (
	DriverBugst    = "bugst"
	DriverGoburrow = "goburrow"
	DriverTarm     = "tarm"
	DriverSim      = "sim"
)

// Drivers lists every known driver name.
var Drivers = []string{DriverBugst, DriverGoburrow, DriverTarm, DriverSim}

// Driver resolves a driver name to an Opener.
// An empty name selects go.bug.st/serial.
func Driver(name string) (Opener, error) {
	switch name {
	case "", DriverBugst:
		return OpenerFunc(openBugst), nil
	case DriverGoburrow:
		return OpenerFunc(openGoburrow), nil
	case DriverTarm:
		return OpenerFunc(openTarm), nil
	case DriverSim:
		return Simulator{Base: 12500, Jitter: 40, Decimals: 2}.Opener(), nil
	default:
		return nil, fmt.Errorf("transport: unknown driver %q", name)
	}
}
