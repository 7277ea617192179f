// internal/writer/types.go
package writer

import (
	"context"

	"github.com/tamzrod/loadcell-acquirer/internal/poller"
)

// StatusPlan places one device status block in Modbus holding registers.
type StatusPlan struct {
	Endpoint   string
	UnitID     uint8
	BaseSlot   uint16
	DeviceName string
}

// Plan is the fully-built sink plan for one transmitter.
type Plan struct {
	Status  *StatusPlan
	Channel string
}

// endpointClient is the exact contract the status writer uses.
type endpointClient interface {
	WriteRegisters(unitID uint8, addr uint16, regs []uint16) error
}

// Publisher forwards engine events to an external bus.
type Publisher interface {
	Publish(ctx context.Context, ev poller.Event) error
}
