// internal/transport/goburrow.go
package transport

import (
	"errors"

	gserial "github.com/goburrow/serial"
)

func openGoburrow(cfg Config) (Port, error) {
	sp, err := gserial.Open(&gserial.Config{
		Address:  cfg.Name,
		BaudRate: cfg.BaudRate,
		DataBits: dataBits,
		StopBits: stopBits,
		Parity:   "N",
		Timeout:  cfg.readTimeout(),
	})
	if err != nil {
		return nil, classifyOpenError(cfg.Name, err)
	}

	return newStreamPort(sp, func(err error) bool {
		return errors.Is(err, gserial.ErrTimeout)
	}), nil
}
