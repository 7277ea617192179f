// internal/transport/tarm.go
package transport

import (
	"errors"
	"io"

	tserial "github.com/tarm/serial"
)

func openTarm(cfg Config) (Port, error) {
	sp, err := tserial.OpenPort(&tserial.Config{
		Name:        cfg.Name,
		Baud:        cfg.BaudRate,
		Size:        dataBits,
		Parity:      tserial.ParityNone,
		StopBits:    tserial.Stop1,
		ReadTimeout: cfg.readTimeout(),
	})
	if err != nil {
		return nil, classifyOpenError(cfg.Name, err)
	}

	// tarm surfaces an expired VTIME read as io.EOF on posix.
	return newStreamPort(sp, func(err error) bool {
		return errors.Is(err, io.EOF)
	}), nil
}
