// internal/config/validate.go
package config

import (
	"errors"
	"fmt"

	"github.com/tamzrod/loadcell-acquirer/internal/transport"
)

// BaudRates is the set of line speeds the transmitter supports.
var BaudRates = []int{2400, 4800, 9600, 19200, 38400, 57600, 115200}

func knownDriver(name string) bool {
	if name == "" {
		return true
	}
	for _, d := range transport.Drivers {
		if d == name {
			return true
		}
	}
	return false
}

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
// Zero values that Normalize fills with defaults are accepted here.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config: nil")
	}

	// ------------------------------------------------------------
	// SESSION
	// ------------------------------------------------------------

	s := cfg.Session

	if !knownDriver(s.Driver) {
		return fmt.Errorf("session: unknown driver %q", s.Driver)
	}
	if s.Port == "" && s.Driver != transport.DriverSim {
		return errors.New("session: port is required")
	}
	if s.BaudRate != 0 && !validBaud(s.BaudRate) {
		return fmt.Errorf("session: baud_rate %d not in %v", s.BaudRate, BaudRates)
	}
	if s.SamplingIntervalMs < 0 {
		return fmt.Errorf("session: sampling_interval_ms must be > 0, got %d", s.SamplingIntervalMs)
	}
	if s.RestartDelayMs < 0 {
		return fmt.Errorf("session: restart_delay_ms must be >= 0, got %d", s.RestartDelayMs)
	}

	// ------------------------------------------------------------
	// ENGINE
	// ------------------------------------------------------------

	e := cfg.Engine

	switch e.ProbeCommand {
	case 0, 0x42, 0x44:
	default:
		return fmt.Errorf("engine: probe_command 0x%02x must be 0x42 or 0x44", e.ProbeCommand)
	}

	for name, v := range map[string]int{
		"probe_timeout_ms":       e.ProbeTimeoutMs,
		"response_timeout_ms":    e.ResponseTimeoutMs,
		"poll_granularity_ms":    e.PollGranularityMs,
		"max_consecutive_misses": e.MaxConsecutiveMisses,
		"stale_after_ms":         e.StaleAfterMs,
	} {
		if v < 0 {
			return fmt.Errorf("engine: %s must be >= 0, got %d", name, v)
		}
	}

	if e.PollGranularityMs > 0 && e.ResponseTimeoutMs > 0 && e.PollGranularityMs > e.ResponseTimeoutMs {
		return fmt.Errorf(
			"engine: poll_granularity_ms %d exceeds response_timeout_ms %d",
			e.PollGranularityMs,
			e.ResponseTimeoutMs,
		)
	}

	// ------------------------------------------------------------
	// LOGGING / MONITOR
	// ------------------------------------------------------------

	switch cfg.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("log: unknown format %q", cfg.Log.Format)
	}
	switch cfg.Log.Output {
	case "", "stdout", "stderr":
	case "file":
		if cfg.Log.FilePath == "" {
			return errors.New("log: output=file requires file_path")
		}
	default:
		return fmt.Errorf("log: unknown output %q", cfg.Log.Output)
	}

	if cfg.Monitor.Enabled && (cfg.Monitor.MetricsPort < 0 || cfg.Monitor.MetricsPort > 65535) {
		return fmt.Errorf("monitor: metrics_port %d out of range", cfg.Monitor.MetricsPort)
	}

	// ------------------------------------------------------------
	// SINKS (OPT-IN)
	// ------------------------------------------------------------

	if m := cfg.Mirror; m != nil {
		if m.Endpoint == "" {
			return errors.New("mirror: endpoint is required")
		}
		// device_name sanity (ASCII only)
		for i := 0; i < len(m.DeviceName); i++ {
			if m.DeviceName[i] > 0x7F {
				return errors.New("mirror: device_name must contain ASCII characters only")
			}
		}
		if m.TimeoutMs < 0 {
			return fmt.Errorf("mirror: timeout_ms must be >= 0, got %d", m.TimeoutMs)
		}
	}

	if r := cfg.Redis; r != nil {
		if r.Addr == "" {
			return errors.New("redis: addr is required")
		}
	}

	return nil
}

func validBaud(b int) bool {
	for _, v := range BaudRates {
		if v == b {
			return true
		}
	}
	return false
}
