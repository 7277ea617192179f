// internal/config/normalize.go
package config

import "github.com/tamzrod/loadcell-acquirer/internal/transport"

// Defaults applied by Normalize.
const (
	DefaultDriver             = transport.DriverBugst
	DefaultBaudRate           = 9600
	DefaultSamplingIntervalMs = 1000
	DefaultDeviceAddress      = 0x12

	DefaultProbeCommand      = 0x42
	DefaultProbeParameter    = 0x3F
	DefaultProbeTimeoutMs    = 1000
	DefaultResponseTimeoutMs = 1000
	DefaultPollGranularityMs = 10
	DefaultMaxMisses         = 3
	DefaultStaleAfterMs      = 3000

	DefaultMetricsPort   = 9090
	DefaultMirrorTimeout = 1000
	DefaultRedisChannel  = "loadcell"

	deviceNameMaxChars = 16
)

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	s := &cfg.Session
	if s.Driver == "" {
		s.Driver = DefaultDriver
	}
	if s.BaudRate == 0 {
		s.BaudRate = DefaultBaudRate
	}
	if s.SamplingIntervalMs == 0 {
		s.SamplingIntervalMs = DefaultSamplingIntervalMs
	}
	if s.DeviceAddress == 0 {
		s.DeviceAddress = DefaultDeviceAddress
	}

	e := &cfg.Engine
	if e.ProbeCommand == 0 {
		e.ProbeCommand = DefaultProbeCommand
	}
	if e.ProbeParameter == 0 {
		e.ProbeParameter = DefaultProbeParameter
	}
	if e.ProbeTimeoutMs == 0 {
		e.ProbeTimeoutMs = DefaultProbeTimeoutMs
	}
	if e.ResponseTimeoutMs == 0 {
		e.ResponseTimeoutMs = DefaultResponseTimeoutMs
	}
	if e.PollGranularityMs == 0 {
		e.PollGranularityMs = DefaultPollGranularityMs
	}
	if e.MaxConsecutiveMisses == 0 {
		e.MaxConsecutiveMisses = DefaultMaxMisses
	}
	if e.StaleAfterMs == 0 {
		e.StaleAfterMs = DefaultStaleAfterMs
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}

	if cfg.Monitor.Enabled && cfg.Monitor.MetricsPort == 0 {
		cfg.Monitor.MetricsPort = DefaultMetricsPort
	}

	if m := cfg.Mirror; m != nil {
		// Truncate to the register space reserved for the name.
		if len(m.DeviceName) > deviceNameMaxChars {
			m.DeviceName = m.DeviceName[:deviceNameMaxChars]
		}
		if m.TimeoutMs == 0 {
			m.TimeoutMs = DefaultMirrorTimeout
		}
	}

	if r := cfg.Redis; r != nil && r.Channel == "" {
		r.Channel = DefaultRedisChannel
	}
}
