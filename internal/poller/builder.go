// internal/poller/builder.go
package poller

import (
	"time"

	cfg "github.com/tamzrod/loadcell-acquirer/internal/config"
	"github.com/tamzrod/loadcell-acquirer/internal/transport"
)

// Build constructs a Poller from a validated, normalized config and returns
// the session to Start it with. The transport is not opened here; the
// poller opens it on Start and owns it from then on.
func Build(c *cfg.Config, opts ...Option) (*Poller, SessionConfig, error) {
	opener, err := transport.Driver(c.Session.Driver)
	if err != nil {
		return nil, SessionConfig{}, err
	}

	pc := EngineConfig(c.Engine)

	p, err := New(pc, opener, opts...)
	if err != nil {
		return nil, SessionConfig{}, err
	}

	return p, SessionFromConfig(c.Session), nil
}

// EngineConfig converts the millisecond-based file config.
func EngineConfig(e cfg.EngineConfig) Config {
	pc := DefaultConfig()
	pc.ProbeCommand = e.ProbeCommand
	pc.ProbeParameter = e.ProbeParameter
	pc.ProbeTimeout = ms(e.ProbeTimeoutMs)
	pc.ResponseTimeout = ms(e.ResponseTimeoutMs)
	pc.PollGranularity = ms(e.PollGranularityMs)
	pc.MaxConsecutiveMisses = e.MaxConsecutiveMisses
	pc.StaleAfter = ms(e.StaleAfterMs)
	return pc
}

// SessionFromConfig converts the session section. Used again on reload.
func SessionFromConfig(s cfg.SessionConfig) SessionConfig {
	return SessionConfig{
		Port:             s.Port,
		BaudRate:         s.BaudRate,
		SamplingInterval: ms(s.SamplingIntervalMs),
		Address:          s.DeviceAddress,
	}
}

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }
