// internal/writer/builder.go
package writer

import (
	"context"
	"time"

	cfg "github.com/tamzrod/loadcell-acquirer/internal/config"
	wmodbus "github.com/tamzrod/loadcell-acquirer/internal/writer/modbus"
	wredis "github.com/tamzrod/loadcell-acquirer/internal/writer/redis"
)

// BuildPlan converts the sink sections of a validated config into a Plan.
func BuildPlan(c *cfg.Config) Plan {
	var plan Plan

	if m := c.Mirror; m != nil {
		plan.Status = &StatusPlan{
			Endpoint:   m.Endpoint,
			UnitID:     m.UnitID,
			BaseSlot:   m.BaseSlot,
			DeviceName: m.DeviceName,
		}
	}
	if r := c.Redis; r != nil {
		plan.Channel = r.Channel
	}

	return plan
}

// BuildRunnerOptions creates the sink clients for a config and returns the
// matching Runner options plus one closer for all of them.
func BuildRunnerOptions(ctx context.Context, c *cfg.Config) ([]RunnerOption, func() error, error) {
	plan := BuildPlan(c)

	var opts []RunnerOption
	var closers []func() error

	closeAll := func() error {
		var last error
		for _, fn := range closers {
			if err := fn(); err != nil {
				last = err
			}
		}
		return last
	}

	if plan.Status != nil {
		cli, err := wmodbus.NewEndpointClient(wmodbus.Config{
			Endpoint: plan.Status.Endpoint,
			Timeout:  time.Duration(c.Mirror.TimeoutMs) * time.Millisecond,
		})
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, cli.Close)

		sw, _ := NewDeviceStatusWriter(plan, cli)
		opts = append(opts, WithStatusWriter(sw))
	}

	if r := c.Redis; r != nil {
		pub, err := wredis.New(ctx, wredis.Config{
			Addr:     r.Addr,
			Password: r.Password,
			DB:       r.DB,
			Channel:  plan.Channel,
		})
		if err != nil {
			_ = closeAll()
			return nil, nil, err
		}
		closers = append(closers, pub.Close)
		opts = append(opts, WithPublisher(pub))
	}

	return opts, closeAll, nil
}
