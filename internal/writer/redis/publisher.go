// internal/writer/redis/publisher.go
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/tamzrod/loadcell-acquirer/internal/poller"
)

// Config for the event publisher.
type Config struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

// Message is the JSON document published for every engine event.
type Message struct {
	Type    string    `json:"type"`
	At      time.Time `json:"at"`
	Session string    `json:"session,omitempty"`
	Address uint8     `json:"address"`

	// type=reading
	Value     *float64 `json:"value,omitempty"`
	Magnitude uint32   `json:"magnitude,omitempty"`
	Decimals  uint8    `json:"decimals,omitempty"`
	Negative  bool     `json:"negative,omitempty"`

	// type=health
	Health string `json:"health,omitempty"`
	Fatal  bool   `json:"fatal,omitempty"`
	Detail string `json:"detail,omitempty"`
	Error  string `json:"error,omitempty"`

	// type=state
	State string `json:"state,omitempty"`
}

// publishClient is the subset of *goredis.Client the publisher needs.
type publishClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *goredis.IntCmd
	Close() error
}

// Publisher sends engine events to a Redis pub/sub channel.
// Pub/sub only: nothing is persisted on the Redis side.
type Publisher struct {
	client  publishClient
	channel string
}

// New connects and pings once so a bad address fails at startup.
func New(ctx context.Context, cfg Config) (*Publisher, error) {
	if cfg.Addr == "" {
		return nil, errors.New("writer redis: addr required")
	}
	if cfg.Channel == "" {
		return nil, errors.New("writer redis: channel required")
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("writer redis: ping %s: %w", cfg.Addr, err)
	}

	return &Publisher{client: client, channel: cfg.Channel}, nil
}

// Publish encodes ev and publishes it on the configured channel.
func (p *Publisher) Publish(ctx context.Context, ev poller.Event) error {
	data, err := json.Marshal(Encode(ev))
	if err != nil {
		return fmt.Errorf("writer redis: encode: %w", err)
	}

	if err := p.client.Publish(ctx, p.channel, data).Err(); err != nil {
		return fmt.Errorf("writer redis: publish: %w", err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.client.Close()
}

// Encode maps an engine event to its wire message.
func Encode(ev poller.Event) Message {
	m := Message{
		At:      ev.At,
		Session: ev.Session,
		Address: ev.Address,
	}

	switch ev.Kind {
	case poller.EventReading:
		v := ev.Reading.Value
		m.Type = "reading"
		m.Value = &v
		m.Magnitude = ev.Reading.Magnitude
		m.Decimals = ev.Reading.Decimals
		m.Negative = ev.Reading.Negative

	case poller.EventHealth:
		m.Type = "health"
		m.Health = ev.Health.String()
		m.Fatal = ev.Health.Fatal()
		m.Detail = ev.Detail
		if ev.Err != nil {
			m.Error = ev.Err.Error()
		}

	case poller.EventState:
		m.Type = "state"
		m.State = ev.State.String()
	}

	return m
}
