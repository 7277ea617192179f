// internal/writer/redis/publisher_test.go
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/tamzrod/loadcell-acquirer/internal/frame"
	"github.com/tamzrod/loadcell-acquirer/internal/poller"
)

type fakeClient struct {
	channel string
	payload []byte
	err     error
	closed  bool
}

func (f *fakeClient) Publish(ctx context.Context, channel string, message interface{}) *goredis.IntCmd {
	f.channel = channel
	f.payload, _ = message.([]byte)
	cmd := goredis.NewIntCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
	} else {
		cmd.SetVal(1)
	}
	return cmd
}

func (f *fakeClient) Close() error {
	f.closed = true
	return nil
}

func TestPublish_Reading(t *testing.T) {
	fc := &fakeClient{}
	p := &Publisher{client: fc, channel: "loadcell"}

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	ev := poller.Event{
		Kind:    poller.EventReading,
		At:      at,
		Session: "abc",
		Address: 0x12,
		Reading: frame.Reading{Value: -1.25, Magnitude: 125, Decimals: 2, Negative: true},
	}

	if err := p.Publish(context.Background(), ev); err != nil {
		t.Fatalf("Publish() err=%v", err)
	}
	if fc.channel != "loadcell" {
		t.Fatalf("channel: got %q", fc.channel)
	}

	var m Message
	if err := json.Unmarshal(fc.payload, &m); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if m.Type != "reading" || m.Value == nil || *m.Value != -1.25 {
		t.Fatalf("message: %+v", m)
	}
	if m.Address != 0x12 || m.Session != "abc" || !m.At.Equal(at) {
		t.Fatalf("envelope: %+v", m)
	}
}

func TestPublish_ZeroReadingKeepsValue(t *testing.T) {
	m := Encode(poller.Event{Kind: poller.EventReading})
	if m.Value == nil || *m.Value != 0 {
		t.Fatalf("zero reading must carry value 0")
	}
}

func TestEncode_HealthAndState(t *testing.T) {
	h := Encode(poller.Event{
		Kind:   poller.EventHealth,
		Health: poller.HealthSensorUnresponsive,
		Detail: "3 consecutive misses",
		Err:    poller.ErrSensorUnresponsive,
	})
	if h.Type != "health" || h.Health != "sensor_unresponsive" || !h.Fatal || h.Error == "" {
		t.Fatalf("health: %+v", h)
	}
	if h.Value != nil {
		t.Fatalf("health carries a value")
	}

	s := Encode(poller.Event{Kind: poller.EventState, State: poller.StateFaulted})
	if s.Type != "state" || s.State != "faulted" {
		t.Fatalf("state: %+v", s)
	}
}

func TestPublish_Error(t *testing.T) {
	fc := &fakeClient{err: errors.New("down")}
	p := &Publisher{client: fc, channel: "c"}

	if err := p.Publish(context.Background(), poller.Event{Kind: poller.EventState}); err == nil {
		t.Fatalf("expected publish error")
	}
	_ = p.Close()
	if !fc.closed {
		t.Fatalf("client not closed")
	}
}

func TestNew_RequiresAddrAndChannel(t *testing.T) {
	if _, err := New(context.Background(), Config{Channel: "c"}); err == nil {
		t.Fatalf("expected error for empty addr")
	}
	if _, err := New(context.Background(), Config{Addr: "localhost:6379"}); err == nil {
		t.Fatalf("expected error for empty channel")
	}
}
