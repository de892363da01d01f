// Package heartbeat periodically publishes a retained liveness message so
// observers on the bus can tell whether the daemon is still running.
package heartbeat

import (
	"context"
	"log"
	"time"

	"github.com/SupriyaMishraWork/rpi-os-driver/bus"
	"github.com/SupriyaMishraWork/rpi-os-driver/x/timex"
)

var (
	topicConfigHeartbeat = bus.Topic{"config", "heartbeat"}
	topicHeartbeatState  = bus.Topic{"heartbeat", "state"}
)

const defaultInterval = 10 * time.Second

type Service struct{}

func (s *Service) beat(conn *bus.Connection, seq uint64) {
	conn.Publish(conn.NewMessage(topicHeartbeatState,
		map[string]any{"seq": seq, "ts_ms": timex.NowMs()}, true))
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(topicConfigHeartbeat)
	defer conn.Unsubscribe(cfgSub)

	tick := time.NewTicker(defaultInterval)
	defer tick.Stop()

	var seq uint64
	s.beat(conn, seq)

	for {
		select {
		case <-ctx.Done():
			log.Print("heartbeat: stopping")
			return
		case <-tick.C:
			seq++
			s.beat(conn, seq)
		case msg := <-cfgSub.Channel():
			if iv, ok := intervalSeconds(msg.Payload); ok && iv > 0 {
				tick.Reset(time.Duration(iv) * time.Second)
				log.Printf("heartbeat: interval set to %ds", iv)
			}
		}
	}
}

// intervalSeconds digs the interval out of a config payload, which arrives
// either as a native map from the config service or as decoded JSON.
func intervalSeconds(payload any) (int, bool) {
	m, ok := payload.(map[string]any)
	if !ok {
		return 0, false
	}
	switch v := m["interval"].(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	}
	return 0, false
}

// Start launches the heartbeat loop on its own goroutine.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	go s.serviceLoop(ctx, conn)
	return nil
}
