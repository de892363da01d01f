// services/config/config.go
package config

import (
	"encoding/json"
	"errors"
	"os"

	"github.com/SupriyaMishraWork/rpi-os-driver/bus"
	"github.com/SupriyaMishraWork/rpi-os-driver/types"
)

const configPrefix = "config"

// EmbeddedConfigLookup allows overriding how board configs are resolved.
var EmbeddedConfigLookup = func(board string) ([]byte, bool) {
	b, ok := embeddedConfigs[board]
	return b, ok
}

// Load resolves the driver configuration for a board, optionally overlaid
// with a JSON file.
func Load(board, path string) (types.DriverConfig, error) {
	var cfg types.DriverConfig

	raw, ok := EmbeddedConfigLookup(board)
	if !ok || len(raw) == 0 {
		return cfg, errors.New("no embedded config for board: " + board)
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return cfg, err
	}
	if path != "" {
		overlay, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := json.Unmarshal(overlay, &cfg); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

// PublishSections publishes each section of the configuration as a retained
// message under config/<section>, so services pick their part up whenever
// they subscribe.
func PublishSections(conn *bus.Connection, cfg types.DriverConfig) {
	conn.Publish(conn.NewMessage(bus.Topic{configPrefix, "serial"}, cfg, true))
	conn.Publish(conn.NewMessage(bus.Topic{configPrefix, "heartbeat"},
		map[string]any{"interval": cfg.HeartbeatS}, true))
}
