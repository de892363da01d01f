package types

// Minimal JSON config structures.

type DriverConfig struct {
	Version    int       `json:"version"`
	Port       PortCfg   `json:"port"`
	Framer     FramerCfg `json:"framer"`
	HeartbeatS int       `json:"heartbeat_s,omitempty"` // liveness publish interval
}

type PortCfg struct {
	ID          string `json:"id"`            // "mu0"
	GPIOBase    uint64 `json:"gpio_base"`     // physical base of the GPIO block
	AUXBase     uint64 `json:"aux_base"`      // physical base of the AUX block
	CoreClockHz uint32 `json:"core_clock_hz"` // Mini UART input clock
	Baud        uint32 `json:"baud"`
	TxBudgetMS  int    `json:"tx_budget_ms,omitempty"` // bound on the TX-ready spin
	EndpointDir string `json:"endpoint_dir,omitempty"` // where uart_tx/uart_rx live
}

type FramerCfg struct {
	InitialWaitMS int `json:"initial_wait_ms,omitempty"` // budget before the first byte
	SilenceMS     int `json:"silence_ms,omitempty"`      // inter-byte gap that ends a message
	PollMS        int `json:"poll_ms,omitempty"`         // polling resolution
	MaxMessage    int `json:"max_message,omitempty"`     // message capacity in bytes
}
