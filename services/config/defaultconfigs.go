package config

// -----------------------------------------------------------------------------
// Embedded configuration
//
// One entry per supported board. Values mirror types.DriverConfig; a JSON
// file passed to Load overlays them.
// -----------------------------------------------------------------------------

const cfgBCM2711 = `{
  "version": 1,
  "port": {
      "id": "mu0",
      "gpio_base": 4263510016,
      "aux_base": 4263596032,
      "core_clock_hz": 500000000,
      "baud": 9600,
      "endpoint_dir": "/run"
  },
  "framer": {
      "initial_wait_ms": 1000,
      "silence_ms": 300,
      "poll_ms": 1,
      "max_message": 255
  },
  "heartbeat_s": 10
}`

var embeddedConfigs = map[string][]byte{
	"bcm2711": []byte(cfgBCM2711),
}
