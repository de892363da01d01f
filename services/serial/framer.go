// services/serial/framer.go
package serial

import (
	"time"

	"github.com/SupriyaMishraWork/rpi-os-driver/internal/util"
	"github.com/SupriyaMishraWork/rpi-os-driver/types"
	"github.com/SupriyaMishraWork/rpi-os-driver/x/timex"
)

// The hardware has no end-of-message marker, so inbound bytes are grouped
// into messages by silence alone: a long budget tolerates a slow-starting
// sender before the first byte, a shorter one decides that a pause after the
// last byte means the message is finished. At 9600 baud a character occupies
// ~1.04 ms on the wire, so the 300 ms default gap is far above any inter-byte
// spacing the peripheral itself can produce.

// FramerConfig carries the receive framing budgets. Zero values select the
// defaults; all of them are explicit so they can be tuned and tested.
type FramerConfig struct {
	InitialWait time.Duration // budget before the first byte (default 1s)
	Silence     time.Duration // inter-byte gap that ends the message (default 300ms)
	Poll        time.Duration // polling resolution (default 1ms)
	MaxMessage  int           // message capacity in bytes (default 255)
}

const (
	defaultInitialWait = time.Second
	defaultSilence     = 300 * time.Millisecond
	defaultPoll        = time.Millisecond
	defaultMaxMessage  = 255
)

func (c FramerConfig) withDefaults() FramerConfig {
	if c.InitialWait <= 0 {
		c.InitialWait = defaultInitialWait
	}
	if c.Silence <= 0 {
		c.Silence = defaultSilence
	}
	if c.Poll <= 0 {
		c.Poll = defaultPoll
	}
	if c.MaxMessage <= 0 {
		c.MaxMessage = defaultMaxMessage
	}
	return c
}

// FramerFromCfg converts the millisecond fields of the config file into
// budgets. Zero fields fall through to the defaults.
func FramerFromCfg(c types.FramerCfg) FramerConfig {
	return FramerConfig{
		InitialWait: time.Duration(c.InitialWaitMS) * time.Millisecond,
		Silence:     time.Duration(c.SilenceMS) * time.Millisecond,
		Poll:        time.Duration(c.PollMS) * time.Millisecond,
		MaxMessage:  c.MaxMessage,
	}
}

// ForBaud raises an explicit silence budget to at least two character times
// on the wire, so a configured gap can never split a single in-flight burst.
// Zero silence still selects the default.
func (c FramerConfig) ForBaud(baud uint32) FramerConfig {
	if baud == 0 || c.Silence <= 0 {
		return c
	}
	if floor := 2 * timex.FrameDuration(baud); c.Silence < floor {
		c.Silence = floor
	}
	return c
}

type framer struct {
	cfg   FramerConfig
	sleep func(time.Duration)
}

// receive runs one framing session and returns the collected message, which
// is empty when the initial wait expires with no data. A session holds no
// state beyond its own buffer and silence counter; every call starts fresh.
func (f *framer) receive(port Port, max int) []byte {
	cfg := f.cfg
	limit := util.Clamp(max, 1, cfg.MaxMessage)

	// Phase one: wait for the first byte.
	waited := time.Duration(0)
	for port.Buffered() == 0 {
		if waited >= cfg.InitialWait {
			return nil
		}
		f.sleep(cfg.Poll)
		waited += cfg.Poll
	}

	// Phase two: drain fast while data is ready, otherwise count silence
	// ticks until the gap budget says the message is complete.
	buf := make([]byte, 0, limit)
	silent := time.Duration(0)
	for len(buf) < limit {
		if port.Buffered() > 0 {
			b, err := port.ReadByte()
			if err != nil {
				continue
			}
			buf = append(buf, b)
			silent = 0
			continue
		}
		if silent >= cfg.Silence {
			break
		}
		f.sleep(cfg.Poll)
		silent += cfg.Poll
	}
	return buf
}
