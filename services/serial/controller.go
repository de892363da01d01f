// services/serial/controller.go
package serial

import (
	"sync"
	"time"

	"tinygo.org/x/drivers"
)

// Port is what the controller needs from the peripheral: the drivers.UART
// stream surface plus byte-level receive for the framer. The Mini UART
// driver satisfies it; tests use fakes.
type Port interface {
	drivers.UART
	ReadByte() (byte, error)
}

// MaxSendBytes bounds how much of one send request reaches the wire.
const MaxSendBytes = 255

// Controller is the single long-lived owner of the peripheral. A mutex
// serializes logical operations: at most one send or one receive session
// touches the registers at a time, and it is released on every exit path.
type Controller struct {
	mu     sync.Mutex
	port   Port
	framer framer
}

func NewController(port Port, cfg FramerConfig) *Controller {
	return &Controller{
		port:   port,
		framer: framer{cfg: cfg.withDefaults(), sleep: time.Sleep},
	}
}

// Send forwards up to MaxSendBytes of p to the transmit engine and reports
// the requested count as accepted; transmission past the copy is
// fire-and-forget.
func (c *Controller) Send(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(p)
	if n > MaxSendBytes {
		n = MaxSendBytes
	}
	if _, err := c.port.Write(p[:n]); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Receive runs one framing session and returns the collected message. An
// empty result means the initial wait expired with nothing on the wire; that
// is a timeout, not an error.
func (c *Controller) Receive(max int) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.framer.receive(c.port, max), nil
}

// MaxMessage reports the framer's message capacity.
func (c *Controller) MaxMessage() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.framer.cfg.MaxMessage
}

// SetFramer replaces the receive budgets. A session already in flight
// finishes under the old budgets; the next one picks these up.
func (c *Controller) SetFramer(cfg FramerConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.framer.cfg = cfg.withDefaults()
}
