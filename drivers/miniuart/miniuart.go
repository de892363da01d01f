// drivers/miniuart/miniuart.go

// Package miniuart drives the BCM2711 Mini UART through its registers, with
// no interrupt support. Everything is polled: the transmitter spins on the
// line-status "holding register empty" bit, the receiver on "data ready".
// The peripheral is brought up once, fixed at 8N1, and owned by a single
// controller for the life of the process.
package miniuart

import (
	"errors"
	"time"

	"tinygo.org/x/drivers"

	"github.com/SupriyaMishraWork/rpi-os-driver/errcode"
	"github.com/SupriyaMishraWork/rpi-os-driver/internal/mmio"
)

// ErrRxEmpty is returned by ReadByte when no byte is waiting.
var ErrRxEmpty = errors.New("miniuart: rx fifo empty")

const (
	defaultClockHz      = 500_000_000 // VPU core clock feeding the Mini UART
	defaultBaud         = 9600
	defaultTxBudget     = time.Second
	defaultSettleCycles = 150
)

// Config carries the fixed bring-up parameters.
type Config struct {
	ClockHz      uint32        // input clock; 0 means the BCM2711 core clock
	Baud         uint32        // 0 means 9600
	TxBudget     time.Duration // bound on the TX-ready spin; 0 means 1s
	SettleCycles int           // pad settle spin after pin mux; 0 means 150
}

// MiniUART is the register-level driver. It satisfies drivers.UART plus a
// byte-level receive, so the layers above depend on interfaces, not on this
// type.
type MiniUART struct {
	gpio mmio.Device32
	aux  mmio.Device32
	cfg  Config
}

var _ drivers.UART = (*MiniUART)(nil)

// New wires a MiniUART over the two mapped register windows. The peripheral
// is untouched until Configure runs.
func New(gpio, aux mmio.Device32, cfg Config) *MiniUART {
	if cfg.ClockHz == 0 {
		cfg.ClockHz = defaultClockHz
	}
	if cfg.Baud == 0 {
		cfg.Baud = defaultBaud
	}
	if cfg.TxBudget <= 0 {
		cfg.TxBudget = defaultTxBudget
	}
	return &MiniUART{gpio: gpio, aux: aux, cfg: cfg}
}

// BaudDivisor computes the Mini UART divisor for a clock/baud pair. The
// division truncates and the register wants the result minus one.
func BaudDivisor(clockHz, baud uint32) uint32 {
	return clockHz/(baud*8) - 1
}

// Baud reports the configured bit rate.
func (u *MiniUART) Baud() uint32 { return u.cfg.Baud }

// Configure routes the pins and runs the one-shot register sequence that
// brings the UART from power-on state to a working 8N1 port. The sequence is
// linear and fire-and-forget: the hardware gives no status to check, so
// correctness shows up only as bytes on the wire.
func (u *MiniUART) Configure() error {
	// Pin routing strictly precedes UART register writes.
	u.configurePins()

	// Enable the Mini UART sub-block. SPI1/SPI2 share this register, so only
	// bit 0 may change.
	u.aux.Write32(regAUXEnables, u.aux.Read32(regAUXEnables)|auxEnableMiniUART)

	// Hold TX/RX off while the line is configured.
	u.aux.Write32(regMUCNTL, 0)

	// No interrupts: this driver polls.
	u.aux.Write32(regMUIER, 0)

	// Clear both FIFOs. Two writes, receive side first; each bit addresses a
	// different FIFO.
	u.aux.Write32(regMUIIR, iirClearRX)
	u.aux.Write32(regMUIIR, iirClearTX)

	// 8-bit, no parity. The only format this block supports.
	u.aux.Write32(regMULCR, lcr8Bit)

	// No modem lines on a 2-wire UART.
	u.aux.Write32(regMUMCR, 0)

	u.aux.Write32(regMUBAUD, BaudDivisor(u.cfg.ClockHz, u.cfg.Baud))

	u.aux.Write32(regMUCNTL, cntlEnableTXRX)

	// All of the above must be visible before readiness is announced.
	u.aux.Barrier()
	return nil
}

// WriteByte sends one byte, translating LF to CR LF. This is the only layer
// that performs the translation. The wait for transmitter space is bounded
// by the configured budget; an unresponsive peripheral surfaces as
// errcode.TxTimeout instead of a hang.
func (u *MiniUART) WriteByte(b byte) error {
	if b == '\n' {
		if err := u.writeRaw('\r'); err != nil {
			return err
		}
	}
	return u.writeRaw(b)
}

func (u *MiniUART) writeRaw(b byte) error {
	deadline := time.Now().Add(u.cfg.TxBudget)
	for u.aux.Read32(regMULSR)&lsrTXEmpty == 0 {
		if time.Now().After(deadline) {
			return &errcode.E{C: errcode.TxTimeout, Op: "miniuart.write"}
		}
	}
	u.aux.Write32(regMUIO, uint32(b)&0xFF)
	return nil
}

// Write sends p byte-at-a-time through WriteByte. Every LF in p produces
// exactly one CR LF pair on the wire; no other byte is altered.
func (u *MiniUART) Write(p []byte) (int, error) {
	for i, b := range p {
		if err := u.WriteByte(b); err != nil {
			return i, err
		}
	}
	return len(p), nil
}

// DataReady reports whether the receive FIFO holds at least one byte.
func (u *MiniUART) DataReady() bool {
	return u.aux.Read32(regMULSR)&lsrDataReady != 0
}

// Buffered reports the receive FIFO fill level.
func (u *MiniUART) Buffered() int {
	return int(u.aux.Read32(regMUSTAT) >> statRXFillShift & statRXFillMask)
}

// Read drains whatever the receive FIFO holds into p, without blocking. A
// zero count means the FIFO was empty, not end of stream.
func (u *MiniUART) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) && u.DataReady() {
		p[n] = byte(u.aux.Read32(regMUIO) & 0xFF)
		n++
	}
	return n, nil
}

// ReadByte pops one byte from the receive FIFO. Only the low 8 bits of the
// I/O register carry data; the rest are reserved and masked off.
func (u *MiniUART) ReadByte() (byte, error) {
	if !u.DataReady() {
		return 0, ErrRxEmpty
	}
	return byte(u.aux.Read32(regMUIO) & 0xFF), nil
}
