// drivers/miniuart/regs.go
package miniuart

// BCM2711 register layout. Offsets are relative to the mapped GPIO and AUX
// windows, not to the ARM physical addresses.

// Physical bases and window sizes (inputs to the mmio mapping, see cmd/uartd).
const (
	GPIOBase = 0xFE200000
	AUXBase  = 0xFE215000

	GPIOWindow = 0x1000
	AUXWindow  = 0x100
)

// GPIO block.
const (
	regGPFSEL1   = 0x04 // function select, pins 10..19, 3 bits each
	regGPPUPPDN0 = 0xE4 // pull control, pins 0..15, 2 bits each

	fselALT5 = 0b010
	fselMask = 0b111

	pullNone = 0b00
	pullUp   = 0b01
	pullMask = 0b11

	// Mini UART pins: GPIO14 = TXD1, GPIO15 = RXD1.
	pinTX = 14
	pinRX = 15

	fselShiftTX = 12 // (14 % 10) * 3, within GPFSEL1
	fselShiftRX = 15
	pullShiftTX = 28 // 14 * 2, within GPPUPPDN0
	pullShiftRX = 30
)

// AUX / Mini UART block.
const (
	regAUXIRQ     = 0x00
	regAUXEnables = 0x04 // shared with SPI1/SPI2; bit 0 is the Mini UART
	regMUIO       = 0x40 // data; only bits 7:0 are meaningful
	regMUIER      = 0x44 // interrupt enable
	regMUIIR      = 0x48 // interrupt identify; write side clears FIFOs
	regMULCR      = 0x4C // line control
	regMUMCR      = 0x50 // modem control
	regMULSR      = 0x54 // line status
	regMUCNTL     = 0x60 // TX/RX enable
	regMUSTAT     = 0x64
	regMUBAUD     = 0x68 // baud rate divisor

	auxEnableMiniUART = 1 << 0

	iirClearRX = 0x02 // write: clear receive FIFO
	iirClearTX = 0x04 // write: clear transmit FIFO

	lcr8Bit = 0x3 // 8-bit mode (both LCR data-size bits, per the BCM errata)

	cntlEnableTXRX = 0x3

	lsrDataReady = 1 << 0
	lsrTXEmpty   = 1 << 5

	statRXFillShift = 16
	statRXFillMask  = 0xF
)
