// drivers/miniuart/pins.go
package miniuart

import "runtime"

// configurePins routes GPIO14/15 to the Mini UART (ALT5) and sets their pull
// state. This must complete, and the electrical change settle, before any
// register in the UART block is touched.
func (u *MiniUART) configurePins() {
	// Both 3-bit function fields change in a single read-modify-write so the
	// sibling pins sharing GPFSEL1 keep their routing.
	fsel := u.gpio.Read32(regGPFSEL1)
	fsel &^= (fselMask << fselShiftTX) | (fselMask << fselShiftRX)
	fsel |= (fselALT5 << fselShiftTX) | (fselALT5 << fselShiftRX)
	u.gpio.Write32(regGPFSEL1, fsel)

	// TX is driven by the peripheral and gets no pull; RX must idle high.
	pull := u.gpio.Read32(regGPPUPPDN0)
	pull &^= (pullMask << pullShiftTX) | (pullMask << pullShiftRX)
	pull |= (pullNone << pullShiftTX) | (pullUp << pullShiftRX)
	u.gpio.Write32(regGPPUPPDN0, pull)

	u.settle()
}

// settle waits out the pad reconfiguration.
func (u *MiniUART) settle() {
	n := u.cfg.SettleCycles
	if n <= 0 {
		n = defaultSettleCycles
	}
	for i := 0; i < n; i++ {
		runtime.Gosched()
	}
}
