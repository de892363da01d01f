// services/serial/endpoint.go
package serial

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/SupriyaMishraWork/rpi-os-driver/errcode"
)

// The driver is visible to the host through two named pipes with fixed
// well-known names: writing TxName sends bytes, reading RxName runs one
// receive session and then hits EOF. A reader that comes back for the same
// request simply sees the EOF again, which is the zero-length "end of data"
// answer.
const (
	TxName = "uart_tx"
	RxName = "uart_rx"
)

// Endpoints owns the FIFO pair for one port.
type Endpoints struct {
	ctrl    *Controller
	txPath  string
	rxPath  string
	tx      *os.File
	txClose sync.Once
}

// NewEndpoints prepares endpoint paths under dir.
func NewEndpoints(dir string, ctrl *Controller) *Endpoints {
	return &Endpoints{
		ctrl:   ctrl,
		txPath: filepath.Join(dir, TxName),
		rxPath: filepath.Join(dir, RxName),
	}
}

func (e *Endpoints) TxPath() string { return e.txPath }
func (e *Endpoints) RxPath() string { return e.rxPath }

// Create registers both FIFOs, replacing stale ones from a previous run. On
// any failure the partially created endpoint is removed before the error
// propagates.
func (e *Endpoints) Create() error {
	if err := makeFifo(e.txPath); err != nil {
		return err
	}
	if err := makeFifo(e.rxPath); err != nil {
		os.Remove(e.txPath)
		return err
	}
	// Held open read-write so Run's reads block instead of spinning on EOF,
	// and so client opens never block on a missing peer.
	tx, err := os.OpenFile(e.txPath, os.O_RDWR, 0)
	if err != nil {
		e.Remove()
		return &errcode.E{C: errcode.Fault, Op: "endpoint.Create", Msg: e.txPath, Err: err}
	}
	e.tx = tx
	return nil
}

func makeFifo(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &errcode.E{C: errcode.Fault, Op: "endpoint.Create", Msg: path, Err: err}
	}
	if err := unix.Mkfifo(path, 0o666); err != nil {
		return &errcode.E{C: errcode.Fault, Op: "endpoint.Create", Msg: path, Err: err}
	}
	return nil
}

// Remove deregisters both endpoints.
func (e *Endpoints) Remove() {
	e.closeTx()
	os.Remove(e.txPath)
	os.Remove(e.rxPath)
}

// closeTx closes the held TX handle exactly once; Remove and the shutdown
// watcher both race to it.
func (e *Endpoints) closeTx() {
	e.txClose.Do(func() {
		if e.tx != nil {
			e.tx.Close()
		}
	})
}

// Run serves both endpoints until ctx is cancelled. Create must have
// succeeded first.
func (e *Endpoints) Run(ctx context.Context) {
	go e.serveTx(ctx)
	go e.serveRx(ctx)
	go func() {
		<-ctx.Done()
		e.closeTx() // unblock serveTx
	}()
}

// serveTx forwards each chunk written to the TX FIFO through the controller.
// The buffer matches the send clamp, so every chunk read here fits one send
// request and nothing is dropped; oversized client writes simply arrive as
// consecutive chunks.
func (e *Endpoints) serveTx(ctx context.Context) {
	buf := make([]byte, MaxSendBytes)
	for {
		n, err := e.tx.Read(buf)
		if err != nil {
			return // closed on shutdown
		}
		if n == 0 {
			continue
		}
		if _, err := e.ctrl.Send(buf[:n]); err != nil && ctx.Err() != nil {
			return
		}
	}
}

// serveRx waits for a reader on the RX FIFO, runs one receive session for
// it, writes the result and closes, so the reader sees the message followed
// by EOF. With no reader attached the open fails with ENXIO and the loop
// polls again.
func (e *Endpoints) serveRx(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		fd, err := unix.Open(e.rxPath, unix.O_WRONLY|unix.O_NONBLOCK, 0)
		if err != nil {
			if err == unix.ENXIO || err == unix.EINTR {
				time.Sleep(50 * time.Millisecond)
				continue
			}
			return // endpoint gone
		}
		f := os.NewFile(uintptr(fd), e.rxPath)

		data, _ := e.ctrl.Receive(e.ctrl.MaxMessage())
		if len(data) > 0 {
			f.Write(data)
		}
		f.Close()

		// Give the served reader a moment to see its EOF and detach before
		// the next session can start.
		time.Sleep(10 * time.Millisecond)
	}
}
