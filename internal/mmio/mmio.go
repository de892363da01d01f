// internal/mmio/mmio.go
package mmio

import (
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/SupriyaMishraWork/rpi-os-driver/errcode"
)

// Device32 is the access contract for a memory-mapped register block. All
// register traffic in the driver goes through this interface so the
// peripheral packages can be exercised against an in-memory fake.
type Device32 interface {
	// Read32 returns the 32-bit register at byte offset off.
	Read32(off uint32) uint32
	// Write32 stores v to the 32-bit register at byte offset off.
	Write32(off uint32, v uint32)
	// Barrier orders all preceding writes before any subsequent access.
	Barrier()
}

// Region is one mapping of a physical register window. It is created once at
// startup and released exactly once with Close.
type Region struct {
	mem  []byte
	base uintptr // offset of the window inside the page-aligned mapping
	size uint32
}

var _ Device32 = (*Region)(nil)

// Map opens path (normally /dev/mem) and maps size bytes at physical address
// base. The mapping is page-aligned internally; callers address registers by
// their offset from base. Failure is fatal to driver startup: the caller gets
// an errcode.MapFailed and must not proceed.
func Map(path string, base uint64, size int) (*Region, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_SYNC, 0)
	if err != nil {
		return nil, &errcode.E{C: errcode.MapFailed, Op: "mmio.Map", Msg: path, Err: err}
	}
	defer unix.Close(fd)

	page := uint64(unix.Getpagesize())
	pageBase := base &^ (page - 1)
	skew := base - pageBase

	mem, err := unix.Mmap(fd, int64(pageBase), size+int(skew),
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, &errcode.E{C: errcode.MapFailed, Op: "mmio.Map", Msg: path, Err: err}
	}
	return &Region{mem: mem, base: uintptr(skew), size: uint32(size)}, nil
}

// Close releases the mapping. Further register access is invalid.
func (r *Region) Close() error {
	mem := r.mem
	r.mem = nil
	if mem == nil {
		return nil
	}
	return unix.Munmap(mem)
}

func (r *Region) reg(off uint32) *uint32 {
	if off&3 != 0 || off+4 > r.size {
		panic("mmio: bad register offset")
	}
	return (*uint32)(unsafe.Pointer(&r.mem[r.base+uintptr(off)]))
}

func (r *Region) Read32(off uint32) uint32 {
	return atomic.LoadUint32(r.reg(off))
}

func (r *Region) Write32(off uint32, v uint32) {
	atomic.StoreUint32(r.reg(off), v)
}

// Barrier performs an acquire load of the first mapped word. Together with
// the atomic stores in Write32 this guarantees configuration writes are
// visible before later status reads observe the device.
func (r *Region) Barrier() {
	atomic.LoadUint32(r.reg(0))
}
