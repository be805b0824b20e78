//go:build linux && amd64

package jit

import (
	"errors"
	"runtime"
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"

	"brainfuck/pkg/jit/asm"
)

// Supported reports whether the native backend can run on this platform.
const Supported = true

// ExecutableCode is a sealed, execute-only mapping of generated code. It
// can only be entered, never written: the writable view of the region is
// discarded when it is sealed, before the entry point is first taken.
type ExecutableCode struct {
	region  []byte
	entry   uintptr
	entered bool
}

// Map copies the code into a fresh anonymous mapping and seals it
// execute-only. The region is never writable and executable at the same
// time: bytes land under PROT_READ|PROT_WRITE and the protection flips to
// PROT_EXEC before Run can be called.
func (c *Code) Map() (*ExecutableCode, error) {
	region, err := unix.Mmap(
		-1, 0,
		len(c.text),
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANONYMOUS,
	)
	if err != nil {
		return nil, &ResourceError{Op: "mmap", Err: err}
	}
	copy(region, c.text)

	if err := unix.Mprotect(region, unix.PROT_EXEC); err != nil {
		_ = unix.Munmap(region)
		return nil, &ResourceError{Op: "mprotect", Err: err}
	}

	return &ExecutableCode{
		region: region,
		entry:  uintptr(unsafe.Pointer(&region[0])),
	}, nil
}

// Run transfers control into the generated code and blocks until it
// returns. The tape base address is passed in RDI and moved into the
// dedicated tape register by the generated prologue. A non-zero return is
// the negated errno of the system call that failed.
func (x *ExecutableCode) Run(tape []byte) error {
	if x.region == nil {
		return &ResourceError{Op: "run", Err: errors.New("code region already released")}
	}
	if x.entered {
		return &ResourceError{Op: "run", Err: errors.New("code region already invoked")}
	}
	x.entered = true

	ret := asm.Call(x.entry, uintptr(unsafe.Pointer(&tape[0])))
	runtime.KeepAlive(tape)

	if ret < 0 {
		return &IOError{Errno: syscall.Errno(-ret)}
	}
	return nil
}

// Release unmaps the code region. Releasing twice is a no-op.
func (x *ExecutableCode) Release() error {
	if x.region == nil {
		return nil
	}
	region := x.region
	x.region = nil
	x.entry = 0

	if err := unix.Munmap(region); err != nil {
		return &ResourceError{Op: "munmap", Err: err}
	}
	return nil
}
