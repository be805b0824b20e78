package jit

import (
	"fmt"
	"syscall"
)

// ResourceError reports a failure to allocate, protect or release the
// executable code region.
type ResourceError struct {
	Op  string
	Err error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("executable memory %s failed: %v", e.Op, e.Err)
}

func (e *ResourceError) Unwrap() error {
	return e.Err
}

// IOError reports a read or write system call that returned an error status
// while the generated code was running. Execution aborts at that point.
type IOError struct {
	Errno syscall.Errno
}

func (e *IOError) Error() string {
	return fmt.Sprintf("i/o system call failed: %v", e.Errno)
}

func (e *IOError) Unwrap() error {
	return e.Errno
}

// InternalConsistencyError reports a violation of the loop-pairing invariant
// the IR compiler guarantees. Seeing one means a defect upstream, not a bad
// user program.
type InternalConsistencyError struct {
	Reason string
	Index  int // IR index of the offending instruction
}

func (e *InternalConsistencyError) Error() string {
	return fmt.Sprintf("internal consistency violation at instruction %d: %s", e.Index, e.Reason)
}
