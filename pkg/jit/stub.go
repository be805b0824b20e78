//go:build !linux || !amd64

package jit

import (
	"errors"

	"brainfuck/pkg/compiler"
)

// Supported reports whether the native backend can run on this platform.
// Codegen itself works everywhere; mapping and entering code is linux/amd64
// only.
const Supported = false

var errUnsupported = errors.New("jit backend requires linux/amd64")

// ExecutableCode is a stub on platforms without the native backend.
type ExecutableCode struct{}

func (c *Code) Map() (*ExecutableCode, error) {
	return nil, &ResourceError{Op: "map", Err: errUnsupported}
}

func (x *ExecutableCode) Run(tape []byte) error {
	panic("unreachable: jit code cannot be mapped on this platform")
}

func (x *ExecutableCode) Release() error {
	return nil
}

// Execute always fails on platforms without the native backend.
func Execute(prog compiler.Program, tape []byte) error {
	return &ResourceError{Op: "execute", Err: errUnsupported}
}
