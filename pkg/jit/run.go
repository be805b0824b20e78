//go:build linux && amd64

package jit

import "brainfuck/pkg/compiler"

// Execute compiles prog, maps the code, runs it over tape and releases the
// region. The region is released exactly once on every path; a release
// failure is only reported when execution itself succeeded.
func Execute(prog compiler.Program, tape []byte) error {
	code, err := Compile(prog)
	if err != nil {
		return err
	}

	exec, err := code.Map()
	if err != nil {
		return err
	}

	runErr := exec.Run(tape)
	if err := exec.Release(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}
