// Package vm interprets the IR produced by the compiler in a host dispatch
// loop. Run-length counts are applied in one step and loop jumps go
// straight to the matching bracket's target index, so it is much faster
// than the source interpreter while staying memory-safe.
package vm

import (
	"fmt"
	"io"

	"brainfuck/pkg/compiler"
)

// DataSize is the number of tape cells available to a program.
const DataSize = 30_000

// VM executes a compiled Program against a zero-initialized tape.
type VM struct {
	prog compiler.Program
	ip   int

	data [DataSize]byte
	dp   int

	reader io.Reader
	writer io.Writer
}

// New creates a virtual machine for the given program and I/O streams.
func New(prog compiler.Program, r io.Reader, w io.Writer) *VM {
	return &VM{
		prog:   prog,
		reader: r,
		writer: w,
	}
}

// Run executes the program to completion. End of input leaves the current
// cell unchanged; reader and writer failures abort the run.
func (vm *VM) Run() error {
	for vm.ip < len(vm.prog) {
		instr := vm.prog[vm.ip]
		switch instr.Op {
		case compiler.OpMoveRight:
			vm.dp += instr.Arg
		case compiler.OpMoveLeft:
			vm.dp -= instr.Arg
		case compiler.OpAdd:
			vm.data[vm.dp] += byte(instr.Arg)
		case compiler.OpSub:
			vm.data[vm.dp] -= byte(instr.Arg)
		case compiler.OpWrite:
			if _, err := vm.writer.Write(vm.data[vm.dp : vm.dp+1]); err != nil {
				return fmt.Errorf("write byte: %w", err)
			}
		case compiler.OpRead:
			if err := vm.readByte(); err != nil {
				return err
			}
		case compiler.OpJumpIfZero:
			if vm.data[vm.dp] == 0 {
				// Land just past the matching loop end.
				vm.ip = instr.Arg
			}
		case compiler.OpJumpIfNotZero:
			if vm.data[vm.dp] != 0 {
				// Land just past the matching loop start.
				vm.ip = instr.Arg
			}
		}
		vm.ip++
	}
	return nil
}

// readByte reads one byte into the current cell, leaving it unchanged on
// end of input (the native backend's read(2) does the same).
func (vm *VM) readByte() error {
	_, err := io.ReadFull(vm.reader, vm.data[vm.dp:vm.dp+1])
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read byte: %w", err)
	}
	return nil
}
