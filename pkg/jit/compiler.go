// Package jit translates IR programs into amd64 machine code and runs them
// from a sealed, execute-only memory mapping. Pointer moves and cell
// arithmetic become native instructions on a dedicated tape register, I/O
// becomes raw read/write system calls, and loop brackets become conditional
// jumps whose forward displacements are backpatched the moment the matching
// loop end is emitted.
package jit

import (
	"brainfuck/pkg/compiler"
)

// tapeReg holds the address of the current tape cell for the entire run. It
// is callee-saved, loaded from RDI in the prologue, restored in the
// epilogue, and never used for anything else.
const tapeReg = R12

// Linux amd64 system call numbers.
const (
	sysRead  = 0
	sysWrite = 1
)

// Code is assembled machine code with every loop displacement resolved.
// It is plain bytes; Map moves it into an executable region.
type Code struct {
	text []byte
}

// Len returns the code length in bytes.
func (c *Code) Len() int {
	return len(c.text)
}

// Text returns the raw instruction bytes.
func (c *Code) Text() []byte {
	return c.text
}

// pendingLoop is a relocation entry for a '[' whose forward jump target is
// unknown until the matching ']' is emitted. Entries live on a stack keyed
// by nesting depth, so resolution is a pop at each loop end.
type pendingLoop struct {
	patchOffset int // byte offset of the je displacement
	index       int // IR index of the loop start, for error reporting
}

// Compiler translates an IR Program into amd64 machine code.
type Compiler struct {
	asm     *Assembler
	pending []pendingLoop

	inFD  uint32
	outFD uint32
}

// NewCompiler creates a compiler targeting the standard descriptors
// (stdin=0 for read, stdout=1 for write).
func NewCompiler() *Compiler {
	return &Compiler{inFD: 0, outFD: 1}
}

// SetDescriptors overrides the file descriptors baked into the emitted read
// and write sequences. Production code keeps the defaults; tests substitute
// pipe descriptors so generated-code I/O can be captured in-process.
func (c *Compiler) SetDescriptors(in, out int) {
	c.inFD = uint32(in)
	c.outFD = uint32(out)
}

// Compile emits machine code for the whole program. The returned Code has
// no unresolved relocations. A program violating the loop-pairing invariant
// the IR compiler guarantees yields an *InternalConsistencyError.
func (c *Compiler) Compile(prog compiler.Program) (*Code, error) {
	c.asm = NewAssembler()
	c.pending = c.pending[:0]

	c.emitPrologue()

	for i, instr := range prog {
		switch instr.Op {
		case compiler.OpMoveRight:
			c.emitMove(instr.Arg, true)
		case compiler.OpMoveLeft:
			c.emitMove(instr.Arg, false)
		case compiler.OpAdd:
			c.emitAdjust(instr.Arg, true)
		case compiler.OpSub:
			c.emitAdjust(instr.Arg, false)
		case compiler.OpWrite:
			c.emitSyscall(sysWrite, c.outFD)
		case compiler.OpRead:
			c.emitSyscall(sysRead, c.inFD)
		case compiler.OpJumpIfZero:
			c.emitLoopStart(i)
		case compiler.OpJumpIfNotZero:
			if err := c.emitLoopEnd(i); err != nil {
				return nil, err
			}
		default:
			return nil, &InternalConsistencyError{Reason: "unknown opcode", Index: i}
		}
	}

	if len(c.pending) > 0 {
		return nil, &InternalConsistencyError{
			Reason: "loop start has no matching end",
			Index:  c.pending[0].index,
		}
	}

	c.emitEpilogue()

	return &Code{text: c.asm.Bytes()}, nil
}

// emitPrologue saves the tape register and loads the tape base address,
// which arrives in RDI per the System V ABI.
func (c *Compiler) emitPrologue() {
	c.asm.Push(tapeReg)
	c.asm.MovRegReg(tapeReg, RDI)
}

// emitEpilogue signals success in RAX, restores the tape register and
// returns to the trampoline.
func (c *Compiler) emitEpilogue() {
	c.asm.XorRegReg(RAX, RAX)
	c.asm.Pop(tapeReg)
	c.asm.Ret()
}

// emitMove advances or retreats the data pointer by n cells. Three tiers:
// a one-step inc/dec for n=1, an 8-bit immediate for n up to 127, and a
// 32-bit immediate beyond that. The split between the immediate forms
// happens inside the add/sub encoders.
func (c *Compiler) emitMove(n int, right bool) {
	switch {
	case n == 1 && right:
		c.asm.IncReg(tapeReg)
	case n == 1:
		c.asm.DecReg(tapeReg)
	case right:
		c.asm.AddRegImm32(tapeReg, int32(n))
	default:
		c.asm.SubRegImm32(tapeReg, int32(n))
	}
}

// emitAdjust adds or subtracts n at the current cell. The operand is one
// byte, so the immediate form caps at 8 bits and the count is reduced
// mod 256, which is exactly the cell's wrapping arithmetic.
func (c *Compiler) emitAdjust(n int, add bool) {
	switch {
	case n == 1 && add:
		c.asm.IncMem8(tapeReg)
	case n == 1:
		c.asm.DecMem8(tapeReg)
	case add:
		c.asm.AddMem8Imm(tapeReg, byte(n))
	default:
		c.asm.SubMem8Imm(tapeReg, byte(n))
	}
}

// emitSyscall issues a one-byte read or write on the given descriptor with
// the current cell as the buffer. A negative result is -errno: the guarded
// inline epilogue returns it to the trampoline in RAX. A read returning 0
// (end of input) writes nothing, so the cell keeps its value.
func (c *Compiler) emitSyscall(nr, fd uint32) {
	c.asm.MovRegImm32(RAX, nr)
	c.asm.MovRegImm32(RDI, fd)
	c.asm.MovRegReg(RSI, tapeReg)
	c.asm.MovRegImm32(RDX, 1)
	c.asm.Syscall()

	c.asm.TestRegReg(RAX, RAX)
	jnsOffset := c.asm.Offset()
	c.asm.Jns(0) // placeholder, patched to skip the error exit

	c.asm.Pop(tapeReg)
	c.asm.Ret()

	rel := c.asm.Offset() - (jnsOffset + 2)
	c.asm.Bytes()[jnsOffset+1] = byte(rel)
}

// emitLoopStart tests the current cell and emits a forward je with a
// placeholder displacement; the target is unknown until the matching loop
// end is emitted, so a relocation entry is pushed for it.
func (c *Compiler) emitLoopStart(index int) {
	c.asm.CmpMem8Imm(tapeReg, 0)
	off := c.asm.Offset()
	c.asm.JeNear(0)
	c.pending = append(c.pending, pendingLoop{patchOffset: off + 2, index: index})
}

// emitLoopEnd tests the current cell and jumps back to the loop body start,
// whose address is already known, then resolves the pending forward
// displacement of the matching loop start.
func (c *Compiler) emitLoopEnd(index int) error {
	if len(c.pending) == 0 {
		return &InternalConsistencyError{Reason: "loop end has no matching start", Index: index}
	}
	start := c.pending[len(c.pending)-1]
	c.pending = c.pending[:len(c.pending)-1]

	bodyStart := start.patchOffset + 4 // first byte after the loop start's je

	c.asm.CmpMem8Imm(tapeReg, 0)
	end := c.asm.Offset() + 6 // address after the jne about to be emitted
	c.asm.JneNear(int32(bodyStart - end))

	// The loop start jumps here, just past the jne.
	c.asm.PatchInt32(start.patchOffset, int32(c.asm.Offset()-bodyStart))
	return nil
}

// Compile emits machine code for prog against the standard descriptors.
func Compile(prog compiler.Program) (*Code, error) {
	return NewCompiler().Compile(prog)
}
