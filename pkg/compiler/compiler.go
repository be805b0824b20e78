// Package compiler translates Brainfuck source text into a run-length
// encoded instruction sequence with loop brackets resolved to the index of
// their matching partner.
package compiler

import "fmt"

// Opcode identifies one IR instruction kind.
type Opcode byte

const (
	OpMoveRight Opcode = iota // move the data pointer right by Arg cells
	OpMoveLeft                // move the data pointer left by Arg cells
	OpAdd                     // add Arg to the current cell (mod 256)
	OpSub                     // subtract Arg from the current cell (mod 256)
	OpWrite                   // write the current cell to the output stream
	OpRead                    // read one byte from the input stream into the current cell
	OpJumpIfZero              // '[': Arg is the index of the matching OpJumpIfNotZero
	OpJumpIfNotZero           // ']': Arg is the index of the matching OpJumpIfZero
)

func (op Opcode) String() string {
	switch op {
	case OpMoveRight:
		return "move-right"
	case OpMoveLeft:
		return "move-left"
	case OpAdd:
		return "add"
	case OpSub:
		return "sub"
	case OpWrite:
		return "write"
	case OpRead:
		return "read"
	case OpJumpIfZero:
		return "jump-if-zero"
	case OpJumpIfNotZero:
		return "jump-if-not-zero"
	}
	return fmt.Sprintf("opcode(%d)", byte(op))
}

// Instruction is one IR element. For the move and arithmetic opcodes Arg is
// the run length (always positive, never wrapped). For the jump opcodes Arg
// is the index of the matching bracket instruction within the Program.
type Instruction struct {
	Op  Opcode
	Arg int
}

// Program is the ordered instruction sequence produced by Compile. It is
// never mutated after Compile returns.
type Program []Instruction

// BracketErrorKind names which side of a bracket pair is missing.
type BracketErrorKind int

const (
	UnmatchedOpen BracketErrorKind = iota
	UnmatchedClose
)

func (k BracketErrorKind) String() string {
	if k == UnmatchedOpen {
		return "unmatched '['"
	}
	return "unmatched ']'"
}

// SyntaxError reports an unbalanced bracket. Position is the byte offset of
// the offending bracket in the source text.
type SyntaxError struct {
	Kind     BracketErrorKind
	Position int
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%v at position %d", e.Kind, e.Position)
}

// IsSyntaxError checks if an error is a bracket syntax error.
func IsSyntaxError(err error) bool {
	_, ok := err.(*SyntaxError)
	return ok
}

// openBracket tracks a pending '[' until its ']' arrives.
type openBracket struct {
	emitIndex int // index of the OpJumpIfZero in the output
	srcPos    int // byte offset in the source, for error reporting
}

// Compile scans the source left to right, merging maximal runs of identical
// move/arithmetic characters into single counted instructions. I/O and
// bracket characters each become their own instruction. Every byte outside
// the eight command characters is a comment and ignored.
//
// On any unbalanced bracket Compile returns a *SyntaxError and no Program.
func Compile(source string) (Program, error) {
	var prog Program
	var open []openBracket

	for i := 0; i < len(source); {
		c := source[i]
		switch c {
		case '>', '<', '+', '-':
			j := i + 1
			for j < len(source) && source[j] == c {
				j++
			}
			prog = append(prog, Instruction{Op: runOpcode(c), Arg: j - i})
			i = j
			continue
		case '.':
			prog = append(prog, Instruction{Op: OpWrite})
		case ',':
			prog = append(prog, Instruction{Op: OpRead})
		case '[':
			open = append(open, openBracket{emitIndex: len(prog), srcPos: i})
			prog = append(prog, Instruction{Op: OpJumpIfZero})
		case ']':
			if len(open) == 0 {
				return nil, &SyntaxError{Kind: UnmatchedClose, Position: i}
			}
			start := open[len(open)-1]
			open = open[:len(open)-1]
			prog[start.emitIndex].Arg = len(prog)
			prog = append(prog, Instruction{Op: OpJumpIfNotZero, Arg: start.emitIndex})
		}
		i++
	}

	if len(open) > 0 {
		// open[0] is the earliest '[' still waiting for its ']'.
		return nil, &SyntaxError{Kind: UnmatchedOpen, Position: open[0].srcPos}
	}

	return prog, nil
}

func runOpcode(c byte) Opcode {
	switch c {
	case '>':
		return OpMoveRight
	case '<':
		return OpMoveLeft
	case '+':
		return OpAdd
	}
	return OpSub
}
