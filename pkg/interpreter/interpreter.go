// Package interpreter executes Brainfuck source text directly, one
// character at a time, resolving loop brackets by scanning at runtime. It
// is the slowest engine and serves as the behavioral reference the IR
// engines must match byte for byte.
package interpreter

import (
	"fmt"
	"io"
)

// DataSize is the number of tape cells available to a program.
const DataSize = 30_000

// Interpreter walks Brainfuck source text and executes it against a
// zero-initialized tape, reading and writing single bytes on the injected
// streams.
type Interpreter struct {
	code string
	ip   int

	data [DataSize]byte
	dp   int

	reader io.Reader
	writer io.Writer
}

// New creates an interpreter for the given source text and I/O streams.
func New(code string, r io.Reader, w io.Writer) *Interpreter {
	return &Interpreter{
		code:   code,
		reader: r,
		writer: w,
	}
}

// Run executes the program to completion. It fails if the underlying reader
// or writer fails, or if a bracket has no match. End of input leaves the
// current cell unchanged.
func (in *Interpreter) Run() error {
	for in.ip < len(in.code) {
		switch in.code[in.ip] {
		case '>':
			in.dp++
		case '<':
			in.dp--
		case '+':
			in.data[in.dp]++
		case '-':
			in.data[in.dp]--
		case '.':
			if _, err := in.writer.Write(in.data[in.dp : in.dp+1]); err != nil {
				return fmt.Errorf("write byte: %w", err)
			}
		case ',':
			if err := in.readByte(); err != nil {
				return err
			}
		case '[':
			if in.data[in.dp] == 0 {
				if err := in.skipForward(); err != nil {
					return err
				}
			}
		case ']':
			if in.data[in.dp] != 0 {
				if err := in.skipBackward(); err != nil {
					return err
				}
			}
		}
		in.ip++
	}
	return nil
}

// readByte reads one byte into the current cell. On end of input the cell
// keeps its value, matching the native backend where read(2) returning 0
// writes nothing.
func (in *Interpreter) readByte() error {
	_, err := io.ReadFull(in.reader, in.data[in.dp:in.dp+1])
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read byte: %w", err)
	}
	return nil
}

// skipForward moves the instruction pointer to the ']' matching the '['
// it is standing on.
func (in *Interpreter) skipForward() error {
	brackets := 0
	for ; in.ip < len(in.code); in.ip++ {
		switch in.code[in.ip] {
		case '[':
			brackets++
		case ']':
			brackets--
		}
		if brackets == 0 {
			return nil
		}
	}
	return fmt.Errorf("unmatched '[' in source")
}

// skipBackward moves the instruction pointer to the '[' matching the ']'
// it is standing on.
func (in *Interpreter) skipBackward() error {
	brackets := 0
	for ; in.ip >= 0; in.ip-- {
		switch in.code[in.ip] {
		case ']':
			brackets++
		case '[':
			brackets--
		}
		if brackets == 0 {
			return nil
		}
	}
	return fmt.Errorf("unmatched ']' in source")
}
