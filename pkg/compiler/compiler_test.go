package compiler

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCompileMergesRuns(t *testing.T) {
	prog, err := Compile(">>><<++++-.,")
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	want := Program{
		{Op: OpMoveRight, Arg: 3},
		{Op: OpMoveLeft, Arg: 2},
		{Op: OpAdd, Arg: 4},
		{Op: OpSub, Arg: 1},
		{Op: OpWrite},
		{Op: OpRead},
	}
	if diff := cmp.Diff(want, prog); diff != "" {
		t.Errorf("program mismatch (-want +got):\n%s", diff)
	}
}

func TestCompileResolvesLoops(t *testing.T) {
	// Same consecutive characters merge into one counted instruction, so
	// `>>` is a single instruction and the loop targets account for that.
	prog, err := Compile("[]+[>>][,.--++][]")
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	want := Program{
		{Op: OpJumpIfZero, Arg: 1},
		{Op: OpJumpIfNotZero, Arg: 0},
		{Op: OpAdd, Arg: 1},
		{Op: OpJumpIfZero, Arg: 5},
		{Op: OpMoveRight, Arg: 2},
		{Op: OpJumpIfNotZero, Arg: 3},
		{Op: OpJumpIfZero, Arg: 11},
		{Op: OpRead},
		{Op: OpWrite},
		{Op: OpSub, Arg: 2},
		{Op: OpAdd, Arg: 2},
		{Op: OpJumpIfNotZero, Arg: 6},
		{Op: OpJumpIfZero, Arg: 13},
		{Op: OpJumpIfNotZero, Arg: 12},
	}
	if diff := cmp.Diff(want, prog); diff != "" {
		t.Errorf("program mismatch (-want +got):\n%s", diff)
	}
}

func TestCompileTargetsAreABijection(t *testing.T) {
	prog, err := Compile("+[->[->[-<+>]<]<]")
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	for i, instr := range prog {
		switch instr.Op {
		case OpJumpIfZero:
			back := prog[instr.Arg]
			if back.Op != OpJumpIfNotZero || back.Arg != i {
				t.Errorf("instruction %d: target %d does not point back (got %v %d)",
					i, instr.Arg, back.Op, back.Arg)
			}
		case OpJumpIfNotZero:
			fwd := prog[instr.Arg]
			if fwd.Op != OpJumpIfZero || fwd.Arg != i {
				t.Errorf("instruction %d: target %d does not point back (got %v %d)",
					i, instr.Arg, fwd.Op, fwd.Arg)
			}
		}
	}
}

func TestCompileIgnoresComments(t *testing.T) {
	prog, err := Compile("inc + the value; move > right")
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	want := Program{
		{Op: OpAdd, Arg: 1},
		{Op: OpMoveRight, Arg: 1},
	}
	if diff := cmp.Diff(want, prog); diff != "" {
		t.Errorf("program mismatch (-want +got):\n%s", diff)
	}
}

func TestCompileCommentSplitsRun(t *testing.T) {
	// A comment byte between identical commands ends the run.
	prog, err := Compile("++ ++")
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	want := Program{
		{Op: OpAdd, Arg: 2},
		{Op: OpAdd, Arg: 2},
	}
	if diff := cmp.Diff(want, prog); diff != "" {
		t.Errorf("program mismatch (-want +got):\n%s", diff)
	}
}

func TestCompileEmpty(t *testing.T) {
	prog, err := Compile("")
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if len(prog) != 0 {
		t.Errorf("program length = %d, want 0", len(prog))
	}
}

func TestCompileUnmatchedClose(t *testing.T) {
	for _, tt := range []struct {
		source   string
		position int
	}{
		{"]", 0},
		{"+[]]", 3},
		{"[]] extra", 2},
	} {
		prog, err := Compile(tt.source)
		if prog != nil {
			t.Errorf("Compile(%q) returned a program alongside the error", tt.source)
		}

		var syntaxErr *SyntaxError
		if !errors.As(err, &syntaxErr) {
			t.Fatalf("Compile(%q) error = %v, want *SyntaxError", tt.source, err)
		}
		if syntaxErr.Kind != UnmatchedClose {
			t.Errorf("Compile(%q) kind = %v, want %v", tt.source, syntaxErr.Kind, UnmatchedClose)
		}
		if syntaxErr.Position != tt.position {
			t.Errorf("Compile(%q) position = %d, want %d", tt.source, syntaxErr.Position, tt.position)
		}
	}
}

func TestCompileUnmatchedOpen(t *testing.T) {
	for _, tt := range []struct {
		source   string
		position int
	}{
		{"[", 0},
		{"[[]", 0}, // the earliest unmatched bracket is reported
		{"[][", 2},
		{"+[-", 1},
	} {
		prog, err := Compile(tt.source)
		if prog != nil {
			t.Errorf("Compile(%q) returned a program alongside the error", tt.source)
		}

		var syntaxErr *SyntaxError
		if !errors.As(err, &syntaxErr) {
			t.Fatalf("Compile(%q) error = %v, want *SyntaxError", tt.source, err)
		}
		if syntaxErr.Kind != UnmatchedOpen {
			t.Errorf("Compile(%q) kind = %v, want %v", tt.source, syntaxErr.Kind, UnmatchedOpen)
		}
		if syntaxErr.Position != tt.position {
			t.Errorf("Compile(%q) position = %d, want %d", tt.source, syntaxErr.Position, tt.position)
		}
	}
}

func TestCompileEmptyLoop(t *testing.T) {
	// A zero-iteration loop is valid and compiles to an ordinary pair.
	prog, err := Compile("[]")
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	want := Program{
		{Op: OpJumpIfZero, Arg: 1},
		{Op: OpJumpIfNotZero, Arg: 0},
	}
	if diff := cmp.Diff(want, prog); diff != "" {
		t.Errorf("program mismatch (-want +got):\n%s", diff)
	}
}

func TestSyntaxErrorMessage(t *testing.T) {
	err := &SyntaxError{Kind: UnmatchedOpen, Position: 7}
	if got, want := err.Error(), "unmatched '[' at position 7"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !IsSyntaxError(err) {
		t.Error("IsSyntaxError returned false for a *SyntaxError")
	}
}
