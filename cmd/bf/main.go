// Command bf runs Brainfuck programs through one of three engines: a
// source-walking interpreter, an IR virtual machine, or the native amd64
// JIT backend. With -bench it times all three against the same program and
// prints the blake2b digest of each engine's output so disagreement is
// immediately visible.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"golang.org/x/crypto/blake2b"

	"brainfuck/pkg/compiler"
	"brainfuck/pkg/interpreter"
	"brainfuck/pkg/jit"
	"brainfuck/pkg/vm"
)

func main() {
	env := flag.String("env", "jit", "execution environment: interpreter, vm or jit")
	bench := flag.Bool("bench", false, "time all three engines against the program")
	flag.Parse()

	if flag.NArg() != 1 {
		log.Fatal("Error: exactly one program file is required")
	}

	source, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatalf("Failed to read program: %v", err)
	}

	if *bench {
		runBench(string(source))
		return
	}

	switch *env {
	case "interpreter":
		err = interpreter.New(string(source), os.Stdin, os.Stdout).Run()
	case "vm":
		err = runVM(string(source))
	case "jit":
		if !jit.Supported {
			log.Print("JIT backend is not available on this platform, falling back to vm")
			err = runVM(string(source))
			break
		}
		err = runJIT(string(source))
	default:
		log.Fatalf("Error: unknown environment %q (valid: interpreter, vm, jit)", *env)
	}
	if err != nil {
		log.Fatalf("Execution failed: %v", err)
	}
}

func runVM(source string) error {
	prog, err := compiler.Compile(source)
	if err != nil {
		return err
	}
	return vm.New(prog, os.Stdin, os.Stdout).Run()
}

func runJIT(source string) error {
	prog, err := compiler.Compile(source)
	if err != nil {
		return err
	}
	return jit.Execute(prog, make([]byte, vm.DataSize))
}

// runBench executes the program on every engine with empty input, capturing
// each engine's output. The interpreter and VM write to in-memory buffers;
// the JIT writes to a pipe wired into the emitted descriptors.
func runBench(source string) {
	prog, err := compiler.Compile(source)
	if err != nil {
		log.Fatalf("Invalid program: %v", err)
	}

	var out bytes.Buffer
	start := time.Now()
	err = interpreter.New(source, bytes.NewReader(nil), &out).Run()
	report("interpreter", out.Bytes(), time.Since(start), err)

	out.Reset()
	start = time.Now()
	err = vm.New(prog, bytes.NewReader(nil), &out).Run()
	report("vm", out.Bytes(), time.Since(start), err)

	if !jit.Supported {
		log.Print("jit: not available on this platform, skipped")
		return
	}
	jitOut, elapsed, err := benchJIT(prog)
	report("jit", jitOut, elapsed, err)
}

func report(engine string, output []byte, elapsed time.Duration, err error) {
	if err != nil {
		log.Fatalf("%s failed: %v", engine, err)
	}
	digest := blake2b.Sum256(output)
	fmt.Printf("%-11s %12v  %d bytes  blake2b %x\n", engine, elapsed, len(output), digest[:8])
}

// benchJIT compiles against pipe descriptors so generated-code output can
// be captured in-process. The input pipe's write end is closed up front, so
// every read instruction sees end of input.
func benchJIT(prog compiler.Program) ([]byte, time.Duration, error) {
	inR, inW, err := os.Pipe()
	if err != nil {
		return nil, 0, err
	}
	inW.Close()
	defer inR.Close()

	outR, outW, err := os.Pipe()
	if err != nil {
		return nil, 0, err
	}
	defer outR.Close()

	var captured bytes.Buffer
	done := make(chan error, 1)
	go func() {
		_, err := io.Copy(&captured, outR)
		done <- err
	}()

	jc := jit.NewCompiler()
	jc.SetDescriptors(int(inR.Fd()), int(outW.Fd()))

	start := time.Now()
	code, err := jc.Compile(prog)
	if err != nil {
		outW.Close()
		<-done
		return nil, 0, err
	}

	exec, err := code.Map()
	if err != nil {
		outW.Close()
		<-done
		return nil, 0, err
	}

	runErr := exec.Run(make([]byte, vm.DataSize))
	elapsed := time.Since(start)

	if err := exec.Release(); err != nil && runErr == nil {
		runErr = err
	}

	outW.Close()
	if err := <-done; err != nil && runErr == nil {
		runErr = err
	}
	return captured.Bytes(), elapsed, runErr
}
