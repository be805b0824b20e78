//go:build linux && amd64

// Package asm provides the assembly entry point into generated code.
// This is a separate package so the .s file stays isolated from cgo-free
// Go code in the jit package.
package asm

// Call invokes generated code at entry with the tape base address in RDI
// per the System V AMD64 ABI, and returns the value the code leaves in RAX:
// 0 on success, a negated errno if a system call failed.
func Call(entry, tape uintptr) int64
