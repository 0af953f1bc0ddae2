// Copyright (C) 2024  The sicsim Authors

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package vm implements the SIC/XE instruction-level execution engine: a
// fetch/decode/execute loop over the shared memory and register file,
// honoring a breakpoint set and halting at program end.
package vm

import (
	"fmt"

	"github.com/gosicxe/sicsim/pkg/memory"
	"github.com/gosicxe/sicsim/pkg/opcode"
)

// HaltReason identifies why Run returned control to the caller.
type HaltReason int

const (
	HaltNone HaltReason = iota
	HaltProgramEnd
	HaltBreakpoint
	HaltInterrupted
)

// RunResult reports the outcome of one Run call.
type RunResult struct {
	Reason HaltReason
	PC     int
}

// UnknownOpcodeError reports a fetched byte that does not decode to any
// entry in the opcode dictionary.
type UnknownOpcodeError struct {
	Addr byte
	PC   int
}

func (err *UnknownOpcodeError) Error() string {
	return fmt.Sprintf("vm: unknown opcode %#02x at %06X", err.Addr, err.PC)
}

// InvalidAddressingError reports a format-3/4 n/i/x/b/p/e combination the
// engine cannot resolve to a target address.
type InvalidAddressingError struct {
	PC int
}

func (err *InvalidAddressingError) Error() string {
	return fmt.Sprintf("vm: invalid addressing-mode combination at %06X", err.PC)
}

// NoProgramLoadedError reports an attempt to run before a successful
// loader invocation configured the program extent.
type NoProgramLoadedError struct{}

func (err *NoProgramLoadedError) Error() string { return "vm: no program loaded" }

// BreakpointRangeError reports a breakpoint address outside the
// addressable memory.
type BreakpointRangeError struct {
	Addr int
}

func (err *BreakpointRangeError) Error() string {
	return fmt.Sprintf("vm: breakpoint address %06X out of range", err.Addr)
}

// VM holds the register file, program extent, and breakpoint set. Memory
// and the opcode dictionary are shared, process-wide state owned by the
// caller.
type VM struct {
	Mem  *memory.Memory
	Dict *opcode.Dictionary

	regs [10]int

	programStart int
	programEnd   int
	configured   bool

	breakpoints []int

	breakRequested bool
}

// New returns a VM over the given memory and opcode dictionary. The
// program extent is unconfigured until Configure is called by a
// successful load.
func New(mem *memory.Memory, dict *opcode.Dictionary) *VM {
	return &VM{Mem: mem, Dict: dict}
}
