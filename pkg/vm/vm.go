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

package vm

import (
	"sort"

	"github.com/gosicxe/sicsim/pkg/isa"
)

// Configure sets the program extent the loader determined and positions
// PC at start and L at the program's length. Called once per successful
// load; Run always resumes from the current PC afterward.
func (vm *VM) Configure(start, end int) {
	vm.programStart = start
	vm.programEnd = end
	vm.configured = true
	vm.regs[isa.PC] = start
	vm.regs[isa.L] = end - start
}

// Reg returns the current value of register id.
func (vm *VM) Reg(id int) int {
	return vm.regs[id]
}

// SetReg sets register id to value, for `progaddr`-adjacent tooling and
// tests; the fetch/decode/execute loop reads and writes the register
// array directly.
func (vm *VM) SetReg(id int, value int) {
	vm.regs[id] = value
}

// ProgramStart returns the configured program-start address.
func (vm *VM) ProgramStart() int { return vm.programStart }

// ProgramEnd returns the configured program-end address.
func (vm *VM) ProgramEnd() int { return vm.programEnd }

// SetBreakpoint validates and inserts addr into the sorted breakpoint set.
// Duplicate addresses coalesce silently.
func (vm *VM) SetBreakpoint(addr int) error {
	if addr < 0 || addr > isa.MemAddrMax {
		return &BreakpointRangeError{Addr: addr}
	}
	i := sort.SearchInts(vm.breakpoints, addr)
	if i < len(vm.breakpoints) && vm.breakpoints[i] == addr {
		return nil
	}
	vm.breakpoints = append(vm.breakpoints, 0)
	copy(vm.breakpoints[i+1:], vm.breakpoints[i:])
	vm.breakpoints[i] = addr
	return nil
}

// ClearBreakpoints empties the breakpoint set.
func (vm *VM) ClearBreakpoints() {
	vm.breakpoints = nil
}

// Breakpoints returns the breakpoint set in ascending order.
func (vm *VM) Breakpoints() []int {
	out := make([]int, len(vm.breakpoints))
	copy(out, vm.breakpoints)
	return out
}

func (vm *VM) atBreakpoint(addr int) bool {
	i := sort.SearchInts(vm.breakpoints, addr)
	return i < len(vm.breakpoints) && vm.breakpoints[i] == addr
}

// RequestBreak asks a running Run to stop after its current instruction.
// Set from a SIGINT handler goroutine the same way the teacher's
// debugger sets dbg.Break; it is read, unsynchronized, between step
// calls only, never inside one, so it cannot interrupt a half-executed
// instruction.
func (vm *VM) RequestBreak() {
	vm.breakRequested = true
}

// Run executes instructions from the current PC until a halt condition:
// PC reaching program-end, PC landing on a breakpoint, or an external
// RequestBreak. All are checked after the instruction that triggers them
// has executed, so a `run` resuming from a breakpoint always makes
// forward progress.
func (vm *VM) Run() (RunResult, error) {
	if !vm.configured || vm.programEnd <= vm.programStart {
		return RunResult{}, &NoProgramLoadedError{}
	}

	vm.breakRequested = false

	for {
		if err := vm.step(); err != nil {
			return RunResult{}, err
		}

		pc := vm.regs[isa.PC]
		if pc >= vm.programEnd {
			return RunResult{Reason: HaltProgramEnd, PC: pc}, nil
		}
		if vm.atBreakpoint(pc) {
			return RunResult{Reason: HaltBreakpoint, PC: pc}, nil
		}
		if vm.breakRequested {
			vm.breakRequested = false
			return RunResult{Reason: HaltInterrupted, PC: pc}, nil
		}
	}
}

func (vm *VM) step() error {
	pc := vm.regs[isa.PC]

	b0, err := vm.Mem.ReadByte(pc)
	if err != nil {
		return err
	}
	b1, err := vm.Mem.ReadByte(pc + 1)
	if err != nil {
		return err
	}
	b2, err := vm.Mem.ReadByte(pc + 2)
	if err != nil {
		return err
	}

	opcodeByte := b0 &^ 0x03
	entry, ok := vm.Dict.ByOpcode(opcodeByte)
	if !ok {
		return &UnknownOpcodeError{Addr: opcodeByte, PC: pc}
	}

	switch {
	case entry.Formats.Has(1):
		vm.regs[isa.PC] = pc + 1
		vm.execFormat1(entry.Mnemonic)
		return nil

	case entry.Formats.Has(2):
		vm.regs[isa.PC] = pc + 2
		r1 := int(b1>>4) & 0xF
		r2 := int(b1) & 0xF
		vm.execFormat2(entry.Mnemonic, r1, r2)
		return nil

	default:
		n := int(b0>>1) & 1
		i := int(b0) & 1
		x := int(b1>>7) & 1
		b := int(b1>>6) & 1
		p := int(b1>>5) & 1
		e := int(b1>>4) & 1

		var field int
		if e == 1 {
			b3, err := vm.Mem.ReadByte(pc + 3)
			if err != nil {
				return err
			}
			vm.regs[isa.PC] = pc + 4
			field = (int(b1&0xF) << 16) | (int(b2) << 8) | int(b3)
		} else {
			vm.regs[isa.PC] = pc + 3
			field = (int(b1&0xF) << 8) | int(b2)
		}

		target, err := vm.resolveTarget(n, i, x, b, p, e, field, pc)
		if err != nil {
			return err
		}

		value := target
		switch {
		case n == 1 && i == 0:
			indirect, err := vm.Mem.ReadWord(target)
			if err != nil {
				return err
			}
			word, err := vm.Mem.ReadWord(int(indirect))
			if err != nil {
				return err
			}
			value = int(word)
		case n == 0 && i == 1:
			value = target
		default:
			word, err := vm.Mem.ReadWord(target)
			if err != nil {
				return err
			}
			value = int(word)
		}

		return vm.execFormat34(entry.Mnemonic, target, value)
	}
}

func (vm *VM) resolveTarget(n, i, x, b, p, e, field, pc int) (int, error) {
	var target int

	switch {
	case n == 0 && i == 0:
		target = (b << 14) | (p << 13) | (e << 12) | field
	case b == 1 && p == 0:
		target = vm.regs[isa.B] + field
	case b == 0 && p == 1:
		bits := 12
		if e == 1 {
			bits = 20
		}
		target = vm.regs[isa.PC] + signExtend(field, bits)
	case b == 0 && p == 0:
		target = field
	default:
		return 0, &InvalidAddressingError{PC: pc}
	}

	if x == 1 {
		target += vm.regs[isa.X]
	}

	return target & isa.MemAddrMax, nil
}
