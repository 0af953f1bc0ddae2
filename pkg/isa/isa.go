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

// Package isa holds the parts of the SIC/XE instruction set that both the
// assembler and the virtual machine need to agree on: register identifiers,
// condition codes, and the handful of numeric constants that are otherwise
// easy to duplicate and let drift apart.
package isa

// Register identifiers. The numbering (with a gap at 7) matches the
// reference SIC/XE register file; it is not sequential because PC and SW
// were bolted on after the original six-register SIC machine.
const (
	A  = 0
	X  = 1
	L  = 2
	B  = 3
	S  = 4
	T  = 5
	F  = 6
	PC = 8
	SW = 9
)

// RegisterNames maps every valid register identifier to its mnemonic, in
// declaration order matching the reference implementation's register table
// rather than numeric order.
var RegisterNames = []struct {
	Name string
	ID   int
}{
	{"A", A},
	{"X", X},
	{"L", L},
	{"PC", PC},
	{"SW", SW},
	{"B", B},
	{"S", S},
	{"T", T},
	{"F", F},
}

// RegisterID resolves a register mnemonic to its identifier. It is
// case-sensitive: register names are always upper case.
func RegisterID(name string) (int, bool) {
	for _, r := range RegisterNames {
		if r.Name == name {
			return r.ID, true
		}
	}
	return 0, false
}

// IsRegister reports whether name is a reserved register mnemonic.
func IsRegister(name string) bool {
	_, ok := RegisterID(name)
	return ok
}

// Condition codes held in the SW register's low byte.
const (
	CondLess    = '<'
	CondEqual   = '='
	CondGreater = '>'
)

// Memory bounds.
const (
	MemSize    = 1 << 20
	MemAddrMax = MemSize - 1
)
