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

package assembler

// DirectiveType enumerates the assembler directives recognized alongside
// opcode mnemonics.
type DirectiveType uint

const (
	DirectiveNone DirectiveType = iota
	DirectiveStart
	DirectiveEnd
	DirectiveByte
	DirectiveWord
	DirectiveResb
	DirectiveResw
	DirectiveBase
	DirectiveNobase
)

var directiveNames = map[string]DirectiveType{
	"START":  DirectiveStart,
	"END":    DirectiveEnd,
	"BYTE":   DirectiveByte,
	"WORD":   DirectiveWord,
	"RESB":   DirectiveResb,
	"RESW":   DirectiveResw,
	"BASE":   DirectiveBase,
	"NOBASE": DirectiveNobase,
}

func directiveOf(mnemonic string) (DirectiveType, bool) {
	d, ok := directiveNames[mnemonic]
	return d, ok
}

// lineLeap is how far the display line counter advances per physical
// source line, comment or not.
const lineLeap = 5

// maxPCDisplacement and maxBaseDisplacement bound the signed PC-relative
// and unsigned base-relative displacement fields of a format-3
// instruction.
const (
	minPCDisplacement   = -2048
	maxPCDisplacement   = 2047
	minBaseDisplacement = 0
	maxBaseDisplacement = 4095
)
