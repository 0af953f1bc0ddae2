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

import (
	"fmt"

	"github.com/gosicxe/sicsim/pkg/objfmt"
)

// Cursor locates an error within the source: the display line number (the
// SIC/XE convention of incrementing by 5 per physical line), not the raw
// line index.
type Cursor struct {
	Line int
}

// TokenError is implemented by every error this package raises during
// assembly, so callers can recover the offending line uniformly.
type TokenError interface {
	error
	GetPosition() Cursor
}

// DuplicateSymbolError reports a label already present in the working
// symbol table.
type DuplicateSymbolError struct {
	Position Cursor
	Symbol   string
}

func (err *DuplicateSymbolError) GetPosition() Cursor { return err.Position }

func (err *DuplicateSymbolError) Error() string {
	return fmt.Sprintf("%d: duplicate symbol %q", err.Position.Line, err.Symbol)
}

// InvalidOpcodeError reports a mnemonic the opcode dictionary does not know
// and that is not one of the recognized directives.
type InvalidOpcodeError struct {
	Position Cursor
	Mnemonic string
}

func (err *InvalidOpcodeError) GetPosition() Cursor { return err.Position }

func (err *InvalidOpcodeError) Error() string {
	return fmt.Sprintf("%d: invalid opcode %q", err.Position.Line, err.Mnemonic)
}

// InvalidOperandError reports an operand that cannot be parsed or resolved
// for its mnemonic or directive.
type InvalidOperandError struct {
	Position Cursor
	Operand  string
}

func (err *InvalidOperandError) GetPosition() Cursor { return err.Position }

func (err *InvalidOperandError) Error() string {
	return fmt.Sprintf("%d: invalid operand %q", err.Position.Line, err.Operand)
}

// RequiredOperandsError reports a mnemonic called with the wrong operand
// arity.
type RequiredOperandsError struct {
	Position Cursor
	Mnemonic string
	Want     int
}

func (err *RequiredOperandsError) GetPosition() Cursor { return err.Position }

func (err *RequiredOperandsError) Error() string {
	noun := "operand"
	if err.Want != 1 {
		noun = "operands"
	}
	return fmt.Sprintf("%d: %q requires %d %s", err.Position.Line, err.Mnemonic, err.Want, noun)
}

// MissingEndError reports a source that exhausted its input before an END
// directive.
type MissingEndError struct{}

func (err *MissingEndError) GetPosition() Cursor { return Cursor{} }
func (err *MissingEndError) Error() string        { return "source ended without an END directive" }

// Object is the full object program emitted by a successful assembly.
type Object struct {
	Header        objfmt.Header
	Text          []objfmt.Text
	Modifications []objfmt.Modification
	End           objfmt.End
}

// Lines renders the object program as a fixed-field record stream, in H,
// T..., M..., E order, matching §6's record grammar.
func (o *Object) Lines() []string {
	lines := make([]string, 0, 2+len(o.Text)+len(o.Modifications))
	lines = append(lines, objfmt.EncodeHeader(o.Header))
	for _, t := range o.Text {
		lines = append(lines, objfmt.EncodeText(t))
	}
	for _, m := range o.Modifications {
		lines = append(lines, objfmt.EncodeModification(m))
	}
	lines = append(lines, objfmt.EncodeEnd(o.End))
	return lines
}

// ListingLine is one row of the human-readable assembly listing.
type ListingLine struct {
	LineNo   int
	Locctr   int
	HasAddr  bool
	Label    string
	Mnemonic string
	Operand1 string
	Operand2 string
	Code     string
}
