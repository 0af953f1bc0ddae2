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

package assembler_test

import (
	"strings"
	"testing"

	"github.com/gosicxe/sicsim/pkg/assembler"
	"github.com/gosicxe/sicsim/pkg/opcode"
	"github.com/gosicxe/sicsim/pkg/symtab"
)

const cfg = `
18 ADD 3/4
00 LDA 3/4
0C STA 3/4
28 COMP 3/4
30 JEQ 3/4
3C J 3/4
48 JSUB 3/4
4C RSUB 3/4
90 ADDR 2
B4 CLEAR 2
`

func newAssembler(t *testing.T) *assembler.Assembler {
	t.Helper()
	dict, err := opcode.Load(strings.NewReader(cfg))
	if err != nil {
		t.Fatal(err)
	}
	return assembler.New(dict, symtab.New())
}

func TestAssembleMinimalProgram(t *testing.T) {
	a := newAssembler(t)
	src := `
COPY    START   1000
        LDA     FIVE
        RSUB
FIVE    WORD    5
        END     COPY
`
	obj, _, err := a.Assemble(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	if obj.Header.Name != "COPY" || obj.Header.Start != 0x1000 {
		t.Fatalf("unexpected header: %+v", obj.Header)
	}
	if len(obj.Text) != 1 {
		t.Fatalf("expected a single text record, have %d", len(obj.Text))
	}
	want := "032003" + "4F0000" + "000005"
	got := hexBytes(obj.Text[0].Bytes)
	if got != want {
		t.Fatalf("unexpected code: have %s want %s", got, want)
	}
}

func hexBytes(b []byte) string {
	var sb strings.Builder
	for _, v := range b {
		sb.WriteString(hexByte(v))
	}
	return sb.String()
}

func hexByte(v byte) string {
	const digits = "0123456789ABCDEF"
	return string([]byte{digits[v>>4], digits[v&0xF]})
}

func TestAssembleRejectsForwardPCOutOfRangeWithoutBase(t *testing.T) {
	a := newAssembler(t)
	var src strings.Builder
	src.WriteString("PROG    START   0000\n")
	src.WriteString("        J       FAR\n")
	for i := 0; i < 1000; i++ {
		src.WriteString("        LDA     FAR\n")
	}
	src.WriteString("FAR     RSUB\n")
	src.WriteString("        END     PROG\n")

	_, _, err := a.Assemble(strings.NewReader(src.String()))
	if err == nil {
		t.Fatal("expected out-of-range PC-relative displacement to fail without BASE")
	}
}

func TestAssembleUsesBaseRelativeWhenOutOfPCRange(t *testing.T) {
	a := newAssembler(t)
	var src strings.Builder
	src.WriteString("PROG    START   0000\n")
	src.WriteString("BEGIN   LDA     BEGIN\n")
	src.WriteString("        BASE    BEGIN\n")
	for i := 0; i < 1000; i++ {
		src.WriteString("        LDA     BEGIN\n")
	}
	src.WriteString("        RSUB\n")
	src.WriteString("        END     PROG\n")

	_, _, err := a.Assemble(strings.NewReader(src.String()))
	if err != nil {
		t.Fatalf("expected BASE to rescue an out-of-PC-range reference: %v", err)
	}
}

func TestAssembleFormat2Instruction(t *testing.T) {
	a := newAssembler(t)
	src := `
PROG    START   0000
        CLEAR   A
        ADDR    A,X
        RSUB
        END     PROG
`
	obj, _, err := a.Assemble(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	got := hexBytes(obj.Text[0].Bytes)
	want := "B400" + "9001" + "4F0000"
	if got != want {
		t.Fatalf("unexpected code: have %s want %s", got, want)
	}
}

func TestAssembleByteAndWordDirectives(t *testing.T) {
	a := newAssembler(t)
	src := `
PROG    START   0000
CH      BYTE    C'AB'
HX      BYTE    X'1F'
NUM     WORD    10
        RSUB
        END     PROG
`
	obj, _, err := a.Assemble(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	got := hexBytes(obj.Text[0].Bytes)
	want := "4142" + "1F" + "00000A" + "4F0000"
	if got != want {
		t.Fatalf("unexpected code: have %s want %s", got, want)
	}
}

func TestAssembleByteLiteralOddHexDigitsRoundsUp(t *testing.T) {
	a := newAssembler(t)
	src := `
PROG    START   0000
HX      BYTE    X'1F2'
        RSUB
        END     PROG
`
	obj, _, err := a.Assemble(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	got := hexBytes(obj.Text[0].Bytes)
	want := "1F20" + "4F0000"
	if got != want {
		t.Fatalf("unexpected code: have %s want %s", got, want)
	}
}

func TestAssembleDuplicateSymbolError(t *testing.T) {
	a := newAssembler(t)
	src := `
PROG    START   0000
LBL     LDA     LBL
LBL     STA     LBL
        RSUB
        END     PROG
`
	_, _, err := a.Assemble(strings.NewReader(src))
	if _, ok := err.(*assembler.DuplicateSymbolError); !ok {
		t.Fatalf("expected DuplicateSymbolError, have %v (%T)", err, err)
	}
}

func TestAssembleInvalidOpcodeError(t *testing.T) {
	a := newAssembler(t)
	src := `
PROG    START   0000
        FROBNICATE
        END     PROG
`
	_, _, err := a.Assemble(strings.NewReader(src))
	if _, ok := err.(*assembler.InvalidOpcodeError); !ok {
		t.Fatalf("expected InvalidOpcodeError, have %v (%T)", err, err)
	}
}

func TestAssembleInvalidOperandError(t *testing.T) {
	a := newAssembler(t)
	src := `
PROG    START   0000
        LDA     NOSUCHSYMBOL
        END     PROG
`
	_, _, err := a.Assemble(strings.NewReader(src))
	if _, ok := err.(*assembler.InvalidOperandError); !ok {
		t.Fatalf("expected InvalidOperandError, have %v (%T)", err, err)
	}
}

func TestAssembleRequiredOperandError(t *testing.T) {
	a := newAssembler(t)
	src := `
PROG    START   0000
        ADDR
        END     PROG
`
	_, _, err := a.Assemble(strings.NewReader(src))
	if _, ok := err.(*assembler.RequiredOperandsError); !ok {
		t.Fatalf("expected RequiredOperandsError, have %v (%T)", err, err)
	}
}

func TestAssembleMissingEndError(t *testing.T) {
	a := newAssembler(t)
	src := `
PROG    START   0000
        RSUB
`
	_, _, err := a.Assemble(strings.NewReader(src))
	if _, ok := err.(*assembler.MissingEndError); !ok {
		t.Fatalf("expected MissingEndError, have %v (%T)", err, err)
	}
}
