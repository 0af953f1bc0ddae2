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

// Package assembler implements the two-pass SIC/XE assembler: pass 1
// assigns location counters and builds the symbol table; pass 2 resolves
// addressing modes and emits the object program and listing.
package assembler

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gosicxe/sicsim/pkg/objfmt"
	"github.com/gosicxe/sicsim/pkg/opcode"
	"github.com/gosicxe/sicsim/pkg/symtab"
)

// twoRegisterMnemonics lists the format-2 instructions whose second
// register operand is mandatory; the rest (CLEAR, TIXR) accept one.
var twoRegisterMnemonics = map[string]bool{
	"ADDR": true, "SUBR": true, "MULR": true, "DIVR": true,
	"COMPR": true, "RMO": true, "SHIFTL": true, "SHIFTR": true,
}

// Assembler ties an opcode dictionary and a symbol table to the two-pass
// procedure. Both are shared process-wide state owned by the caller.
type Assembler struct {
	dict *opcode.Dictionary
	sym  *symtab.Table
}

// New returns an Assembler over the given dictionary and symbol table.
func New(dict *opcode.Dictionary, sym *symtab.Table) *Assembler {
	return &Assembler{dict: dict, sym: sym}
}

type parsedLine struct {
	sourceLine  int
	displayLine int
	isComment   bool
	isBlank     bool
	label       string
	mnemonic    string
	extended    bool
	operand1    string
	operand2    string
	locctr      int
	length      int
}

// Assemble runs pass 1 and pass 2 over source and returns the object
// program and listing on success. The working symbol table is cleared on
// entry and saved over the prior table only if both passes succeed.
func (a *Assembler) Assemble(source io.Reader) (*Object, []ListingLine, error) {
	a.sym.ClearError()
	a.sym.NewWorkingTable()

	var rawLines []string
	scanner := bufio.NewScanner(source)
	for scanner.Scan() {
		rawLines = append(rawLines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}

	parsed, programStart, programLength, err := a.passOne(rawLines)
	if err != nil {
		a.recordError(err)
		return nil, nil, err
	}

	obj, listing, err := a.passTwo(parsed, programStart, programLength)
	if err != nil {
		a.recordError(err)
		return nil, nil, err
	}

	a.sym.Save()
	return obj, listing, nil
}

func (a *Assembler) recordError(err error) {
	line := 0
	if te, ok := err.(TokenError); ok {
		line = te.GetPosition().Line
	}
	switch e := err.(type) {
	case *DuplicateSymbolError:
		a.sym.SetError(symtab.DuplicateSymbol, line, e.Symbol)
	case *InvalidOpcodeError:
		a.sym.SetError(symtab.InvalidOpcode, line, e.Mnemonic)
	case *InvalidOperandError:
		a.sym.SetError(symtab.InvalidOperand, line, e.Operand)
	case *RequiredOperandsError:
		if e.Want == 1 {
			a.sym.SetError(symtab.RequiredOneOperand, line, e.Mnemonic)
		} else {
			a.sym.SetError(symtab.RequiredTwoOperands, line, e.Mnemonic)
		}
	}
}

func (a *Assembler) splitLine(trimmed string) (label, mnemonic string, extended bool, operand1, operand2 string) {
	fields := strings.Fields(trimmed)
	if len(fields) == 0 {
		return
	}

	candidate := fields[0]
	ext := strings.HasPrefix(candidate, "+")
	bare := strings.TrimPrefix(candidate, "+")

	_, isDirective := directiveOf(bare)
	_, isOpcode := a.dict.Lookup(bare)

	if isDirective || isOpcode {
		mnemonic = candidate
		if len(fields) > 1 {
			operand1, operand2 = splitOperands(fields[1])
		}
		return "", mnemonic, ext, operand1, operand2
	}

	label = candidate
	if len(fields) < 2 {
		return label, "", false, "", ""
	}
	mnemonic = fields[1]
	ext = strings.HasPrefix(mnemonic, "+")
	if len(fields) > 2 {
		operand1, operand2 = splitOperands(fields[2])
	}
	return label, mnemonic, ext, operand1, operand2
}

func splitOperands(field string) (string, string) {
	parts := strings.SplitN(field, ",", 2)
	op1 := strings.TrimSpace(parts[0])
	op2 := ""
	if len(parts) == 2 {
		op2 = strings.TrimSpace(parts[1])
	}
	return op1, op2
}

func bareMnemonic(mnemonic string) string {
	return strings.TrimPrefix(mnemonic, "+")
}

// passOne assigns location counters, builds the working symbol table, and
// returns the per-line trace pass 2 consumes.
func (a *Assembler) passOne(rawLines []string) ([]parsedLine, int, int, error) {
	var parsed []parsedLine
	display := 0
	locctr := 0
	programStart := 0
	started := false
	endSeen := false

	for i, raw := range rawLines {
		display += lineLeap
		trimmed := strings.TrimSpace(raw)

		pl := parsedLine{sourceLine: i + 1, displayLine: display}

		if trimmed == "" {
			pl.isBlank = true
			parsed = append(parsed, pl)
			continue
		}
		if trimmed[0] == '.' {
			pl.isComment = true
			parsed = append(parsed, pl)
			continue
		}

		label, mnemonic, extended, op1, op2 := a.splitLine(trimmed)
		pl.label = label
		pl.mnemonic = mnemonic
		pl.extended = extended
		pl.operand1 = op1
		pl.operand2 = op2

		if !started {
			started = true
			if bareMnemonic(mnemonic) == "START" {
				if op1 == "" {
					return nil, 0, 0, &RequiredOperandsError{Cursor{display}, mnemonic, 1}
				}
				v, err := strconv.ParseInt(op1, 16, 64)
				if err != nil {
					return nil, 0, 0, &InvalidOperandError{Cursor{display}, op1}
				}
				locctr = int(v)
				programStart = locctr
				if label != "" {
					if !a.sym.Insert(label, locctr) {
						return nil, 0, 0, &DuplicateSymbolError{Cursor{display}, label}
					}
				}
				pl.locctr = locctr
				pl.length = 0
				parsed = append(parsed, pl)
				continue
			}
			locctr = 0
			programStart = 0
		}

		if bareMnemonic(mnemonic) == "END" {
			pl.locctr = locctr
			pl.length = 0
			parsed = append(parsed, pl)
			endSeen = true
			break
		}

		if label != "" {
			if !a.sym.Insert(label, locctr) {
				return nil, 0, 0, &DuplicateSymbolError{Cursor{display}, label}
			}
		}

		length, err := a.instructionLength(mnemonic, extended, op1, op2, display)
		if err != nil {
			return nil, 0, 0, err
		}

		pl.locctr = locctr
		pl.length = length
		parsed = append(parsed, pl)
		locctr += length
	}

	if !endSeen {
		return nil, 0, 0, &MissingEndError{}
	}

	programLength := locctr - programStart
	return parsed, programStart, programLength, nil
}

func (a *Assembler) instructionLength(mnemonic string, extended bool, op1, op2 string, line int) (int, error) {
	bare := bareMnemonic(mnemonic)

	if d, ok := directiveOf(bare); ok {
		switch d {
		case DirectiveStart, DirectiveBase, DirectiveNobase, DirectiveEnd:
			if d == DirectiveBase && op1 == "" {
				return 0, &RequiredOperandsError{Cursor{line}, mnemonic, 1}
			}
			return 0, nil
		case DirectiveByte:
			if op1 == "" {
				return 0, &RequiredOperandsError{Cursor{line}, mnemonic, 1}
			}
			bytes, err := decodeByteLiteral(op1)
			if err != nil {
				return 0, &InvalidOperandError{Cursor{line}, op1}
			}
			return len(bytes), nil
		case DirectiveWord:
			if op1 == "" {
				return 0, &RequiredOperandsError{Cursor{line}, mnemonic, 1}
			}
			return 3, nil
		case DirectiveResb:
			n, err := strconv.Atoi(op1)
			if err != nil || n < 0 {
				return 0, &InvalidOperandError{Cursor{line}, op1}
			}
			return n, nil
		case DirectiveResw:
			n, err := strconv.Atoi(op1)
			if err != nil || n < 0 {
				return 0, &InvalidOperandError{Cursor{line}, op1}
			}
			return 3 * n, nil
		}
	}

	entry, ok := a.dict.Lookup(bare)
	if !ok {
		return 0, &InvalidOpcodeError{Cursor{line}, mnemonic}
	}

	if extended {
		if !entry.Formats.Has(4) {
			return 0, &InvalidOpcodeError{Cursor{line}, mnemonic}
		}
		if op1 == "" && bare != "RSUB" {
			return 0, &RequiredOperandsError{Cursor{line}, mnemonic, 1}
		}
		return 4, nil
	}

	switch {
	case entry.Formats.Has(1):
		return 1, nil
	case entry.Formats.Has(2):
		if op1 == "" {
			return 0, &RequiredOperandsError{Cursor{line}, mnemonic, 1}
		}
		if twoRegisterMnemonics[bare] && op2 == "" {
			return 0, &RequiredOperandsError{Cursor{line}, mnemonic, 2}
		}
		return 2, nil
	case entry.Formats.Has(3):
		if op1 == "" && bare != "RSUB" {
			return 0, &RequiredOperandsError{Cursor{line}, mnemonic, 1}
		}
		return 3, nil
	default:
		return 0, &InvalidOpcodeError{Cursor{line}, mnemonic}
	}
}

func decodeByteLiteral(operand string) ([]byte, error) {
	switch {
	case strings.HasPrefix(operand, "C'") && strings.HasSuffix(operand, "'") && len(operand) >= 3:
		return []byte(operand[2 : len(operand)-1]), nil
	case strings.HasPrefix(operand, "X'") && strings.HasSuffix(operand, "'") && len(operand) >= 3:
		digits := operand[2 : len(operand)-1]
		if len(digits) == 0 {
			return nil, fmt.Errorf("empty hex literal")
		}
		if len(digits)%2 != 0 {
			// instruction_length = ceil(h/2): an odd digit count leaves the
			// last nibble implicitly zero.
			digits += "0"
		}
		out := make([]byte, len(digits)/2)
		for i := 0; i < len(digits); i += 2 {
			v, err := strconv.ParseUint(digits[i:i+2], 16, 8)
			if err != nil {
				return nil, err
			}
			out[i/2] = byte(v)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unrecognized literal syntax")
	}
}

// passTwo resolves addressing modes and emits the object program and
// listing from pass 1's trace.
func (a *Assembler) passTwo(parsed []parsedLine, programStart, programLength int) (*Object, []ListingLine, error) {
	var obj Object
	var listing []ListingLine

	textStart := programStart
	var pending []byte
	base := 0
	baseEnabled := false

	flush := func(nextStart int) {
		if len(pending) > 0 {
			obj.Text = append(obj.Text, objfmt.Text{Addr: textStart, Bytes: pending})
			pending = nil
		}
		textStart = nextStart
	}

	appendCode := func(locctr int, code []byte) {
		if len(pending)+len(code) > objfmt.MaxTextBytes {
			flush(locctr)
		}
		pending = append(pending, code...)
	}

	for _, pl := range parsed {
		if pl.isComment || pl.isBlank {
			continue
		}

		bare := bareMnemonic(pl.mnemonic)
		row := ListingLine{LineNo: pl.displayLine, Label: pl.label, Mnemonic: pl.mnemonic, Operand1: pl.operand1, Operand2: pl.operand2}

		if d, ok := directiveOf(bare); ok {
			switch d {
			case DirectiveStart:
				obj.Header = objfmt.Header{Name: pl.label, Start: pl.locctr, Length: programLength}
				textStart = pl.locctr
				row.Locctr, row.HasAddr = pl.locctr, true
				listing = append(listing, row)
				continue
			case DirectiveEnd:
				flush(pl.locctr)
				obj.End = objfmt.End{Start: obj.Header.Start}
				listing = append(listing, row)
				continue
			case DirectiveBase:
				addr, ok := a.sym.Lookup(pl.operand1)
				if !ok {
					return nil, nil, &InvalidOperandError{Cursor{pl.displayLine}, pl.operand1}
				}
				base = addr
				baseEnabled = true
				listing = append(listing, row)
				continue
			case DirectiveNobase:
				baseEnabled = false
				listing = append(listing, row)
				continue
			case DirectiveByte:
				code, err := decodeByteLiteral(pl.operand1)
				if err != nil {
					return nil, nil, &InvalidOperandError{Cursor{pl.displayLine}, pl.operand1}
				}
				appendCode(pl.locctr, code)
				row.Locctr, row.HasAddr = pl.locctr, true
				row.Code = hexEncode(code)
				listing = append(listing, row)
				continue
			case DirectiveWord:
				v, err := strconv.Atoi(pl.operand1)
				if err != nil {
					return nil, nil, &InvalidOperandError{Cursor{pl.displayLine}, pl.operand1}
				}
				word := v & 0xFFFFFF
				code := []byte{byte(word >> 16), byte(word >> 8), byte(word)}
				appendCode(pl.locctr, code)
				row.Locctr, row.HasAddr = pl.locctr, true
				row.Code = hexEncode(code)
				listing = append(listing, row)
				continue
			case DirectiveResb, DirectiveResw:
				flush(pl.locctr + pl.length)
				row.Locctr, row.HasAddr = pl.locctr, true
				listing = append(listing, row)
				continue
			}
		}

		entry, ok := a.dict.Lookup(bare)
		if !ok {
			return nil, nil, &InvalidOpcodeError{Cursor{pl.displayLine}, pl.mnemonic}
		}

		var code []byte
		var err error

		switch pl.length {
		case 1:
			code = []byte{entry.Opcode}
		case 2:
			r1, ok1 := a.sym.Lookup(pl.operand1)
			if !ok1 {
				return nil, nil, &InvalidOperandError{Cursor{pl.displayLine}, pl.operand1}
			}
			r2 := 0
			if pl.operand2 != "" {
				v, ok2 := a.sym.Lookup(pl.operand2)
				if !ok2 {
					return nil, nil, &InvalidOperandError{Cursor{pl.displayLine}, pl.operand2}
				}
				r2 = v
			}
			code = []byte{entry.Opcode, byte(r1<<4 | r2&0xF)}
		default:
			code, err = a.encodeFormat34(entry, pl, base, baseEnabled, &obj.Modifications)
			if err != nil {
				return nil, nil, err
			}
		}

		appendCode(pl.locctr, code)
		row.Locctr, row.HasAddr = pl.locctr, true
		row.Code = hexEncode(code)
		listing = append(listing, row)
	}

	return &obj, listing, nil
}

func (a *Assembler) encodeFormat34(entry opcode.Entry, pl parsedLine, base int, baseEnabled bool, mods *[]objfmt.Modification) ([]byte, error) {
	bare := bareMnemonic(pl.mnemonic)

	if bare == "RSUB" {
		return encodeNIXBPE(entry.Opcode, 1, 1, 0, 0, 0, 0, 0, 3), nil
	}

	operand := pl.operand1
	n, i := 1, 1
	switch {
	case strings.HasPrefix(operand, "#"):
		n, i = 0, 1
		operand = operand[1:]
	case strings.HasPrefix(operand, "@"):
		n, i = 1, 0
		operand = operand[1:]
	}

	x := 0
	if pl.operand2 != "" {
		if pl.operand2 != "X" {
			return nil, &InvalidOperandError{Cursor{pl.displayLine}, pl.operand2}
		}
		x = 1
	}

	if n == 0 && i == 1 {
		if v, err := strconv.Atoi(operand); err == nil {
			if pl.extended {
				return encodeNIXBPE(entry.Opcode, n, i, x, 0, 0, 1, v&0xFFFFF, 4), nil
			}
			if v < minPCDisplacement || v > maxPCDisplacement {
				return nil, &InvalidOperandError{Cursor{pl.displayLine}, pl.operand1}
			}
			return encodeNIXBPE(entry.Opcode, n, i, x, 0, 0, 0, v&0xFFF, 3), nil
		}
	}

	target, ok := a.sym.Lookup(operand)
	if !ok {
		return nil, &InvalidOperandError{Cursor{pl.displayLine}, pl.operand1}
	}

	if pl.extended {
		*mods = append(*mods, objfmt.Modification{Addr: pl.locctr + 1, Length: 5, Sign: '+', Ref: 1})
		return encodeNIXBPE(entry.Opcode, n, i, x, 0, 0, 1, target&0xFFFFF, 4), nil
	}

	pcDisp := target - (pl.locctr + 3)
	if pcDisp >= minPCDisplacement && pcDisp <= maxPCDisplacement {
		return encodeNIXBPE(entry.Opcode, n, i, x, 0, 1, 0, pcDisp&0xFFF, 3), nil
	}

	if baseEnabled {
		baseDisp := target - base
		if baseDisp >= minBaseDisplacement && baseDisp <= maxBaseDisplacement {
			return encodeNIXBPE(entry.Opcode, n, i, x, 1, 0, 0, baseDisp, 3), nil
		}
	}

	return nil, &InvalidOperandError{Cursor{pl.displayLine}, pl.operand1}
}

// encodeNIXBPE packs the n,i,x,b,p,e bits and a 12- or 20-bit
// displacement/address into the 3 or 4 object code bytes of a format-3/4
// instruction.
func encodeNIXBPE(opcodeByte byte, n, i, x, b, p, e, field, totalLen int) []byte {
	byte0 := opcodeByte | byte(n<<1) | byte(i)
	flags := byte(x<<7 | b<<6 | p<<5 | e<<4)

	if totalLen == 3 {
		byte1 := flags | byte((field>>8)&0xF)
		byte2 := byte(field & 0xFF)
		return []byte{byte0, byte1, byte2}
	}

	byte1 := flags | byte((field>>16)&0xF)
	byte2 := byte((field >> 8) & 0xFF)
	byte3 := byte(field & 0xFF)
	return []byte{byte0, byte1, byte2, byte3}
}

func hexEncode(b []byte) string {
	var sb strings.Builder
	for _, v := range b {
		fmt.Fprintf(&sb, "%02X", v)
	}
	return sb.String()
}
