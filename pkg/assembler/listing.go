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
	"strings"
)

// operandColumn is how wide the operand field is padded before the
// object-code hex is appended, so the code lines up in one column for
// operands up to that width; a longer operand pushes its code right.
const operandColumn = 18

// RenderListing renders a successful assembly's listing rows in the
// fixed-column .lst format: 3-digit line number, 4-digit locctr (blank
// for BASE/NOBASE/END), 6-char label, 6-char mnemonic, operand1 with an
// optional ", operand2", and the object-code hex padded to a column.
func RenderListing(lines []ListingLine) string {
	var b strings.Builder
	for _, ln := range lines {
		b.WriteString(renderListingLine(ln))
		b.WriteByte('\n')
	}
	return b.String()
}

func renderListingLine(ln ListingLine) string {
	locctr := "    "
	if ln.HasAddr {
		locctr = fmt.Sprintf("%04X", ln.Locctr&0xFFFF)
	}

	operand := ln.Operand1
	if ln.Operand2 != "" {
		operand += ", " + ln.Operand2
	}

	return fmt.Sprintf("%3d %s %s %s %s%s",
		ln.LineNo, locctr, fixedField(ln.Label, 6), fixedField(ln.Mnemonic, 6), padField(operand, operandColumn), ln.Code)
}

// fixedField truncates or space-pads s to exactly width characters,
// matching the object record codec's padName discipline.
func fixedField(s string, width int) string {
	if len(s) >= width {
		return s[:width]
	}
	return s + strings.Repeat(" ", width-len(s))
}

// padField space-pads s to at least width characters without truncating,
// since operand text (symbol names plus literals) is not fixed-width.
func padField(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
