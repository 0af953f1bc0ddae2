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

package repl

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gosicxe/sicsim/pkg/opcode"
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

func newREPL(t *testing.T) (*REPL, *bytes.Buffer) {
	t.Helper()
	dict, err := opcode.Load(strings.NewReader(cfg))
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	return New(dict, &out), &out
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDispatchUnknownCommand(t *testing.T) {
	r, out := newREPL(t)
	r.Dispatch("frobnicate")
	if !strings.Contains(out.String(), `"frobnicate" is not a valid command`) {
		t.Fatalf("unexpected output: %s", out.String())
	}
}

func TestDispatchBlankLineRepeatsLast(t *testing.T) {
	r, out := newREPL(t)
	r.Dispatch("opcodelist")
	out.Reset()
	r.Dispatch("")
	if out.Len() == 0 {
		t.Fatal("expected blank line to repeat the last command")
	}
}

func TestDispatchBlankLineWithNoHistoryIsNoop(t *testing.T) {
	r, out := newREPL(t)
	r.Dispatch("")
	if out.Len() != 0 {
		t.Fatalf("expected no output, got %q", out.String())
	}
}

func TestHistoryRecordsDispatchedLines(t *testing.T) {
	r, out := newREPL(t)
	r.Dispatch("opcodelist")
	r.Dispatch("symbol")
	out.Reset()
	r.Dispatch("history")
	got := out.String()
	if !strings.Contains(got, "opcodelist") || !strings.Contains(got, "symbol") {
		t.Fatalf("history missing entries: %s", got)
	}
}

func TestAssembleLoadAndRun(t *testing.T) {
	dir := t.TempDir()
	src := "PROG    START   0000\n" +
		"        LDA     FIVE\n" +
		"        RSUB\n" +
		"FIVE    WORD    5\n" +
		"        END     PROG\n"
	asmPath := writeFile(t, dir, "prog.asm", src)

	r, out := newREPL(t)

	r.Dispatch("assemble " + asmPath)
	if !strings.Contains(out.String(), "Assembly complete") {
		t.Fatalf("assemble failed: %s", out.String())
	}

	objPath := strings.TrimSuffix(asmPath, ".asm") + ".obj"

	out.Reset()
	r.Dispatch("loader " + objPath)
	if !strings.Contains(out.String(), "Program loaded") {
		t.Fatalf("loader failed: %s", out.String())
	}

	out.Reset()
	r.Dispatch("run")
	if !strings.Contains(out.String(), "end of program") {
		t.Fatalf("run did not reach program end: %s", out.String())
	}

	if r.VM().Reg(0) != 5 {
		t.Fatalf("expected register A == 5, have %d", r.VM().Reg(0))
	}
}

func TestAssembleDebugWritesSideCar(t *testing.T) {
	dir := t.TempDir()
	src := "PROG    START   0000\n" +
		"        LDA     FIVE\n" +
		"        RSUB\n" +
		"FIVE    WORD    5\n" +
		"        END     PROG\n"
	asmPath := writeFile(t, dir, "prog.asm", src)

	r, out := newREPL(t)
	r.Dispatch("assemble -debug " + asmPath)
	if !strings.Contains(out.String(), "Debug symbol file written") {
		t.Fatalf("expected side-car write confirmation: %s", out.String())
	}

	out.Reset()
	r.Dispatch("labels")
	if !strings.Contains(out.String(), "FIVE") {
		t.Fatalf("expected FIVE label in listing: %s", out.String())
	}
}

func TestAssembleWritesListingFile(t *testing.T) {
	dir := t.TempDir()
	src := "PROG    START   0000\n" +
		"        LDA     FIVE\n" +
		"        RSUB\n" +
		"FIVE    WORD    5\n" +
		"        END     PROG\n"
	asmPath := writeFile(t, dir, "prog.asm", src)

	r, out := newREPL(t)
	r.Dispatch("assemble " + asmPath)
	if !strings.Contains(out.String(), ".lst") {
		t.Fatalf("expected listing path in output: %s", out.String())
	}

	lstPath := strings.TrimSuffix(asmPath, ".asm") + ".lst"
	data, err := os.ReadFile(lstPath)
	if err != nil {
		t.Fatalf("expected .lst file to exist: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected 5 listing rows, have %d: %q", len(lines), lines)
	}
	if !strings.Contains(lines[1], "FIVE") || !strings.Contains(lines[1], "LDA") {
		t.Fatalf("unexpected LDA row: %q", lines[1])
	}
}

func TestLoadSideCarRestoresLabels(t *testing.T) {
	dir := t.TempDir()
	src := "PROG    START   0000\n" +
		"        LDA     FIVE\n" +
		"        RSUB\n" +
		"FIVE    WORD    5\n" +
		"        END     PROG\n"
	asmPath := writeFile(t, dir, "prog.asm", src)

	writer, out := newREPL(t)
	writer.Dispatch("assemble -debug " + asmPath)
	if !strings.Contains(out.String(), "Debug symbol file written") {
		t.Fatalf("expected side-car write: %s", out.String())
	}

	reader, out2 := newREPL(t)
	sdbPath := strings.TrimSuffix(asmPath, ".asm") + ".sdb"
	reader.Dispatch("loadsdb " + sdbPath)
	if !strings.Contains(out2.String(), "Debug symbol file loaded") {
		t.Fatalf("loadsdb failed: %s", out2.String())
	}

	out2.Reset()
	reader.Dispatch("labels")
	if !strings.Contains(out2.String(), "FIVE") {
		t.Fatalf("expected FIVE label after loadsdb: %s", out2.String())
	}
}

func TestBreakpointPausesRunAndResumeReachesEnd(t *testing.T) {
	dir := t.TempDir()
	src := "PROG    START   0000\n" +
		"        LDA     FIVE\n" +
		"        LDA     FIVE\n" +
		"        RSUB\n" +
		"FIVE    WORD    5\n" +
		"        END     PROG\n"
	asmPath := writeFile(t, dir, "prog.asm", src)

	r, out := newREPL(t)
	r.Dispatch("assemble " + asmPath)
	objPath := strings.TrimSuffix(asmPath, ".asm") + ".obj"
	r.Dispatch("loader " + objPath)

	out.Reset()
	r.Dispatch("bp 3")
	if !strings.Contains(out.String(), "Breakpoint set") {
		t.Fatalf("bp failed: %s", out.String())
	}

	out.Reset()
	r.Dispatch("run")
	if !strings.Contains(out.String(), "Breakpoint reached") {
		t.Fatalf("expected breakpoint halt: %s", out.String())
	}

	out.Reset()
	r.Dispatch("bp clear")
	r.Dispatch("run")
	if !strings.Contains(out.String(), "end of program") {
		t.Fatalf("expected resumed run to reach program end: %s", out.String())
	}
}

func TestDumpEditFillReset(t *testing.T) {
	r, out := newREPL(t)

	r.Dispatch("edit 1000 ABCDEF")
	if !strings.Contains(out.String(), "001000: ABCDEF") {
		t.Fatalf("edit failed: %s", out.String())
	}

	out.Reset()
	r.Dispatch("dump 1000 1010")
	if !strings.Contains(out.String(), "001000:") {
		t.Fatalf("dump failed: %s", out.String())
	}

	out.Reset()
	r.Dispatch("fill 2000 2010 FF")
	if !strings.Contains(out.String(), "Filled") {
		t.Fatalf("fill failed: %s", out.String())
	}

	out.Reset()
	r.Dispatch("reset")
	if !strings.Contains(out.String(), "Memory reset") {
		t.Fatalf("reset failed: %s", out.String())
	}
}

func TestQuitSetsQuitFlag(t *testing.T) {
	r, _ := newREPL(t)
	if r.Quit() {
		t.Fatal("expected Quit() false before quit command")
	}
	r.Dispatch("quit")
	if !r.Quit() {
		t.Fatal("expected Quit() true after quit command")
	}
}

func TestOpcodeLookup(t *testing.T) {
	r, out := newREPL(t)
	r.Dispatch("opcode lda")
	if !strings.Contains(out.String(), "LDA: 00") {
		t.Fatalf("unexpected opcode output: %s", out.String())
	}
}
