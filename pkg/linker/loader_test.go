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

package linker_test

import (
	"io"
	"strings"
	"testing"

	"github.com/gosicxe/sicsim/pkg/linker"
	"github.com/gosicxe/sicsim/pkg/memory"
)

func object(lines ...string) io.Reader {
	return strings.NewReader(strings.Join(lines, "\n") + "\n")
}

func TestLoadSingleSection(t *testing.T) {
	mem := memory.New()
	ld := linker.NewLoader(mem)

	obj := object(
		"HCOPY  000000000006",
		"T000000060100054F0000",
		"E000000",
	)

	start, end, err := ld.Load(0x4000, []io.Reader{obj})
	if err != nil {
		t.Fatal(err)
	}
	if start != 0x4000 || end != 0x4006 {
		t.Fatalf("unexpected extent: start=%06X end=%06X", start, end)
	}

	got, err := mem.Read(0x4000, 6)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0x01, 0x00, 0x05, 0x4F, 0x00, 0x00}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("byte %d mismatch: have %02X want %02X", i, got[i], want[i])
		}
	}
}

func TestLoadResolvesExternalReferenceAndRelocates(t *testing.T) {
	mem := memory.New()
	ld := linker.NewLoader(mem)

	// progA: +JSUB PROGB, an extended-format external reference.
	progA := object(
		"HPROGA 000000000004",
		"R02PROGB ",
		"T000000044B100000",
		"M00000105+02",
		"E000000",
	)
	progB := object(
		"HPROGB 000000000003",
		"DPROGB 000000",
		"T00000003000000",
		"E000000",
	)

	start, end, err := ld.Load(0x4000, []io.Reader{progA, progB})
	if err != nil {
		t.Fatal(err)
	}
	if start != 0x4000 || end != 0x4007 {
		t.Fatalf("unexpected extent: start=%06X end=%06X", start, end)
	}

	word, err := mem.ReadWord(0x4001)
	if err != nil {
		t.Fatal(err)
	}
	// The relocated 20-bit address field must equal PROGB's load address
	// (0x4004), with the high nibble (the e flag) left undisturbed by the
	// 5-half-byte modification.
	if word&0xFFFFF != 0x4004 {
		t.Fatalf("expected relocated address 004004, have %06X", word&0xFFFFF)
	}
	if word&0xF00000 != 0x100000 {
		t.Fatalf("expected e-flag nibble preserved, have %06X", word)
	}
}

func TestLoadRejectsTooManyFiles(t *testing.T) {
	ld := linker.NewLoader(memory.New())
	files := make([]io.Reader, 4)
	for i := range files {
		files[i] = object("HX     000000000000", "E000000")
	}
	_, _, err := ld.Load(0x1000, files)
	if err == nil {
		t.Fatal("expected error for 4 object files")
	}
}

func TestLoadRejectsUnresolvedExternal(t *testing.T) {
	ld := linker.NewLoader(memory.New())
	obj := object(
		"HPROGA 000000000003",
		"R02PROGB ",
		"T00000003000000",
		"E000000",
	)
	_, _, err := ld.Load(0x1000, []io.Reader{obj})
	if err == nil {
		t.Fatal("expected unresolved external reference error")
	}
}
