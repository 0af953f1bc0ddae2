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

package memory_test

import (
	"testing"

	"github.com/gosicxe/sicsim/pkg/isa"
	"github.com/gosicxe/sicsim/pkg/memory"
)

func TestReadWriteWord(t *testing.T) {
	m := memory.New()

	if err := m.WriteWord(0x1000, 0x00FFEE); err != nil {
		t.Fatal(err)
	}

	have, err := m.ReadWord(0x1000)
	if err != nil {
		t.Fatal(err)
	}

	if have != 0x00FFEE {
		t.Fatalf("word mismatch\nwant:%#06x\nhave:%#06x", 0x00FFEE, have)
	}
}

func TestOutOfRange(t *testing.T) {
	m := memory.New()

	if _, err := m.Read(isa.MemSize-2, 3); err == nil {
		t.Fatal("expected out-of-range error")
	}

	if err := m.Write(-1, []byte{0x00}); err == nil {
		t.Fatal("expected out-of-range error")
	}
}

func TestModifyFiveHalfBytes(t *testing.T) {
	m := memory.New()

	if err := m.WriteWord(0x2000, 0xF12345); err != nil {
		t.Fatal(err)
	}

	if err := m.Modify(0x2000, 5, '+', 0x001000); err != nil {
		t.Fatal(err)
	}

	have, err := m.ReadWord(0x2000)
	if err != nil {
		t.Fatal(err)
	}

	want := uint32(0xF13345)
	if have != want {
		t.Fatalf("high nibble not preserved\nwant:%#06x\nhave:%#06x", want, have)
	}
}

func TestModifySixHalfBytes(t *testing.T) {
	m := memory.New()

	if err := m.WriteWord(0x3000, 0x000010); err != nil {
		t.Fatal(err)
	}

	if err := m.Modify(0x3000, 6, '-', 0x000020); err != nil {
		t.Fatal(err)
	}

	have, err := m.ReadWord(0x3000)
	if err != nil {
		t.Fatal(err)
	}

	want := uint32(0xFFFFF0)
	if have != want {
		t.Fatalf("subtraction wraparound mismatch\nwant:%#06x\nhave:%#06x", want, have)
	}
}

func TestModifyUnsupportedLength(t *testing.T) {
	m := memory.New()

	if err := m.Modify(0x4000, 4, '+', 1); err == nil {
		t.Fatal("expected unsupported length error")
	}
}

func TestFillAndReset(t *testing.T) {
	m := memory.New()

	if err := m.Fill(0x100, 0x110, 0xAB); err != nil {
		t.Fatal(err)
	}

	b, err := m.Read(0x100, 0x10)
	if err != nil {
		t.Fatal(err)
	}

	for i, v := range b {
		if v != 0xAB {
			t.Fatalf("fill mismatch at offset %d: have %#02x", i, v)
		}
	}

	m.Reset()

	b, err = m.Read(0x100, 0x10)
	if err != nil {
		t.Fatal(err)
	}

	for i, v := range b {
		if v != 0 {
			t.Fatalf("reset left nonzero byte at offset %d: %#02x", i, v)
		}
	}
}
