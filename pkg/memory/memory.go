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

// Package memory implements the shared 1 MiB byte-addressable store that the
// assembler's loader and the virtual machine both operate on.
package memory

import (
	"fmt"

	"github.com/gosicxe/sicsim/pkg/isa"
)

// Memory is exactly 1 MiB of byte-addressable storage, indexed
// [0x00000, 0xFFFFF].
type Memory struct {
	bytes [isa.MemSize]byte
}

// New returns a zeroed Memory.
func New() *Memory {
	return &Memory{}
}

// OutOfRangeError reports an access outside [0, isa.MemAddrMax].
type OutOfRangeError struct {
	Addr int
	N    int
}

func (err *OutOfRangeError) Error() string {
	return fmt.Sprintf(
		"memory: access [%#05x, %#05x) is out of range", err.Addr, err.Addr+err.N,
	)
}

// UnsupportedLengthError reports a Modify call with a length other than
// 5 or 6 half-bytes.
type UnsupportedLengthError struct {
	Length int
}

func (err *UnsupportedLengthError) Error() string {
	return fmt.Sprintf(
		"memory: modification length %d half-bytes is not supported", err.Length,
	)
}

func inRange(addr, n int) bool {
	return addr >= 0 && n >= 0 && addr+n <= isa.MemSize
}

// Read returns a copy of the n bytes starting at addr.
func (m *Memory) Read(addr, n int) ([]byte, error) {
	if !inRange(addr, n) {
		return nil, &OutOfRangeError{addr, n}
	}

	out := make([]byte, n)
	copy(out, m.bytes[addr:addr+n])
	return out, nil
}

// Write copies data into memory starting at addr.
func (m *Memory) Write(addr int, data []byte) error {
	if !inRange(addr, len(data)) {
		return &OutOfRangeError{addr, len(data)}
	}

	copy(m.bytes[addr:addr+len(data)], data)
	return nil
}

// ReadByte reads a single byte.
func (m *Memory) ReadByte(addr int) (byte, error) {
	if !inRange(addr, 1) {
		return 0, &OutOfRangeError{addr, 1}
	}
	return m.bytes[addr], nil
}

// WriteByte writes a single byte.
func (m *Memory) WriteByte(addr int, value byte) error {
	if !inRange(addr, 1) {
		return &OutOfRangeError{addr, 1}
	}
	m.bytes[addr] = value
	return nil
}

// ReadWord reads a 3-byte big-endian word and returns it as an unsigned
// 24-bit value.
func (m *Memory) ReadWord(addr int) (uint32, error) {
	b, err := m.Read(addr, 3)
	if err != nil {
		return 0, err
	}
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2]), nil
}

// WriteWord writes the low 24 bits of value as a 3-byte big-endian word.
func (m *Memory) WriteWord(addr int, value uint32) error {
	b := []byte{byte(value >> 16), byte(value >> 8), byte(value)}
	return m.Write(addr, b)
}

// Modify reads the field of lengthHalfBytes half-bytes (nibbles) at addr,
// combines it with value by addition or subtraction modulo 2^(4*length),
// and writes the result back big-endian.
//
// lengthHalfBytes must be 5 or 6. A 5-half-byte field occupies the low 20
// bits of the 3 bytes starting at addr, preserving the high 4 bits of the
// first byte; a 6-half-byte field occupies the full 3 bytes.
func (m *Memory) Modify(addr, lengthHalfBytes int, flag byte, value int) error {
	if lengthHalfBytes != 5 && lengthHalfBytes != 6 {
		return &UnsupportedLengthError{lengthHalfBytes}
	}

	word, err := m.ReadWord(addr)
	if err != nil {
		return err
	}

	modulus := uint32(1) << uint(4*lengthHalfBytes)

	var field, preserved uint32
	if lengthHalfBytes == 5 {
		preserved = word & 0xF00000
		field = word & 0x0FFFFF
	} else {
		field = word
	}

	delta := uint32(value) % modulus
	switch flag {
	case '+':
		field = (field + delta) % modulus
	case '-':
		field = (field - delta + modulus) % modulus
	default:
		return fmt.Errorf("memory: invalid modification flag %q", flag)
	}

	return m.WriteWord(addr, preserved|field)
}

// Reset zeroes the entire address space.
func (m *Memory) Reset() {
	for i := range m.bytes {
		m.bytes[i] = 0
	}
}

// Fill writes value into every address in [start, end).
func (m *Memory) Fill(start, end int, value byte) error {
	if !inRange(start, end-start) || end < start {
		return &OutOfRangeError{start, end - start}
	}
	for i := start; i < end; i++ {
		m.bytes[i] = value
	}
	return nil
}
