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

package linker

import (
	"bufio"
	"io"

	"github.com/gosicxe/sicsim/pkg/memory"
	"github.com/gosicxe/sicsim/pkg/objfmt"
)

// Loader carries out the two-pass load of 1-3 object programs into
// memory, driving an ExternalSymbolTable as it goes.
type Loader struct {
	mem *memory.Memory
	est *ExternalSymbolTable
}

// NewLoader returns a Loader writing into mem.
func NewLoader(mem *memory.Memory) *Loader {
	return &Loader{mem: mem}
}

// ExternalSymbolTable returns the table built by the most recent Load.
func (l *Loader) ExternalSymbolTable() *ExternalSymbolTable {
	return l.est
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}

// sectionHeader reads the H record and accumulates D-record exports up to
// the E record, per pass-1 semantics.
func sectionHeader(lines []string) (objfmt.Header, []objfmt.Define, error) {
	if len(lines) == 0 || len(lines[0]) == 0 || lines[0][0] != 'H' {
		return objfmt.Header{}, nil, &MalformedObjectError{Why: "object program does not begin with an H record"}
	}
	hdr, err := objfmt.DecodeHeader(lines[0])
	if err != nil {
		return objfmt.Header{}, nil, err
	}

	var defs []objfmt.Define
	for _, line := range lines[1:] {
		if line == "" {
			continue
		}
		switch line[0] {
		case 'D':
			ds, err := objfmt.DecodeDefine(line)
			if err != nil {
				return objfmt.Header{}, nil, err
			}
			defs = append(defs, ds...)
		case 'E':
			return hdr, defs, nil
		}
	}
	return objfmt.Header{}, nil, &MalformedObjectError{Why: "object program has no E record"}
}

// Load runs pass 1 (layout and global symbols) and pass 2 (byte loading
// and relocation) over files in order, loading the first at progAddr.
// Returns the program-start and program-end addresses to configure the
// VM with.
func (l *Loader) Load(progAddr int, files []io.Reader) (int, int, error) {
	if len(files) < 1 || len(files) > 3 {
		return 0, 0, &FileCountError{Count: len(files)}
	}

	fileLines := make([][]string, len(files))
	for idx, f := range files {
		lines, err := readLines(f)
		if err != nil {
			return 0, 0, err
		}
		fileLines[idx] = lines
	}

	l.est = NewExternalSymbolTable()
	current := progAddr
	programStart := progAddr

	for _, lines := range fileLines {
		hdr, defs, err := sectionHeader(lines)
		if err != nil {
			return 0, 0, err
		}
		l.est.InsertSection(hdr.Name, current, hdr.Length)
		for _, d := range defs {
			if err := l.est.InsertSymbol(hdr.Name, d.Name, current+d.Addr); err != nil {
				return 0, 0, err
			}
		}
		current += hdr.Length
	}
	programEnd := current

	current = progAddr
	for _, lines := range fileLines {
		if err := l.loadSection(lines, current); err != nil {
			return 0, 0, err
		}
		hdr, err := objfmt.DecodeHeader(lines[0])
		if err != nil {
			return 0, 0, err
		}
		current += hdr.Length
	}

	return programStart, programEnd, nil
}

// loadSection runs pass 2 for one file already placed at loadAddr: it
// populates the reference vector from R records, writes T-record bytes,
// and applies M-record relocations.
func (l *Loader) loadSection(lines []string, loadAddr int) error {
	if len(lines) == 0 {
		return &MalformedObjectError{Why: "empty object program"}
	}

	refs := map[int]int{1: loadAddr}

	for _, line := range lines[1:] {
		if line == "" {
			continue
		}
		switch line[0] {
		case 'R':
			entries, err := objfmt.DecodeRefer(line)
			if err != nil {
				return err
			}
			for _, e := range entries {
				addr, ok := l.est.AddressOf(e.Name)
				if !ok {
					return &UnresolvedExternalError{Name: e.Name}
				}
				refs[e.Index] = addr
			}
		case 'T':
			t, err := objfmt.DecodeText(line)
			if err != nil {
				return err
			}
			if err := l.mem.Write(loadAddr+t.Addr, t.Bytes); err != nil {
				return err
			}
		case 'M':
			m, err := objfmt.DecodeModification(line)
			if err != nil {
				return err
			}
			refAddr, ok := refs[m.Ref]
			if !ok {
				return &UnresolvedExternalError{Name: "reference vector slot not populated"}
			}
			if err := l.mem.Modify(loadAddr+m.Addr, m.Length, m.Sign, refAddr); err != nil {
				return err
			}
		case 'D', 'H', 'E':
			// ignored in pass 2
		}
	}
	return nil
}
