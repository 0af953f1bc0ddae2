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
	"encoding/gob"
	"io"
)

// SideCar is the optional debug symbol/listing cache an assemble -debug
// run writes next to the object program: the source path, a line→locctr
// map for stepping, and a locctr→label map for the REPL's source/labels
// commands.
type SideCar struct {
	Source string
	Lines  map[int]int
	Labels map[int]string
}

// BuildSideCar derives a SideCar from a successful assembly's listing.
func BuildSideCar(source string, listing []ListingLine) SideCar {
	sc := SideCar{
		Source: source,
		Lines:  make(map[int]int),
		Labels: make(map[int]string),
	}
	for _, row := range listing {
		if !row.HasAddr {
			continue
		}
		sc.Lines[row.LineNo] = row.Locctr
		if row.Label != "" {
			sc.Labels[row.Locctr] = row.Label
		}
	}
	return sc
}

// WriteSideCar gob-encodes sc to w.
func WriteSideCar(w io.Writer, sc SideCar) error {
	return gob.NewEncoder(w).Encode(sc)
}

// ReadSideCar gob-decodes a SideCar from r.
func ReadSideCar(r io.Reader) (SideCar, error) {
	var sc SideCar
	err := gob.NewDecoder(r).Decode(&sc)
	return sc, err
}
