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

// Package linker implements the external-symbol table and the two-pass
// linking loader: pass 1 lays out control sections and collects exported
// symbols, pass 2 writes bytes into memory and relocates modification
// fields using a per-section reference vector.
package linker

import "fmt"

// Section is one control section's placement and exports.
type Section struct {
	Name    string
	Addr    int
	Length  int
	Symbols map[string]int
}

// FileCountError reports a `loader` invocation with zero or more than
// three object files.
type FileCountError struct {
	Count int
}

func (err *FileCountError) Error() string {
	return fmt.Sprintf("linker: %d object files given, expected 1-3", err.Count)
}

// MalformedObjectError reports an object program that violates the
// expected record sequence (empty program, no leading H, no E record).
type MalformedObjectError struct {
	Why string
}

func (err *MalformedObjectError) Error() string {
	return fmt.Sprintf("linker: malformed object program: %s", err.Why)
}

// UnresolvedExternalError reports an R-record reference to a symbol no
// control section exports.
type UnresolvedExternalError struct {
	Name string
}

func (err *UnresolvedExternalError) Error() string {
	return fmt.Sprintf("linker: unresolved external reference %q", err.Name)
}

// UnknownSectionError reports InsertSymbol called against a section that
// was never inserted.
type UnknownSectionError struct {
	Name string
}

func (err *UnknownSectionError) Error() string {
	return fmt.Sprintf("linker: unknown control section %q", err.Name)
}
