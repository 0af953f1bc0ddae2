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

// Package symtab implements the per-assembly symbol table: a working table
// under construction by the current assemble, and a saved table reflecting
// the last successful one. Register names are reserved pseudo-symbols
// resolved ahead of the working table.
package symtab

import (
	"sort"

	"github.com/gosicxe/sicsim/pkg/isa"
)

// Table holds the working and saved symbol maps for one REPL session.
// Create one with New; a zero Table needs NewWorkingTable before Insert.
type Table struct {
	working map[string]int
	saved   map[string]int
	err     *Error
}

// New returns a Table with an empty working and saved table.
func New() *Table {
	return &Table{
		working: make(map[string]int),
		saved:   make(map[string]int),
	}
}

// NewWorkingTable clears the working table, discarding any symbols
// accumulated by a prior, unsaved assembly pass.
func (t *Table) NewWorkingTable() {
	t.working = make(map[string]int)
}

// Insert adds name at locctr to the working table. It fails if name is
// already a working symbol or collides with a register mnemonic.
func (t *Table) Insert(name string, locctr int) bool {
	if isa.IsRegister(name) {
		return false
	}
	if _, exists := t.working[name]; exists {
		return false
	}
	t.working[name] = locctr
	return true
}

// Lookup resolves name, consulting registers first and then the working
// table.
func (t *Table) Lookup(name string) (int, bool) {
	if id, ok := isa.RegisterID(name); ok {
		return id, true
	}
	locctr, ok := t.working[name]
	return locctr, ok
}

// Exists reports whether name is already bound, as a register or in the
// working table.
func (t *Table) Exists(name string) bool {
	_, ok := t.Lookup(name)
	return ok
}

// Save atomically replaces the saved table with the working table and
// clears the working table. Call this only after a fully successful
// assembly.
func (t *Table) Save() {
	t.saved = t.working
	t.working = make(map[string]int)
}

// SetError records the most recent assembly error, overwriting any
// previously held one.
func (t *Table) SetError(kind ErrorKind, line int, token string) {
	t.err = &Error{Kind: kind, Line: line, Token: token}
}

// LastError returns the most recently recorded error, or nil if none has
// been set since the last successful assembly.
func (t *Table) LastError() *Error {
	return t.err
}

// ClearError discards the held error. Called at the start of every
// assemble so a stale error from a prior attempt is never shown twice.
func (t *Table) ClearError() {
	t.err = nil
}

// Show returns every symbol in the saved table in ascending alphabetical
// order, which also groups symbols by leading letter — matching the
// bucketed-by-first-character display the reference implementation's
// linked hash table produces.
func (t *Table) Show() []Entry {
	names := make([]string, 0, len(t.saved))
	for name := range t.saved {
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		entries = append(entries, Entry{Name: name, Locctr: t.saved[name]})
	}
	return entries
}
