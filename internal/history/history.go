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

// Package history implements the REPL's append-only command log,
// analogous to the teacher's lastcmd single-entry replay in
// cmd/golc3/debug.go, generalized from a single remembered line to a full
// session transcript the `history` command can list.
package history

// Log is an append-only, in-memory record of every line the REPL has
// dispatched, in entry order.
type Log struct {
	entries []string
}

// New returns an empty Log.
func New() *Log {
	return &Log{}
}

// Append records line as the newest entry.
func (l *Log) Append(line string) {
	l.entries = append(l.entries, line)
}

// Entries returns every recorded line, oldest first.
func (l *Log) Entries() []string {
	return l.entries
}

// Last returns the most recently appended line, and false if the log is
// empty — the REPL's blank-line-repeats-last-command convention.
func (l *Log) Last() (string, bool) {
	if len(l.entries) == 0 {
		return "", false
	}
	return l.entries[len(l.entries)-1], true
}
