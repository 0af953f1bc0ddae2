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

package main

import (
	"os"

	"golang.org/x/sys/unix"

	"github.com/gosicxe/sicsim/internal/applog"
)

var termRestore unix.Termios
var termAvailable bool

// enterRawTerm puts stdin into raw mode for the duration of `run`, so a
// SIGINT reaches our own signal.Notify channel instead of being consumed
// by the shell's line discipline. Non-terminal stdin (pipes, redirects)
// is left alone.
func enterRawTerm() {
	termios, err := unix.IoctlGetTermios(int(os.Stdin.Fd()), unix.TCGETS)
	if err != nil {
		termAvailable = false
		applog.Warn("raw terminal mode unavailable, SIGINT during run will not be caught mid-instruction", "error", err)
		return
	}

	termAvailable = true
	termRestore = *termios
	termstate := *termios

	termstate.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.INLCR
	termstate.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.IEXTEN
	termstate.Cflag &^= unix.CSIZE | unix.PARENB
	termstate.Cflag |= unix.CS8

	termstate.Cc[unix.VMIN] = 0
	termstate.Cc[unix.VTIME] = 0

	unix.IoctlSetTermios(int(os.Stdin.Fd()), unix.TCSETS, &termstate)
}

func exitRawTerm() {
	if !termAvailable {
		return
	}
	unix.IoctlSetTermios(int(os.Stdin.Fd()), unix.TCSETS, &termRestore)
}
