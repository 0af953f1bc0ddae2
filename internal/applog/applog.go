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

// Package applog wraps log/slog for the program's own startup and
// fatal-configuration output: slog's text format (including its time
// field), tagged with a cmd attribute holding the executable name.
// Interactive command errors never go through this package — they print
// straight to stdout the way a REPL converses with its user.
package applog

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

var logger *slog.Logger

func init() {
	exe, _ := os.Executable()
	SetOutput(os.Stderr, filepath.Base(exe))
}

// SetOutput rebuilds the logger around w, adding a cmd=prefix attribute
// to every record.
func SetOutput(w io.Writer, prefix string) {
	logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})).With(slog.String("cmd", prefix))
}

// Info logs a startup or informational message.
func Info(msg string, args ...any) {
	logger.Info(msg, args...)
}

// Warn logs a recoverable configuration or environment problem — one the
// process continues past, degraded rather than stopped.
func Warn(msg string, args ...any) {
	logger.Warn(msg, args...)
}

// Fatal logs msg and exits the process with status 1, mirroring the
// teacher's log.Fatal-by-hand pattern (golc3 never imports log.Fatal
// directly, preferring an explicit os.Exit after log.Println).
func Fatal(msg string, args ...any) {
	logger.Error(msg, args...)
	os.Exit(1)
}

// Fatalf formats msg like fmt.Sprintf before logging it fatally.
func Fatalf(format string, args ...any) {
	Fatal(fmt.Sprintf(format, args...))
}
