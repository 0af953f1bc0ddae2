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
	"fmt"
	"os"
	"os/signal"

	"github.com/gosicxe/sicsim/internal/applog"
	"github.com/gosicxe/sicsim/internal/config"
	"github.com/gosicxe/sicsim/internal/repl"
)

const usage = "sicsim [-opcode path] [-progaddr hex]"

func sicsim() int {
	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		applog.Fatal("parsing flags", "error", err)
	}

	if cfg.Help {
		fmt.Println(usage)
		return 0
	}

	dict, err := config.LoadDictionary(cfg.OpcodeFile)
	if err != nil {
		applog.Fatalf("loading opcode dictionary %s: %v", cfg.OpcodeFile, err)
	}
	applog.Info("opcode dictionary loaded", "path", cfg.OpcodeFile, "mnemonics", len(dict.Mnemonics()))

	r := repl.New(dict, os.Stdout)
	if cfg.ProgAddr != 0 {
		r.Dispatch(fmt.Sprintf("progaddr %X", cfg.ProgAddr))
	}

	r.BeforeRun = enterRawTerm
	r.AfterRun = exitRawTerm

	c := make(chan os.Signal, 1)
	defer close(c)
	signal.Notify(c, os.Interrupt)
	go func() {
		for range c {
			if r.Running() {
				r.VM().RequestBreak()
			}
		}
	}()

	r.Run(os.Stdin)
	return 0
}

func main() {
	os.Exit(sicsim())
}
