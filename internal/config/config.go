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

// Package config parses the flag-driven startup the reference CLIs share
// (golc3's -debug/-help, golc3-asm's -out) generalized to sicsim's own
// flags, and loads the opcode dictionary file named by -opcode.
package config

import (
	"flag"
	"fmt"
	"os"

	"github.com/gosicxe/sicsim/pkg/opcode"
)

// Config holds the parsed command-line configuration for cmd/sicsim.
type Config struct {
	OpcodeFile string
	ProgAddr   int
	Help       bool
}

// Parse reads flags from args (excluding the program name) into a Config.
// -opcode defaults to configs/opcodes.cfg relative to the working
// directory, matching the teacher's use of a sibling data file rather
// than an embedded table.
func Parse(args []string) (Config, error) {
	fs := flag.NewFlagSet("sicsim", flag.ContinueOnError)

	var cfg Config
	var progAddrHex string

	fs.StringVar(&cfg.OpcodeFile, "opcode", "configs/opcodes.cfg", "path to the opcode dictionary file")
	fs.StringVar(&progAddrHex, "progaddr", "0", "initial program load address, hex")
	fs.BoolVar(&cfg.Help, "help", false, "display command usage")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	addr, err := parseHex(progAddrHex)
	if err != nil {
		return Config{}, fmt.Errorf("config: invalid -progaddr: %w", err)
	}
	cfg.ProgAddr = addr

	return cfg, nil
}

func parseHex(s string) (int, error) {
	var v int
	_, err := fmt.Sscanf(s, "%X", &v)
	return v, err
}

// LoadDictionary opens and parses the opcode dictionary named by path.
func LoadDictionary(path string) (*opcode.Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: opening opcode file: %w", err)
	}
	defer f.Close()

	dict, err := opcode.Load(f)
	if err != nil {
		return nil, fmt.Errorf("config: loading opcode file %s: %w", path, err)
	}
	return dict, nil
}
