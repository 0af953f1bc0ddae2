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

// Package repl implements the interactive command loop: one REPL owns the
// process-scoped state (memory, symbol table, opcode dictionary, external
// symbol table, and virtual machine) and threads it through a table of
// command handlers, mirroring the split the teacher draws between
// cmd/golc3/main.go's wiring and debug.go's debugREPL/cmd switch.
package repl

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/gosicxe/sicsim/pkg/assembler"
	"github.com/gosicxe/sicsim/pkg/isa"
	"github.com/gosicxe/sicsim/pkg/linker"
	"github.com/gosicxe/sicsim/pkg/memory"
	"github.com/gosicxe/sicsim/pkg/opcode"
	"github.com/gosicxe/sicsim/pkg/symtab"
	"github.com/gosicxe/sicsim/pkg/vm"

	"github.com/gosicxe/sicsim/internal/history"
)

// REPL is the process-scoped state container threaded through every
// command handler: one instance each of the shared subsystems, no
// implicit singletons.
type REPL struct {
	Out     io.Writer
	Mem     *memory.Memory
	Sym     *symtab.Table
	Dict    *opcode.Dictionary
	History *history.Log

	asm *assembler.Assembler
	ld  *linker.Loader
	mc  *vm.VM

	progAddr int
	sideCar  *assembler.SideCar
	quit     bool
	running  bool

	// BeforeRun and AfterRun, if set, bracket every `run` command — the
	// hook cmd/sicsim uses to toggle raw terminal mode so a SIGINT during
	// execution reaches RequestBreak instead of being line-buffered away.
	BeforeRun func()
	AfterRun  func()
}

// New returns a REPL wired around dict, writing command output to out.
func New(dict *opcode.Dictionary, out io.Writer) *REPL {
	mem := memory.New()
	sym := symtab.New()

	r := &REPL{
		Out:     out,
		Mem:     mem,
		Sym:     sym,
		Dict:    dict,
		History: history.New(),
		asm:     assembler.New(dict, sym),
		ld:      linker.NewLoader(mem),
		mc:      vm.New(mem, dict),
	}
	return r
}

// VM exposes the underlying virtual machine, for cmd/sicsim's SIGINT
// wiring and raw-terminal handling.
func (r *REPL) VM() *vm.VM { return r.mc }

// Running reports whether a `run` command is currently executing, so the
// SIGINT handler knows whether to call VM().RequestBreak() or just return
// control to the prompt.
func (r *REPL) Running() bool { return r.running }

// Quit reports whether the REPL loop should stop.
func (r *REPL) Quit() bool { return r.quit }

type handler func(r *REPL, args []string)

var commands map[string]handler

func init() {
	commands = map[string]handler{
		"assemble": cmdAssemble,

		"symbol": cmdSymbol,
		"sym":    cmdSymbol,

		"progaddr": cmdProgAddr,

		"loader": cmdLoader,

		"bp":         cmdBreakpoint,
		"break":      cmdBreakpoint,
		"breakpoint": cmdBreakpoint,

		"run": cmdRun,
		"r":   cmdRun,

		"opcode":     cmdOpcode,
		"opcodelist": cmdOpcodeList,

		"labels": cmdLabels,
		"source": cmdSource,
		"src":    cmdSource,

		"loadsdb": cmdLoadSideCar,

		"dump": cmdDump,
		"m":    cmdDump,
		"edit": cmdEdit,
		"fill": cmdFill,

		"reset": cmdReset,

		"h":    cmdHelp,
		"help": cmdHelp,
		"d":    cmdDir,
		"dir":  cmdDir,

		"hi":      cmdHistory,
		"history": cmdHistory,

		"q":    cmdQuit,
		"quit": cmdQuit,
		"exit": cmdQuit,
	}
}

// commandNames lists every recognized command, alphabetically, for
// `dir`/`help`.
func commandNames() []string {
	seen := make(map[string]bool)
	var names []string
	for name := range commands {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Dispatch tokenizes one input line and runs its handler, recording it in
// the history log. An empty line repeats the last recorded command, read
// back from the history log itself, matching the teacher's lastcmd
// convention in debugREPL.
func (r *REPL) Dispatch(line string) {
	fields := strings.Fields(line)

	if len(fields) == 0 {
		last, ok := r.History.Last()
		if !ok {
			return
		}
		fields = strings.Fields(last)
		if len(fields) == 0 {
			return
		}
	} else {
		r.History.Append(line)
	}

	cmd := strings.ToLower(fields[0])
	args := fields[1:]

	h, ok := commands[cmd]
	if !ok {
		fmt.Fprintf(r.Out, "error: %q is not a valid command\n", fields[0])
		return
	}
	h(r, args)
}

// Run drives the REPL loop over in, printing a prompt before each read and
// exiting when Dispatch sets Quit or the input is exhausted.
func (r *REPL) Run(in io.Reader) {
	scanner := bufio.NewScanner(in)
	for !r.quit {
		fmt.Fprint(r.Out, "sicsim> ")
		if !scanner.Scan() {
			fmt.Fprintln(r.Out)
			return
		}
		r.Dispatch(scanner.Text())
	}
}

func cmdAssemble(r *REPL, args []string) {
	debug := false
	var path string
	for _, a := range args {
		if a == "-debug" {
			debug = true
			continue
		}
		path = a
	}
	if path == "" {
		fmt.Fprintln(r.Out, "usage: assemble [-debug] <file.asm>")
		return
	}

	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintln(r.Out, err)
		return
	}
	defer f.Close()

	obj, listing, err := r.asm.Assemble(f)
	if err != nil {
		fmt.Fprintln(r.Out, err)
		return
	}

	objPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".obj"
	if err := writeObjectFile(objPath, obj); err != nil {
		fmt.Fprintln(r.Out, err)
		return
	}

	lstPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".lst"
	if err := os.WriteFile(lstPath, []byte(assembler.RenderListing(listing)), 0644); err != nil {
		fmt.Fprintln(r.Out, err)
		return
	}

	fmt.Fprintf(r.Out, "Assembly complete: %s @ %06X (%d bytes) -> %s, %s\n", obj.Header.Name, obj.Header.Start, obj.Header.Length, objPath, lstPath)

	if debug {
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		sc := assembler.BuildSideCar(abs, listing)
		r.sideCar = &sc

		sidecarPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".sdb"
		out, err := os.Create(sidecarPath)
		if err != nil {
			fmt.Fprintln(r.Out, err)
			return
		}
		defer out.Close()
		if err := assembler.WriteSideCar(out, sc); err != nil {
			fmt.Fprintln(r.Out, err)
			return
		}
		fmt.Fprintf(r.Out, "Debug symbol file written: %s\n", sidecarPath)
	}
}

func writeObjectFile(path string, obj *assembler.Object) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	for _, line := range obj.Lines() {
		if _, err := fmt.Fprintln(f, line); err != nil {
			return err
		}
	}
	return nil
}

func cmdLabels(r *REPL, args []string) {
	if r.sideCar == nil {
		fmt.Fprintln(r.Out, "No symbol table loaded")
		return
	}
	addrs := make([]int, 0, len(r.sideCar.Labels))
	for addr := range r.sideCar.Labels {
		addrs = append(addrs, addr)
	}
	sort.Ints(addrs)
	for _, addr := range addrs {
		fmt.Fprintf(r.Out, "%06X %s\n", addr, r.sideCar.Labels[addr])
	}
}

func cmdSource(r *REPL, args []string) {
	if r.sideCar == nil {
		fmt.Fprintln(r.Out, "No symbol table loaded")
		return
	}
	fmt.Fprintln(r.Out, r.sideCar.Source)
}

// cmdLoadSideCar loads a previously written .sdb debug side-car, so
// `labels`/`source` can serve a session that never ran `assemble -debug`
// itself (e.g. the object program was assembled in an earlier session).
func cmdLoadSideCar(r *REPL, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(r.Out, "usage: loadsdb <file.sdb>")
		return
	}

	f, err := os.Open(args[0])
	if err != nil {
		fmt.Fprintln(r.Out, err)
		return
	}
	defer f.Close()

	sc, err := assembler.ReadSideCar(f)
	if err != nil {
		fmt.Fprintln(r.Out, err)
		return
	}
	r.sideCar = &sc
	fmt.Fprintf(r.Out, "Debug symbol file loaded: %s\n", args[0])
}

func cmdSymbol(r *REPL, args []string) {
	if len(args) != 0 {
		fmt.Fprintln(r.Out, "usage: symbol")
		return
	}
	for _, entry := range r.Sym.Show() {
		fmt.Fprintf(r.Out, "%-6s %06X\n", entry.Name, entry.Locctr)
	}
}

func cmdProgAddr(r *REPL, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(r.Out, "usage: progaddr <hex>")
		return
	}
	addr, err := parseHex(args[0])
	if err != nil {
		fmt.Fprintln(r.Out, err)
		return
	}
	r.progAddr = addr
	fmt.Fprintf(r.Out, "Program load address set to %06X\n", addr)
}

func cmdLoader(r *REPL, args []string) {
	if len(args) < 1 || len(args) > 3 {
		fmt.Fprintln(r.Out, "usage: loader <f1.obj> [f2.obj [f3.obj]]")
		return
	}

	var files []io.Reader
	for _, name := range args {
		f, err := os.Open(name)
		if err != nil {
			fmt.Fprintln(r.Out, err)
			return
		}
		defer f.Close()
		files = append(files, f)
	}

	start, end, err := r.ld.Load(r.progAddr, files)
	if err != nil {
		fmt.Fprintln(r.Out, err)
		return
	}

	r.mc.Configure(start, end)
	fmt.Fprintf(r.Out, "Program loaded: %06X-%06X\n", start, end)
}

func cmdBreakpoint(r *REPL, args []string) {
	if len(args) == 0 {
		for _, addr := range r.mc.Breakpoints() {
			fmt.Fprintf(r.Out, "%06X\n", addr)
		}
		return
	}

	if args[0] == "clear" {
		r.mc.ClearBreakpoints()
		fmt.Fprintln(r.Out, "Breakpoints cleared")
		return
	}

	addr, err := parseHex(args[0])
	if err != nil {
		fmt.Fprintln(r.Out, err)
		return
	}
	if err := r.mc.SetBreakpoint(addr); err != nil {
		fmt.Fprintln(r.Out, err)
		return
	}
	fmt.Fprintf(r.Out, "Breakpoint set at %06X\n", addr)
}

func cmdRun(r *REPL, args []string) {
	if len(args) != 0 {
		fmt.Fprintln(r.Out, "usage: run")
		return
	}

	r.running = true
	defer func() { r.running = false }()

	if r.BeforeRun != nil {
		r.BeforeRun()
	}
	defer func() {
		if r.AfterRun != nil {
			r.AfterRun()
		}
	}()

	result, err := r.mc.Run()
	if err != nil {
		fmt.Fprintln(r.Out, err)
		return
	}

	switch result.Reason {
	case vm.HaltProgramEnd:
		fmt.Fprintf(r.Out, "Program halted at %06X (end of program)\n", result.PC)
	case vm.HaltBreakpoint:
		fmt.Fprintf(r.Out, "Breakpoint reached at %06X\n", result.PC)
	case vm.HaltInterrupted:
		fmt.Fprintf(r.Out, "Run interrupted at %06X\n", result.PC)
	}
}

func cmdOpcode(r *REPL, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(r.Out, "usage: opcode <mnemonic>")
		return
	}
	entry, ok := r.Dict.Lookup(strings.ToUpper(args[0]))
	if !ok {
		fmt.Fprintf(r.Out, "%q is not a valid mnemonic\n", args[0])
		return
	}
	fmt.Fprintf(r.Out, "%s: %02X\n", entry.Mnemonic, entry.Opcode)
}

func cmdOpcodeList(r *REPL, args []string) {
	if len(args) != 0 {
		fmt.Fprintln(r.Out, "usage: opcodelist")
		return
	}
	names := r.Dict.Mnemonics()
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintln(r.Out, name)
	}
}

func cmdDump(r *REPL, args []string) {
	if len(args) > 2 {
		fmt.Fprintln(r.Out, "usage: dump [start] [end]")
		return
	}

	start := r.mc.Reg(isa.PC)
	end := start + 0x60

	if len(args) > 0 {
		v, err := parseHex(args[0])
		if err != nil {
			fmt.Fprintln(r.Out, err)
			return
		}
		start = v
		end = start + 0x60
	}
	if len(args) > 1 {
		v, err := parseHex(args[1])
		if err != nil {
			fmt.Fprintln(r.Out, err)
			return
		}
		end = v
	}

	for addr := start; addr < end; addr += 16 {
		n := end - addr
		if n > 16 {
			n = 16
		}
		row, err := r.Mem.Read(addr, n)
		if err != nil {
			fmt.Fprintln(r.Out, err)
			return
		}
		fmt.Fprintf(r.Out, "%06X: % X\n", addr, row)
	}
}

func cmdEdit(r *REPL, args []string) {
	if len(args) != 2 {
		fmt.Fprintln(r.Out, "usage: edit <addr> <word>")
		return
	}
	addr, err := parseHex(args[0])
	if err != nil {
		fmt.Fprintln(r.Out, err)
		return
	}
	value, err := parseHex(args[1])
	if err != nil {
		fmt.Fprintln(r.Out, err)
		return
	}
	if err := r.Mem.WriteWord(addr, uint32(value)); err != nil {
		fmt.Fprintln(r.Out, err)
		return
	}
	fmt.Fprintf(r.Out, "%06X: %06X\n", addr, value)
}

func cmdFill(r *REPL, args []string) {
	if len(args) != 3 {
		fmt.Fprintln(r.Out, "usage: fill <start> <end> <byte>")
		return
	}
	start, err := parseHex(args[0])
	if err != nil {
		fmt.Fprintln(r.Out, err)
		return
	}
	end, err := parseHex(args[1])
	if err != nil {
		fmt.Fprintln(r.Out, err)
		return
	}
	value, err := parseHex(args[2])
	if err != nil {
		fmt.Fprintln(r.Out, err)
		return
	}
	if err := r.Mem.Fill(start, end, byte(value)); err != nil {
		fmt.Fprintln(r.Out, err)
		return
	}
	fmt.Fprintf(r.Out, "Filled %06X-%06X with %02X\n", start, end, value)
}

func cmdReset(r *REPL, args []string) {
	if len(args) != 0 {
		fmt.Fprintln(r.Out, "usage: reset")
		return
	}
	r.Mem.Reset()
	r.mc.ClearBreakpoints()
	fmt.Fprintln(r.Out, "Memory reset")
}

func cmdHelp(r *REPL, args []string) {
	fmt.Fprintln(r.Out, "available commands:")
	cmdDir(r, args)
}

func cmdDir(r *REPL, args []string) {
	for _, name := range commandNames() {
		fmt.Fprintln(r.Out, name)
	}
}

func cmdHistory(r *REPL, args []string) {
	for i, line := range r.History.Entries() {
		fmt.Fprintf(r.Out, "%4d  %s\n", i+1, line)
	}
}

func cmdQuit(r *REPL, args []string) {
	r.quit = true
}

func parseHex(s string) (int, error) {
	v, err := strconv.ParseInt(strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "x"), 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid hex value %q", s)
	}
	return int(v), nil
}
