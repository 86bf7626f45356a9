// Package debugger drives a cpu.CPU interactively: single stepping,
// stepping over CALL, running to a breakpoint, disassembly, and memory and
// register inspection. Debugger methods compute and return text; callers
// (the emu CLI) decide where it goes.
package debugger

import (
	"context"
	"fmt"
	"strings"

	"github.com/brijohn/brianiac/pkg/cpu"
	"github.com/brijohn/brianiac/pkg/inst"
)

// Debugger wraps a CPU with breakpoint tracking and inspection commands.
type Debugger struct {
	CPU         *cpu.CPU
	breakpoints []uint16
}

// New returns a Debugger driving c.
func New(c *cpu.CPU) *Debugger {
	return &Debugger{CPU: c}
}

// SetBreak adds addr to the breakpoint set, if not already present.
func (d *Debugger) SetBreak(addr uint16) {
	if d.hasBreak(addr) {
		return
	}
	d.breakpoints = append(d.breakpoints, addr)
}

// DeleteBreak removes addr from the breakpoint set.
func (d *Debugger) DeleteBreak(addr uint16) {
	for i, b := range d.breakpoints {
		if b == addr {
			d.breakpoints = append(d.breakpoints[:i], d.breakpoints[i+1:]...)
			return
		}
	}
}

// ListBreaks returns the breakpoint set in insertion order.
func (d *Debugger) ListBreaks() []uint16 {
	out := make([]uint16, len(d.breakpoints))
	copy(out, d.breakpoints)
	return out
}

func (d *Debugger) hasBreak(addr uint16) bool {
	for _, b := range d.breakpoints {
		if b == addr {
			return true
		}
	}
	return false
}

func (d *Debugger) atBreak() bool {
	return d.hasBreak(d.CPU.PC)
}

// mnemonicAt decodes the word at pc and reports its mnemonic, lowercase, if
// it is an assigned instruction.
func (d *Debugger) mnemonicAt(pc uint16) (string, bool) {
	word, err := d.CPU.Bus.ReadU16(pc)
	if err != nil {
		return "", false
	}
	info, ok := inst.Find(inst.Decode(word).Op)
	if !ok {
		return "", false
	}
	return info.Mnemonic, true
}

// Step executes exactly one CPU cycle.
func (d *Debugger) Step(ctx context.Context) error {
	return d.CPU.Step(ctx)
}

// Next behaves like Step, except when the current instruction is CALL: it
// keeps stepping until the matching RET executes (tracking nested call
// depth) or a breakpoint is hit.
func (d *Debugger) Next(ctx context.Context) error {
	name, ok := d.mnemonicAt(d.CPU.PC)
	if !ok || name != "call" {
		return d.CPU.Step(ctx)
	}

	depth := 0
	if err := d.CPU.Step(ctx); err != nil {
		return err
	}
	for {
		name, ok := d.mnemonicAt(d.CPU.PC)
		if ok && name == "ret" && depth == 0 {
			break
		}
		if d.atBreak() {
			break
		}
		if ok && name == "call" {
			depth++
		}
		if ok && name == "ret" {
			depth--
		}
		if err := d.CPU.Step(ctx); err != nil {
			return err
		}
	}
	if !d.atBreak() {
		if err := d.CPU.Step(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Run steps until pc lands on a breakpoint. The first step always executes
// regardless of the starting pc.
func (d *Debugger) Run(ctx context.Context) error {
	if err := d.CPU.Step(ctx); err != nil {
		return err
	}
	for !d.atBreak() {
		if err := d.CPU.Step(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Reset resets the CPU and then runs to the first breakpoint.
func (d *Debugger) Reset(ctx context.Context) error {
	d.CPU.Reset()
	return d.Run(ctx)
}

var (
	aluBinaryMnemonics = map[string]bool{"ADD": true, "SUB": true, "AND": true, "OR": true, "XOR": true, "CP": true, "TEST": true}
	unaryMnemonics     = map[string]bool{"NOT": true, "SHL": true, "SHR": true}
	loadMnemonics      = map[string]bool{"LDB": true, "LDW": true, "MOV": true}
	storeMnemonics     = map[string]bool{"STB": true, "STW": true}
	branchMnemonics    = map[string]bool{"BRA": true, "BZ": true, "BNZ": true, "BC": true, "BNC": true, "CALL": true}
)

// decodeAt disassembles the word at pc, reporting whether it carries an
// immediate (so List knows whether to advance by 2 or 4).
func (d *Debugger) decodeAt(pc uint16) (text string, hasImmediate bool) {
	word, err := d.CPU.Bus.ReadU16(pc)
	if err != nil {
		return fmt.Sprintf("DEFW 0x%04X", word), false
	}
	dec := inst.Decode(word)
	info, ok := inst.Find(dec.Op)
	if !ok {
		return fmt.Sprintf("DEFW 0x%04X", word), false
	}

	var imm uint16
	if dec.Immediate {
		imm, _ = d.CPU.Bus.ReadU16(pc + 2)
	}

	name := strings.ToUpper(info.Mnemonic)
	switch {
	case aluBinaryMnemonics[name]:
		if !dec.Immediate {
			return fmt.Sprintf("%s R%d, R%d", name, dec.RN, dec.RM), false
		}
		return fmt.Sprintf("%s R%d, 0x%04X", name, dec.RN, imm), true
	case unaryMnemonics[name]:
		return fmt.Sprintf("%s R%d", name, dec.RN), false
	case loadMnemonics[name]:
		at := "@"
		if name == "MOV" {
			at = ""
		}
		if !dec.Immediate {
			return fmt.Sprintf("%s R%d, %sR%d", name, dec.RN, at, dec.RM), false
		}
		return fmt.Sprintf("%s R%d, 0x%04X", name, dec.RN, imm), true
	case storeMnemonics[name]:
		if !dec.Immediate {
			return fmt.Sprintf("%s @R%d, R%d", name, dec.RN, dec.RM), false
		}
		return fmt.Sprintf("%s 0x%04X, R%d", name, imm, dec.RM), true
	case branchMnemonics[name]:
		if !dec.Immediate {
			return fmt.Sprintf("%s @R%d", name, dec.RM), false
		}
		return fmt.Sprintf("%s 0x%04X", name, imm), true
	default:
		return name, dec.Immediate
	}
}

// Disassemble renders the instruction at pc as text; an undecodable word
// renders as DEFW 0x<hex>.
func (d *Debugger) Disassemble(pc uint16) string {
	text, _ := d.decodeAt(pc)
	return text
}

// List disassembles count instructions (default 16 when count <= 0)
// starting at start.
func (d *Debugger) List(start uint16, count int) []string {
	if count <= 0 {
		count = 16
	}
	lines := make([]string, 0, count)
	pc := start
	for i := 0; i < count; i++ {
		text, hasImmediate := d.decodeAt(pc)
		lines = append(lines, fmt.Sprintf("%04X: %s", pc, text))
		if hasImmediate {
			pc += 4
		} else {
			pc += 2
		}
	}
	return lines
}

// Memory dumps bytes [start,end) 16 per row, hex plus an ASCII gutter.
func (d *Debugger) Memory(start, end uint16) []string {
	var lines []string
	for off := uint32(0); off < uint32(end)-uint32(start); off += 16 {
		rowStart := start + uint16(off)
		n := int(uint32(end) - uint32(start) - off)
		if n > 16 {
			n = 16
		}
		var sb strings.Builder
		var ascii strings.Builder
		fmt.Fprintf(&sb, "%04X:", rowStart)
		for i := 0; i < n; i++ {
			b := d.CPU.Bus.ReadU8(rowStart + uint16(i))
			fmt.Fprintf(&sb, " %02X", b)
			if b >= 32 && b < 127 {
				ascii.WriteByte(b)
			} else {
				ascii.WriteByte('.')
			}
		}
		sb.WriteString(strings.Repeat("   ", 16-n))
		sb.WriteString(" ")
		sb.WriteString(ascii.String())
		lines = append(lines, sb.String())
	}
	return lines
}

// Registers renders pc, status, the disassembly at pc, and all 16 general
// registers, four per line.
func (d *Debugger) Registers() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, " PC: %04X  %s\n", d.CPU.PC, d.Disassemble(d.CPU.PC))
	fmt.Fprintf(&sb, " ST: %04X\n", uint16(d.CPU.Status))
	for i := 0; i < 16; i++ {
		if i < 10 {
			fmt.Fprintf(&sb, " R%d: %04X", i, d.CPU.Regs[i])
		} else {
			fmt.Fprintf(&sb, "R%d: %04X", i, d.CPU.Regs[i])
		}
		if i&3 == 3 {
			sb.WriteString("\n")
		} else {
			sb.WriteString(" ")
		}
	}
	return sb.String()
}
