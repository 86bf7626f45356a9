// Package ast builds the instruction list and symbol table the parser
// produces, and emits them to bytes once every label is known.
package ast

import (
	"fmt"
	"strings"

	"github.com/brijohn/brianiac/pkg/inst"
)

// Operand is one of Register, Indirect, Word, or Ident. Bytes only ever
// appear inside Data directives, never as an Operand.
type Operand interface {
	operand()
	String() string
}

// Register names a general-purpose register by index (0-15, 15 is the link
// register).
type Register struct{ Index uint8 }

func (Register) operand()          {}
func (r Register) String() string  { return fmt.Sprintf("r%d", r.Index) }

// Indirect names a register whose value is used as an address, written
// @rN in source.
type Indirect struct{ Index uint8 }

func (Indirect) operand()          {}
func (r Indirect) String() string  { return fmt.Sprintf("@r%d", r.Index) }

// Word is a resolved 16-bit literal.
type Word struct{ Value uint16 }

func (Word) operand()         {}
func (w Word) String() string { return fmt.Sprintf("0x%04X", w.Value) }

// Ident references a label or equ name to be resolved at emit time.
type Ident struct{ Name string }

func (Ident) operand()         {}
func (i Ident) String() string { return i.Name }

// hasImmediate reports whether operand o, if present, forces the
// immediate-present encoding: only Word or Ident operands do.
func hasImmediate(o Operand) bool {
	switch o.(type) {
	case Word, Ident:
		return true
	default:
		return false
	}
}

// RangeError reports a numeric literal that exceeds its target width.
type RangeError struct {
	Value uint32
	Max   uint32
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("value 0x%X exceeds maximum 0x%X", e.Value, e.Max)
}

// NewByte validates a literal against the byte (defb/defn) range.
func NewByte(value uint32) (uint8, error) {
	if value > 0xFF {
		return 0, &RangeError{Value: value, Max: 0xFF}
	}
	return uint8(value), nil
}

// NewWord validates a literal against the word (immediate operand) range.
func NewWord(value uint32) (uint16, error) {
	if value > 0xFFFF {
		return 0, &RangeError{Value: value, Max: 0xFFFF}
	}
	return uint16(value), nil
}

// Instruction is either a Data directive or an OpCode. Size is computable
// without resolving any label.
type Instruction interface {
	Size() int
	String() string
}

// OpCode is a parsed instruction with up to two operands. Dst occupies the
// RN slot, Src occupies the RM/immediate slot; an operandless NOP leaves
// both nil.
type OpCode struct {
	Mnemonic string
	Op       inst.OpCode
	Dst      Operand
	Src      Operand
}

// Size returns 2 for a register/indirect-only encoding, 4 when either
// operand carries an immediate.
func (o *OpCode) Size() int {
	if hasImmediate(o.Dst) || hasImmediate(o.Src) {
		return 4
	}
	return 2
}

func (o *OpCode) String() string {
	var b strings.Builder
	b.WriteString(o.Mnemonic)
	parts := []string{}
	if o.Dst != nil {
		parts = append(parts, o.Dst.String())
	}
	if o.Src != nil {
		parts = append(parts, o.Src.String())
	}
	if len(parts) > 0 {
		b.WriteString(" ")
		b.WriteString(strings.Join(parts, ", "))
	}
	return b.String()
}

// DataBytes is a `defb` directive: a literal byte sequence.
type DataBytes struct {
	Values []uint8
}

func (d *DataBytes) Size() int { return len(d.Values) }

func (d *DataBytes) String() string {
	parts := make([]string, len(d.Values))
	for i, v := range d.Values {
		parts[i] = fmt.Sprintf("0x%02X", v)
	}
	return "defb " + strings.Join(parts, ", ")
}

// DataFill is a `defn v, n` directive: byte value v repeated n times. Only
// the byte value is stored; the fill is expanded to n bytes at emit time.
type DataFill struct {
	Value uint8
	Count uint16
}

func (d *DataFill) Size() int { return int(d.Count) }

func (d *DataFill) String() string {
	return fmt.Sprintf("defn 0x%02X, %d", d.Value, d.Count)
}

func (d *DataFill) bytes() []byte {
	out := make([]byte, d.Count)
	for i := range out {
		out[i] = d.Value
	}
	return out
}

// AlignmentError reports an OpCode whose starting address is odd.
type AlignmentError struct {
	Address uint16
	Stmt    string
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("%s is not aligned, current address is 0x%04X", e.Stmt, e.Address)
}

// SymbolError reports a duplicate definition or an unresolved reference.
type SymbolError struct {
	Name   string
	Reason string
}

func (e *SymbolError) Error() string {
	return fmt.Sprintf("%s: %s", e.Name, e.Reason)
}

// SymbolTable binds label and equ names to addresses, in declaration order
// (needed for the diagnostic dump; never rely on Go map iteration order).
type SymbolTable struct {
	order  []string
	values map[string]uint16
}

// NewSymbolTable returns an empty table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{values: make(map[string]uint16)}
}

// Define binds name to addr. Redefining an existing name is a SymbolError.
func (st *SymbolTable) Define(name string, addr uint16) error {
	if _, ok := st.values[name]; ok {
		return &SymbolError{Name: name, Reason: "duplicate symbol"}
	}
	st.values[name] = addr
	st.order = append(st.order, name)
	return nil
}

// Lookup returns the address bound to name, if any.
func (st *SymbolTable) Lookup(name string) (uint16, bool) {
	v, ok := st.values[name]
	return v, ok
}

// Names returns bound names in declaration order.
func (st *SymbolTable) Names() []string {
	return st.order
}

// Program is the ordered instruction list plus symbol table built by the
// parser and consumed by Emit.
type Program struct {
	Instrs  []Instruction
	Symbols *SymbolTable
	pc      uint16
}

// NewProgram returns an empty program ready to accept statements.
func NewProgram() *Program {
	return &Program{Symbols: NewSymbolTable()}
}

// PC returns the program counter cursor as it stands after appended
// instructions (i.e. the address the next instruction would start at).
func (p *Program) PC() uint16 { return p.pc }

// AppendInstruction appends instr and advances the pc cursor by its size.
// An OpCode starting on an odd pc is an AlignmentError. OpCode.Size() never
// needs to resolve a label, so alignment can be checked immediately.
func (p *Program) AppendInstruction(instr Instruction) error {
	if op, ok := instr.(*OpCode); ok && p.pc%2 != 0 {
		return &AlignmentError{Address: p.pc, Stmt: op.String()}
	}
	p.Instrs = append(p.Instrs, instr)
	p.pc += uint16(instr.Size())
	return nil
}

// DefineLabel binds name to the current pc (an implicit label).
func (p *Program) DefineLabel(name string) error {
	return p.Symbols.Define(name, p.pc)
}

// DefineEqu binds name to a literal value (an explicit equ).
func (p *Program) DefineEqu(name string, value uint16) error {
	return p.Symbols.Define(name, value)
}

// resolveImmediate returns the immediate value an operand contributes, looking up
// Ident in the symbol table. Only one of dst/src can carry an immediate —
// the grammar never produces two immediate operands on one instruction.
func (p *Program) resolveImmediate(o *OpCode) (uint16, bool, error) {
	for _, operand := range []Operand{o.Dst, o.Src} {
		switch v := operand.(type) {
		case Word:
			return v.Value, true, nil
		case Ident:
			addr, ok := p.Symbols.Lookup(v.Name)
			if !ok {
				return 0, false, &SymbolError{Name: v.Name, Reason: "is not defined"}
			}
			return addr, true, nil
		}
	}
	return 0, false, nil
}

func registerIndex(o Operand) uint8 {
	switch v := o.(type) {
	case Register:
		return v.Index
	case Indirect:
		return v.Index
	default:
		return 0
	}
}

// Emit resolves every label reference and serializes the program to bytes,
// returning alongside it the disassembly-style listing + symbol table dump
// printed on the assembler's stdout.
func (p *Program) Emit() (code []byte, listing string, err error) {
	var out []byte
	var lines []string
	pc := uint16(0)

	for _, instr := range p.Instrs {
		var bytes []byte
		switch v := instr.(type) {
		case *OpCode:
			imm, hasImm, rerr := p.resolveImmediate(v)
			if rerr != nil {
				return nil, "", rerr
			}
			rn := registerIndex(v.Dst)
			rm := registerIndex(v.Src)
			hi, lo := inst.EncodeWord(v.Op, hasImm, rn, rm)
			bytes = []byte{hi, lo}
			if hasImm {
				bytes = append(bytes, byte(imm>>8), byte(imm))
			}
		case *DataBytes:
			bytes = append(bytes, v.Values...)
		case *DataFill:
			bytes = v.bytes()
		default:
			return nil, "", fmt.Errorf("unhandled instruction type %T", instr)
		}
		lines = append(lines, fmt.Sprintf("%04X: %-8s  %s", pc, hexString(bytes), instr.String()))
		out = append(out, bytes...)
		pc += uint16(instr.Size())
	}

	var sb strings.Builder
	for _, l := range lines {
		sb.WriteString(l)
		sb.WriteString("\n")
	}
	if names := p.Symbols.Names(); len(names) > 0 {
		sb.WriteString("\n----Symbol Table----\n")
		maxLen := 0
		for _, n := range names {
			if len(n) > maxLen {
				maxLen = len(n)
			}
		}
		for _, n := range names {
			addr, _ := p.Symbols.Lookup(n)
			sb.WriteString(fmt.Sprintf("%-*s  =  0x%04X\n", maxLen, n, addr))
		}
	}

	return out, sb.String(), nil
}

func hexString(b []byte) string {
	var sb strings.Builder
	for _, v := range b {
		fmt.Fprintf(&sb, "%02X", v)
	}
	return sb.String()
}
