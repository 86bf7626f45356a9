// Package inst is the authoritative opcode↔mnemonic↔bitfield mapping shared by
// the assembler's emitter and the emulator's decoder. Neither half may
// encode or decode an instruction except through this package; any
// disagreement here would silently produce wrong programs on one side or the
// other.
package inst

import "fmt"

// Group is the 3-bit GRP field of an instruction word (bits 15-13).
type Group uint8

const (
	GroupNOP  Group = 0b000
	GroupALU  Group = 0b001
	GroupCTRL Group = 0b010
	GroupLSM  Group = 0b011 // load/store/move
)

// Func is the 4-bit FUNC field of an instruction word (bits 12-9).
type Func uint8

// ALU group functions.
const (
	FuncADD Func = 0b0000
	FuncSUB Func = 0b0001
	FuncAND Func = 0b0010
	FuncOR  Func = 0b0011
	FuncXOR Func = 0b0100
	FuncNOT Func = 0b0101
	FuncSHR Func = 0b0110
	FuncSHL Func = 0b0111
	FuncCP  Func = 0b1000
	FuncTEST Func = 0b1001
)

// Control-flow group functions.
const (
	FuncBRA  Func = 0b0000
	FuncBZ   Func = 0b0001
	FuncBNZ  Func = 0b0010
	FuncBC   Func = 0b0011
	FuncBNC  Func = 0b0100
	FuncCALL Func = 0b1110
	FuncRET  Func = 0b1111
)

// Load/store/move group functions.
const (
	FuncLDW Func = 0b0000
	FuncLDB Func = 0b1000
	FuncMOV Func = 0b0001
	FuncSTW Func = 0b0010
	FuncSTB Func = 0b1010
)

// OpCode is a normalized (group, func) pair. Unlike a linear enum, keeping
// group and func separate lets the ALU dispatch on Func alone and the CPU
// dispatch on Group alone, which is how the instruction word's bitfields
// actually read.
type OpCode struct {
	Group Group
	Func  Func
}

// OperandClass enumerates the statement shapes from the assembler grammar.
// The parser picks a production using one token of mnemonic lookahead plus
// the class recorded here.
type OperandClass int

const (
	ClassALUBinary OperandClass = iota // add/sub/and/or/xor/cp/test  reg, (reg|word|ident)
	ClassUnary                         // not/shr/shl  reg
	ClassLoad                          // ldw/ldb  reg, (word|ident|indirect)
	ClassStore                         // stw/stb  (word|ident|indirect), reg
	ClassMov                           // mov  reg, (reg|word|ident)
	ClassBranch                        // bra/bz/bnz/bc/bnc  (word|ident|indirect)
	ClassCall                          // call  (word|ident|indirect)
	ClassRet                           // ret
	ClassNop                          // nop
)

// Info holds static metadata for one mnemonic.
type Info struct {
	Mnemonic string
	Op       OpCode
	Class    OperandClass
}

// Catalog lists every instruction this ISA defines, grouped NOP/ALU/CTRL/LSM
// in the same order the instruction word's GRP field assigns them.
var Catalog = []Info{
	{"nop", OpCode{GroupNOP, 0}, ClassNop},

	{"add", OpCode{GroupALU, FuncADD}, ClassALUBinary},
	{"sub", OpCode{GroupALU, FuncSUB}, ClassALUBinary},
	{"and", OpCode{GroupALU, FuncAND}, ClassALUBinary},
	{"or", OpCode{GroupALU, FuncOR}, ClassALUBinary},
	{"xor", OpCode{GroupALU, FuncXOR}, ClassALUBinary},
	{"cp", OpCode{GroupALU, FuncCP}, ClassALUBinary},
	{"test", OpCode{GroupALU, FuncTEST}, ClassALUBinary},
	{"not", OpCode{GroupALU, FuncNOT}, ClassUnary},
	{"shr", OpCode{GroupALU, FuncSHR}, ClassUnary},
	{"shl", OpCode{GroupALU, FuncSHL}, ClassUnary},

	{"bra", OpCode{GroupCTRL, FuncBRA}, ClassBranch},
	{"bz", OpCode{GroupCTRL, FuncBZ}, ClassBranch},
	{"bnz", OpCode{GroupCTRL, FuncBNZ}, ClassBranch},
	{"bc", OpCode{GroupCTRL, FuncBC}, ClassBranch},
	{"bnc", OpCode{GroupCTRL, FuncBNC}, ClassBranch},
	{"call", OpCode{GroupCTRL, FuncCALL}, ClassCall},
	{"ret", OpCode{GroupCTRL, FuncRET}, ClassRet},

	{"ldw", OpCode{GroupLSM, FuncLDW}, ClassLoad},
	{"ldb", OpCode{GroupLSM, FuncLDB}, ClassLoad},
	{"mov", OpCode{GroupLSM, FuncMOV}, ClassMov},
	{"stw", OpCode{GroupLSM, FuncSTW}, ClassStore},
	{"stb", OpCode{GroupLSM, FuncSTB}, ClassStore},
}

// Mnemonics maps a lowercase mnemonic to its catalog entry. Built once from
// Catalog so there is exactly one place that can fall out of sync.
var Mnemonics map[string]Info

// byOpCode is the decode-direction index: (group,func) -> catalog entry.
var byOpCode map[OpCode]Info

func init() {
	Mnemonics = make(map[string]Info, len(Catalog))
	byOpCode = make(map[OpCode]Info, len(Catalog))
	for _, info := range Catalog {
		Mnemonics[info.Mnemonic] = info
		byOpCode[info.Op] = info
	}
}

// Lookup returns the catalog entry for a mnemonic.
func Lookup(mnemonic string) (Info, bool) {
	info, ok := Mnemonics[mnemonic]
	return info, ok
}

// Find returns the catalog entry for a decoded (group, func) pair. The NOP
// group carries no function encoding — any func value under GroupNOP is NOP.
func Find(op OpCode) (Info, bool) {
	if op.Group == GroupNOP {
		return byOpCode[OpCode{GroupNOP, 0}], true
	}
	info, ok := byOpCode[op]
	return info, ok
}

// Decoded is the result of splitting a 16-bit instruction word into its
// bitfields.
type Decoded struct {
	Op        OpCode
	Immediate bool
	RN        uint8
	RM        uint8
}

// Decode splits a raw instruction word into group/func/I/rn/rm. It never
// fails on its own — an unassigned (group,func) pair is only an error once
// the caller tries to resolve it via Find, since that is a property of
// instruction *meaning*, not of bit layout.
func Decode(word uint16) Decoded {
	return Decoded{
		Op: OpCode{
			Group: Group(word >> 13),
			Func:  Func((word >> 9) & 0x0f),
		},
		Immediate: word&0x100 != 0,
		RN:        uint8((word >> 4) & 0x0f),
		RM:        uint8(word & 0x0f),
	}
}

// EncodeWord packs group/func/immediate-bit/rn/rm into the opcode word's two
// bytes, (hi, lo): hi = GRP<<5 | FUNC<<1 | I, lo = RN<<4 | RM.
func EncodeWord(op OpCode, immediate bool, rn, rm uint8) (hi, lo byte) {
	i := byte(0)
	if immediate {
		i = 1
	}
	hi = byte(op.Group)<<5 | byte(op.Func)<<1 | i
	lo = rn<<4 | rm
	return hi, lo
}

// ErrDecode reports a (group, func) pair that no catalog entry defines.
type ErrDecode struct {
	Word uint16
}

func (e ErrDecode) Error() string {
	return fmt.Sprintf("unassigned instruction word 0x%04X", e.Word)
}
