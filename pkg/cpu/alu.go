package cpu

import "github.com/brijohn/brianiac/pkg/inst"

// carryAffecting is the set of ALU funcs for which C and V are meaningful:
// ADD, SUB, and CP.
func carryAffecting(f inst.Func) bool {
	return f == inst.FuncADD || f == inst.FuncSUB || f == inst.FuncCP
}

// ALU is the pure (func, a, b, carry_in) -> (result, flags) function behind
// every ALU-group instruction. a and b are taken as the full 16-bit
// register values; the caller is responsible for picking which operand is
// "destination" (a) and which is "source" (b) per the instruction's
// semantics.
func ALU(f inst.Func, a, b uint16, carryIn bool) (result uint16, flags Flags) {
	var wide int32
	carry := int32(0)
	if carryIn {
		carry = 1
	}

	switch f {
	case inst.FuncADD:
		wide = int32(a) + int32(b) + carry
	case inst.FuncSUB:
		wide = int32(a) - int32(b) - carry
	case inst.FuncCP:
		wide = int32(a) - int32(b)
	case inst.FuncAND:
		wide = int32(a & b)
	case inst.FuncOR:
		wide = int32(a | b)
	case inst.FuncXOR:
		wide = int32(a ^ b)
	case inst.FuncTEST:
		wide = int32(a & b)
	case inst.FuncNOT:
		wide = int32(^a & 0xFFFF)
	case inst.FuncSHR:
		wide = int32(a >> 1)
	case inst.FuncSHL:
		wide = int32(a) << 1
	}

	result = uint16(wide & 0xFFFF)

	if result == 0 {
		flags |= FlagZ
	}
	if result&0x8000 != 0 {
		flags |= FlagN
	}
	if carryAffecting(f) {
		if wide > 0xFFFF || wide < 0 {
			flags |= FlagC
		}
		signA := a & 0x8000
		signB := b & 0x8000
		if signA == signB && result&0x8000 != signA {
			flags |= FlagV
		}
	}
	return result, flags
}
