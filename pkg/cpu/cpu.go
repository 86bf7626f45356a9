// Package cpu implements the fetch-decode-execute cycle over the ISA's
// sixteen general registers, program counter, and status flags.
package cpu

import (
	"context"

	"github.com/brijohn/brianiac/pkg/inst"
)

// Bus is the subset of pkg/bus.Bus the CPU needs. Accepting an interface
// here keeps this package testable without a full memory map.
type Bus interface {
	ReadU8(addr uint16) uint8
	ReadU16(addr uint16) (uint16, error)
	WriteU8(addr uint16, value uint8)
	WriteU16(addr uint16, value uint16) error
}

// CPU holds all state that survives between Step calls.
type CPU struct {
	Regs   [16]uint16
	PC     uint16
	Status Flags
	Imm    uint16

	Bus Bus
}

// New returns a CPU wired to bus, with all state zeroed.
func New(bus Bus) *CPU {
	return &CPU{Bus: bus}
}

// Reset zeroes registers, pc, status, and the immediate latch. Devices are
// not touched here — ROM and RAM need no reset, and serial
// keeps its connection for the CPU's lifetime.
func (c *CPU) Reset() {
	c.Regs = [16]uint16{}
	c.PC = 0
	c.Status = 0
	c.Imm = 0
}

// Step executes exactly one fetch-decode-execute cycle. A cycle is atomic:
// ctx cancellation is only observed at the very start of Step, never once a
// cycle has begun, so a step in flight always runs to completion.
func (c *CPU) Step(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	word, err := c.Bus.ReadU16(c.PC)
	if err != nil {
		return err
	}
	c.PC += 2

	d := inst.Decode(word)
	if d.Immediate {
		imm, err := c.Bus.ReadU16(c.PC)
		if err != nil {
			return err
		}
		c.Imm = imm
		c.PC += 2
	}

	if _, ok := inst.Find(d.Op); !ok {
		return inst.ErrDecode{Word: word}
	}

	return c.execute(d)
}

// operand is the execute step's source value: the immediate latch when I=1,
// else R[RM].
func (c *CPU) operand(d inst.Decoded) uint16 {
	if d.Immediate {
		return c.Imm
	}
	return c.Regs[d.RM]
}

func (c *CPU) execute(d inst.Decoded) error {
	switch d.Op.Group {
	case inst.GroupNOP:
		return nil
	case inst.GroupALU:
		return c.executeALU(d)
	case inst.GroupLSM:
		return c.executeLSM(d)
	case inst.GroupCTRL:
		return c.executeCTRL(d)
	default:
		return nil
	}
}

func (c *CPU) executeALU(d inst.Decoded) error {
	dst := c.Regs[d.RN]
	src := c.operand(d)
	result, flags := ALU(d.Op.Func, dst, src, c.Status&FlagC != 0)
	c.Status = flags
	if d.Op.Func != inst.FuncCP && d.Op.Func != inst.FuncTEST {
		c.Regs[d.RN] = result
	}
	return nil
}

func (c *CPU) executeLSM(d inst.Decoded) error {
	switch d.Op.Func {
	case inst.FuncLDW:
		v, err := c.Bus.ReadU16(c.operand(d))
		if err != nil {
			return err
		}
		c.Regs[d.RN] = v
	case inst.FuncLDB:
		c.Regs[d.RN] = uint16(c.Bus.ReadU8(c.operand(d)))
	case inst.FuncMOV:
		c.Regs[d.RN] = c.operand(d)
	case inst.FuncSTW:
		target := c.storeTarget(d)
		if err := c.Bus.WriteU16(target, c.Regs[d.RM]); err != nil {
			return err
		}
	case inst.FuncSTB:
		target := c.storeTarget(d)
		c.Bus.WriteU8(target, uint8(c.Regs[d.RM]))
	}
	return nil
}

// storeTarget is STW/STB's address operand: immediate if I=1, else R[RN]
// (not R[RM] — the register that holds the value being stored is always
// RM).
func (c *CPU) storeTarget(d inst.Decoded) uint16 {
	if d.Immediate {
		return c.Imm
	}
	return c.Regs[d.RN]
}

func (c *CPU) executeCTRL(d inst.Decoded) error {
	switch d.Op.Func {
	case inst.FuncBRA:
		c.PC = c.operand(d)
	case inst.FuncBZ:
		if c.Status&FlagZ != 0 {
			c.PC = c.operand(d)
		}
	case inst.FuncBNZ:
		if c.Status&FlagZ == 0 {
			c.PC = c.operand(d)
		}
	case inst.FuncBC:
		if c.Status&FlagC != 0 {
			c.PC = c.operand(d)
		}
	case inst.FuncBNC:
		if c.Status&FlagC == 0 {
			c.PC = c.operand(d)
		}
	case inst.FuncCALL:
		target := c.operand(d)
		c.Regs[15] = c.PC
		c.PC = target
	case inst.FuncRET:
		c.PC = c.Regs[15]
	}
	return nil
}
