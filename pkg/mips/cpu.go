package mips

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
)

// Faults raised by the simulator. Step wraps them with the faulting
// instruction's address and source line.
var (
	ErrDivideByZero   = errors.New("integer divide by zero")
	ErrAddress        = errors.New("bad address")
	ErrStepLimit      = errors.New("step limit exceeded")
	ErrUnknownSyscall = errors.New("unknown syscall")
)

// StackTop is the initial value of $sp; the stack grows down from here.
const StackTop uint32 = 0x80000000

// Config bounds a simulation.
type Config struct {
	// MaxSteps stops runaway programs. Zero means no limit.
	MaxSteps int
	// StackSize is the number of addressable bytes below StackTop.
	StackSize int
}

func DefaultConfig() Config {
	return Config{MaxSteps: 50_000_000, StackSize: 1 << 20}
}

type CPU struct {
	Regs [32]int32
	HI   int32
	LO   int32
	PC   uint32

	Halted bool
	Steps  int

	// Output receives syscall output. If nil, os.Stdout is used.
	Output io.Writer

	text  []Instruction
	data  []byte
	stack []byte
	cfg   Config
}

// NewCPU loads img into a fresh machine with PC at the entry point and $sp at
// StackTop.
func NewCPU(img *Image, cfg Config) *CPU {
	if cfg.StackSize <= 0 {
		cfg.StackSize = DefaultConfig().StackSize
	}
	c := &CPU{
		PC:    img.Entry,
		text:  img.Text,
		data:  append([]byte(nil), img.Data...),
		stack: make([]byte, cfg.StackSize),
		cfg:   cfg,
	}
	sp := StackTop
	c.Regs[RegSP] = int32(sp)
	return c
}

func (c *CPU) outputSink() io.Writer {
	if c.Output != nil {
		return c.Output
	}
	return os.Stdout
}

// memory returns the 4-byte slice backing the word at addr.
func (c *CPU) memory(addr uint32) ([]byte, error) {
	if addr%4 != 0 {
		return nil, fmt.Errorf("%w: misaligned word access at 0x%08x", ErrAddress, addr)
	}
	if addr >= DataBase && addr-DataBase+4 <= uint32(len(c.data)) {
		off := addr - DataBase
		return c.data[off : off+4], nil
	}
	low := StackTop - uint32(len(c.stack))
	if addr >= low && addr < StackTop {
		off := addr - low
		return c.stack[off : off+4], nil
	}
	return nil, fmt.Errorf("%w: 0x%08x is outside data and stack", ErrAddress, addr)
}

// LoadWord reads the word at addr.
func (c *CPU) LoadWord(addr uint32) (int32, error) {
	b, err := c.memory(addr)
	if err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(b)), nil
}

// StoreWord writes val to the word at addr.
func (c *CPU) StoreWord(addr uint32, val int32) error {
	b, err := c.memory(addr)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(b, uint32(val))
	return nil
}

func (c *CPU) setReg(r int, val int32) {
	if r != RegZero {
		c.Regs[r] = val
	}
}

// Step executes one instruction.
func (c *CPU) Step() error {
	if c.Halted {
		return nil
	}
	if c.PC < TextBase || (c.PC-TextBase)%4 != 0 || int((c.PC-TextBase)/4) >= len(c.text) {
		return fmt.Errorf("%w: pc 0x%08x is outside the text segment", ErrAddress, c.PC)
	}
	in := c.text[(c.PC-TextBase)/4]
	if err := c.exec(in); err != nil {
		return fmt.Errorf("pc 0x%08x (line %d) %s: %w", c.PC, in.Line, in, err)
	}
	c.Steps++
	return nil
}

func (c *CPU) exec(in Instruction) error {
	next := c.PC + 4
	r := &c.Regs

	switch in.Op {
	case OpLI, OpLA:
		c.setReg(in.Rd, in.Imm)

	case OpLW:
		v, err := c.LoadWord(uint32(r[in.Rs] + in.Imm))
		if err != nil {
			return err
		}
		c.setReg(in.Rd, v)

	case OpSW:
		if err := c.StoreWord(uint32(r[in.Rs]+in.Imm), r[in.Rd]); err != nil {
			return err
		}

	case OpMOVE:
		c.setReg(in.Rd, r[in.Rs])

	case OpADDU, OpSUBU:
		rhs := r[in.Rt]
		if in.UseImm {
			rhs = in.Imm
		}
		if in.Op == OpADDU {
			c.setReg(in.Rd, r[in.Rs]+rhs)
		} else {
			c.setReg(in.Rd, r[in.Rs]-rhs)
		}

	case OpMULT:
		prod := int64(r[in.Rs]) * int64(r[in.Rt])
		c.LO = int32(prod)
		c.HI = int32(prod >> 32)

	case OpDIV:
		if r[in.Rt] == 0 {
			return ErrDivideByZero
		}
		c.LO = r[in.Rs] / r[in.Rt]
		c.HI = r[in.Rs] % r[in.Rt]

	case OpMFLO:
		c.setReg(in.Rd, c.LO)

	case OpMFHI:
		c.setReg(in.Rd, c.HI)

	case OpBEQ, OpBNE, OpBLT, OpBGT, OpBLE, OpBGE:
		if branchTaken(in.Op, r[in.Rs], r[in.Rt]) {
			next = in.Target
		}

	case OpJ:
		next = in.Target

	case OpJAL:
		c.setReg(RegRA, int32(next))
		next = in.Target

	case OpJR:
		next = uint32(r[in.Rs])

	case OpSYSCALL:
		if err := c.syscall(); err != nil {
			return err
		}
	}

	c.PC = next
	return nil
}

func branchTaken(op Opcode, a, b int32) bool {
	switch op {
	case OpBEQ:
		return a == b
	case OpBNE:
		return a != b
	case OpBLT:
		return a < b
	case OpBGT:
		return a > b
	case OpBLE:
		return a <= b
	case OpBGE:
		return a >= b
	}
	return false
}

func (c *CPU) syscall() error {
	switch code := c.Regs[RegV0]; code {
	case 1:
		_, err := io.WriteString(c.outputSink(), strconv.Itoa(int(c.Regs[RegA0])))
		return err
	case 11:
		_, err := c.outputSink().Write([]byte{byte(c.Regs[RegA0])})
		return err
	case 10:
		c.Halted = true
		return nil
	default:
		return fmt.Errorf("%w %d", ErrUnknownSyscall, code)
	}
}

// Run steps until the program exits or faults.
func (c *CPU) Run() error {
	for !c.Halted {
		if c.cfg.MaxSteps > 0 && c.Steps >= c.cfg.MaxSteps {
			return fmt.Errorf("%w after %d instructions", ErrStepLimit, c.Steps)
		}
		if err := c.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Exec assembles src and runs it to completion, writing output to out.
func Exec(src string, out io.Writer, cfg Config) (*CPU, error) {
	img, err := Assemble(src)
	if err != nil {
		return nil, fmt.Errorf("assemble: %w", err)
	}
	c := NewCPU(img, cfg)
	c.Output = out
	return c, c.Run()
}
