// Package mips assembles and simulates the small MIPS32 dialect emitted by
// pkg/compiler, so that generated programs can be executed in tests.
package mips

import (
	"fmt"
	"strconv"
	"strings"
)

type Opcode uint8

const (
	OpLI Opcode = iota
	OpLA
	OpLW
	OpSW
	OpMOVE
	OpADDU
	OpSUBU
	OpMULT
	OpDIV
	OpMFLO
	OpMFHI
	OpBEQ
	OpBNE
	OpBLT
	OpBGT
	OpBLE
	OpBGE
	OpJ
	OpJAL
	OpJR
	OpSYSCALL
)

var mnemonics = map[string]Opcode{
	"li":      OpLI,
	"la":      OpLA,
	"lw":      OpLW,
	"sw":      OpSW,
	"move":    OpMOVE,
	"addu":    OpADDU,
	"subu":    OpSUBU,
	"mult":    OpMULT,
	"div":     OpDIV,
	"mflo":    OpMFLO,
	"mfhi":    OpMFHI,
	"beq":     OpBEQ,
	"bne":     OpBNE,
	"blt":     OpBLT,
	"bgt":     OpBGT,
	"ble":     OpBLE,
	"bge":     OpBGE,
	"j":       OpJ,
	"jal":     OpJAL,
	"jr":      OpJR,
	"syscall": OpSYSCALL,
}

func (op Opcode) String() string {
	for name, o := range mnemonics {
		if o == op {
			return name
		}
	}
	return fmt.Sprintf("Opcode(%d)", uint8(op))
}

// Register numbers used by the simulator directly.
const (
	RegZero = 0
	RegV0   = 2
	RegA0   = 4
	RegT0   = 8
	RegSP   = 29
	RegRA   = 31
)

var registerNames = [32]string{
	"zero", "at", "v0", "v1", "a0", "a1", "a2", "a3",
	"t0", "t1", "t2", "t3", "t4", "t5", "t6", "t7",
	"s0", "s1", "s2", "s3", "s4", "s5", "s6", "s7",
	"t8", "t9", "k0", "k1", "gp", "sp", "fp", "ra",
}

// RegisterName returns the conventional "$name" spelling of register r.
func RegisterName(r int) string {
	if r < 0 || r >= len(registerNames) {
		return fmt.Sprintf("$%d", r)
	}
	return "$" + registerNames[r]
}

// parseRegister accepts "$v0" style names and "$2" style numbers.
func parseRegister(tok string) (int, bool) {
	if !strings.HasPrefix(tok, "$") {
		return 0, false
	}
	name := tok[1:]
	if n, err := strconv.Atoi(name); err == nil {
		if n >= 0 && n < 32 {
			return n, true
		}
		return 0, false
	}
	for i, r := range registerNames {
		if r == name {
			return i, true
		}
	}
	if name == "s8" {
		return 30, true
	}
	return 0, false
}

// Instruction is one decoded text-segment instruction. Only the fields the
// opcode uses are meaningful.
type Instruction struct {
	Op     Opcode
	Rd     int   // destination register
	Rs     int   // first source or base register
	Rt     int   // second source register
	Imm    int32 // immediate, memory offset or absolute address
	UseImm bool  // addu/subu take Imm instead of Rt
	Target uint32
	Line   int // source line, for diagnostics
}

func (in Instruction) String() string {
	switch in.Op {
	case OpLI, OpLA:
		return fmt.Sprintf("%s %s, %d", in.Op, RegisterName(in.Rd), in.Imm)
	case OpLW, OpSW:
		return fmt.Sprintf("%s %s, %d(%s)", in.Op, RegisterName(in.Rd), in.Imm, RegisterName(in.Rs))
	case OpMOVE:
		return fmt.Sprintf("move %s, %s", RegisterName(in.Rd), RegisterName(in.Rs))
	case OpMFLO, OpMFHI:
		return fmt.Sprintf("%s %s", in.Op, RegisterName(in.Rd))
	case OpJR:
		return fmt.Sprintf("jr %s", RegisterName(in.Rs))
	case OpADDU, OpSUBU:
		if in.UseImm {
			return fmt.Sprintf("%s %s, %s, %d", in.Op, RegisterName(in.Rd), RegisterName(in.Rs), in.Imm)
		}
		return fmt.Sprintf("%s %s, %s, %s", in.Op, RegisterName(in.Rd), RegisterName(in.Rs), RegisterName(in.Rt))
	case OpMULT, OpDIV:
		return fmt.Sprintf("%s %s, %s", in.Op, RegisterName(in.Rs), RegisterName(in.Rt))
	case OpBEQ, OpBNE, OpBLT, OpBGT, OpBLE, OpBGE:
		return fmt.Sprintf("%s %s, %s, 0x%08x", in.Op, RegisterName(in.Rs), RegisterName(in.Rt), in.Target)
	case OpJ, OpJAL:
		return fmt.Sprintf("%s 0x%08x", in.Op, in.Target)
	}
	return in.Op.String()
}
