package mips

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Segment base addresses, as in SPIM and MARS.
const (
	TextBase uint32 = 0x00400000
	DataBase uint32 = 0x10010000
)

// Image is an assembled program ready to be loaded into a CPU.
type Image struct {
	Text   []Instruction
	Data   []byte
	Labels map[string]uint32
	Entry  uint32
}

// Lookup returns the address bound to label.
func (img *Image) Lookup(label string) (uint32, bool) {
	addr, ok := img.Labels[label]
	return addr, ok
}

type section int

const (
	sectionText section = iota
	sectionData
)

type Assembler struct {
	labels map[string]uint32
}

type parsedLine struct {
	lineNo   int
	labels   []string
	mnemonic string
	operands []string
}

func NewAssembler() *Assembler {
	return &Assembler{
		labels: make(map[string]uint32),
	}
}

// Assemble translates MIPS assembly source into an Image.
func Assemble(code string) (*Image, error) {
	return NewAssembler().Assemble(code)
}

func (a *Assembler) Assemble(code string) (*Image, error) {
	lines := strings.Split(code, "\n")

	parsed := make([]parsedLine, 0, len(lines))
	for i, raw := range lines {
		p, err := parseLine(raw, i+1)
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, p)
	}

	if err := a.pass1(parsed); err != nil {
		return nil, err
	}
	return a.pass2(parsed)
}

// pass1 binds every label to an address.
func (a *Assembler) pass1(lines []parsedLine) error {
	sect := sectionText
	text := TextBase
	data := DataBase

	for _, p := range lines {
		for _, lbl := range p.labels {
			if _, exists := a.labels[lbl]; exists {
				return fmt.Errorf("duplicate label '%s' on line %d", lbl, p.lineNo)
			}
			if sect == sectionText {
				a.labels[lbl] = text
			} else {
				a.labels[lbl] = data
			}
		}

		switch p.mnemonic {
		case "":
		case ".text":
			sect = sectionText
		case ".data":
			sect = sectionData
		case ".globl":
			if len(p.operands) != 1 {
				return fmt.Errorf(".globl expects exactly one operand on line %d", p.lineNo)
			}
		case ".word":
			if sect != sectionData {
				return fmt.Errorf(".word outside .data on line %d", p.lineNo)
			}
			if len(p.operands) == 0 {
				return fmt.Errorf(".word expects at least one operand on line %d", p.lineNo)
			}
			data += uint32(4 * len(p.operands))
		default:
			if _, ok := mnemonics[p.mnemonic]; !ok {
				return fmt.Errorf("unknown instruction on line %d: %s", p.lineNo, p.mnemonic)
			}
			if sect != sectionText {
				return fmt.Errorf("instruction in .data on line %d: %s", p.lineNo, p.mnemonic)
			}
			text += 4
		}
	}
	return nil
}

// pass2 decodes instructions and lays out the data segment.
func (a *Assembler) pass2(lines []parsedLine) (*Image, error) {
	img := &Image{Labels: a.labels, Entry: TextBase}
	if main, ok := a.labels["main"]; ok {
		img.Entry = main
	}

	for _, p := range lines {
		switch p.mnemonic {
		case "", ".text", ".data":
			continue
		case ".globl":
			if _, ok := a.labels[p.operands[0]]; !ok {
				return nil, fmt.Errorf("undefined label '%s' on line %d", p.operands[0], p.lineNo)
			}
			continue
		case ".word":
			for _, op := range p.operands {
				val, err := a.parseImmediate(op, p.lineNo)
				if err != nil {
					return nil, err
				}
				img.Data = binary.LittleEndian.AppendUint32(img.Data, uint32(val))
			}
			continue
		}

		in, err := a.decode(p)
		if err != nil {
			return nil, err
		}
		img.Text = append(img.Text, in)
	}
	return img, nil
}

func (a *Assembler) decode(p parsedLine) (Instruction, error) {
	op := mnemonics[p.mnemonic]
	ops := p.operands
	in := Instruction{Op: op, Line: p.lineNo}

	want := func(n int) error {
		if len(ops) != n {
			return fmt.Errorf("%s expects %d operands on line %d", p.mnemonic, n, p.lineNo)
		}
		return nil
	}
	reg := func(tok string) (int, error) {
		r, ok := parseRegister(tok)
		if !ok {
			return 0, fmt.Errorf("invalid register '%s' on line %d", tok, p.lineNo)
		}
		return r, nil
	}

	var err error
	switch op {
	case OpSYSCALL:
		err = want(0)

	case OpLI, OpLA:
		if err = want(2); err != nil {
			break
		}
		if in.Rd, err = reg(ops[0]); err != nil {
			break
		}
		in.Imm, err = a.parseImmediate(ops[1], p.lineNo)

	case OpLW, OpSW:
		if err = want(2); err != nil {
			break
		}
		if in.Rd, err = reg(ops[0]); err != nil {
			break
		}
		in.Rs, in.Imm, err = a.parseMemory(ops[1], p.lineNo)

	case OpMOVE:
		if err = want(2); err != nil {
			break
		}
		if in.Rd, err = reg(ops[0]); err != nil {
			break
		}
		in.Rs, err = reg(ops[1])

	case OpADDU, OpSUBU:
		if err = want(3); err != nil {
			break
		}
		if in.Rd, err = reg(ops[0]); err != nil {
			break
		}
		if in.Rs, err = reg(ops[1]); err != nil {
			break
		}
		if r, ok := parseRegister(ops[2]); ok {
			in.Rt = r
			break
		}
		in.UseImm = true
		in.Imm, err = a.parseImmediate(ops[2], p.lineNo)

	case OpMULT, OpDIV:
		if err = want(2); err != nil {
			break
		}
		if in.Rs, err = reg(ops[0]); err != nil {
			break
		}
		in.Rt, err = reg(ops[1])

	case OpMFLO, OpMFHI:
		if err = want(1); err != nil {
			break
		}
		in.Rd, err = reg(ops[0])

	case OpBEQ, OpBNE, OpBLT, OpBGT, OpBLE, OpBGE:
		if err = want(3); err != nil {
			break
		}
		if in.Rs, err = reg(ops[0]); err != nil {
			break
		}
		if in.Rt, err = reg(ops[1]); err != nil {
			break
		}
		in.Target, err = a.parseTarget(ops[2], p.lineNo)

	case OpJ, OpJAL:
		if err = want(1); err != nil {
			break
		}
		in.Target, err = a.parseTarget(ops[0], p.lineNo)

	case OpJR:
		if err = want(1); err != nil {
			break
		}
		in.Rs, err = reg(ops[0])
	}
	return in, err
}

func parseLine(raw string, lineNo int) (parsedLine, error) {
	p := parsedLine{lineNo: lineNo}

	line := stripComments(raw)
	line = strings.TrimSpace(line)
	if line == "" {
		return p, nil
	}

	for {
		colon := strings.IndexByte(line, ':')
		if colon <= 0 {
			break
		}

		beforeColon := strings.TrimSpace(line[:colon])
		if strings.ContainsAny(beforeColon, " \t") {
			break
		}
		if !isIdentifier(beforeColon) {
			return p, fmt.Errorf("invalid label '%s' on line %d", beforeColon, lineNo)
		}

		p.labels = append(p.labels, beforeColon)
		line = strings.TrimSpace(line[colon+1:])
		if line == "" {
			return p, nil
		}
	}

	fields := strings.Fields(strings.ReplaceAll(line, ",", " "))
	p.mnemonic = strings.ToLower(fields[0])
	if len(fields) > 1 {
		p.operands = fields[1:]
	}
	return p, nil
}

func stripComments(line string) string {
	if cut := strings.IndexByte(line, '#'); cut >= 0 {
		return line[:cut]
	}
	return line
}

// parseMemory accepts "off($reg)", "($reg)" and "label".
func (a *Assembler) parseMemory(tok string, lineNo int) (int, int32, error) {
	open := strings.IndexByte(tok, '(')
	if open < 0 {
		addr, err := a.parseImmediate(tok, lineNo)
		return RegZero, addr, err
	}
	if !strings.HasSuffix(tok, ")") {
		return 0, 0, fmt.Errorf("invalid memory operand '%s' on line %d", tok, lineNo)
	}
	base, ok := parseRegister(tok[open+1 : len(tok)-1])
	if !ok {
		return 0, 0, fmt.Errorf("invalid register in '%s' on line %d", tok, lineNo)
	}
	var off int32
	if open > 0 {
		v, err := strconv.ParseInt(tok[:open], 0, 32)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid offset in '%s' on line %d", tok, lineNo)
		}
		off = int32(v)
	}
	return base, off, nil
}

func (a *Assembler) parseImmediate(token string, lineNo int) (int32, error) {
	if value, err := strconv.ParseInt(token, 0, 64); err == nil {
		if value < -1<<31 || value > 1<<32-1 {
			return 0, fmt.Errorf("immediate out of range on line %d: %s", lineNo, token)
		}
		return int32(value), nil
	}

	if addr, ok := a.labels[token]; ok {
		return int32(addr), nil
	}

	if isIdentifier(token) {
		return 0, fmt.Errorf("undefined label '%s' on line %d", token, lineNo)
	}

	return 0, fmt.Errorf("invalid immediate '%s' on line %d", token, lineNo)
}

func (a *Assembler) parseTarget(token string, lineNo int) (uint32, error) {
	addr, ok := a.labels[token]
	if !ok {
		return 0, fmt.Errorf("undefined label '%s' on line %d", token, lineNo)
	}
	return addr, nil
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}

	for i, r := range s {
		if i == 0 {
			if !unicode.IsLetter(r) && r != '_' && r != '.' {
				return false
			}
			continue
		}

		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '.' {
			return false
		}
	}

	return true
}
