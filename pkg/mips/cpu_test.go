package mips

import (
	"bytes"
	"errors"
	"strconv"
	"testing"
)

// run assembles src, runs it and returns what it printed.
func run(t *testing.T, src string) (*CPU, string, error) {
	t.Helper()
	var out bytes.Buffer
	c, err := Exec(src, &out, DefaultConfig())
	return c, out.String(), err
}

func TestArithmetic(t *testing.T) {
	src := `
main:
	li $t0, 17
	li $v0, 5
	addu $t1, $t0, $v0
	subu $t2, $t0, $v0
	mult $t0, $v0
	mflo $t3
	div $t0, $v0
	mflo $t4
	mfhi $t5
	li $t6, -17
	div $t6, $v0
	mflo $t7
	mfhi $t8
	li $v0, 10
	syscall
`
	c, _, err := run(t, src)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	want := map[int]int32{9: 22, 10: 12, 11: 85, 12: 3, 13: 2, 15: -3, 24: -2}
	for reg, v := range want {
		if c.Regs[reg] != v {
			t.Errorf("%s: expected %d, got %d", RegisterName(reg), v, c.Regs[reg])
		}
	}
}

func TestWraparound(t *testing.T) {
	c, _, err := run(t, "main:\n li $t0, 2147483647\n addu $t0, $t0, 1\n li $v0, 10\n syscall\n")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if c.Regs[RegT0] != -2147483648 {
		t.Errorf("expected wraparound to MinInt32, got %d", c.Regs[RegT0])
	}
}

func TestZeroRegisterIsConstant(t *testing.T) {
	c, _, err := run(t, "main:\n li $zero, 5\n move $t0, $zero\n li $v0, 10\n syscall\n")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if c.Regs[RegZero] != 0 || c.Regs[RegT0] != 0 {
		t.Errorf("$zero was written: $zero=%d $t0=%d", c.Regs[RegZero], c.Regs[RegT0])
	}
}

func TestNewCPU_StackPointer(t *testing.T) {
	img, err := Assemble("main:\n\tli $v0, 10\n\tsyscall\n")
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	c := NewCPU(img, DefaultConfig())
	if uint32(c.Regs[RegSP]) != StackTop {
		t.Errorf("$sp: expected 0x%08x, got 0x%08x", StackTop, uint32(c.Regs[RegSP]))
	}
	if c.Regs[RegSP] >= 0 {
		t.Errorf("$sp should hold the high half of the address space, got %d", c.Regs[RegSP])
	}
}

func TestStackAndData(t *testing.T) {
	src := `
main:
	li $v0, 42
	subu $sp, $sp, 4
	sw $v0, ($sp)
	lw $t0, ($sp)
	addu $sp, $sp, 4
	sw $t0, varx
	li $v0, 10
	syscall
	.data
varx: .word 0
`
	c, _, err := run(t, src)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if uint32(c.Regs[RegSP]) != StackTop {
		t.Errorf("$sp not restored: 0x%08x", uint32(c.Regs[RegSP]))
	}
	v, err := c.LoadWord(DataBase)
	if err != nil || v != 42 {
		t.Errorf("varx: expected 42, got %d (%v)", v, err)
	}
}

func TestBranches(t *testing.T) {
	tests := []struct {
		op    string
		a, b  int
		taken bool
	}{
		{"beq", 1, 1, true}, {"beq", 1, 2, false},
		{"bne", 1, 2, true}, {"bne", 2, 2, false},
		{"blt", -1, 0, true}, {"blt", 0, 0, false},
		{"bgt", 1, 0, true}, {"bgt", 0, 0, false},
		{"ble", 0, 0, true}, {"ble", 1, 0, false},
		{"bge", 0, 0, true}, {"bge", -1, 0, false},
	}
	for _, tc := range tests {
		src := "main:\n li $t0, " + strconv.Itoa(tc.a) + "\n li $t1, " + strconv.Itoa(tc.b) +
			"\n li $t2, 0\n " + tc.op + " $t0, $t1, skip\n li $t2, 1\nskip:\n li $v0, 10\n syscall\n"
		c, _, err := run(t, src)
		if err != nil {
			t.Fatalf("%s %d %d: %v", tc.op, tc.a, tc.b, err)
		}
		if taken := c.Regs[10] == 0; taken != tc.taken {
			t.Errorf("%s %d, %d: taken=%v, want %v", tc.op, tc.a, tc.b, taken, tc.taken)
		}
	}
}

func TestCallAndReturn(t *testing.T) {
	src := `
main:
	li $a0, 20
	jal double
	move $a0, $v0
	li $v0, 1
	syscall
	li $v0, 11
	li $a0, 10
	syscall
	li $v0, 10
	syscall
double:
	addu $v0, $a0, $a0
	jr $ra
`
	_, out, err := run(t, src)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out != "40\n" {
		t.Errorf("expected output %q, got %q", "40\n", out)
	}
}

func TestFaults(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{"DivideByZero", "main:\n li $t0, 1\n div $t0, $zero\n", ErrDivideByZero},
		{"Misaligned", "main:\n li $t0, 2\n lw $v0, ($t0)\n", ErrAddress},
		{"OutOfRange", "main:\n lw $v0, 0($zero)\n", ErrAddress},
		{"FallOffText", "main:\n li $t0, 1\n", ErrAddress},
		{"UnknownSyscall", "main:\n li $v0, 99\n syscall\n", ErrUnknownSyscall},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := run(t, tc.src)
			if !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestStepLimit(t *testing.T) {
	img, err := Assemble("main:\n j main\n")
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	c := NewCPU(img, Config{MaxSteps: 100})
	if err := c.Run(); !errors.Is(err, ErrStepLimit) {
		t.Fatalf("expected ErrStepLimit, got %v", err)
	}
	if c.Steps != 100 {
		t.Errorf("expected 100 steps, got %d", c.Steps)
	}
}

func TestStackOverflow(t *testing.T) {
	img, err := Assemble("main:\n subu $sp, $sp, 4\n sw $zero, ($sp)\n j main\n")
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	c := NewCPU(img, Config{StackSize: 64})
	if err := c.Run(); !errors.Is(err, ErrAddress) {
		t.Fatalf("expected ErrAddress, got %v", err)
	}
}
