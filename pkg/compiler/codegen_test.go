package compiler

import (
	"errors"
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

// assertContains checks if the generated code contains the expected substring.
func assertContains(t *testing.T, code, expected string) {
	t.Helper()
	if !strings.Contains(code, expected) {
		t.Errorf("Expected code to contain %q, but it didn't.\nCode:\n%s", expected, code)
	}
}

func compile(t *testing.T, src string) string {
	t.Helper()
	code, err := Compile(src, Options{})
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	return code
}

func TestGenerate_Listing(t *testing.T) {
	code := compile(t, "VAR x; BEGIN x := 3 + 4 * 2; WRITELN(x); END.")
	want := `	.text
	.globl main
main:
	li $v0, 3
	subu $sp, $sp, 4
	sw $v0, ($sp)
	li $v0, 4
	subu $sp, $sp, 4
	sw $v0, ($sp)
	li $v0, 2
	lw $t0, ($sp)
	addu $sp, $sp, 4
	mult $t0, $v0
	mflo $v0
	lw $t0, ($sp)
	addu $sp, $sp, 4
	addu $v0, $t0, $v0
	sw $v0, varx
	lw $v0, varx
	move $a0, $v0
	li $v0, 1
	syscall
	li $v0, 11
	li $a0, 10
	syscall
	li $v0, 10
	syscall

	.data
varx: .word 0
`
	be.Equal(t, code, want)
}

func TestGenerate_Comments(t *testing.T) {
	code, err := Compile("VAR x; BEGIN x := 1; IF x = 1 THEN WRITELN(x); END.", Options{Comments: true})
	be.Err(t, err, nil)
	assertContains(t, code, "\tsw $v0, varx\t# x :=")
	assertContains(t, code, "\tbne $t0, $v0, endif1\t# unless x = 1")
	assertContains(t, code, "\tli $v0, 10\t# exit")

	plain := compile(t, "VAR x; BEGIN x := 1; IF x = 1 THEN WRITELN(x); END.")
	be.True(t, !strings.Contains(plain, "#"))
}

func TestGenerate_NegatedBranches(t *testing.T) {
	tests := map[string]string{
		"=":  "bne",
		"<>": "beq",
		"<":  "bge",
		">":  "ble",
		"<=": "bgt",
		">=": "blt",
	}
	for op, branch := range tests {
		code := compile(t, "IF a "+op+" b THEN WRITELN(1);")
		assertContains(t, code, branch+" $t0, $v0, endif1")
	}
}

func TestGenerate_Labels(t *testing.T) {
	code := compile(t, `VAR i;
BEGIN
	IF i = 0 THEN i := 1;
	WHILE i < 3 DO i := i + 1;
	IF i = 3 THEN WRITELN(i);
END.`)
	assertContains(t, code, "endif1:")
	assertContains(t, code, "while2:")
	assertContains(t, code, "bge $t0, $v0, endwhile3")
	assertContains(t, code, "endwhile3:")
	assertContains(t, code, "bne $t0, $v0, endif4")
	assertContains(t, code, "endif4:")
}

func TestGenerate_WhileShape(t *testing.T) {
	code := compile(t, "VAR i; WHILE i < 3 DO i := i + 1;")
	top := strings.Index(code, "while1:")
	branch := strings.Index(code, "bge $t0, $v0, endwhile2")
	jump := strings.Index(code, "j while1")
	end := strings.Index(code, "endwhile2:")
	be.True(t, top >= 0 && top < branch && branch < jump && jump < end)
}

func TestGenerate_ProcedureFrame(t *testing.T) {
	code := compile(t, `PROCEDURE f(a, b);
VAR t, u;
BEGIN
	t := a;
	u := b;
	f := t + u;
END;
WRITELN(f(1, 2));`)

	assertContains(t, code, "procf:\n\tsubu $sp, $sp, 8\n\tsw $zero, 0($sp)\n\tsw $zero, 4($sp)\n")
	// a is above t, u, the return slot and b.
	assertContains(t, code, "\tlw $v0, 16($sp)\n\tsw $v0, 0($sp)\n")
	assertContains(t, code, "\tlw $v0, 12($sp)\n\tsw $v0, 4($sp)\n")
	// f := t + u, with t read while nothing is pending and u read under one push.
	assertContains(t, code, "\tlw $v0, 0($sp)\n\tsubu $sp, $sp, 4\n\tsw $v0, ($sp)\n\tlw $v0, 8($sp)\n")
	assertContains(t, code, "\tsw $v0, 8($sp)\n\taddu $sp, $sp, 8\n\tjr $ra\n")
}

func TestGenerate_CallSequence(t *testing.T) {
	code := compile(t, "PROCEDURE f(a, b); f := a; WRITELN(f(7, 8));")
	want := strings.Join([]string{
		"\tsubu $sp, $sp, 4", "\tsw $ra, ($sp)",
		"\tli $v0, 7", "\tsubu $sp, $sp, 4", "\tsw $v0, ($sp)",
		"\tli $v0, 8", "\tsubu $sp, $sp, 4", "\tsw $v0, ($sp)",
		"\tli $v0, 0", "\tsubu $sp, $sp, 4", "\tsw $v0, ($sp)",
		"\tjal procf",
		"\tlw $v0, ($sp)", "\taddu $sp, $sp, 4",
		"\taddu $sp, $sp, 8",
		"\tlw $ra, ($sp)", "\taddu $sp, $sp, 4",
	}, "\n")
	assertContains(t, code, want)
}

func TestGenerate_LocalUnderPendingTemporaries(t *testing.T) {
	code := compile(t, "PROCEDURE f(a); f := 1 + a; WRITELN(f(2));")
	// a sits at 4 on entry; one pending push moves it to 8.
	assertContains(t, code, "\tli $v0, 1\n\tsubu $sp, $sp, 4\n\tsw $v0, ($sp)\n\tlw $v0, 8($sp)\n")
}

func TestGenerate_Globals(t *testing.T) {
	code := compile(t, `VAR b, a;
PROCEDURE p(n);
BEGIN
	zeta := n;
	p := alpha;
END;
BEGIN
	y := p(1);
	WRITELN(b);
END.`)
	data := code[strings.Index(code, ".data"):]
	want := ".data\nvarb: .word 0\nvara: .word 0\nvaralpha: .word 0\nvary: .word 0\nvarzeta: .word 0\n"
	be.Equal(t, data, want)
	assertContains(t, code, "\tsw $v0, varzeta")
	assertContains(t, code, "\tlw $v0, varalpha")
}

func TestGenerate_DataLabelsStartInColumnZero(t *testing.T) {
	code := compile(t, "VAR x; BEGIN x := 1; y := x; END.")
	for _, line := range strings.Split(code, "\n") {
		if strings.Contains(line, ".word") {
			be.True(t, !strings.HasPrefix(line, "\t"))
		}
	}
	assertContains(t, code, "\nvarx: .word 0\nvary: .word 0\n")
}

func TestGenerate_OnlyLastDuplicateProcedure(t *testing.T) {
	code := compile(t, "PROCEDURE f(); f := 1;\nPROCEDURE f(); f := 2;\nWRITELN(f());")
	be.Equal(t, strings.Count(code, "procf:"), 1)
	assertContains(t, code, "procf:\n\tli $v0, 2\n")
}

func TestGenerate_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{"UnknownProcedure", "WRITELN(g(1));", ErrUnresolvedName},
		{"ArgumentCount", "PROCEDURE f(a); f := a; WRITELN(f(1, 2));", ErrArgumentCount},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Compile(tc.src, Options{})
			be.True(t, errors.Is(err, tc.want))
		})
	}
}

func TestGenerate_NotImplemented(t *testing.T) {
	prog := &Program{Body: &WriteLine{Expr: &BinaryOp{Op: PERCENT, Left: &Number{Value: 1}, Right: &Number{Value: 2}}}}
	_, err := Generate(prog, Options{})
	be.True(t, errors.Is(err, ErrNotImplemented))

	prog = &Program{Body: &If{
		Cond: &Condition{Op: PLUS, Left: &Number{Value: 1}, Right: &Number{Value: 2}},
		Body: &Block{},
	}}
	_, err = Generate(prog, Options{})
	be.True(t, errors.Is(err, ErrNotImplemented))
}

func TestEmitterStackImbalance(t *testing.T) {
	e := NewEmitter(Options{})
	e.SetProcedureContext(&ProcedureDeclaration{Name: "p"})
	e.Push("$v0")
	err := e.ClearProcedureContext()
	be.True(t, errors.Is(err, ErrStackImbalance))

	// A new procedure starts from zero again.
	e.SetProcedureContext(&ProcedureDeclaration{Name: "q"})
	be.Err(t, e.ClearProcedureContext(), nil)
}

func TestEmitterIndentation(t *testing.T) {
	e := NewEmitter(Options{})
	e.Emit("main:")
	e.Emit("# note")
	e.Emit("li $v0, 1")
	be.Equal(t, e.String(), "main:\n# note\n\tli $v0, 1\n")

	be.Equal(t, e.NextLabelID(), 1)
	be.Equal(t, e.NextLabelID(), 2)
}
