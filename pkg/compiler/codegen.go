package compiler

import "fmt"

// Generate translates a parsed program into MIPS assembly source.
func Generate(p *Program, opts Options) (string, error) {
	e := NewEmitter(opts)

	// A later declaration of the same name replaces an earlier one.
	for _, proc := range p.Procs {
		e.procs[proc.Name] = proc
	}

	e.Emit(".text")
	e.Emit(".globl main")
	e.label("main")
	if err := p.Body.Gen(e); err != nil {
		return "", err
	}
	if err := e.ClearProcedureContext(); err != nil {
		return "", err
	}
	e.inst("exit", "li $v0, 10")
	e.inst("", "syscall")

	for _, proc := range p.Procs {
		if e.procs[proc.Name] != proc {
			continue
		}
		e.out.WriteByte('\n')
		if err := proc.Gen(e); err != nil {
			return "", err
		}
	}

	e.out.WriteByte('\n')
	e.Emit(".data")
	for _, v := range p.Vars {
		if err := v.Gen(e); err != nil {
			return "", err
		}
	}
	for _, name := range e.implicitGlobals() {
		e.dataWord(globalLabel(name))
	}
	return e.String(), nil
}

//  Expressions

func (n *Number) Gen(e *Emitter) error {
	e.inst("", "li $v0, %d", n.Value)
	return nil
}

func (v *Variable) Gen(e *Emitter) error {
	sym := e.Lookup(v.Name)
	if sym.Scope == ScopeLocal {
		e.inst("load "+v.Name, "lw $v0, %d($sp)", sym.Offset)
		return nil
	}
	e.inst("load global "+v.Name, "lw $v0, %s", sym.Label)
	return nil
}

// Gen evaluates the left operand, saves it on the stack while the right
// operand is evaluated, then combines $t0 (left) with $v0 (right).
func (b *BinaryOp) Gen(e *Emitter) error {
	if err := b.Left.Gen(e); err != nil {
		return err
	}
	e.Push("$v0")
	if err := b.Right.Gen(e); err != nil {
		return err
	}
	e.Pop("$t0")

	switch b.Op {
	case PLUS:
		e.inst(b.String(), "addu $v0, $t0, $v0")
	case MINUS:
		e.inst(b.String(), "subu $v0, $t0, $v0")
	case STAR:
		e.inst(b.String(), "mult $t0, $v0")
		e.inst("", "mflo $v0")
	case SLASH:
		e.inst(b.String(), "div $t0, $v0")
		e.inst("", "mflo $v0")
	case MOD:
		e.inst(b.String(), "div $t0, $v0")
		e.inst("", "mfhi $v0")
	default:
		return fmt.Errorf("%w: binary operator %s", ErrNotImplemented, b.Op)
	}
	return nil
}

// Gen pushes the caller's $ra, the arguments left to right and a zeroed
// return slot, calls the procedure, then unwinds in reverse leaving the
// return value in $v0.
func (c *ProcedureCall) Gen(e *Emitter) error {
	proc, ok := e.procs[c.Name]
	if !ok {
		return fmt.Errorf("%w: procedure %s", ErrUnresolvedName, c.Name)
	}
	if len(c.Args) != len(proc.Params) {
		return fmt.Errorf("%w: %s takes %d, got %d", ErrArgumentCount, c.Name, len(proc.Params), len(c.Args))
	}

	e.comment("call %s", c)
	e.Push("$ra")
	for _, arg := range c.Args {
		if err := arg.Gen(e); err != nil {
			return err
		}
		e.Push("$v0")
	}
	e.inst("return slot", "li $v0, 0")
	e.Push("$v0")
	e.inst("", "jal %s", procLabel(c.Name))
	e.Pop("$v0")
	e.Discard(len(c.Args))
	e.Pop("$ra")
	return nil
}

// branchOnFalse maps a relational operator to the branch taken when it does
// not hold.
var branchOnFalse = map[TokenType]string{
	EQUALS:     "bne",
	NOT_EQ:     "beq",
	LESS:       "bge",
	GREATER:    "ble",
	LESS_EQ:    "bgt",
	GREATER_EQ: "blt",
}

// Gen emits code that falls through when the condition holds and jumps to
// label otherwise.
func (c *Condition) Gen(e *Emitter, label string) error {
	branch, ok := branchOnFalse[c.Op]
	if !ok {
		return fmt.Errorf("%w: relational operator %s", ErrNotImplemented, c.Op)
	}
	if err := c.Left.Gen(e); err != nil {
		return err
	}
	e.Push("$v0")
	if err := c.Right.Gen(e); err != nil {
		return err
	}
	e.Pop("$t0")
	e.inst("unless "+c.String(), "%s $t0, $v0, %s", branch, label)
	return nil
}

//  Statements

func (b *Block) Gen(e *Emitter) error {
	for _, s := range b.Stmts {
		if err := s.Gen(e); err != nil {
			return err
		}
	}
	return nil
}

func (a *Assignment) Gen(e *Emitter) error {
	if err := a.Value.Gen(e); err != nil {
		return err
	}
	sym := e.Lookup(a.Name)
	if sym.Scope == ScopeLocal {
		e.inst(a.Name+" :=", "sw $v0, %d($sp)", sym.Offset)
		return nil
	}
	e.inst(a.Name+" :=", "sw $v0, %s", sym.Label)
	return nil
}

func (i *If) Gen(e *Emitter) error {
	end := fmt.Sprintf("endif%d", e.NextLabelID())
	if err := i.Cond.Gen(e, end); err != nil {
		return err
	}
	if err := i.Body.Gen(e); err != nil {
		return err
	}
	e.label(end)
	return nil
}

func (w *While) Gen(e *Emitter) error {
	top := fmt.Sprintf("while%d", e.NextLabelID())
	end := fmt.Sprintf("endwhile%d", e.NextLabelID())
	e.label(top)
	if err := w.Cond.Gen(e, end); err != nil {
		return err
	}
	if err := w.Body.Gen(e); err != nil {
		return err
	}
	e.inst("", "j %s", top)
	e.label(end)
	return nil
}

func (w *WriteLine) Gen(e *Emitter) error {
	if err := w.Expr.Gen(e); err != nil {
		return err
	}
	e.inst("WRITELN", "move $a0, $v0")
	e.inst("print int", "li $v0, 1")
	e.inst("", "syscall")
	e.inst("print newline", "li $v0, 11")
	e.inst("", "li $a0, 10")
	e.inst("", "syscall")
	return nil
}

// Gen reserves one zeroed word in the data section.
func (d *VariableDeclaration) Gen(e *Emitter) error {
	if e.declared[d.Name] {
		return nil
	}
	e.declared[d.Name] = true
	e.dataWord(globalLabel(d.Name))
	return nil
}

func (p *ProcedureDeclaration) Gen(e *Emitter) error {
	e.SetProcedureContext(p)
	e.label(procLabel(p.Name))

	frame := len(p.Locals) * wordSize
	if frame > 0 {
		e.inst("locals", "subu $sp, $sp, %d", frame)
		for i, local := range p.Locals {
			e.inst(local+" := 0", "sw $zero, %d($sp)", i*wordSize)
		}
	}
	if err := p.Body.Gen(e); err != nil {
		return err
	}
	if frame > 0 {
		e.inst("", "addu $sp, $sp, %d", frame)
	}
	e.inst("return", "jr $ra")
	return e.ClearProcedureContext()
}
