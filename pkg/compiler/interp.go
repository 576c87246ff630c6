package compiler

import "fmt"

// Run interprets the whole program in env: global declarations, procedure
// registration, then the main statement.
func (p *Program) Run(env *Environment) error {
	for _, v := range p.Vars {
		if err := v.Exec(env); err != nil {
			return err
		}
	}
	for _, proc := range p.Procs {
		if err := proc.Exec(env); err != nil {
			return err
		}
	}
	return p.Body.Exec(env)
}

//  Expressions

func (n *Number) Eval(*Environment) (int32, error) { return n.Value, nil }

func (v *Variable) Eval(env *Environment) (int32, error) {
	return env.GetVariable(v.Name)
}

// Eval applies the operator with int32 wraparound. Division truncates toward
// zero and the remainder takes the sign of the dividend.
func (b *BinaryOp) Eval(env *Environment) (int32, error) {
	l, err := b.Left.Eval(env)
	if err != nil {
		return 0, err
	}
	r, err := b.Right.Eval(env)
	if err != nil {
		return 0, err
	}
	switch b.Op {
	case PLUS:
		return l + r, nil
	case MINUS:
		return l - r, nil
	case STAR:
		return l * r, nil
	case SLASH:
		if r == 0 {
			return 0, fmt.Errorf("%w: %s", ErrDivisionByZero, b)
		}
		return l / r, nil
	case MOD:
		if r == 0 {
			return 0, fmt.Errorf("%w: %s", ErrDivisionByZero, b)
		}
		return l % r, nil
	}
	return 0, fmt.Errorf("interp: unknown binary operator %s", b.Op)
}

// Eval binds the arguments by value in a fresh activation scope, runs the
// body and returns the final value of the procedure's return variable.
func (c *ProcedureCall) Eval(env *Environment) (int32, error) {
	proc, err := env.GetProcedure(c.Name)
	if err != nil {
		return 0, err
	}
	if len(c.Args) != len(proc.Params) {
		return 0, fmt.Errorf("%w: %s takes %d, got %d", ErrArgumentCount, c.Name, len(proc.Params), len(c.Args))
	}

	// Arguments are evaluated in the caller's scope.
	vals := make([]int32, len(c.Args))
	for i, arg := range c.Args {
		if vals[i], err = arg.Eval(env); err != nil {
			return 0, err
		}
	}

	env.push()
	defer env.pop()

	for i, param := range proc.Params {
		env.Declare(param, vals[i])
	}
	for _, local := range proc.Locals {
		env.Declare(local, 0)
	}
	env.Declare(proc.Name, 0)

	if err := proc.Body.Exec(env); err != nil {
		return 0, err
	}
	return env.GetVariable(proc.Name)
}

// Eval evaluates each operand exactly once, left then right.
func (c *Condition) Eval(env *Environment) (bool, error) {
	l, err := c.Left.Eval(env)
	if err != nil {
		return false, err
	}
	r, err := c.Right.Eval(env)
	if err != nil {
		return false, err
	}
	switch c.Op {
	case EQUALS:
		return l == r, nil
	case NOT_EQ:
		return l != r, nil
	case LESS:
		return l < r, nil
	case GREATER:
		return l > r, nil
	case LESS_EQ:
		return l <= r, nil
	case GREATER_EQ:
		return l >= r, nil
	}
	return false, fmt.Errorf("interp: unknown relational operator %s", c.Op)
}

//  Statements

func (b *Block) Exec(env *Environment) error {
	for _, s := range b.Stmts {
		if err := s.Exec(env); err != nil {
			return err
		}
	}
	return nil
}

func (a *Assignment) Exec(env *Environment) error {
	v, err := a.Value.Eval(env)
	if err != nil {
		return err
	}
	env.SetVariable(a.Name, v)
	return nil
}

func (i *If) Exec(env *Environment) error {
	ok, err := i.Cond.Eval(env)
	if err != nil || !ok {
		return err
	}
	return i.Body.Exec(env)
}

func (w *While) Exec(env *Environment) error {
	for {
		ok, err := w.Cond.Eval(env)
		if err != nil || !ok {
			return err
		}
		if err := w.Body.Exec(env); err != nil {
			return err
		}
	}
}

func (w *WriteLine) Exec(env *Environment) error {
	v, err := w.Expr.Eval(env)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(env.out, v)
	return err
}

func (d *VariableDeclaration) Exec(env *Environment) error {
	env.Declare(d.Name, 0)
	return nil
}

func (p *ProcedureDeclaration) Exec(env *Environment) error {
	env.SetProcedure(p.Name, p)
	return nil
}
