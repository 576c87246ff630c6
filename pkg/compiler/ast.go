package compiler

import (
	"fmt"
	"strings"
)

// opSymbols maps operator token types back to their source spelling.
var opSymbols = map[TokenType]string{
	PLUS:       "+",
	MINUS:      "-",
	STAR:       "*",
	SLASH:      "/",
	MOD:        "mod",
	EQUALS:     "=",
	NOT_EQ:     "<>",
	LESS:       "<",
	GREATER:    ">",
	LESS_EQ:    "<=",
	GREATER_EQ: ">=",
}

func opString(tt TokenType) string {
	if s, ok := opSymbols[tt]; ok {
		return s
	}
	return tt.String()
}

//  Expression nodes

// Expr is implemented by every node that produces a value.
// Eval interprets the node; Gen emits code that leaves the value in $v0.
type Expr interface {
	exprNode()
	String() string
	Eval(env *Environment) (int32, error)
	Gen(e *Emitter) error
}

// Number is an integer literal.
//
//	x := 42;
//	     ^^  Number{Value: 42}
type Number struct {
	Value int32
}

func (*Number) exprNode()        {}
func (n *Number) String() string { return fmt.Sprintf("%d", n.Value) }

// Variable is a read of a named variable.
type Variable struct {
	Name string
}

func (*Variable) exprNode()        {}
func (v *Variable) String() string { return v.Name }

// BinaryOp represents Left Op Right for the arithmetic operators
// PLUS, MINUS, STAR, SLASH and MOD.
//
//	a + 1
//	^ ^ ^
//	| | Right
//	| Op
//	Left
type BinaryOp struct {
	Op    TokenType
	Left  Expr
	Right Expr
}

func (*BinaryOp) exprNode() {}
func (b *BinaryOp) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left, opString(b.Op), b.Right)
}

// ProcedureCall represents name(args). Its value is the final value of the
// procedure's implicit return variable.
type ProcedureCall struct {
	Name string
	Args []Expr
}

func (*ProcedureCall) exprNode() {}
func (c *ProcedureCall) String() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", c.Name, strings.Join(args, ", "))
}

// Condition is a relational test guarding IF and WHILE. It is not an Expr:
// it evaluates to a boolean and generates a branch rather than a value.
type Condition struct {
	Op    TokenType // EQUALS, NOT_EQ, LESS, GREATER, LESS_EQ, GREATER_EQ
	Left  Expr
	Right Expr
}

func (c *Condition) String() string {
	return fmt.Sprintf("%s %s %s", c.Left, opString(c.Op), c.Right)
}

//  Statement nodes

// Stmt is implemented by every node that does not produce a value.
type Stmt interface {
	stmtNode()
	String() string
	Exec(env *Environment) error
	Gen(e *Emitter) error
}

// Block represents BEGIN stmt; ... END;
type Block struct {
	Stmts []Stmt
}

func (*Block) stmtNode() {}
func (b *Block) String() string {
	return fmt.Sprintf("Block(len=%d)", len(b.Stmts))
}

// Assignment represents Name := Value;
type Assignment struct {
	Name  string
	Value Expr
}

func (*Assignment) stmtNode() {}
func (a *Assignment) String() string {
	return fmt.Sprintf("Assignment(%s := %s)", a.Name, a.Value)
}

// If represents IF cond THEN body. There is no ELSE.
type If struct {
	Cond *Condition
	Body Stmt
}

func (*If) stmtNode() {}
func (i *If) String() string {
	return fmt.Sprintf("If(%s then %s)", i.Cond, i.Body)
}

// While represents WHILE cond DO body.
type While struct {
	Cond *Condition
	Body Stmt
}

func (*While) stmtNode() {}
func (w *While) String() string {
	return fmt.Sprintf("While(%s do %s)", w.Cond, w.Body)
}

// WriteLine represents WRITELN(expr);
type WriteLine struct {
	Expr Expr
}

func (*WriteLine) stmtNode() {}
func (w *WriteLine) String() string {
	return fmt.Sprintf("WriteLine(%s)", w.Expr)
}

// VariableDeclaration is one name from a global VAR list.
type VariableDeclaration struct {
	Name string
}

func (*VariableDeclaration) stmtNode() {}
func (d *VariableDeclaration) String() string {
	return fmt.Sprintf("VariableDeclaration(%s)", d.Name)
}

// ProcedureDeclaration represents
//
//	PROCEDURE name(params); VAR locals; body
//
// Inside body, name also denotes the procedure's return variable.
type ProcedureDeclaration struct {
	Name   string
	Params []string
	Locals []string
	Body   Stmt
}

func (*ProcedureDeclaration) stmtNode() {}
func (p *ProcedureDeclaration) String() string {
	return fmt.Sprintf("ProcedureDeclaration(%s, params=%v, locals=%v, body=%s)", p.Name, p.Params, p.Locals, p.Body)
}

// Program is the root of the tree: global variables, procedures and the
// main statement.
type Program struct {
	Vars  []*VariableDeclaration
	Procs []*ProcedureDeclaration
	Body  Stmt
}

func (p *Program) String() string {
	return fmt.Sprintf("Program(vars=%d, procs=%d, body=%s)", len(p.Vars), len(p.Procs), p.Body)
}
