package compiler

type ScopeType int

const (
	ScopeGlobal ScopeType = iota
	ScopeLocal
)

// NotLocal is the offset reported for a name that has no slot in the
// current procedure's frame.
const NotLocal = -1

const wordSize = 4

// Symbol is the resolved storage location of a variable during code
// generation.
type Symbol struct {
	Offset int    // byte offset from $sp for locals; NotLocal for globals
	Label  string // data label for globals
	Scope  ScopeType
}

// frameOffset computes the $sp-relative offset of name inside proc's frame.
//
// At procedure entry the frame looks like this, from $sp upwards:
//
//	locals[0] .. locals[n-1]   reserved by the callee prologue
//	return slot                named like the procedure, pushed by the caller
//	params[m-1] .. params[0]   pushed by the caller left to right
//	saved $ra                  pushed by the caller first
//
// excess is the number of bytes pushed since entry by expression evaluation
// still in flight.
func frameOffset(proc *ProcedureDeclaration, name string, excess int) int {
	if proc == nil {
		return NotLocal
	}
	offset := excess
	for _, local := range proc.Locals {
		if local == name {
			return offset
		}
		offset += wordSize
	}
	if name == proc.Name {
		return offset
	}
	offset += wordSize
	for i := len(proc.Params) - 1; i >= 0; i-- {
		if proc.Params[i] == name {
			return offset
		}
		offset += wordSize
	}
	return NotLocal
}

// globalLabel is the data label backing a global variable.
func globalLabel(name string) string { return "var" + name }

// procLabel is the entry label of a procedure.
func procLabel(name string) string { return "proc" + name }
