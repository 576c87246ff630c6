package compiler

import (
	"fmt"
	"sort"
	"strings"
)

// Options controls the shape of generated code.
type Options struct {
	// Comments appends a short "# ..." explanation to generated instructions.
	Comments bool
}

// DefaultOptions returns the options used by the CLI when no flags are given.
func DefaultOptions() Options {
	return Options{Comments: true}
}

// Emitter is the code-generation context for one compilation pass: the
// output buffer, the label counter, the procedure being generated and the
// number of bytes currently pushed by in-flight expressions.
type Emitter struct {
	out               strings.Builder
	opts              Options
	nextLabelID       int
	proc              *ProcedureDeclaration
	excessStackHeight int

	procs    map[string]*ProcedureDeclaration
	declared map[string]bool // global VAR declarations already emitted
	globals  map[string]bool // every name resolved to global storage
}

// NewEmitter returns an empty context.
func NewEmitter(opts Options) *Emitter {
	return &Emitter{
		opts:     opts,
		procs:    make(map[string]*ProcedureDeclaration),
		declared: make(map[string]bool),
		globals:  make(map[string]bool),
	}
}

// String returns everything emitted so far.
func (e *Emitter) String() string { return e.out.String() }

// Emit writes one line. Lines that are neither labels nor comments are
// indented by one tab.
func (e *Emitter) Emit(code string) {
	if !strings.HasSuffix(code, ":") && !strings.HasPrefix(code, "#") {
		code = "\t" + code
	}
	e.out.WriteString(code)
	e.out.WriteByte('\n')
}

// inst emits an instruction, followed by note as a trailing comment when
// comments are enabled.
func (e *Emitter) inst(note string, format string, args ...any) {
	code := fmt.Sprintf(format, args...)
	if e.opts.Comments && note != "" {
		code += "\t# " + note
	}
	e.Emit(code)
}

func (e *Emitter) label(name string) {
	e.Emit(name + ":")
}

// dataWord emits a labelled, zero-initialised word. Like every label line it
// starts in column 0.
func (e *Emitter) dataWord(name string) {
	e.out.WriteString(name + ": .word 0\n")
}

func (e *Emitter) comment(format string, args ...any) {
	if e.opts.Comments {
		e.Emit("# " + fmt.Sprintf(format, args...))
	}
}

// NextLabelID returns a label number never handed out before in this pass.
func (e *Emitter) NextLabelID() int {
	e.nextLabelID++
	return e.nextLabelID
}

// Push pushes reg onto the stack.
func (e *Emitter) Push(reg string) {
	e.inst("", "subu $sp, $sp, %d", wordSize)
	e.inst("push "+reg, "sw %s, ($sp)", reg)
	e.excessStackHeight += wordSize
}

// Pop pops the top of the stack into reg.
func (e *Emitter) Pop(reg string) {
	e.inst("pop "+reg, "lw %s, ($sp)", reg)
	e.inst("", "addu $sp, $sp, %d", wordSize)
	e.excessStackHeight -= wordSize
}

// Discard drops n words from the top of the stack.
func (e *Emitter) Discard(n int) {
	if n == 0 {
		return
	}
	e.inst(fmt.Sprintf("discard %d word(s)", n), "addu $sp, $sp, %d", n*wordSize)
	e.excessStackHeight -= n * wordSize
}

// SetProcedureContext makes proc the frame used to resolve names and resets
// the excess stack height.
func (e *Emitter) SetProcedureContext(proc *ProcedureDeclaration) {
	e.proc = proc
	e.excessStackHeight = 0
}

// ClearProcedureContext returns to global scope. Every push made while
// generating the procedure must have been popped.
func (e *Emitter) ClearProcedureContext() error {
	name := ""
	if e.proc != nil {
		name = e.proc.Name
	}
	e.proc = nil
	if e.excessStackHeight != 0 {
		return fmt.Errorf("%w: %d bytes left on stack after %s", ErrStackImbalance, e.excessStackHeight, name)
	}
	return nil
}

// IsLocal reports whether name has a slot in the current procedure's frame.
func (e *Emitter) IsLocal(name string) bool {
	return e.Offset(name) != NotLocal
}

// Offset returns the current $sp-relative offset of name, or NotLocal.
func (e *Emitter) Offset(name string) int {
	return frameOffset(e.proc, name, e.excessStackHeight)
}

// Lookup resolves name to a frame slot or to global storage. Global names
// are remembered so the data section can reserve them.
func (e *Emitter) Lookup(name string) Symbol {
	if off := e.Offset(name); off != NotLocal {
		return Symbol{Offset: off, Scope: ScopeLocal}
	}
	e.globals[name] = true
	return Symbol{Offset: NotLocal, Label: globalLabel(name), Scope: ScopeGlobal}
}

// implicitGlobals returns, sorted, the global names referenced by generated
// code that no VAR declaration has reserved.
func (e *Emitter) implicitGlobals() []string {
	var names []string
	for name := range e.globals {
		if !e.declared[name] {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
