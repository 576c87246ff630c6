package compiler

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

const globalFrame = 0

// frame is one scope in the chain. parent is an index into Environment.frames,
// or -1 for the global frame. caller is the frame to resume when this one is
// popped.
type frame struct {
	vars   map[string]int32
	parent int
	caller int
}

// Environment is the scope chain used by interpretation. Frames live in a
// stack; a procedure activation pushes one frame whose parent is the global
// frame and pops it on return. Procedures are registered in the global frame
// only.
type Environment struct {
	frames []frame
	cur    int
	procs  map[string]*ProcedureDeclaration
	out    io.Writer
}

// NewEnvironment returns a global environment whose WRITELN output goes to
// out. A nil out means os.Stdout.
func NewEnvironment(out io.Writer) *Environment {
	if out == nil {
		out = os.Stdout
	}
	return &Environment{
		frames: []frame{{vars: make(map[string]int32), parent: -1, caller: -1}},
		cur:    globalFrame,
		procs:  make(map[string]*ProcedureDeclaration),
		out:    out,
	}
}

// Depth returns the number of active procedure activations.
func (env *Environment) Depth() int {
	return len(env.frames) - 1
}

// Declare binds name in the current scope only, overwriting any binding
// already there.
func (env *Environment) Declare(name string, value int32) {
	env.frames[env.cur].vars[name] = value
}

// SetVariable overwrites the nearest existing binding of name. If no scope in
// the chain binds it, the binding is created in the global scope.
func (env *Environment) SetVariable(name string, value int32) {
	for i := env.cur; i >= 0; i = env.frames[i].parent {
		if _, ok := env.frames[i].vars[name]; ok {
			env.frames[i].vars[name] = value
			return
		}
	}
	env.frames[globalFrame].vars[name] = value
}

// GetVariable returns the nearest binding of name.
func (env *Environment) GetVariable(name string) (int32, error) {
	for i := env.cur; i >= 0; i = env.frames[i].parent {
		if v, ok := env.frames[i].vars[name]; ok {
			return v, nil
		}
	}
	return 0, fmt.Errorf("%w: variable %q", ErrUnresolvedName, name)
}

// SetProcedure registers proc in the global scope regardless of the current
// depth.
func (env *Environment) SetProcedure(name string, proc *ProcedureDeclaration) {
	env.procs[name] = proc
}

// GetProcedure looks name up in the global scope.
func (env *Environment) GetProcedure(name string) (*ProcedureDeclaration, error) {
	proc, ok := env.procs[name]
	if !ok {
		return nil, fmt.Errorf("%w: procedure %q", ErrUnresolvedName, name)
	}
	return proc, nil
}

// push starts a new activation scope chained to the global scope.
func (env *Environment) push() {
	env.frames = append(env.frames, frame{
		vars:   make(map[string]int32),
		parent: globalFrame,
		caller: env.cur,
	})
	env.cur = len(env.frames) - 1
}

// pop discards the innermost activation and resumes its caller's scope.
func (env *Environment) pop() {
	top := len(env.frames) - 1
	if top == globalFrame {
		panic("pop of global scope")
	}
	env.cur = env.frames[top].caller
	env.frames[top] = frame{}
	env.frames = env.frames[:top]
}

// String returns a deterministically ordered dump of every active scope.
func (env *Environment) String() string {
	var sb strings.Builder
	for i, f := range env.frames {
		if i == globalFrame {
			sb.WriteString("Globals:\n")
		} else {
			fmt.Fprintf(&sb, "Frame %d:\n", i)
		}
		names := make([]string, 0, len(f.vars))
		for name := range f.vars {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(&sb, "  %s = %d\n", name, f.vars[name])
		}
	}
	if len(env.procs) > 0 {
		sb.WriteString("Procedures:\n")
		names := make([]string, 0, len(env.procs))
		for name := range env.procs {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(&sb, "  %s(%s)\n", name, strings.Join(env.procs[name].Params, ", "))
		}
	}
	return sb.String()
}
