package compiler

import (
	"errors"
	"testing"

	"github.com/nalgeon/be"
)

func TestEnvironmentGlobals(t *testing.T) {
	env := NewEnvironment(nil)
	env.Declare("a", 1)
	env.SetVariable("a", 2)
	env.SetVariable("b", 3) // undeclared: created globally

	a, err := env.GetVariable("a")
	be.Err(t, err, nil)
	be.Equal(t, a, int32(2))

	b, err := env.GetVariable("b")
	be.Err(t, err, nil)
	be.Equal(t, b, int32(3))

	_, err = env.GetVariable("missing")
	be.True(t, errors.Is(err, ErrUnresolvedName))
}

func TestEnvironmentShadowing(t *testing.T) {
	env := NewEnvironment(nil)
	env.Declare("x", 10)

	env.push()
	be.Equal(t, env.Depth(), 1)
	env.Declare("x", 20)
	env.SetVariable("x", 21)
	env.SetVariable("fresh", 5)

	x, _ := env.GetVariable("x")
	be.Equal(t, x, int32(21))

	env.pop()
	be.Equal(t, env.Depth(), 0)

	x, _ = env.GetVariable("x")
	be.Equal(t, x, int32(10))

	// Writes to unbound names escape to the global frame.
	fresh, err := env.GetVariable("fresh")
	be.Err(t, err, nil)
	be.Equal(t, fresh, int32(5))
}

func TestEnvironmentActivationsAreLexical(t *testing.T) {
	env := NewEnvironment(nil)
	env.Declare("g", 1)

	env.push()
	env.Declare("local", 7)

	// A nested activation sees globals but not its caller's frame.
	env.push()
	be.Equal(t, env.Depth(), 2)
	_, err := env.GetVariable("local")
	be.True(t, errors.Is(err, ErrUnresolvedName))
	g, err := env.GetVariable("g")
	be.Err(t, err, nil)
	be.Equal(t, g, int32(1))
	env.pop()

	local, err := env.GetVariable("local")
	be.Err(t, err, nil)
	be.Equal(t, local, int32(7))
	env.pop()
}

func TestEnvironmentProceduresLiveAtRoot(t *testing.T) {
	env := NewEnvironment(nil)
	proc := &ProcedureDeclaration{Name: "p", Body: &Block{}}

	env.push()
	env.SetProcedure("p", proc)
	env.pop()

	got, err := env.GetProcedure("p")
	be.Err(t, err, nil)
	be.Equal(t, got, proc)

	_, err = env.GetProcedure("q")
	be.True(t, errors.Is(err, ErrUnresolvedName))
}

func TestEnvironmentPopGlobalPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("expected pop of the global frame to panic")
		}
	}()
	NewEnvironment(nil).pop()
}

func TestEnvironmentString(t *testing.T) {
	env := NewEnvironment(nil)
	env.Declare("b", 2)
	env.Declare("a", 1)
	env.push()
	env.Declare("x", 9)
	be.Equal(t, env.String(), "Globals:\n  a = 1\n  b = 2\nFrame 1:\n  x = 9\n")
}
