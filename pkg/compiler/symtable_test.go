package compiler

import "testing"

func TestFrameOffset(t *testing.T) {
	proc := &ProcedureDeclaration{
		Name:   "f",
		Params: []string{"a", "b", "c"},
		Locals: []string{"t", "u"},
	}

	tests := []struct {
		name   string
		excess int
		want   int
	}{
		{"t", 0, 0},
		{"u", 0, 4},
		{"f", 0, 8},
		{"c", 0, 12},
		{"b", 0, 16},
		{"a", 0, 20},
		{"t", 8, 8},
		{"a", 12, 32},
		{"g", 0, NotLocal},
		{"g", 8, NotLocal},
	}
	for _, tc := range tests {
		if got := frameOffset(proc, tc.name, tc.excess); got != tc.want {
			t.Errorf("frameOffset(%s, excess=%d) = %d; want %d", tc.name, tc.excess, got, tc.want)
		}
	}

	if got := frameOffset(nil, "x", 0); got != NotLocal {
		t.Errorf("frameOffset outside a procedure = %d; want NotLocal", got)
	}
}

func TestFrameOffsetNoParams(t *testing.T) {
	proc := &ProcedureDeclaration{Name: "p"}
	if got := frameOffset(proc, "p", 0); got != 0 {
		t.Errorf("return slot: expected 0, got %d", got)
	}
	if got := frameOffset(proc, "q", 0); got != NotLocal {
		t.Errorf("unknown name: expected NotLocal, got %d", got)
	}
}

func TestEmitterLookup(t *testing.T) {
	proc := &ProcedureDeclaration{Name: "f", Params: []string{"a"}}
	e := NewEmitter(Options{})
	e.SetProcedureContext(proc)

	sym := e.Lookup("a")
	if sym.Scope != ScopeLocal || sym.Offset != 4 {
		t.Errorf("a: expected local at 4, got %+v", sym)
	}
	if !e.IsLocal("f") {
		t.Errorf("expected the return slot to be local")
	}

	sym = e.Lookup("g")
	if sym.Scope != ScopeGlobal || sym.Label != "varg" || sym.Offset != NotLocal {
		t.Errorf("g: expected global varg, got %+v", sym)
	}

	e.Push("$v0")
	if off := e.Offset("a"); off != 8 {
		t.Errorf("a after push: expected 8, got %d", off)
	}
	e.Pop("$t0")
	if err := e.ClearProcedureContext(); err != nil {
		t.Errorf("ClearProcedureContext: %v", err)
	}
	if e.IsLocal("a") {
		t.Errorf("a must not resolve locally outside the procedure")
	}

	if got := e.implicitGlobals(); len(got) != 1 || got[0] != "g" {
		t.Errorf("implicitGlobals = %v; want [g]", got)
	}
}
