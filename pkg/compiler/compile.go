package compiler

import (
	"fmt"
	"io"
)

// Interpret parses src and runs it in a fresh environment, writing WRITELN
// output to out.
func Interpret(src string, out io.Writer) error {
	prog, err := ParseSource(src)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	if err := prog.Run(NewEnvironment(out)); err != nil {
		return fmt.Errorf("run: %w", err)
	}
	return nil
}

// Compile parses src and returns the generated MIPS assembly.
func Compile(src string, opts Options) (string, error) {
	prog, err := ParseSource(src)
	if err != nil {
		return "", fmt.Errorf("parse: %w", err)
	}
	assembly, err := Generate(prog, opts)
	if err != nil {
		return "", fmt.Errorf("codegen: %w", err)
	}
	return assembly, nil
}
