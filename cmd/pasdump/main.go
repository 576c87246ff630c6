package main

import (
	"bytes"
	"fmt"
	"os"

	"pascalc/pkg/compiler"
)

const testSource = `VAR x, y;
BEGIN
  x := 10;
  y := 20;
  WRITELN(x + y);
END.
`

func main() {
	src := testSource
	if len(os.Args) > 1 {
		data, err := os.ReadFile(os.Args[1])
		if err != nil {
			fmt.Fprintln(os.Stderr, "read error:", err)
			os.Exit(1)
		}
		src = string(data)
	}

	fmt.Printf("Source:\n%s\n", src)

	// Lex
	tokens, err := compiler.Lex(src)
	if err != nil {
		fmt.Fprintln(os.Stderr, "lex error:", err)
		os.Exit(1)
	}

	fmt.Printf("Tokens (%d)\n", len(tokens))
	for _, tok := range tokens {
		fmt.Println(" ", tok)
	}
	fmt.Println()

	// Parse
	prog, err := compiler.Parse(tokens, src)
	if err != nil {
		fmt.Fprintln(os.Stderr, "parse error:", err)
		os.Exit(1)
	}

	fmt.Println("AST")
	for _, v := range prog.Vars {
		fmt.Println(" ", v)
	}
	for _, p := range prog.Procs {
		fmt.Println(" ", p)
	}
	fmt.Println(" ", prog.Body)
	fmt.Println()

	// code Generation
	asm, err := compiler.Generate(prog, compiler.DefaultOptions())
	if err != nil {
		fmt.Fprintln(os.Stderr, "codegen error:", err)
		os.Exit(1)
	}

	fmt.Println("Generated Assembly")
	fmt.Print(asm)
	fmt.Println()

	// Interpret
	var out bytes.Buffer
	env := compiler.NewEnvironment(&out)
	if err := prog.Run(env); err != nil {
		fmt.Fprintln(os.Stderr, "run error:", err)
		os.Exit(1)
	}

	fmt.Println("Output")
	fmt.Print(out.String())
	fmt.Println()
	fmt.Print(env)
}
