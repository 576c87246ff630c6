//go:build !js

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/peterh/liner"
	"golang.org/x/sync/errgroup"

	"pascalc/pkg/compiler"
	"pascalc/pkg/utils"
)

const appName = "pascalc"

// version is overridden at link time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cmd := os.Args[1]
	switch cmd {
	case "run":
		os.Exit(cmdRun(os.Args[2:]))
	case "compile":
		os.Exit(cmdCompile(os.Args[2:]))
	case "build":
		os.Exit(cmdBuild(os.Args[2:]))
	case "repl":
		os.Exit(cmdRepl(os.Args[2:]))
	case "version":
		fmt.Println(appName, version)
	case "-h", "--help", "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "%s: unknown command %q\n", appName, cmd)
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Printf(`Usage:
  %s run [-v] <file.pas>                          Interpret a program.
  %s compile [-v] [-o out.asm] [-comments] <file.pas>  Generate MIPS assembly.
  %s build [-j N] [-outdir dir] <file.pas>...     Compile several programs concurrently.
  %s repl                                         Start the interactive interpreter.
  %s version                                      Print the version.

`, appName, appName, appName, appName, appName)
}

// stage runs fn and, when verbose, reports how long it took.
func stage(verbose bool, name string, fn func() error) error {
	start := time.Now()
	err := fn()
	if verbose {
		fmt.Fprintf(os.Stderr, "%s: %-8s %v\n", appName, name, time.Since(start))
	}
	return err
}

// -----------------------------------------------------------------------------
// run
// -----------------------------------------------------------------------------

func cmdRun(args []string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	verbose := fs.Bool("v", false, "print stage timings to stderr")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s run [-v] <file.pas>\n", appName)
		return 2
	}
	return runFile(fs.Arg(0), os.Stdout, *verbose)
}

func runFile(path string, out io.Writer, verbose bool) int {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: cannot read %s: %v\n", appName, path, err)
		return 1
	}

	var prog *compiler.Program
	err = stage(verbose, "parse", func() (err error) {
		prog, err = compiler.ParseSource(string(src))
		return err
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: parse error: %v\n", path, err)
		return 1
	}

	err = stage(verbose, "run", func() error {
		return prog.Run(compiler.NewEnvironment(out))
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: runtime error: %v\n", path, err)
		return 1
	}
	return 0
}

// -----------------------------------------------------------------------------
// compile
// -----------------------------------------------------------------------------

func cmdCompile(args []string) int {
	fs := flag.NewFlagSet("compile", flag.ContinueOnError)
	verbose := fs.Bool("v", false, "print stage timings to stderr")
	outPath := fs.String("o", "", "output assembly file path (default: input with .asm extension)")
	comments := fs.Bool("comments", compiler.DefaultOptions().Comments, "annotate generated instructions")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s compile [-v] [-o out.asm] [-comments] <file.pas>\n", appName)
		return 2
	}

	inPath := fs.Arg(0)
	output := *outPath
	if output == "" {
		var err error
		if output, err = utils.OutputPath(inPath, "", ".asm"); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
			return 1
		}
	}

	n, err := compileFile(inPath, output, compiler.Options{Comments: *comments}, *verbose)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("compiled %d bytes -> %s\n", n, output)
	return 0
}

// compileFile compiles inPath into outPath and returns the number of bytes
// written.
func compileFile(inPath, outPath string, opts compiler.Options, verbose bool) (int, error) {
	src, err := os.ReadFile(inPath)
	if err != nil {
		return 0, fmt.Errorf("failed to read input file %q: %w", inPath, err)
	}

	var prog *compiler.Program
	err = stage(verbose, "parse", func() (err error) {
		prog, err = compiler.ParseSource(string(src))
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("%s: parse error: %w", inPath, err)
	}

	var assembly string
	err = stage(verbose, "codegen", func() (err error) {
		assembly, err = compiler.Generate(prog, opts)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("%s: compilation failed: %w", inPath, err)
	}

	if err := os.WriteFile(outPath, []byte(assembly), 0o644); err != nil {
		return 0, fmt.Errorf("failed to write assembly file %q: %w", outPath, err)
	}
	return len(assembly), nil
}

// -----------------------------------------------------------------------------
// build
// -----------------------------------------------------------------------------

func cmdBuild(args []string) int {
	fs := flag.NewFlagSet("build", flag.ContinueOnError)
	jobs := fs.Int("j", 4, "number of files compiled in parallel")
	outDir := fs.String("outdir", "", "directory for generated files (default: next to each source)")
	comments := fs.Bool("comments", compiler.DefaultOptions().Comments, "annotate generated instructions")
	verbose := fs.Bool("v", false, "print stage timings to stderr")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 || *jobs < 1 {
		fmt.Fprintf(os.Stderr, "usage: %s build [-j N] [-outdir dir] <file.pas>...\n", appName)
		return 2
	}

	if *outDir != "" {
		if err := os.MkdirAll(*outDir, 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
			return 1
		}
	}

	failed := buildAll(context.Background(), fs.Args(), *outDir, compiler.Options{Comments: *comments}, *jobs, *verbose)
	if failed > 0 {
		fmt.Fprintf(os.Stderr, "%s: %d of %d files failed\n", appName, failed, fs.NArg())
		return 1
	}
	return 0
}

// buildAll compiles every file with at most jobs in flight. A file that
// fails to compile does not stop the others; cancelling ctx skips every file
// not yet started. The number of failed or skipped files is returned.
func buildAll(ctx context.Context, files []string, outDir string, opts compiler.Options, jobs int, verbose bool) int {
	errs := make([]error, len(files))
	outputs := make([]string, len(files))

	var g errgroup.Group
	g.SetLimit(jobs)
	for i, file := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return err
			}
			out, err := utils.OutputPath(file, outDir, ".asm")
			if err != nil {
				errs[i] = err
				return nil
			}
			outputs[i] = out
			_, errs[i] = compileFile(file, out, opts, verbose)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: build interrupted: %v\n", appName, err)
	}

	failed := 0
	for i, err := range errs {
		if err != nil {
			failed++
			fmt.Fprintln(os.Stderr, err)
			continue
		}
		fmt.Printf("%s -> %s\n", files[i], outputs[i])
	}
	return failed
}

// -----------------------------------------------------------------------------
// repl
// -----------------------------------------------------------------------------

const (
	promptMain  = "pas> "
	promptCont  = "...> "
	historyFile = ".pascalc_history"
)

func cmdRepl(_ []string) int {
	fmt.Printf("%s %s. Enter declarations or statements; :env shows bindings, :quit exits.\n", appName, version)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if histPath, ok := historyPath(); ok {
		if f, err := os.Open(histPath); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
		defer func() {
			if f, err := os.Create(histPath); err == nil {
				_, _ = ln.WriteHistory(f)
				_ = f.Close()
			}
		}()
	}

	env := compiler.NewEnvironment(os.Stdout)
	for {
		src, ok := readProgram(ln)
		if !ok {
			fmt.Println()
			return 0
		}

		switch cmd := strings.TrimSpace(src); {
		case cmd == "":
			continue
		case strings.HasPrefix(cmd, ":"):
			switch cmd {
			case ":quit", ":q":
				return 0
			case ":env":
				fmt.Print(env.String())
			default:
				fmt.Println("unknown command. Type :env or :quit.")
			}
			continue
		}

		ln.AppendHistory(strings.ReplaceAll(src, "\n", " "))
		if err := evalInto(env, src); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}
}

// historyPath returns where REPL history is kept. Without a home directory
// history is not persisted.
func historyPath() (string, bool) {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "", false
	}
	return filepath.Join(home, historyFile), true
}

// evalInto parses src as a program and runs it in env, so globals and
// procedures persist between entries.
func evalInto(env *compiler.Environment, src string) error {
	prog, err := compiler.ParseSource(src)
	if err != nil {
		return err
	}
	return prog.Run(env)
}

// readProgram reads lines until they parse, or until the parse fails
// somewhere other than at the end of the input.
func readProgram(ln *liner.State) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			return "", true
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if strings.HasPrefix(strings.TrimSpace(src), ":") || !incomplete(src) {
			return src, true
		}
	}
}

// incomplete reports whether src fails to parse only because input ran out.
func incomplete(src string) bool {
	if strings.TrimSpace(src) == "" || strings.HasSuffix(strings.TrimSpace(src), ".") {
		return false
	}
	_, err := compiler.ParseSource(src)
	var synErr *compiler.SyntaxError
	return errors.As(err, &synErr) && synErr.Found == "."
}
