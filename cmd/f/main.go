// Command f is the language's front door: parse a program (from a file
// argument or, interactively, from a readline-backed REPL) and run it
// through one of the three execution modes SPEC_FULL.md §6.1 names.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/chzyer/readline"
	"github.com/mattn/go-isatty"

	"github.com/fvm-lang/f/internal/assets"
	"github.com/fvm-lang/f/internal/ast"
	"github.com/fvm-lang/f/internal/closurevm"
	"github.com/fvm-lang/f/internal/interp"
	"github.com/fvm-lang/f/internal/object"
	"github.com/fvm-lang/f/internal/parser"
	"github.com/fvm-lang/f/internal/scope"
	"github.com/fvm-lang/f/internal/toolchain"
	"github.com/fvm-lang/f/internal/transpile"
)

// exit codes, per SPEC_FULL.md §6.1: 0 success, 1 a program-level
// error (parse failure, unhandled runtime error), 2 a toolchain
// failure specific to "c" mode (the generated C failed to compile).
const (
	exitOK           = 0
	exitProgramErr   = 1
	exitToolchainErr = 2
)

func main() {
	mode := "i"
	var path string
	var progArgs []string

	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--mode":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "f: --mode requires an argument (a, i, or c)")
				os.Exit(exitProgramErr)
			}
			mode = args[i+1]
			i++
		default:
			if path == "" {
				path = args[i]
			} else {
				progArgs = append(progArgs, args[i])
			}
		}
	}

	if path == "" {
		runRepl(mode)
		return
	}

	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "f: %v\n", err)
		os.Exit(exitProgramErr)
	}

	os.Exit(runProgram(mode, string(src), progArgs))
}

// runProgram evaluates the stdlib prelude with the interpreter, then
// runs src under the requested mode, binding progArgs to the top-level
// "..." name, and returns the process exit code. In "c" mode only src
// is compiled; the prelude's definitions are not part of the emitted C
// program.
func runProgram(mode, src string, progArgs []string) int {
	preludeModule, err := parser.Parse(assets.Stdlib)
	if err != nil {
		fmt.Fprintf(os.Stderr, "f: internal error parsing prelude: %v\n", err)
		return exitProgramErr
	}
	module, err := parser.Parse(src)
	if err != nil {
		fmt.Fprintf(os.Stderr, "f: %v\n", err)
		return exitProgramErr
	}

	i := interp.New()
	frame := i.NewGlobalFrame()

	argv := make([]object.Value, len(progArgs))
	for idx, a := range progArgs {
		argv[idx] = object.String(a)
	}
	if err := frame.Set("...", &object.List{Elements: argv}); err != nil {
		fmt.Fprintf(os.Stderr, "f: internal error binding argv: %v\n", err)
		return exitProgramErr
	}

	if _, err := i.Eval(preludeModule, frame); err != nil {
		fmt.Fprintf(os.Stderr, "f: internal error evaluating prelude: %v\n", err)
		return exitProgramErr
	}

	switch mode {
	case "i":
		if _, err := i.Eval(module, frame); err != nil {
			fmt.Fprintf(os.Stderr, "f: %v\n", err)
			return exitProgramErr
		}
		return exitOK

	case "a":
		compiler := closurevm.New(i)
		thunk, err := compiler.CompileModule(module)
		if err != nil {
			fmt.Fprintf(os.Stderr, "f: %v\n", err)
			return exitProgramErr
		}
		if _, err := thunk(frame); err != nil {
			fmt.Fprintf(os.Stderr, "f: %v\n", err)
			return exitProgramErr
		}
		return exitOK

	case "c":
		return runCompiled(module)

	default:
		fmt.Fprintf(os.Stderr, "f: unknown mode %q (want a, i, or c)\n", mode)
		return exitProgramErr
	}
}

// runCompiled lowers module to C via internal/scope + internal/transpile,
// builds it with internal/toolchain, and runs the resulting binary,
// mapping a compiler failure to exit code 2 (SPEC_FULL.md §6.1).
func runCompiled(module *ast.Module) int {
	reg := interp.New().Builtins
	builtinNames := make([]string, 0, len(reg))
	for name := range reg {
		builtinNames = append(builtinNames, name)
	}
	scope.RegisterBuiltins(builtinNames)
	scope.RegisterBuiltins([]string{"null", "true", "false"})

	root := scope.New(module)
	source, err := transpile.Emit(module, root, assets.CRuntime)
	if err != nil {
		fmt.Fprintf(os.Stderr, "f: %v\n", err)
		return exitProgramErr
	}

	compiler := toolchain.NewCCompiler("")
	binPath, err := compiler.Compile(source)
	if err != nil {
		fmt.Fprintf(os.Stderr, "f: %v\n", err)
		return exitToolchainErr
	}

	code, err := toolchain.Run(binPath, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "f: %v\n", err)
		return exitProgramErr
	}
	return code
}

// runRepl drives an interactive read-eval-print loop over a persistent
// Frame, using chzyer/readline for line editing when stdin is a real
// terminal (detected via mattn/go-isatty) and a plain bufio.Scanner
// otherwise, the way the teacher's own CLI front end distinguishes
// interactive from piped input.
func runRepl(mode string) {
	i := interp.New()
	frame := i.NewGlobalFrame()
	frame.Set("...", &object.List{})

	preludeModule, err := parser.Parse(assets.Stdlib)
	if err != nil {
		fmt.Fprintf(os.Stderr, "f: internal error parsing prelude: %v\n", err)
		os.Exit(exitProgramErr)
	}
	if _, err := i.Eval(preludeModule, frame); err != nil {
		fmt.Fprintf(os.Stderr, "f: internal error evaluating prelude: %v\n", err)
		os.Exit(exitProgramErr)
	}

	if isatty.IsTerminal(os.Stdin.Fd()) {
		runReplInteractive(i, frame)
		return
	}
	runReplPiped(i, frame)
}

func runReplInteractive(i *interp.Interp, frame *object.Frame) {
	rl, err := readline.New("f> ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "f: %v\n", err)
		os.Exit(exitProgramErr)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err == io.EOF || err == readline.ErrInterrupt {
			return
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "f: %v\n", err)
			return
		}
		evalReplLine(i, frame, line)
	}
}

func runReplPiped(i *interp.Interp, frame *object.Frame) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		evalReplLine(i, frame, scanner.Text())
	}
}

func evalReplLine(i *interp.Interp, frame *object.Frame, line string) {
	module, err := parser.Parse(line)
	if err != nil {
		fmt.Fprintf(os.Stderr, "f: %v\n", err)
		return
	}
	v, err := i.Eval(module, frame)
	if err != nil {
		fmt.Fprintf(os.Stderr, "f: %v\n", err)
		return
	}
	fmt.Println(v.Inspect())
}
