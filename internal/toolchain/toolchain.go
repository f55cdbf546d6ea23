// Package toolchain drives an external C compiler over the source the
// transpile package emits, grounded on the reference compiler's own
// general_c_compiler/base.py (the AbstractCompiler contract) and
// gcc.py (the cc/gcc driver that shells out via a subprocess). Go's
// os/exec plays the role Python's subprocess module does there.
package toolchain

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/google/uuid"
)

// CompilationError wraps a failed compiler invocation: the command
// line run and the compiler's own stderr, so callers can surface both
// to the user the way the CLI's "c" mode does on exit code 2.
type CompilationError struct {
	Command []string
	Stderr  string
}

func (e *CompilationError) Error() string {
	return fmt.Sprintf("toolchain: %v failed: %s", e.Command, e.Stderr)
}

// AbstractCompiler is the interface every concrete C toolchain driver
// implements: given a translation unit's source text, produce a path
// to a built, runnable executable.
type AbstractCompiler interface {
	// Compile writes source to a temporary .c file and invokes the
	// compiler, returning the path to the resulting executable.
	Compile(source string) (binaryPath string, err error)
}

// CCompiler drives a cc-compatible compiler binary (cc, gcc, clang) as
// a subprocess, the way gcc.py's GCCCompiler does.
type CCompiler struct {
	// Command is the compiler executable to invoke, e.g. "cc" or
	// "gcc". Defaults to "cc" if empty.
	Command string
	// ExtraArgs are appended after the standard -O0 -o <out> <in>
	// invocation, for flags like "-lm".
	ExtraArgs []string
	// Dir is the directory temporary sources and binaries are written
	// to. Defaults to os.TempDir() if empty.
	Dir string
}

// NewCCompiler returns a CCompiler using cmd (or "cc" if empty).
func NewCCompiler(cmd string) *CCompiler {
	if cmd == "" {
		cmd = "cc"
	}
	return &CCompiler{Command: cmd}
}

// Compile writes source to a uuid-named temporary file (avoiding
// collisions between concurrent invocations, the role
// general_c_compiler/base.py's own tempfile naming plays) and invokes
// the configured compiler on it.
func (c *CCompiler) Compile(source string) (string, error) {
	dir := c.Dir
	if dir == "" {
		dir = os.TempDir()
	}
	id := uuid.NewString()
	srcPath := filepath.Join(dir, "f_"+id+".c")
	binPath := filepath.Join(dir, "f_"+id)

	if err := os.WriteFile(srcPath, []byte(source), 0o644); err != nil {
		return "", fmt.Errorf("toolchain: writing translation unit: %w", err)
	}

	command := c.Command
	if command == "" {
		command = "cc"
	}
	args := append([]string{"-O0", "-o", binPath, srcPath}, c.ExtraArgs...)
	cmd := exec.Command(command, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", &CompilationError{
			Command: append([]string{command}, args...),
			Stderr:  string(out),
		}
	}
	return binPath, nil
}

// GCC is a convenience constructor for a CCompiler driving gcc
// specifically, mirroring the reference driver's dedicated GCCCompiler
// class alongside its generic base.
func GCC() *CCompiler {
	return NewCCompiler("gcc")
}

// Run executes the compiled binary at binaryPath with args as its
// argv, streaming its stdout/stderr through to the current process's,
// and returns its exit code.
func Run(binaryPath string, args []string) (int, error) {
	cmd := exec.Command(binaryPath, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin
	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return exitErr.ExitCode(), nil
		}
		return -1, err
	}
	return 0, nil
}
