package scope_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fvm-lang/f/internal/ast"
	"github.com/fvm-lang/f/internal/parser"
	"github.com/fvm-lang/f/internal/scope"
)

func TestOuterCaptureOfEnclosingLocal(t *testing.T) {
	scope.RegisterBuiltins([]string{"+", "null", "true", "false"})
	mod, err := parser.Parse(`make := [|n| [|x| x + n]]`)
	require.NoError(t, err)

	root := scope.New(mod)
	assign := mod.Statements[0].(*ast.Assignment)
	outer := assign.Value.(*ast.CodeBlock)
	inner := outer.Return.(*ast.CodeBlock)

	innerScope, err := scope.Lookup(root, inner)
	require.NoError(t, err)
	require.Contains(t, innerScope.Outer, "n")
	require.NotContains(t, innerScope.Outer, "x")
}

func TestLocalParameterIsNotOuter(t *testing.T) {
	scope.RegisterBuiltins([]string{"+"})
	mod, err := parser.Parse(`f := [|a b| a + b]`)
	require.NoError(t, err)
	root := scope.New(mod)
	assign := mod.Statements[0].(*ast.Assignment)
	cb := assign.Value.(*ast.CodeBlock)
	s, err := scope.Lookup(root, cb)
	require.NoError(t, err)
	require.Empty(t, s.Outer)
}

func TestBuiltinNameIsNotOuterCapture(t *testing.T) {
	scope.RegisterBuiltins([]string{"print", "null", "true", "false"})
	mod, err := parser.Parse(`f := [|x| print x]`)
	require.NoError(t, err)
	root := scope.New(mod)
	assign := mod.Statements[0].(*ast.Assignment)
	cb := assign.Value.(*ast.CodeBlock)
	s, err := scope.Lookup(root, cb)
	require.NoError(t, err)
	require.NotContains(t, s.Outer, "print")
}

func TestResolveClassifiesRegisteredNameAsBuiltin(t *testing.T) {
	scope.RegisterBuiltins([]string{"print"})
	root := scope.New(&ast.Module{})
	root.Resolve("print")
	ref := root.Resolve("print")
	require.Equal(t, scope.Builtin, ref.Kind)
}
