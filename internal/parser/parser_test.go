package parser_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fvm-lang/f/internal/ast"
	"github.com/fvm-lang/f/internal/parser"
)

func mustParse(t *testing.T, src string) *ast.Module {
	t.Helper()
	mod, err := parser.Parse(src)
	require.NoError(t, err)
	return mod
}

func TestInfixBindsTighterThanJuxtapositionApplication(t *testing.T) {
	// "print 1 + 2" must parse as Call(print, [Call(+, [1, 2])]),
	// never as Call(+, [Call(print, [1]), 2]).
	mod := mustParse(t, "print 1 + 2")
	require.Len(t, mod.Statements, 1)
	call, ok := mod.Statements[0].(*ast.Call)
	require.True(t, ok)
	name, ok := call.Fn.(*ast.Name)
	require.True(t, ok)
	require.Equal(t, "print", name.Value)
	require.Len(t, call.Args, 1)

	inner, ok := call.Args[0].(*ast.Call)
	require.True(t, ok)
	innerName := inner.Fn.(*ast.Name)
	require.Equal(t, "+", innerName.Value)
}

func TestBareNameWithNoArgumentsIsNotACall(t *testing.T) {
	mod := mustParse(t, "x")
	_, isCall := mod.Statements[0].(*ast.Call)
	require.False(t, isCall)
	n, ok := mod.Statements[0].(*ast.Name)
	require.True(t, ok)
	require.Equal(t, "x", n.Value)
}

func TestMultiArgumentApplication(t *testing.T) {
	mod := mustParse(t, "sum 1 2 3 4")
	call := mod.Statements[0].(*ast.Call)
	require.Len(t, call.Args, 4)
}

func TestCodeBlockArgumentsToWhile(t *testing.T) {
	mod := mustParse(t, "while [!i > 0] [i <- (i - 1)]")
	call := mod.Statements[0].(*ast.Call)
	name := call.Fn.(*ast.Name)
	require.Equal(t, "while", name.Value)
	require.Len(t, call.Args, 2)
	for _, a := range call.Args {
		_, ok := a.(*ast.CodeBlock)
		require.True(t, ok)
	}
}

func TestCodeBlockWithParamsAsArgument(t *testing.T) {
	mod := mustParse(t, "reduce [|a b| a + b] 0 xs")
	call := mod.Statements[0].(*ast.Call)
	require.Len(t, call.Args, 3)
	block := call.Args[0].(*ast.CodeBlock)
	require.Len(t, block.Params, 2)
	require.Equal(t, "a", block.Params[0].Name)
	require.Equal(t, "b", block.Params[1].Name)
}

func TestVariadicParameterSpellings(t *testing.T) {
	mod1 := mustParse(t, "f := [|...xs| xs]")
	a1 := mod1.Statements[0].(*ast.Assignment)
	cb1 := a1.Value.(*ast.CodeBlock)
	require.True(t, cb1.Params[0].Variadic)
	require.Equal(t, "xs", cb1.Params[0].Name)

	mod2 := mustParse(t, "f := [|a ...| a]")
	a2 := mod2.Statements[0].(*ast.Assignment)
	cb2 := a2.Value.(*ast.CodeBlock)
	require.True(t, cb2.Params[1].Variadic)
	require.Equal(t, "", cb2.Params[1].Name)
}

func TestSpliceArgument(t *testing.T) {
	mod := mustParse(t, "f ...xs")
	call := mod.Statements[0].(*ast.Call)
	require.Len(t, call.Args, 1)
	_, ok := call.Args[0].(*ast.Variadic)
	require.True(t, ok)
}

func TestParenSequenceFoldsIntoSemiCalls(t *testing.T) {
	mod := mustParse(t, "(a; b; c)")
	outer, ok := mod.Statements[0].(*ast.Call)
	require.True(t, ok)
	name := outer.Fn.(*ast.Name)
	require.Equal(t, ";", name.Value)
	inner, ok := outer.Args[0].(*ast.Call)
	require.True(t, ok)
	require.Equal(t, ";", inner.Fn.(*ast.Name).Value)
}

func TestCodeBlockStructuralSemicolonsDoNotProduceSemiCalls(t *testing.T) {
	mod := mustParse(t, "f := [ a := 1; b := 2; a + b ]")
	assign := mod.Statements[0].(*ast.Assignment)
	cb := assign.Value.(*ast.CodeBlock)
	require.Len(t, cb.Statements, 2)
	require.NotNil(t, cb.Return)
	for _, s := range cb.Statements {
		if call, ok := s.(*ast.Call); ok {
			if name, ok := call.Fn.(*ast.Name); ok {
				require.NotEqual(t, ";", name.Value)
			}
		}
	}
}

func TestRightAssociativePower(t *testing.T) {
	// "2 ** 3 ** 2" must parse as 2 ** (3 ** 2).
	mod := mustParse(t, "2 ** 3 ** 2")
	call := mod.Statements[0].(*ast.Call)
	require.Equal(t, "**", call.Fn.(*ast.Name).Value)
	_, rightIsCall := call.Args[1].(*ast.Call)
	require.True(t, rightIsCall)
}

func TestListLiteral(t *testing.T) {
	mod := mustParse(t, "{1, 2, 3}")
	list := mod.Statements[0].(*ast.List)
	require.Len(t, list.Items, 3)
}
