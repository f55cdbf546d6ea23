package closurevm_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fvm-lang/f/internal/closurevm"
	"github.com/fvm-lang/f/internal/interp"
	"github.com/fvm-lang/f/internal/object"
	"github.com/fvm-lang/f/internal/parser"
)

func runCompiled(t *testing.T, src string) (object.Value, *bytes.Buffer) {
	t.Helper()
	mod, err := parser.Parse(src)
	require.NoError(t, err)
	i := interp.New()
	out := &bytes.Buffer{}
	i.Out = out
	frame := i.NewGlobalFrame()
	compiler := closurevm.New(i)
	thunk, err := compiler.CompileModule(mod)
	require.NoError(t, err)
	v, err := thunk(frame)
	require.NoError(t, err)
	return v, out
}

func TestClosureVMArithmeticMatchesInterp(t *testing.T) {
	v, _ := runCompiled(t, "+ 1 2 3")
	n := v.(object.Number)
	require.Equal(t, "6", n.Inspect())
}

func TestClosureVMCapturesEnclosingLocals(t *testing.T) {
	v, _ := runCompiled(t, `
		make := [|n| [|x| x + n]];
		add5 := make 5;
		add5 10
	`)
	n := v.(object.Number)
	require.Equal(t, "15", n.Inspect())
}

func TestClosureVMWhileLoop(t *testing.T) {
	v, _ := runCompiled(t, `
		i := reference 0;
		while [!i < 3] [i <- (!i + 1); !i]
	`)
	list := v.(*object.List)
	require.Len(t, list.Elements, 3)
}

func TestClosureVMPrintMatchesDisplayConvention(t *testing.T) {
	_, out := runCompiled(t, `print "hi" 1`)
	require.Equal(t, "hi 1\n", out.String())
}

func TestClosureVMVariadicSplat(t *testing.T) {
	v, _ := runCompiled(t, `
		count := [|...xs| length xs];
		args := {1, 2, 3};
		count ...args
	`)
	n := v.(object.Number)
	require.Equal(t, "3", n.Inspect())
}
