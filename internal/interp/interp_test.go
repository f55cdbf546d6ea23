package interp_test

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fvm-lang/f/internal/interp"
	"github.com/fvm-lang/f/internal/object"
	"github.com/fvm-lang/f/internal/parser"
)

func evalSrc(t *testing.T, src string) (object.Value, *bytes.Buffer) {
	t.Helper()
	mod, err := parser.Parse(src)
	require.NoError(t, err)
	i := interp.New()
	out := &bytes.Buffer{}
	i.Out = out
	frame := i.NewGlobalFrame()
	v, err := i.Eval(mod, frame)
	require.NoError(t, err)
	return v, out
}

func TestArithmeticIsVariadicLeftFold(t *testing.T) {
	v, _ := evalSrc(t, "+ 1 2 3 4")
	n := v.(object.Number)
	require.Equal(t, "10", n.Inspect())
}

func TestExactDecimalArithmetic(t *testing.T) {
	v, _ := evalSrc(t, "+ 0.1 0.2")
	n := v.(object.Number)
	require.Equal(t, "0.3", n.Inspect())
}

func TestAssignmentIsSingleUsePerFrame(t *testing.T) {
	_, err := func() (object.Value, error) {
		mod, e := parser.Parse("(x := 1; x := 2)")
		require.NoError(t, e)
		i := interp.New()
		return i.Eval(mod, i.NewGlobalFrame())
	}()
	require.Error(t, err)
}

func TestCodeBlockCapturesFrameAtEvaluation(t *testing.T) {
	v, _ := evalSrc(t, `
		make := [|n| [|x| x + n]];
		add5 := make 5;
		add5 10
	`)
	n := v.(object.Number)
	require.Equal(t, "15", n.Inspect())
}

func TestVariadicParameterCollectsRemainder(t *testing.T) {
	v, _ := evalSrc(t, `
		count := [|...xs| length xs];
		count 1 2 3
	`)
	n := v.(object.Number)
	require.Equal(t, "3", n.Inspect())
}

func TestEitherIsEagerAndDoesNotInvokeBranches(t *testing.T) {
	// either must pick between its already-evaluated argument
	// VALUES, not invoke whichever branch wins — both CodeBlock
	// arguments here are evaluated (closures built), but the chosen
	// one is returned as-is, not called.
	v, out := evalSrc(t, `
		result := either true [1] [2];
		print result;
		result
	`)
	require.Equal(t, object.CodeBlockKind, v.Kind())
	require.Contains(t, out.String(), "<code-block>")
}

func TestIfInvokesTheChosenBranchOnly(t *testing.T) {
	v, out := evalSrc(t, `
		if true [print "then"] [print "else"]
	`)
	require.Equal(t, "then\n", out.String())
	require.Equal(t, object.Null, v)
}

func TestWhileCollectsAllIterationResults(t *testing.T) {
	v, _ := evalSrc(t, `
		i := reference 0;
		while [!i < 3] [
			i <- (!i + 1);
			!i
		]
	`)
	list := v.(*object.List)
	require.Len(t, list.Elements, 3)
}

func TestReferenceStoreAndDereference(t *testing.T) {
	v, _ := evalSrc(t, `
		r := reference 1;
		r <- 2;
		!r
	`)
	n := v.(object.Number)
	require.Equal(t, "2", n.Inspect())
}

func TestPrintUnquotesStringsButInspectsOtherValues(t *testing.T) {
	_, out := evalSrc(t, `print "hi" 1 true`)
	require.Equal(t, "hi 1 true\n", out.String())
}

func TestEqualityHasNoCrossKindCoercion(t *testing.T) {
	v, _ := evalSrc(t, `= 1 "1"`)
	require.Equal(t, object.False, v)
}

func TestAndShortCircuitsOverCodeBlocks(t *testing.T) {
	v, out := evalSrc(t, `
		and [false] [print "never"]
	`)
	require.Equal(t, object.False, v)
	require.Empty(t, out.String())
}

func TestListsCompareElementwise(t *testing.T) {
	v, _ := evalSrc(t, `= {1, 2, "x"} {1, 2, "x"}`)
	require.Equal(t, object.True, v)

	v, _ = evalSrc(t, `= {1, 2} {1, 2, 3}`)
	require.Equal(t, object.False, v)

	v, _ = evalSrc(t, `= {1, {2, 3}} {1, {2, 4}}`)
	require.Equal(t, object.False, v)
}

func TestCodeBlocksCompareByIdentityNotStructure(t *testing.T) {
	v, _ := evalSrc(t, `
		f := [|x| x];
		g := [|x| x];
		= f g
	`)
	require.Equal(t, object.False, v)

	v, _ = evalSrc(t, `
		f := [|x| x];
		g := f;
		= f g
	`)
	require.Equal(t, object.True, v)
}

func TestWithOpenFileWritesAndClosesOnEveryExitPath(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/out.txt"

	_, err := func() (object.Value, error) {
		mod, e := parser.Parse(`withOpenFile [|f| writeLine f "hello"] path "w"`)
		require.NoError(t, e)
		i := interp.New()
		frame := i.NewGlobalFrame()
		require.NoError(t, frame.Set("path", object.String(path)))
		return i.Eval(mod, frame)
	}()
	require.NoError(t, err)

	data, rerr := os.ReadFile(path)
	require.NoError(t, rerr)
	require.Equal(t, "hello\n", string(data))

	_, err = func() (object.Value, error) {
		mod, e := parser.Parse(`withOpenFile [|f| + 1 "not a number"] path "w"`)
		require.NoError(t, e)
		i := interp.New()
		frame := i.NewGlobalFrame()
		require.NoError(t, frame.Set("path", object.String(path)))
		return i.Eval(mod, frame)
	}()
	require.Error(t, err)
}

func TestStdlibReduceMapFilter(t *testing.T) {
	i := interp.New()
	out := &bytes.Buffer{}
	i.Out = out
	frame := i.NewGlobalFrame()

	preludeSrc := mustReadStdlib(t)
	prelude, err := parser.Parse(preludeSrc)
	require.NoError(t, err)
	_, err = i.Eval(prelude, frame)
	require.NoError(t, err)

	mod, err := parser.Parse(`
		xs := {1, 2, 3, 4};
		doubled := map [|x| x * 2] xs;
		evens := filter [|x| = 0 (- x (* 2 (/ x 2)))] xs;
		reduce [|a b| a + b] 0 xs
	`)
	require.NoError(t, err)
	v, err := i.Eval(mod, frame)
	require.NoError(t, err)
	n := v.(object.Number)
	require.Equal(t, "10", n.Inspect())
}

func mustReadStdlib(t *testing.T) string {
	t.Helper()
	return stdlibSrc
}

// stdlibSrc mirrors internal/assets/stdlib.f so this test doesn't
// depend on the assets package (avoiding an import cycle risk between
// interp's own tests and assets, which does not import interp, but
// keeping the test self-contained is simpler than wiring it).
const stdlibSrc = `
reduce := [|f init xs|
    acc := reference init;
    i := reference 0;
    while [!i < (length xs)] [
        acc <- (f (!acc) (get xs !i));
        i <- (!i + 1)
    ];
    !acc
];

map := [|f xs|
    result := reference {};
    i := reference 0;
    while [!i < (length xs)] [
        result <- (append (!result) (f (get xs !i)));
        i <- (!i + 1)
    ];
    !result
];

filter := [|pred xs|
    result := reference {};
    i := reference 0;
    while [!i < (length xs)] [
        if [pred (get xs !i)] [result <- (append (!result) (get xs !i))] [null];
        i <- (!i + 1)
    ];
    !result
];
`
