package transpile_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fvm-lang/f/internal/parser"
	"github.com/fvm-lang/f/internal/scope"
	"github.com/fvm-lang/f/internal/transpile"
)

func TestEmitProducesMainAndOperatorDispatch(t *testing.T) {
	scope.RegisterBuiltins([]string{"print", "null", "true", "false"})
	mod, err := parser.Parse(`print (1 + 2)`)
	require.NoError(t, err)
	root := scope.New(mod)

	out, err := transpile.Emit(mod, root, "/* runtime stub */\n")
	require.NoError(t, err)
	require.Contains(t, out, "int main(int argc, char **argv)")
	require.Contains(t, out, "operators.add(number(1), number(2))")
	require.Contains(t, out, "builtins.print(")
}

func TestEmitClosureCapturesOuterRecord(t *testing.T) {
	scope.RegisterBuiltins([]string{"+", "null", "true", "false"})
	mod, err := parser.Parse(`make := [|n| [|x| x + n]]`)
	require.NoError(t, err)
	root := scope.New(mod)

	out, err := transpile.Emit(mod, root, "")
	require.NoError(t, err)
	require.True(t, strings.Contains(out, "struct _outer__f_fn_"))
	require.Contains(t, out, "callable(_f_fn_")
}

func TestEmitDeclaresSelfStructForLocals(t *testing.T) {
	scope.RegisterBuiltins([]string{"reference", "!", "<-", "+", "while", "<", "null", "true", "false"})
	mod, err := parser.Parse(`
		count := [|n|
			total := reference 0;
			i := reference 0;
			while [!i < n] [
				total <- (!total + !i);
				i <- (!i + 1)
			];
			!total
		]
	`)
	require.NoError(t, err)
	root := scope.New(mod)

	out, err := transpile.Emit(mod, root, "")
	require.NoError(t, err)
	require.Regexp(t, `struct _self__f_fn_\d+ \{ f_object i, f_object n, f_object total; \};`, out)
	require.Contains(t, out, "self.total = ")
	require.Contains(t, out, "self.i = ")
}

func TestEmitBareVariadicParamBindsDotsField(t *testing.T) {
	scope.RegisterBuiltins([]string{"null", "true", "false"})
	mod, err := parser.Parse(`count := [|...| 1]`)
	require.NoError(t, err)
	root := scope.New(mod)

	out, err := transpile.Emit(mod, root, "")
	require.NoError(t, err)
	require.Contains(t, out, "self._46_46_46 = sublist(args, 0);")
}

func TestEmitSemicolonSequencingUsesCComma(t *testing.T) {
	scope.RegisterBuiltins([]string{"print", "null", "true", "false"})
	mod, err := parser.Parse(`(print 1; print 2)`)
	require.NoError(t, err)
	root := scope.New(mod)

	out, err := transpile.Emit(mod, root, "")
	require.NoError(t, err)
	require.Contains(t, out, "builtins.print(list(1, number(1))), builtins.print(list(1, number(2)))")
}
