package toolchain_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fvm-lang/f/internal/toolchain"
)

func TestCompileFailureReturnsCompilationError(t *testing.T) {
	// "false" always exits nonzero without reading its arguments,
	// standing in for a compiler rejecting the generated source.
	c := &toolchain.CCompiler{Command: "false"}
	_, err := c.Compile("int main(void) { return 0; }")
	require.Error(t, err)
	var compErr *toolchain.CompilationError
	require.ErrorAs(t, err, &compErr)
}

func TestNewCCompilerDefaultsCommand(t *testing.T) {
	c := toolchain.NewCCompiler("")
	require.Equal(t, "cc", c.Command)
}

func TestGCCConstructorSelectsGCC(t *testing.T) {
	c := toolchain.GCC()
	require.Equal(t, "gcc", c.Command)
}
