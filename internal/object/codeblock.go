package object

import "github.com/fvm-lang/f/internal/ast"

// CodeBlock is a callable value: the AST template for its parameters,
// body, and return expression, plus the Frame that was active when
// this particular CodeBlock value was produced. Evaluating a
// *ast.CodeBlock node always captures the current frame immediately —
// unlike the reference interpreter's lazily-captured "get()" scheme,
// Go's static typing already keeps the unevaluated AST node and the
// evaluated closure value as distinct types, so there is nothing to
// defer.
type CodeBlock struct {
	Node  *ast.CodeBlock
	Frame *Frame
}

func (c *CodeBlock) Kind() Kind      { return CodeBlockKind }
func (c *CodeBlock) Inspect() string { return "<code-block>" }
