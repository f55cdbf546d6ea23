// Package ast defines the abstract syntax tree produced by the parser
// and consumed by the interpreter, the scope analyzer, and the C
// emitter. Every node carries its source token for diagnostics, the
// way the teacher's own AST does.
package ast

import "github.com/fvm-lang/f/internal/token"

// Node is any AST node.
type Node interface {
	Accept(v Visitor)
	GetToken() token.Token
}

// Visitor dispatches over the concrete node set. The scope analyzer
// walks the tree through it; the interpreter, the C emitter, and the
// closure compiler type-switch on the concrete node types instead.
type Visitor interface {
	VisitModule(n *Module)
	VisitNumber(n *Number)
	VisitString(n *String)
	VisitName(n *Name)
	VisitCall(n *Call)
	VisitList(n *List)
	VisitVariadic(n *Variadic)
	VisitCodeBlock(n *CodeBlock)
	VisitAssignment(n *Assignment)
}

// Module is the root node: a sequence of top-level statements,
// equivalent to a CodeBlock with no parameters.
type Module struct {
	Token      token.Token
	Statements []Node
}

func (n *Module) Accept(v Visitor)        { v.VisitModule(n) }
func (n *Module) GetToken() token.Token   { return n.Token }

// Number is a decimal numeric literal, kept as its source lexeme so
// the runtime can parse it into an arbitrary-precision decimal without
// any loss of precision.
type Number struct {
	Token  token.Token
	Lexeme string
}

func (n *Number) Accept(v Visitor)      { v.VisitNumber(n) }
func (n *Number) GetToken() token.Token { return n.Token }

// String is a string literal with escapes already decoded.
type String struct {
	Token token.Token
	Value string
}

func (n *String) Accept(v Visitor)      { v.VisitString(n) }
func (n *String) GetToken() token.Token { return n.Token }

// Name is an identifier reference.
type Name struct {
	Token token.Token
	Value string
}

func (n *Name) Accept(v Visitor)      { v.VisitName(n) }
func (n *Name) GetToken() token.Token { return n.Token }

// Call applies Fn to Args. Fn is itself an arbitrary expression, so
// `(make 3) 4` and `add3 4` share the same node shape.
type Call struct {
	Token token.Token
	Fn    Node
	Args  []Node
}

func (n *Call) Accept(v Visitor)      { v.VisitCall(n) }
func (n *Call) GetToken() token.Token { return n.Token }

// List is a literal list of element expressions.
type List struct {
	Token token.Token
	Items []Node
}

func (n *List) Accept(v Visitor)      { v.VisitList(n) }
func (n *List) GetToken() token.Token { return n.Token }

// Variadic wraps an expression that, in argument position, is spliced
// element-by-element into the enclosing call rather than passed as a
// single List value.
type Variadic struct {
	Token token.Token
	Expr  Node
}

func (n *Variadic) Accept(v Visitor)      { v.VisitVariadic(n) }
func (n *Variadic) GetToken() token.Token { return n.Token }

// Parameter is one formal parameter of a CodeBlock: either a fixed
// name, or (when Variadic is true) the catch-all remainder parameter.
// Name may be empty for the bare "..." spelling.
type Parameter struct {
	Name     string
	Variadic bool
}

// CodeBlock is a callable literal: a parameter list, a body of
// statements evaluated for effect, and a final return expression.
// Parsing captures nothing; each evaluation of the literal produces a
// new value capturing the Frame current at that moment.
type CodeBlock struct {
	Token      token.Token
	Params     []Parameter
	Statements []Node
	Return     Node
}

func (n *CodeBlock) Accept(v Visitor)      { v.VisitCodeBlock(n) }
func (n *CodeBlock) GetToken() token.Token { return n.Token }

// Assignment binds Value to Name in the current frame. It is an error
// to assign a name already bound in that same frame.
type Assignment struct {
	Token token.Token
	Name  string
	Value Node
}

func (n *Assignment) Accept(v Visitor)      { v.VisitAssignment(n) }
func (n *Assignment) GetToken() token.Token { return n.Token }
