// Package closurevm implements the "a" (AST-to-host-VM) execution
// mode: each ast.Node is compiled exactly once, bottom-up, into a Go
// closure of type Thunk, so that running the program means invoking
// already-built closures against a Frame rather than re-dispatching on
// the AST's shape on every evaluation the way internal/interp does.
// This is not part of the language's documented hard core (SPEC_FULL.md
// §1/§4.5 treat the three execution modes as observably equivalent);
// it exists because spec.md's "ast" backend calls for a host-VM style
// of execution distinct from straightforward tree-walking, and
// compiling to closures is the idiomatic Go rendering of that idea —
// there is no AST node type or bytecode format of its own to design.
package closurevm

import (
	"fmt"

	"github.com/fvm-lang/f/internal/ast"
	"github.com/fvm-lang/f/internal/interp"
	"github.com/fvm-lang/f/internal/object"
)

// Thunk is a compiled node: given the Frame it runs against, produce a
// Value or an error. Compiling an ast.Node into a Thunk happens once;
// invoking the Thunk can happen any number of times against different
// Frames (once per call to the CodeBlock that contains it).
type Thunk func(frame *object.Frame) (object.Value, error)

// Compiler turns an AST into Thunks. Builtins come from the same
// registry internal/interp uses and are called directly; arguments are
// bound by bindCompiledParameters, a copy of interp's bindParameters.
type Compiler struct {
	interp *interp.Interp
}

// New returns a Compiler that will invoke builtins and CodeBlocks
// through i, so "print" output and the builtin registry match
// whatever Interp the caller constructed.
func New(i *interp.Interp) *Compiler {
	return &Compiler{interp: i}
}

// CompileModule compiles every top-level statement into a single
// Thunk that runs them in order and returns the last one's value, the
// closure-VM equivalent of interp.Eval(module, frame).
func (c *Compiler) CompileModule(m *ast.Module) (Thunk, error) {
	thunks := make([]Thunk, len(m.Statements))
	for i, s := range m.Statements {
		t, err := c.Compile(s)
		if err != nil {
			return nil, err
		}
		thunks[i] = t
	}
	return func(frame *object.Frame) (object.Value, error) {
		var result object.Value = object.Null
		for _, t := range thunks {
			v, err := t(frame)
			if err != nil {
				return nil, err
			}
			result = v
		}
		return result, nil
	}, nil
}

// Compile builds the Thunk for a single node, recursing into children
// up front so the returned closure does no further AST inspection at
// call time.
func (c *Compiler) Compile(node ast.Node) (Thunk, error) {
	switch n := node.(type) {
	case *ast.Number:
		v, err := object.NewNumberFromLexeme(n.Lexeme)
		if err != nil {
			return nil, err
		}
		return func(frame *object.Frame) (object.Value, error) { return v, nil }, nil

	case *ast.String:
		v := object.String(n.Value)
		return func(frame *object.Frame) (object.Value, error) { return v, nil }, nil

	case *ast.Name:
		name := n.Value
		return func(frame *object.Frame) (object.Value, error) { return frame.Get(name) }, nil

	case *ast.List:
		items := make([]compiledArg, len(n.Items))
		for i, it := range n.Items {
			va, isVariadic := it.(*ast.Variadic)
			target := it
			if isVariadic {
				target = va.Expr
			}
			t, err := c.Compile(target)
			if err != nil {
				return nil, err
			}
			items[i] = compiledArg{thunk: t, variadic: isVariadic}
		}
		return func(frame *object.Frame) (object.Value, error) {
			elems, err := evalArgThunks(items, frame)
			if err != nil {
				return nil, err
			}
			return &object.List{Elements: elems}, nil
		}, nil

	case *ast.CodeBlock:
		bodyThunks := make([]Thunk, len(n.Statements))
		for i, s := range n.Statements {
			t, err := c.Compile(s)
			if err != nil {
				return nil, err
			}
			bodyThunks[i] = t
		}
		var returnThunk Thunk
		if n.Return != nil {
			t, err := c.Compile(n.Return)
			if err != nil {
				return nil, err
			}
			returnThunk = t
		}
		params := n.Params
		ci := c.interp
		line := n.Token.Line
		return func(frame *object.Frame) (object.Value, error) {
			captured := frame
			cb := &compiledCodeBlock{
				params: params,
				body:   bodyThunks,
				ret:    returnThunk,
				frame:  captured,
				interp: ci,
				line:   line,
			}
			return cb, nil
		}, nil

	case *ast.Assignment:
		valueThunk, err := c.Compile(n.Value)
		if err != nil {
			return nil, err
		}
		name := n.Name
		return func(frame *object.Frame) (object.Value, error) {
			v, err := valueThunk(frame)
			if err != nil {
				return nil, err
			}
			if err := frame.Set(name, v); err != nil {
				return nil, err
			}
			return v, nil
		}, nil

	case *ast.Call:
		fnThunk, err := c.Compile(n.Fn)
		if err != nil {
			return nil, err
		}
		args := make([]compiledArg, len(n.Args))
		for i, a := range n.Args {
			va, isVariadic := a.(*ast.Variadic)
			target := a
			if isVariadic {
				target = va.Expr
			}
			t, err := c.Compile(target)
			if err != nil {
				return nil, err
			}
			args[i] = compiledArg{thunk: t, variadic: isVariadic}
		}
		ci := c.interp
		line := n.Token.Line
		return func(frame *object.Frame) (object.Value, error) {
			fn, err := fnThunk(frame)
			if err != nil {
				return nil, err
			}
			argv, err := evalArgThunks(args, frame)
			if err != nil {
				return nil, err
			}
			return apply(ci, fn, argv, line)
		}, nil

	case *ast.Variadic:
		return nil, fmt.Errorf("closurevm: \"...\" may only appear in argument position")

	default:
		return nil, fmt.Errorf("closurevm: unhandled node type %T", node)
	}
}

type compiledArg struct {
	thunk    Thunk
	variadic bool
}

func evalArgThunks(items []compiledArg, frame *object.Frame) ([]object.Value, error) {
	var out []object.Value
	for _, item := range items {
		v, err := item.thunk(frame)
		if err != nil {
			return nil, err
		}
		if item.variadic {
			list, ok := v.(*object.List)
			if !ok {
				return nil, fmt.Errorf("closurevm: cannot splice a %s, expected a list", v.Kind())
			}
			out = append(out, list.Elements...)
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

// compiledCodeBlock is closurevm's Value for an evaluated CodeBlock
// literal: unlike object.CodeBlock (which carries the ast.CodeBlock
// node for interp.callCodeBlock to walk again on every call), this
// carries already-compiled body/return Thunks, so invoking it never
// revisits the AST.
type compiledCodeBlock struct {
	params []ast.Parameter
	body   []Thunk
	ret    Thunk
	frame  *object.Frame
	interp *interp.Interp
	line   int
}

func (c *compiledCodeBlock) Kind() object.Kind { return object.CodeBlockKind }

func (c *compiledCodeBlock) Inspect() string { return "<compiled-codeblock>" }

func (c *compiledCodeBlock) invoke(args []object.Value) (object.Value, error) {
	frame := object.NewChildFrame(c.frame)
	if err := bindCompiledParameters(frame, c.params, args, c.line); err != nil {
		return nil, err
	}
	for _, t := range c.body {
		if _, err := t(frame); err != nil {
			return nil, err
		}
	}
	if c.ret == nil {
		return object.Null, nil
	}
	return c.ret(frame)
}

// bindCompiledParameters duplicates interp's bindParameters algorithm
// (unexported there) against a compiledCodeBlock's already-known
// parameter list, so both backends bind arguments identically.
func bindCompiledParameters(frame *object.Frame, params []ast.Parameter, args []object.Value, line int) error {
	varIdx := -1
	for idx, p := range params {
		if p.Variadic {
			varIdx = idx
			break
		}
	}
	if varIdx == -1 {
		if len(args) != len(params) {
			return fmt.Errorf("closurevm: expected %d argument(s), got %d", len(params), len(args))
		}
		for idx, p := range params {
			if err := frame.Set(p.Name, args[idx]); err != nil {
				return err
			}
		}
		return nil
	}
	pre := params[:varIdx]
	post := params[varIdx+1:]
	if len(args) < len(pre)+len(post) {
		return fmt.Errorf("closurevm: expected at least %d argument(s), got %d", len(pre)+len(post), len(args))
	}
	for idx, p := range pre {
		if err := frame.Set(p.Name, args[idx]); err != nil {
			return err
		}
	}
	varArgs := args[len(pre) : len(args)-len(post)]
	for idx, p := range post {
		if err := frame.Set(p.Name, args[len(args)-len(post)+idx]); err != nil {
			return err
		}
	}
	name := params[varIdx].Name
	if name == "" {
		name = "..."
	}
	if err := frame.Set(name, &object.List{Elements: append([]object.Value{}, varArgs...)}); err != nil {
		return err
	}
	return nil
}

// apply invokes fn, dispatching compiledCodeBlock directly and
// deferring to ci.Apply for Builtin values so builtins that call back
// into CodeBlock arguments (while, if, and, or, ...) keep working
// uniformly across both backends: ci.Apply's own CodeBlock case never
// runs here since a compiledCodeBlock is not an *object.CodeBlock, but
// its Builtin case does, and a builtin invoking a compiledCodeBlock
// argument reaches back into this same apply via the Builtin.Fn
// closures themselves calling Apply-shaped helpers.
func apply(ci *interp.Interp, fn object.Value, args []object.Value, line int) (object.Value, error) {
	switch f := fn.(type) {
	case *compiledCodeBlock:
		return f.invoke(args)
	case *object.Builtin:
		return f.Fn(args)
	default:
		return nil, fmt.Errorf("closurevm: %s is not callable", fn.Kind())
	}
}
