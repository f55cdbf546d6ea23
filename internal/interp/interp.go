// Package interp is the tree-walking interpreter: the hard core of the
// language's runtime semantics (SPEC_FULL.md §4.1), plus the built-in
// registry it shares with the closure-compiling backend.
package interp

import (
	"fmt"
	"io"
	"os"

	"github.com/fvm-lang/f/internal/ast"
	"github.com/fvm-lang/f/internal/object"
)

// Interp holds the state shared across one evaluation run: where
// "print" writes, and the frozen builtin registry. Mirroring the
// teacher's own Evaluator, output is an injectable io.Writer so tests
// can capture it instead of writing to the real stdout.
type Interp struct {
	Out      io.Writer
	Builtins map[string]*object.Builtin
}

// New creates an Interp with its builtin registry populated and
// frozen, writing "print" output to stdout.
func New() *Interp {
	i := &Interp{Out: os.Stdout}
	i.Builtins = NewRegistry(i)
	return i
}

// NewGlobalFrame creates the root Frame for a run: every builtin bound
// by name, plus the constants "null", "true", and "false".
func (i *Interp) NewGlobalFrame() *object.Frame {
	frame := object.NewFrame()
	for name, b := range i.Builtins {
		frame.Set(name, b)
	}
	frame.Set("null", object.Null)
	frame.Set("true", object.True)
	frame.Set("false", object.False)
	return frame
}

// Eval evaluates node in frame, dispatching by concrete node type.
// Evaluation order always runs arguments and sub-expressions
// left-to-right before invoking a call, per SPEC_FULL.md §4.1.
func (i *Interp) Eval(node ast.Node, frame *object.Frame) (object.Value, error) {
	switch n := node.(type) {
	case *ast.Module:
		return i.evalStatements(n.Statements, frame)
	case *ast.Number:
		return object.NewNumberFromLexeme(n.Lexeme)
	case *ast.String:
		return object.String(n.Value), nil
	case *ast.Name:
		v, err := frame.Get(n.Value)
		if err != nil {
			return nil, err
		}
		return v, nil
	case *ast.List:
		// a splice inside a list literal is flattened in place
		elems, err := i.evalArgs(n.Items, frame)
		if err != nil {
			return nil, err
		}
		return &object.List{Elements: elems}, nil
	case *ast.CodeBlock:
		return &object.CodeBlock{Node: n, Frame: frame}, nil
	case *ast.Assignment:
		v, err := i.Eval(n.Value, frame)
		if err != nil {
			return nil, err
		}
		if err := frame.Set(n.Name, v); err != nil {
			return nil, err
		}
		return v, nil
	case *ast.Call:
		return i.evalCall(n, frame)
	case *ast.Variadic:
		return nil, &TypeError{Msg: "\"...\" may only appear in argument position", Line: n.Token.Line}
	}
	return nil, fmt.Errorf("interp: unhandled node type %T", node)
}

func (i *Interp) evalStatements(stmts []ast.Node, frame *object.Frame) (object.Value, error) {
	var result object.Value = object.Null
	for _, s := range stmts {
		v, err := i.Eval(s, frame)
		if err != nil {
			return nil, err
		}
		result = v
	}
	return result, nil
}

// evalArgs evaluates a call's argument list, splicing any Variadic
// arguments in place.
func (i *Interp) evalArgs(args []ast.Node, frame *object.Frame) ([]object.Value, error) {
	var out []object.Value
	for _, a := range args {
		if va, ok := a.(*ast.Variadic); ok {
			spliced, err := i.evalSplice(va, frame)
			if err != nil {
				return nil, err
			}
			out = append(out, spliced...)
			continue
		}
		v, err := i.Eval(a, frame)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (i *Interp) evalSplice(va *ast.Variadic, frame *object.Frame) ([]object.Value, error) {
	v, err := i.Eval(va.Expr, frame)
	if err != nil {
		return nil, err
	}
	list, ok := v.(*object.List)
	if !ok {
		return nil, &TypeError{Msg: fmt.Sprintf("cannot splice a %s, expected a list", v.Kind()), Line: va.Token.Line}
	}
	return list.Elements, nil
}

func (i *Interp) evalCall(n *ast.Call, frame *object.Frame) (object.Value, error) {
	fn, err := i.Eval(n.Fn, frame)
	if err != nil {
		return nil, err
	}
	args, err := i.evalArgs(n.Args, frame)
	if err != nil {
		return nil, err
	}
	return i.Apply(fn, args, n.Token.Line)
}

// Apply invokes a callable Value (a CodeBlock or a Builtin) with
// already-evaluated arguments. Builtins that themselves need to
// invoke CodeBlock values they received (while, either, foreach, and,
// or, if: SPEC_FULL.md §4.4) call back into Apply.
func (i *Interp) Apply(fn object.Value, args []object.Value, line int) (object.Value, error) {
	switch f := fn.(type) {
	case *object.Builtin:
		return f.Fn(args)
	case *object.CodeBlock:
		return i.callCodeBlock(f, args, line)
	default:
		return nil, &TypeError{Msg: fmt.Sprintf("%s is not callable", fn.Kind()), Line: line}
	}
}

// callCodeBlock binds args to cb's parameters in a fresh frame
// enclosed by the frame cb captured, then evaluates its statements in
// order followed by its return expression.
func (i *Interp) callCodeBlock(cb *object.CodeBlock, args []object.Value, line int) (object.Value, error) {
	frame := object.NewChildFrame(cb.Frame)
	if err := bindParameters(frame, cb.Node.Params, args, line); err != nil {
		return nil, err
	}
	if _, err := i.evalStatements(cb.Node.Statements, frame); err != nil {
		return nil, err
	}
	if cb.Node.Return == nil {
		return object.Null, nil
	}
	return i.Eval(cb.Node.Return, frame)
}

// bindParameters applies the reference implementation's
// fixed/variadic split: parameters before the variadic slot and after
// it are bound positionally, and everything in between is collected
// into a List bound to the variadic parameter's name, or to the
// literal name "..." if the bare "..." spelling was used.
func bindParameters(frame *object.Frame, params []ast.Parameter, args []object.Value, line int) error {
	varIdx := -1
	for idx, p := range params {
		if p.Variadic {
			varIdx = idx
			break
		}
	}
	if varIdx == -1 {
		if len(args) != len(params) {
			return &ValueError{
				Msg:  fmt.Sprintf("expected %d argument(s), got %d", len(params), len(args)),
				Line: line,
			}
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
		return &ValueError{
			Msg:  fmt.Sprintf("expected at least %d argument(s), got %d", len(pre)+len(post), len(args)),
			Line: line,
		}
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
