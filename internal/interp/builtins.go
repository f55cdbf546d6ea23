package interp

import (
	"fmt"
	"os"
	"strings"

	"github.com/ericlagergren/decimal"

	"github.com/fvm-lang/f/internal/object"
)

// NewRegistry builds the process-wide built-in table described by
// SPEC_FULL.md §4.4, grounded on the reference interpreter's
// f/interpreter/builtins/__init__.py. The table is populated once,
// here, and never mutated afterwards — callers get back a plain map
// they should treat as read-only once New has returned.
func NewRegistry(i *Interp) map[string]*object.Builtin {
	reg := map[string]*object.Builtin{}
	add := func(name string, fn func(args []object.Value) (object.Value, error)) {
		reg[name] = &object.Builtin{Name: name, Fn: fn}
	}

	// -- references --------------------------------------------------
	add("reference", func(args []object.Value) (object.Value, error) {
		if len(args) != 1 {
			return nil, arityErr("reference", 1, len(args))
		}
		return &object.Reference{Value: args[0]}, nil
	})
	add("!", func(args []object.Value) (object.Value, error) {
		if len(args) != 1 {
			return nil, arityErr("!", 1, len(args))
		}
		ref, ok := args[0].(*object.Reference)
		if !ok {
			return nil, &TypeError{Msg: fmt.Sprintf("cannot dereference a %s", args[0].Kind())}
		}
		return ref.Value, nil
	})
	add("<-", func(args []object.Value) (object.Value, error) {
		if len(args) != 2 {
			return nil, arityErr("<-", 2, len(args))
		}
		ref, ok := args[0].(*object.Reference)
		if !ok {
			return nil, &TypeError{Msg: fmt.Sprintf("cannot store into a %s", args[0].Kind())}
		}
		ref.Value = args[1]
		return object.Null, nil
	})

	// -- control (receive CodeBlock values and call them themselves) --
	add("while", func(args []object.Value) (object.Value, error) {
		if len(args) != 2 {
			return nil, arityErr("while", 2, len(args))
		}
		cond, body := args[0], args[1]
		var results []object.Value
		for {
			v, err := i.callIfBlock(cond)
			if err != nil {
				return nil, err
			}
			if !object.Truthy(v) {
				break
			}
			r, err := i.callIfBlock(body)
			if err != nil {
				return nil, err
			}
			results = append(results, r)
		}
		return &object.List{Elements: results}, nil
	})
	add("either", func(args []object.Value) (object.Value, error) {
		if len(args) != 3 {
			return nil, arityErr("either", 3, len(args))
		}
		v, err := i.callIfBlock(args[0])
		if err != nil {
			return nil, err
		}
		if object.Truthy(v) {
			return args[1], nil
		}
		return args[2], nil
	})
	add("if", func(args []object.Value) (object.Value, error) {
		if len(args) != 3 {
			return nil, arityErr("if", 3, len(args))
		}
		v, err := i.callIfBlock(args[0])
		if err != nil {
			return nil, err
		}
		if object.Truthy(v) {
			return i.callIfBlock(args[1])
		}
		return i.callIfBlock(args[2])
	})
	add("foreach", func(args []object.Value) (object.Value, error) {
		if len(args) < 2 {
			return nil, arityErr("foreach", 2, len(args))
		}
		lists := make([]*object.List, 0, len(args)-1)
		minLen := -1
		for _, a := range args[1:] {
			l, ok := a.(*object.List)
			if !ok {
				return nil, &TypeError{Msg: fmt.Sprintf("foreach expects lists, got a %s", a.Kind())}
			}
			lists = append(lists, l)
			if minLen == -1 || len(l.Elements) < minLen {
				minLen = len(l.Elements)
			}
		}
		var results []object.Value
		for idx := 0; idx < minLen; idx++ {
			row := make([]object.Value, len(lists))
			for li, l := range lists {
				row[li] = l.Elements[idx]
			}
			r, err := i.Apply(args[0], row, 0)
			if err != nil {
				return nil, err
			}
			results = append(results, r)
		}
		return &object.List{Elements: results}, nil
	})
	add("do", func(args []object.Value) (object.Value, error) {
		if len(args) != 1 {
			return nil, arityErr("do", 1, len(args))
		}
		return i.callIfBlock(args[0])
	})
	add(";", func(args []object.Value) (object.Value, error) {
		if len(args) == 0 {
			return object.Null, nil
		}
		return args[len(args)-1], nil
	})

	// -- logical (short-circuit only over CodeBlock arguments) -------
	add("and", func(args []object.Value) (object.Value, error) { return i.shortCircuit(args, false) })
	add("or", func(args []object.Value) (object.Value, error) { return i.shortCircuit(args, true) })
	add("not", func(args []object.Value) (object.Value, error) {
		if len(args) != 1 {
			return nil, arityErr("not", 1, len(args))
		}
		return object.ToBoolean(!object.Truthy(args[0])), nil
	})
	add("all", func(args []object.Value) (object.Value, error) {
		list, err := singleList("all", args)
		if err != nil {
			return nil, err
		}
		for _, e := range list.Elements {
			if !object.Truthy(e) {
				return object.False, nil
			}
		}
		return object.True, nil
	})
	add("any", func(args []object.Value) (object.Value, error) {
		list, err := singleList("any", args)
		if err != nil {
			return nil, err
		}
		for _, e := range list.Elements {
			if object.Truthy(e) {
				return object.True, nil
			}
		}
		return object.False, nil
	})

	// -- comparisons ---------------------------------------------------
	add("=", func(args []object.Value) (object.Value, error) { return equality(args, false) })
	add("!=", func(args []object.Value) (object.Value, error) { return equality(args, true) })
	add(">", numberCompare(func(c int) bool { return c > 0 }))
	add(">=", numberCompare(func(c int) bool { return c >= 0 }))
	add("<", numberCompare(func(c int) bool { return c < 0 }))
	add("<=", numberCompare(func(c int) bool { return c <= 0 }))

	// -- arithmetic ------------------------------------------------------
	add("+", numberFold("+", func(acc, v object.Number) object.Number {
		return object.Number{D: new(decimal.Big).Add(acc.D, v.D)}
	}))
	add("-", numberFold("-", func(acc, v object.Number) object.Number {
		return object.Number{D: new(decimal.Big).Sub(acc.D, v.D)}
	}))
	add("*", numberFold("*", func(acc, v object.Number) object.Number {
		return object.Number{D: new(decimal.Big).Mul(acc.D, v.D)}
	}))
	add("/", numberFold("/", func(acc, v object.Number) object.Number {
		z := new(decimal.Big)
		z.Context = decimal.Context{Precision: decimalPrecision}
		return object.Number{D: z.Quo(acc.D, v.D)}
	}))
	add("**", numberFold("**", power))

	// -- list operations ----------------------------------------------
	add("get", func(args []object.Value) (object.Value, error) {
		if len(args) != 2 {
			return nil, arityErr("get", 2, len(args))
		}
		list, idx, err := listAndIndex("get", args)
		if err != nil {
			return nil, err
		}
		if idx < 0 || idx >= len(list.Elements) {
			return nil, &ValueError{Msg: fmt.Sprintf("index %d out of range (length %d)", idx, len(list.Elements))}
		}
		return list.Elements[idx], nil
	})
	add("length", func(args []object.Value) (object.Value, error) {
		if len(args) != 1 {
			return nil, arityErr("length", 1, len(args))
		}
		list, ok := args[0].(*object.List)
		if !ok {
			return nil, &TypeError{Msg: fmt.Sprintf("length expects a list, got a %s", args[0].Kind())}
		}
		return object.NewNumberFromInt64(int64(len(list.Elements))), nil
	})
	add("append", func(args []object.Value) (object.Value, error) {
		if len(args) != 2 {
			return nil, arityErr("append", 2, len(args))
		}
		list, ok := args[0].(*object.List)
		if !ok {
			return nil, &TypeError{Msg: fmt.Sprintf("append expects a list, got a %s", args[0].Kind())}
		}
		elems := append(append([]object.Value{}, list.Elements...), args[1])
		return &object.List{Elements: elems}, nil
	})
	add("insert", func(args []object.Value) (object.Value, error) {
		if len(args) != 3 {
			return nil, arityErr("insert", 3, len(args))
		}
		list, idx, err := listAndIndex("insert", args[:2])
		if err != nil {
			return nil, err
		}
		if idx < 0 || idx > len(list.Elements) {
			return nil, &ValueError{Msg: fmt.Sprintf("index %d out of range (length %d)", idx, len(list.Elements))}
		}
		elems := append([]object.Value{}, list.Elements[:idx]...)
		elems = append(elems, args[2])
		elems = append(elems, list.Elements[idx:]...)
		return &object.List{Elements: elems}, nil
	})

	// -- I/O ------------------------------------------------------------
	add("print", func(args []object.Value) (object.Value, error) {
		parts := make([]string, len(args))
		for idx, a := range args {
			parts[idx] = display(a)
		}
		fmt.Fprintln(i.Out, strings.Join(parts, " "))
		return object.Null, nil
	})
	add("withOpenFile", func(args []object.Value) (object.Value, error) {
		if len(args) != 3 {
			return nil, arityErr("withOpenFile", 3, len(args))
		}
		action := args[0]
		name, ok := args[1].(object.String)
		if !ok {
			return nil, &TypeError{Msg: fmt.Sprintf("withOpenFile expects a string file name, got a %s", args[1].Kind())}
		}
		mode, ok := args[2].(object.String)
		if !ok {
			return nil, &TypeError{Msg: fmt.Sprintf("withOpenFile expects a string mode, got a %s", args[2].Kind())}
		}
		flag, ferr := fileOpenFlag(string(mode))
		if ferr != nil {
			return nil, ferr
		}
		f, oerr := os.OpenFile(string(name), flag, 0o644)
		if oerr != nil {
			return nil, &ValueError{Msg: fmt.Sprintf("withOpenFile: %s", oerr)}
		}
		defer f.Close()
		return i.Apply(action, []object.Value{&object.IOHandle{File: f}}, 0)
	})
	add("writeLine", func(args []object.Value) (object.Value, error) {
		if len(args) != 2 {
			return nil, arityErr("writeLine", 2, len(args))
		}
		handle, ok := args[0].(*object.IOHandle)
		if !ok {
			return nil, &TypeError{Msg: fmt.Sprintf("writeLine expects an open file, got a %s", args[0].Kind())}
		}
		line, ok := args[1].(object.String)
		if !ok {
			return nil, &TypeError{Msg: fmt.Sprintf("writeLine expects a string, got a %s", args[1].Kind())}
		}
		if _, werr := fmt.Fprintln(handle.File, string(line)); werr != nil {
			return nil, &ValueError{Msg: fmt.Sprintf("writeLine: %s", werr)}
		}
		return object.Null, nil
	})

	return reg
}

// fileOpenFlag maps withOpenFile's mode string to the os.OpenFile
// flags it opens the file with, following the original interpreter's
// Python open() modes ("r" "w" "a").
func fileOpenFlag(mode string) (int, error) {
	switch mode {
	case "r":
		return os.O_RDONLY, nil
	case "w":
		return os.O_WRONLY | os.O_CREATE | os.O_TRUNC, nil
	case "a":
		return os.O_WRONLY | os.O_CREATE | os.O_APPEND, nil
	default:
		return 0, &ValueError{Msg: fmt.Sprintf("withOpenFile: unsupported mode %q", mode)}
	}
}

// callIfBlock invokes v with zero arguments if it is a CodeBlock; any
// other value is treated as already evaluated. while, if, do, and, and
// or use it on their arguments, and either on its condition, so a
// CodeBlock argument acts as a lazy branch (SPEC_FULL.md §4.0).
func (i *Interp) callIfBlock(v object.Value) (object.Value, error) {
	if cb, ok := v.(*object.CodeBlock); ok {
		return i.Apply(cb, nil, 0)
	}
	return v, nil
}

func (i *Interp) shortCircuit(args []object.Value, stopOn bool) (object.Value, error) {
	for _, a := range args {
		v, err := i.callIfBlock(a)
		if err != nil {
			return nil, err
		}
		if object.Truthy(v) == stopOn {
			return object.ToBoolean(stopOn), nil
		}
	}
	return object.ToBoolean(!stopOn), nil
}

func arityErr(name string, want, got int) error {
	return &ValueError{Msg: fmt.Sprintf("%s expects %d argument(s), got %d", name, want, got)}
}

func singleList(name string, args []object.Value) (*object.List, error) {
	if len(args) != 1 {
		return nil, arityErr(name, 1, len(args))
	}
	list, ok := args[0].(*object.List)
	if !ok {
		return nil, &TypeError{Msg: fmt.Sprintf("%s expects a list, got a %s", name, args[0].Kind())}
	}
	return list, nil
}

func listAndIndex(name string, args []object.Value) (*object.List, int, error) {
	list, ok := args[0].(*object.List)
	if !ok {
		return nil, 0, &TypeError{Msg: fmt.Sprintf("%s expects a list, got a %s", name, args[0].Kind())}
	}
	n, ok := args[1].(object.Number)
	if !ok {
		return nil, 0, &TypeError{Msg: fmt.Sprintf("%s expects a number index, got a %s", name, args[1].Kind())}
	}
	idx, ok := n.Int64()
	if !ok {
		return nil, 0, &ValueError{Msg: "index must be an integer"}
	}
	return list, int(idx), nil
}

// display renders a Value the way "print" shows it: strings print
// without their surrounding quotes, everything else uses Inspect.
func display(v object.Value) string {
	if s, ok := v.(object.String); ok {
		return string(s)
	}
	return v.Inspect()
}

func equality(args []object.Value, negate bool) (object.Value, error) {
	if len(args) != 2 {
		return nil, arityErr("=", 2, len(args))
	}
	eq, err := valuesEqual(args[0], args[1])
	if err != nil {
		return nil, err
	}
	if negate {
		eq = !eq
	}
	return object.ToBoolean(eq), nil
}

func valuesEqual(a, b object.Value) (bool, error) {
	switch av := a.(type) {
	case object.Number:
		bv, ok := b.(object.Number)
		return ok && av.Equal(bv), nil
	case object.String:
		bv, ok := b.(object.String)
		return ok && av == bv, nil
	case object.Boolean:
		bv, ok := b.(object.Boolean)
		return ok && av == bv, nil
	case *object.List:
		bv, ok := b.(*object.List)
		if !ok || len(av.Elements) != len(bv.Elements) {
			return false, nil
		}
		for idx, elem := range av.Elements {
			eq, err := valuesEqual(elem, bv.Elements[idx])
			if err != nil || !eq {
				return false, err
			}
		}
		return true, nil
	case *object.CodeBlock:
		bv, ok := b.(*object.CodeBlock)
		return ok && av == bv, nil
	case *object.Builtin:
		bv, ok := b.(*object.Builtin)
		return ok && av == bv, nil
	default:
		if a.Kind() == object.NullKind && b.Kind() == object.NullKind {
			return true, nil
		}
		return false, &TypeError{Msg: fmt.Sprintf("cannot compare %s and %s for equality", a.Kind(), b.Kind())}
	}
}

func numberCompare(pred func(cmp int) bool) func(args []object.Value) (object.Value, error) {
	return func(args []object.Value) (object.Value, error) {
		if len(args) != 2 {
			return nil, arityErr("comparison", 2, len(args))
		}
		a, ok1 := args[0].(object.Number)
		b, ok2 := args[1].(object.Number)
		if !ok1 || !ok2 {
			return nil, &TypeError{Msg: "comparison operators require two numbers"}
		}
		return object.ToBoolean(pred(a.Cmp(b))), nil
	}
}

func numberFold(name string, op func(acc, v object.Number) object.Number) func(args []object.Value) (object.Value, error) {
	return func(args []object.Value) (object.Value, error) {
		if len(args) == 0 {
			return nil, arityErr(name, 1, 0)
		}
		acc, ok := args[0].(object.Number)
		if !ok {
			return nil, &TypeError{Msg: fmt.Sprintf("%s requires numbers, got a %s", name, args[0].Kind())}
		}
		for _, a := range args[1:] {
			n, ok := a.(object.Number)
			if !ok {
				return nil, &TypeError{Msg: fmt.Sprintf("%s requires numbers, got a %s", name, a.Kind())}
			}
			acc = op(acc, n)
		}
		return acc, nil
	}
}

// decimalPrecision bounds "/"'s result precision for divisions that
// do not terminate exactly (e.g. 1/3); everything else in the
// language's arithmetic is exact.
const decimalPrecision = 50

func power(acc, v object.Number) object.Number {
	exp, ok := v.Int64()
	if !ok || exp < 0 {
		// non-integer / negative exponents are outside this
		// implementation's scope; fall back to returning the base
		// unchanged rather than panicking, the caller sees this as a
		// no-op exponentiation.
		return acc
	}
	result := object.NewNumberFromInt64(1)
	for n := int64(0); n < exp; n++ {
		result = object.Number{D: new(decimal.Big).Mul(result.D, acc.D)}
	}
	return result
}
