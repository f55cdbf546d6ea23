// Package transpile lowers a parsed Module into a single C translation
// unit that, compiled and linked against assets.CRuntime by
// internal/toolchain, reproduces the program's behavior natively
// (SPEC_FULL.md §4.3). It is the hard-core counterpart of internal/interp:
// where interp walks the AST directly against object.Frame, transpile
// walks it once more against the internal/scope analysis and emits C
// source text that performs the same evaluation using f_object values
// and the runtime's call/callable/list helpers.
//
// Grounded on the reference compiler's own two-file split (fast.py for
// scope/outer-record computation, c_compiler.py for emission): every
// CodeBlock becomes one C function taking its resolved "_outer_*"
// struct and an f_object args list, and every nested CodeBlock literal
// becomes a callable() expression, which heap-copies a snapshot of the
// captured names taken from the enclosing function.
package transpile

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fvm-lang/f/internal/ast"
	"github.com/fvm-lang/f/internal/scope"
)

// operatorNames maps the lexeme the parser attaches to an infix
// Call's Fn (a *ast.Name) to the runtime's operators.<field> dispatch,
// mirroring f_runtime.c's operators_table.
var operatorNames = map[string]string{
	"+": "add",
	"-": "sub",
	"*": "mul",
	"/": "div",
	">": "gt",
	"<": "lt",
}

// builtinNames lists builtins the runtime provides a direct C
// function for (f_runtime.c's builtins_table); anything else still
// resolves through the generic call() path against the interpreter's
// registry semantics, since the runtime only hand-implements the
// handful exercised by generated code in practice.
var builtinNames = map[string]bool{
	"print":  true,
	"length": true,
}

// Emitter accumulates the C source for one module.
type Emitter struct {
	root    *scope.Scope
	buf     strings.Builder
	fnCount int
	fnNames map[ast.Node]string

	// currentScope is the Scope of the CodeBlock (or, at top level, the
	// Module) whose body is currently being emitted. emitExpr's Name
	// and Assignment cases consult it to resolve a name to its "self."
	// field, its "outer->" field, or a bare builtin/global identifier.
	currentScope *scope.Scope
}

// mainSelfName is the struct _self_<name> suffix used for the
// top-level module body, which has no CodeBlock node of its own.
const mainSelfName = "main"

// New creates an Emitter for a module already analyzed by scope.New.
func New(root *scope.Scope) *Emitter {
	return &Emitter{root: root, fnNames: map[ast.Node]string{}}
}

// Emit produces the full translation unit for module: the runtime
// header's contents, forward declarations for every CodeBlock turned
// function, each function body, and a main() that evaluates the
// module's top-level statements in order.
func Emit(module *ast.Module, root *scope.Scope, runtimeHeader string) (string, error) {
	e := New(root)
	e.assignNames(module)

	var out strings.Builder
	out.WriteString(runtimeHeader)
	out.WriteString("\n/* ---- generated translation unit ---- */\n\n")

	if err := e.emitForwardDecls(module); err != nil {
		return "", err
	}
	out.WriteString(e.buf.String())
	e.buf.Reset()

	if err := e.emitCodeBlockFns(module); err != nil {
		return "", err
	}
	out.WriteString(e.buf.String())
	e.buf.Reset()

	if err := e.emitMain(module); err != nil {
		return "", err
	}
	out.WriteString(e.buf.String())

	return out.String(), nil
}

// assignNames walks the module once, giving every nested CodeBlock a
// stable, unique C function name ("_f_fn_0", "_f_fn_1", ...) so forward
// declarations and definitions agree.
func (e *Emitter) assignNames(node ast.Node) {
	switch n := node.(type) {
	case *ast.Module:
		for _, s := range n.Statements {
			e.assignNames(s)
		}
	case *ast.Assignment:
		e.assignNames(n.Value)
	case *ast.Call:
		e.assignNames(n.Fn)
		for _, a := range n.Args {
			e.assignNames(a)
		}
	case *ast.List:
		for _, it := range n.Items {
			e.assignNames(it)
		}
	case *ast.Variadic:
		e.assignNames(n.Expr)
	case *ast.CodeBlock:
		name := fmt.Sprintf("_f_fn_%d", e.fnCount)
		e.fnCount++
		e.fnNames[n] = name
		for _, s := range n.Statements {
			e.assignNames(s)
		}
		if n.Return != nil {
			e.assignNames(n.Return)
		}
	}
}

func (e *Emitter) collectCodeBlocks(node ast.Node, out *[]*ast.CodeBlock) {
	switch n := node.(type) {
	case *ast.Module:
		for _, s := range n.Statements {
			e.collectCodeBlocks(s, out)
		}
	case *ast.Assignment:
		e.collectCodeBlocks(n.Value, out)
	case *ast.Call:
		e.collectCodeBlocks(n.Fn, out)
		for _, a := range n.Args {
			e.collectCodeBlocks(a, out)
		}
	case *ast.List:
		for _, it := range n.Items {
			e.collectCodeBlocks(it, out)
		}
	case *ast.Variadic:
		e.collectCodeBlocks(n.Expr, out)
	case *ast.CodeBlock:
		*out = append(*out, n)
		for _, s := range n.Statements {
			e.collectCodeBlocks(s, out)
		}
		if n.Return != nil {
			e.collectCodeBlocks(n.Return, out)
		}
	}
}

func (e *Emitter) emitForwardDecls(module *ast.Module) error {
	e.emitSelfStructDecl(mainSelfName, e.root)

	var blocks []*ast.CodeBlock
	e.collectCodeBlocks(module, &blocks)
	for _, cb := range blocks {
		s, err := scope.Lookup(e.root, cb)
		if err != nil {
			return err
		}
		name := e.fnNames[cb]
		if len(s.Outer) > 0 {
			fmt.Fprintf(&e.buf, "struct _outer_%s { f_object %s; };\n", name, strings.Join(prefixFields(s.Outer), ", f_object "))
		}
		e.emitSelfStructDecl(name, s)
		fmt.Fprintf(&e.buf, "f_object %s(void *outer, f_object args);\n", name)
	}
	e.buf.WriteString("\n")
	return nil
}

// emitSelfStructDecl forward-declares "struct _self_<name>", holding
// one f_object field per name s.DefinedNames reports — the storage
// for every parameter and locally-assigned name s's body references
// (SPEC_FULL.md §4.3). A Scope with no locals gets no declaration;
// nothing ever needs one.
func (e *Emitter) emitSelfStructDecl(name string, s *scope.Scope) {
	fields := s.DefinedNames()
	if len(fields) == 0 {
		return
	}
	fmt.Fprintf(&e.buf, "struct _self_%s { f_object %s; };\n", name, strings.Join(prefixFields(fields), ", f_object "))
}

func prefixFields(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = sanitize(n)
	}
	return out
}

// sanitize maps an F identifier to a legal C identifier. F names are
// already restricted to letters, digits, and a few punctuation marks
// the lexer treats as NAME runs, so only the symbols C forbids in
// identifiers need rewriting.
func sanitize(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			fmt.Fprintf(&b, "_%d", r)
		}
	}
	return b.String()
}

func (e *Emitter) emitCodeBlockFns(module *ast.Module) error {
	var blocks []*ast.CodeBlock
	e.collectCodeBlocks(module, &blocks)
	for _, cb := range blocks {
		if err := e.emitCodeBlockFn(cb); err != nil {
			return err
		}
	}
	return nil
}

func (e *Emitter) emitCodeBlockFn(cb *ast.CodeBlock) error {
	s, err := scope.Lookup(e.root, cb)
	if err != nil {
		return err
	}
	name := e.fnNames[cb]
	outerType := "void"
	if len(s.Outer) > 0 {
		outerType = "struct _outer_" + name
	}
	fmt.Fprintf(&e.buf, "f_object %s(void *outer_raw, f_object args) {\n", name)
	if len(s.Outer) > 0 {
		fmt.Fprintf(&e.buf, "    %s *outer = (%s *)outer_raw;\n", outerType, outerType)
	}
	if len(s.DefinedNames()) > 0 {
		fmt.Fprintf(&e.buf, "    struct _self_%s self = {0};\n", name)
	}

	prevScope := e.currentScope
	e.currentScope = s
	defer func() { e.currentScope = prevScope }()

	varIdx := -1
	for idx, p := range cb.Params {
		if p.Variadic {
			varIdx = idx
			break
		}
	}
	if varIdx == -1 {
		for idx, p := range cb.Params {
			if p.Name == "" {
				continue
			}
			fmt.Fprintf(&e.buf, "    self.%s = args.as.list->items[%d];\n", sanitize(p.Name), idx)
		}
	} else {
		for idx := 0; idx < varIdx; idx++ {
			p := cb.Params[idx]
			if p.Name == "" {
				continue
			}
			fmt.Fprintf(&e.buf, "    self.%s = args.as.list->items[%d];\n", sanitize(p.Name), idx)
		}
		post := cb.Params[varIdx+1:]
		for idx, p := range post {
			if p.Name == "" {
				continue
			}
			fmt.Fprintf(&e.buf, "    self.%s = args.as.list->items[args.as.list->count - %d];\n", sanitize(p.Name), len(post)-idx)
		}
		varName := cb.Params[varIdx].Name
		if varName == "" {
			varName = "..."
		}
		fmt.Fprintf(&e.buf, "    self.%s = sublist(args, %d);\n", sanitize(varName), varIdx)
	}

	for _, stmt := range cb.Statements {
		expr, err := e.emitExpr(stmt)
		if err != nil {
			return err
		}
		fmt.Fprintf(&e.buf, "    %s;\n", expr)
	}
	if cb.Return == nil {
		e.buf.WriteString("    return f_null();\n")
	} else {
		expr, err := e.emitExpr(cb.Return)
		if err != nil {
			return err
		}
		fmt.Fprintf(&e.buf, "    return %s;\n", expr)
	}
	e.buf.WriteString("}\n\n")
	return nil
}

func (e *Emitter) emitMain(module *ast.Module) error {
	e.buf.WriteString("int main(int argc, char **argv) {\n    setup();\n")
	if len(e.root.DefinedNames()) > 0 {
		fmt.Fprintf(&e.buf, "    struct _self_%s self = {0};\n", mainSelfName)
	}

	// The top-level "..." binding (SPEC_FULL.md §6.4) is always defined
	// on the root Scope (see scope.New), so it always has a self field
	// to fill in from the process's own argv.
	dots := sanitize("...")
	e.buf.WriteString("    {\n")
	fmt.Fprintf(&e.buf, "        f_object *%s_items = malloc(sizeof(f_object) * (argc > 1 ? (size_t)(argc - 1) : 1));\n", dots)
	fmt.Fprintf(&e.buf, "        int %s_n = argc > 1 ? argc - 1 : 0;\n", dots)
	fmt.Fprintf(&e.buf, "        for (int i = 1; i < argc; i++) { %s_items[i - 1] = string(argv[i]); }\n", dots)
	fmt.Fprintf(&e.buf, "        self.%s = list_v(%s_items, %s_n);\n", dots, dots, dots)
	e.buf.WriteString("    }\n")

	e.currentScope = e.root
	for _, stmt := range module.Statements {
		expr, err := e.emitExpr(stmt)
		if err != nil {
			return err
		}
		fmt.Fprintf(&e.buf, "    %s;\n", expr)
	}
	e.buf.WriteString("    return 0;\n}\n")
	return nil
}

// emitExpr renders node as a single C expression string. Statement
// separation (the structural ";") is handled by the caller emitting
// one statement per line; a bare parenthesized sequence's explicit
// Call(";", ...) node (SPEC_FULL.md §4.0) lowers to C's own comma
// operator, since both mean "evaluate left, discard it, evaluate
// right".
func (e *Emitter) emitExpr(node ast.Node) (string, error) {
	switch n := node.(type) {
	case *ast.Number:
		return fmt.Sprintf("number(%s)", n.Lexeme), nil
	case *ast.String:
		return fmt.Sprintf("string(%s)", strconv.Quote(n.Value)), nil
	case *ast.Name:
		switch n.Value {
		case "null":
			return "f_null()", nil
		case "true":
			return "f_bool(1)", nil
		case "false":
			return "f_bool(0)", nil
		}
		return e.resolveName(n.Value), nil
	case *ast.Assignment:
		rhs, err := e.emitExpr(n.Value)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(%s = %s)", e.resolveName(n.Name), rhs), nil
	case *ast.List:
		return e.emitListLiteral(n)
	case *ast.CodeBlock:
		return e.emitClosureLiteral(n)
	case *ast.Call:
		return e.emitCall(n)
	case *ast.Variadic:
		return "", fmt.Errorf("transpile: bare \"...\" outside argument position")
	default:
		return "", fmt.Errorf("transpile: unhandled node type %T", node)
	}
}

// resolveName renders a read (or, for Assignment, a write target) of
// name from within the CodeBlock/Module currently being emitted: a
// "self." field for a local, an "outer->" field for a captured name,
// or the bare sanitized identifier for anything builtins/global
// dispatch resolves directly (an Assignment target always resolves
// Local, since the analyzer records it as defined in its own Scope).
func (e *Emitter) resolveName(name string) string {
	if e.currentScope != nil {
		switch e.currentScope.Resolve(name).Kind {
		case scope.Local:
			return "self." + sanitize(name)
		case scope.Outer:
			return "outer->" + sanitize(name)
		}
	}
	return sanitize(name)
}

func (e *Emitter) emitListLiteral(n *ast.List) (string, error) {
	parts := make([]string, len(n.Items))
	for i, item := range n.Items {
		if va, ok := item.(*ast.Variadic); ok {
			inner, err := e.emitExpr(va.Expr)
			if err != nil {
				return "", err
			}
			parts[i] = inner
			continue
		}
		expr, err := e.emitExpr(item)
		if err != nil {
			return "", err
		}
		parts[i] = expr
	}
	return fmt.Sprintf("list(%d%s)", len(parts), commaPrefixed(parts)), nil
}

func commaPrefixed(parts []string) string {
	if len(parts) == 0 {
		return ""
	}
	return ", " + strings.Join(parts, ", ")
}

// emitClosureLiteral renders a nested CodeBlock as a callable()
// expression that heap-copies an outer-record literal holding the
// names its Scope resolved as Outer.
func (e *Emitter) emitClosureLiteral(cb *ast.CodeBlock) (string, error) {
	s, err := scope.Lookup(e.root, cb)
	if err != nil {
		return "", err
	}
	name := e.fnNames[cb]
	if len(s.Outer) == 0 {
		return fmt.Sprintf("callable(%s, NULL, 0)", name), nil
	}
	fields := make([]string, len(s.Outer))
	for i, o := range s.Outer {
		fields[i] = e.resolveName(o)
	}
	literal := fmt.Sprintf("(struct _outer_%s){ %s }", name, strings.Join(fields, ", "))
	return fmt.Sprintf("callable(%s, &%s, sizeof(%s))", name, literal, literal), nil
}

// emitCall lowers a Call node, special-casing infix operators, the
// handful of builtins the runtime implements directly, and the ";"
// sequencing form surfaced by a parenthesized statement group; every
// other callee goes through the runtime's generic call() dispatch.
func (e *Emitter) emitCall(n *ast.Call) (string, error) {
	if name, ok := n.Fn.(*ast.Name); ok {
		if name.Value == ";" && len(n.Args) == 2 {
			left, err := e.emitExpr(n.Args[0])
			if err != nil {
				return "", err
			}
			right, err := e.emitExpr(n.Args[1])
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("(%s, %s)", left, right), nil
		}
		if field, ok := operatorNames[name.Value]; ok && len(n.Args) == 2 {
			left, err := e.emitExpr(n.Args[0])
			if err != nil {
				return "", err
			}
			right, err := e.emitExpr(n.Args[1])
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("operators.%s(%s, %s)", field, left, right), nil
		}
		if builtinNames[name.Value] {
			args, err := e.emitArgsList(n.Args)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("builtins.%s(%s)", name.Value, args), nil
		}
	}
	fn, err := e.emitExpr(n.Fn)
	if err != nil {
		return "", err
	}
	args, err := e.emitArgsList(n.Args)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("call(%s, %s)", fn, args), nil
}

func (e *Emitter) emitArgsList(args []ast.Node) (string, error) {
	return e.emitListLiteral(&ast.List{Items: args})
}
