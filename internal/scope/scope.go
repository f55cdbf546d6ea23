// Package scope performs the compile-time name resolution the C
// emitter needs before it can decide, for each CodeBlock, which names
// are locals (declared by an Assignment or parameter inside it), which
// are captured from an enclosing CodeBlock (and must therefore appear
// in its "_outer_*" struct), and which are resolved all the way out to
// a builtin. This mirrors the reference compiler's own FAST/Scope pass
// (original_source's fast.py): a single walk that builds a Scope tree
// shaped like the CodeBlock nesting, then a second pass that computes,
// per Scope, the outer() set its emitted C struct must carry.
package scope

import (
	"fmt"
	"sort"

	"github.com/fvm-lang/f/internal/ast"
)

// Kind classifies where a NameReference ultimately resolves.
type Kind int

const (
	// Local names are assigned or declared as a parameter within the
	// Scope itself.
	Local Kind = iota
	// Outer names are defined in an enclosing Scope and must be
	// threaded through via that Scope's captured-outer record.
	Outer
	// Builtin names are not defined anywhere in the program; they
	// resolve to the runtime's builtin/global registry.
	Builtin
)

func (k Kind) String() string {
	switch k {
	case Local:
		return "local"
	case Outer:
		return "outer"
	case Builtin:
		return "builtin"
	default:
		return "unknown"
	}
}

// NameReference records one resolved use of a name within a Scope.
type NameReference struct {
	Name string
	Kind Kind
}

// Scope is one CodeBlock's (or the Module's) compile-time name table.
// defined holds names this Scope itself introduces; used holds every
// name this Scope reads, plus (once New has run) every name a nested
// Scope captures from outside itself.
type Scope struct {
	Node     ast.Node
	parent   *Scope
	children []*Scope

	defined map[string]bool
	used    map[string]bool

	// Outer holds, after New, the names this Scope reads that are
	// not its own locals and not builtins — the set its emitted C
	// struct _outer_* must carry one field per entry of.
	Outer []string
}

var globalNames = map[string]bool{}

// RegisterGlobal marks name as resolvable at the outermost scope
// without being "outer" captured — every builtin and the "null",
// "true", "false" constants NewGlobalFrame binds (interp.NewGlobalFrame)
// are registered once, at analyzer construction, via RegisterBuiltins.
func RegisterGlobal(name string) {
	globalNames[name] = true
}

// RegisterBuiltins registers every name in names as a program-global,
// builtin-resolving name. Called once with the interpreter's builtin
// registry (plus "null"/"true"/"false") before analyzing a module, so
// the analyzer and the runtime agree on what counts as a builtin.
func RegisterBuiltins(names []string) {
	for _, n := range names {
		RegisterGlobal(n)
	}
}

// New builds the root Scope for a parsed Module. The module's root
// always defines "...", matching cmd/f binding the command-line
// argument list under that name in the global frame before prelude and
// program statements run (SPEC_FULL.md §6.4).
func New(module *ast.Module) *Scope {
	root := newScope(module, nil)
	root.defined["..."] = true
	v := &walker{current: root}
	for _, stmt := range module.Statements {
		stmt.Accept(v)
	}
	root.resolveOuter()
	return root
}

// DefinedNames returns, in stable sorted order, every name this Scope
// itself introduces (parameters and assigned names) — the field list
// the emitted "struct _self_<fn>" declares one f_object per name of.
func (s *Scope) DefinedNames() []string {
	names := make([]string, 0, len(s.defined))
	for n := range s.defined {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func newScope(node ast.Node, parent *Scope) *Scope {
	s := &Scope{
		Node:    node,
		parent:  parent,
		defined: map[string]bool{},
		used:    map[string]bool{},
	}
	if parent != nil {
		parent.children = append(parent.children, s)
	}
	return s
}

// Resolve classifies a single name as read from within s.
func (s *Scope) Resolve(name string) NameReference {
	if s.defined[name] {
		return NameReference{Name: name, Kind: Local}
	}
	for p := s.parent; p != nil; p = p.parent {
		if p.defined[name] {
			return NameReference{Name: name, Kind: Outer}
		}
	}
	if globalNames[name] {
		return NameReference{Name: name, Kind: Builtin}
	}
	// Unregistered and undefined: still an Outer reference as far as
	// capture analysis is concerned, since it may be a forward
	// reference to a module-level binding assigned later at runtime.
	return NameReference{Name: name, Kind: Outer}
}

// resolveOuter computes, for this Scope and every descendant, the set
// of names it reads that resolve to an enclosing Scope rather than to
// itself or to a builtin — the outer() computation from fast.py.
// Children are resolved first and their Outer names added to s.used,
// so a name captured from further out is threaded through every
// Scope in between.
func (s *Scope) resolveOuter() {
	for _, c := range s.children {
		c.resolveOuter()
		for _, name := range c.Outer {
			s.used[name] = true
		}
	}
	seen := map[string]bool{}
	for name := range s.used {
		if s.defined[name] {
			continue
		}
		if globalNames[name] {
			continue
		}
		if !seen[name] {
			seen[name] = true
			s.Outer = append(s.Outer, name)
		}
	}
}

// walker implements ast.Visitor, descending into nested CodeBlocks
// with a fresh child Scope and recording every Name read and every
// Assignment/Parameter introduced along the way.
type walker struct {
	current *Scope
}

func (w *walker) VisitModule(n *ast.Module) {
	for _, s := range n.Statements {
		s.Accept(w)
	}
}

func (w *walker) VisitNumber(n *ast.Number) {}

func (w *walker) VisitString(n *ast.String) {}

func (w *walker) VisitName(n *ast.Name) {
	w.current.used[n.Value] = true
}

func (w *walker) VisitCall(n *ast.Call) {
	n.Fn.Accept(w)
	for _, a := range n.Args {
		a.Accept(w)
	}
}

func (w *walker) VisitList(n *ast.List) {
	for _, item := range n.Items {
		item.Accept(w)
	}
}

func (w *walker) VisitVariadic(n *ast.Variadic) {
	n.Expr.Accept(w)
}

func (w *walker) VisitCodeBlock(n *ast.CodeBlock) {
	child := newScope(n, w.current)
	for _, p := range n.Params {
		name := p.Name
		if p.Variadic && name == "" {
			name = "..."
		}
		if name != "" {
			child.defined[name] = true
		}
	}
	inner := &walker{current: child}
	for _, s := range n.Statements {
		s.Accept(inner)
	}
	if n.Return != nil {
		n.Return.Accept(inner)
	}
}

func (w *walker) VisitAssignment(n *ast.Assignment) {
	w.current.defined[n.Name] = true
	n.Value.Accept(w)
}

// Lookup finds the Scope that a given CodeBlock or Module node was
// assigned during New, for callers (the transpiler) that walk the AST
// a second time and need each node's resolved Scope. Scope trees are
// small enough for this linear walk to be unremarkable.
func Lookup(root *Scope, node ast.Node) (*Scope, error) {
	if root.Node == node {
		return root, nil
	}
	for _, c := range root.children {
		if found, err := Lookup(c, node); err == nil {
			return found, nil
		}
	}
	return nil, fmt.Errorf("scope: no Scope recorded for node %T", node)
}
