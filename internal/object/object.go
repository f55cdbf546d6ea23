// Package object defines the runtime Value model described in
// SPEC_FULL.md §3: a small tagged-variant interface with one struct
// per kind, following the same "one type per Object, methods instead
// of a class hierarchy" shape the teacher's own evaluator package
// uses, pared down to the handful of kinds the language actually has.
package object

import (
	"fmt"
	"os"
	"strings"

	"github.com/ericlagergren/decimal"
)

// Kind tags a Value's runtime type, used by builtins and error
// messages that need to report what they received.
type Kind string

const (
	NullKind      Kind = "null"
	BooleanKind   Kind = "boolean"
	NumberKind    Kind = "number"
	StringKind    Kind = "string"
	ListKind      Kind = "list"
	CodeBlockKind Kind = "code-block"
	BuiltinKind   Kind = "builtin"
	ReferenceKind Kind = "reference"
	IOHandleKind  Kind = "file"
)

// Value is any runtime value the interpreter and the closure-compiling
// backend operate on.
type Value interface {
	Kind() Kind
	Inspect() string
}

// Null is the unit value. There is exactly one instance.
type nullValue struct{}

func (nullValue) Kind() Kind      { return NullKind }
func (nullValue) Inspect() string { return "null" }

// Null is the single Null value.
var Null Value = nullValue{}

// Boolean wraps a Go bool. Like Null, the two instances are shared.
type Boolean bool

func (b Boolean) Kind() Kind { return BooleanKind }
func (b Boolean) Inspect() string {
	if b {
		return "true"
	}
	return "false"
}

// True and False are the two Boolean singletons.
var (
	True  Value = Boolean(true)
	False Value = Boolean(false)
)

// ToBoolean lifts a Go bool to the shared Boolean singletons.
func ToBoolean(b bool) Value {
	if b {
		return True
	}
	return False
}

// Truthy implements the language's truthiness rule: Null and
// Boolean(false) are falsy, every other value (including Number(0)) is
// truthy.
func Truthy(v Value) bool {
	switch v := v.(type) {
	case nullValue:
		return false
	case Boolean:
		return bool(v)
	default:
		return true
	}
}

// Number is an arbitrary-precision decimal, backed by
// github.com/ericlagergren/decimal so that decimal literals such as
// 0.1 compare and print exactly as written — a float64 cannot give the
// exact decimal equality the language's comparisons require.
type Number struct {
	D *decimal.Big
}

func (n Number) Kind() Kind       { return NumberKind }
func (n Number) Inspect() string  { return n.D.String() }

// NewNumberFromLexeme parses a numeric literal lexeme (as produced by
// the lexer) into a Number.
func NewNumberFromLexeme(lexeme string) (Number, error) {
	d := new(decimal.Big)
	if _, ok := d.SetString(lexeme); !ok {
		return Number{}, fmt.Errorf("invalid number literal %q", lexeme)
	}
	return Number{D: d}, nil
}

// NewNumberFromInt64 builds a Number from a Go integer, used by
// builtins that count (list length, reduce index, ...).
func NewNumberFromInt64(i int64) Number {
	d := new(decimal.Big)
	d.SetString(fmt.Sprintf("%d", i))
	return Number{D: d}
}

// Equal compares two numbers by exact decimal value.
func (n Number) Equal(o Number) bool { return n.D.Cmp(o.D) == 0 }

// Cmp returns -1, 0, or 1 as n is less than, equal to, or greater than o.
func (n Number) Cmp(o Number) int { return n.D.Cmp(o.D) }

// Int64 reports the integer value of n and whether n has no fractional
// part, used by list indexing builtins.
func (n Number) Int64() (int64, bool) {
	if !n.D.IsInt() {
		return 0, false
	}
	return n.D.Int64(), true
}

// String is an already-decoded Unicode string (escapes are resolved by
// the lexer before the runtime ever sees the value).
type String string

func (s String) Kind() Kind      { return StringKind }
func (s String) Inspect() string { return `"` + strings.ReplaceAll(string(s), `"`, `\"`) + `"` }

// List is a mutable-length sequence of Values. Unlike Reference, a
// List's own identity is not shared across copies — callers that want
// shared mutable state hold a Reference to a List instead.
type List struct {
	Elements []Value
}

func (l *List) Kind() Kind { return ListKind }
func (l *List) Inspect() string {
	parts := make([]string, len(l.Elements))
	for i, e := range l.Elements {
		parts[i] = e.Inspect()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Reference is the one primitive with interior mutability: a single
// mutable cell, read with "!" and written with "<-".
type Reference struct {
	Value Value
}

func (r *Reference) Kind() Kind      { return ReferenceKind }
func (r *Reference) Inspect() string { return "<reference>" }

// Builtin is a native, process-wide function registered once at
// startup and frozen thereafter (SPEC_FULL.md §4.4).
type Builtin struct {
	Name string
	Fn   func(args []Value) (Value, error)
}

func (b *Builtin) Kind() Kind      { return BuiltinKind }
func (b *Builtin) Inspect() string { return "<builtin " + b.Name + ">" }
func (b *Builtin) Call(args []Value) (Value, error) { return b.Fn(args) }

// IOHandle is the value withOpenFile passes to its action CodeBlock:
// an already-open *os.File that writeLine writes to. The file is
// closed by withOpenFile itself on every exit path, never by the
// handle (SPEC_FULL.md §5).
type IOHandle struct {
	File *os.File
}

func (h *IOHandle) Kind() Kind      { return IOHandleKind }
func (h *IOHandle) Inspect() string { return "<file " + h.File.Name() + ">" }
