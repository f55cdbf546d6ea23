// Package assets embeds the prelude source and the C runtime header
// shipped with the toolchain, the way the teacher's own bundle feature
// embeds resources into the binary with go:embed.
package assets

import _ "embed"

// Stdlib is the F-language prelude evaluated before every program.
//
//go:embed stdlib.f
var Stdlib string

// CRuntime is the hand-written runtime header the C emitter's output
// is compiled against (SPEC_FULL.md §4.3/§6.2): the f_object
// representation, list/sublist/call/callable helpers, and the
// operator and builtin dispatch tables.
//
//go:embed f_runtime.c
var CRuntime string
