// Package synth is the traversal synthesizer of spec.md §4.8: it turns a
// scheduled fusion candidate into source text for the two fused function
// variants ("_parallel"/"_serial"); stubs.go can also render per-subtype
// virtual dispatch stubs. The replacement call at the original call site is
// built by internal/driver, not here.
//
// Rather than building the C++ source by string concatenation the way the
// original implementation does, generated code is first assembled into a
// small typed IR (Function/Param/Stmt/Block, per spec.md §9's "small typed
// IR" design note) and only the leaves are rendered to text; render.go then
// hands the assembled source through go/format to canonicalize it, so the
// synthesizer never hand-escapes Go syntax.
package synth

import "go/ast"

// Param is one function parameter: a hoisted callee parameter (prefixed
// _fK_ per spec.md §4.8) or a fixed control parameter (truncateFlags,
// depth, maxDepth).
type Param struct {
	Name string
	Type string
}

// StmtKind tags the variant of a Stmt, the "tagged variant for statement
// kinds" spec.md §9 asks for in place of open inheritance.
type StmtKind int

const (
	// KindRaw wraps an original ast.Stmt, unchanged, to be printed verbatim
	// by render.go's go/printer pass.
	KindRaw StmtKind = iota
	// KindVarDecl is a hoisted local variable declaration (spec.md §4.8's
	// "local variable hoisting": `var _fK_x T`).
	KindVarDecl
	// KindGuard wraps Body in `if truncateFlags&(1<<bit) != 0 { ... }`, the
	// per-traversal activity guard.
	KindGuard
	// KindCondGuard wraps Body in `if Cond { ... }`: the original source
	// condition of a single-branch if flattenStatements pulled a statement
	// out of (spec.md §8 scenario 4's `if node.X == 0 { return }` guard),
	// re-applied around the flattened statement so it still only runs when
	// the original predicate holds.
	KindCondGuard
	// KindClearBit emits the early-return sequence `truncateFlags &^= 1 <<
	// bit`. The original's `goto _label_BiFk_Exit` is unnecessary in Go:
	// every later statement of the same traversal is already individually
	// wrapped in its own KindGuard, so clearing the bit here is sufficient
	// to skip them — and a goto jumping into those guards' blocks would be
	// illegal Go anyway.
	KindClearBit
	// KindCallGuarded emits a guarded invocation of a nested fused (or
	// unfused) callee under the activity mask OR-combined from its member
	// traversal ids.
	KindCallGuarded
	// KindSpawn forks a sibling call via pkg/fanout inside a parallel layer.
	KindSpawn
	// KindSync emits the fork-join barrier at a parallel layer's end.
	KindSync
	// KindReturn is a plain early return out of the fused function itself;
	// render.go supports it, but the synthesizer does not emit it.
	KindReturn
	// KindText is an escape hatch for a single already-formatted line (kept
	// to a minimum; most scaffolding uses a dedicated Kind above).
	KindText
)

// Stmt is one IR statement node. Only the fields relevant to Kind are
// populated; render.go's emit switch is a total match over Kind.
type Stmt struct {
	Kind StmtKind

	Raw ast.Stmt // KindRaw

	VarName, VarType string // KindVarDecl

	GuardBit int    // KindGuard / KindClearBit: 1<<bit tested/cleared
	Body     []Stmt // KindGuard / KindCondGuard: guarded body

	Cond string // KindCondGuard: rendered source-condition text

	CallExpr     string // KindCallGuarded / KindSpawn: fully-rendered call text
	ActivityMask string // KindCallGuarded: textual expression for the nested truncateFlags

	Text string // KindText
}

// Function is the IR for one fused function variant (parallel or serial).
type Function struct {
	Name     string
	Receiver Param   // the shared root parameter (e.g. `_r *Node`)
	Params   []Param // hoisted per-callee parameters, receiver dropped
	Extra    []Param // depth/maxDepth for the parallel variant, nil for serial
	Body     []Stmt
}
