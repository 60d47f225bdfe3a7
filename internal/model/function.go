package model

import "go/ast"

// Function describes one analyzed traversal function or method: its
// declaration, receiver/parameter naming the traversed node, and the
// ordered statements of its body with their access-path footprints
// (populated by analysis.FunctionAnalyzer).
type Function struct {
	Name     string
	Decl     *ast.FuncDecl
	Receiver string // traversal-root parameter/receiver name, "" if none
	RecvType string // record name of the receiver/first param, if any

	Statements []*Statement

	// ValidForFusion is false when the function analyzer finds a
	// precondition violation (spec.md §7): unsupported control flow (goto,
	// labeled statements), an address-taken call site, or a missing body.
	// Any candidate touching such a function is silently skipped.
	ValidForFusion bool
	InvalidReason  string

	// IsVirtual marks a method declared to satisfy a TraversalInterface.
	// analysis.FunctionAnalyzer never sets it, so it is always false, and no
	// per-subtype fused function or stub is generated from it.
	IsVirtual bool
}

// Statement wraps one statement of a Function's body together with its
// position in the enclosing scope and, if it is a call to another analyzed
// traversal, the called-child field it descends through.
type Statement struct {
	Owner *Function
	Index int // position within the enclosing scope
	Node  ast.Stmt

	IsCall          bool
	Callee          string   // called function/method name, if IsCall
	CalledChildPath []string // field chain from the receiver/first argument
	CalledChild     *string  // last element of CalledChildPath; the tree edge merge-grouping is keyed on

	// CondDependsOn lists the earlier statements that write a path read by
	// this statement's GuardCond; set by analysis.FunctionAnalyzer's
	// attachControlDeps, used for CONTROL edges.
	CondDependsOn []*Statement

	// GuardCond is non-nil when this statement was originally nested inside
	// a single-branch `if GuardCond { ... }` (no else) that the function
	// analyzer flattened into the enclosing statement list: Node alone is
	// the inner statement, stripped of its wrapping if. Synth re-wraps it in
	// an `if GuardCond` when rendering, so the guard is still enforced.
	GuardCond ast.Expr

	Footprint Footprint

	// id is assigned by the statement-info layer and used as a stable key
	// for memoized automata; exported via ID().
	id int
}

// ID returns a stable identifier for this statement, unique among the
// statements of the StatementInfo that assigned it the first time it was
// requested.
func (s *Statement) ID() int { return s.id }

// SetID is used only by analysis.StatementInfo during assignment.
func (s *Statement) SetID(id int) { s.id = id }
