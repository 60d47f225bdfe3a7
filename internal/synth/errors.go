package synth

import "errors"

// ErrUnsupportedShape is the synthesizer's fatal, unreachable-class error
// of spec.md §7: an IR node or AST shape the synthesizer has no case for.
var ErrUnsupportedShape = errors.New("synth: unsupported shape")

// ErrPlannerInvariant is the fatal "bug" error of spec.md §7: a cycle or
// wrong-fuse surviving the greedy scheduler's cap/rollback loop.
var ErrPlannerInvariant = errors.New("synth: planner invariant breach")
