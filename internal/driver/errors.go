// Package driver orchestrates one run of the engine: resolve the module,
// scan and parse translation units, find and schedule fusion candidates,
// synthesize fused functions, and commit the writeback plan (spec.md §6).
package driver

import (
	"errors"

	"github.com/viant/treefuse/internal/synth"
)

// ErrInputCompile is reported when a translation unit fails to parse; the
// run aborts and nothing is written (spec.md §7).
var ErrInputCompile = errors.New("driver: input compile error")

// ErrInvalidForFusion marks a non-fatal precondition violation: the
// function analyzer found a reason a function can never participate in
// fusion. Any candidate touching it is silently skipped.
var ErrInvalidForFusion = errors.New("driver: invalid for fusion")

// ErrPlannerInvariant is re-exported from internal/synth: a cycle or
// wrong-fuse surviving the greedy scheduler, fatal and unexpected.
var ErrPlannerInvariant = synth.ErrPlannerInvariant

// ErrUnsupportedShape is re-exported from internal/synth: an AST/IR shape
// the synthesizer has no case for, fatal and unreachable in principle.
var ErrUnsupportedShape = synth.ErrUnsupportedShape
