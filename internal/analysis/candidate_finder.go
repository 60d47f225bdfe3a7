package analysis

import "github.com/viant/treefuse/internal/model"

// Candidate is a maximal contiguous run (length >= 2) of compatible calls
// found in one function's body, eligible for fusion (spec.md §3, §4.5).
type Candidate struct {
	Owner      *model.Function
	Statements []*model.Statement
}

// CandidateFinder scans a function body for maximal runs of consecutive
// compatible calls.
type CandidateFinder struct {
	functions map[string]*model.Function
}

// NewCandidateFinder builds a finder able to check callee validity against
// the full set of analyzed functions in the translation unit.
func NewCandidateFinder(functions []*model.Function) *CandidateFinder {
	byName := map[string]*model.Function{}
	for _, fn := range functions {
		byName[fn.Name] = fn
	}
	return &CandidateFinder{functions: byName}
}

// Find scans fn's top-level statements and returns every maximal run of two
// or more consecutive compatible calls. A call flattened out of an `if`
// guard (GuardCond != nil) is not top-level and ends the current run.
func (cf *CandidateFinder) Find(fn *model.Function) []Candidate {
	var out []Candidate
	var run []*model.Statement

	closeRun := func() {
		if len(run) >= 2 {
			out = append(out, Candidate{Owner: fn, Statements: append([]*model.Statement(nil), run...)})
		}
		run = nil
	}

	for _, s := range fn.Statements {
		if !s.IsCall || s.GuardCond != nil {
			closeRun()
			continue
		}
		if len(run) == 0 {
			run = append(run, s)
			continue
		}
		if cf.compatible(run[0], s) {
			run = append(run, s)
		} else {
			closeRun()
			run = append(run, s)
		}
	}
	closeRun()
	return out
}

// compatible implements spec.md §4.5: both callees must be valid fusion
// targets, and the visited-child path extracted from the receiver/first
// argument must have identical length and field sequence.
func (cf *CandidateFinder) compatible(a, b *model.Statement) bool {
	if !cf.validTarget(a) || !cf.validTarget(b) {
		return false
	}
	if len(a.CalledChildPath) != len(b.CalledChildPath) {
		return false
	}
	for i := range a.CalledChildPath {
		if a.CalledChildPath[i] != b.CalledChildPath[i] {
			return false
		}
	}
	return true
}

// validTarget reports whether s calls a known, fusion-valid traversal
// function; an unknown callee (opaque/strict call) or one the function
// analyzer flagged as invalid-for-fusion is never part of a candidate.
func (cf *CandidateFinder) validTarget(s *model.Statement) bool {
	if !s.IsCall {
		return false
	}
	callee, ok := cf.functions[s.Callee]
	if !ok {
		return false
	}
	return callee.ValidForFusion
}
