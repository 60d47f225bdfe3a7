package analysis

import (
	"github.com/viant/treefuse/internal/model"
	"github.com/viant/treefuse/internal/pathspace"
)

// Automata bundles every automaton the dependence builder needs for one
// statement: the base local/global/tree read and write automata, plus
// extended tree/global automata for call statements (spec.md §2, §4.2).
type Automata struct {
	LocalRead, LocalWrite   *pathspace.Automaton
	GlobalRead, GlobalWrite *pathspace.Automaton
	TreeRead, TreeWrite     *pathspace.Automaton

	ExtendedTreeRead, ExtendedTreeWrite     *pathspace.Automaton
	ExtendedGlobalRead, ExtendedGlobalWrite *pathspace.Automaton
}

// StatementInfo lazily builds and memoizes the Automata for each statement
// of a translation unit, and assigns each statement an ID, unique within
// this StatementInfo, the first time it is requested.
type StatementInfo struct {
	table  *pathspace.SymbolTable
	byName map[string][]*model.Function // callee name -> every function with that name (virtual dispatch set)
	cache  map[*model.Statement]*Automata
	nextID int
}

// NewStatementInfo builds a StatementInfo over the given symbol table and
// the full set of analyzed functions in the translation unit (needed to
// resolve callees when lifting extended call footprints). Recursive
// traversals are handled without unbounded unrolling: Get publishes a
// statement's Automata to the cache before recursing into its extended
// footprint, so a cycle back to the same statement observes the
// (not-yet-extended) base automata instead of looping — the memoization
// spec.md §4.2 asks for "a state per function analyzer".
func NewStatementInfo(table *pathspace.SymbolTable, functions []*model.Function) *StatementInfo {
	byName := map[string][]*model.Function{}
	for _, fn := range functions {
		byName[fn.Name] = append(byName[fn.Name], fn)
	}
	return &StatementInfo{
		table:  table,
		byName: byName,
		cache:  map[*model.Statement]*Automata{},
	}
}

// Get returns the (possibly cached) Automata bundle for s, assigning s its
// stable ID on first access.
func (si *StatementInfo) Get(s *model.Statement) *Automata {
	if s.ID() == 0 {
		si.nextID++
		s.SetID(si.nextID)
	}
	if a, ok := si.cache[s]; ok {
		return a
	}
	a := si.base(s)
	si.cache[s] = a // publish before recursing into extended footprints to break cycles
	if s.IsCall {
		si.extend(s, a)
	}
	return a
}

func (si *StatementInfo) base(s *model.Statement) *Automata {
	reads, writes := s.Footprint.Reads, s.Footprint.Writes
	return &Automata{
		LocalRead:   unionReads(si.table, model.ByKind(reads, pathspace.Local)),
		LocalWrite:  unionWrites(si.table, model.ByKind(writes, pathspace.Local)),
		GlobalRead:  unionReads(si.table, model.ByKind(reads, pathspace.Global)),
		GlobalWrite: unionWrites(si.table, model.ByKind(writes, pathspace.Global)),
		TreeRead:    unionReads(si.table, append(model.ByKind(reads, pathspace.OnTree), model.ByKind(reads, pathspace.Strict)...)),
		TreeWrite:   unionWrites(si.table, append(append(model.ByKind(writes, pathspace.OnTree), model.ByKind(writes, pathspace.Strict)...), s.Footprint.Replaces...)),
	}
}

// extend builds the extended tree/global automata of a call statement by
// lifting the resolved callees' footprints under the called edge (spec.md
// §4.2). Virtual dispatch is modeled by resolving every function sharing
// the callee's name: a name with one match is monomorphic, more than one is
// a virtual call whose footprints are all unioned in.
func (si *StatementInfo) extend(s *model.Statement, a *Automata) {
	callees := si.byName[s.Callee]
	rootLabel := pathspace.ROOT
	var pathLabels []pathspace.Label
	for _, step := range s.CalledChildPath {
		pathLabels = append(pathLabels, si.table.FieldLabel(step))
	}

	treeRead, treeWrite := a.TreeRead, a.TreeWrite
	globalRead, globalWrite := a.GlobalRead, a.GlobalWrite

	for _, callee := range callees {
		for _, inner := range callee.Statements {
			ia := si.Get(inner)
			treeRead = pathspace.Union(treeRead, pathspace.Prefix(si.table, rootLabel, pathLabels, effectiveTreeRead(inner, ia)))
			treeWrite = pathspace.Union(treeWrite, pathspace.Prefix(si.table, rootLabel, pathLabels, effectiveTreeWrite(inner, ia)))
			// Globals are not addressed through the tree spine: no
			// path-lifting, just a flat union of the callees' own global
			// automata (spec.md §4.2, last paragraph).
			globalRead = pathspace.Union(globalRead, ia.GlobalRead)
			globalWrite = pathspace.Union(globalWrite, ia.GlobalWrite)
		}
	}

	a.ExtendedTreeRead, a.ExtendedTreeWrite = treeRead, treeWrite
	a.ExtendedGlobalRead, a.ExtendedGlobalWrite = globalRead, globalWrite
}

// effectiveTreeRead/Write pick the extended automaton when the inner
// statement is itself a call (so its own nested calls' effects are already
// folded in), or the base automaton otherwise.
func effectiveTreeRead(s *model.Statement, a *Automata) *pathspace.Automaton {
	if s.IsCall && a.ExtendedTreeRead != nil {
		return a.ExtendedTreeRead
	}
	return a.TreeRead
}

func effectiveTreeWrite(s *model.Statement, a *Automata) *pathspace.Automaton {
	if s.IsCall && a.ExtendedTreeWrite != nil {
		return a.ExtendedTreeWrite
	}
	return a.TreeWrite
}

func unionReads(t *pathspace.SymbolTable, paths []pathspace.AccessPath) *pathspace.Automaton {
	out := pathspace.NewAutomaton()
	for _, p := range paths {
		out = pathspace.Union(out, pathspace.ReadAutomaton(t, p))
	}
	return out
}

func unionWrites(t *pathspace.SymbolTable, paths []pathspace.AccessPath) *pathspace.Automaton {
	out := pathspace.NewAutomaton()
	for _, p := range paths {
		out = pathspace.Union(out, pathspace.WriteAutomaton(t, p))
	}
	return out
}
