package pathspace

import (
	"fmt"
	"sort"
	"strings"
)

// State is a node in an Automaton's state graph.
type State int

// Automaton is a small NFA over the shared Label alphabet. Acceptance is
// queried relative to a single explicit start state (NFAs here never need
// more than one, since every automaton is built fresh for one AccessPath or
// one union/intersection of such).
type Automaton struct {
	numStates int
	start     State
	final     map[State]bool
	trans     map[State]map[Label][]State
}

// NewAutomaton returns an automaton with a single, non-final start state.
func NewAutomaton() *Automaton {
	a := &Automaton{final: map[State]bool{}, trans: map[State]map[Label][]State{}}
	a.start = a.AddState()
	return a
}

// AddState allocates and returns a new state.
func (a *Automaton) AddState() State {
	s := State(a.numStates)
	a.numStates++
	a.trans[s] = map[Label][]State{}
	return s
}

// SetFinal marks s as accepting.
func (a *Automaton) SetFinal(s State) { a.final[s] = true }

// Start returns the automaton's start state.
func (a *Automaton) Start() State { return a.start }

// AddArc adds a transition from src to dst over label.
func (a *Automaton) AddArc(src, dst State, label Label) {
	a.trans[src][label] = append(a.trans[src][label], dst)
}

// AddEpsilon is a convenience for AddArc(src, dst, EPS).
func (a *Automaton) AddEpsilon(src, dst State) { a.AddArc(src, dst, EPS) }

// epsilonClosure returns every state reachable from s (inclusive) using
// only EPS transitions.
func (a *Automaton) epsilonClosure(s State) map[State]bool {
	closure := map[State]bool{s: true}
	stack := []State{s}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, dst := range a.trans[cur][EPS] {
			if !closure[dst] {
				closure[dst] = true
				stack = append(stack, dst)
			}
		}
	}
	return closure
}

// reachable returns every state reachable from the start state over any
// transition, used by IsEmpty.
func (a *Automaton) reachable() map[State]bool {
	seen := map[State]bool{}
	stack := []State{a.start}
	seen[a.start] = true
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, dsts := range a.trans[cur] {
			for _, d := range dsts {
				if !seen[d] {
					seen[d] = true
					stack = append(stack, d)
				}
			}
		}
	}
	return seen
}

// IsEmpty reports whether the automaton accepts no string: true iff no
// final state is reachable from the start state (through epsilon closures
// included, since reachable() already follows EPS arcs like any other).
func (a *Automaton) IsEmpty() bool {
	return !a.hasReachableFinal()
}

func (a *Automaton) hasReachableFinal() bool {
	for s := range a.reachable() {
		if a.final[s] {
			return true
		}
	}
	return false
}

// Union returns a new automaton accepting the union of the languages of a
// and b: a fresh start state epsilon-connected to both operands' starts.
func Union(a, b *Automaton) *Automaton {
	out := NewAutomaton()
	offsetA := out.importFrom(a)
	offsetB := out.importFrom(b)
	out.AddEpsilon(out.start, offsetA[a.start])
	out.AddEpsilon(out.start, offsetB[b.start])
	return out
}

// importFrom copies every state/transition of src into dst, returning the
// src-state -> dst-state remapping so callers can wire up the copied
// fragment's entry point.
func (dst *Automaton) importFrom(src *Automaton) map[State]State {
	remap := make(map[State]State, src.numStates)
	for s := State(0); s < State(src.numStates); s++ {
		remap[s] = dst.AddState()
	}
	for s := State(0); s < State(src.numStates); s++ {
		if src.final[s] {
			dst.SetFinal(remap[s])
		}
		for label, dsts := range src.trans[s] {
			for _, d := range dsts {
				dst.AddArc(remap[s], remap[d], label)
			}
		}
	}
	return remap
}

// pairState names a product state as the pair of operand states it
// represents, for the intersection construction below.
type pairState struct{ a, b State }

// Intersect returns a new automaton accepting the intersection of the
// languages of a and b via the standard product construction, epsilon
// transitions handled by closing over them before matching real labels.
func Intersect(a, b *Automaton) *Automaton {
	out := NewAutomaton()
	index := map[pairState]State{}
	var ensure func(p pairState) State
	ensure = func(p pairState) State {
		if s, ok := index[p]; ok {
			return s
		}
		s := out.AddState()
		index[p] = s
		if a.final[p.a] && b.final[p.b] {
			out.SetFinal(s)
		}
		return s
	}

	startPair := pairState{a.start, b.start}
	startState := ensure(startPair)
	// out.start was pre-allocated by NewAutomaton; fold it into the pair.
	out.final[out.start] = out.final[out.start] || (a.final[a.start] && b.final[b.start])
	index[startPair] = out.start
	_ = startState

	type task struct {
		p pairState
		s State
	}
	queue := []task{{startPair, out.start}}
	visited := map[pairState]bool{startPair: true}

	for len(queue) > 0 {
		t := queue[0]
		queue = queue[1:]

		closureA := a.epsilonClosure(t.p.a)
		closureB := b.epsilonClosure(t.p.b)

		labels := map[Label]bool{}
		for ca := range closureA {
			for l := range a.trans[ca] {
				if l != EPS {
					labels[l] = true
				}
			}
		}

		for l := range labels {
			var nextAs, nextBs []State
			for ca := range closureA {
				nextAs = append(nextAs, a.trans[ca][l]...)
			}
			for cb := range closureB {
				nextBs = append(nextBs, b.trans[cb][l]...)
			}
			if len(nextAs) == 0 || len(nextBs) == 0 {
				continue
			}
			for _, na := range nextAs {
				for _, nb := range nextBs {
					np := pairState{na, nb}
					ns := ensure(np)
					out.AddArc(t.s, ns, l)
					if !visited[np] {
						visited[np] = true
						queue = append(queue, task{np, ns})
					}
				}
			}
		}
	}
	return out
}

// HasNonEmptyIntersection reports whether a and b share at least one
// accepted string; the core dependence-edge test of §4.3.
func HasNonEmptyIntersection(a, b *Automaton) bool {
	return !Intersect(a, b).IsEmpty()
}

// AnyClosureAutomata returns Sigma* over every label currently known to the
// symbol table: a single state, self-looping on every label, both start and
// final. Built fresh from the table each call since the table grows
// monotonically and a cached copy would go stale the moment a new field is
// analyzed.
func AnyClosureAutomata(t *SymbolTable) *Automaton {
	a := NewAutomaton()
	a.SetFinal(a.start)
	for _, l := range t.Labels() {
		a.AddArc(a.start, a.start, l)
	}
	return a
}

// Prefix returns an automaton that walks rootLabel then each label in path
// (as plain field transitions) before epsilon-bridging into a copy of
// inner, preserving inner's accepting states. This is the "lift a callee's
// automaton under the called edge" construction used by extended call
// footprints (spec.md §4.2).
func Prefix(t *SymbolTable, rootLabel Label, path []Label, inner *Automaton) *Automaton {
	out := NewAutomaton()
	cur := out.start
	next := out.AddState()
	out.AddArc(cur, next, rootLabel)
	cur = next
	for _, l := range path {
		next := out.AddState()
		out.AddArc(cur, next, l)
		cur = next
	}
	remap := out.importFrom(inner)
	out.AddEpsilon(cur, remap[inner.start])
	return out
}

// sortedLabels is a small helper kept for deterministic debug output.
func sortedLabels(m map[Label]bool) []Label {
	out := make([]Label, 0, len(m))
	for l := range m {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// String renders a's transitions in deterministic order, replacing the
// original FSMUtility::print's .dot/fstdraw output with a plain debug dump
// (SPEC_FULL.md's Supplemented Features #2: the content is retained, the
// external rendering tool is not).
func (a *Automaton) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "start=%d\n", a.start)
	for s := State(0); s < State(a.numStates); s++ {
		labels := map[Label]bool{}
		for l := range a.trans[s] {
			labels[l] = true
		}
		for _, l := range sortedLabels(labels) {
			for _, d := range a.trans[s][l] {
				fmt.Fprintf(&b, "  %d -(%d)-> %d\n", s, l, d)
			}
		}
		if a.final[s] {
			fmt.Fprintf(&b, "  final: %d\n", s)
		}
	}
	return b.String()
}
