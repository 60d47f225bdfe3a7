package pathspace

import "strings"

// Kind classifies where an AccessPath's first step starts from.
type Kind int

const (
	// OnTree paths start at the traversal root and walk tree-edge fields.
	OnTree Kind = iota
	// Local paths start at a parameter or local variable.
	Local
	// Global paths start at a package-level variable.
	Global
	// Strict paths are opaque, declared via an annotation id rather than a
	// concrete field chain.
	Strict
)

func (k Kind) String() string {
	switch k {
	case OnTree:
		return "on-tree"
	case Local:
		return "local"
	case Global:
		return "global"
	case Strict:
		return "strict"
	default:
		return "unknown"
	}
}

// AccessPath is an ordered sequence of field-selection steps starting at a
// root, per spec.md §3. Root names the parameter/local/global variable for
// Local/Global paths; it is ignored for OnTree (all on-tree paths share the
// single traversal-root identity) and for Strict (identified by
// AnnotationID instead).
type AccessPath struct {
	Kind         Kind
	Root         string
	Steps        []string
	HasValuePart bool
	AnnotationID int
}

// String renders the path for debug output and test failure messages, e.g.
// "on-tree:n.left.value" or "local:acc".
func (p AccessPath) String() string {
	var b strings.Builder
	b.WriteString(p.Kind.String())
	b.WriteByte(':')
	if p.Kind == Strict {
		b.WriteString("<loc>")
		return b.String()
	}
	b.WriteString(p.Root)
	for _, s := range p.Steps {
		b.WriteByte('.')
		b.WriteString(s)
	}
	return b.String()
}

// rootLabel returns the label that begins this path's automaton: the
// reserved ROOT label for on-tree paths (per the invariant that every
// on-tree path starts at the traversal root), or a per-variable label
// allocated in a private "$var:" namespace for local/global paths so two
// distinct variables never collide on label 0/1 and never intersect by
// accident.
func rootLabel(t *SymbolTable, p AccessPath) Label {
	if p.Kind == OnTree {
		return ROOT
	}
	return t.FieldLabel("$var:" + p.Root)
}

// ReadAutomaton builds the automaton described in §4.1 for a read of p:
// every prefix of the path except the starting state is accepting, and if
// the path ends at a non-scalar and is not a Strict path, a Sigma* self-loop
// is appended so reading "a.b" also covers reading any descendant of it.
func ReadAutomaton(t *SymbolTable, p AccessPath) *Automaton {
	if p.Kind == Strict {
		return strictAutomaton(t, p)
	}

	a := NewAutomaton()
	cur := a.start
	first := a.AddState()
	a.AddArc(cur, first, rootLabel(t, p))
	cur = first
	a.SetFinal(cur) // reading the root alone is a valid (accepting) prefix...

	for _, step := range p.Steps {
		next := a.AddState()
		a.AddArc(cur, next, t.FieldLabel(step))
		a.SetFinal(next)
		cur = next
	}

	if !p.HasValuePart {
		loop := AnyClosureAutomata(t)
		return prefixed(a, cur, loop)
	}
	return a
}

// WriteAutomaton builds the automaton for a write of p: only the terminal
// state of the path is accepting, since a write acts on a single point.
func WriteAutomaton(t *SymbolTable, p AccessPath) *Automaton {
	if p.Kind == Strict {
		return strictAutomaton(t, p)
	}

	a := NewAutomaton()
	cur := a.start
	first := a.AddState()
	a.AddArc(cur, first, rootLabel(t, p))
	cur = first
	for _, step := range p.Steps {
		next := a.AddState()
		a.AddArc(cur, next, t.FieldLabel(step))
		cur = next
	}
	a.SetFinal(cur)
	return a
}

// strictAutomaton builds the dedicated-abstract-access automaton shared by
// strict reads and writes: the field chain (if any) followed by a
// transition on the strict annotation's own label, only that final state
// accepting, distinguishing the opaque effect from any concrete path.
func strictAutomaton(t *SymbolTable, p AccessPath) *Automaton {
	a := NewAutomaton()
	cur := a.start
	for _, step := range p.Steps {
		next := a.AddState()
		a.AddArc(cur, next, t.FieldLabel(step))
		cur = next
	}
	final := a.AddState()
	a.AddArc(cur, final, t.AbstractLabel(p.AnnotationID))
	a.SetFinal(final)
	return a
}

// prefixed returns a copy of loop whose start state is wired in place of
// tail, i.e. "a with Sigma* appended after state tail" expressed as a union
// fragment rooted at a.start via an epsilon bridge from tail into the copy
// of loop. Returning a full Automaton (rather than mutating a in place)
// keeps ReadAutomaton's Union-based composition simple.
func prefixed(a *Automaton, tail State, loop *Automaton) *Automaton {
	out := NewAutomaton()
	remapA := out.importFrom(a)
	remapLoop := out.importFrom(loop)
	out.AddEpsilon(out.start, remapA[a.start])
	out.AddEpsilon(remapA[tail], remapLoop[loop.start])
	return out
}
