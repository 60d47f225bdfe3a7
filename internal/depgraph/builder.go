package depgraph

import (
	"go/ast"

	"github.com/viant/treefuse/internal/analysis"
	"github.com/viant/treefuse/internal/model"
	"github.com/viant/treefuse/internal/pathspace"
)

// Builder is the dependence analyzer of spec.md §4.3: given a fusion
// candidate it builds a fresh Graph whose nodes are every statement of
// every participating callee, and computes the five edge kinds from the
// Automata StatementInfo already computed for the translation unit.
type Builder struct {
	info *analysis.StatementInfo
}

// NewBuilder wraps the translation unit's shared StatementInfo.
func NewBuilder(info *analysis.StatementInfo) *Builder {
	return &Builder{info: info}
}

// Build constructs the dependence graph for one candidate: participating
// callees are "virtualized" by concatenating, in call order, every
// statement of the function resolved for each call in the candidate. Each
// call resolves to the single function registered under its callee name in
// functions; other implementations behind a virtual dispatch site are not
// included.
func (b *Builder) Build(candidate analysis.Candidate, functions map[string]*model.Function) *Graph {
	g := NewGraph()

	var nodes []*Node
	for travID, call := range candidate.Statements {
		callee, ok := functions[call.Callee]
		if !ok {
			continue
		}
		for _, s := range callee.Statements {
			renameReceiverIdent(s.Node, callee.Receiver, "_r")
			nodes = append(nodes, g.CreateNode(travID, s))
		}
	}

	// Only position-ordered pairs (i < j, "ni precedes nj") are considered:
	// LOCAL/ONTREE/ONTREE_FUSABLE are all write(earlier)-before-read(later)
	// relations per spec.md §4.3's table. GLOBAL is the sole exception the
	// spec calls out as needing "either order direction separately" (global
	// state isn't scoped to program order the way a single traversal's
	// locals or the shared tree are), so addEdgesFor checks it both ways
	// itself from one call per pair instead of relying on the pair being
	// visited twice.
	for i := 0; i < len(nodes); i++ {
		ni := nodes[i]
		ai := b.info.Get(ni.Statement)
		for j := i + 1; j < len(nodes); j++ {
			nj := nodes[j]
			aj := b.info.Get(nj.Statement)
			b.addEdgesFor(g, ni, ai, nj, aj)
		}
	}

	b.addControlEdges(g, nodes)

	return g
}

// addEdgesFor computes every data-kind edge the §4.3 table describes for the
// position-ordered pair (ni precedes nj). LOCAL and ONTREE require ni's
// write to precede nj's read; GLOBAL is checked in both directions since
// global state isn't scoped by program order the way a traversal's locals
// or the shared tree are.
func (b *Builder) addEdgesFor(g *Graph, ni *Node, ai *analysis.Automata, nj *Node, aj *analysis.Automata) {
	if ni.TraversalID == nj.TraversalID {
		if pathspace.HasNonEmptyIntersection(ai.LocalWrite, aj.LocalRead) {
			g.AddEdge(Local, ni, nj)
		}
	}

	if pathspace.HasNonEmptyIntersection(ai.GlobalWrite, aj.GlobalRead) {
		g.AddEdge(Global, ni, nj)
	}
	if pathspace.HasNonEmptyIntersection(aj.GlobalWrite, ai.GlobalRead) {
		g.AddEdge(Global, nj, ni)
	}

	iTreeWrite := effectiveWrite(ni.Statement, ai)
	jTreeRead := effectiveRead(nj.Statement, aj)
	if pathspace.HasNonEmptyIntersection(iTreeWrite, jTreeRead) {
		g.AddEdge(OnTree, ni, nj)
	} else if ni.CalledChild() != "" && ni.CalledChild() == nj.CalledChild() {
		// ONTREE_FUSABLE: no proven overlap, but both statements reach
		// through the same called-child edge, so fusing them is still
		// consistent with the tree shape (spec.md §4.3's weaker test).
		g.AddEdge(OnTreeFusable, ni, nj)
	}
}

func effectiveRead(s *model.Statement, a *analysis.Automata) *pathspace.Automaton {
	if s.IsCall && a.ExtendedTreeRead != nil {
		return a.ExtendedTreeRead
	}
	return a.TreeRead
}

func effectiveWrite(s *model.Statement, a *analysis.Automata) *pathspace.Automaton {
	if s.IsCall && a.ExtendedTreeWrite != nil {
		return a.ExtendedTreeWrite
	}
	return a.TreeWrite
}

// renameReceiverIdent rewrites every reference to the callee's own receiver
// name to "_r" in place, since the flattened statement is re-printed
// verbatim into a fused function whose receiver parameter is always named
// "_r" (spec.md §4.8's signature rule). Idempotent and safe to apply every
// time a callee's statements are virtualized into a new candidate, since
// every fused variant targets the same canonical receiver name. Blank or
// empty receivers are left untouched: an unnamed receiver can't appear in
// the body, and rewriting "_" would corrupt unrelated blank identifiers.
func renameReceiverIdent(stmt ast.Stmt, from, to string) {
	if from == "" || from == "_" || from == to {
		return
	}
	ast.Inspect(stmt, func(n ast.Node) bool {
		if id, ok := n.(*ast.Ident); ok && id.Name == from {
			id.Name = to
		}
		return true
	})
}

// addControlEdges wires CONTROL edges from the CondDependsOn links the
// function analyzer already populated: if statement j's enclosing
// conditional depends on statement i (same traversal), any node for j
// gets a CONTROL edge from any node for i (spec.md §4.3's last row).
func (b *Builder) addControlEdges(g *Graph, nodes []*Node) {
	byStatement := map[*model.Statement][]*Node{}
	for _, n := range nodes {
		byStatement[n.Statement] = append(byStatement[n.Statement], n)
	}
	for _, nj := range nodes {
		for _, dep := range nj.Statement.CondDependsOn {
			for _, ni := range byStatement[dep] {
				if ni.TraversalID != nj.TraversalID {
					continue
				}
				g.AddEdge(Control, ni, nj)
			}
		}
	}
}
