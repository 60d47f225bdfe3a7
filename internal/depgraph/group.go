package depgraph

// Group is a MergeGroup of spec.md §3: a set of nodes considered fused.
// Groups live in Graph's arena keyed by id; Nodes reference their group
// only by id, never by pointer (see node.go).
type Group struct {
	id      int
	members map[*Node]bool
}

// ID returns the group's arena key, stable for as long as the group lives.
func (g *Group) ID() int { return g.id }

// Members returns the group's nodes. Callers must not mutate the result.
func (g *Group) Members() map[*Node]bool { return g.members }

// Size returns the number of nodes currently in the group.
func (g *Group) Size() int { return len(g.members) }

// CalledChild returns the called-child field shared by every member in a
// well-formed group (undefined, but harmless, if the group currently
// violates the invariant — callers check HasWrongFuse separately).
func (g *Group) CalledChild() string {
	for n := range g.members {
		return n.CalledChild()
	}
	return ""
}

// CountByCallee returns, for each distinct callee name represented in the
// group, how many member nodes call it — used by the scheduler's
// MaxMergedInstances cap.
func (g *Group) CountByCallee() map[string]int {
	out := map[string]int{}
	for n := range g.members {
		out[n.Statement.Callee]++
	}
	return out
}

// OrderedMembers returns the group's nodes sorted by (traversal id,
// statement id), the deterministic ordering the synthesizer and tests rely
// on (mirrors MergeInfo::getCallsOrdered in the original implementation).
func (g *Group) OrderedMembers() []*Node {
	out := make([]*Node, 0, len(g.members))
	for n := range g.members {
		out = append(out, n)
	}
	sortNodes(out)
	return out
}

func sortNodes(nodes []*Node) {
	for i := 1; i < len(nodes); i++ {
		for j := i; j > 0 && less(nodes[j], nodes[j-1]); j-- {
			nodes[j], nodes[j-1] = nodes[j-1], nodes[j]
		}
	}
}

func less(a, b *Node) bool {
	if a.TraversalID != b.TraversalID {
		return a.TraversalID < b.TraversalID
	}
	return a.Statement.ID() < b.Statement.ID()
}
