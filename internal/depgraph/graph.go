package depgraph

import (
	"sort"

	"github.com/viant/treefuse/internal/model"
)

// Graph is the dependence graph with node merging of spec.md §3/§4.4.
type Graph struct {
	Nodes []*Node

	groups      map[int]*Group
	nextGroupID int
}

// NewGraph returns an empty dependence graph.
func NewGraph() *Graph {
	return &Graph{groups: map[int]*Group{}}
}

// CreateNode appends a new, unmerged node for one statement of one
// participating callee and returns it.
func (g *Graph) CreateNode(traversalID int, s *model.Statement) *Node {
	n := newNode(traversalID, s)
	g.Nodes = append(g.Nodes, n)
	return n
}

// AddEdge idempotently sets kind on the src->dst adjacency (both directions
// of the edge map, successor and predecessor).
func (g *Graph) AddEdge(kind EdgeKind, src, dst *Node) {
	if src == dst {
		return
	}
	src.succ[dst] |= kind
	dst.pred[src] |= kind
}

// groupOf returns n's Group, or nil if unmerged.
func (g *Graph) groupOf(n *Node) *Group {
	if n.groupID == 0 {
		return nil
	}
	return g.groups[n.groupID]
}

// Merge fuses a and b into the same MergeGroup, handling all four cases of
// spec.md §4.4: neither merged (new group), one merged (absorb the other),
// both merged (fuse the two groups, one group object is destroyed).
func (g *Graph) Merge(a, b *Node) {
	ga, gb := g.groupOf(a), g.groupOf(b)
	switch {
	case ga != nil && gb != nil:
		if ga == gb {
			return
		}
		for n := range gb.members {
			ga.members[n] = true
			n.groupID = ga.id
		}
		delete(g.groups, gb.id)
	case ga != nil && gb == nil:
		ga.members[b] = true
		b.groupID = ga.id
	case ga == nil && gb != nil:
		gb.members[a] = true
		a.groupID = gb.id
	default:
		g.nextGroupID++
		ng := &Group{id: g.nextGroupID, members: map[*Node]bool{a: true, b: true}}
		g.groups[ng.id] = ng
		a.groupID, b.groupID = ng.id, ng.id
	}
}

// groupSnapshot captures enough of a-or-b's pre-merge group state to restore
// it exactly: the group object, its id and members, or "unmerged" if nil.
type groupSnapshot struct {
	had     bool
	grp     *Group
	id      int
	members map[*Node]bool
}

func snapshot(grp *Group) groupSnapshot {
	if grp == nil {
		return groupSnapshot{}
	}
	members := make(map[*Node]bool, len(grp.members))
	for n := range grp.members {
		members[n] = true
	}
	return groupSnapshot{had: true, grp: grp, id: grp.id, members: members}
}

// TryMerge merges a and b, calls accept, and either keeps the merge (accept
// returned true) or restores the exact pre-merge grouping of both a and b
// (accept returned false) — including the case where merging fused two
// pre-existing groups into one, which a bare Unmerge cannot undo. Returns
// accept's result.
func (g *Graph) TryMerge(a, b *Node, accept func() bool) bool {
	if g.groupOf(a) != nil && g.groupOf(a) == g.groupOf(b) {
		return true // already fused together, nothing to decide
	}

	beforeA, beforeB := snapshot(g.groupOf(a)), snapshot(g.groupOf(b))
	g.Merge(a, b)

	if accept() {
		return true
	}

	g.restore(a, beforeA)
	g.restore(b, beforeB)
	return false
}

// restore puts n and its snapshotted former group back exactly as they
// were, re-registering the original group object if Merge deleted it. A
// node that was unmerged leaves the group the merge put it in, and that
// group is dropped once it has no members left.
func (g *Graph) restore(n *Node, before groupSnapshot) {
	if !before.had {
		if cur := g.groupOf(n); cur != nil {
			delete(cur.members, n)
			if len(cur.members) == 0 {
				delete(g.groups, cur.id)
			}
		}
		n.groupID = 0
		return
	}
	grp, ok := g.groups[before.id]
	if !ok {
		grp = before.grp
		g.groups[before.id] = grp
	}
	grp.members = before.members
	for m := range before.members {
		m.groupID = before.id
	}
}

// Unmerge removes n from its group; if the group shrinks to a single node
// that node reverts to unmerged and the group object is destroyed.
func (g *Graph) Unmerge(n *Node) {
	grp := g.groupOf(n)
	if grp == nil {
		return
	}
	n.groupID = 0
	delete(grp.members, n)
	if len(grp.members) == 1 {
		for last := range grp.members {
			last.groupID = 0
		}
		delete(g.groups, grp.id)
	}
}

// Groups returns every currently-live merge group.
func (g *Graph) Groups() []*Group {
	out := make([]*Group, 0, len(g.groups))
	for _, grp := range g.groups {
		out = append(out, grp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// allSuccessors returns every distinct successor of n, expanding across
// group membership when n is merged (internal edges within the group are
// excluded, matching DG_Node::getAllSuccessors in the original).
func (g *Graph) allSuccessors(n *Node) map[*Node]bool {
	out := map[*Node]bool{}
	members := []*Node{n}
	if grp := g.groupOf(n); grp != nil {
		members = members[:0]
		for m := range grp.members {
			members = append(members, m)
		}
	}
	memberSet := map[*Node]bool{}
	for _, m := range members {
		memberSet[m] = true
	}
	for _, m := range members {
		for s := range m.succ {
			if !memberSet[s] {
				out[s] = true
			}
		}
	}
	return out
}

// AllPredsVisited implements the predecessor-visited test of spec.md §4.4:
// for an unmerged node, every predecessor must be visited; for a merged
// node, every predecessor of every member that lies outside the group must
// be visited.
func (g *Graph) AllPredsVisited(n *Node, visited map[*Node]bool) bool {
	grp := g.groupOf(n)
	if grp == nil {
		for p := range n.pred {
			if !visited[p] {
				return false
			}
		}
		return true
	}
	for m := range grp.members {
		for p := range m.pred {
			if grp.members[p] {
				continue
			}
			if !visited[p] {
				return false
			}
		}
	}
	return true
}

// IsRootNode reports whether n has all predecessors visited under the
// empty visited-map, i.e. it has no external predecessors at all.
func (g *Graph) IsRootNode(n *Node) bool {
	return g.AllPredsVisited(n, map[*Node]bool{})
}

// GroupOf exposes groupOf for schedulers that need to tell whether two
// nodes already belong to the same merge group.
func (g *Graph) GroupOf(n *Node) *Group { return g.groupOf(n) }

// AllSuccessors exposes allSuccessors for the layered parallel scheduler.
func (g *Graph) AllSuccessors(n *Node) map[*Node]bool { return g.allSuccessors(n) }

// HasWrongFuse reports whether any live group mixes nodes with different
// called-child fields (spec.md §4.4's "wrong fuse").
func (g *Graph) HasWrongFuse() bool {
	for _, grp := range g.groups {
		if groupHasWrongFuse(grp) {
			return true
		}
	}
	return false
}

func groupHasWrongFuse(grp *Group) bool {
	var want string
	first := true
	for n := range grp.members {
		child := n.CalledChild()
		if first {
			want = child
			first = false
			continue
		}
		if child != want {
			return true
		}
	}
	return false
}

// HasCycle runs a three-color DFS over the quotient graph: a merge group is
// entered as a single unit, every member colored gray, successors outside
// the group visited, then all colored black on exit (spec.md §4.4).
func (g *Graph) HasCycle() bool {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := map[*Node]int{}
	visitedGroups := map[int]bool{}

	var visit func(n *Node) bool
	visit = func(n *Node) bool {
		if color[n] == black {
			return false
		}
		if color[n] == gray {
			return true
		}

		grp := g.groupOf(n)
		if grp == nil {
			color[n] = gray
			for s := range n.succ {
				if visit(s) {
					return true
				}
			}
			color[n] = black
			return false
		}

		if visitedGroups[grp.id] {
			return false
		}
		visitedGroups[grp.id] = true
		for m := range grp.members {
			color[m] = gray
		}
		for s := range g.allSuccessors(n) {
			if visit(s) {
				return true
			}
		}
		for m := range grp.members {
			color[m] = black
		}
		return false
	}

	for _, n := range g.Nodes {
		if color[n] == white {
			if visit(n) {
				return true
			}
		}
	}
	return false
}

// HasIllegalMerge is the conjunction of the two invariants merges must
// never violate (spec.md §4.4).
func (g *Graph) HasIllegalMerge() bool { return g.HasCycle() || g.HasWrongFuse() }

// MergeAllCalls is the bulk-merge shortcut used by the "solely-parallel"
// heuristic (SPEC_FULL.md Supplemented Features #1, grounded on
// DependenceGraph::mergeAllCalls in the original): every bucket of
// same-called-child call nodes is merged with no cap/rollback checking.
func (g *Graph) MergeAllCalls() {
	buckets := map[string][]*Node{}
	var keys []string
	for _, n := range g.Nodes {
		if n.Statement.IsCall {
			child := n.CalledChild()
			if _, ok := buckets[child]; !ok {
				keys = append(keys, child)
			}
			buckets[child] = append(buckets[child], n)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		nodes := buckets[k]
		for i := 1; i < len(nodes); i++ {
			g.Merge(nodes[i-1], nodes[i])
		}
	}
}
