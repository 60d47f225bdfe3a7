// Package depgraph implements the dependence graph with node merging from
// spec.md §3/§4.4: nodes are statements of a fused candidate's participating
// callees, edges carry dependence kinds, and merge groups model "calls
// fused together".
package depgraph

import "github.com/viant/treefuse/internal/model"

// EdgeKind is one of the dependence kinds of spec.md §4.3. Multiple kinds
// can coexist on the same directed edge, so edges are stored as bitsets.
type EdgeKind uint8

const (
	Local EdgeKind = 1 << iota
	Global
	OnTree
	OnTreeFusable
	Control
)

func (k EdgeKind) Has(bit EdgeKind) bool { return k&bit != 0 }

// Node is one statement of one participating callee in a fused candidate's
// virtualized concatenation (spec.md §3's "Dependence graph node N"). A
// node stores a nullable group id rather than a group pointer, per the
// rewrite's design note on cyclic ownership: dissolving a group is then a
// map delete plus a per-member reset, never a pointer cycle to break.
type Node struct {
	TraversalID int // which participating callee this came from
	Statement   *model.Statement

	groupID int // 0 means unmerged

	succ map[*Node]EdgeKind
	pred map[*Node]EdgeKind
}

func newNode(traversalID int, s *model.Statement) *Node {
	return &Node{TraversalID: traversalID, Statement: s, succ: map[*Node]EdgeKind{}, pred: map[*Node]EdgeKind{}}
}

// IsMerged reports whether n currently belongs to a merge group.
func (n *Node) IsMerged() bool { return n.groupID != 0 }

// CalledChild returns the tree-edge field this node's statement calls
// through, or "" if the statement isn't a call.
func (n *Node) CalledChild() string {
	if n.Statement.CalledChild == nil {
		return ""
	}
	return *n.Statement.CalledChild
}

// Successors/Predecessors expose the raw adjacency, kept for tests and
// debug dumps; scheduling code should generally go through Graph's
// merge-aware helpers instead.
func (n *Node) Successors() map[*Node]EdgeKind   { return n.succ }
func (n *Node) Predecessors() map[*Node]EdgeKind { return n.pred }
