// Package scheduler implements the greedy fusion scheduler of spec.md §4.5:
// it greedily merges nodes of a dependence graph bucketed by called-child
// field, rolling back any merge that would violate the node/instance caps
// or break one of the graph's merge invariants.
package scheduler

import (
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/viant/treefuse/internal/depgraph"
)

// Limits bounds how aggressively the greedy scheduler fuses calls.
// Defaults mirror the original implementation's MaxMergedNodes/
// MaxMergedInstances constants.
type Limits struct {
	MaxMergedNodes     int
	MaxMergedInstances int
}

// DefaultLimits matches spec.md §4.5's stated defaults.
func DefaultLimits() Limits {
	return Limits{MaxMergedNodes: 5, MaxMergedInstances: 5}
}

// Scheduler runs the greedy merge loop over one candidate's dependence
// graph.
type Scheduler struct {
	limits Limits
	log    *logrus.Entry
}

// New builds a Scheduler with the given caps.
func New(limits Limits, log *logrus.Entry) *Scheduler {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Scheduler{limits: limits, log: log}
}

// Run greedily fuses g's nodes in place and returns g for chaining. Nodes
// are bucketed by called-child field (sorted for determinism); within each
// bucket, every pair of nodes is offered a merge attempt in order, the
// merge is kept if it does not exceed either cap and does not make
// g.HasIllegalMerge true, and rolled back (via depgraph.Graph.TryMerge's
// snapshot restore) otherwise.
func (sch *Scheduler) Run(g *depgraph.Graph) *depgraph.Graph {
	buckets := map[string][]*depgraph.Node{}
	var keys []string
	for _, n := range g.Nodes {
		child := n.CalledChild()
		if child == "" {
			continue
		}
		if _, ok := buckets[child]; !ok {
			keys = append(keys, child)
		}
		buckets[child] = append(buckets[child], n)
	}
	sort.Strings(keys)

	for _, key := range keys {
		nodes := buckets[key]
		sort.Slice(nodes, func(i, j int) bool {
			if nodes[i].TraversalID != nodes[j].TraversalID {
				return nodes[i].TraversalID < nodes[j].TraversalID
			}
			return nodes[i].Statement.ID() < nodes[j].Statement.ID()
		})
		for i := 0; i < len(nodes); i++ {
			for j := i + 1; j < len(nodes); j++ {
				sch.tryMerge(g, nodes[i], nodes[j])
			}
		}
	}
	return g
}

// FuseAll runs the "solely-parallel" heuristic: every bucket of same-child
// call nodes is merged without the greedy pairwise cap/rollback loop. It
// does not check HasIllegalMerge itself, and the driver and synthesizer do
// not call it (SPEC_FULL.md Supplemented Features #1).
func (sch *Scheduler) FuseAll(g *depgraph.Graph) *depgraph.Graph {
	g.MergeAllCalls()
	return g
}

// tryMerge attempts to fuse a and b, accepting the merge only if both caps
// and every graph invariant still hold afterward; otherwise the merge is
// rolled back to the exact pre-merge grouping.
func (sch *Scheduler) tryMerge(g *depgraph.Graph, a, b *depgraph.Node) {
	ok := g.TryMerge(a, b, func() bool {
		grp := g.GroupOf(a)
		if grp == nil {
			return true
		}
		if grp.Size() > sch.limits.MaxMergedNodes {
			return false
		}
		for _, count := range grp.CountByCallee() {
			if count > sch.limits.MaxMergedInstances {
				return false
			}
		}
		return !g.HasIllegalMerge()
	})
	if !ok {
		sch.log.Debugf("rollback merge of %v/%v: cap or invariant violated", a, b)
	}
}
