package scheduler

import (
	"sort"

	"github.com/viant/treefuse/internal/depgraph"
)

// Layer is one step of the parallel layered schedule: either a single
// non-call statement (run serially before/after its neighbors) or a set of
// call nodes/groups that may all run concurrently.
type Layer struct {
	Parallel bool
	Units    []Unit
}

// Unit is one schedulable item within a layer: a lone node, or every
// member of a merge group scheduled together.
type Unit struct {
	Nodes []*depgraph.Node
}

// ParallelSchedule computes the layered schedule of spec.md §5: a
// ready-queue sweep that alternates singleton layers for non-call
// statements and parallel layers collecting every call (or fused call
// group) that has become ready, i.e. every predecessor outside its own
// group has already been scheduled.
func ParallelSchedule(g *depgraph.Graph) []Layer {
	visited := map[*depgraph.Node]bool{}
	scheduledGroups := map[int]bool{}
	remaining := append([]*depgraph.Node(nil), g.Nodes...)

	var layers []Layer

	for len(remaining) > 0 {
		var ready []*depgraph.Node
		var rest []*depgraph.Node
		for _, n := range remaining {
			if g.AllPredsVisited(n, visited) {
				ready = append(ready, n)
			} else {
				rest = append(rest, n)
			}
		}
		if len(ready) == 0 {
			// No progress possible; the remaining nodes form a cycle that
			// should never occur once HasCycle has been checked, but bail
			// out rather than loop forever.
			break
		}

		sort.Slice(ready, func(i, j int) bool {
			if ready[i].TraversalID != ready[j].TraversalID {
				return ready[i].TraversalID < ready[j].TraversalID
			}
			return ready[i].Statement.ID() < ready[j].Statement.ID()
		})

		callReady, nonCallReady := partitionCalls(ready)

		if len(nonCallReady) > 0 {
			for _, n := range nonCallReady {
				layers = append(layers, Layer{Parallel: false, Units: []Unit{{Nodes: []*depgraph.Node{n}}}})
				markDone(g, n, visited, scheduledGroups)
			}
			remaining = append(append([]*depgraph.Node(nil), callReady...), rest...)
			continue
		}

		units := groupUnits(g, callReady, scheduledGroups)
		if len(units) > 0 {
			layers = append(layers, Layer{Parallel: true, Units: units})
		}
		for _, n := range callReady {
			markDone(g, n, visited, scheduledGroups)
		}
		remaining = rest
	}

	return layers
}

func partitionCalls(nodes []*depgraph.Node) (calls, nonCalls []*depgraph.Node) {
	for _, n := range nodes {
		if n.Statement.IsCall {
			calls = append(calls, n)
		} else {
			nonCalls = append(nonCalls, n)
		}
	}
	return calls, nonCalls
}

// groupUnits turns a slate of ready call nodes into schedule Units, folding
// every not-yet-scheduled member of a merge group into a single Unit the
// first time any of its members becomes ready.
func groupUnits(g *depgraph.Graph, nodes []*depgraph.Node, scheduledGroups map[int]bool) []Unit {
	var units []Unit
	seen := map[*depgraph.Node]bool{}
	for _, n := range nodes {
		if seen[n] {
			continue
		}
		grp := g.GroupOf(n)
		if grp == nil {
			units = append(units, Unit{Nodes: []*depgraph.Node{n}})
			seen[n] = true
			continue
		}
		if scheduledGroups[grp.ID()] {
			continue
		}
		units = append(units, Unit{Nodes: grp.OrderedMembers()})
		for _, m := range grp.OrderedMembers() {
			seen[m] = true
		}
	}
	return units
}

func markDone(g *depgraph.Graph, n *depgraph.Node, visited map[*depgraph.Node]bool, scheduledGroups map[int]bool) {
	visited[n] = true
	if grp := g.GroupOf(n); grp != nil {
		scheduledGroups[grp.ID()] = true
	}
}
