package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/treefuse/internal/depgraph"
	"github.com/viant/treefuse/internal/model"
)

func callStmt(id int, callee, calledChild string) *model.Statement {
	s := &model.Statement{IsCall: true, Callee: callee}
	s.SetID(id)
	s.CalledChild = &calledChild
	return s
}

// TestRun_CapsGroupSize is spec.md §8 scenario 5: six identical callers
// sharing a called-child field, MaxMergedNodes=5, must settle into one group
// of five and a leftover singleton rather than one oversized group.
func TestRun_CapsGroupSize(t *testing.T) {
	g := depgraph.NewGraph()
	var nodes []*depgraph.Node
	for i := 0; i < 6; i++ {
		nodes = append(nodes, g.CreateNode(i, callStmt(i+1, "leaf", "child")))
	}

	sch := New(DefaultLimits(), nil)
	sch.Run(g)

	sizes := map[int]int{}
	for _, n := range nodes {
		if grp := g.GroupOf(n); grp != nil {
			sizes[grp.ID()]++
		} else {
			sizes[-1]++ // unmerged, counted as its own singleton
		}
	}

	var counts []int
	for _, c := range sizes {
		counts = append(counts, c)
	}
	require.Len(t, counts, 2, "exactly one full group and one leftover")
	total := 0
	hasFive := false
	for _, c := range counts {
		total += c
		if c == 5 {
			hasFive = true
		}
	}
	assert.Equal(t, 6, total)
	assert.True(t, hasFive, "one group must reach the cap of 5")
}

func TestRun_RespectsMaxMergedInstances(t *testing.T) {
	g := depgraph.NewGraph()
	for i := 0; i < 3; i++ {
		g.CreateNode(i, callStmt(i+1, "leaf", "child"))
	}

	sch := New(Limits{MaxMergedNodes: 5, MaxMergedInstances: 2}, nil)
	sch.Run(g)

	for _, grp := range g.Groups() {
		for _, count := range grp.CountByCallee() {
			assert.LessOrEqual(t, count, 2)
		}
	}
}

func TestFuseAll_MergesEveryMatchingBucket(t *testing.T) {
	g := depgraph.NewGraph()
	var nodes []*depgraph.Node
	for i := 0; i < 4; i++ {
		nodes = append(nodes, g.CreateNode(i, callStmt(i+1, "leaf", "child")))
	}

	sch := New(DefaultLimits(), nil)
	sch.FuseAll(g)

	grp := g.GroupOf(nodes[0])
	require.NotNil(t, grp)
	assert.Equal(t, 4, grp.Size())
}

func TestParallelSchedule_NonCallThenParallelCallLayer(t *testing.T) {
	g := depgraph.NewGraph()
	nonCall := &model.Statement{}
	nonCall.SetID(1)
	nNonCall := g.CreateNode(0, nonCall)

	call1 := g.CreateNode(1, callStmt(2, "leafA", "a"))
	call2 := g.CreateNode(2, callStmt(3, "leafB", "b"))
	g.AddEdge(depgraph.OnTree, nNonCall, call1)
	g.AddEdge(depgraph.OnTree, nNonCall, call2)

	layers := ParallelSchedule(g)
	require.Len(t, layers, 2)
	assert.False(t, layers[0].Parallel)
	assert.True(t, layers[1].Parallel)
	assert.Len(t, layers[1].Units, 2)
}

func TestParallelSchedule_MergedGroupEmitsAsOneUnit(t *testing.T) {
	g := depgraph.NewGraph()
	a := g.CreateNode(0, callStmt(1, "leaf", "c"))
	b := g.CreateNode(1, callStmt(2, "leaf", "c"))
	g.Merge(a, b)

	layers := ParallelSchedule(g)
	require.Len(t, layers, 1)
	assert.True(t, layers[0].Parallel)
	require.Len(t, layers[0].Units, 1)
	assert.Len(t, layers[0].Units[0].Nodes, 2)
}
