package depgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/treefuse/internal/model"
)

func stmt(t *testing.T, id int, calledChild string) *model.Statement {
	t.Helper()
	s := &model.Statement{}
	s.SetID(id)
	if calledChild != "" {
		s.IsCall = true
		s.CalledChild = &calledChild
	}
	return s
}

func TestMerge_Unmerge_RestoresPriorState(t *testing.T) {
	g := NewGraph()
	a := g.CreateNode(0, stmt(t, 1, "c"))
	b := g.CreateNode(1, stmt(t, 2, "c"))
	c := g.CreateNode(2, stmt(t, 3, "c"))

	g.Merge(a, b)
	g.Merge(a, c)
	require.True(t, a.IsMerged())
	require.Equal(t, 3, g.GroupOf(a).Size())

	g.Unmerge(c)
	assert.False(t, c.IsMerged(), "unmerge reverts the removed node")
	assert.True(t, a.IsMerged(), "group with other members intact")
	assert.Equal(t, 2, g.GroupOf(a).Size())

	g.Unmerge(b)
	assert.False(t, a.IsMerged(), "group with a single member left dissolves")
}

func TestTryMerge_RollsBackOnRejectedFusionOfTwoGroups(t *testing.T) {
	g := NewGraph()
	a := g.CreateNode(0, stmt(t, 1, "c"))
	b := g.CreateNode(1, stmt(t, 2, "c"))
	c := g.CreateNode(2, stmt(t, 3, "c"))
	d := g.CreateNode(3, stmt(t, 4, "c"))

	g.Merge(a, b)
	g.Merge(c, d)
	groupAB, groupCD := g.GroupOf(a), g.GroupOf(c)

	ok := g.TryMerge(b, c, func() bool { return false })
	assert.False(t, ok)
	assert.Same(t, groupAB, g.GroupOf(a))
	assert.Same(t, groupCD, g.GroupOf(c))
	assert.Equal(t, 2, g.GroupOf(a).Size())
	assert.Equal(t, 2, g.GroupOf(c).Size())
}

func TestHasWrongFuse_DetectsMismatchedCalledChild(t *testing.T) {
	g := NewGraph()
	left := g.CreateNode(0, stmt(t, 1, "left"))
	right := g.CreateNode(1, stmt(t, 2, "right"))
	g.Merge(left, right)

	assert.True(t, g.HasWrongFuse())
}

func TestHasCycle_DetectsTwoNodeCycle(t *testing.T) {
	g := NewGraph()
	a := g.CreateNode(0, stmt(t, 1, "c"))
	b := g.CreateNode(1, stmt(t, 2, "c"))
	require.False(t, g.HasCycle())

	g.AddEdge(OnTree, a, b)
	g.AddEdge(OnTree, b, a)
	assert.True(t, g.HasCycle())
}

func TestHasCycle_MergedGroupIsOneUnit(t *testing.T) {
	g := NewGraph()
	a := g.CreateNode(0, stmt(t, 1, "c"))
	b := g.CreateNode(1, stmt(t, 2, "c"))
	outside := g.CreateNode(2, stmt(t, 3, ""))

	g.Merge(a, b)
	// An edge from a member back to another member of the same group is
	// internal and must not be reported as a cycle.
	g.AddEdge(Local, a, b)
	g.AddEdge(OnTree, b, outside)
	assert.False(t, g.HasCycle())
}

func TestMergeAllCalls_BucketsByCalledChild(t *testing.T) {
	g := NewGraph()
	c1 := g.CreateNode(0, stmt(t, 1, "child"))
	c2 := g.CreateNode(1, stmt(t, 2, "child"))
	c3 := g.CreateNode(2, stmt(t, 3, "child"))
	other := g.CreateNode(3, stmt(t, 4, "other"))

	g.MergeAllCalls()

	assert.Same(t, g.GroupOf(c1), g.GroupOf(c2))
	assert.Same(t, g.GroupOf(c2), g.GroupOf(c3))
	assert.NotEqual(t, g.GroupOf(c1), g.GroupOf(other))
}
