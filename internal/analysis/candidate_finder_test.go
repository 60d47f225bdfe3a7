package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/treefuse/internal/model"
)

func callOf(id int, callee string, path ...string) *model.Statement {
	s := &model.Statement{IsCall: true, Callee: callee, CalledChildPath: path}
	s.SetID(id)
	return s
}

func TestFind_MergesMaximalRunsOfCompatibleCalls(t *testing.T) {
	leaf := &model.Function{Name: "visitLeaf", ValidForFusion: true}
	other := &model.Function{Name: "visitOther", ValidForFusion: true}

	s1 := callOf(1, "visitLeaf", "left")
	s2 := callOf(2, "visitLeaf", "left")
	s3 := callOf(3, "visitLeaf", "left")
	fn := &model.Function{Statements: []*model.Statement{s1, s2, s3}}

	cf := NewCandidateFinder([]*model.Function{leaf, other})
	got := cf.Find(fn)

	require.Len(t, got, 1)
	assert.Equal(t, []*model.Statement{s1, s2, s3}, got[0].Statements)
}

func TestFind_BreaksRunOnDifferentCalledChildPath(t *testing.T) {
	left := &model.Function{Name: "visitLeft", ValidForFusion: true}
	right := &model.Function{Name: "visitRight", ValidForFusion: true}

	s1 := callOf(1, "visitLeft", "left")
	s2 := callOf(2, "visitRight", "right")
	fn := &model.Function{Statements: []*model.Statement{s1, s2}}

	cf := NewCandidateFinder([]*model.Function{left, right})
	got := cf.Find(fn)

	assert.Empty(t, got, "two singleton runs never form a length>=2 candidate")
}

func TestFind_SkipsInvalidForFusionCallees(t *testing.T) {
	broken := &model.Function{Name: "visitBroken", ValidForFusion: false}

	s1 := callOf(1, "visitBroken", "child")
	s2 := callOf(2, "visitBroken", "child")
	fn := &model.Function{Statements: []*model.Statement{s1, s2}}

	cf := NewCandidateFinder([]*model.Function{broken})
	got := cf.Find(fn)

	assert.Empty(t, got)
}

func TestFind_NonCallStatementClosesRun(t *testing.T) {
	leaf := &model.Function{Name: "visitLeaf", ValidForFusion: true}

	s1 := callOf(1, "visitLeaf", "left")
	mid := &model.Statement{}
	mid.SetID(2)
	s3 := callOf(3, "visitLeaf", "left")
	fn := &model.Function{Statements: []*model.Statement{s1, mid, s3}}

	cf := NewCandidateFinder([]*model.Function{leaf})
	got := cf.Find(fn)

	assert.Empty(t, got, "each run is a single statement once split by the non-call")
}
