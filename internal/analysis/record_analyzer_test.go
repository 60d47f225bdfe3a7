package analysis

import (
	"go/parser"
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/treefuse/internal/model"
)

const recordAnalyzerFixture = `
package tree

type Node interface {
	Accept()
}

type LeafNode struct {
	Value int
}

func (n *LeafNode) Accept() {}

type BranchNode struct {
	Left  *LeafNode
	Right *LeafNode
	Kids  []*LeafNode
}

func (n *BranchNode) Accept() {}
`

func TestRecordAnalyzer_ResolvesTreeEdgesAndSubtypes(t *testing.T) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "fixture.go", recordAnalyzerFixture, 0)
	require.NoError(t, err)

	ra := NewRecordAnalyzer(nil)
	records, ifaces := ra.Analyze(file)

	require.Len(t, ifaces, 1)
	assert.ElementsMatch(t, []string{"LeafNode", "BranchNode"}, ifaces[0].Subtypes)

	var branch *model.Record
	for _, r := range records {
		if r.Name == "BranchNode" {
			branch = r
		}
	}
	require.NotNil(t, branch)

	left := branch.EdgeTo("Left")
	require.NotNil(t, left)
	assert.Equal(t, "LeafNode", left.ToRecord)
	assert.False(t, left.IsSlice)

	kids := branch.EdgeTo("Kids")
	require.NotNil(t, kids)
	assert.Equal(t, "LeafNode", kids.ToRecord)
	assert.True(t, kids.IsSlice)
}

func TestRecordAnalyzer_ScalarFieldIsNotATreeEdge(t *testing.T) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "fixture.go", recordAnalyzerFixture, 0)
	require.NoError(t, err)

	ra := NewRecordAnalyzer(nil)
	records, _ := ra.Analyze(file)

	var leaf *model.Record
	for _, r := range records {
		if r.Name == "LeafNode" {
			leaf = r
		}
	}
	require.NotNil(t, leaf)
	assert.Nil(t, leaf.EdgeTo("Value"))
}
