package depgraph

import (
	"go/ast"
	"go/parser"
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/treefuse/internal/analysis"
	"github.com/viant/treefuse/internal/model"
	"github.com/viant/treefuse/internal/pathspace"
)

const builderFixture = `
package tree

type LeafNode struct{ Value int }

func (n *LeafNode) Visit(tmp int) {
	println(tmp)
	tmp = 2
}

func (n *LeafNode) Walk() {
	n.Visit(0)
}
`

// TestBuild_NoSpuriousReversedLocalEdge grounds the fix restricting
// LOCAL/ONTREE/ONTREE_FUSABLE edges to position-ordered pairs: the first
// statement only reads a local, the second only writes it, so there is no
// legitimate write-before-read edge in either direction. The old
// all-ordered-pairs loop produced one anyway (S2's write against S1's read,
// backwards relative to source order).
func TestBuild_NoSpuriousReversedLocalEdge(t *testing.T) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "fixture.go", builderFixture, 0)
	require.NoError(t, err)

	records, _ := analysis.NewRecordAnalyzer(nil).Analyze(file)
	fa := analysis.NewFunctionAnalyzer(nil, records, nil)

	var visitDecl, walkDecl *ast.FuncDecl
	for _, decl := range file.Decls {
		if fd, ok := decl.(*ast.FuncDecl); ok {
			switch fd.Name.Name {
			case "Visit":
				visitDecl = fd
			case "Walk":
				walkDecl = fd
			}
		}
	}
	require.NotNil(t, visitDecl)
	require.NotNil(t, walkDecl)

	visit := fa.Analyze(visitDecl)
	walk := fa.Analyze(walkDecl)
	require.Len(t, visit.Statements, 2)

	functions := map[string]*model.Function{"Visit": visit, "Walk": walk}
	table := pathspace.NewSymbolTable()
	info := analysis.NewStatementInfo(table, []*model.Function{visit, walk})

	builder := NewBuilder(info)
	candidate := analysis.Candidate{Owner: walk, Statements: []*model.Statement{walk.Statements[0]}}
	g := builder.Build(candidate, functions)
	require.Len(t, g.Nodes, 2)

	s1, s2 := g.Nodes[0], g.Nodes[1]
	assert.False(t, s1.succ[s2].Has(Local), "no forward Local edge expected: S1 doesn't write what S2 reads")
	assert.False(t, s2.succ[s1].Has(Local), "no reversed Local edge expected: S1 precedes S2 in source order")
}
