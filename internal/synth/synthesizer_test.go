package synth

import (
	"go/ast"
	"go/parser"
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/treefuse/internal/depgraph"
	"github.com/viant/treefuse/internal/model"
)

// TestEmitNonCall_GuardedReturnClearsBitInsteadOfEscapingFusedFunction
// grounds spec.md §8 scenario 4's early-exit guard: a statement
// flattenStatements pulled out of `if cond { return }` must still only run
// under its original predicate, and a nested `return` there must clear just
// its own traversal's bit rather than returning out of the whole fused
// function.
func TestEmitNonCall_GuardedReturnClearsBitInsteadOfEscapingFusedFunction(t *testing.T) {
	fset := token.NewFileSet()
	src := `package tree
func f(n *LeafNode) {
	if n.Value == 0 {
		return
	}
}`
	file, err := parser.ParseFile(fset, "fixture.go", src, 0)
	require.NoError(t, err)

	fn := file.Decls[0].(*ast.FuncDecl)
	ifStmt := fn.Body.List[0].(*ast.IfStmt)
	retStmt := ifStmt.Body.List[0]

	stmt := &model.Statement{Node: retStmt, GuardCond: ifStmt.Cond}

	g := depgraph.NewGraph()
	node := g.CreateNode(0, stmt)

	sy := &Synthesizer{functions: map[string]*model.Function{}}
	out, err := sy.emitNonCall(node)
	require.NoError(t, err)

	require.Equal(t, KindGuard, out.Kind)
	require.Len(t, out.Body, 1)
	condGuard := out.Body[0]
	require.Equal(t, KindCondGuard, condGuard.Kind)
	assert.Equal(t, "n.Value == 0", condGuard.Cond)
	require.Len(t, condGuard.Body, 1)
	assert.Equal(t, KindClearBit, condGuard.Body[0].Kind)
	assert.Equal(t, 0, condGuard.Body[0].GuardBit)
}
