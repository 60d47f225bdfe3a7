package analysis

import (
	"go/ast"
	"go/parser"
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const functionAnalyzerFixture = `
package tree

type LeafNode struct {
	Value int
}

type BranchNode struct {
	Left  *LeafNode
	Right *LeafNode
}

func (n *BranchNode) VisitBoth() {
	n.Left.Visit()
	n.Right.Visit()
}

func (n *LeafNode) Visit() {
	counter++
}

func (n *BranchNode) Jump() {
	goto done
done:
	return
}
`

func TestFunctionAnalyzer_ExtractsCallStatementsAndChildPath(t *testing.T) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "fixture.go", functionAnalyzerFixture, 0)
	require.NoError(t, err)

	ra := NewRecordAnalyzer(nil)
	records, _ := ra.Analyze(file)
	fa := NewFunctionAnalyzer(nil, records, map[string]bool{"counter": true})

	var visitBoth *ast.FuncDecl
	for _, decl := range file.Decls {
		if fn, ok := decl.(*ast.FuncDecl); ok && fn.Name.Name == "VisitBoth" {
			visitBoth = fn
		}
	}
	require.NotNil(t, visitBoth)

	got := fa.Analyze(visitBoth)
	require.NotNil(t, got)
	require.True(t, got.ValidForFusion)
	require.Len(t, got.Statements, 2)

	first := got.Statements[0]
	assert.True(t, first.IsCall)
	assert.Equal(t, "Visit", first.Callee)
	assert.Equal(t, []string{"Left"}, first.CalledChildPath)
	require.NotNil(t, first.CalledChild)
	assert.Equal(t, "Left", *first.CalledChild)

	second := got.Statements[1]
	assert.Equal(t, []string{"Right"}, second.CalledChildPath)
}

func TestFunctionAnalyzer_RejectsGoto(t *testing.T) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "fixture.go", functionAnalyzerFixture, 0)
	require.NoError(t, err)

	ra := NewRecordAnalyzer(nil)
	records, _ := ra.Analyze(file)
	fa := NewFunctionAnalyzer(nil, records, nil)

	var jump *ast.FuncDecl
	for _, decl := range file.Decls {
		if fn, ok := decl.(*ast.FuncDecl); ok && fn.Name.Name == "Jump" {
			jump = fn
		}
	}
	require.NotNil(t, jump)

	got := fa.Analyze(jump)
	require.NotNil(t, got)
	assert.False(t, got.ValidForFusion)
	assert.Contains(t, got.InvalidReason, "unsupported control flow")
}

const guardedReturnFixture = `
package tree

type LeafNode struct {
	Value int
}

func (n *LeafNode) VisitGuarded() {
	if n.Value == 0 {
		return
	}
	n.Value++
}
`

func TestFunctionAnalyzer_FlattensSingleBranchIfIntoGuardedStatements(t *testing.T) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "fixture.go", guardedReturnFixture, 0)
	require.NoError(t, err)

	ra := NewRecordAnalyzer(nil)
	records, _ := ra.Analyze(file)
	fa := NewFunctionAnalyzer(nil, records, nil)

	var fn *ast.FuncDecl
	for _, decl := range file.Decls {
		if f, ok := decl.(*ast.FuncDecl); ok && f.Name.Name == "VisitGuarded" {
			fn = f
		}
	}
	require.NotNil(t, fn)

	got := fa.Analyze(fn)
	require.NotNil(t, got)
	require.Len(t, got.Statements, 2)

	guarded := got.Statements[0]
	require.NotNil(t, guarded.GuardCond)
	_, isReturn := guarded.Node.(*ast.ReturnStmt)
	assert.True(t, isReturn)

	rest := got.Statements[1]
	assert.Nil(t, rest.GuardCond)
	_, isIncDec := rest.Node.(*ast.IncDecStmt)
	assert.True(t, isIncDec)
}

func TestFunctionAnalyzer_IncDecOnGlobalIsReadAndWrite(t *testing.T) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "fixture.go", functionAnalyzerFixture, 0)
	require.NoError(t, err)

	ra := NewRecordAnalyzer(nil)
	records, _ := ra.Analyze(file)
	fa := NewFunctionAnalyzer(nil, records, map[string]bool{"counter": true})

	var visit *ast.FuncDecl
	for _, decl := range file.Decls {
		if fn, ok := decl.(*ast.FuncDecl); ok && fn.Name.Name == "Visit" {
			visit = fn
		}
	}
	require.NotNil(t, visit)

	got := fa.Analyze(visit)
	require.NotNil(t, got)
	require.Len(t, got.Statements, 1)
	fp := got.Statements[0].Footprint
	require.Len(t, fp.Reads, 1)
	require.Len(t, fp.Writes, 1)
	assert.Equal(t, "global:counter", fp.Reads[0].String())
}
