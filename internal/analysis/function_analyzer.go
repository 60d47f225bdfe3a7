package analysis

import (
	"go/ast"
	"go/token"

	"github.com/sirupsen/logrus"

	"github.com/viant/treefuse/internal/model"
	"github.com/viant/treefuse/internal/pathspace"
)

// FunctionAnalyzer computes per-statement access-path footprints for each
// traversal function in a translation unit (spec.md §2's Function
// analyzer). A function qualifies as a traversal candidate when it has a
// receiver, or a first parameter, typed as a pointer to an analyzed Record.
type FunctionAnalyzer struct {
	log     *logrus.Entry
	records map[string]*model.Record
	globals map[string]bool

	annotationSeq map[string]int
	nextAnnotation int
}

// NewFunctionAnalyzer builds an analyzer over the records and package-level
// globals of one translation unit.
func NewFunctionAnalyzer(log *logrus.Entry, records []*model.Record, globals map[string]bool) *FunctionAnalyzer {
	if log == nil {
		log = logrus.WithField("component", "function-analyzer")
	}
	byName := map[string]*model.Record{}
	for _, r := range records {
		byName[r.Name] = r
	}
	return &FunctionAnalyzer{log: log, records: byName, globals: globals, annotationSeq: map[string]int{}}
}

// Analyze returns a model.Function for fn if it looks like a traversal
// (receiver/first-param typed as a known record); otherwise nil.
func (a *FunctionAnalyzer) Analyze(fn *ast.FuncDecl) *model.Function {
	recvName, recvType, ok := a.traversalSubject(fn)
	if !ok {
		return nil
	}

	f := &model.Function{Name: fn.Name.Name, Decl: fn, Receiver: recvName, RecvType: recvType, ValidForFusion: true}
	if fn.Body == nil {
		f.ValidForFusion = false
		f.InvalidReason = "no body"
		return f
	}

	for idx, fs := range flattenStatements(fn.Body.List) {
		s := &model.Statement{Owner: f, Index: idx, Node: fs.node, GuardCond: fs.guardCond}
		a.classifyStatement(s, recvName)
		if fs.guardCond != nil {
			// Evaluating the guard reads whatever paths its condition
			// touches; fold those into the inner statement's own footprint
			// so dependence analysis sees the real read, not just the
			// statement's own body.
			for _, p := range a.collectPaths(fs.guardCond, recvName, true) {
				s.Footprint.AddRead(p)
			}
		}
		if err := a.checkSupported(fs.node); err != "" {
			f.ValidForFusion = false
			f.InvalidReason = err
		}
		f.Statements = append(f.Statements, s)
	}

	a.attachControlDeps(f)
	return f
}

// flatStmt is one statement after flattenStatements, together with the
// condition (if any) it was nested inside.
type flatStmt struct {
	node      ast.Stmt
	guardCond ast.Expr
}

// flattenStatements gives single-branch `if cond { ... }` guards (no else,
// no init) real per-statement granularity instead of treating the whole
// IfStmt as one opaque statement: each inner statement becomes its own
// flatStmt carrying the guard condition(s) it is nested inside, ANDed
// together when guards nest. This is the shape spec.md §8 scenario 4's
// early-exit guard uses (`if node.X == 0 { return }`), and the one the
// early-return and CONTROL-edge mechanics both need real statements for.
// Other control-flow shapes (if/else, for, switch, an if with an init
// statement) are left as one opaque statement, unchanged.
func flattenStatements(stmts []ast.Stmt) []flatStmt {
	var out []flatStmt
	for _, stmt := range stmts {
		ifs, ok := stmt.(*ast.IfStmt)
		if !ok || ifs.Else != nil || ifs.Init != nil || ifs.Body == nil {
			out = append(out, flatStmt{node: stmt})
			continue
		}
		for _, inner := range flattenStatements(ifs.Body.List) {
			cond := ifs.Cond
			if inner.guardCond != nil {
				cond = &ast.BinaryExpr{X: cond, Op: token.LAND, Y: inner.guardCond}
			}
			out = append(out, flatStmt{node: inner.node, guardCond: cond})
		}
	}
	return out
}

// traversalSubject finds the record-typed receiver or first parameter that
// names the traversal root for fn.
func (a *FunctionAnalyzer) traversalSubject(fn *ast.FuncDecl) (name, recordName string, ok bool) {
	if fn.Recv != nil && len(fn.Recv.List) > 0 {
		field := fn.Recv.List[0]
		if rn := recordNameOf(field.Type); rn != "" {
			if _, known := a.records[rn]; known {
				if len(field.Names) > 0 {
					return field.Names[0].Name, rn, true
				}
				return "_", rn, true
			}
		}
		return "", "", false
	}
	if fn.Type.Params != nil {
		for _, field := range fn.Type.Params.List {
			rn := recordNameOf(field.Type)
			if rn == "" {
				continue
			}
			if _, known := a.records[rn]; known && len(field.Names) > 0 {
				return field.Names[0].Name, rn, true
			}
		}
	}
	return "", "", false
}

// checkSupported rejects statement shapes the planner cannot reason about:
// goto/labeled control transfer (arbitrary control flow defeats the
// layered-block assumption of the synthesizer) and `&` applied directly to
// a call expression (address-taken call sites defeat compatibility analysis
// per spec.md §4.5).
func (a *FunctionAnalyzer) checkSupported(stmt ast.Stmt) string {
	var reason string
	ast.Inspect(stmt, func(n ast.Node) bool {
		switch t := n.(type) {
		case *ast.BranchStmt:
			if t.Tok.String() == "goto" {
				reason = "goto is unsupported control flow"
				return false
			}
		case *ast.LabeledStmt:
			reason = "labeled statements are unsupported control flow"
			return false
		case *ast.UnaryExpr:
			if t.Op.String() == "&" {
				if _, isCall := t.X.(*ast.CallExpr); isCall {
					reason = "address-taken call site"
					return false
				}
			}
		}
		return true
	})
	return reason
}

// attachControlDeps links each statement that flattenStatements pulled out
// of a guard (s.GuardCond != nil) to the earlier statements its own guard
// condition depends on, per spec.md §4.3's CONTROL definition ("statement j
// is syntactically inside a conditional whose predicate depends on i"): j is
// s itself, not every statement that happens to follow the original if.
func (a *FunctionAnalyzer) attachControlDeps(f *model.Function) {
	for i, s := range f.Statements {
		if s.GuardCond == nil {
			continue
		}
		predPaths := a.collectPaths(s.GuardCond, f.Receiver, true)
		for j := 0; j < i; j++ {
			earlier := f.Statements[j]
			if overlaps(earlier.Footprint.Writes, predPaths) {
				s.CondDependsOn = append(s.CondDependsOn, earlier)
			}
		}
	}
}

func overlaps(a, b []pathspace.AccessPath) bool {
	for _, x := range a {
		for _, y := range b {
			if x.String() == y.String() {
				return true
			}
		}
	}
	return false
}
