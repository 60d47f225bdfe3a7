package analysis

import (
	"go/ast"

	"github.com/viant/treefuse/internal/model"
	"github.com/viant/treefuse/internal/pathspace"
)

// classifyStatement fills in s.Footprint and, if s is a call to another
// traversal, s.IsCall/s.Callee/s.CalledChild(Path).
func (a *FunctionAnalyzer) classifyStatement(s *model.Statement, root string) {
	switch n := s.Node.(type) {
	case *ast.AssignStmt:
		for _, rhs := range n.Rhs {
			for _, p := range a.collectPaths(rhs, root, true) {
				s.Footprint.AddRead(p)
			}
		}
		for _, lhs := range n.Lhs {
			for _, p := range a.collectPaths(lhs, root, false) {
				s.Footprint.AddWrite(p)
				if p.Kind == pathspace.OnTree {
					s.Footprint.AddReplace(p)
				}
			}
		}
	case *ast.IncDecStmt:
		for _, p := range a.collectPaths(n.X, root, false) {
			s.Footprint.AddRead(p)
			s.Footprint.AddWrite(p)
		}
	case *ast.DeclStmt:
		gen, ok := n.Decl.(*ast.GenDecl)
		if !ok {
			return
		}
		for _, spec := range gen.Specs {
			vs, ok := spec.(*ast.ValueSpec)
			if !ok {
				continue
			}
			for _, name := range vs.Names {
				s.Footprint.AddWrite(pathspace.AccessPath{Kind: pathspace.Local, Root: name.Name, HasValuePart: true})
			}
			for _, v := range vs.Values {
				for _, p := range a.collectPaths(v, root, true) {
					s.Footprint.AddRead(p)
				}
			}
		}
	case *ast.ReturnStmt:
		for _, r := range n.Results {
			for _, p := range a.collectPaths(r, root, true) {
				s.Footprint.AddRead(p)
			}
		}
	case *ast.IfStmt:
		for _, p := range a.collectPaths(n.Cond, root, true) {
			s.Footprint.AddRead(p)
		}
	case *ast.ExprStmt:
		a.classifyExprStmt(s, n, root)
	default:
		// Statements we don't specialize (for/range/switch bodies, blocks)
		// contribute the paths of every expression they contain as reads;
		// assignments inside them are recorded as reads, not as writes.
		ast.Inspect(n, func(node ast.Node) bool {
			e, ok := node.(ast.Expr)
			if !ok {
				return true
			}
			for _, p := range a.collectPaths(e, root, true) {
				s.Footprint.AddRead(p)
			}
			return false
		})
	}
}

// classifyExprStmt handles the two statement shapes spec.md §4.5 cares
// about: a call whose receiver (member call) or first argument (free
// function) chains off the traversal root, recorded as a call statement with
// its called-child whether or not the callee is an analyzed traversal; or
// any other call, recorded as an opaque strict-annotated write with its
// arguments as reads.
func (a *FunctionAnalyzer) classifyExprStmt(s *model.Statement, expr *ast.ExprStmt, root string) {
	call, ok := expr.X.(*ast.CallExpr)
	if !ok {
		for _, p := range a.collectPaths(expr.X, root, true) {
			s.Footprint.AddRead(p)
		}
		return
	}

	callee, path, isCall := a.calleeAndChildPath(call, root)
	if isCall {
		s.IsCall = true
		s.Callee = callee
		s.CalledChildPath = path
		if len(path) > 0 {
			last := path[len(path)-1]
			s.CalledChild = &last
		}
		// The receiver/first-argument path is read (we traverse through
		// it); remaining arguments are read as usual.
		s.Footprint.AddRead(pathspace.AccessPath{Kind: pathspace.OnTree, Root: root, Steps: path})
		startArg := 0
		if _, isSelectorCall := call.Fun.(*ast.SelectorExpr); !isSelectorCall {
			startArg = 1 // first positional arg was the receiver path already recorded
		}
		for i, arg := range call.Args {
			if i < startArg {
				continue
			}
			for _, p := range a.collectPaths(arg, root, true) {
				s.Footprint.AddRead(p)
			}
		}
		return
	}

	// Opaque call: declare its effect via a dedicated abstract-access id,
	// one per distinct callee name so repeated calls to the same unknown
	// function share dependence semantics.
	for _, arg := range call.Args {
		for _, p := range a.collectPaths(arg, root, true) {
			s.Footprint.AddRead(p)
		}
	}
	s.Footprint.AddWrite(pathspace.AccessPath{Kind: pathspace.Strict, AnnotationID: a.annotationID(callee)})
}

func (a *FunctionAnalyzer) annotationID(callee string) int {
	if id, ok := a.annotationSeq[callee]; ok {
		return id
	}
	id := a.nextAnnotation
	a.nextAnnotation++
	a.annotationSeq[callee] = id
	return id
}

// calleeAndChildPath extracts the called function/method name and the
// field-chain path from the traversal root to the argument/receiver the
// call descends through, per spec.md §4.5: "The child path is extracted
// from the first argument (free function) or the implicit receiver (member
// call)." isCall is false when the call's subject doesn't chain off root;
// the callee name is not checked against the analyzed functions.
func (a *FunctionAnalyzer) calleeAndChildPath(call *ast.CallExpr, root string) (callee string, path []string, isCall bool) {
	switch fn := call.Fun.(type) {
	case *ast.SelectorExpr:
		// recv.Method(...): the child path is the chain from root to recv.
		p, ok := chainFromRoot(fn.X, root)
		if !ok {
			return "", nil, false
		}
		return fn.Sel.Name, p, true
	case *ast.Ident:
		if len(call.Args) == 0 {
			return "", nil, false
		}
		p, ok := chainFromRoot(call.Args[0], root)
		if !ok {
			return "", nil, false
		}
		return fn.Name, p, true
	default:
		return "", nil, false
	}
}

// chainFromRoot reports the field-name sequence from root to expr when expr
// is a (possibly empty) selector chain rooted at the identifier root, e.g.
// chainFromRoot(n.Left.Right, "n") -> (["Left","Right"], true).
func chainFromRoot(expr ast.Expr, root string) ([]string, bool) {
	var steps []string
	for {
		switch e := expr.(type) {
		case *ast.Ident:
			if e.Name == root {
				reverse(steps)
				return steps, true
			}
			return nil, false
		case *ast.SelectorExpr:
			steps = append(steps, e.Sel.Name)
			expr = e.X
		default:
			return nil, false
		}
	}
}

func reverse(s []string) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

// collectPaths walks expr and returns an AccessPath for every leaf selector
// chain or bare identifier it finds, classified by kind (on-tree if rooted
// at the traversal root, local if rooted at another local/parameter, global
// if rooted at a package-level variable). asRead only affects nothing here;
// callers decide which footprint set to add the result to.
func (a *FunctionAnalyzer) collectPaths(expr ast.Expr, root string, _ bool) []pathspace.AccessPath {
	var out []pathspace.AccessPath
	var walk func(e ast.Expr)
	walk = func(e ast.Expr) {
		switch t := e.(type) {
		case *ast.SelectorExpr:
			if steps, ok := chainFromRoot(t, root); ok {
				out = append(out, pathspace.AccessPath{Kind: pathspace.OnTree, Root: root, Steps: steps, HasValuePart: isValueField(a, root, steps)})
				return
			}
			// Not rooted at the traversal root: classify the base ident as
			// local or global and still record the chain for dependence
			// comparisons within that variable's own footprints.
			if steps, base, ok := chainFromAnyIdent(t); ok {
				out = append(out, pathspace.AccessPath{Kind: a.kindOf(base), Root: base, Steps: steps, HasValuePart: true})
				return
			}
			walk(t.X)
		case *ast.Ident:
			if t.Name == root {
				out = append(out, pathspace.AccessPath{Kind: pathspace.OnTree, Root: root, HasValuePart: false})
				return
			}
			if t.Name == "_" || t.Name == "nil" || t.Name == "true" || t.Name == "false" {
				return
			}
			out = append(out, pathspace.AccessPath{Kind: a.kindOf(t.Name), Root: t.Name, HasValuePart: true})
		case *ast.CallExpr:
			for _, arg := range t.Args {
				walk(arg)
			}
			walk(t.Fun)
		case *ast.BinaryExpr:
			walk(t.X)
			walk(t.Y)
		case *ast.UnaryExpr:
			walk(t.X)
		case *ast.ParenExpr:
			walk(t.X)
		case *ast.StarExpr:
			walk(t.X)
		case *ast.IndexExpr:
			walk(t.X)
			walk(t.Index)
		case *ast.BasicLit:
			// literal: no paths
		default:
			// Best-effort: don't fail analysis on shapes we don't special
			// case; simply contribute nothing further.
		}
	}
	walk(expr)
	return out
}

func (a *FunctionAnalyzer) kindOf(name string) pathspace.Kind {
	if a.globals[name] {
		return pathspace.Global
	}
	return pathspace.Local
}

// isValueField reports whether the field chain ends at a scalar (non
// pointer, non struct) field of the record rooted at root, so ReadAutomaton
// knows whether to append the Sigma* closure (§4.1).
func isValueField(a *FunctionAnalyzer, root string, steps []string) bool {
	if len(steps) == 0 {
		return false
	}
	// Best-effort: without full type resolution we treat any chain ending
	// in a field that is also a registered tree edge as non-scalar, and
	// everything else as a value; this matches the common case in visitor
	// bodies where only non-edge fields are read as plain values.
	for _, r := range a.records {
		if e := r.EdgeTo(steps[len(steps)-1]); e != nil {
			return false
		}
	}
	return true
}

func chainFromAnyIdent(expr ast.Expr) (steps []string, base string, ok bool) {
	for {
		switch e := expr.(type) {
		case *ast.Ident:
			reverse(steps)
			return steps, e.Name, true
		case *ast.SelectorExpr:
			steps = append(steps, e.Sel.Name)
			expr = e.X
		default:
			return nil, "", false
		}
	}
}
