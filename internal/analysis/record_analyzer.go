// Package analysis implements the leaf layers of the fusion pipeline: the
// record analyzer, function analyzer, statement-info layer and candidate
// finder of spec.md §2.
package analysis

import (
	"go/ast"

	"github.com/sirupsen/logrus"

	"github.com/viant/treefuse/internal/model"
)

// RecordAnalyzer classifies user-defined struct types into model.Record
// values: which fields are tree edges, and which traversal interfaces a
// record implements. Records and the functions analyzed over them are
// immutable once built, per spec.md §3's lifecycle rule.
type RecordAnalyzer struct {
	log *logrus.Entry
}

// NewRecordAnalyzer returns a RecordAnalyzer logging under the given entry
// (nil uses the package default logger).
func NewRecordAnalyzer(log *logrus.Entry) *RecordAnalyzer {
	if log == nil {
		log = logrus.WithField("component", "record-analyzer")
	}
	return &RecordAnalyzer{log: log}
}

// Analyze walks a parsed file's declarations and returns every struct
// record and traversal interface it declares. Edge resolution (pointer
// fields to other known records) is a second pass once all struct names in
// the file are known.
func (a *RecordAnalyzer) Analyze(file *ast.File) ([]*model.Record, []*model.TraversalInterface) {
	var records []*model.Record
	var ifaces []*model.TraversalInterface
	byName := map[string]*model.Record{}

	for _, decl := range file.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok {
			continue
		}
		for _, spec := range gen.Specs {
			ts, ok := spec.(*ast.TypeSpec)
			if !ok {
				continue
			}
			switch t := ts.Type.(type) {
			case *ast.StructType:
				r := &model.Record{Name: ts.Name.Name, Decl: ts, Struct: t, Methods: map[string]*ast.FuncDecl{}}
				records = append(records, r)
				byName[r.Name] = r
			case *ast.InterfaceType:
				iface := &model.TraversalInterface{Name: ts.Name.Name}
				for _, m := range t.Methods.List {
					if _, isFunc := m.Type.(*ast.FuncType); isFunc {
						for _, n := range m.Names {
							iface.Methods = append(iface.Methods, n.Name)
						}
					}
				}
				ifaces = append(ifaces, iface)
			}
		}
	}

	// Attach methods declared with a pointer/value receiver on a record.
	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Recv == nil || len(fn.Recv.List) == 0 {
			continue
		}
		recvName := recordNameOf(fn.Recv.List[0].Type)
		if r, ok := byName[recvName]; ok {
			r.Methods[fn.Name.Name] = fn
		}
	}

	// Tree-edge resolution: a field is a tree edge iff its (possibly
	// pointer/slice-of-pointer) element type names another known record.
	for _, r := range records {
		for _, field := range r.Struct.Fields.List {
			toName, isSlice := elementRecordName(field.Type)
			if toName == "" {
				continue
			}
			if _, known := byName[toName]; !known {
				continue
			}
			for _, n := range fieldNames(field) {
				r.Edges = append(r.Edges, model.Edge{Field: n, ToRecord: toName, IsSlice: isSlice})
			}
		}
	}

	// Subtype relation: a record implements a traversal interface if its
	// method set is a superset of the interface's methods, matched by name
	// only (spec.md's Non-goals exclude general alias/whole-program
	// analysis; a full structural/signature check is unnecessary for
	// identifying fusion-relevant dispatch points).
	for _, iface := range ifaces {
		for _, r := range records {
			if implementsByName(r, iface.Methods) {
				iface.Subtypes = append(iface.Subtypes, r.Name)
				r.Implements = append(r.Implements, iface.Name)
			}
		}
	}

	a.log.WithField("records", len(records)).WithField("interfaces", len(ifaces)).Debug("record analysis complete")
	return records, ifaces
}

func implementsByName(r *model.Record, methods []string) bool {
	if len(methods) == 0 {
		return false
	}
	for _, m := range methods {
		if _, ok := r.Methods[m]; !ok {
			return false
		}
	}
	return true
}

func recordNameOf(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return recordNameOf(t.X)
	case *ast.Ident:
		return t.Name
	case *ast.IndexExpr: // generic receiver T[P]
		return recordNameOf(t.X)
	default:
		return ""
	}
}

// elementRecordName returns the record name a field's type ultimately
// points at (through one level of pointer and/or slice) and whether that
// indirection was a slice, or "" if the field's type isn't a reference to a
// named type at all (e.g. a scalar).
func elementRecordName(expr ast.Expr) (name string, isSlice bool) {
	switch t := expr.(type) {
	case *ast.StarExpr:
		n, _ := elementRecordName(t.X)
		return n, false
	case *ast.ArrayType:
		n, _ := elementRecordName(t.Elt)
		return n, true
	case *ast.Ident:
		return t.Name, false
	case *ast.SelectorExpr:
		return "", false
	default:
		return "", false
	}
}

func fieldNames(field *ast.Field) []string {
	if len(field.Names) == 0 {
		// embedded field; its name is the type name
		if n := recordNameOf(field.Type); n != "" {
			return []string{n}
		}
		return nil
	}
	var out []string
	for _, n := range field.Names {
		out = append(out, n.Name)
	}
	return out
}
