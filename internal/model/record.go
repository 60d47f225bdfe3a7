// Package model holds the record/function-level facts the analysis layer
// derives from a translation unit: which struct fields are tree edges,
// which types implement a traversal interface (subtype relation), and the
// per-statement footprints used by the dependence analyzer.
package model

import "go/ast"

// Edge is a struct field that points at another analyzed record, i.e. a
// tree edge a traversal can recurse through.
type Edge struct {
	Field    string // field name
	ToRecord string // name of the record type the field points to
	IsSlice  bool   // field is a slice of children rather than a single child
}

// Record describes one analyzed struct type.
type Record struct {
	Name    string
	Decl    *ast.TypeSpec
	Struct  *ast.StructType
	Edges   []Edge
	Methods map[string]*ast.FuncDecl

	// Implements lists the traversal interfaces this record satisfies by
	// method-set match (our stand-in for "derived record type" in a
	// language with classes: a Go interface is the "virtual" traversal
	// signature, and every concrete type satisfying it is a subtype).
	Implements []string
}

// EdgeTo returns the edge named field, or nil.
func (r *Record) EdgeTo(field string) *Edge {
	for i := range r.Edges {
		if r.Edges[i].Field == field {
			return &r.Edges[i]
		}
	}
	return nil
}

// TraversalInterface describes an interface type whose methods are
// candidate virtual traversal signatures, plus the set of concrete record
// names implementing it (the "subtype relation" of spec.md §2's Record
// analyzer).
type TraversalInterface struct {
	Name       string
	Methods    []string
	Subtypes   []string // record names implementing this interface
}
