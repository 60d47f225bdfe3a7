package model

import "github.com/viant/treefuse/internal/pathspace"

// Footprint is the per-statement read/write/replace set of spec.md §3:
// three sets of AccessPaths. Replaces are always on-tree (destructive node
// mutation only makes sense against the tree).
type Footprint struct {
	Reads    []pathspace.AccessPath
	Writes   []pathspace.AccessPath
	Replaces []pathspace.AccessPath
}

// ByKind filters a path slice down to one Kind, used when building the
// local/global/tree automata groups.
func ByKind(paths []pathspace.AccessPath, kind pathspace.Kind) []pathspace.AccessPath {
	var out []pathspace.AccessPath
	for _, p := range paths {
		if p.Kind == kind {
			out = append(out, p)
		}
	}
	return out
}

// AddRead, AddWrite and AddReplace append a path to their set; AddReplace
// panics on a path that is not on-tree, enforcing the "replaces are always
// on-tree" invariant from spec.md §3.
func (f *Footprint) AddRead(p pathspace.AccessPath)  { f.Reads = append(f.Reads, p) }
func (f *Footprint) AddWrite(p pathspace.AccessPath) { f.Writes = append(f.Writes, p) }
func (f *Footprint) AddReplace(p pathspace.AccessPath) {
	if p.Kind != pathspace.OnTree {
		panic("replace footprint must be on-tree: " + p.String())
	}
	f.Replaces = append(f.Replaces, p)
}
