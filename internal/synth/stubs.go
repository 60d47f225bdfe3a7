package synth

import (
	"fmt"

	"github.com/viant/treefuse/internal/model"
)

// DefaultDepth and DefaultMaxDepth are the literal initial-call constants
// spec.md §4.8's "Replacement" specifies for any dispatch call a writeback
// plan emits, virtual stubs included: `depth=0, maxDepth=1024`. Exported so
// internal/driver can share one canonical value instead of duplicating it.
const (
	DefaultDepth    = 0
	DefaultMaxDepth = 1024
)

// Stub is one per-subtype virtual dispatch method the synthesizer emits
// for a candidate whose participating callees include a virtual method
// (spec.md §4.8's "Virtual stubs"): a method on the subtype that dispatches
// to the subtype-specialized fused function.
type Stub struct {
	Receiver      string // concrete record name implementing the traversal interface
	MethodName    string // original virtual method name the stub replaces
	FusedName     string // the parallel-variant fused function name it calls
	TruncateFlags uint64 // (1<<N)-1 over the candidate's N call statements, all bits active
}

// VirtualStubs builds one Stub per concrete subtype of iface, each calling
// the fused function generated for that subtype's specialization of the
// candidate (spec.md: "the synthesizer performs fusion per derived record
// type so each path through the class hierarchy has a materialized plan").
// numStatements is the candidate's call-statement count, shared across every
// subtype specialization since they all fuse the same call sites.
func VirtualStubs(iface *model.TraversalInterface, methodName string, fusedByRecvType map[string]string, numStatements int) []Stub {
	truncateFlags := uint64(1)<<uint(numStatements) - 1
	var out []Stub
	for _, sub := range iface.Subtypes {
		fused, ok := fusedByRecvType[sub]
		if !ok {
			continue
		}
		out = append(out, Stub{Receiver: sub, MethodName: methodName, FusedName: fused, TruncateFlags: truncateFlags})
	}
	return out
}

// RenderStub emits the stub method's Go source text: a thin dispatcher
// from the original virtual method name to the fused parallel variant,
// starting at the same depth=0/maxDepth=1024 every dispatch call does.
func RenderStub(s Stub) string {
	return fmt.Sprintf(
		"func (_r *%s) %s() {\n\t_r.%s(%d, %d, %d)\n}\n",
		s.Receiver, s.MethodName, s.FusedName, s.TruncateFlags, DefaultDepth, DefaultMaxDepth,
	)
}
