package synth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/treefuse/internal/model"
)

func TestVirtualStubs_OneStubPerSpecializedSubtype(t *testing.T) {
	iface := &model.TraversalInterface{Name: "Node", Methods: []string{"Accept"}, Subtypes: []string{"LeafNode", "BranchNode"}}
	byRecv := map[string]string{
		"LeafNode":   "fuse_F1_F2",
		"BranchNode": "fuse_F1_F3",
	}

	stubs := VirtualStubs(iface, "Accept", byRecv, 2)
	require.Len(t, stubs, 2)
	for _, s := range stubs {
		assert.Equal(t, "Accept", s.MethodName)
		assert.Equal(t, byRecv[s.Receiver], s.FusedName)
		assert.Equal(t, uint64(3), s.TruncateFlags)
	}
}

func TestVirtualStubs_SkipsSubtypeWithoutGeneratedSpecialization(t *testing.T) {
	iface := &model.TraversalInterface{Name: "Node", Subtypes: []string{"LeafNode", "BranchNode"}}
	byRecv := map[string]string{"LeafNode": "fuse_F1_F2"}

	stubs := VirtualStubs(iface, "Accept", byRecv, 1)
	require.Len(t, stubs, 1)
	assert.Equal(t, "LeafNode", stubs[0].Receiver)
}

func TestRenderStub_DispatchesToFusedParallelVariant(t *testing.T) {
	s := Stub{Receiver: "LeafNode", MethodName: "Accept", FusedName: "fuse_F1_F2_parallel", TruncateFlags: 3}
	out := RenderStub(s)
	assert.Contains(t, out, "func (_r *LeafNode) Accept()")
	assert.Contains(t, out, "_r.fuse_F1_F2_parallel(3, 0, 1024)")
}
