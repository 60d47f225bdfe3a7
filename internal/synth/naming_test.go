package synth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFuseName_IsStableAcrossReordering(t *testing.T) {
	n := NewNamer()
	a := n.FuseName([]string{"visitLeft", "visitRight"})
	b := n.FuseName([]string{"visitRight", "visitLeft"})
	assert.Equal(t, a, b, "createName must not depend on callee order")
}

func TestFuseName_DiffersForDifferentCalleeSets(t *testing.T) {
	n := NewNamer()
	a := n.FuseName([]string{"visitLeft", "visitRight"})
	b := n.FuseName([]string{"visitLeft", "visitOther"})
	assert.NotEqual(t, a, b)
}

func TestFuseName_AssignsMonotonicIDsInFirstSeenOrder(t *testing.T) {
	n := NewNamer()
	assert.Equal(t, 1, n.idFor("first"))
	assert.Equal(t, 2, n.idFor("second"))
	assert.Equal(t, 1, n.idFor("first"), "a repeat callee reuses its assigned id")
}

func TestParallelAndSerialVariant_AppendSuffixes(t *testing.T) {
	assert.Equal(t, "fuse_F1_parallel", ParallelVariant("fuse_F1"))
	assert.Equal(t, "fuse_F1_serial", SerialVariant("fuse_F1"))
}
