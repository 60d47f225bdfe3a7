package driver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"

	"github.com/viant/treefuse/internal/config"
)

const twoCountersFixture = `package tree

var counterA int
var counterB int

type LeafNode struct{}

func (n *LeafNode) VisitA() {
	counterA++
}

func (n *LeafNode) VisitB() {
	counterB++
}

type BranchNode struct {
	Left *LeafNode
}

func (n *BranchNode) Walk() {
	n.Left.VisitA()
	n.Left.VisitB()
}
`

func newTestDriver(t *testing.T) (*Driver, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "tree.go")
	require.NoError(t, os.WriteFile(path, []byte(twoCountersFixture), 0644))

	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(logrus.PanicLevel)

	d := New(afs.New(), config.Default(), logrus.NewEntry(log))
	return d, path
}

func TestRun_DryRunLeavesFileUntouched(t *testing.T) {
	d, path := newTestDriver(t)
	d.DryRun = true

	results, err := d.Run(context.Background(), []string{path})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 1, results[0].Candidates)
	assert.Equal(t, 1, results[0].Fused)
	assert.Equal(t, 0, results[0].Skipped)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, twoCountersFixture, string(after))
}

func TestRun_CommitsWritebackPlan(t *testing.T) {
	d, path := newTestDriver(t)

	results, err := d.Run(context.Background(), []string{path})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 1, results[0].Fused)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(after)

	assert.Contains(t, out, "// n.Left.VisitA()")
	assert.Contains(t, out, "// n.Left.VisitB()")
	assert.Contains(t, out, "if 0 < 1024 {")
	assert.Contains(t, out, "_parallel(")
	assert.Contains(t, out, "_serial(")
}

func TestRun_AbortsOnInputThatFailsToParse(t *testing.T) {
	d, path := newTestDriver(t)
	require.NoError(t, os.WriteFile(path, []byte("package tree\nfunc ( {"), 0644))

	_, err := d.Run(context.Background(), []string{path})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInputCompile)
}

func TestRun_FastScanSkipsFileWithNoMethods(t *testing.T) {
	d, path := newTestDriver(t)
	require.NoError(t, os.WriteFile(path, []byte("package tree\n\nfunc Plain() {}\n"), 0644))

	results, err := d.Run(context.Background(), []string{path})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 0, results[0].Candidates)
	assert.Equal(t, 0, results[0].Fused)
}
