package fanout

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroup_WaitJoinsEveryForkedCall(t *testing.T) {
	g, _ := New(context.Background(), 0)

	done := make(chan struct{}, 3)
	for i := 0; i < 3; i++ {
		g.Go(func() error {
			done <- struct{}{}
			return nil
		})
	}

	require.NoError(t, g.Wait())
	assert.Len(t, done, 3)
}

func TestGroup_WaitReturnsFirstError(t *testing.T) {
	g, _ := New(context.Background(), 0)
	boom := errors.New("boom")

	g.Go(func() error { return boom })
	g.Go(func() error { return nil })

	assert.ErrorIs(t, g.Wait(), boom)
}

func TestBelowLimit(t *testing.T) {
	assert.True(t, BelowLimit(0, 4))
	assert.True(t, BelowLimit(3, 4))
	assert.False(t, BelowLimit(4, 4))
	assert.True(t, BelowLimit(100, 0), "maxDepth<=0 means unlimited recursion")
}
