package pathspace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chain(t *testing.T, labels ...Label) *Automaton {
	t.Helper()
	a := NewAutomaton()
	cur := a.Start()
	for _, l := range labels {
		next := a.AddState()
		a.AddArc(cur, next, l)
		cur = next
	}
	a.SetFinal(cur)
	return a
}

func TestAutomaton_IsEmpty(t *testing.T) {
	empty := NewAutomaton()
	assert.True(t, empty.IsEmpty())

	nonEmpty := chain(t, Label(5))
	assert.False(t, nonEmpty.IsEmpty())
}

func TestUnion_AcceptsEitherLanguage(t *testing.T) {
	a := chain(t, Label(2))
	b := chain(t, Label(3))
	u := Union(a, b)

	require.False(t, u.IsEmpty())
	assert.True(t, HasNonEmptyIntersection(u, a))
	assert.True(t, HasNonEmptyIntersection(u, b))
}

func TestIntersect_DisjointLanguagesAreEmpty(t *testing.T) {
	a := chain(t, Label(2))
	b := chain(t, Label(3))
	assert.False(t, HasNonEmptyIntersection(a, b))
}

func TestIntersect_SharedPrefixIsNonEmpty(t *testing.T) {
	a := chain(t, Label(1), Label(2))
	b := chain(t, Label(1), Label(2))
	assert.True(t, HasNonEmptyIntersection(a, b))
}

func TestAnyClosureAutomata_AcceptsEveryKnownLabel(t *testing.T) {
	table := NewSymbolTable()
	l1 := table.FieldLabel("left")
	l2 := table.FieldLabel("right")

	loop := AnyClosureAutomata(table)
	assert.True(t, HasNonEmptyIntersection(loop, chain(t, l1)))
	assert.True(t, HasNonEmptyIntersection(loop, chain(t, l2)))
}

func TestPrefix_LiftsInnerAutomatonUnderPath(t *testing.T) {
	table := NewSymbolTable()
	childField := table.FieldLabel("child")
	inner := chain(t, Label(9))

	lifted := Prefix(table, ROOT, []Label{childField}, inner)
	assert.True(t, HasNonEmptyIntersection(lifted, chain(t, ROOT, childField, Label(9))))
	assert.False(t, lifted.IsEmpty())
}
