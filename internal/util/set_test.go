package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_StringSet_basics(t *testing.T) {
	s := NewStringSet()
	s.Add("a")
	s.Add("b")

	assert.True(t, s.Has("a"))
	assert.False(t, s.Has("z"))
	assert.Equal(t, 2, s.Len())

	s.Remove("a")
	assert.False(t, s.Has("a"))
	assert.Equal(t, 1, s.Len())
}

func Test_StringSet_setOps(t *testing.T) {
	a := StringSetOf([]string{"x", "y"})
	b := StringSetOf([]string{"y", "z"})

	union := a.Union(b)
	assert.Equal(t, 3, union.Len())

	inter := a.Intersection(b)
	assert.Equal(t, 1, inter.Len())
	assert.True(t, inter.Has("y"))

	diff := a.Difference(b)
	assert.Equal(t, 1, diff.Len())
	assert.True(t, diff.Has("x"))

	assert.False(t, a.DisjointWith(b))
	assert.True(t, StringSetOf([]string{"q"}).DisjointWith(StringSetOf([]string{"r"})))
}

func Test_StringSet_Equal(t *testing.T) {
	a := StringSetOf([]string{"a", "b"})
	b := NewStringSet()
	b.AddAll(a)

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(StringSetOf([]string{"a"})))
	assert.False(t, a.Equal("not a set"))
}

func Test_KeySet_genericOverInts(t *testing.T) {
	s := KeySetOf([]int{1, 2, 3})

	assert.True(t, s.Has(2))
	assert.Equal(t, 3, s.Len())

	other := KeySetOf([]int{3, 4})
	union := s.Union(other)
	assert.Equal(t, 4, union.Len())
}
