package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Span_Join(t *testing.T) {
	a := Span{Start: 5, End: 10, Line: 1, Col: 6}
	b := Span{Start: 2, End: 8, Line: 1, Col: 3}

	got := Join(a, b)

	assert.Equal(t, Span{Start: 2, End: 10, Line: 1, Col: 3}, got)
}

func Test_Span_Valid(t *testing.T) {
	assert.True(t, Span{Start: 0, End: 0}.Valid())
	assert.True(t, Span{Start: 3, End: 7}.Valid())
	assert.False(t, Span{Start: 7, End: 3}.Valid())
}

func Test_Class_Equal_comparesByID(t *testing.T) {
	a := NewClass("plus", "'+'")
	b := NewClass("plus", "different human name")
	c := NewClass("minus", "'-'")

	assert.True(t, a.Equal(b), "classes with the same ID are equal regardless of human text")
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal("not a class"))
}

func Test_Token_Equal(t *testing.T) {
	span := Span{Start: 0, End: 1, Line: 1, Col: 1}
	tok1 := New(Plus, "+", span, "+ 1")
	tok2 := New(Plus, "+", span, "+ 1")
	tok3 := New(Minus, "-", span, "- 1")

	assert.True(t, tok1.Equal(tok2))
	assert.False(t, tok1.Equal(tok3))
}

func Test_Token_WithSuffix(t *testing.T) {
	tok := New(IntLit, "42", Span{}, "42")
	withSuffix := tok.WithSuffix("u8")

	assert.Equal(t, "", tok.Suffix(), "WithSuffix must not mutate the receiver")
	assert.Equal(t, "u8", withSuffix.Suffix())
}
