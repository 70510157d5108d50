package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dekarrin/yunic/internal/diag"
	"github.com/dekarrin/yunic/internal/token"
)

func classesOf(t *testing.T, toks []token.Token) []token.Class {
	t.Helper()
	out := make([]token.Class, len(toks))
	for i, tok := range toks {
		out[i] = tok.Class()
	}
	return out
}

func Test_Tokens_keywordsAndIdents(t *testing.T) {
	bag := &diag.Bag{}
	toks := New("fn add pub", bag).Tokens()

	require.False(t, bag.HasErrors())
	require.Len(t, toks, 4) // fn, add, pub, EOF
	assert.True(t, toks[0].Class().Equal(token.Fn))
	assert.True(t, toks[1].Class().Equal(token.Ident))
	assert.Equal(t, "add", toks[1].Lexeme())
	assert.True(t, toks[2].Class().Equal(token.Pub))
	assert.True(t, toks[3].Class().Equal(token.EOF))
}

func Test_Tokens_numericSuffix(t *testing.T) {
	bag := &diag.Bag{}
	toks := New("42u8 3.14f32", bag).Tokens()

	require.False(t, bag.HasErrors())
	require.GreaterOrEqual(t, len(toks), 2)
	assert.True(t, toks[0].Class().Equal(token.IntLit))
	assert.Equal(t, "u8", toks[0].Suffix())
	assert.True(t, toks[1].Class().Equal(token.FloatLit))
	assert.Equal(t, "f32", toks[1].Suffix())
}

func Test_Tokens_operatorsDisambiguateByLength(t *testing.T) {
	bag := &diag.Bag{}
	toks := New("== = != ! <= < -> &&", bag).Tokens()

	require.False(t, bag.HasErrors())
	classes := classesOf(t, toks)
	assert.Contains(t, classes, token.EqEq)
	assert.Contains(t, classes, token.Eq)
	assert.Contains(t, classes, token.NotEq)
	assert.Contains(t, classes, token.Not)
	assert.Contains(t, classes, token.LtEq)
	assert.Contains(t, classes, token.Lt)
	assert.Contains(t, classes, token.Arrow)
	assert.Contains(t, classes, token.AndAnd)
}

func Test_Tokens_spansAreByteAccurate(t *testing.T) {
	bag := &diag.Bag{}
	toks := New("  foo", bag).Tokens()

	require.NotEmpty(t, toks)
	span := toks[0].Span()
	assert.Equal(t, 2, span.Start)
	assert.Equal(t, 5, span.End)
}

func Test_Tokens_commentsAreSkipped(t *testing.T) {
	bag := &diag.Bag{}
	toks := New("// a comment\nfn", bag).Tokens()

	require.False(t, bag.HasErrors())
	require.Len(t, toks, 2)
	assert.True(t, toks[0].Class().Equal(token.Fn))
}

func Test_Tokens_unknownByteRecordsDiagnosticAndContinues(t *testing.T) {
	bag := &diag.Bag{}
	toks := New("fn @ add", bag).Tokens()

	assert.True(t, bag.HasStage(diag.StageLex))
	// lexing continues past the bad byte(s) and still finds "add" and EOF.
	classes := classesOf(t, toks)
	assert.Contains(t, classes, token.Ident)
	assert.Contains(t, classes, token.EOF)
}
