package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_ToStringFor_strings(t *testing.T) {
	_, ok := ToStringFor("String")
	assert.False(t, ok)
	_, ok = ToStringFor("str")
	assert.False(t, ok)
}

func Test_ToStringFor_bool(t *testing.T) {
	_, ok := ToStringFor("bool")
	assert.False(t, ok, "bool is stringified inline by codegen, not through a runtime call")
}

func Test_ToStringFor_floats(t *testing.T) {
	for _, name := range []string{"f8", "f16", "f32", "f64"} {
		sym, ok := ToStringFor(name)
		assert.True(t, ok)
		assert.Equal(t, FloatToString, sym)
	}
}

func Test_ToStringFor_defaultsToInt(t *testing.T) {
	sym, ok := ToStringFor("i32")
	assert.True(t, ok)
	assert.Equal(t, Int64ToString, sym)

	sym, ok = ToStringFor("u64")
	assert.True(t, ok)
	assert.Equal(t, Int64ToString, sym)
}

func Test_All_containsEverySymbolOnce(t *testing.T) {
	seen := map[string]bool{}
	for _, sym := range All {
		assert.False(t, seen[sym.Name], "duplicate symbol %q in All", sym.Name)
		seen[sym.Name] = true
	}
	assert.Len(t, All, 8)
}
