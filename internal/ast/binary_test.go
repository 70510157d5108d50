package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_File_roundTrip(t *testing.T) {
	f := &File{
		Package: "main",
		Imports: []Import{{Path: "std/io", Alias: "io"}},
		Items: []Item{
			&Function{Pub: true, Name: "add"},
			&Method{Pub: false, Name: "len", ReceiverType: "Vec"},
			&StructDef{Name: "Point"},
			&EnumDef{Name: "Shape"},
			&AliasDef{Name: "Id"},
		},
	}

	data, err := f.MarshalBinary()
	require.NoError(t, err)

	got := &File{}
	require.NoError(t, got.UnmarshalBinary(data))

	assert.True(t, f.Equal(got), "round trip should reproduce the signature-level projection")
}

func Test_File_Equal_detectsDifference(t *testing.T) {
	a := &File{Package: "main", Items: []Item{&Function{Name: "f"}}}
	b := &File{Package: "main", Items: []Item{&Function{Name: "g"}}}

	assert.False(t, a.Equal(b))
}

func Test_File_Equal_detectsKindMismatch(t *testing.T) {
	a := &File{Package: "main", Items: []Item{&Function{Name: "f"}}}
	b := &File{Package: "main", Items: []Item{&StructDef{Name: "f"}}}

	assert.False(t, a.Equal(b))
}
