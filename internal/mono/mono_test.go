package mono

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dekarrin/yunic/internal/ast"
)

func callIdentity(arg ast.Expr) ast.Stmt {
	return &ast.ExprStmt{
		HasSemi: true,
		Expr: &ast.Call{
			Callee: &ast.Ident{Name: "identity"},
			Args:   []ast.Expr{arg},
		},
	}
}

func Test_Monomorphize_noGenerics_passesThroughUnchanged(t *testing.T) {
	f := &ast.File{Package: "main", Items: []ast.Item{&ast.Function{Name: "main"}}}

	res := Monomorphize(f)

	assert.Equal(t, f.Items[0], res.File.Items[0])
	assert.Empty(t, res.Instantiated)
}

func Test_Monomorphize_instantiatesOncePerDistinctTuple(t *testing.T) {
	identity := &ast.Function{
		Name:       "identity",
		TypeParams: []string{"T"},
		Params:     []ast.Param{{Name: "x", Type: ast.Var("T", ast.Type{}.Span)}},
		ReturnType: ast.Var("T", ast.Type{}.Span),
	}
	caller := &ast.Function{
		Name: "main",
		Body: &ast.Block{Stmts: []ast.Stmt{
			callIdentity(&ast.IntLit{Value: 1}),
			callIdentity(&ast.IntLit{Value: 2, Suffix: "i32"}),
			callIdentity(&ast.StringLit{Value: "hi"}),
		}},
	}
	f := &ast.File{Package: "main", Items: []ast.Item{identity, caller}}

	res := Monomorphize(f)

	require.Contains(t, res.Instantiated, "identity")
	names := res.Instantiated["identity"]
	assert.ElementsMatch(t, []string{"identity_i32", "identity_String"}, names,
		"two int args of the same inferred type must collapse to one instantiation")

	// original generic template is preserved alongside its instantiations.
	foundGeneric := false
	for _, it := range res.File.Items {
		if fn, ok := it.(*ast.Function); ok && fn.Name == "identity" {
			foundGeneric = true
		}
	}
	assert.True(t, foundGeneric)
	assert.True(t, IsGenericItem(identity))
	assert.False(t, IsGenericItem(caller))
}

func Test_instantiate_substitutesTypeParamsThroughout(t *testing.T) {
	identity := &ast.Function{
		Name:       "identity",
		TypeParams: []string{"T"},
		Params:     []ast.Param{{Name: "x", Type: ast.Var("T", ast.Type{}.Span)}},
		ReturnType: ast.Var("T", ast.Type{}.Span),
	}

	inst := instantiate(identity, []string{"i32"}, "identity_i32")

	fn, ok := inst.(*ast.Function)
	require.True(t, ok)
	assert.Equal(t, "identity_i32", fn.Name)
	assert.Empty(t, fn.TypeParams)
	assert.Equal(t, ast.TypeNamed, fn.Params[0].Type.Kind)
	assert.Equal(t, "i32", fn.Params[0].Type.Name)
	assert.Equal(t, "i32", fn.ReturnType.Name)
}
