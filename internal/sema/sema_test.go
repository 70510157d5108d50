package sema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dekarrin/yunic/internal/ast"
	"github.com/dekarrin/yunic/internal/diag"
	"github.com/dekarrin/yunic/internal/sema"
)

func hasKind(bag *diag.Bag, kind diag.Kind) bool {
	for _, d := range bag.All() {
		if d.Kind == kind {
			return true
		}
	}
	return false
}

func Test_Analyze_contradictoryLifetimesReportsError(t *testing.T) {
	bag := &diag.Bag{}
	fn := &ast.Function{
		Name: "f",
		Lives: []ast.LifetimeConstraint{
			{Target: "'a", Sources: []string{"'b"}},
			{Target: "'b", Sources: []string{"'a"}},
		},
		Body: &ast.Block{},
	}
	file := &ast.File{Package: "main", Items: []ast.Item{fn}}

	sema.New(bag).Analyze(file)

	require.True(t, bag.HasStage(diag.StageAnalysis))
	assert.True(t, hasKind(bag, diag.KindInconsistentLifetime))
}

func Test_Analyze_consistentLifetimesReportsNothing(t *testing.T) {
	bag := &diag.Bag{}
	fn := &ast.Function{
		Name: "f",
		Lives: []ast.LifetimeConstraint{
			{Target: "'a", Sources: []string{"'b"}},
		},
		Body: &ast.Block{},
	}
	file := &ast.File{Package: "main", Items: []ast.Item{fn}}

	sema.New(bag).Analyze(file)

	assert.False(t, bag.HasStage(diag.StageAnalysis))
}

func Test_Analyze_undefinedNameReported(t *testing.T) {
	bag := &diag.Bag{}
	fn := &ast.Function{
		Name: "f",
		Body: &ast.Block{
			Stmts: []ast.Stmt{
				&ast.ExprStmt{HasSemi: true, Expr: &ast.Ident{Name: "nope"}},
			},
		},
	}
	file := &ast.File{Package: "main", Items: []ast.Item{fn}}

	sema.New(bag).Analyze(file)

	require.True(t, bag.HasStage(diag.StageAnalysis))
	assert.True(t, hasKind(bag, diag.KindUndefined))
}

func Test_Analyze_duplicateFunctionReported(t *testing.T) {
	bag := &diag.Bag{}
	file := &ast.File{Package: "main", Items: []ast.Item{
		&ast.Function{Name: "f"},
		&ast.Function{Name: "f"},
	}}

	sema.New(bag).Analyze(file)

	assert.True(t, hasKind(bag, diag.KindDuplicate))
}

func Test_Analyze_letTypeMismatchReported(t *testing.T) {
	bag := &diag.Bag{}
	fn := &ast.Function{
		Name: "f",
		Body: &ast.Block{
			Stmts: []ast.Stmt{
				&ast.LetStmt{
					Name:    "x",
					HasType: true,
					Type:    ast.Primitive("bool", ast.Type{}.Span),
					Value:   &ast.IntLit{Value: 1},
				},
			},
		},
	}
	file := &ast.File{Package: "main", Items: []ast.Item{fn}}

	sema.New(bag).Analyze(file)

	assert.True(t, hasKind(bag, diag.KindTypeMismatch))
}

func Test_Analyze_callArgCountMismatchReported(t *testing.T) {
	bag := &diag.Bag{}
	callee := &ast.Function{
		Name:   "add",
		Params: []ast.Param{{Name: "a", Type: ast.Primitive("i32", ast.Type{}.Span)}},
		Body:   &ast.Block{},
	}
	caller := &ast.Function{
		Name: "main",
		Body: &ast.Block{
			Stmts: []ast.Stmt{
				&ast.ExprStmt{HasSemi: true, Expr: &ast.Call{
					Callee: &ast.Ident{Name: "add"},
					Args:   []ast.Expr{&ast.IntLit{Value: 1}, &ast.IntLit{Value: 2}},
				}},
			},
		},
	}
	file := &ast.File{Package: "main", Items: []ast.Item{callee, caller}}

	sema.New(bag).Analyze(file)

	assert.True(t, hasKind(bag, diag.KindArgCount))
}

func Test_Analyze_useAfterMoveReported(t *testing.T) {
	bag := &diag.Bag{}
	takesString := &ast.Function{
		Name:   "consume",
		Params: []ast.Param{{Name: "s", Type: ast.Primitive("String", ast.Type{}.Span)}},
		Body:   &ast.Block{},
	}
	caller := &ast.Function{
		Name: "main",
		Body: &ast.Block{
			Stmts: []ast.Stmt{
				&ast.LetStmt{Name: "s", Value: &ast.StringLit{Value: "hi"}},
				&ast.ExprStmt{HasSemi: true, Expr: &ast.Call{
					Callee: &ast.Ident{Name: "consume"},
					Args:   []ast.Expr{&ast.Ident{Name: "s"}},
				}},
				&ast.ExprStmt{HasSemi: true, Expr: &ast.Call{
					Callee: &ast.Ident{Name: "consume"},
					Args:   []ast.Expr{&ast.Ident{Name: "s"}},
				}},
			},
		},
	}
	file := &ast.File{Package: "main", Items: []ast.Item{takesString, caller}}

	sema.New(bag).Analyze(file)

	assert.True(t, hasKind(bag, diag.KindUseAfterMove))
}

func Test_Analyze_immutableAssignReported(t *testing.T) {
	bag := &diag.Bag{}
	fn := &ast.Function{
		Name: "f",
		Body: &ast.Block{
			Stmts: []ast.Stmt{
				&ast.LetStmt{Name: "x", Value: &ast.IntLit{Value: 1}},
				&ast.AssignStmt{Target: &ast.Ident{Name: "x"}, Value: &ast.IntLit{Value: 2}},
			},
		},
	}
	file := &ast.File{Package: "main", Items: []ast.Item{fn}}

	sema.New(bag).Analyze(file)

	assert.True(t, hasKind(bag, diag.KindImmutableAssign))
}

func Test_Analyze_registryExposesRegisteredFunction(t *testing.T) {
	bag := &diag.Bag{}
	fn := &ast.Function{Name: "f", Body: &ast.Block{}}
	file := &ast.File{Package: "main", Items: []ast.Item{fn}}

	a := sema.New(bag)
	a.Analyze(file)

	_, ok := a.Registry().Functions["f"]
	assert.True(t, ok)
}
