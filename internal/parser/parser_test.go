package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dekarrin/yunic/internal/ast"
	"github.com/dekarrin/yunic/internal/diag"
	"github.com/dekarrin/yunic/internal/lexer"
	"github.com/dekarrin/yunic/internal/parser"
)

func parse(t *testing.T, src string) (*ast.File, *diag.Bag) {
	t.Helper()
	bag := &diag.Bag{}
	toks := lexer.New(src, bag).Tokens()
	file := parser.New(toks, bag).Parse()
	return file, bag
}

func Test_Parse_functionWithBody(t *testing.T) {
	file, bag := parse(t, `package main
fn add(a: i32, b: i32): i32 {
	return a + b;
}
`)

	require.False(t, bag.HasStage(diag.StageParse))
	require.Len(t, file.Items, 1)
	fn, ok := file.Items[0].(*ast.Function)
	require.True(t, ok)
	assert.Equal(t, "add", fn.Name)
	require.Len(t, fn.Params, 2)
	assert.Equal(t, "a", fn.Params[0].Name)
	assert.Equal(t, "i32", fn.ReturnType.Name)
}

func Test_Parse_genericFunctionWithLivesClause(t *testing.T) {
	file, bag := parse(t, `package main
fn identity<T>(x: T): T lives { a = b } {
	return x;
}
`)

	require.False(t, bag.HasStage(diag.StageParse))
	require.Len(t, file.Items, 1)
	fn := file.Items[0].(*ast.Function)
	assert.Equal(t, []string{"T"}, fn.TypeParams)
	require.Len(t, fn.Lives, 1)
	assert.Equal(t, "a", fn.Lives[0].Target)
	assert.Equal(t, []string{"b"}, fn.Lives[0].Sources)
}

func Test_Parse_implMethod(t *testing.T) {
	file, bag := parse(t, `package main
impl fn area(self: &Rect): i32 {
	return 0;
}
`)

	require.False(t, bag.HasStage(diag.StageParse))
	require.Len(t, file.Items, 1)
	m := file.Items[0].(*ast.Method)
	assert.Equal(t, "Rect", m.ReceiverType)
	assert.True(t, m.Receiver.ByRef)
	assert.Equal(t, "self", m.Receiver.Name)
}

func Test_Parse_structDef(t *testing.T) {
	file, bag := parse(t, `package main
type Rect struct {
	w: i32,
	h: i32,
}
`)

	require.False(t, bag.HasStage(diag.StageParse))
	s := file.Items[0].(*ast.StructDef)
	assert.Equal(t, "Rect", s.Name)
	require.Len(t, s.Fields, 2)
	assert.Equal(t, "w", s.Fields[0].Name)
}

func Test_Parse_enumDefWithVariantFields(t *testing.T) {
	file, bag := parse(t, `package main
type Shape enum {
	Circle { r: f64 },
	Point,
}
`)

	require.False(t, bag.HasStage(diag.StageParse))
	e := file.Items[0].(*ast.EnumDef)
	assert.Equal(t, "Shape", e.Name)
	require.Len(t, e.Variants, 2)
	assert.Equal(t, "Circle", e.Variants[0].Name)
	assert.Equal(t, 0, e.Variants[0].Index)
	require.Len(t, e.Variants[0].Fields, 1)
	assert.Equal(t, "Point", e.Variants[1].Name)
	assert.Equal(t, 1, e.Variants[1].Index)
	assert.Empty(t, e.Variants[1].Fields)
}

func Test_Parse_aliasDefConsumesEquals(t *testing.T) {
	file, bag := parse(t, `package main
type Meters = f64;
`)

	require.False(t, bag.HasStage(diag.StageParse))
	a := file.Items[0].(*ast.AliasDef)
	assert.Equal(t, "Meters", a.Name)
	assert.Equal(t, "f64", a.Underlying.Name)
}

func Test_Parse_malformedItemResynchronizes(t *testing.T) {
	file, bag := parse(t, `package main
123 garbage tokens here;
fn ok(): i32 {
	return 1;
}
`)

	require.True(t, bag.HasStage(diag.StageParse))
	require.Len(t, file.Items, 1)
	fn, ok := file.Items[0].(*ast.Function)
	require.True(t, ok)
	assert.Equal(t, "ok", fn.Name)
}

func Test_Parse_missingPackageHeaderReportsError(t *testing.T) {
	_, bag := parse(t, `fn f(): i32 { return 1; }`)

	assert.True(t, bag.HasStage(diag.StageParse))
}

func Test_Parse_pubRequiresFnOrType(t *testing.T) {
	_, bag := parse(t, `package main
pub let x = 1;
`)

	assert.True(t, bag.HasStage(diag.StageParse))
}
