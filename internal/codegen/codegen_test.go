package codegen_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dekarrin/yunic/internal/codegen"
	"github.com/dekarrin/yunic/internal/diag"
	"github.com/dekarrin/yunic/internal/ir"
	"github.com/dekarrin/yunic/internal/lexer"
	"github.com/dekarrin/yunic/internal/parser"
	"github.com/dekarrin/yunic/internal/sema"
)

// lower drives source all the way through the real pipeline up to and
// including codegen.Lower, so assertions here observe what Lower itself
// produced rather than a hand-built ir.Module.
func lower(t *testing.T, src string) *ir.Module {
	t.Helper()
	bag := &diag.Bag{}
	toks := lexer.New(src, bag).Tokens()
	file := parser.New(toks, bag).Parse()
	require.False(t, bag.HasStage(diag.StageParse), bag.String())

	analyzer := sema.New(bag)
	analyzer.Analyze(file)
	require.False(t, bag.HasStage(diag.StageAnalysis), bag.String())

	return codegen.New(analyzer.Registry()).Lower(file)
}

func findFunc(mod *ir.Module, name string) *ir.Function {
	for _, fn := range mod.Functions {
		if fn.Name == name {
			return fn
		}
	}
	return nil
}

func allCalls(fn *ir.Function) []ir.Call {
	var calls []ir.Call
	for _, blk := range fn.Blocks {
		for _, instr := range blk.Instrs {
			if c, ok := instr.(ir.Call); ok {
				calls = append(calls, c)
			}
		}
		if c, ok := blk.Term.(ir.Ret); ok {
			if call, ok := c.Value.(ir.Call); ok {
				calls = append(calls, call)
			}
		}
	}
	return calls
}

func Test_Lower_tailSelfRecursiveCallIsMarkedTail(t *testing.T) {
	mod := lower(t, `package main
fn countdown(n: i32): i32 {
	if n <= 0 {
		return 0;
	}
	return countdown(n - 1);
}
`)

	fn := findFunc(mod, "countdown")
	require.NotNil(t, fn)

	calls := allCalls(fn)
	require.Len(t, calls, 1)
	assert.Equal(t, "countdown", calls[0].Callee)
	assert.True(t, calls[0].Tail, "self-recursive call in return position should be lowered as a tail call")
}

func Test_Lower_nonTailCallIsNotMarkedTail(t *testing.T) {
	mod := lower(t, `package main
fn helper(n: i32): i32 {
	return n;
}

fn caller(n: i32): i32 {
	let x = helper(n);
	return x + 1;
}
`)

	fn := findFunc(mod, "caller")
	require.NotNil(t, fn)

	calls := allCalls(fn)
	require.Len(t, calls, 1)
	assert.Equal(t, "helper", calls[0].Callee)
	assert.False(t, calls[0].Tail, "a call to a different function must never be marked tail")
}

func Test_Lower_recursiveCallNotInTailPositionIsNotMarkedTail(t *testing.T) {
	mod := lower(t, `package main
fn sum(n: i32): i32 {
	if n <= 0 {
		return 0;
	}
	return n + sum(n - 1);
}
`)

	fn := findFunc(mod, "sum")
	require.NotNil(t, fn)

	calls := allCalls(fn)
	require.Len(t, calls, 1)
	assert.Equal(t, "sum", calls[0].Callee)
	assert.False(t, calls[0].Tail, "a self-recursive call used in an arithmetic expression is not in tail position")
}

func Test_Lower_enumDiscriminantIsStableAndNarrow(t *testing.T) {
	mod := lower(t, `package main
type Shape enum {
	Circle { r: f64 },
	Square { side: f64 },
	Point,
}

fn area(s: Shape): f64 {
	return 0.0;
}
`)

	fn := findFunc(mod, "area")
	require.NotNil(t, fn)
	require.Len(t, fn.Params, 1)

	layout := fn.Params[0].Typ
	require.Equal(t, ir.TypeEnum, layout.Kind)
	require.Len(t, layout.Variants, 3)

	assert.Equal(t, "u8", layout.Fields[0].Name, "three variants should fit the narrowest discriminant width")

	assert.Equal(t, "Circle", layout.Variants[0].Name)
	assert.Equal(t, 0, layout.Variants[0].Index)
	require.Len(t, layout.Variants[0].Fields, 1)

	assert.Equal(t, "Square", layout.Variants[1].Name)
	assert.Equal(t, 1, layout.Variants[1].Index)

	assert.Equal(t, "Point", layout.Variants[2].Name)
	assert.Equal(t, 2, layout.Variants[2].Index)
	assert.Empty(t, layout.Variants[2].Fields)
}
