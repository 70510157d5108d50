package codegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dekarrin/yunic/internal/ir"
)

func Test_FoldConstants_arithAndUse(t *testing.T) {
	i32 := ir.Type{Kind: ir.TypeInt, Name: "i32"}
	sum := ir.Arith{Base: ir.NewBase("t0", i32), Op: ir.OpAdd,
		Left: ir.Const{Typ: i32, Int: 2}, Right: ir.Const{Typ: i32, Int: 3}}

	blk := &ir.Block{
		Name:   "entry",
		Instrs: []ir.Instr{sum},
		Term:   ir.Ret{Value: ir.Ref{Name: "t0", Typ: i32}},
	}
	fn := &ir.Function{Name: "f", Blocks: []*ir.Block{blk}}
	mod := &ir.Module{Functions: []*ir.Function{fn}}

	FoldConstants(mod)

	assert.Empty(t, fn.Blocks[0].Instrs, "folded instruction should be dropped")
	ret, ok := fn.Blocks[0].Term.(ir.Ret)
	require.True(t, ok)
	c, ok := ret.Value.(ir.Const)
	require.True(t, ok, "return value should be inlined as a constant")
	assert.EqualValues(t, 5, c.Int)
}

func Test_FoldConstants_divByZeroNotFolded(t *testing.T) {
	i32 := ir.Type{Kind: ir.TypeInt, Name: "i32"}
	div := ir.Arith{Base: ir.NewBase("t0", i32), Op: ir.OpDiv,
		Left: ir.Const{Typ: i32, Int: 1}, Right: ir.Const{Typ: i32, Int: 0}}

	blk := &ir.Block{Name: "entry", Instrs: []ir.Instr{div}, Term: ir.Ret{Value: ir.Ref{Name: "t0", Typ: i32}}}
	fn := &ir.Function{Name: "f", Blocks: []*ir.Block{blk}}
	mod := &ir.Module{Functions: []*ir.Function{fn}}

	FoldConstants(mod)

	require.Len(t, fn.Blocks[0].Instrs, 1, "division by a constant zero must be left for a runtime trap, not folded")
}

func Test_FoldConstants_cmpProducesBool(t *testing.T) {
	i32 := ir.Type{Kind: ir.TypeInt, Name: "i32"}
	boolT := ir.Type{Kind: ir.TypeBool}
	cmp := ir.ICmp{Base: ir.NewBase("t0", boolT), Pred: ir.CmpLt,
		Left: ir.Const{Typ: i32, Int: 1}, Right: ir.Const{Typ: i32, Int: 2}}

	blk := &ir.Block{Name: "entry", Instrs: []ir.Instr{cmp},
		Term: ir.CondBr{Cond: ir.Ref{Name: "t0", Typ: boolT}, Then: "a", Else: "b"}}
	fn := &ir.Function{Name: "f", Blocks: []*ir.Block{blk}}
	mod := &ir.Module{Functions: []*ir.Function{fn}}

	FoldConstants(mod)

	assert.Empty(t, fn.Blocks[0].Instrs)
	cond, ok := fn.Blocks[0].Term.(ir.CondBr)
	require.True(t, ok)
	c, ok := cond.Cond.(ir.Const)
	require.True(t, ok)
	assert.True(t, c.Bool)
}
