package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Type_String(t *testing.T) {
	assert.Equal(t, "i32", Type{Kind: TypeInt, Name: "i32"}.String())
	assert.Equal(t, "bool", Type{Kind: TypeBool}.String())
	assert.Equal(t, "ptr", Type{Kind: TypePtr}.String())
	assert.Equal(t, "void", Type{Kind: TypeVoid}.String())

	elem := Type{Kind: TypeInt, Name: "u8"}
	assert.Equal(t, "[u8]", Type{Kind: TypeArray, Elem: &elem}.String())
}

func Test_Base_satisfiesResultAccessors(t *testing.T) {
	b := NewBase("t0", Type{Kind: TypeInt, Name: "i32"})

	assert.Equal(t, "t0", b.ResultName())
	assert.Equal(t, "i32", b.ResultType().Name)
}

func Test_Alloc_String(t *testing.T) {
	a := Alloc{Base: NewBase("slot0", Type{Kind: TypePtr}), Elem: Type{Kind: TypeInt, Name: "i32"}}
	assert.Equal(t, "slot0 = alloc i32", a.String())
}

func Test_Store_hasNoResult(t *testing.T) {
	s := Store{Addr: Ref{Name: "slot0"}, Value: Const{Typ: Type{Kind: TypeInt, Name: "i32"}, Int: 1}}

	assert.Equal(t, "", s.ResultName())
	assert.Equal(t, TypeVoid, s.ResultType().Kind)
}

func Test_Call_String_tailVsRegular(t *testing.T) {
	call := Call{Base: NewBase("r0", Type{Kind: TypeInt, Name: "i32"}), Callee: "fib"}
	assert.Contains(t, call.String(), "call fib")

	call.Tail = true
	assert.Contains(t, call.String(), "tail call fib")
}

func Test_Const_and_Ref_implementValue(t *testing.T) {
	var v Value = Const{Typ: Type{Kind: TypeBool}, Bool: true}
	assert.Equal(t, TypeBool, v.ValueType().Kind)

	v = Ref{Name: "x", Typ: Type{Kind: TypeInt, Name: "i32"}}
	assert.Equal(t, "i32", v.ValueType().Name)
}

func Test_Unreachable_isATerminator(t *testing.T) {
	var term Terminator = Unreachable{}
	assert.Equal(t, "unreachable", term.String())
}

func Test_CondBr_String(t *testing.T) {
	c := CondBr{Cond: Ref{Name: "c0"}, Then: "then", Else: "else"}
	assert.Equal(t, "br c0, then, else", c.String())
}
