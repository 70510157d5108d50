package codegen

import (
	"github.com/dekarrin/yunic/internal/ast"
	"github.com/dekarrin/yunic/internal/ir"
	"github.com/dekarrin/yunic/internal/runtime"
)

// lowerTailExpr lowers an expression known to sit in the function's
// return position, recognizing a bare self-recursive call so it can be
// emitted as a tail call.
func (b *builder) lowerTailExpr(e ast.Expr, frame *scopeFrame) ir.Value {
	switch v := e.(type) {
	case *ast.Call:
		if id, ok := v.Callee.(*ast.Ident); ok && id.Name == b.g.currentFn {
			return b.lowerCall(v, frame, true)
		}
	case *ast.MethodCall:
		if derefType(b.exprType(v.Receiver)).Name+"_"+v.Method == b.g.currentFn {
			return b.lowerMethodCall(v, frame, true)
		}
	}
	return b.lowerExpr(e, frame)
}

func (b *builder) lowerExpr(e ast.Expr, frame *scopeFrame) ir.Value {
	switch v := e.(type) {
	case *ast.IntLit:
		return ir.Const{Typ: lowerPrimitive(suffixOr(v.Suffix, "i32")), Int: v.Value}
	case *ast.FloatLit:
		return ir.Const{Typ: lowerPrimitive(suffixOr(v.Suffix, "f64")), Float: v.Value}
	case *ast.BoolLit:
		return ir.Const{Typ: ir.Type{Kind: ir.TypeBool, Name: "bool"}, Bool: v.Value}
	case *ast.StringLit:
		return b.g.stringConst(v.Value)
	case *ast.TemplateLit:
		return b.lowerTemplate(v, frame)
	case *ast.Ident:
		addr, t := b.lookup(frame, v.Name)
		lt := b.g.lowerType(t)
		return b.emit(ir.Load{Base: b.base("ld", lt), Addr: addr})
	case *ast.Binary:
		return b.lowerBinary(v, frame)
	case *ast.Unary:
		return b.lowerUnary(v, frame)
	case *ast.Ref:
		return b.addrOf(v.Operand, frame)
	case *ast.Deref:
		addr := b.lowerExpr(v.Operand, frame)
		t := b.exprType(v.Operand)
		elemType := t
		if t.Kind == ast.TypeRef {
			elemType = *t.Elem
		}
		lt := b.g.lowerType(elemType)
		return b.emit(ir.Load{Base: b.base("ld", lt), Addr: addr})
	case *ast.Call:
		return b.lowerCall(v, frame, false)
	case *ast.MethodCall:
		return b.lowerMethodCall(v, frame, false)
	case *ast.FieldAccess:
		addr := b.addrOf(v, frame)
		lt := b.g.lowerType(b.exprType(v))
		return b.emit(ir.Load{Base: b.base("ld", lt), Addr: addr})
	case *ast.Index:
		addr := b.addrOf(v, frame)
		lt := b.g.lowerType(b.exprType(v))
		return b.emit(ir.Load{Base: b.base("ld", lt), Addr: addr})
	case *ast.StructLit:
		return b.lowerStructLit(v, frame)
	case *ast.EnumLit:
		return b.lowerEnumLit(v, frame)
	case *ast.If:
		return b.lowerIf(v, frame)
	case *ast.Block:
		val, _ := b.lowerBlockBody(v)
		return val
	case *ast.Match:
		return b.lowerMatch(v, frame)
	default:
		return ir.Const{Typ: ir.Type{Kind: ir.TypeVoid}}
	}
}

func suffixOr(suffix, def string) string {
	if suffix == "" {
		return def
	}
	return suffix
}

// lookup resolves name to its stack slot and declared type, falling
// back to a void slot if somehow unbound (name resolution already
// rejected this in internal/sema; codegen trusts that result).
func (b *builder) lookup(frame *scopeFrame, name string) (ir.Value, ast.Type) {
	if addr, ok := b.scope[name]; ok {
		return addr, b.varTypes[name]
	}
	return ir.Const{Typ: ir.Type{Kind: ir.TypeVoid}}, ast.Type{}
}

// addrOf computes the address of an lvalue expression without loading
// through it, used by assignment targets, &e, and field/index reads.
func (b *builder) addrOf(e ast.Expr, frame *scopeFrame) ir.Value {
	switch v := e.(type) {
	case *ast.Ident:
		addr, _ := b.lookup(frame, v.Name)
		return addr
	case *ast.FieldAccess:
		recvAddr := b.addrOf(v.Receiver, frame)
		recvType := b.exprType(v.Receiver)
		recvType = derefType(recvType)
		idx, ft := b.g.fieldIndex(recvType, v.Field)
		lt := b.g.lowerType(ft)
		return b.emit(ir.GEP{Base: b.base("gep", ir.Type{Kind: ir.TypePtr, Elem: &lt}), Addr: recvAddr, Field: idx})
	case *ast.Index:
		recvAddr := b.addrOf(v.Receiver, frame)
		recvType := derefType(b.exprType(v.Receiver))
		elemType := ast.Type{}
		if recvType.Kind == ast.TypeArray {
			elemType = *recvType.Elem
		}
		lt := b.g.lowerType(elemType)
		idxVal := b.lowerExpr(v.Index, frame)
		return b.emit(ir.GEP{Base: b.base("gep", ir.Type{Kind: ir.TypePtr, Elem: &lt}), Addr: recvAddr, IsArray: true, Index: idxVal})
	case *ast.Deref:
		return b.lowerExpr(v.Operand, frame)
	default:
		// Not a true lvalue (e.g. a call result): materialize it into a
		// fresh slot so callers that need an address still get one.
		val := b.lowerExpr(e, frame)
		return b.materializeAddr(val, b.exprType(e))
	}
}

func derefType(t ast.Type) ast.Type {
	if t.Kind == ast.TypeRef {
		return *t.Elem
	}
	return t
}

// materializeAddr spills an in-register value to a fresh stack slot and
// returns its address, for cases (match subjects, struct/enum literal
// results) where codegen needs something addressable out of a value
// that was never itself backed by a slot.
func (b *builder) materializeAddr(val ir.Value, t ast.Type) ir.Value {
	lt := b.g.lowerType(t)
	slot := b.emit(ir.Alloc{Base: b.base("slot", ir.Type{Kind: ir.TypePtr}), Elem: lt})
	b.emit(ir.Store{Addr: slot, Value: val})
	return slot
}

func (b *builder) lowerBinary(v *ast.Binary, frame *scopeFrame) ir.Value {
	if v.Op == ast.BinAnd || v.Op == ast.BinOr {
		// Short-circuit by reusing the if/phi machinery: evaluating the
		// right side as the branch taken only when it can affect the
		// result.
		return b.lowerShortCircuit(v, frame)
	}

	left := b.lowerExpr(v.Left, frame)
	right := b.lowerExpr(v.Right, frame)

	if v.Op == ast.BinAdd && isStringType(b.exprType(v.Left)) {
		return b.emit(ir.Call{Base: b.base("t", ir.Type{Kind: ir.TypePtr, Name: "str"}),
			Callee: runtime.StringConcat.Name, Args: []ir.Value{left, right}})
	}

	switch v.Op {
	case ast.BinEq, ast.BinNotEq:
		if isStringType(b.exprType(v.Left)) {
			eq := b.emit(ir.Call{Base: b.base("t", ir.Type{Kind: ir.TypeBool}),
				Callee: runtime.StringEq.Name, Args: []ir.Value{left, right}})
			if v.Op == ast.BinNotEq {
				return b.emit(ir.ICmp{Base: b.base("t", ir.Type{Kind: ir.TypeBool}), Pred: ir.CmpEq, Left: eq,
					Right: ir.Const{Typ: ir.Type{Kind: ir.TypeBool}, Bool: false}})
			}
			return eq
		}
		fallthrough
	case ast.BinLt, ast.BinLtEq, ast.BinGt, ast.BinGtEq:
		unsigned := isUnsigned(left.ValueType().Name)
		return b.emit(ir.ICmp{Base: b.base("t", ir.Type{Kind: ir.TypeBool}), Pred: binOpToCmp(v.Op), Unsigned: unsigned, Left: left, Right: right})
	default:
		lt := left.ValueType()
		return b.emit(ir.Arith{Base: b.base("t", lt), Op: binOpToArith(v.Op), Left: left, Right: right})
	}
}

// lowerShortCircuit lowers && and || with real control flow, so the
// right operand is never evaluated when the left already decides the
// result.
func (b *builder) lowerShortCircuit(v *ast.Binary, frame *scopeFrame) ir.Value {
	left := b.lowerExpr(v.Left, frame)
	origBlock := b.cur
	rhsBlock := b.newBlock("logic.rhs")
	merge := b.newBlock("logic.merge")

	shortVal := ir.Const{Typ: ir.Type{Kind: ir.TypeBool}, Bool: v.Op == ast.BinOr}
	if v.Op == ast.BinAnd {
		b.terminate(ir.CondBr{Cond: left, Then: rhsBlock.Name, Else: merge.Name})
	} else {
		b.terminate(ir.CondBr{Cond: left, Then: merge.Name, Else: rhsBlock.Name})
	}

	b.cur = rhsBlock
	right := b.lowerExpr(v.Right, frame)
	b.terminate(ir.Br{Target: merge.Name})
	rhsEnd := b.cur

	b.cur = merge
	return b.emit(ir.Phi{Base: b.base("phi", ir.Type{Kind: ir.TypeBool}), Edges: []ir.PhiEdge{
		{Block: rhsEnd.Name, Value: right},
		{Block: origBlock.Name, Value: shortVal},
	}})
}

func isStringType(t ast.Type) bool {
	return t.Kind == ast.TypePrimitive && (t.Name == "String" || t.Name == "str")
}

func (b *builder) lowerUnary(v *ast.Unary, frame *scopeFrame) ir.Value {
	operand := b.lowerExpr(v.Operand, frame)
	switch v.Op {
	case ast.UnNeg:
		zero := ir.Const{Typ: operand.ValueType()}
		return b.emit(ir.Arith{Base: b.base("t", operand.ValueType()), Op: ir.OpSub, Left: zero, Right: operand})
	case ast.UnNot:
		return b.emit(ir.ICmp{Base: b.base("t", ir.Type{Kind: ir.TypeBool}), Pred: ir.CmpEq, Left: operand,
			Right: ir.Const{Typ: ir.Type{Kind: ir.TypeBool}, Bool: false}})
	default:
		return operand
	}
}

func (b *builder) lowerCall(v *ast.Call, frame *scopeFrame, tail bool) ir.Value {
	id, _ := v.Callee.(*ast.Ident)
	name := ""
	if id != nil {
		name = id.Name
	}

	if name == "println" {
		return b.lowerPrintln(v.Args, frame)
	}

	args := make([]ir.Value, len(v.Args))
	for i, a := range v.Args {
		args[i] = b.lowerExpr(a, frame)
	}
	retType := ir.Type{Kind: ir.TypeVoid}
	if sig, ok := b.g.reg.Functions[name]; ok {
		retType = b.g.lowerType(sig.ReturnType)
	}
	return b.emit(ir.Call{Base: b.base("t", retType), Callee: name, Args: args, Tail: tail})
}

func (b *builder) lowerMethodCall(v *ast.MethodCall, frame *scopeFrame, tail bool) ir.Value {
	recvType := derefType(b.exprType(v.Receiver))
	recvAddr := b.addrOf(v.Receiver, frame)
	args := append([]ir.Value{recvAddr}, func() []ir.Value {
		out := make([]ir.Value, len(v.Args))
		for i, a := range v.Args {
			out[i] = b.lowerExpr(a, frame)
		}
		return out
	}()...)
	callee := recvType.Name + "_" + v.Method
	retType := ir.Type{Kind: ir.TypeVoid}
	if byRecv, ok := b.g.reg.Methods[recvType.Name]; ok {
		if sig, ok := byRecv[v.Method]; ok {
			retType = b.g.lowerType(sig.ReturnType)
		}
	}
	return b.emit(ir.Call{Base: b.base("t", retType), Callee: callee, Args: args, Tail: tail})
}

// lowerPrintln lowers each argument to a string and prints them
// space-separated via the C-ABI printf symbol, the same entry point a
// standalone string-literal println would use.
func (b *builder) lowerPrintln(args []ast.Expr, frame *scopeFrame) ir.Value {
	parts := make([]ir.Value, len(args))
	for i, a := range args {
		parts[i] = b.stringify(a, frame)
	}
	joined := parts[0]
	for i := 1; i < len(parts); i++ {
		space := b.g.stringConst(" ")
		withSpace := b.emit(ir.Call{Base: b.base("t", ir.Type{Kind: ir.TypePtr, Name: "str"}),
			Callee: runtime.StringConcat.Name, Args: []ir.Value{joined, space}})
		joined = b.emit(ir.Call{Base: b.base("t", ir.Type{Kind: ir.TypePtr, Name: "str"}),
			Callee: runtime.StringConcat.Name, Args: []ir.Value{withSpace, parts[i]}})
	}
	fmtStr := b.g.stringConst("%s\n")
	return b.emit(ir.Call{Base: b.base("t", ir.Type{Kind: ir.TypeInt, Name: "i32"}),
		Callee: runtime.Printf.Name, Args: []ir.Value{fmtStr, joined}})
}

// stringify lowers e and converts it to a string value via the runtime
// ABI, inlining the bool case since it has no runtime conversion symbol.
func (b *builder) stringify(e ast.Expr, frame *scopeFrame) ir.Value {
	val := b.lowerExpr(e, frame)
	t := b.exprType(e)
	if isStringType(t) {
		return val
	}
	if t.Kind == ast.TypePrimitive && t.Name == "bool" {
		return b.boolToString(val)
	}
	sym, ok := runtime.ToStringFor(t.Name)
	if !ok {
		return val
	}
	return b.emit(ir.Call{Base: b.base("t", ir.Type{Kind: ir.TypePtr, Name: "str"}), Callee: sym.Name, Args: []ir.Value{val}})
}

func (b *builder) boolToString(cond ir.Value) ir.Value {
	thenBlk := b.newBlock("bool.true")
	elseBlk := b.newBlock("bool.false")
	merge := b.newBlock("bool.merge")
	b.terminate(ir.CondBr{Cond: cond, Then: thenBlk.Name, Else: elseBlk.Name})

	b.cur = thenBlk
	trueStr := b.g.stringConst("true")
	b.terminate(ir.Br{Target: merge.Name})

	b.cur = elseBlk
	falseStr := b.g.stringConst("false")
	b.terminate(ir.Br{Target: merge.Name})

	b.cur = merge
	return b.emit(ir.Phi{Base: b.base("phi", ir.Type{Kind: ir.TypePtr, Name: "str"}), Edges: []ir.PhiEdge{
		{Block: thenBlk.Name, Value: trueStr},
		{Block: elseBlk.Name, Value: falseStr},
	}})
}

// lowerTemplate concatenates a template literal's text and interpolated
// parts left to right, stringifying each interpolated expression first.
func (b *builder) lowerTemplate(v *ast.TemplateLit, frame *scopeFrame) ir.Value {
	var acc ir.Value
	for _, part := range v.Parts {
		var piece ir.Value
		if part.IsExpr {
			piece = b.stringify(part.Expr, frame)
		} else {
			piece = b.g.stringConst(part.Text)
		}
		if acc == nil {
			acc = piece
			continue
		}
		acc = b.emit(ir.Call{Base: b.base("t", ir.Type{Kind: ir.TypePtr, Name: "str"}),
			Callee: runtime.StringConcat.Name, Args: []ir.Value{acc, piece}})
	}
	if acc == nil {
		return b.g.stringConst("")
	}
	return acc
}

func (b *builder) lowerStructLit(v *ast.StructLit, frame *scopeFrame) ir.Value {
	lt := b.g.lowerType(ast.Named(v.TypeName, v.Span))
	slot := b.emit(ir.Alloc{Base: b.base("slot", ir.Type{Kind: ir.TypePtr}), Elem: lt})
	for _, fi := range v.Fields {
		idx, ft := b.g.fieldIndex(ast.Named(v.TypeName, v.Span), fi.Name)
		val := b.lowerExpr(fi.Value, frame)
		lft := b.g.lowerType(ft)
		addr := b.emit(ir.GEP{Base: b.base("gep", ir.Type{Kind: ir.TypePtr, Elem: &lft}), Addr: slot, Field: idx})
		b.emit(ir.Store{Addr: addr, Value: val})
	}
	return b.emit(ir.Load{Base: b.base("ld", lt), Addr: slot})
}

func (b *builder) lowerEnumLit(v *ast.EnumLit, frame *scopeFrame) ir.Value {
	typeName := v.TypeName
	if typeName == "" {
		if found, ok := b.g.findVariantType(v.Variant); ok {
			typeName = found
		}
	}
	idx, fields := b.g.variantLayout(typeName, v.Variant)

	lt := b.g.lowerType(ast.Named(typeName, v.Span))
	slot := b.emit(ir.Alloc{Base: b.base("slot", ir.Type{Kind: ir.TypePtr}), Elem: lt})
	discType := ir.Type{Kind: ir.TypeInt, Name: "u32"}
	if lt.Kind == ir.TypeEnum && len(lt.Fields) > 0 {
		discType = lt.Fields[0]
	}
	discAddr := b.emit(ir.GEP{Base: b.base("gep", ir.Type{Kind: ir.TypePtr, Elem: &discType}), Addr: slot, Field: 0})
	b.emit(ir.Store{Addr: discAddr, Value: ir.Const{Typ: discType, Int: int64(idx)}})

	for i, fi := range v.Fields {
		if i >= len(fields) {
			break
		}
		val := b.lowerExpr(fi.Value, frame)
		ft := fields[i]
		addr := b.emit(ir.GEP{Base: b.base("gep", ir.Type{Kind: ir.TypePtr, Elem: &ft}), Addr: slot, Field: 1 + i})
		b.emit(ir.Store{Addr: addr, Value: val})
	}
	return b.emit(ir.Load{Base: b.base("ld", lt), Addr: slot})
}
