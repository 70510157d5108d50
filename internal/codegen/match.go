package codegen

import (
	"fmt"

	"github.com/dekarrin/yunic/internal/ast"
	"github.com/dekarrin/yunic/internal/ir"
	"github.com/dekarrin/yunic/internal/runtime"
)

// lowerIf lowers a branching expression into a then/else/merge block
// triple, phi-joining the two branch values when both are live and the
// expression is used for its value.
func (b *builder) lowerIf(v *ast.If, frame *scopeFrame) ir.Value {
	cond := b.lowerExpr(v.Cond, frame)
	thenBlk := b.newBlock("if.then")
	merge := b.newBlock("if.merge")

	var elseBlk *ir.Block
	if v.Else != nil {
		elseBlk = b.newBlock("if.else")
		b.terminate(ir.CondBr{Cond: cond, Then: thenBlk.Name, Else: elseBlk.Name})
	} else {
		b.terminate(ir.CondBr{Cond: cond, Then: thenBlk.Name, Else: merge.Name})
	}

	b.cur = thenBlk
	thenVal, thenDone := b.lowerBlockBody(v.Then)
	thenEnd := b.cur
	if !thenDone {
		b.terminate(ir.Br{Target: merge.Name})
	}

	var elseVal ir.Value
	elseDone := true
	var elseEnd *ir.Block
	if v.Else != nil {
		b.cur = elseBlk
		switch ev := v.Else.(type) {
		case *ast.Block:
			elseVal, elseDone = b.lowerBlockBody(ev)
		case *ast.If:
			elseVal = b.lowerIf(ev, frame)
			elseDone = b.cur.Term != nil
		}
		elseEnd = b.cur
		if !elseDone {
			b.terminate(ir.Br{Target: merge.Name})
		}
	}

	b.cur = merge
	var edges []ir.PhiEdge
	if !thenDone && thenVal != nil {
		edges = append(edges, ir.PhiEdge{Block: thenEnd.Name, Value: thenVal})
	}
	if v.Else != nil && !elseDone && elseVal != nil {
		edges = append(edges, ir.PhiEdge{Block: elseEnd.Name, Value: elseVal})
	}
	// When there is no else clause, the CondBr's Else edge lands on
	// merge directly, so merge is always reachable in that case
	// regardless of whether the then-branch diverged.
	noElseClause := v.Else == nil
	if thenDone && elseDone && !noElseClause {
		b.terminate(ir.Unreachable{})
		return nil
	}
	switch len(edges) {
	case 0:
		return nil
	case 1:
		return edges[0].Value
	default:
		return b.emit(ir.Phi{Base: b.base("phi", edges[0].Value.ValueType()), Edges: edges})
	}
}

// lowerMatch lowers a match expression as a cascade of test blocks, one
// per arm, falling through to the next arm's test on a miss. A wildcard
// or bare identifier pattern always matches and ends the cascade; if no
// arm is a catch-all, the final miss branches to a block terminated by
// ir.Unreachable; no pass checks that the arms are exhaustive.
func (b *builder) lowerMatch(v *ast.Match, frame *scopeFrame) ir.Value {
	subjVal := b.lowerExpr(v.Subject, frame)
	subjType := b.exprType(v.Subject)
	subjAddr := b.subjectAddr(v.Subject, frame, subjVal, subjType)

	merge := b.newBlock("match.merge")
	var edges []ir.PhiEdge
	mergeReached := false

	for i, arm := range v.Arms {
		isLast := i == len(v.Arms)-1
		bodyBlk := b.newBlock(fmt.Sprintf("match.arm%d", i))
		catchAll := isCatchAllPattern(arm.Pattern)

		var nextBlk *ir.Block
		if !catchAll {
			if isLast {
				nextBlk = b.newBlock("match.trap")
			} else {
				nextBlk = b.newBlock(fmt.Sprintf("match.test%d", i+1))
			}
			cond := b.lowerPatternTest(arm.Pattern, subjAddr, subjVal, subjType, frame)
			b.terminate(ir.CondBr{Cond: cond, Then: bodyBlk.Name, Else: nextBlk.Name})
		} else {
			b.terminate(ir.Br{Target: bodyBlk.Name})
		}

		b.cur = bodyBlk
		armFrame := b.pushScope()
		b.bindPattern(arm.Pattern, subjAddr, subjVal, subjType, armFrame)
		var armVal ir.Value
		var armDone bool
		if blk, ok := arm.Body.(*ast.Block); ok {
			armVal, armDone = b.lowerBlockBody(blk)
		} else {
			armVal = b.lowerExpr(arm.Body, armFrame)
			armDone = b.cur.Term != nil
		}
		armEnd := b.cur
		b.popScope(armFrame)
		if !armDone {
			b.terminate(ir.Br{Target: merge.Name})
			mergeReached = true
			if armVal != nil {
				edges = append(edges, ir.PhiEdge{Block: armEnd.Name, Value: armVal})
			}
		}

		if catchAll {
			break // remaining arms, if any, are unreachable and emit nothing
		}
		b.cur = nextBlk
		if isLast {
			b.terminate(ir.Unreachable{})
		}
	}

	b.cur = merge
	switch len(edges) {
	case 0:
		if !mergeReached {
			b.terminate(ir.Unreachable{})
		}
		return nil
	case 1:
		return edges[0].Value
	default:
		return b.emit(ir.Phi{Base: b.base("phi", edges[0].Value.ValueType()), Edges: edges})
	}
}

// subjectAddr returns an address for the match subject, reusing the
// existing slot when the subject expression is already an lvalue and
// spilling to a fresh one otherwise.
func (b *builder) subjectAddr(e ast.Expr, frame *scopeFrame, val ir.Value, t ast.Type) ir.Value {
	switch e.(type) {
	case *ast.Ident, *ast.FieldAccess, *ast.Index, *ast.Deref:
		return b.addrOf(e, frame)
	default:
		return b.materializeAddr(val, t)
	}
}

func isCatchAllPattern(p ast.Pattern) bool {
	switch p.(type) {
	case *ast.WildcardPattern, *ast.IdentPattern:
		return true
	default:
		return false
	}
}

func (b *builder) lowerPatternTest(p ast.Pattern, subjAddr, subjVal ir.Value, subjType ast.Type, frame *scopeFrame) ir.Value {
	switch v := p.(type) {
	case *ast.LiteralPattern:
		litVal := b.lowerExpr(v.Value, frame)
		if isStringType(subjType) {
			return b.emit(ir.Call{Base: b.base("t", ir.Type{Kind: ir.TypeBool}),
				Callee: runtime.StringEq.Name, Args: []ir.Value{subjVal, litVal}})
		}
		return b.emit(ir.ICmp{Base: b.base("t", ir.Type{Kind: ir.TypeBool}), Pred: ir.CmpEq, Left: subjVal, Right: litVal})
	case *ast.EnumVariantPattern:
		typeName := v.TypeName
		if typeName == "" {
			typeName = subjType.Name
		}
		idx, _ := b.g.variantLayout(typeName, v.Variant)
		lt := b.g.lowerType(subjType)
		discType := ir.Type{Kind: ir.TypeInt, Name: "u32"}
		if lt.Kind == ir.TypeEnum && len(lt.Fields) > 0 {
			discType = lt.Fields[0]
		}
		discAddr := b.emit(ir.GEP{Base: b.base("gep", ir.Type{Kind: ir.TypePtr, Elem: &discType}), Addr: subjAddr, Field: 0})
		disc := b.emit(ir.Load{Base: b.base("ld", discType), Addr: discAddr})
		return b.emit(ir.ICmp{Base: b.base("t", ir.Type{Kind: ir.TypeBool}), Pred: ir.CmpEq, Left: disc,
			Right: ir.Const{Typ: discType, Int: int64(idx)}})
	default:
		return ir.Const{Typ: ir.Type{Kind: ir.TypeBool}, Bool: true}
	}
}

// bindPattern introduces the local bindings a matched pattern brings
// into scope for its arm body.
func (b *builder) bindPattern(p ast.Pattern, subjAddr, subjVal ir.Value, subjType ast.Type, frame *scopeFrame) {
	switch v := p.(type) {
	case *ast.IdentPattern:
		b.declare(frame, v.Name, subjAddr, subjType)
	case *ast.EnumVariantPattern:
		typeName := v.TypeName
		if typeName == "" {
			typeName = subjType.Name
		}
		def, ok := b.g.reg.Types[typeName]
		if !ok || def.Enum == nil {
			return
		}
		var variant *ast.Variant
		for i := range def.Enum.Variants {
			if def.Enum.Variants[i].Name == v.Variant {
				variant = &def.Enum.Variants[i]
				break
			}
		}
		if variant == nil {
			return
		}
		for i, fp := range v.Fields {
			if i >= len(variant.Fields) {
				break
			}
			ft := variant.Fields[i].Type
			lft := b.g.lowerType(ft)
			fieldAddr := b.emit(ir.GEP{Base: b.base("gep", ir.Type{Kind: ir.TypePtr, Elem: &lft}), Addr: subjAddr, Field: 1 + i})
			b.bindPattern(fp.Pattern, fieldAddr, nil, ft, frame)
		}
	}
}
